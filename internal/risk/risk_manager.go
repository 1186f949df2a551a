// Package risk holds the stateless position and loss limits a backtest checks against.
package risk

import (
	"math"

	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/argo-quant/internal/performance"
	"github.com/rxtech-lab/argo-quant/pkg/errors"
)

// Config holds the thresholds of a Manager. Every ratio is a fraction.
type Config struct {
	// Largest position value as a share of capital.
	MaxPositionRatio float64 `yaml:"max_position_ratio" json:"max_position_ratio" validate:"gt=0,lte=1" jsonschema:"title=Max Position Ratio,minimum=0,maximum=1,default=0.2"`
	// Largest tolerated drawdown of the equity curve.
	MaxDrawdown float64 `yaml:"max_drawdown" json:"max_drawdown" validate:"gt=0,lte=1" jsonschema:"title=Max Drawdown,minimum=0,maximum=1,default=0.1"`
	// Relative loss from entry that triggers a stop.
	StopLossRatio float64 `yaml:"stop_loss_ratio" json:"stop_loss_ratio" validate:"gt=0,lte=1" jsonschema:"title=Stop Loss Ratio,minimum=0,maximum=1,default=0.05"`
	// Relative gain from entry that triggers profit taking.
	TakeProfitRatio float64 `yaml:"take_profit_ratio" json:"take_profit_ratio" validate:"gt=0" jsonschema:"title=Take Profit Ratio,minimum=0,default=0.15"`
}

// DefaultConfig returns the default thresholds.
func DefaultConfig() Config {
	return Config{
		MaxPositionRatio: 0.2,
		MaxDrawdown:      0.1,
		StopLossRatio:    0.05,
		TakeProfitRatio:  0.15,
	}
}

// Manager answers advisory risk questions. It holds no state besides its thresholds,
// and none of its methods change the data they are given.
type Manager struct {
	config Config
}

// NewManager validates config and creates a Manager.
func NewManager(config Config) (*Manager, error) {
	if err := validator.New().Struct(config); err != nil {
		return nil, errors.Wrap(errors.ErrCodeRiskConfigError, "invalid risk config", err)
	}

	return &Manager{config: config}, nil
}

// NewDefaultManager creates a Manager with DefaultConfig.
func NewDefaultManager() *Manager {
	return &Manager{config: DefaultConfig()}
}

// Config returns the thresholds.
func (m *Manager) Config() Config {
	return m.config
}

// WithStops returns a copy of m with different stop-loss and take-profit ratios.
// Non-positive values keep the current ratio.
func (m *Manager) WithStops(stopLoss, takeProfit float64) *Manager {
	next := m.config
	if stopLoss > 0 {
		next.StopLossRatio = stopLoss
	}

	if takeProfit > 0 {
		next.TakeProfitRatio = takeProfit
	}

	return &Manager{config: next}
}

// CheckPositionLimit reports whether positionValue/capital is within the max position ratio.
// A non-positive capital never passes.
func (m *Manager) CheckPositionLimit(capital, positionValue float64) bool {
	if capital <= 0 {
		return false
	}

	return positionValue/capital <= m.config.MaxPositionRatio
}

// GetMaxPositionSize returns the largest position value allowed for capital.
func (m *Manager) GetMaxPositionSize(capital float64) float64 {
	return capital * m.config.MaxPositionRatio
}

// PositionLimit is the largest absolute exposure as a fraction of equity.
func (m *Manager) PositionLimit() float64 {
	return m.config.MaxPositionRatio
}

// CheckStopLoss reports whether a long position has lost at least the stop-loss ratio.
// An entry price at or below zero never triggers.
func (m *Manager) CheckStopLoss(entryPrice, currentPrice float64) bool {
	if entryPrice <= 0 {
		return false
	}

	return (entryPrice-currentPrice)/entryPrice >= m.config.StopLossRatio
}

// CheckTakeProfit reports whether a long position has gained at least the take-profit ratio.
// An entry price at or below zero never triggers.
func (m *Manager) CheckTakeProfit(entryPrice, currentPrice float64) bool {
	if entryPrice <= 0 {
		return false
	}

	return (currentPrice-entryPrice)/entryPrice >= m.config.TakeProfitRatio
}

// CheckShortStopLoss is CheckStopLoss for a short position, which loses as the price rises.
func (m *Manager) CheckShortStopLoss(entryPrice, currentPrice float64) bool {
	if entryPrice <= 0 {
		return false
	}

	return (currentPrice-entryPrice)/entryPrice >= m.config.StopLossRatio
}

// CheckShortTakeProfit is CheckTakeProfit for a short position.
func (m *Manager) CheckShortTakeProfit(entryPrice, currentPrice float64) bool {
	if entryPrice <= 0 {
		return false
	}

	return (entryPrice-currentPrice)/entryPrice >= m.config.TakeProfitRatio
}

// CheckDrawdown reports whether the max drawdown of equityCurve is within the limit,
// that is the limit has not been breached. An empty curve returns false.
func (m *Manager) CheckDrawdown(equityCurve []float64) bool {
	if len(equityCurve) == 0 {
		return false
	}

	return performance.MaxDrawdown(equityCurve) <= m.config.MaxDrawdown
}

// ClipPosition bounds position to [-limit, +limit]. NaN becomes 0.
func ClipPosition(position, limit float64) float64 {
	if math.IsNaN(position) {
		return 0
	}

	limit = math.Abs(limit)

	return math.Max(-limit, math.Min(limit, position))
}
