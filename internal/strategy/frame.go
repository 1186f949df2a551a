package strategy

import "github.com/rxtech-lab/argo-quant/internal/types"

// SignalFrame is the output of GenerateSignals: the input bars, one signal per bar
// and the named intermediate columns the strategy computed along the way.
type SignalFrame struct {
	Bars        []types.Bar
	Signals     []types.Signal
	ColumnNames []string
	Columns     map[string][]float64
}

// NewSignalFrame creates a frame for bars with every signal flat.
// The bars slice is referenced, not copied, and is never modified.
func NewSignalFrame(bars []types.Bar) *SignalFrame {
	return &SignalFrame{
		Bars:    bars,
		Signals: make([]types.Signal, len(bars)),
		Columns: make(map[string][]float64),
	}
}

// AddColumn stores an intermediate series under name, replacing any previous one.
func (f *SignalFrame) AddColumn(name string, values []float64) {
	if _, exists := f.Columns[name]; !exists {
		f.ColumnNames = append(f.ColumnNames, name)
	}

	f.Columns[name] = values
}

// Column returns the named series or nil.
func (f *SignalFrame) Column(name string) []float64 {
	return f.Columns[name]
}

// Len returns the number of bars in the frame.
func (f *SignalFrame) Len() int {
	return len(f.Bars)
}
