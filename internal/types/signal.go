package types

// Signal is a strategy's per-bar directional decision.
type Signal int

const (
	// SignalShort asks for a short position (or an exit from a long one).
	SignalShort Signal = -1
	// SignalFlat asks for no exposure.
	SignalFlat Signal = 0
	// SignalLong asks for a long position.
	SignalLong Signal = 1
)

// Valid reports whether s is one of the three allowed values.
func (s Signal) Valid() bool {
	return s == SignalShort || s == SignalFlat || s == SignalLong
}

// Float returns the signal as an exposure multiplier.
func (s Signal) Float() float64 {
	return float64(s)
}

func (s Signal) String() string {
	switch s {
	case SignalLong:
		return "long"
	case SignalShort:
		return "short"
	case SignalFlat:
		return "flat"
	default:
		return "invalid"
	}
}

// SignalFromSign maps the sign of v onto the signal domain. NaN maps to flat.
func SignalFromSign(v float64) Signal {
	switch {
	case v > 0:
		return SignalLong
	case v < 0:
		return SignalShort
	default:
		return SignalFlat
	}
}
