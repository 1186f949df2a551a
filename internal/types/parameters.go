package types

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"github.com/rxtech-lab/argo-quant/pkg/errors"
	"gopkg.in/yaml.v3"
)

// ParameterSet is an immutable mapping from parameter name to numeric value.
// Any "mutation" returns a new ParameterSet; the receiver is never changed.
type ParameterSet struct {
	values map[string]float64
}

// NewParameterSet copies values into a new ParameterSet.
func NewParameterSet(values map[string]float64) ParameterSet {
	copied := make(map[string]float64, len(values))
	for k, v := range values {
		copied[k] = v
	}

	return ParameterSet{values: copied}
}

// ParseParameterSet converts a loosely typed mapping (as decoded from YAML or
// JSON) into a ParameterSet. Every value must be numeric.
func ParseParameterSet(raw map[string]any) (ParameterSet, error) {
	values := make(map[string]float64, len(raw))

	for key, value := range raw {
		switch v := value.(type) {
		case int:
			values[key] = float64(v)
		case int64:
			values[key] = float64(v)
		case float64:
			values[key] = v
		case float32:
			values[key] = float64(v)
		case uint64:
			values[key] = float64(v)
		default:
			return ParameterSet{}, errors.Newf(errors.ErrCodeInvalidType,
				"parameter %s must be numeric, got %T", key, value)
		}
	}

	return ParameterSet{values: values}, nil
}

// Get returns the named value.
func (p ParameterSet) Get(name string) (float64, bool) {
	v, ok := p.values[name]

	return v, ok
}

// Float returns the named value or 0 when missing.
func (p ParameterSet) Float(name string) float64 {
	return p.values[name]
}

// Int returns the named value truncated to an int.
func (p ParameterSet) Int(name string) int {
	return int(p.values[name])
}

// With returns a copy of p with name set to value.
func (p ParameterSet) With(name string, value float64) ParameterSet {
	next := NewParameterSet(p.values)
	next.values[name] = value

	return next
}

// Merge returns a copy of p overlaid with every value in other.
func (p ParameterSet) Merge(other ParameterSet) ParameterSet {
	next := NewParameterSet(p.values)
	for k, v := range other.values {
		next.values[k] = v
	}

	return next
}

// Keys returns the parameter names in sorted order.
func (p ParameterSet) Keys() []string {
	keys := make([]string, 0, len(p.values))
	for k := range p.values {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}

// Len returns the number of parameters.
func (p ParameterSet) Len() int {
	return len(p.values)
}

// ToMap returns a copy of the underlying values.
func (p ParameterSet) ToMap() map[string]float64 {
	return NewParameterSet(p.values).values
}

// Require checks that every name is present.
func (p ParameterSet) Require(names ...string) error {
	for _, name := range names {
		if _, ok := p.values[name]; !ok {
			return errors.Newf(errors.ErrCodeMissingParameter, "missing parameter %s", name)
		}
	}

	return nil
}

// AllPositive reports whether every value is finite and strictly positive.
func (p ParameterSet) AllPositive() bool {
	for _, v := range p.values {
		if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
			return false
		}
	}

	return true
}

func (p ParameterSet) String() string {
	out := "{"
	for i, k := range p.Keys() {
		if i > 0 {
			out += ", "
		}

		out += fmt.Sprintf("%s=%g", k, p.values[k])
	}

	return out + "}"
}

// MarshalYAML writes the set as a plain mapping.
func (p ParameterSet) MarshalYAML() (any, error) {
	return p.ToMap(), nil
}

// MarshalJSON writes the set as a plain object.
func (p ParameterSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.ToMap())
}

// UnmarshalYAML reads a plain numeric mapping.
func (p *ParameterSet) UnmarshalYAML(value *yaml.Node) error {
	var raw map[string]float64
	if err := value.Decode(&raw); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidType, "parameters must be a numeric mapping", err)
	}

	*p = NewParameterSet(raw)

	return nil
}

// UnmarshalJSON reads a plain numeric object.
func (p *ParameterSet) UnmarshalJSON(data []byte) error {
	var raw map[string]float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidType, "parameters must be a numeric object", err)
	}

	*p = NewParameterSet(raw)

	return nil
}
