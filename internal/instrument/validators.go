package instrument

import (
	"fmt"
	"sort"
)

// Validator checks a candidate write value against the property's values
// spec. It returns the value to send, which may differ from the input for
// truncating validators, or an error wrapping ErrInvalidValue.
type Validator func(value, values any) (any, error)

// rangeBounds extracts the numeric bounds of a ValueSet used as a range.
func rangeBounds(values any) (lo, hi float64, err error) {
	vs, ok := values.(ValueSet)
	if !ok {
		return 0, 0, fmt.Errorf("%w: range validator needs a ValueSet, got %T", ErrUnsupportedValues, values)
	}

	found := false
	for _, v := range vs {
		f, numeric := toFloat(v)
		if !numeric {
			continue
		}
		if !found {
			lo, hi = f, f
			found = true
			continue
		}
		if f < lo {
			lo = f
		}
		if f > hi {
			hi = f
		}
	}
	if !found {
		return 0, 0, fmt.Errorf("%w: range validator needs numeric bounds", ErrUnsupportedValues)
	}
	return lo, hi, nil
}

// StrictRange accepts a numeric value inside the bounds of the values spec
// and rejects anything else.
func StrictRange(value, values any) (any, error) {
	lo, hi, err := rangeBounds(values)
	if err != nil {
		return nil, err
	}
	f, ok := toFloat(value)
	if !ok {
		return nil, fmt.Errorf("%w: %v is not numeric", ErrInvalidValue, value)
	}
	if f < lo || f > hi {
		return nil, fmt.Errorf("%w: %v not in range [%v, %v]", ErrInvalidValue, value, lo, hi)
	}
	return value, nil
}

// TruncatedRange clamps a numeric value to the bounds of the values spec.
func TruncatedRange(value, values any) (any, error) {
	lo, hi, err := rangeBounds(values)
	if err != nil {
		return nil, err
	}
	f, ok := toFloat(value)
	if !ok {
		return nil, fmt.Errorf("%w: %v is not numeric", ErrInvalidValue, value)
	}
	clamped := f
	if clamped < lo {
		clamped = lo
	}
	if clamped > hi {
		clamped = hi
	}
	if clamped == f {
		return value, nil
	}
	return numberLike(value, clamped), nil
}

// StrictDiscreteSet accepts a value that is a member of the values spec:
// an element of a ValueSet or a key of a ValueMap.
func StrictDiscreteSet(value, values any) (any, error) {
	members, err := discreteMembers(values)
	if err != nil {
		return nil, err
	}
	for _, m := range members {
		if looseEqual(m, value) {
			return value, nil
		}
	}
	return nil, fmt.Errorf("%w: %v not in allowed set", ErrInvalidValue, value)
}

// TruncatedDiscreteSet picks the smallest member of the values spec that is
// greater than or equal to the value, or the largest member when the value
// exceeds all of them.
func TruncatedDiscreteSet(value, values any) (any, error) {
	members, err := discreteMembers(values)
	if err != nil {
		return nil, err
	}
	f, ok := toFloat(value)
	if !ok {
		return nil, fmt.Errorf("%w: %v is not numeric", ErrInvalidValue, value)
	}

	type member struct {
		f float64
		v any
	}
	var numeric []member
	for _, m := range members {
		if mf, mok := toFloat(m); mok {
			numeric = append(numeric, member{mf, m})
		}
	}
	if len(numeric) == 0 {
		return nil, fmt.Errorf("%w: discrete set has no numeric members", ErrUnsupportedValues)
	}
	sort.Slice(numeric, func(i, j int) bool { return numeric[i].f < numeric[j].f })

	for _, m := range numeric {
		if f <= m.f {
			return m.v, nil
		}
	}
	return numeric[len(numeric)-1].v, nil
}

// JoinedValidators combines validators: the value is accepted by the first
// validator that does not reject it. The last rejection is returned when
// all of them do.
func JoinedValidators(validators ...Validator) Validator {
	return func(value, values any) (any, error) {
		var err error
		for _, validate := range validators {
			var v any
			v, err = validate(value, values)
			if err == nil {
				return v, nil
			}
		}
		return nil, err
	}
}

// discreteMembers lists the candidate members of a discrete values spec.
func discreteMembers(values any) ([]any, error) {
	switch vs := values.(type) {
	case ValueSet:
		return vs, nil
	case ValueMap:
		members := make([]any, 0, len(vs))
		for k := range vs {
			members = append(members, k)
		}
		return members, nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedValues, values)
	}
}

// numberLike returns f shaped like sample: floats stay floats, everything
// else becomes an int when f has no fractional part.
func numberLike(sample any, f float64) any {
	switch sample.(type) {
	case float64, float32:
		return f
	default:
		if f == float64(int(f)) {
			return int(f)
		}
		return f
	}
}
