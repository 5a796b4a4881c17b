package instrument

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Cast converts a single reply token into a typed value.
// A non-nil error keeps the raw token instead (permissive parsing).
type Cast func(token string) (any, error)

// Process transforms a value after reading or before writing.
// Typical uses are unit attachment and scaling.
type Process func(value any) any

// Preprocessor transforms a whole raw reply before it is split into tokens.
type Preprocessor func(reply string) string

// ValueSet is an ordered sequence of allowed values. Used as range bounds
// for the range validators, as the domain of the discrete-set validators,
// and as an index-based value map.
type ValueSet []any

// ValueMap maps user-facing values to their wire-level representation.
type ValueMap map[any]any

// CastFloat parses a token as a float64. This is the default cast.
func CastFloat(token string) (any, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(token), 64)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// CastInt parses a token as an int.
func CastInt(token string) (any, error) {
	i, err := strconv.Atoi(strings.TrimSpace(token))
	if err != nil {
		return nil, err
	}
	return i, nil
}

// CastBool parses a token as a bool. The token is parsed as a float first,
// so instrument replies like "0" and "1" behave as expected.
func CastBool(token string) (any, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(token), 64)
	if err != nil {
		return nil, err
	}
	return f != 0, nil
}

// CastString keeps the token unchanged.
func CastString(token string) (any, error) {
	return token, nil
}

// parseValues runs the read-side coercion pipeline on a raw reply:
// trim, preprocess, split on the separator, cast each token. A token whose
// cast fails is kept as its raw string. The result always has exactly one
// entry per token.
func parseValues(reply, separator string, cast Cast, preprocess Preprocessor) []any {
	s := strings.TrimSpace(reply)
	if preprocess != nil {
		s = preprocess(s)
	}

	tokens := strings.Split(s, separator)
	out := make([]any, len(tokens))
	for i, token := range tokens {
		v, err := cast(token)
		if err != nil {
			out[i] = token
			continue
		}
		out[i] = v
	}
	return out
}

// unmapValue translates a wire-level value back to its user-facing value.
//
// For a ValueSet the wire value is an index into the set; for a ValueMap it
// is looked up among the map's values. A wire value without a match is a
// fatal protocol mismatch (ErrNotInMap).
func unmapValue(raw any, values any) (any, error) {
	switch vs := values.(type) {
	case ValueSet:
		f, ok := toFloat(raw)
		if !ok || f != math.Trunc(f) {
			return nil, fmt.Errorf("%w: %v", ErrNotInMap, raw)
		}
		idx := int(f)
		if idx < 0 || idx >= len(vs) {
			return nil, fmt.Errorf("%w: %v", ErrNotInMap, raw)
		}
		return vs[idx], nil
	case ValueMap:
		for k, v := range vs {
			if looseEqual(v, raw) {
				return k, nil
			}
		}
		return nil, fmt.Errorf("%w: %v", ErrNotInMap, raw)
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedValues, values)
	}
}

// mapValue translates a user-facing value to its wire-level representation,
// the inverse of unmapValue.
func mapValue(value any, values any) (any, error) {
	switch vs := values.(type) {
	case ValueSet:
		for i, v := range vs {
			if looseEqual(v, value) {
				return i, nil
			}
		}
		return nil, fmt.Errorf("%w: %v", ErrNotInMap, value)
	case ValueMap:
		for k, v := range vs {
			if looseEqual(k, value) {
				return v, nil
			}
		}
		return nil, fmt.Errorf("%w: %v", ErrNotInMap, value)
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedValues, values)
	}
}

// formatCommand fills a set-command template. A []any value is spread over
// multi-verb templates such as "%d,%d". Numeric arguments are converted to
// the kind the verb expects, so an int fills %g and a whole float fills %d.
func formatCommand(template string, value any) string {
	var args []any
	if vs, ok := value.([]any); ok {
		args = append(args, vs...)
	} else {
		args = []any{value}
	}

	verbs := templateVerbs(template)
	for i, a := range args {
		if i >= len(verbs) {
			break
		}
		f, numeric := toFloat(a)
		if !numeric {
			continue
		}
		switch verbs[i] {
		case 'd', 'b', 'o', 'x', 'X':
			args[i] = int(f)
		case 'e', 'E', 'f', 'F', 'g', 'G':
			args[i] = f
		}
	}
	return fmt.Sprintf(template, args...)
}

// templateVerbs lists the verb letters of a fmt template in order,
// skipping %% escapes.
func templateVerbs(template string) []byte {
	var verbs []byte
	for i := 0; i < len(template); i++ {
		if template[i] != '%' {
			continue
		}
		i++
		for i < len(template) {
			c := template[i]
			if c == '%' {
				break
			}
			if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') {
				verbs = append(verbs, c)
				break
			}
			i++
		}
	}
	return verbs
}

// toFloat reports the numeric value of v, if it has one.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}

// looseEqual compares two values, treating all numeric types as equal when
// their numeric values match. Instrument replies are cast to float64 by
// default, while value specs are often written with int literals.
func looseEqual(a, b any) bool {
	if fa, ok := toFloat(a); ok {
		fb, bok := toFloat(b)
		return bok && fa == fb
	}
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	default:
		return false
	}
}
