package expr

import (
	"reflect"
)

// category classifies a value for comparison-compatibility purposes. Two
// values are comparable only when they share a category: mixing, say, an
// int and a string must yield Indeterminate rather than a silent coercion.
type category int

const (
	categoryNone category = iota
	categoryNumeric
	categoryString
	categoryBool
	categoryOther
)

func classify(v any) category {
	switch v.(type) {
	case nil:
		return categoryNone
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return categoryNumeric
	case string:
		return categoryString
	case bool:
		return categoryBool
	default:
		return categoryOther
	}
}

func asFloat64(v any) (float64, bool) {
	switch n := v.(type) {
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
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

// equal decides equality between two values that are first checked for
// comparison-compatibility. Incompatible categories yield Indeterminate
// rather than a false-by-coincidence "not equal".
func equal(a, b any) Result {
	ca, cb := classify(a), classify(b)
	if ca == categoryNone || cb == categoryNone {
		return FromBool(a == nil && b == nil)
	}
	if ca != cb {
		return Indeterminate
	}
	switch ca {
	case categoryNumeric:
		fa, _ := asFloat64(a)
		fb, _ := asFloat64(b)
		return FromBool(fa == fb)
	case categoryString, categoryBool:
		return FromBool(a == b)
	default:
		return FromBool(reflect.DeepEqual(a, b))
	}
}

// ordered decides a 3-way ordering (-1, 0, 1) between two comparable
// values, or reports ok=false when the pair isn't order-comparable
// (different categories, or a category with no natural order).
func ordered(a, b any) (cmp int, ok bool) {
	ca, cb := classify(a), classify(b)
	if ca != cb {
		return 0, false
	}
	switch ca {
	case categoryNumeric:
		fa, _ := asFloat64(a)
		fb, _ := asFloat64(b)
		switch {
		case fa < fb:
			return -1, true
		case fa > fb:
			return 1, true
		default:
			return 0, true
		}
	case categoryString:
		sa, sb := a.(string), b.(string)
		switch {
		case sa < sb:
			return -1, true
		case sa > sb:
			return 1, true
		default:
			return 0, true
		}
	default:
		return 0, false
	}
}

// truthiness normalizes a value into a definite bool for the truthy/falsy
// unary operators: nil and zero values are falsy, non-empty/non-zero
// values are truthy. This never returns Indeterminate — truthy/falsy always
// produce a definite answer by design.
func truthiness(v any) bool {
	if v == nil {
		return false
	}
	switch x := v.(type) {
	case bool:
		return x
	case string:
		return x != ""
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		f, _ := asFloat64(x)
		return f != 0
	case float32, float64:
		f, _ := asFloat64(x)
		return f != 0
	default:
		rv := reflect.ValueOf(v)
		switch rv.Kind() {
		case reflect.Slice, reflect.Map, reflect.Array:
			return rv.Len() > 0
		case reflect.Ptr, reflect.Interface:
			return !rv.IsNil()
		default:
			return true
		}
	}
}

func toSlice(v any) ([]any, bool) {
	if v == nil {
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

func toString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}
