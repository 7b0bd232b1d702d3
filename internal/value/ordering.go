package value

import "fmt"

// Compare returns -1, 0, 1 for a<b, a==b, a>b respectively, restricted
// to the variants the relational operators and range containment need:
// numeric kinds, Char and Str (lexicographic). Returns an error for any
// other pairing, which the evaluator turns into ErrorMismatchDataType.
func Compare(a, b Value) (int, error) {
	switch av := a.(type) {
	case Int:
		switch bv := b.(type) {
		case Int:
			return cmpInt64(int64(av), int64(bv)), nil
		case Float:
			return cmpFloat64(float64(av), float64(bv)), nil
		}
	case Float:
		switch bv := b.(type) {
		case Float:
			return cmpFloat64(float64(av), float64(bv)), nil
		case Int:
			return cmpFloat64(float64(av), float64(bv)), nil
		}
	case Char:
		if bv, ok := b.(Char); ok {
			return cmpInt64(int64(av), int64(bv)), nil
		}
	case StrValue:
		if bv, ok := b.(StrValue); ok {
			as, bs := av.String(), bv.String()
			switch {
			case as < bs:
				return -1, nil
			case as > bs:
				return 1, nil
			default:
				return 0, nil
			}
		}
	}
	return 0, fmt.Errorf("cannot compare %s and %s", a.Kind(), b.Kind())
}

func cmpInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpFloat64(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
