package metadata

import (
	"strings"
)

// Matches checks if the provided metadata matches this filter.
//
// An absent field evaluates as null, so {"$ne": x} and {"$exists": false}
// accept documents that lack the field entirely. Matching never fails;
// structural problems are caught earlier by ParseFilter.
func (f *Filter) Matches(doc Document) bool {
	value, exists := doc[f.Key]
	if !exists || value.Kind == KindInvalid {
		value = Null()
	}

	switch f.Operator {
	case OpEqual:
		return compareEqual(value, f.Value)
	case OpNotEqual:
		return !compareEqual(value, f.Value)
	case OpGreaterThan:
		return compareGreater(value, f.Value)
	case OpGreaterEqual:
		return compareGreater(value, f.Value) || compareEqual(value, f.Value)
	case OpLessThan:
		return compareLess(value, f.Value)
	case OpLessEqual:
		return compareLess(value, f.Value) || compareEqual(value, f.Value)
	case OpIn:
		return compareIn(value, f.Value)
	case OpNotIn:
		return !compareIn(value, f.Value)
	case OpExists:
		want, _ := f.Value.AsBool()
		return (value.Kind != KindNull) == want
	case OpContains:
		return compareContains(value, f.Value)
	default:
		return false
	}
}

// Matches checks if the provided metadata matches all filters in the set.
// A nil or empty set matches every document.
func (fs *FilterSet) Matches(doc Document) bool {
	if fs == nil {
		return true
	}
	for _, filter := range fs.Filters {
		if !filter.Matches(doc) {
			return false
		}
	}
	return true
}

func compareEqual(a, b Value) bool {
	if a.Kind == KindNull && b.Kind == KindNull {
		return true
	}
	if a.Kind == KindNull || b.Kind == KindNull {
		return false
	}

	if a.IsNumber() && b.IsNumber() {
		// Prefer exact int compare when possible.
		if a.Kind == KindInt && b.Kind == KindInt {
			return a.I64 == b.I64
		}
		return asFloat64(a) == asFloat64(b)
	}

	if a.Kind != b.Kind {
		return false
	}

	switch a.Kind {
	case KindString:
		return a.s == b.s
	case KindBool:
		return a.B == b.B
	case KindArray:
		if len(a.A) != len(b.A) {
			return false
		}
		for i := range a.A {
			if !compareEqual(a.A[i], b.A[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func compareGreater(a, b Value) bool {
	if !a.IsNumber() || !b.IsNumber() {
		return false
	}
	return asFloat64(a) > asFloat64(b)
}

func compareLess(a, b Value) bool {
	if !a.IsNumber() || !b.IsNumber() {
		return false
	}
	return asFloat64(a) < asFloat64(b)
}

// compareIn tests membership of a in the operand list b.
//
// For an array-valued a this is a set intersection test: any stored element
// found in b is a match. This resolves the scalar-vs-list ambiguity for
// tag-style fields; see the package documentation.
func compareIn(a, b Value) bool {
	if b.Kind != KindArray {
		return false
	}
	if a.Kind == KindArray {
		for _, elem := range a.A {
			for _, item := range b.A {
				if compareEqual(elem, item) {
					return true
				}
			}
		}
		return false
	}
	for _, item := range b.A {
		if compareEqual(a, item) {
			return true
		}
	}
	return false
}

func compareContains(a, b Value) bool {
	if a.Kind != KindString || b.Kind != KindString {
		return false
	}
	return strings.Contains(a.s.Value(), b.s.Value())
}

func asFloat64(v Value) float64 {
	switch v.Kind {
	case KindInt:
		return float64(v.I64)
	case KindFloat:
		return v.F64
	default:
		return 0
	}
}
