package metadata

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// OperatorSigil is the prefix marking operator keys in a filter expression.
const OperatorSigil = "$"

// ErrInvalidFilter is the sentinel wrapped by every filter validation failure.
//
// Callers use errors.Is to distinguish malformed filters from legitimate
// empty result sets; the two must never be conflated.
var ErrInvalidFilter = errors.New("invalid metadata filter")

// ParseFilter validates a raw filter expression and compiles it to a FilterSet.
//
// The grammar: each top-level key is a field name mapped either to a bare
// scalar (implicit $eq) or to a map of "$"-prefixed operator keys. All
// validation happens here, before any document is evaluated, so a search
// can fail fast on a malformed filter.
//
// A nil or empty expression is valid and yields a nil FilterSet, which
// matches everything.
func ParseFilter(raw map[string]any) (*FilterSet, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	// Sort field names so validation errors and filter evaluation order are
	// deterministic regardless of map iteration order.
	fields := make([]string, 0, len(raw))
	for field := range raw {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	fs := &FilterSet{Filters: make([]Filter, 0, len(raw))}
	for _, field := range fields {
		if strings.HasPrefix(field, OperatorSigil) {
			return nil, fmt.Errorf("%w: field name %q must not start with %q", ErrInvalidFilter, field, OperatorSigil)
		}

		cond := raw[field]
		condMap, ok := cond.(map[string]any)
		if !ok {
			// Bare scalar condition: implicit equality.
			value, err := FromAny(cond)
			if err != nil {
				return nil, fmt.Errorf("%w: field %q: %v", ErrInvalidFilter, field, err)
			}
			fs.Filters = append(fs.Filters, Filter{Key: field, Operator: OpEqual, Value: value})
			continue
		}

		if len(condMap) == 0 {
			return nil, fmt.Errorf("%w: field %q has an empty condition", ErrInvalidFilter, field)
		}

		opKeys := make([]string, 0, len(condMap))
		for opKey := range condMap {
			opKeys = append(opKeys, opKey)
		}
		sort.Strings(opKeys)

		for _, opKey := range opKeys {
			filter, err := parseCondition(field, opKey, condMap[opKey])
			if err != nil {
				return nil, err
			}
			fs.Filters = append(fs.Filters, filter)
		}
	}
	return fs, nil
}

// Validate checks a raw filter expression without compiling it.
func Validate(raw map[string]any) error {
	_, err := ParseFilter(raw)
	return err
}

func parseCondition(field, opKey string, operand any) (Filter, error) {
	if !strings.HasPrefix(opKey, OperatorSigil) {
		return Filter{}, fmt.Errorf("%w: field %q: operator %q must start with %q", ErrInvalidFilter, field, opKey, OperatorSigil)
	}

	op := Operator(strings.TrimPrefix(opKey, OperatorSigil))
	value, err := FromAny(operand)
	if err != nil {
		return Filter{}, fmt.Errorf("%w: field %q operator %q: %v", ErrInvalidFilter, field, opKey, err)
	}

	switch op {
	case OpEqual, OpNotEqual:
		// Any operand type is allowed.
	case OpGreaterThan, OpGreaterEqual, OpLessThan, OpLessEqual:
		if !value.IsNumber() {
			return Filter{}, fmt.Errorf("%w: field %q operator %q requires a numeric operand, got %s", ErrInvalidFilter, field, opKey, value.Kind)
		}
	case OpIn, OpNotIn:
		if value.Kind != KindArray {
			return Filter{}, fmt.Errorf("%w: field %q operator %q requires a list operand, got %s", ErrInvalidFilter, field, opKey, value.Kind)
		}
	case OpExists:
		if value.Kind != KindBool {
			return Filter{}, fmt.Errorf("%w: field %q operator %q requires a boolean operand, got %s", ErrInvalidFilter, field, opKey, value.Kind)
		}
	case OpContains:
		if value.Kind != KindString {
			return Filter{}, fmt.Errorf("%w: field %q operator %q requires a string operand, got %s", ErrInvalidFilter, field, opKey, value.Kind)
		}
	default:
		return Filter{}, fmt.Errorf("%w: field %q: unsupported operator %q", ErrInvalidFilter, field, opKey)
	}

	return Filter{Key: field, Operator: op, Value: value}, nil
}
