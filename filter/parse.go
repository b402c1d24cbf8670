package filter

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// Spec is the loosely typed filter form: field -> value, or field -> condition
// list such as []any{">=", 23, "<=", 35}. The keys AND and OR (any case) hold
// nested Specs combined with that operator.
//
//	filter.Spec{
//		"type":        []any{"like", "%code%"},
//		"entity_name": "products",
//		"entity_id":   []any{">=", 23, "<=", 35},
//		"OR": filter.Spec{
//			"expiration_at":  []any{"<=", time.Now()},
//			"remaining_uses": 0,
//		},
//	}
type Spec map[string]any

type combinator string

const (
	combineAnd combinator = "AND"
	combineOr  combinator = "OR"
)

// Parse converts spec into a Condition. Entries at one level are joined with
// AND; plain field keys are visited in sorted order, followed by group keys.
// A nil value, bare or as the operand of "=" / "!=", becomes IS NULL / IS NOT
// NULL instead of an invalid argument.
func Parse(spec Spec) (Condition, error) {
	return parseLevel(spec, combineAnd)
}

// MustParse is Parse for literals known to be valid.
func MustParse(spec Spec) Condition {
	cond, err := Parse(spec)
	if err != nil {
		panic(err)
	}
	return cond
}

func parseLevel(spec Spec, logic combinator) (Condition, error) {
	fields, groups := splitKeys(spec)
	conditions := make([]Condition, 0, len(spec))

	for _, field := range fields {
		cond, err := parseField(field, spec[field], logic)
		if err != nil {
			return nil, err
		}
		conditions = append(conditions, cond)
	}

	for _, key := range groups {
		nested, err := toSpec(spec[key])
		if err != nil {
			return nil, invalidArgument("group %q expects a nested filter map: %v", key, err)
		}
		cond, err := parseLevel(nested, combinator(strings.ToUpper(key)))
		if err != nil {
			return nil, err
		}
		if IsEmpty(cond) {
			continue
		}
		conditions = append(conditions, cond)
	}

	return combine(logic, conditions), nil
}

func parseField(field string, value any, logic combinator) (Condition, error) {
	field = strings.TrimSpace(field)
	if field == "" {
		return nil, invalidArgument("field name is required")
	}

	list, ok := asSequence(value)
	if !ok {
		if value == nil {
			return Null(field), nil
		}
		list = []any{string(OpEq), value}
	}
	if len(list) == 0 {
		return nil, invalidArgument("field %q has an empty condition list", field)
	}

	conditions := []Condition{}
	for i := 0; i < len(list); {
		token, ok := list[i].(string)
		if !ok {
			return nil, invalidArgument("field %q expects an operator at position %d, got %T", field, i, list[i])
		}
		op, supported := ParseOperator(token)
		if !supported {
			return nil, unsupportedOperator(token)
		}

		switch {
		case op == OpEq || op.comparison() || op == OpLike:
			if i+1 >= len(list) {
				return nil, invalidArgument("operator %q on field %q expects a value", op, field)
			}
			conditions = append(conditions, binary(field, op, list[i+1]))
			i += 2
		case op == OpIn || op == OpNotIn:
			if i+1 >= len(list) {
				return nil, invalidArgument("operator %q on field %q expects a list", op, field)
			}
			values, isSeq := asSequence(list[i+1])
			if !isSeq {
				return nil, invalidArgument("operator %q on field %q expects a list, got %T", op, field, list[i+1])
			}
			if len(values) == 0 {
				return nil, invalidArgument("operator %q on field %q expects a non-empty list", op, field)
			}
			if op == OpIn {
				conditions = append(conditions, In{Field: field, Values: values})
			} else {
				conditions = append(conditions, NotIn{Field: field, Values: values})
			}
			i += 2
		case op == OpIsNull:
			conditions = append(conditions, Null(field))
			i++
		case op == OpIsNotNull:
			conditions = append(conditions, NotNull(field))
			i++
		case op == OpBetween:
			if i+2 >= len(list) {
				return nil, invalidArgument("operator %q on field %q expects two values", op, field)
			}
			conditions = append(conditions, Range(field, list[i+1], list[i+2]))
			i += 3
		default:
			return nil, unsupportedOperator(token)
		}
	}

	return combine(logic, conditions), nil
}

func binary(field string, op Operator, value any) Condition {
	switch op {
	case OpEq:
		if value == nil {
			return Null(field)
		}
		return Eq(field, value)
	case OpLike:
		return Matches(field, value)
	default:
		if value == nil && (op == OpNe || op == OpNeAlt) {
			return NotNull(field)
		}
		return Compare{Field: field, Op: op, Value: value}
	}
}

func combine(logic combinator, conditions []Condition) Condition {
	if len(conditions) == 1 {
		return conditions[0]
	}
	if logic == combineOr {
		return Or{Conditions: conditions}
	}
	return And{Conditions: conditions}
}

func splitKeys(spec Spec) (fields []string, groups []string) {
	for key := range spec {
		switch strings.ToUpper(strings.TrimSpace(key)) {
		case string(combineAnd), string(combineOr):
			groups = append(groups, key)
		default:
			fields = append(fields, key)
		}
	}
	sort.Strings(fields)
	sort.Strings(groups)
	return fields, groups
}

func toSpec(value any) (Spec, error) {
	switch typed := value.(type) {
	case Spec:
		return typed, nil
	case map[string]any:
		return Spec(typed), nil
	case nil:
		return Spec{}, nil
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, fmt.Errorf("got %T", value)
	}
	out := make(Spec, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = iter.Value().Interface()
	}
	return out, nil
}

// asSequence flattens slices and arrays into []any. Byte slices are treated
// as scalar values.
func asSequence(value any) ([]any, bool) {
	switch typed := value.(type) {
	case nil:
		return nil, false
	case []any:
		return typed, true
	case []byte:
		return nil, false
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}
