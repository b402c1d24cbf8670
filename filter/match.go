package filter

import (
	"reflect"
	"regexp"
	"strings"
	"time"
)

// Match evaluates cond against record with SQL semantics: any test against a
// NULL value is false except IS NULL. Fields missing from record are
// rejected. An empty condition matches every record.
func Match(cond Condition, record map[string]any) (bool, error) {
	if IsEmpty(cond) {
		return true, nil
	}
	return match(cond, record)
}

func match(cond Condition, record map[string]any) (bool, error) {
	switch typed := deref(cond).(type) {
	case Equals:
		value, err := lookup(record, typed.Field)
		if err != nil {
			return false, err
		}
		if typed.Value == nil {
			return value == nil, nil
		}
		cmp, ok := compareValues(value, typed.Value)
		return ok && cmp == 0, nil
	case Compare:
		return matchCompare(typed, record)
	case Like:
		value, err := lookup(record, typed.Field)
		if err != nil {
			return false, err
		}
		pattern, ok := scalar(typed.Pattern).(string)
		if !ok {
			return false, invalidArgument("operator %q on field %q expects a string pattern", OpLike, typed.Field)
		}
		text, ok := value.(string)
		if !ok {
			return false, nil
		}
		return likePattern(pattern).MatchString(text), nil
	case In:
		return matchMembership(typed.Field, OpIn, typed.Values, record, true)
	case NotIn:
		return matchMembership(typed.Field, OpNotIn, typed.Values, record, false)
	case IsNull:
		value, err := lookup(record, typed.Field)
		if err != nil {
			return false, err
		}
		return value == nil, nil
	case IsNotNull:
		value, err := lookup(record, typed.Field)
		if err != nil {
			return false, err
		}
		return value != nil, nil
	case Between:
		lo, err := match(Ge(typed.Field, typed.Lo), record)
		if err != nil || !lo {
			return false, err
		}
		return match(Le(typed.Field, typed.Hi), record)
	case And:
		for _, child := range typed.Conditions {
			if IsEmpty(child) {
				continue
			}
			ok, err := match(child, record)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	case Or:
		matched := false
		evaluated := false
		for _, child := range typed.Conditions {
			if IsEmpty(child) {
				continue
			}
			evaluated = true
			ok, err := match(child, record)
			if err != nil {
				return false, err
			}
			matched = matched || ok
		}
		return matched || !evaluated, nil
	case nil:
		return true, nil
	default:
		return false, invalidArgument("unsupported condition %T", cond)
	}
}

func matchCompare(cond Compare, record map[string]any) (bool, error) {
	if !cond.Op.comparison() && cond.Op != OpEq {
		return false, unsupportedOperator(string(cond.Op))
	}
	value, err := lookup(record, cond.Field)
	if err != nil {
		return false, err
	}
	if value == nil || scalar(cond.Value) == nil {
		return false, nil
	}
	cmp, ok := compareValues(value, cond.Value)
	if !ok {
		return false, nil
	}
	switch cond.Op {
	case OpEq:
		return cmp == 0, nil
	case OpNe, OpNeAlt:
		return cmp != 0, nil
	case OpLt:
		return cmp < 0, nil
	case OpLe:
		return cmp <= 0, nil
	case OpGt:
		return cmp > 0, nil
	default:
		return cmp >= 0, nil
	}
}

func matchMembership(field string, op Operator, values []any, record map[string]any, want bool) (bool, error) {
	if len(values) == 0 {
		return false, invalidArgument("operator %q on field %q expects a non-empty list", op, field)
	}
	value, err := lookup(record, field)
	if err != nil {
		return false, err
	}
	if value == nil {
		return false, nil
	}
	for _, candidate := range values {
		if cmp, ok := compareValues(value, candidate); ok && cmp == 0 {
			return want, nil
		}
	}
	return !want, nil
}

func lookup(record map[string]any, field string) (any, error) {
	field = strings.TrimSpace(field)
	value, ok := record[field]
	if !ok {
		return nil, invalidArgument("unknown field %q", field)
	}
	return scalar(value), nil
}

// scalar dereferences pointers; nil pointers become nil.
func scalar(value any) any {
	if value == nil {
		return nil
	}
	rv := reflect.ValueOf(value)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	return rv.Interface()
}

// compareValues orders a against b. The second result is false when the
// values are not comparable.
func compareValues(a, b any) (int, bool) {
	a, b = scalar(a), scalar(b)
	if a == nil || b == nil {
		return 0, false
	}
	if af, ok := number(a); ok {
		bf, ok := number(b)
		if !ok {
			return 0, false
		}
		return order(af < bf, af > bf), true
	}
	switch av := a.(type) {
	case string:
		if bt, ok := b.(time.Time); ok {
			at, err := time.Parse(TimestampLayout, av)
			if err != nil {
				return 0, false
			}
			return order(at.Before(bt), at.After(bt)), true
		}
		bv, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(av, bv), true
	case time.Time:
		switch bv := b.(type) {
		case time.Time:
			return order(av.Before(bv), av.After(bv)), true
		case string:
			bt, err := time.Parse(TimestampLayout, bv)
			if err != nil {
				return 0, false
			}
			return order(av.Before(bt), av.After(bt)), true
		}
		return 0, false
	case bool:
		bv, ok := b.(bool)
		if !ok {
			return 0, false
		}
		if av == bv {
			return 0, true
		}
		return order(!av, av), true
	}
	return 0, false
}

func number(value any) (float64, bool) {
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	default:
		return 0, false
	}
}

func order(less, greater bool) int {
	switch {
	case less:
		return -1
	case greater:
		return 1
	default:
		return 0
	}
}

// likePattern translates a SQL LIKE pattern. Matching is case sensitive.
func likePattern(pattern string) *regexp.Regexp {
	var b strings.Builder
	b.WriteString("(?s)^")
	for _, r := range pattern {
		switch r {
		case '%':
			b.WriteString(".*")
		case '_':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	return regexp.MustCompile(b.String())
}
