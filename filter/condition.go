// Package filter builds backend-agnostic boolean conditions used to locate
// tokens, either through the typed constructors in this file or by parsing a
// loosely typed Spec. Conditions can be compiled into parameterized SQL or
// evaluated in memory against a record.
package filter

import "strings"

type Operator string

const (
	OpEq        Operator = "="
	OpNe        Operator = "!="
	OpNeAlt     Operator = "<>"
	OpLt        Operator = "<"
	OpLe        Operator = "<="
	OpGt        Operator = ">"
	OpGe        Operator = ">="
	OpLike      Operator = "like"
	OpIn        Operator = "in"
	OpNotIn     Operator = "not in"
	OpIsNull    Operator = "is null"
	OpIsNotNull Operator = "is not null"
	OpBetween   Operator = "between"
)

// ParseOperator normalizes an operator token. The second value is false for
// tokens outside the supported set.
func ParseOperator(raw string) (Operator, bool) {
	op := Operator(strings.ToLower(strings.Join(strings.Fields(raw), " ")))
	switch op {
	case OpEq, OpNe, OpNeAlt, OpLt, OpLe, OpGt, OpGe, OpLike,
		OpIn, OpNotIn, OpIsNull, OpIsNotNull, OpBetween:
		return op, true
	default:
		return op, false
	}
}

func (o Operator) comparison() bool {
	switch o {
	case OpNe, OpNeAlt, OpLt, OpLe, OpGt, OpGe:
		return true
	default:
		return false
	}
}

// Condition is the closed set of filter variants. Only types declared in
// this package implement it.
type Condition interface {
	condition()
}

type Equals struct {
	Field string
	Value any
}

// Compare holds an ordering or inequality test. Op is one of !=, <>, <, <=, > or >=.
type Compare struct {
	Field string
	Op    Operator
	Value any
}

type Like struct {
	Field   string
	Pattern any
}

type In struct {
	Field  string
	Values []any
}

type NotIn struct {
	Field  string
	Values []any
}

type IsNull struct {
	Field string
}

type IsNotNull struct {
	Field string
}

// Between is inclusive on both ends.
type Between struct {
	Field string
	Lo    any
	Hi    any
}

type And struct {
	Conditions []Condition
}

type Or struct {
	Conditions []Condition
}

func (Equals) condition()    {}
func (Compare) condition()   {}
func (Like) condition()      {}
func (In) condition()        {}
func (NotIn) condition()     {}
func (IsNull) condition()    {}
func (IsNotNull) condition() {}
func (Between) condition()   {}
func (And) condition()       {}
func (Or) condition()        {}

func Eq(field string, value any) Condition {
	return Equals{Field: field, Value: value}
}

func Ne(field string, value any) Condition {
	return Compare{Field: field, Op: OpNe, Value: value}
}

func Lt(field string, value any) Condition {
	return Compare{Field: field, Op: OpLt, Value: value}
}

func Le(field string, value any) Condition {
	return Compare{Field: field, Op: OpLe, Value: value}
}

func Gt(field string, value any) Condition {
	return Compare{Field: field, Op: OpGt, Value: value}
}

func Ge(field string, value any) Condition {
	return Compare{Field: field, Op: OpGe, Value: value}
}

func Matches(field string, pattern any) Condition {
	return Like{Field: field, Pattern: pattern}
}

func AnyOf(field string, values ...any) Condition {
	return In{Field: field, Values: append([]any(nil), values...)}
}

func NoneOf(field string, values ...any) Condition {
	return NotIn{Field: field, Values: append([]any(nil), values...)}
}

func Null(field string) Condition {
	return IsNull{Field: field}
}

func NotNull(field string) Condition {
	return IsNotNull{Field: field}
}

func Range(field string, lo any, hi any) Condition {
	return Between{Field: field, Lo: lo, Hi: hi}
}

// All joins conditions with AND, skipping nil and empty groups.
func All(conditions ...Condition) Condition {
	return And{Conditions: compact(conditions)}
}

// Any joins conditions with OR, skipping nil and empty groups.
func Any(conditions ...Condition) Condition {
	return Or{Conditions: compact(conditions)}
}

// IsEmpty reports whether cond carries no test at all: nil, or a group whose
// members are all empty.
func IsEmpty(cond Condition) bool {
	switch typed := cond.(type) {
	case nil:
		return true
	case And:
		return allEmpty(typed.Conditions)
	case *And:
		return typed == nil || allEmpty(typed.Conditions)
	case Or:
		return allEmpty(typed.Conditions)
	case *Or:
		return typed == nil || allEmpty(typed.Conditions)
	default:
		return false
	}
}

// Fields returns the field names referenced by cond in first-seen order.
func Fields(cond Condition) []string {
	seen := map[string]struct{}{}
	out := []string{}
	Walk(cond, func(field string) {
		if _, ok := seen[field]; ok {
			return
		}
		seen[field] = struct{}{}
		out = append(out, field)
	})
	return out
}

// Walk calls fn for every field test in cond, depth first.
func Walk(cond Condition, fn func(field string)) {
	if fn == nil {
		return
	}
	switch typed := deref(cond).(type) {
	case Equals:
		fn(typed.Field)
	case Compare:
		fn(typed.Field)
	case Like:
		fn(typed.Field)
	case In:
		fn(typed.Field)
	case NotIn:
		fn(typed.Field)
	case IsNull:
		fn(typed.Field)
	case IsNotNull:
		fn(typed.Field)
	case Between:
		fn(typed.Field)
	case And:
		for _, child := range typed.Conditions {
			Walk(child, fn)
		}
	case Or:
		for _, child := range typed.Conditions {
			Walk(child, fn)
		}
	}
}

func compact(conditions []Condition) []Condition {
	out := make([]Condition, 0, len(conditions))
	for _, cond := range conditions {
		if IsEmpty(cond) {
			continue
		}
		out = append(out, cond)
	}
	return out
}

func allEmpty(conditions []Condition) bool {
	for _, cond := range conditions {
		if !IsEmpty(cond) {
			return false
		}
	}
	return true
}

// deref lets callers pass pointers to the variant structs.
func deref(cond Condition) Condition {
	switch typed := cond.(type) {
	case *Equals:
		if typed != nil {
			return *typed
		}
	case *Compare:
		if typed != nil {
			return *typed
		}
	case *Like:
		if typed != nil {
			return *typed
		}
	case *In:
		if typed != nil {
			return *typed
		}
	case *NotIn:
		if typed != nil {
			return *typed
		}
	case *IsNull:
		if typed != nil {
			return *typed
		}
	case *IsNotNull:
		if typed != nil {
			return *typed
		}
	case *Between:
		if typed != nil {
			return *typed
		}
	case *And:
		if typed != nil {
			return *typed
		}
	case *Or:
		if typed != nil {
			return *typed
		}
	default:
		return cond
	}
	return nil
}
