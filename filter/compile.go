package filter

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// TimestampLayout is the default text form for time.Time parameters.
const TimestampLayout = "2006-01-02 15:04:05"

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

type Param struct {
	Name  string
	Value any
}

// Expression is a compiled condition. Params are listed in the order their
// placeholders appear in SQL.
type Expression struct {
	SQL    string
	Params []Param
}

func (e Expression) Empty() bool {
	return strings.TrimSpace(e.SQL) == ""
}

// Args returns the parameter values in placeholder order.
func (e Expression) Args() []any {
	args := make([]any, 0, len(e.Params))
	for _, param := range e.Params {
		args = append(args, param.Value)
	}
	return args
}

// Named returns the parameters keyed by name.
func (e Expression) Named() map[string]any {
	out := make(map[string]any, len(e.Params))
	for _, param := range e.Params {
		out[param.Name] = param.Value
	}
	return out
}

type CompileOption func(*compiler)

// WithPositionalPlaceholders renders every parameter as "?" instead of ":name".
func WithPositionalPlaceholders() CompileOption {
	return func(c *compiler) {
		c.placeholder = func(string) string { return "?" }
	}
}

// WithIdentifier maps a field name to the SQL identifier written in the
// expression. Returning an error rejects the field.
func WithIdentifier(fn func(field string) (string, error)) CompileOption {
	return func(c *compiler) {
		if fn != nil {
			c.identifier = fn
		}
	}
}

// WithTimeFormatter controls how time.Time parameters are bound.
func WithTimeFormatter(fn func(time.Time) any) CompileOption {
	return func(c *compiler) {
		if fn != nil {
			c.formatTime = fn
		}
	}
}

type compiler struct {
	placeholder func(name string) string
	identifier  func(field string) (string, error)
	formatTime  func(time.Time) any
	params      []Param
	counter     int
	issued      map[string]struct{}
}

// Compile renders cond into a parameterized boolean expression. An empty
// condition yields an empty Expression.
func Compile(cond Condition, opts ...CompileOption) (Expression, error) {
	c := &compiler{
		placeholder: func(name string) string { return ":" + name },
		identifier:  defaultIdentifier,
		formatTime: func(t time.Time) any {
			return t.UTC().Format(TimestampLayout)
		},
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(c)
	}
	if IsEmpty(cond) {
		return Expression{}, nil
	}
	sql, err := c.render(cond, true)
	if err != nil {
		return Expression{}, err
	}
	return Expression{SQL: sql, Params: c.params}, nil
}

func defaultIdentifier(field string) (string, error) {
	field = strings.TrimSpace(field)
	if !identifierPattern.MatchString(field) {
		return "", invalidArgument("invalid field name %q", field)
	}
	return field, nil
}

func (c *compiler) render(cond Condition, top bool) (string, error) {
	switch typed := deref(cond).(type) {
	case Equals:
		if typed.Value == nil {
			return c.render(IsNull{Field: typed.Field}, top)
		}
		return c.binary(typed.Field, "=", typed.Value)
	case Compare:
		op, ok := sqlComparison(typed.Op)
		if !ok {
			return "", unsupportedOperator(string(typed.Op))
		}
		return c.binary(typed.Field, op, typed.Value)
	case Like:
		return c.binary(typed.Field, "LIKE", typed.Pattern)
	case In:
		return c.membership(typed.Field, "IN", typed.Values)
	case NotIn:
		return c.membership(typed.Field, "NOT IN", typed.Values)
	case IsNull:
		ident, err := c.identifier(typed.Field)
		if err != nil {
			return "", err
		}
		return ident + " IS NULL", nil
	case IsNotNull:
		ident, err := c.identifier(typed.Field)
		if err != nil {
			return "", err
		}
		return ident + " IS NOT NULL", nil
	case Between:
		return c.between(typed, top)
	case And:
		return c.group(typed.Conditions, " AND ", top)
	case Or:
		return c.group(typed.Conditions, " OR ", top)
	case nil:
		return "", nil
	default:
		return "", invalidArgument("unsupported condition %T", cond)
	}
}

func (c *compiler) binary(field string, op string, value any) (string, error) {
	ident, err := c.identifier(field)
	if err != nil {
		return "", err
	}
	if value == nil {
		return "", invalidArgument("operator %q on field %q expects a value", op, field)
	}
	name := c.bind(c.nextName(field), value)
	return ident + " " + op + " " + c.placeholder(name), nil
}

func (c *compiler) membership(field string, op string, values []any) (string, error) {
	ident, err := c.identifier(field)
	if err != nil {
		return "", err
	}
	if len(values) == 0 {
		return "", invalidArgument("operator %q on field %q expects a non-empty list", strings.ToLower(op), field)
	}
	base := c.nextName(field)
	placeholders := make([]string, 0, len(values))
	for idx, value := range values {
		name := c.bind(base+"_"+strconv.Itoa(idx), value)
		placeholders = append(placeholders, c.placeholder(name))
	}
	return ident + " " + op + " (" + strings.Join(placeholders, ", ") + ")", nil
}

func (c *compiler) between(cond Between, top bool) (string, error) {
	ident, err := c.identifier(cond.Field)
	if err != nil {
		return "", err
	}
	if cond.Lo == nil || cond.Hi == nil {
		return "", invalidArgument("operator %q on field %q expects two values", OpBetween, cond.Field)
	}
	base := c.nextName(cond.Field)
	lo := c.bind(base+"_from", cond.Lo)
	hi := c.bind(base+"_to", cond.Hi)
	sql := ident + " >= " + c.placeholder(lo) + " AND " + ident + " <= " + c.placeholder(hi)
	if top {
		return sql, nil
	}
	return "(" + sql + ")", nil
}

func (c *compiler) group(conditions []Condition, sep string, top bool) (string, error) {
	parts := make([]string, 0, len(conditions))
	for _, child := range conditions {
		if IsEmpty(child) {
			continue
		}
		rendered, err := c.render(child, false)
		if err != nil {
			return "", err
		}
		if rendered != "" {
			parts = append(parts, rendered)
		}
	}
	switch len(parts) {
	case 0:
		return "", nil
	case 1:
		return parts[0], nil
	}
	sql := strings.Join(parts, sep)
	if top {
		return sql, nil
	}
	return "(" + sql + ")", nil
}

func (c *compiler) bind(name string, value any) string {
	if t, ok := value.(time.Time); ok {
		value = c.formatTime(t)
	} else if t, ok := value.(*time.Time); ok && t != nil {
		value = c.formatTime(*t)
	}
	name = c.reserve(name)
	c.params = append(c.params, Param{Name: name, Value: value})
	return name
}

// reserve returns name, or name with a numeric suffix when it was already
// issued in this expression.
func (c *compiler) reserve(name string) string {
	if c.issued == nil {
		c.issued = map[string]struct{}{}
	}
	candidate := name
	for n := 1; ; n++ {
		if _, taken := c.issued[candidate]; !taken {
			break
		}
		candidate = name + "_" + strconv.Itoa(n)
	}
	c.issued[candidate] = struct{}{}
	return candidate
}

// nextName derives a parameter name base from the field. bind keeps the
// final names unique.
func (c *compiler) nextName(field string) string {
	c.counter++
	var b strings.Builder
	for _, r := range strings.TrimSpace(field) {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String() + "_" + strconv.Itoa(c.counter)
}

func sqlComparison(op Operator) (string, bool) {
	switch op {
	case OpNe, OpNeAlt:
		return "<>", true
	case OpLt, OpLe, OpGt, OpGe:
		return string(op), true
	case OpEq:
		return "=", true
	default:
		return "", false
	}
}
