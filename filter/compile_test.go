package filter

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestCompile_NestedOrGroupIsParenthesized(t *testing.T) {
	cond := MustParse(Spec{
		"a":  1,
		"OR": Spec{"b": []any{"like", "%x%"}, "c": 0},
	})
	expr, err := Compile(cond)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if expr.SQL != "a = :a_1 AND (b LIKE :b_2 OR c = :c_3)" {
		t.Fatalf("unexpected sql %q", expr.SQL)
	}
	want := map[string]any{"a_1": 1, "b_2": "%x%", "c_3": 0}
	if !reflect.DeepEqual(expr.Named(), want) {
		t.Fatalf("expected params %v, got %v", want, expr.Named())
	}
}

func TestCompile_BetweenExpandsToInclusiveBounds(t *testing.T) {
	expr, err := Compile(Range("created_at", 10, 20))
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if expr.SQL != "created_at >= :created_at_1_from AND created_at <= :created_at_1_to" {
		t.Fatalf("unexpected sql %q", expr.SQL)
	}
	if !reflect.DeepEqual(expr.Args(), []any{10, 20}) {
		t.Fatalf("unexpected args %v", expr.Args())
	}
}

func TestCompile_RepeatedFieldGetsDistinctParams(t *testing.T) {
	expr, err := Compile(MustParse(Spec{"entity_id": []any{">=", 23, "<=", 35}}))
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if expr.SQL != "entity_id >= :entity_id_1 AND entity_id <= :entity_id_2" {
		t.Fatalf("unexpected sql %q", expr.SQL)
	}
	if len(expr.Params) != 2 || expr.Params[0].Name == expr.Params[1].Name {
		t.Fatalf("expected two distinct params, got %#v", expr.Params)
	}
}

func TestCompile_ParamNamesStayUniqueAcrossSimilarFields(t *testing.T) {
	expr, err := Compile(MustParse(Spec{
		"x":   []any{"in", []any{1, 2, 3}},
		"x_1": 5,
	}))
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if expr.SQL != "x IN (:x_1_0, :x_1_1, :x_1_2) AND x_1 = :x_1_2_1" {
		t.Fatalf("unexpected sql %q", expr.SQL)
	}
	want := map[string]any{"x_1_0": 1, "x_1_1": 2, "x_1_2": 3, "x_1_2_1": 5}
	if !reflect.DeepEqual(expr.Named(), want) {
		t.Fatalf("expected params %v, got %v", want, expr.Named())
	}
	seen := map[string]struct{}{}
	for _, param := range expr.Params {
		if _, dup := seen[param.Name]; dup {
			t.Fatalf("duplicate param name %q", param.Name)
		}
		seen[param.Name] = struct{}{}
	}
}

func TestCompile_MembershipAndNullTests(t *testing.T) {
	cond := All(
		AnyOf("type", "verify", "reset"),
		NoneOf("code", "x"),
		Null("expiration_at"),
		NotNull("remaining_uses"),
		Ne("behavior", "add"),
	)
	expr, err := Compile(cond, WithPositionalPlaceholders())
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	want := "type IN (?, ?) AND code NOT IN (?) AND expiration_at IS NULL AND remaining_uses IS NOT NULL AND behavior <> ?"
	if expr.SQL != want {
		t.Fatalf("expected %q, got %q", want, expr.SQL)
	}
	if !reflect.DeepEqual(expr.Args(), []any{"verify", "reset", "x", "add"}) {
		t.Fatalf("unexpected args %v", expr.Args())
	}
}

func TestCompile_FormatsTimes(t *testing.T) {
	at := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	expr, err := Compile(Le("expiration_at", at))
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if got := expr.Args()[0]; got != "2026-03-04 05:06:07" {
		t.Fatalf("expected formatted timestamp, got %v", got)
	}

	expr, err = Compile(Le("expiration_at", at), WithTimeFormatter(func(t time.Time) any { return t }))
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if got, ok := expr.Args()[0].(time.Time); !ok || !got.Equal(at) {
		t.Fatalf("expected raw time, got %v", expr.Args()[0])
	}
}

func TestCompile_EmptyConditionYieldsEmptyExpression(t *testing.T) {
	expr, err := Compile(All())
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if !expr.Empty() || len(expr.Params) != 0 {
		t.Fatalf("expected empty expression, got %#v", expr)
	}
}

func TestCompile_IdentifierHookCanRejectFields(t *testing.T) {
	allowed := map[string]string{"code": "t.code"}
	identifier := func(field string) (string, error) {
		if column, ok := allowed[field]; ok {
			return column, nil
		}
		return "", invalidArgument("unknown field %q", field)
	}

	expr, err := Compile(Eq("code", "abc"), WithIdentifier(identifier))
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if !strings.HasPrefix(expr.SQL, "t.code = ") {
		t.Fatalf("expected mapped identifier, got %q", expr.SQL)
	}

	_, err = Compile(Eq("secret", 1), WithIdentifier(identifier))
	if !IsInvalidArgument(err) {
		t.Fatalf("expected invalid argument, got %v", err)
	}
}

func TestCompile_RejectsInvalidInput(t *testing.T) {
	cases := map[string]Condition{
		"injected field":   Eq("a; DROP TABLE tokens", 1),
		"empty in":         In{Field: "a"},
		"missing bound":    Range("a", 1, nil),
		"nil like pattern": Matches("a", nil),
	}
	for name, cond := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Compile(cond)
			if !IsInvalidArgument(err) {
				t.Fatalf("expected invalid argument, got %v", err)
			}
		})
	}

	_, err := Compile(Compare{Field: "a", Op: "~", Value: 1})
	if !IsUnsupportedOperator(err) {
		t.Fatalf("expected unsupported operator, got %v", err)
	}
}
