package expr

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestEvaluate(t *testing.T) {
	env := map[string]any{
		"count": 3.0,
		"name":  "ada",
		"flag":  true,
		"user": map[string]any{
			"profile": map[string]any{"name": "grace"},
		},
		"items": []any{"a", "b", "c"},
		"double": Func(func(args ...any) (any, error) {
			f, _ := toFloat(args[0])
			return f * 2, nil
		}),
	}

	tests := []struct {
		name string
		expr string
		want any
	}{
		{"number literal", "42", 42.0},
		{"string literal", "'hi'", "hi"},
		{"double quoted", `"hi"`, "hi"},
		{"true literal", "true", true},
		{"null literal", "null", nil},
		{"arithmetic", "1 + 2 * 3", 7.0},
		{"parens", "(1 + 2) * 3", 9.0},
		{"unary minus", "-count", -3.0},
		{"unary not", "!flag", false},
		{"modulo", "7 % 3", 1.0},
		{"comparison", "count >= 3", true},
		{"string compare", "'a' < 'b'", true},
		{"equality", "name == 'ada'", true},
		{"inequality", "count != 3", false},
		{"numeric equality across kinds", "3 == 3.0", true},
		{"and returns left when falsy", "false && flag", false},
		{"and returns right when truthy", "flag && count", 3.0},
		{"or picks first truthy", "'' || 'fallback'", "fallback"},
		{"ternary true", "flag ? 'yes' : 'no'", "yes"},
		{"ternary false", "count < 0 ? 'neg' : 'pos'", "pos"},
		{"nested ternary", "count == 1 ? 'one' : count == 3 ? 'three' : 'many'", "three"},
		{"identifier", "count", 3.0},
		{"missing identifier is nil", "missing", nil},
		{"member chain", "user.profile.name", "grace"},
		{"missing member is nil", "user.nope.deeper", nil},
		{"index", "items[1]", "b"},
		{"index out of range", "items[9]", nil},
		{"string concat", "'n=' + count", "n=3"},
		{"concat with nil", "'x' + missing", "x"},
		{"function call", "double(4)", 8.0},
		{"array literal", "[1, 2, 3][2]", 3.0},
		{"array literal length via truthy", "[1] && 'yes'", "yes"},
		{"object literal member", "{a: 1, 'b': 2}.b", 2.0},
		{"empty array", "[] || 'empty'", "empty"},
	}

	e := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.Evaluate(tt.expr, env)
			if err != nil {
				t.Fatalf("Evaluate(%q) returned error: %v", tt.expr, err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Evaluate(%q) mismatch (-want +got):\n%s", tt.expr, diff)
			}
		})
	}
}

func TestEvaluateErrors(t *testing.T) {
	tests := []struct {
		name string
		expr string
		want string
	}{
		{"empty", "", "unexpected end"},
		{"unterminated string", "'abc", "unterminated string"},
		{"division by zero", "1 / 0", "division by zero"},
		{"trailing garbage", "1 2", "unexpected"},
		{"not a function", "missing(1)", "not a function"},
		{"bad operand types", "true - 1", "numeric operands"},
		{"unclosed paren", "(1 + 2", `expected ")"`},
		{"stray character", "1 @ 2", "unexpected character"},
	}

	e := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Evaluate(tt.expr, nil)
			if err == nil {
				t.Fatalf("Evaluate(%q) succeeded, want error containing %q", tt.expr, tt.want)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Evaluate(%q) error = %q, want substring %q", tt.expr, err.Error(), tt.want)
			}
		})
	}
}

func TestFunctionErrorsArePropagated(t *testing.T) {
	env := map[string]any{
		"boom": Func(func(args ...any) (any, error) {
			return nil, errors.New("kaboom")
		}),
	}
	_, err := New().Evaluate("boom()", env)
	if err == nil || !strings.Contains(err.Error(), "boom: kaboom") {
		t.Errorf("error = %v, want function name prefix", err)
	}
}

func TestTruthy(t *testing.T) {
	tests := []struct {
		name string
		v    any
		want bool
	}{
		{"nil", nil, false},
		{"false", false, false},
		{"true", true, true},
		{"zero", 0.0, false},
		{"nonzero", 0.5, true},
		{"empty string", "", false},
		{"string", "x", true},
		{"empty slice", []any{}, false},
		{"slice", []any{1}, true},
		{"empty map", map[string]any{}, false},
		{"map", map[string]any{"k": 1}, true},
		{"other value", struct{}{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Truthy(tt.v); got != tt.want {
				t.Errorf("Truthy(%v) = %v, want %v", tt.v, got, tt.want)
			}
		})
	}
}

func TestStringify(t *testing.T) {
	tests := []struct {
		v    any
		want string
	}{
		{nil, ""},
		{"s", "s"},
		{true, "true"},
		{false, "false"},
		{3.0, "3"},
		{3.5, "3.5"},
		{int(7), "7"},
	}
	for _, tt := range tests {
		if got := Stringify(tt.v); got != tt.want {
			t.Errorf("Stringify(%v) = %q, want %q", tt.v, got, tt.want)
		}
	}
}
