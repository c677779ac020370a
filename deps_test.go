package dombind

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDependencies(t *testing.T) {
	tests := []struct {
		name string
		expr string
		want []string
	}{
		{
			name: "single reference",
			expr: "state.count + 1",
			want: []string{"count"},
		},
		{
			name: "nested paths",
			expr: "state.user.profile.name",
			want: []string{"user.profile.name"},
		},
		{
			name: "multiple references",
			expr: "state.a > 0 && state.b.c != 'x'",
			want: []string{"a", "b.c"},
		},
		{
			name: "duplicates collapse, order preserved",
			expr: "state.b + state.a + state.b",
			want: []string{"b", "a"},
		},
		{
			name: "no references",
			expr: "1 + 2",
			want: nil,
		},
		{
			name: "state inside identifier is not a reference",
			expr: "mystate.x + interstate.y",
			want: nil,
		},
		{
			name: "empty expression",
			expr: "",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Dependencies(tt.expr)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Dependencies(%q) mismatch (-want +got):\n%s", tt.expr, diff)
			}
		})
	}
}

func TestDependenciesIdempotent(t *testing.T) {
	expr := "count(state.items) > state.limit"
	first := Dependencies(expr)
	second := Dependencies(expr)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("repeated extraction differs (-first +second):\n%s", diff)
	}
}
