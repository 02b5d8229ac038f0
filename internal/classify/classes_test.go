package classify

import (
	"reflect"
	"testing"
)

func TestIsStableClass(t *testing.T) {
	tests := []struct {
		class string
		want  bool
	}{
		{"btn-primary", true},
		{"login-form", true},
		{"nav", true},
		{"flex", false},
		{"mt-4", false},
		{"hover:bg-blue-500", false},
		{"w-1/2", false},
		{"active", false},
		{"is-open", false},
		{"css-1x2y3z4", false},
		{"sc-bdVaJa", false},
		{"Button_root__a1b2c", false},
		{"item-4821", false},
		{"", false},
	}
	c := Default()
	for _, tt := range tests {
		t.Run(tt.class, func(t *testing.T) {
			if got := c.IsStableClass(tt.class); got != tt.want {
				t.Errorf("IsStableClass(%q) = %v, want %v", tt.class, got, tt.want)
			}
		})
	}
}

func TestStableClasses(t *testing.T) {
	c := Default()
	in := []string{"flex", "card", "active", "card", "css-1q2w3e4r", "card-primary", "shadow-lg", "featured"}

	got := c.StableClasses(in, 2)
	want := []string{"card", "card-primary"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("StableClasses(max=2) = %v, want %v", got, want)
	}

	got = c.StableClasses(in, 0)
	want = []string{"card", "card-primary", "featured"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("StableClasses(max=0) = %v, want %v", got, want)
	}

	if got := c.StableClasses([]string{"flex", "p-2"}, 2); got != nil {
		t.Errorf("all-utility classes = %v, want nil", got)
	}
}
