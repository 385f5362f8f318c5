package llm

import (
	"errors"
	"testing"
)

func TestExtractJSONObject(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want string
	}{
		{"bare object", `{"a":1}`, `{"a":1}`},
		{"prose around", `Sure! Here you go: {"a":1} Hope that helps.`, `{"a":1}`},
		{"nested braces", `{"a":{"b":2}}`, `{"a":{"b":2}}`},
		{"braces inside strings", `{"a":"closing } brace"}`, `{"a":"closing } brace"}`},
		{"escaped quotes", `{"a":"she said \"}\" loudly"}`, `{"a":"she said \"}\" loudly"}`},
		{"first object wins", `{"a":1} trailing {"b":2}`, `{"a":1}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ExtractJSONObject(tc.raw)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestExtractJSONObjectFailure(t *testing.T) {
	for _, raw := range []string{"", "no object here", `{"unterminated": true`} {
		if _, err := ExtractJSONObject(raw); !errors.Is(err, ErrNoJSONObject) {
			t.Errorf("ExtractJSONObject(%q): expected ErrNoJSONObject, got %v", raw, err)
		}
	}
}
