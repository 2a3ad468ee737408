package cli

import (
	"strings"
	"testing"

	"github.com/alecthomas/kong"
)

func resolveFlag(t *testing.T, r kong.Resolver, name string) any {
	t.Helper()

	v, err := r.Resolve(nil, nil, &kong.Flag{Value: &kong.Value{Name: name}})
	if err != nil {
		t.Fatalf("Resolve(%q) error = %v", name, err)
	}

	return v
}

func TestResolve(t *testing.T) {
	t.Parallel()

	doc := `
log-level: debug
log:
  format: json
  pretty: false
max_entries: 5000
retention: 10m
ratio: 0.25
engine:
  max-depth: 64
tags:
  - a
  - 2
empty:
`

	r, err := resolve(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("resolve() error = %v", err)
	}

	tests := []struct {
		flag string
		want any
	}{
		{"log-level", "debug"},
		{"log-format", "json"},
		{"log-pretty", false},
		{"max-entries", "5000"},
		{"retention", "10m"},
		{"ratio", "0.25"},
		{"engine-max-depth", "64"},
		{"tags", "a,2"},
		{"empty", nil},
		{"missing", nil},
	}

	for _, tt := range tests {
		if got := resolveFlag(t, r, tt.flag); got != tt.want {
			t.Errorf("Resolve(%q) = %#v, want %#v", tt.flag, got, tt.want)
		}
	}

	if err := r.Validate(nil); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestResolveInvalid(t *testing.T) {
	t.Parallel()

	for _, doc := range []string{"", "[: not yaml", "- just\n- a list\n"} {
		r, err := resolve(strings.NewReader(doc))
		if err != nil {
			t.Fatalf("resolve(%q) error = %v", doc, err)
		}

		if got := resolveFlag(t, r, "log-level"); got != nil {
			t.Errorf("resolve(%q) log-level = %#v, want nil", doc, got)
		}
	}
}
