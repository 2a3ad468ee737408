package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-yaml"
)

func TestEvalText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		eval  Eval
		stdin string
		want  []string
	}{
		{
			name: "args",
			eval: Eval{Expr: []string{"1 + 2 * 3", "(1 + 2) * 3", "7 / 2"}},
			want: []string{"1 + 2 * 3 = 7", "(1 + 2) * 3 = 9", "7 / 2 = 3.5"},
		},
		{
			name:  "stdin_default",
			stdin: "# comment\n2 * 2.5\n\n10 - 4\n",
			want:  []string{"2 * 2.5 = 5.0", "10 - 4 = 6"},
		},
		{
			name:  "args_then_stdin",
			eval:  Eval{Expr: []string{"1"}, Source: []string{stdinSource}},
			stdin: "2\n",
			want:  []string{"1 = 1", "2 = 2"},
		},
		{
			name: "ast",
			eval: Eval{Expr: []string{"1 + 2"}, AST: true},
			want: []string{"1 + 2 = 3", "  ast:  ", "  hash: "},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var out bytes.Buffer

			e := tt.eval
			e.stdin = strings.NewReader(tt.stdin)
			e.stdout = &out

			if err := e.Run(context.Background()); err != nil {
				t.Fatalf("Eval.Run() error = %v", err)
			}

			lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
			if len(lines) != len(tt.want) {
				t.Fatalf("Eval.Run() wrote %q, want %d lines", out.String(), len(tt.want))
			}

			for i, want := range tt.want {
				if !strings.HasPrefix(lines[i], want) {
					t.Errorf("line %d = %q, want prefix %q", i, lines[i], want)
				}
			}
		})
	}
}

func TestEvalSourceFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "exprs.txt")
	if err := os.WriteFile(path, []byte("3 * 3\n4 * 4\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer

	e := Eval{Source: []string{path, path}, stdout: &out}
	if err := e.Run(context.Background()); err != nil {
		t.Fatalf("Eval.Run() error = %v", err)
	}

	if want := "3 * 3 = 9\n4 * 4 = 16\n"; out.String() != want {
		t.Errorf("Eval.Run() wrote %q, want %q", out.String(), want)
	}
}

func TestEvalStructured(t *testing.T) {
	t.Parallel()

	t.Run("json", func(t *testing.T) {
		t.Parallel()

		var out bytes.Buffer

		e := Eval{Expr: []string{"6 * 7"}, Format: "json", Indent: 0, stdout: &out}
		if err := e.Run(context.Background()); err != nil {
			t.Fatalf("Eval.Run() error = %v", err)
		}

		var got []map[string]any
		if err := json.Unmarshal(out.Bytes(), &got); err != nil {
			t.Fatalf("invalid JSON %q: %v", out.String(), err)
		}

		if len(got) != 1 || got[0]["value"] != float64(42) || got[0]["type"] != "integer" {
			t.Errorf("Eval.Run() = %v, want value 42 of type integer", got)
		}
	})

	t.Run("yaml", func(t *testing.T) {
		t.Parallel()

		var out bytes.Buffer

		e := Eval{Expr: []string{"1 / 4"}, Format: "yaml", Indent: 2, stdout: &out}
		if err := e.Run(context.Background()); err != nil {
			t.Fatalf("Eval.Run() error = %v", err)
		}

		var got []map[string]any
		if err := yaml.Unmarshal(out.Bytes(), &got); err != nil {
			t.Fatalf("invalid YAML %q: %v", out.String(), err)
		}

		if len(got) != 1 || got[0]["type"] != "float" {
			t.Errorf("Eval.Run() = %v, want one float result", got)
		}
	})
}

func TestEvalFailure(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer

	e := Eval{Expr: []string{"1 +", "2 + 2"}, stdout: &out}

	err := e.Run(context.Background())
	if !errors.Is(err, ErrEvalFailed) {
		t.Fatalf("Eval.Run() error = %v, want %v", err, ErrEvalFailed)
	}

	if !strings.Contains(out.String(), "2 + 2 = 4") {
		t.Errorf("Eval.Run() stopped at first failure: %q", out.String())
	}
}

func TestEvalMissingSource(t *testing.T) {
	t.Parallel()

	e := Eval{Source: []string{filepath.Join(t.TempDir(), "nope")}, stdout: &bytes.Buffer{}}

	if err := e.Run(context.Background()); !errors.Is(err, ErrOpenSource) {
		t.Errorf("Eval.Run() error = %v, want %v", err, ErrOpenSource)
	}
}
