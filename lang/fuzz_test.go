package lang

import (
	"errors"
	"testing"
	"unicode/utf8"
)

func FuzzCalculator_Update(f *testing.F) {
	for _, seed := range []string{
		"", "42", "42.5", "2 + 3.5", "1 + 2 * 3", "(2 + (3 * 4))",
		"2 +", "()", "(2 + 3", "2 + 3)", "2.a", "1 % 2", "--1", "((((",
		"9223372036854775807 * 2", "1 / 0", "é", "\x00",
	} {
		f.Add(seed, "1 + 1")
	}

	calc, err := New(f.Context())
	if err != nil {
		f.Fatalf("New() error = %v", err)
	}

	f.Cleanup(func() { _ = calc.Close() })

	f.Fuzz(func(t *testing.T, a, b string) {
		if !utf8.ValidString(a) || !utf8.ValidString(b) {
			t.Skip()
		}

		check := func(v Value, err error) {
			if err == nil {
				return
			}

			var d *Diagnostic
			if !errors.As(err, &d) {
				t.Fatalf("error %T is not a *Diagnostic: %v", err, err)
			}

			if d.Span.Offset < 0 || d.Span.End() > len(d.Source) {
				t.Fatalf("span %+v out of range for %q", d.Span, d.Source)
			}

			_ = d.Render()
		}

		check(calc.Eval(t.Context(), a))

		e := Diff(a, b)
		check(calc.Update(t.Context(), b, e.Start, e.OldEnd, e.NewEnd))

		// Arbitrary offsets must not panic either.
		check(calc.Update(t.Context(), a, len(b), -1, len(a)*2))

		if calc.Text() != a {
			t.Fatalf("Text() = %q, want %q", calc.Text(), a)
		}
	})
}
