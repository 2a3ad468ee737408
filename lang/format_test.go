package lang

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func sampleReport(t *testing.T) Report {
	t.Helper()

	calc := newTestCalc(t)

	return Report{
		calc.Result(t.Context(), "1 + 2", false),
		calc.Result(t.Context(), "7 / 2", true),
		calc.Result(t.Context(), "2 +", true),
	}
}

func TestReport_Format(t *testing.T) {
	r := sampleReport(t)

	if r.Failed() != 1 {
		t.Errorf("Failed() = %d, want 1", r.Failed())
	}

	var buf bytes.Buffer
	if err := r.Format(t.Context(), &buf); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	out := buf.String()

	for _, want := range []string{
		"1 + 2 = 3\n",
		"7 / 2 = 3.5\n  ast:  7 / 2\n  hash: ",
		"parse error: missing number\n  1 | 2 +\n",
		"= help: expected a number or '(' here",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Format() output missing %q:\n%s", want, out)
		}
	}
}

func TestReport_FormatJSON(t *testing.T) {
	r := sampleReport(t)

	var buf bytes.Buffer
	if err := r.FormatJSON(t.Context(), &buf, 0); err != nil {
		t.Fatalf("FormatJSON() error = %v", err)
	}

	var got []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, buf.String())
	}

	if len(got) != 3 {
		t.Fatalf("decoded %d results, want 3", len(got))
	}

	if got[0]["value"] != 3.0 || got[0]["type"] != "integer" {
		t.Errorf("result 0 = %v", got[0])
	}

	ast, ok := got[1]["ast"].(map[string]any)
	if !ok || ast["kind"] != "binary" || ast["op"] != "divide" || got[1]["hash"] == nil {
		t.Errorf("result 1 ast = %v", got[1]["ast"])
	}

	diag, ok := got[2]["error"].(map[string]any)
	if !ok || diag["kind"] != "parse error" || diag["offset"] != 3.0 {
		t.Errorf("result 2 error = %v", got[2]["error"])
	}

	if _, has := got[2]["ast"]; has {
		t.Error("failed result carries an ast")
	}

	if !strings.HasPrefix(buf.String(), `[{"input":"1 + 2","type":"integer","value":3}`) {
		t.Errorf("compact output = %s", buf.String())
	}
}

func TestReport_FormatYAML(t *testing.T) {
	r := sampleReport(t)

	var buf bytes.Buffer
	if err := r.FormatYAML(t.Context(), &buf, 2); err != nil {
		t.Fatalf("FormatYAML() error = %v", err)
	}

	out := buf.String()

	for _, want := range []string{"value: 3\n", "value: 3.5\n", "kind: parse error", "op: divide"} {
		if !strings.Contains(out, want) {
			t.Errorf("FormatYAML() output missing %q:\n%s", want, out)
		}
	}
}

func TestStream_Results(t *testing.T) {
	calc := newTestCalc(t)

	src := "1 + 2\n\n# a comment\n  2 * 3.5\r\n2 +\n(1)\n"
	s := NewStream(calc, strings.NewReader(src)).Named("test").WithExpr(true)

	var got Report
	for res := range s.Results(t.Context()) {
		got = append(got, res)
	}

	if err := s.Err(); err != nil {
		t.Fatalf("Err() = %v", err)
	}

	want := []struct {
		input string
		ok    bool
		value Value
	}{
		{"1 + 2", true, Integer(3)},
		{"  2 * 3.5", true, Float(7)},
		{"2 +", false, Value{}},
		{"(1)", true, Integer(1)},
	}

	if len(got) != len(want) {
		t.Fatalf("Results() yielded %d results, want %d", len(got), len(want))
	}

	for i, w := range want {
		res := got[i]

		if res.Input != w.input || res.OK() != w.ok {
			t.Errorf("result %d = %q ok=%v, want %q ok=%v", i, res.Input, res.OK(), w.input, w.ok)

			continue
		}

		if w.ok && !res.Value.Equal(w.value) {
			t.Errorf("result %d value = %v, want %v", i, res.Value, w.value)
		}

		if w.ok && res.Expr == nil {
			t.Errorf("result %d has no expression", i)
		}
	}
}

func TestStream_StopsEarly(t *testing.T) {
	calc := newTestCalc(t)
	s := NewStream(calc, strings.NewReader("1\n2\n3\n"))

	n := 0
	for range s.Results(t.Context()) {
		n++

		if n == 2 {
			break
		}
	}

	if n != 2 {
		t.Errorf("iterated %d results, want 2", n)
	}
}
