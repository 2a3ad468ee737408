package lang

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-yaml"
)

// Report is an ordered list of evaluation results.
type Report []Result

// Failed returns the number of results with an error.
func (r Report) Failed() int {
	n := 0

	for _, res := range r {
		if !res.OK() {
			n++
		}
	}

	return n
}

// Format writes each result as "input = value", or the rendered diagnostic
// if it failed.
func (r Report) Format(_ context.Context, w io.Writer) error {
	for _, res := range r {
		var err error

		var d *Diagnostic

		switch {
		case res.OK():
			_, err = fmt.Fprintf(w, "%s = %s\n", strings.TrimSpace(res.Input), res.Value)
		case errors.As(res.Err, &d):
			_, err = fmt.Fprintln(w, d.Render())
		default:
			_, err = fmt.Fprintf(w, "%s: %v\n", strings.TrimSpace(res.Input), res.Err)
		}

		if err != nil {
			return err
		}

		if res.Expr != nil {
			_, err = fmt.Fprintf(w, "  ast:  %s\n  hash: %016x\n", res.Expr, Hash(res.Expr))
			if err != nil {
				return err
			}
		}
	}

	return nil
}

func (r Report) toList() []map[string]any {
	list := make([]map[string]any, len(r))
	for i, res := range r {
		list[i] = res.ToMap()
	}

	return list
}

// FormatJSON writes the report as a JSON array.
func (r Report) FormatJSON(_ context.Context, w io.Writer, indent int) error {
	var (
		jsonData []byte
		err      error
	)

	if indent > 0 {
		jsonData, err = json.MarshalIndent(r.toList(), "", strings.Repeat(" ", indent))
	} else {
		jsonData, err = json.Marshal(r.toList())
	}

	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, string(jsonData))

	return err
}

// FormatYAML writes the report as a YAML sequence.
func (r Report) FormatYAML(ctx context.Context, w io.Writer, indent int) error {
	var opts []yaml.EncodeOption
	if indent > 0 {
		opts = append(opts, yaml.Indent(indent))
	} else {
		opts = append(opts, yaml.Flow(true))
	}

	yamlData, err := yaml.MarshalContext(ctx, r.toList(), opts...)
	if err != nil {
		return err
	}

	_, err = fmt.Fprint(w, string(yamlData))

	return err
}
