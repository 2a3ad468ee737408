package lang_test

import (
	"context"
	"fmt"

	"github.com/ardnew/keycalc/lang"
)

func Example() {
	ctx := context.Background()

	calc, err := lang.New(ctx)
	if err != nil {
		panic(err)
	}
	defer calc.Close()

	for _, text := range []string{"2", "2 +", "2 + 3", "2 + 3.5", "(2 + 3.5) / 2"} {
		v, err := calc.Eval(ctx, text)
		if err != nil {
			fmt.Printf("%s => %v\n", text, err)

			continue
		}

		fmt.Printf("%s => %s\n", text, v)
	}
	// Output:
	// 2 => 2
	// 2 + => parse error: missing number
	// 2 + 3 => 5
	// 2 + 3.5 => 5.5
	// (2 + 3.5) / 2 => 2.75
}

func ExampleCalculator_Update() {
	ctx := context.Background()

	calc, err := lang.New(ctx)
	if err != nil {
		panic(err)
	}
	defer calc.Close()

	// Type "12*3" one keystroke at a time.
	prev := ""

	for _, next := range []string{"1", "12", "12*", "12*3"} {
		e := lang.Diff(prev, next)
		prev = next

		v, err := calc.Update(ctx, next, e.Start, e.OldEnd, e.NewEnd)
		if err != nil {
			fmt.Printf("%-4s  %v\n", next, err)

			continue
		}

		fmt.Printf("%-4s  %s\n", next, v)
	}
	// Output:
	// 1     1
	// 12    12
	// 12*   parse error: missing number
	// 12*3  36
}

func ExampleDiagnostic_Render() {
	ctx := context.Background()

	calc, err := lang.New(ctx)
	if err != nil {
		panic(err)
	}
	defer calc.Close()

	_, err = calc.Eval(ctx, "1 + (2")

	if d, ok := err.(*lang.Diagnostic); ok {
		fmt.Println(d.Render())
	}
	// Output:
	// parse error: missing ')'
	//   1 | 1 + (2
	//             ^
	//   = help: unclosed parenthesis
}
