package cli

import (
	"strconv"
	"time"

	"github.com/alecthomas/kong"

	"github.com/ardnew/keycalc/lang"
)

// engineConfig holds the settings of the evaluation engine shared by every
// calculator a command creates.
type engineConfig struct {
	Retention     time.Duration `default:"${retention}"     help:"Evict compiled expressions unused for this long."`
	SweepInterval time.Duration `default:"${sweepInterval}" help:"Period of the background cache sweep."`
	MaxEntries    int           `default:"0"                help:"Maximum cached expressions (0 for unbounded)."`
	MaxInput      int           `default:"${maxInput}"      help:"Maximum expression length in bytes."`
	MaxDepth      int           `default:"${maxDepth}"      help:"Maximum parenthesis nesting depth."`
	Optimize      bool          `default:"true"             help:"Fold constants before code generation." negatable:""`
}

func (*engineConfig) vars() kong.Vars {
	return kong.Vars{
		"retention":     lang.DefaultRetention.String(),
		"sweepInterval": lang.DefaultSweepInterval.String(),
		"maxInput":      strconv.Itoa(lang.DefaultMaxInput),
		"maxDepth":      strconv.Itoa(lang.DefaultMaxDepth),
	}
}

func (*engineConfig) group() kong.Group {
	var group kong.Group

	group.Key = "engine"
	group.Title = "Engine options"

	return group
}

// options converts the parsed flags to engine options. Out-of-range values
// are reported by [lang.NewEngine].
func (e *engineConfig) options() []lang.Option {
	return []lang.Option{
		lang.WithRetention(e.Retention),
		lang.WithSweepInterval(e.SweepInterval),
		lang.WithMaxEntries(e.MaxEntries),
		lang.WithMaxInput(e.MaxInput),
		lang.WithMaxDepth(e.MaxDepth),
		lang.WithOptimize(e.Optimize),
	}
}
