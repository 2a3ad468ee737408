package cli

import (
	"context"

	"github.com/alecthomas/kong"

	"github.com/ardnew/keycalc/cli/cmd"
	"github.com/ardnew/keycalc/pkg"
)

// CLI is the top-level command-line interface for keycalc.
type CLI struct {
	Log    logConfig    `embed:"" group:"log"    prefix:"log-"`
	Pprof  pprofConfig  `embed:"" group:"pprof"  prefix:"pprof-"`
	Engine engineConfig `embed:"" group:"engine"`

	Version kong.VersionFlag `help:"Print version and exit." short:"V"`

	Init   cmd.Init   `cmd:"" help:"Write the current flag values to the configuration file"`
	Eval   cmd.Eval   `cmd:"" help:"Evaluate expressions from arguments, files, or stdin"`
	Stress cmd.Stress `cmd:"" help:"Type random expressions and compare incremental results with full evaluation"`

	Repl cmd.Repl `cmd:"" default:"1" help:"Evaluate expressions live as they are typed"`
}

// Run executes the keycalc CLI with the given context and arguments.
// The exit function is called with the appropriate exit code upon completion.
func Run(
	ctx context.Context,
	exit func(code int),
	args ...string,
) error {
	var cli CLI

	err := mkdirAllRequired()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Pre-scan for logger flags so that messages emitted while parsing use
	// the requested level and format regardless of flag position.
	cli.Log.scan(args)

	parser, err := cli.parser(
		func() context.Context { return ctx },
		exit,
		configPath(baseConfig),
	)
	if err != nil {
		return err
	}

	ktx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	// Stuff additional context values for use by commands
	ctx = cmd.WithContext(ctx, ktx)
	ctx = cmd.WithEngineOptions(ctx, cli.Engine.options()...)

	// Finalize logger configuration with all parsed values including
	// TimeLayout and Caller which don't use TextUnmarshaler.
	cli.Log.start(ctx)

	defer cli.Pprof.start(ctx)()

	return ktx.Run(&cli)
}

// parser returns the Kong parser for cli. Flag defaults are overridden by
// the YAML file at configFile, if it exists.
func (cli *CLI) parser(
	ctx func() context.Context,
	exit func(code int),
	configFile string,
) (*kong.Kong, error) {
	vars := kong.Vars{
		cmd.ConfigIdentifier: configFile,
		cmd.CacheIdentifier:  pkg.CacheDir(),
		"version":            pkg.Version(),
	}.
		CloneWith(cli.Log.vars()).
		CloneWith(cli.Pprof.vars()).
		CloneWith(cli.Engine.vars())

	return kong.New(cli,
		kong.Name(pkg.Name),
		kong.Description(pkg.Description),
		kong.UsageOnError(),
		kong.Exit(exit),
		kong.ExplicitGroups(
			[]kong.Group{cli.Log.group(), cli.Pprof.group(), cli.Engine.group()},
		),
		kong.BindSingletonProvider(ctx),
		kong.ConfigureHelp(
			kong.HelpOptions{
				Compact:             true,
				Summary:             true,
				Tree:                true,
				FlagsLast:           false,
				NoAppSummary:        false,
				NoExpandSubcommands: true,
			}),
		kong.Configuration(resolve, configFile),
		vars,
	)
}
