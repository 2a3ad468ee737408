package cmd

import (
	"context"
	"encoding"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/goccy/go-yaml"

	"github.com/ardnew/keycalc/log"
	"github.com/ardnew/keycalc/pkg"
	"github.com/ardnew/keycalc/profile"
)

// defaultConfigIndent is the number of spaces to use for indentation
// when generating the default configuration file.
const defaultConfigIndent = 2

// Init writes the effective global flag values to the configuration file.
type Init struct {
	Force bool `help:"Overwrite existing configuration file" short:"f"`
}

// Run executes the init command.
func (i *Init) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	confPath := kongVar(ctx, ConfigIdentifier)
	if confPath == "" {
		return ErrNoConfigPath
	}

	_, err = os.Stat(confPath)
	if err == nil && !i.Force {
		return ErrWriteConfig.
			With(slog.String("file", confPath)).
			Wrap(ErrFileExists)
	}

	data, err := i.marshal(ctx)
	if err != nil {
		return err
	}

	err = os.WriteFile(confPath, data, 0o600)
	if err != nil {
		return ErrWriteConfig.
			With(slog.String("file", confPath)).
			Wrap(err)
	}

	log.DebugContext(ctx, "initialized configuration file",
		slog.String("path", confPath),
	)

	return nil
}

// marshal renders the config document with a header comment.
func (i *Init) marshal(ctx context.Context) ([]byte, error) {
	body, err := yaml.MarshalContext(ctx, i.document(ctx), yaml.Indent(defaultConfigIndent))
	if err != nil {
		return nil, ErrYAMLMarshal.Wrap(err)
	}

	header := fmt.Sprintf("# %s %s configuration\n", pkg.Name, pkg.Version())

	return append([]byte(header), body...), nil
}

// document collects the global flags in declaration order.
func (i *Init) document(ctx context.Context) yaml.MapSlice {
	ktx := kongContextFrom(ctx)
	if ktx == nil {
		return nil
	}

	skip := []string{"help", "version", profile.Tag}

	var doc yaml.MapSlice

	for _, flag := range ktx.Model.Flags {
		if flag.Hidden || slices.ContainsFunc(skip, func(s string) bool {
			return strings.HasPrefix(flag.Name, s)
		}) {
			continue
		}

		if v, ok := configValue(ktx, flag); ok {
			doc = append(doc, yaml.MapItem{Key: flag.Name, Value: v})
		}
	}

	return doc
}

// configValue converts the parsed value of flag into a YAML scalar the
// config resolver can read back.
func configValue(ktx *kong.Context, flag *kong.Flag) (any, bool) {
	switch v := ktx.FlagValue(flag).(type) {
	case nil:
		return nil, false
	case string:
		return v, v != ""
	case bool, int, int64, uint, uint64, float64:
		return v, true
	case time.Duration:
		return v.String(), true
	case encoding.TextMarshaler:
		text, err := v.MarshalText()
		if err != nil {
			return nil, false
		}

		return string(text), true
	case fmt.Stringer:
		return v.String(), true
	default:
		return fmt.Sprint(v), true
	}
}
