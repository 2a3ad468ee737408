package cmd

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/ardnew/keycalc/lang"
	"github.com/ardnew/keycalc/log"
)

// contextKey is used to store a [kong.Context] value in [context.Context].
type contextKey struct{}

// WithContext returns a new context.Context containing the given kong.Context.
func WithContext(ctx context.Context, ktx *kong.Context) context.Context {
	return context.WithValue(ctx, contextKey{}, ktx)
}

func kongContextFrom(ctx context.Context) *kong.Context {
	ktx, ok := ctx.Value(contextKey{}).(*kong.Context)
	if !ok || ktx == nil {
		return nil
	}

	return ktx
}

// kongVar returns the kong variable named id, or "" if ctx carries no kong
// context or the variable is undefined.
func kongVar(ctx context.Context, id string) string {
	ktx := kongContextFrom(ctx)
	if ktx == nil {
		return ""
	}

	return ktx.Model.Vars()[id]
}

type engineKey struct{}

// WithEngineOptions returns a new context.Context carrying options applied to
// every engine a command creates.
func WithEngineOptions(ctx context.Context, opts ...lang.Option) context.Context {
	return context.WithValue(ctx, engineKey{}, opts)
}

func engineOptionsFrom(ctx context.Context) []lang.Option {
	opts, _ := ctx.Value(engineKey{}).([]lang.Option)

	return opts
}

// newEngine creates an engine from the options stored in ctx, logging
// through the default logger.
func newEngine(ctx context.Context) (*lang.Engine, error) {
	opts := append([]lang.Option{lang.WithLogger(log.Default())}, engineOptionsFrom(ctx)...)

	return lang.NewEngine(ctx, opts...)
}

// stdinSource is the special source indicator for reading from stdin.
const stdinSource = "-"

// source is one named input opened for reading.
type source struct {
	name string
	r    io.Reader
}

// sources is an ordered list of inputs that closes the files it opened.
type sources []source

// Close closes every opened file.
func (s sources) Close() error {
	var first error

	for _, src := range s {
		if c, ok := src.r.(io.Closer); ok && src.name != stdinSource {
			if err := c.Close(); err != nil && first == nil {
				first = err
			}
		}
	}

	return first
}

// fileKey uniquely identifies a file by its device and inode numbers.
// This handles deduplication across symlinks, absolute/relative paths, and
// special device files.
type fileKey struct {
	dev uint64
	ino uint64
}

// openSources opens paths in order. Files reached more than once through
// symlinks or different relative paths are read once. Every "-" collapses
// into a single read of stdin placed after all regular files.
func openSources(paths []string, stdin io.Reader) (sources, error) {
	srcs := make(sources, 0, len(paths))
	seen := make(map[fileKey]struct{})
	hasStdin := false

	for _, path := range paths {
		if path == stdinSource {
			hasStdin = true

			continue
		}

		src, ok, err := openUnique(path, seen)
		if err != nil {
			_ = srcs.Close()

			return nil, ErrOpenSource.With(slog.String("path", path)).Wrap(err)
		}

		if ok {
			srcs = append(srcs, src)
		}
	}

	if hasStdin {
		srcs = append(srcs, source{name: stdinSource, r: stdin})
	}

	return srcs, nil
}

// openUnique opens the file at path unless a file with the same identity was
// already opened. It reports false for duplicates.
func openUnique(path string, seen map[fileKey]struct{}) (source, bool, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return source{}, false, err
	}

	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return source{}, false, err
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return source{}, false, err
	}

	if key, ok := makeFileKey(info); ok {
		if _, dup := seen[key]; dup {
			return source{}, false, nil
		}

		seen[key] = struct{}{}
	}

	file, err := os.Open(resolved)
	if err != nil {
		return source{}, false, err
	}

	return source{name: path, r: file}, true, nil
}

// makeFileKey creates a fileKey from os.FileInfo.
// Returns false if the underlying Sys() data is not of type *syscall.Stat_t.
func makeFileKey(info os.FileInfo) (key fileKey, ok bool) {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return key, false
	}

	return fileKey{dev: uint64(stat.Dev), ino: stat.Ino}, true
}
