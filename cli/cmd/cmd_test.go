package cmd

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func readSources(t *testing.T, srcs sources) []string {
	t.Helper()

	var got []string

	for _, src := range srcs {
		data, err := io.ReadAll(src.r)
		if err != nil {
			t.Fatalf("reading %s: %v", src.name, err)
		}

		got = append(got, string(data))
	}

	return got
}

func TestOpenSources(t *testing.T) {
	dir := t.TempDir()

	first := filepath.Join(dir, "first.txt")
	second := filepath.Join(dir, "second.txt")
	link := filepath.Join(dir, "link.txt")

	writeFile(t, first, "1 + 1\n")
	writeFile(t, second, "2 * 3\n")

	if err := os.Symlink(first, link); err != nil {
		t.Fatal(err)
	}

	t.Chdir(dir)

	tests := []struct {
		name  string
		paths []string
		want  []string
	}{
		{
			name:  "empty",
			paths: nil,
			want:  nil,
		},
		{
			name:  "single",
			paths: []string{first},
			want:  []string{"1 + 1\n"},
		},
		{
			name:  "ordered",
			paths: []string{second, first},
			want:  []string{"2 * 3\n", "1 + 1\n"},
		},
		{
			name:  "duplicate_path",
			paths: []string{first, first},
			want:  []string{"1 + 1\n"},
		},
		{
			name:  "relative_and_absolute",
			paths: []string{"first.txt", first},
			want:  []string{"1 + 1\n"},
		},
		{
			name:  "symlink",
			paths: []string{link, first, second},
			want:  []string{"1 + 1\n", "2 * 3\n"},
		},
		{
			name:  "stdin_last",
			paths: []string{stdinSource, second},
			want:  []string{"2 * 3\n", "stdin\n"},
		},
		{
			name:  "stdin_collapsed",
			paths: []string{stdinSource, first, stdinSource},
			want:  []string{"1 + 1\n", "stdin\n"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srcs, err := openSources(tt.paths, strings.NewReader("stdin\n"))
			if err != nil {
				t.Fatalf("openSources(%v) error = %v", tt.paths, err)
			}
			defer srcs.Close()

			got := readSources(t, srcs)

			if len(got) != len(tt.want) {
				t.Fatalf("openSources(%v) read %q, want %q", tt.paths, got, tt.want)
			}

			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("source %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestOpenSourcesMissing(t *testing.T) {
	dir := t.TempDir()

	ok := filepath.Join(dir, "ok.txt")
	writeFile(t, ok, "1\n")

	missing := filepath.Join(dir, "missing.txt")

	_, err := openSources([]string{ok, missing}, nil)
	if err == nil {
		t.Fatal("openSources() with missing file returned nil error")
	}

	if !errors.Is(err, ErrOpenSource) {
		t.Errorf("openSources() error = %v, want %v", err, ErrOpenSource)
	}

	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("openSources() error = %v, want wrapped %v", err, os.ErrNotExist)
	}
}

func TestSourcesCloseSkipsStdin(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()
	defer r.Close()

	srcs, err := openSources([]string{stdinSource}, r)
	if err != nil {
		t.Fatal(err)
	}

	if err := srcs.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if _, err := w.Write([]byte("x")); err != nil {
		t.Errorf("stdin was closed by sources.Close: %v", err)
	}
}
