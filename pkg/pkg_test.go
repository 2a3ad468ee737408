package pkg

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

func TestName(t *testing.T) {
	if Name != "keycalc" {
		t.Errorf("Name = %q, want %q", Name, "keycalc")
	}
}

func TestVersion(t *testing.T) {
	buf, err := os.ReadFile("VERSION")
	if err != nil {
		t.Fatalf("read VERSION: %v", err)
	}

	if want := strings.TrimSpace(string(buf)); Version() != want {
		t.Errorf("Version() = %q, want %q", Version(), want)
	}

	if strings.ContainsAny(Version(), " \n\t") {
		t.Errorf("Version() = %q contains whitespace", Version())
	}
}

func TestAuthor(t *testing.T) {
	if !slices.ContainsFunc(Author, func(a AuthorInfo) bool {
		return a.Name == "ardnew" && a.Email == "andrew@ardnew.com"
	}) {
		t.Errorf("Author = %v, missing ardnew", Author)
	}

	for i, a := range Author {
		if a.Name == "" && a.Email == "" {
			t.Errorf("Author[%d] must define at least Name or Email", i)
		}
	}
}

func TestPrefixOf(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/usr/local/bin/keycalc", "keycalc"},
		{"calc.exe", "calc"},
		{"/tmp/__debug_bin3141", Name},
		{"/home/me/.keycalc.bin", "keycalc"},
		{"...", Name},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := prefixOf(tt.path); got != tt.want {
				t.Errorf("prefixOf(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestUserDir(t *testing.T) {
	ok := func() (string, error) { return "/base", nil }
	if got, want := userDir(ok, ".x"), filepath.Join("/base", Prefix()); got != want {
		t.Errorf("userDir() = %q, want %q", got, want)
	}

	t.Setenv("HOME", "/home/tester")

	fail := func() (string, error) { return "", errors.New("unset") }
	if got, want := userDir(fail, ".cache"), filepath.Join("/home/tester", ".cache", Prefix()); got != want {
		t.Errorf("userDir() fallback = %q, want %q", got, want)
	}
}
