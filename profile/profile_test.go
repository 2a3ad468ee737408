package profile

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func TestModes(t *testing.T) {
	got := Modes()

	if !slices.IsSorted(got) {
		t.Errorf("Modes() = %v, not sorted", got)
	}

	for _, m := range []string{"cpu", "heap", "trace"} {
		if !slices.Contains(got, m) {
			t.Errorf("Modes() = %v, missing %q", got, m)
		}
	}

	if slices.Contains(got, "quiet") {
		t.Error("Modes() lists quiet")
	}
}

func TestProfiler_Disabled(t *testing.T) {
	for _, mode := range []string{"", "bogus"} {
		p := New(WithMode(mode), WithPath(t.TempDir()))

		if p.Enabled() {
			t.Errorf("mode %q: Enabled() = true", mode)
		}

		if _, ok := p.Start().(ignore); !ok {
			t.Errorf("mode %q: Start() did not return a no-op", mode)
		}
	}
}

func TestProfiler_WritesProfile(t *testing.T) {
	dir := t.TempDir()

	p := New(WithMode("mem"), WithPath(dir), WithQuiet(true))
	if p.Mode() != "mem" || !p.Enabled() {
		t.Fatalf("profiler = %+v, want enabled mem", p)
	}

	p.Start().Stop()

	if _, err := os.Stat(filepath.Join(dir, "mem.pprof")); err != nil {
		t.Errorf("profile not written: %v", err)
	}
}
