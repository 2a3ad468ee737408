package repl

import (
	"strings"
	"testing"

	"github.com/sahilm/fuzzy"
)

func TestCommandWord(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantWord  string
		wantStart int
		wantEnd   int
		wantOK    bool
	}{
		{"expression", "1 + 2", "", 0, 0, false},
		{"empty", "", "", 0, 0, false},
		{"prefix_only", ":", "", 1, 1, true},
		{"partial", ":st", "st", 1, 3, true},
		{"leading_space", "  :tree", "tree", 3, 7, true},
		{"trailing_args", ":help me", "help", 1, 5, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			word, start, end, ok := commandWord(tt.input)
			if word != tt.wantWord || start != tt.wantStart || end != tt.wantEnd || ok != tt.wantOK {
				t.Errorf("commandWord(%q) = (%q, %d, %d, %v), want (%q, %d, %d, %v)",
					tt.input, word, start, end, ok,
					tt.wantWord, tt.wantStart, tt.wantEnd, tt.wantOK)
			}
		})
	}
}

func TestLookupCommand(t *testing.T) {
	for _, c := range commands {
		for _, word := range []string{c.name, c.alias} {
			got, ok := lookupCommand(word)
			if !ok || got.name != c.name {
				t.Errorf("lookupCommand(%q) = (%q, %v), want %q", word, got.name, ok, c.name)
			}
		}
	}

	if _, ok := lookupCommand("bogus"); ok {
		t.Error("lookupCommand(bogus) succeeded")
	}
}

func TestMatchCommands(t *testing.T) {
	all := matchCommands("")
	if len(all) != len(commands) {
		t.Fatalf("matchCommands(\"\") = %d matches, want %d", len(all), len(commands))
	}

	for i, m := range all {
		if m.Str != commands[i].name {
			t.Errorf("match %d = %q, want %q", i, m.Str, commands[i].name)
		}
	}

	got := matchCommands("qt")
	if len(got) != 1 || got[0].Str != "quit" {
		t.Errorf("matchCommands(qt) = %v, want [quit]", got)
	}

	if got := matchCommands("xyz"); len(got) != 0 {
		t.Errorf("matchCommands(xyz) = %v, want none", got)
	}
}

func TestRenderCandidateBar(t *testing.T) {
	matches := matchCommands("")

	wide := renderCandidateBar(matches, -1, 200)
	for _, c := range commands {
		if !strings.Contains(wide, c.name) {
			t.Errorf("wide bar %q missing %q", wide, c.name)
		}
	}

	narrow := renderCandidateBar(matches, 0, 14)
	if !strings.Contains(narrow, "help") || !strings.HasSuffix(narrow, "...") {
		t.Errorf("narrow bar = %q, want first candidate and ellipsis", narrow)
	}

	if got := renderCandidateBar(nil, -1, 80); got != "" {
		t.Errorf("empty bar = %q", got)
	}

	if got := renderCandidateBar(fuzzy.Matches{{Str: "x"}}, -1, 0); got != "" {
		t.Errorf("zero width bar = %q", got)
	}
}
