package repl

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"
)

// commandPrefix introduces a REPL command instead of an expression.
const commandPrefix = ':'

type command struct {
	name  string
	alias string
	help  string
}

var commands = []command{
	{"help", "h", "Show this help"},
	{"stats", "s", "Show cache and compiler counters"},
	{"tree", "t", "Show the syntax tree and parsed expression"},
	{"clear", "c", "Clear the screen"},
	{"quit", "q", "Exit"},
}

// commandNames is the fuzzy completion source.
type commandNames []command

func (c commandNames) String(i int) string { return c[i].name }
func (c commandNames) Len() int            { return len(c) }

// isCommand reports whether input is a command line.
func isCommand(input string) bool {
	s := strings.TrimLeft(input, " \t")

	return s != "" && s[0] == commandPrefix
}

// commandWord returns the command name typed after the prefix and its byte
// bounds within input. It reports false if input is not a command line.
func commandWord(input string) (word string, start, end int, ok bool) {
	if !isCommand(input) {
		return "", 0, 0, false
	}

	start = strings.IndexByte(input, commandPrefix) + 1
	end = start

	for end < len(input) && input[end] != ' ' && input[end] != '\t' {
		end++
	}

	return input[start:end], start, end, true
}

// lookupCommand resolves a full name or alias.
func lookupCommand(word string) (command, bool) {
	for _, c := range commands {
		if word == c.name || word == c.alias {
			return c, true
		}
	}

	return command{}, false
}

// matchCommands ranks the commands against word, best first. An empty word
// matches every command in declaration order.
func matchCommands(word string) fuzzy.Matches {
	if word == "" {
		matches := make(fuzzy.Matches, len(commands))
		for i, c := range commands {
			matches[i] = fuzzy.Match{Str: c.name, Index: i}
		}

		return matches
	}

	return fuzzy.FindFrom(word, commandNames(commands))
}

// renderCandidateBar builds the single-line completion bar, ellipsized to fit
// within the given terminal width. Each candidate is rendered with its matched
// characters highlighted. The selected candidate (when tabbing) uses the
// selected style.
func renderCandidateBar(
	matches fuzzy.Matches,
	selected int,
	width int,
) string {
	if len(matches) == 0 || width <= 0 {
		return ""
	}

	const sep = "  "

	sepWidth := lipgloss.Width(sep)
	ellipsis := hintStyle.Render("...")
	ellipsisWidth := lipgloss.Width(ellipsis)

	var b strings.Builder

	used := 0

	for i, match := range matches {
		rendered := renderCandidate(match, i == selected)

		entryWidth := lipgloss.Width(rendered)
		if i > 0 {
			entryWidth += sepWidth
		}

		last := i == len(matches)-1

		reserve := ellipsisWidth
		if last {
			reserve = 0
		}

		if i > 0 && used+entryWidth+reserve > width {
			b.WriteString(sep)
			b.WriteString(ellipsis)

			break
		}

		if i > 0 {
			b.WriteString(sep)
		}

		b.WriteString(rendered)

		used += entryWidth
	}

	return b.String()
}

// renderCandidate renders a single candidate with matched characters
// highlighted.
func renderCandidate(match fuzzy.Match, selected bool) string {
	base, highlight := suggestionStyle, matchStyle
	if selected {
		base, highlight = selectedStyle, selectedMatchStyle
	}

	matched := make(map[int]bool, len(match.MatchedIndexes))
	for _, idx := range match.MatchedIndexes {
		matched[idx] = true
	}

	var b strings.Builder

	for i, r := range match.Str {
		if matched[i] {
			b.WriteString(highlight.Render(string(r)))
		} else {
			b.WriteString(base.Render(string(r)))
		}
	}

	return b.String()
}

func helpMessage() string {
	var b strings.Builder

	b.WriteString("Type an arithmetic expression; the result updates on every keystroke.\n")
	b.WriteString("Numbers, + - * /, and parentheses are supported.\n\n")
	b.WriteString("Commands:\n")

	for _, c := range commands {
		b.WriteString("  :" + c.name)
		b.WriteString(strings.Repeat(" ", 8-len(c.name)))
		b.WriteString(hintStyle.Render("(:" + c.alias + ")  " + c.help))
		b.WriteByte('\n')
	}

	b.WriteString("\nKeys:\n")
	b.WriteString("  Enter        commit the line to history\n")
	b.WriteString("  Up/Down      browse history\n")
	b.WriteString("  Tab          complete or cycle commands\n")
	b.WriteString("  Esc          cancel completion\n")
	b.WriteString("  Ctrl+C       clear the line, or exit on an empty line\n")
	b.WriteString("  Ctrl+D       exit on an empty line")

	return b.String()
}
