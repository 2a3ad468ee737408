package repl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ardnew/keycalc/lang"
	"github.com/ardnew/keycalc/log"
)

const (
	evalPrompt = "➜ "

	defaultWidth = 80
	charLimit    = 4096
)

// Styles.
var (
	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("6")).
			Bold(true)
	inputStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	resultStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	typeStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Italic(true)
	errorStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	hintStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	suggestionStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	matchStyle         = suggestionStyle.Bold(true)
	selectedStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("4"))
	selectedMatchStyle = selectedStyle.Bold(true)
)

// model is the Bubble Tea model for the REPL. Every change to the input line
// is sent to calc as an edit of the previous text.
type model struct {
	ctxFunc func() context.Context
	input   textinput.Model
	engine  *lang.Engine
	calc    *lang.Calculator
	logger  log.Logger
	history *History

	text    string // last text sent to calc
	value   lang.Value
	err     error
	elapsed time.Duration

	historyIdx int
	matches    fuzzy.Matches
	wordStart  int
	wordEnd    int
	suggIdx    int  // selected candidate while cycling, or -1
	tabActive  bool // whether user is tab-cycling
	preTabText string
	width      int
	quitting   bool
}

// Run starts an interactive session evaluating through engine. History is
// kept in cacheDir.
func Run(
	ctx context.Context,
	engine *lang.Engine,
	cacheDir string,
	logger log.Logger,
) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	if engine == nil {
		return ErrNoEngine
	}

	var history *History
	if cacheDir == "" {
		history = NewHistory("")
	} else {
		history = NewHistory(filepath.Join(cacheDir, baseHistory))
	}

	if err := history.Load(); err != nil {
		logger.WarnContext(ctx, "could not load history",
			slog.String("path", history.path),
			slog.Any("error", err),
		)
	}

	logger.TraceContext(ctx, "repl start",
		slog.String("cache_dir", cacheDir),
		slog.Int("history", history.Len()),
	)

	m := newModel(ctx, engine, history, logger)

	_, err = tea.NewProgram(m, tea.WithContext(ctx)).Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}

	return err
}

func newModel(
	ctx context.Context,
	engine *lang.Engine,
	history *History,
	logger log.Logger,
) model {
	ti := textinput.New()
	ti.Prompt = promptStyle.Render(evalPrompt)
	ti.TextStyle = inputStyle
	ti.Focus()
	ti.CharLimit = charLimit
	ti.Width = defaultWidth - lipgloss.Width(evalPrompt) - 2

	return model{
		ctxFunc:    func() context.Context { return ctx },
		input:      ti,
		engine:     engine,
		calc:       engine.Calculator(),
		logger:     logger,
		history:    history,
		historyIdx: history.Len(),
		suggIdx:    -1,
		width:      defaultWidth,
	}
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = msg.Width - lipgloss.Width(evalPrompt) - 2

		return m, nil
	}

	var cmd tea.Cmd

	m.input, cmd = m.input.Update(msg)

	return m, cmd
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(m.input.View())
	b.WriteByte('\n')
	b.WriteString(m.status())
	b.WriteByte('\n')

	return b.String()
}

// status renders the line(s) below the input: a history position, command
// completions, the live result, or the diagnostic for the current text.
func (m model) status() string {
	input := m.input.Value()

	switch {
	case m.historyIdx < m.history.Len():
		pos := lipgloss.NewStyle().Bold(true).Render(strconv.Itoa(m.historyIdx + 1))

		return hintStyle.Render(pos + "/" + strconv.Itoa(m.history.Len()))

	case strings.TrimSpace(input) == "":
		return hintStyle.Render("Type an expression, or :help for commands")

	case isCommand(input):
		if len(m.matches) == 0 {
			return hintStyle.Render("unknown command (try :help)")
		}

		return renderCandidateBar(m.matches, m.suggIdx, m.width)

	case m.err != nil:
		return m.diagnosticView()

	default:
		return resultStyle.Render("= "+m.value.String()) +
			" " + typeStyle.Render(m.value.Type().String()) +
			" " + hintStyle.Render(m.elapsed.Round(time.Microsecond).String())
	}
}

// diagnosticView underlines the offending span of the input and explains it.
func (m model) diagnosticView() string {
	var d *lang.Diagnostic
	if !errors.As(m.err, &d) {
		return errorStyle.Render(m.err.Error())
	}

	text := m.input.Value()
	off := min(max(d.Span.Offset, 0), len(text))
	end := min(max(d.Span.End(), off), len(text))

	col := lipgloss.Width(evalPrompt) + utf8.RuneCountInString(text[:off])
	width := max(utf8.RuneCountInString(text[off:end]), 1)

	var b strings.Builder

	b.WriteString(errorStyle.Render(strings.Repeat(" ", col) + strings.Repeat("^", width)))
	b.WriteByte('\n')
	b.WriteString(errorStyle.Render(d.Kind.String() + ": " + d.Detail))

	if d.Hint != "" {
		b.WriteByte('\n')
		b.WriteString(hintStyle.Render("help: " + d.Hint))
	}

	return b.String()
}

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	m.logger.TraceContext(m.ctxFunc(), "repl keypress",
		slog.String("key", msg.String()),
	)

	switch msg.Type {
	case tea.KeyCtrlC:
		if m.input.Value() == "" {
			m.quitting = true

			return m, tea.Quit
		}

		m.tabActive = false
		m.historyIdx = m.history.Len()
		m.setInput("")

		return m, nil

	case tea.KeyCtrlD:
		if m.input.Value() == "" {
			m.quitting = true

			return m, tea.Quit
		}

		return m, nil

	case tea.KeyEnter:
		if m.tabActive {
			m.tabActive = false
			m.suggIdx = -1

			return m, nil
		}

		return m.submit()

	case tea.KeyTab:
		return m.cycle(1), nil

	case tea.KeyShiftTab:
		return m.cycle(-1), nil

	case tea.KeyUp:
		return m.historyPrev(), nil

	case tea.KeyDown:
		return m.historyNext(), nil

	case tea.KeyEsc:
		if m.tabActive {
			m.tabActive = false
			m.suggIdx = -1
			m.setInput(m.preTabText)
		}

		return m, nil
	}

	// Any other key edits the line.
	var cmd tea.Cmd

	m.tabActive = false
	m.suggIdx = -1
	m.historyIdx = m.history.Len()
	m.input, cmd = m.input.Update(msg)
	m.refresh()

	return m, cmd
}

// setInput replaces the input line and re-evaluates it.
func (m *model) setInput(text string) {
	m.input.SetValue(text)
	m.input.CursorEnd()
	m.refresh()
}

// refresh recomputes completions for a command line, or sends the edit
// between the previous and current text to the calculator.
func (m *model) refresh() {
	text := m.input.Value()

	if word, start, end, ok := commandWord(text); ok {
		m.matches = matchCommands(word)
		m.wordStart, m.wordEnd = start, end

		return
	}

	m.matches = nil

	if text == m.text {
		return
	}

	edit := lang.Diff(m.text, text)
	start := time.Now()

	m.value, m.err = m.calc.Apply(m.ctxFunc(), text, edit)
	m.elapsed = time.Since(start)
	m.text = text

	m.logger.TraceContext(m.ctxFunc(), "repl update",
		slog.Int("start", edit.Start),
		slog.Int("old_end", edit.OldEnd),
		slog.Int("new_end", edit.NewEnd),
		slog.Duration("elapsed", m.elapsed),
		slog.Bool("ok", m.err == nil),
	)
}

// cycle steps through command candidates by dir. A single candidate is
// accepted immediately.
func (m model) cycle(dir int) model {
	if len(m.matches) == 0 {
		return m
	}

	if len(m.matches) == 1 {
		m.replaceWord(m.matches[0].Str)
		m.tabActive = false
		m.suggIdx = -1

		return m
	}

	if !m.tabActive {
		m.tabActive = true
		m.preTabText = m.input.Value()

		if dir > 0 {
			m.suggIdx = 0
		} else {
			m.suggIdx = len(m.matches) - 1
		}
	} else {
		m.suggIdx = (m.suggIdx + dir + len(m.matches)) % len(m.matches)
	}

	m.replaceWord(m.matches[m.suggIdx].Str)

	return m
}

// replaceWord substitutes the command word without recomputing matches so
// that cycling continues over the same candidates.
func (m *model) replaceWord(word string) {
	input := m.input.Value()
	next := input[:m.wordStart] + word + input[m.wordEnd:]

	m.input.SetValue(next)
	m.input.SetCursor(m.wordStart + len(word))
	m.wordEnd = m.wordStart + len(word)
}

func (m model) historyPrev() model {
	if m.historyIdx == 0 {
		return m
	}

	return m.showHistory(m.historyIdx - 1)
}

func (m model) historyNext() model {
	if m.historyIdx >= m.history.Len()-1 {
		m.historyIdx = m.history.Len()
		m.setInput("")

		return m
	}

	return m.showHistory(m.historyIdx + 1)
}

func (m model) showHistory(i int) model {
	line, err := m.history.At(i)
	if err != nil {
		return m
	}

	m.historyIdx = i
	m.tabActive = false
	m.suggIdx = -1
	m.setInput(line)

	return m
}

// submit commits the line: commands run, expressions are echoed with their
// result into the scrollback and recorded in history.
func (m model) submit() (model, tea.Cmd) {
	line := strings.TrimSpace(m.input.Value())
	if line == "" {
		return m, nil
	}

	if err := m.history.Add(line); err != nil {
		m.logger.WarnContext(m.ctxFunc(), "could not save history",
			slog.Any("error", err),
		)
	}

	m.historyIdx = m.history.Len()

	if isCommand(line) {
		m.setInput("")

		return m.execute(line)
	}

	echo := promptStyle.Render(evalPrompt) + inputStyle.Render(line)

	var out string

	var d *lang.Diagnostic

	switch {
	case m.err == nil:
		out = resultStyle.Render(m.value.String())
	case errors.As(m.err, &d):
		out = errorStyle.Render(d.Render())
	default:
		out = errorStyle.Render("error: " + m.err.Error())
	}

	m.setInput("")

	return m, tea.Sequence(tea.Println(echo), tea.Println(out))
}

func (m model) execute(line string) (model, tea.Cmd) {
	word, _, _, _ := commandWord(line)
	echo := tea.Println(promptStyle.Render(evalPrompt) + inputStyle.Render(line))

	c, ok := lookupCommand(word)
	if !ok {
		if matches := matchCommands(word); len(matches) == 1 {
			c, ok = commands[matches[0].Index], true
		}
	}

	if !ok {
		return m, tea.Sequence(echo,
			tea.Println(errorStyle.Render("unknown command: "+word+" (try :help)")))
	}

	m.logger.TraceContext(m.ctxFunc(), "repl command",
		slog.String("command", c.name),
	)

	switch c.name {
	case "quit":
		m.quitting = true

		return m, tea.Sequence(echo, tea.Quit)

	case "clear":
		return m, tea.ClearScreen

	case "help":
		return m, tea.Sequence(echo, tea.Println(helpMessage()))

	case "stats":
		return m, tea.Sequence(echo, tea.Println(m.statsView()))

	case "tree":
		return m, tea.Sequence(echo, tea.Println(m.treeView()))
	}

	return m, echo
}

func (m model) statsView() string {
	s := m.engine.Stats()

	rows := []struct {
		name  string
		value string
	}{
		{"cached", strconv.Itoa(s.Size)},
		{"hits", strconv.FormatUint(s.Hits, 10)},
		{"misses", strconv.FormatUint(s.Misses, 10)},
		{"compiles", strconv.FormatUint(s.Compiles, 10)},
		{"evictions", strconv.FormatUint(s.Evictions, 10)},
		{"sweeps", strconv.FormatUint(s.Sweeps, 10)},
		{"symbols", strconv.Itoa(s.Symbols)},
		{"collisions", strconv.FormatUint(s.Collisions, 10)},
		{"retention", m.engine.Cache().Retention().String()},
	}

	var b strings.Builder

	for i, r := range rows {
		if i > 0 {
			b.WriteByte('\n')
		}

		fmt.Fprintf(&b, "  %-11s %s", r.name, resultStyle.Render(r.value))
	}

	return b.String()
}

func (m model) treeView() string {
	sexp, reused := m.calc.Syntax()
	if sexp == "" {
		return hintStyle.Render("  (no input)")
	}

	var b strings.Builder

	b.WriteString("  syntax: " + sexp)
	fmt.Fprintf(&b, "\n  reused: %d", reused)

	if e := m.calc.Expr(); e != nil {
		b.WriteString("\n  expr:   " + e.String())
		b.WriteString("\n  type:   " + lang.Resolve(e).String())
		fmt.Fprintf(&b, "\n  hash:   %016x", lang.Hash(e))
	}

	return b.String()
}
