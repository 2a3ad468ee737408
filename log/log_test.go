package log

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

func TestLogger_Make_DefaultConfiguration(t *testing.T) {
	var buf bytes.Buffer
	logger := Make(&buf)

	if logger.Level() != LevelInfo {
		t.Errorf("expected default level info, got %v", logger.Level())
	}
	if logger.caller {
		t.Error("expected caller disabled by default")
	}
	if logger.Format() != FormatText {
		t.Errorf("expected default format text, got %v", logger.Format())
	}
}

func TestLogger_WithLevel_FiltersMessages(t *testing.T) {
	var buf bytes.Buffer

	logger := Make(&buf, WithLevel(LevelDebug), WithPretty(false))
	logger.Debug("debug message")

	if !strings.Contains(buf.String(), "debug message") {
		t.Error("debug message not logged at debug level")
	}

	buf.Reset()

	logger = Make(&buf, WithLevel(LevelError))
	logger.Info("info message")

	if buf.Len() > 0 {
		t.Errorf("info message logged at error level: %q", buf.String())
	}

	logger.Error("error message")

	if !strings.Contains(buf.String(), "error message") {
		t.Error("error message not logged at error level")
	}
}

func TestLogger_Trace_LabelsLevel(t *testing.T) {
	var buf bytes.Buffer

	logger := Make(&buf, WithLevel(LevelTrace), WithFormat(FormatJSON))
	logger.Trace("keystroke")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("invalid JSON %q: %v", buf.String(), err)
	}

	if rec["level"] != "TRACE" {
		t.Errorf("level = %v, want TRACE", rec["level"])
	}
}

func TestLogger_JSON_IncludesAttributes(t *testing.T) {
	var buf bytes.Buffer

	logger := Make(&buf, WithFormat(FormatJSON), WithTimeLayout("none")).
		With(slog.String("component", "cache"))
	logger.InfoContext(context.Background(), "evicted", slog.Int("count", 3))

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("invalid JSON %q: %v", buf.String(), err)
	}

	if _, ok := rec["time"]; ok {
		t.Error("time present with layout none")
	}
	if rec["component"] != "cache" {
		t.Errorf("component = %v, want cache", rec["component"])
	}
	if rec["count"] != float64(3) {
		t.Errorf("count = %v, want 3", rec["count"])
	}
}

func TestLogger_Pretty_KeepsBoundAttributes(t *testing.T) {
	var buf bytes.Buffer

	logger := Make(&buf, WithFormat(FormatText), WithPretty(true), WithTimeLayout(""))
	logger = logger.With(slog.Uint64("session", 7))
	logger.Warn("slow compile", slog.Group("jit", slog.String("symbol", "calc_1")))

	out := buf.String()
	for _, want := range []string{"level=WARN", "msg=slow compile", "session=7", "jit.symbol=calc_1"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
}

func TestLogger_Wrap_OverridesConfiguration(t *testing.T) {
	var first, second bytes.Buffer

	base := Make(&first, WithLevel(LevelWarn))
	wrapped := base.Wrap(WithOutput(&second), WithLevel(LevelDebug))

	wrapped.Debug("wrapped")
	base.Debug("base")

	if first.Len() != 0 {
		t.Errorf("base logger wrote below its level: %q", first.String())
	}
	if !strings.Contains(second.String(), "wrapped") {
		t.Errorf("wrapped logger output = %q", second.String())
	}
}

func TestLogger_WithCaller_IncludesSource(t *testing.T) {
	var buf bytes.Buffer

	logger := Make(&buf, WithCaller(true), WithFormat(FormatJSON))
	logger.Info("here")

	if !strings.Contains(buf.String(), "log_test.go") {
		t.Errorf("expected source file in output, got %q", buf.String())
	}
}

func TestLogger_ZeroValue_Safety(t *testing.T) {
	var logger Logger

	logger.Info("ignored")
	logger.With(slog.String("k", "v")).ErrorContext(context.Background(), "ignored")

	if logger.Enabled(context.Background(), LevelError) {
		t.Error("zero logger reports enabled")
	}
	if logger.Level() != DefaultLevel {
		t.Errorf("zero logger level = %v", logger.Level())
	}
}

func TestLogger_ConcurrentCalls_ThreadSafe(t *testing.T) {
	var buf bytes.Buffer

	logger := Make(&buf, WithFormat(FormatJSON))

	var wg sync.WaitGroup
	for i := range 16 {
		wg.Go(func() {
			logger.Info("concurrent", slog.Int("i", i))
		})
	}
	wg.Wait()

	if got := strings.Count(buf.String(), "\n"); got != 16 {
		t.Errorf("got %d records, want 16", got)
	}
}

func TestLevel_UnmarshalText(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"trace", LevelTrace, false},
		{"DEBUG", LevelDebug, false},
		{"info", LevelInfo, false},
		{"warn", LevelWarn, false},
		{"error", LevelError, false},
		{"bogus", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var l Level

			err := l.UnmarshalText([]byte(tt.in))
			if (err != nil) != tt.wantErr {
				t.Fatalf("UnmarshalText(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}

			if !tt.wantErr && l != tt.want {
				t.Errorf("UnmarshalText(%q) = %v, want %v", tt.in, l, tt.want)
			}
		})
	}

	if got := ParseLevel("nonsense"); got != DefaultLevel {
		t.Errorf("ParseLevel(nonsense) = %v, want default", got)
	}
}

func TestFormat_UnmarshalText(t *testing.T) {
	var f Format

	if err := f.UnmarshalText([]byte("JSON")); err != nil || f != FormatJSON {
		t.Errorf("UnmarshalText(JSON) = %v, %v", f, err)
	}

	if err := f.UnmarshalText([]byte("xml")); err == nil {
		t.Error("UnmarshalText(xml) succeeded")
	}

	var names []string
	for name := range Formats() {
		names = append(names, name)
	}

	if strings.Join(names, ",") != "text,json" {
		t.Errorf("Formats() = %v", names)
	}
}

func TestPackage_LogFunctions_UseDefaultLogger(t *testing.T) {
	original := Default()
	defer SetDefault(original)

	var buf bytes.Buffer

	SetDefault(Make(&buf, WithLevel(LevelDebug), WithFormat(FormatJSON)))

	tests := []struct {
		name  string
		fn    func(string, ...slog.Attr)
		level string
	}{
		{"Debug", Debug, "DEBUG"},
		{"Info", Info, "INFO"},
		{"Warn", Warn, "WARN"},
		{"Error", Error, "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			tt.fn("message", slog.String("key", "value"))

			out := buf.String()
			if !strings.Contains(out, `"level":"`+tt.level+`"`) {
				t.Errorf("missing level %s: %s", tt.level, out)
			}
			if !strings.Contains(out, `"key":"value"`) {
				t.Errorf("missing attribute: %s", out)
			}
		})
	}
}
