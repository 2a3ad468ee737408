package cmd

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alecthomas/kong"
	"github.com/goccy/go-yaml"
)

type initCLI struct {
	Retention time.Duration `default:"5m"   help:"Cache retention"`
	MaxInput  int           `default:"4096" help:"Input limit"`
	Optimize  bool          `default:"true" help:"Fold constants"  negatable:""`
	Name      string        `               help:"Session name"`
	Secret    string        `               help:"Hidden flag"     hidden:""`
	PprofMode string        `               help:"Profile mode"    name:"pprof-mode"`

	Init Init `cmd:""`
}

func initContext(t *testing.T, confPath string, args ...string) context.Context {
	t.Helper()

	var cli initCLI

	parser, err := kong.New(&cli, kong.Vars{ConfigIdentifier: confPath})
	if err != nil {
		t.Fatal(err)
	}

	ktx, err := parser.Parse(append([]string{"init"}, args...))
	if err != nil {
		t.Fatal(err)
	}

	return WithContext(context.Background(), ktx)
}

func TestInitRun(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		force   bool
		exists  bool
		wantErr error
	}{
		{name: "create_new_config"},
		{name: "overwrite_existing_with_force", force: true, exists: true},
		{name: "fail_without_force", exists: true, wantErr: ErrFileExists},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			confPath := filepath.Join(t.TempDir(), "config.yaml")

			if tt.exists {
				if err := os.WriteFile(confPath, []byte("existing: content\n"), 0o600); err != nil {
					t.Fatal(err)
				}
			}

			ctx := initContext(t, confPath)

			err := (&Init{Force: tt.force}).Run(ctx)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Init.Run() error = %v, want %v", err, tt.wantErr)
				}

				if !errors.Is(err, ErrWriteConfig) {
					t.Errorf("Init.Run() error = %v, want %v", err, ErrWriteConfig)
				}

				return
			}

			if err != nil {
				t.Fatalf("Init.Run() error = %v", err)
			}

			content, err := os.ReadFile(confPath)
			if err != nil {
				t.Fatal(err)
			}

			var doc map[string]any
			if err := yaml.Unmarshal(content, &doc); err != nil {
				t.Fatalf("generated config is not valid YAML: %v\n%s", err, content)
			}

			if _, ok := doc["existing"]; ok {
				t.Error("Init.Run() kept previous file content")
			}
		})
	}
}

func TestInitDocument(t *testing.T) {
	t.Parallel()

	confPath := filepath.Join(t.TempDir(), "config.yaml")
	ctx := initContext(t, confPath, "--retention=90s", "--no-optimize", "--pprof-mode=cpu")

	if err := (&Init{}).Run(ctx); err != nil {
		t.Fatalf("Init.Run() error = %v", err)
	}

	content, err := os.ReadFile(confPath)
	if err != nil {
		t.Fatal(err)
	}

	if !strings.HasPrefix(string(content), "# keycalc ") {
		t.Errorf("config header = %q, want prefix %q",
			strings.SplitN(string(content), "\n", 2)[0], "# keycalc ")
	}

	var doc map[string]any
	if err := yaml.Unmarshal(content, &doc); err != nil {
		t.Fatal(err)
	}

	want := map[string]string{
		"retention": "1m30s",
		"max-input": "4096",
		"optimize":  "false",
	}

	for key, value := range want {
		got, ok := doc[key]
		if !ok {
			t.Errorf("config missing key %q:\n%s", key, content)

			continue
		}

		if s := stringify(got); s != value {
			t.Errorf("config[%q] = %q, want %q", key, s, value)
		}
	}

	for _, key := range []string{"help", "secret", "name", "pprof-mode"} {
		if _, ok := doc[key]; ok {
			t.Errorf("config contains excluded key %q", key)
		}
	}
}

func TestInitErrors(t *testing.T) {
	t.Parallel()

	t.Run("invalid_path", func(t *testing.T) {
		t.Parallel()

		ctx := initContext(t, filepath.Join(t.TempDir(), "missing", "config.yaml"))

		err := (&Init{}).Run(ctx)
		if !errors.Is(err, ErrWriteConfig) {
			t.Errorf("Init.Run() error = %v, want %v", err, ErrWriteConfig)
		}
	})

	t.Run("no_config_path", func(t *testing.T) {
		t.Parallel()

		err := (&Init{}).Run(context.Background())
		if !errors.Is(err, ErrNoConfigPath) {
			t.Errorf("Init.Run() error = %v, want %v", err, ErrNoConfigPath)
		}
	})
}

func stringify(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case bool:
		if v {
			return "true"
		}

		return "false"
	default:
		b, _ := yaml.Marshal(v)

		return strings.TrimSpace(string(b))
	}
}
