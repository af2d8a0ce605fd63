package main

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"os"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spta/internal/shared"
	"github.com/desertthunder/spta/internal/tasks"
	tu "github.com/desertthunder/spta/internal/testing"
)

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(io.Discard)
			output := &bytes.Buffer{}
			input := strings.NewReader("")
			httpClient := &http.Client{}
			tokens := &tu.StaticToken{Token: "bearer"}

			runner := NewRunner(RunnerOpts{
				ConfigPath: "settings.toml",
				Config:     config,
				Logger:     logger,
				Input:      input,
				Output:     output,
				HTTPClient: httpClient,
				BaseURL:    "http://localhost",
				Tokens:     tokens,
				Attended:   func() bool { return true },
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.configPath != "settings.toml" {
				t.Errorf("expected configPath to be set, got %s", runner.configPath)
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output || runner.input != input {
				t.Error("expected input and output to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
			if runner.tokens != tokens || runner.baseURL != "http://localhost" {
				t.Error("expected catalog overrides to be set")
			}
			if !runner.attended() {
				t.Error("expected attended override to be used")
			}
		})

		t.Run("with nil options uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.config != nil {
				t.Error("expected config to be loaded lazily")
			}
			if runner.configPath != shared.DefaultConfigPath {
				t.Errorf("expected default config path, got %s", runner.configPath)
			}
			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
			if runner.output != os.Stdout || runner.input != os.Stdin {
				t.Error("expected stdio defaults")
			}
			if runner.httpClient != http.DefaultClient {
				t.Error("expected httpClient to default to http.DefaultClient")
			}
			if runner.attended == nil {
				t.Error("expected attended detection to be set")
			}
		})
	})

	t.Run("client", func(t *testing.T) {
		t.Run("requires user token", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Config: shared.DefaultConfig(), Logger: shared.NewLogger(io.Discard)})
			if _, _, err := runner.client(); !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})

		t.Run("rejects invalid config", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{ConfigPath: writeConfigFile(t, `{"appleMusicUserToken":"user","appleMusicStorefront":""}`), Logger: shared.NewLogger(io.Discard)})
			if _, _, err := runner.client(); !errors.Is(err, shared.ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})

		t.Run("builds client from config", func(t *testing.T) {
			config := &shared.Config{AppleMusicUserToken: "user", AppleMusicStorefront: "us", MaxRetries: 3, RetryIntervalMs: 5}
			runner := NewRunner(RunnerOpts{Config: config, Logger: shared.NewLogger(io.Discard)})

			client, got, err := runner.client()
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if client == nil || got != config {
				t.Error("expected client and config")
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]int{"n": 1}, false); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != "{\"n\":1}\n" {
				t.Errorf("unexpected output %q", output.String())
			}
		})

		t.Run("returns error on unmarshalable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})
			if err := runner.writeJSON(make(chan int), false); err == nil {
				t.Error("expected error for channel value")
			}
		})

		t.Run("returns error on write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})
			if err := runner.writeJSON("x", false); err == nil {
				t.Error("expected error from failing writer")
			}
		})

		t.Run("returns error when newline write fails", func(t *testing.T) {
			writer := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &writer})

			err := runner.writeJSON("x", false)
			if err == nil || !strings.Contains(err.Error(), "newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Output: output})

		if err := runner.writePlain("%s %d\n", "count", 2); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if output.String() != "count 2\n" {
			t.Errorf("unexpected output %q", output.String())
		}

		failing := NewRunner(RunnerOpts{Output: &tu.FWriter{}})
		if err := failing.writePlain("x"); err == nil {
			t.Error("expected error from failing writer")
		}
	})
}

func TestParseLocale(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "", want: ""},
		{in: "en-US", want: "en-US"},
		{in: "en-us", want: "en-US"},
		{in: "nb", want: "nb"},
		{in: "not a locale", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseLocale(tt.in)
			if tt.wantErr {
				if !errors.Is(err, shared.ErrInvalidFlag) {
					t.Errorf("expected ErrInvalidFlag, got %v", err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("parseLocale(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
			}
		})
	}
}

func TestMaskToken(t *testing.T) {
	tests := map[string]string{
		"":                  "",
		"abc":               "***",
		"secret-token-1234": "********1234",
	}
	for in, want := range tests {
		if got := maskToken(in); got != want {
			t.Errorf("maskToken(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFormatUpdate(t *testing.T) {
	t.Run("top level", func(t *testing.T) {
		got := formatUpdate(tasks.ProgressUpdate{Status: tasks.Succeeded, Message: "Loaded 2 playlists from Apple Music"})
		if !strings.Contains(got, "✔") || !strings.HasSuffix(got, " Loaded 2 playlists from Apple Music") || strings.HasPrefix(got, "\t") {
			t.Errorf("unexpected line %q", got)
		}
	})

	t.Run("nested", func(t *testing.T) {
		got := formatUpdate(tasks.ProgressUpdate{Status: tasks.Failed, Nested: true, Message: "Skipping"})
		if !strings.HasPrefix(got, "\t") || !strings.Contains(got, "✘") {
			t.Errorf("unexpected line %q", got)
		}
	})
}

func TestPluralize(t *testing.T) {
	if got := pluralize(1, "playlist"); got != "1 playlist" {
		t.Errorf("unexpected %q", got)
	}
	if got := pluralize(0, "playlist"); got != "0 playlist" {
		t.Errorf("unexpected %q", got)
	}
	if got := pluralize(3, "song"); got != "3 songs" {
		t.Errorf("unexpected %q", got)
	}
}

func TestBeforeLogLevel(t *testing.T) {
	logger := shared.NewLogger(io.Discard)
	runner := NewRunner(RunnerOpts{Logger: logger, Config: shared.DefaultConfig(), Output: &bytes.Buffer{}})

	if err := newTestApp(runner).Run(t.Context(), []string{"spta", "-l", "debug", "config", "show"}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if logger.GetLevel() != log.DebugLevel {
		t.Errorf("expected debug level, got %v", logger.GetLevel())
	}

	err := newTestApp(runner).Run(t.Context(), []string{"spta", "--log-level", "loud", "config", "show"})
	if !errors.Is(err, shared.ErrInvalidFlag) {
		t.Errorf("expected ErrInvalidFlag, got %v", err)
	}
}
