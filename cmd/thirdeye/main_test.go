package main

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/leonardotrapani/thirdeye/internal/analyze"
	"github.com/leonardotrapani/thirdeye/internal/config"
	"github.com/leonardotrapani/thirdeye/internal/provider"
)

func TestCommandTree(t *testing.T) {
	want := []string{
		"serve", "start", "stop", "toggle", "status", "capture", "source", "mode",
		"language", "speed", "version", "quit", "watch", "configure", "doctor",
		"model", "backend", "test-models",
	}
	for _, name := range want {
		t.Run(name, func(t *testing.T) {
			cmd, _, err := rootCmd.Find([]string{name})
			if err != nil || cmd.Name() != name {
				t.Errorf("command %q not registered", name)
			}
		})
	}
}

func TestArgCommandsRequireArgument(t *testing.T) {
	for _, name := range []string{"source", "mode", "language", "speed"} {
		t.Run(name, func(t *testing.T) {
			cmd, _, _ := rootCmd.Find([]string{name})
			if err := cmd.Args(cmd, nil); err == nil {
				t.Error("expected error without argument")
			}
			if err := cmd.Args(cmd, []string{"x"}); err != nil {
				t.Errorf("one argument rejected: %v", err)
			}
		})
	}
}

func TestRunModelList(t *testing.T) {
	tests := []struct {
		name       string
		provider   string
		modelType  string
		wantErrSub string
	}{
		{"all", "", "", ""},
		{"vision only", "", "vision", ""},
		{"one provider", provider.ProviderOpenAI, "speech", ""},
		{"bad type", "", "llm", "invalid type"},
		{"bad provider", "nope", "", "unknown provider"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := runModelList(tt.provider, tt.modelType)
			if tt.wantErrSub == "" {
				if err != nil {
					t.Errorf("runModelList() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErrSub) {
				t.Errorf("runModelList() error = %v, want %q", err, tt.wantErrSub)
			}
		})
	}
}

func TestBuildVisionTests(t *testing.T) {
	single := buildVisionTests(false)
	both := buildVisionTests(true)
	if len(single) == 0 {
		t.Fatal("no vision tests")
	}
	if len(both) != 2*len(single) {
		t.Errorf("both modes = %d tests, want %d", len(both), 2*len(single))
	}
	for _, test := range single {
		if test.mode != analyze.ModeContinuous {
			t.Errorf("single-mode test %s uses mode %s", test.model.ID, test.mode)
		}
	}
}

func TestRunVisionTest_SkipsWithoutKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")

	cfg := config.DefaultConfig()
	cfg.Providers = nil
	test := modelTest{provider: provider.ProviderGemini, model: provider.Model{ID: "gemini-2.5-flash", Type: provider.Vision}, mode: analyze.ModeContinuous}

	result := runVisionTest(t.Context(), cfg, test, testImage{}, testModelsOptions{timeout: time.Second})
	if result.Status != "skip" {
		t.Errorf("status = %s, want skip", result.Status)
	}
}

func TestSummarizeAndWriteReport(t *testing.T) {
	report := summarizeReport(time.Now(), "frame.jpg", []modelTestResult{
		{Status: "pass"}, {Status: "pass"}, {Status: "fail"}, {Status: "skip"},
	})
	if report.TotalCount != 4 || report.PassCount != 2 || report.FailCount != 1 || report.SkipCount != 1 {
		t.Errorf("report counts = %+v", report)
	}

	path := filepath.Join(t.TempDir(), "report.json")
	if err := writeReport(path, report); err != nil {
		t.Fatalf("writeReport() error = %v", err)
	}
}

func TestTruncateString(t *testing.T) {
	if got := truncateString("abcdef", 3); got != "abc..." {
		t.Errorf("truncateString = %q", got)
	}
	if got := truncateString("ab", 3); got != "ab" {
		t.Errorf("truncateString = %q", got)
	}
}
