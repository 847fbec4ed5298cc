package tui

import (
	"strings"
	"testing"
	"time"

	"github.com/leonardotrapani/thirdeye/internal/config"
	"github.com/leonardotrapani/thirdeye/internal/notify"
	"github.com/leonardotrapani/thirdeye/internal/provider"
)

func TestValidators(t *testing.T) {
	tests := []struct {
		name    string
		fn      func(string) error
		input   string
		wantErr bool
	}{
		{"float in range", validateFloat(0.25, 4), "1.5", false},
		{"float too high", validateFloat(0.25, 4), "5", true},
		{"float not a number", validateFloat(0.25, 4), "fast", true},
		{"duration", validateDuration, "1.5s", false},
		{"duration zero", validateDuration, "0s", true},
		{"duration garbage", validateDuration, "soon", true},
		{"int in range", validateInt(1, 100), " 85 ", false},
		{"int out of range", validateInt(1, 100), "0", true},
		{"int fractional", validateInt(1, 100), "8.5", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.fn(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("validator(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestParseHelpers(t *testing.T) {
	if got := parseFloatOr("2", 1); got != 2 {
		t.Errorf("parseFloatOr = %v", got)
	}
	if got := parseFloatOr("x", 1); got != 1 {
		t.Errorf("parseFloatOr fallback = %v", got)
	}
	if got := parseDurationOr("-1s", time.Second); got != time.Second {
		t.Errorf("parseDurationOr negative = %v", got)
	}
	if got := parseDurationOr("250ms", time.Second); got != 250*time.Millisecond {
		t.Errorf("parseDurationOr = %v", got)
	}
	if got := parseIntOr("", 7); got != 7 {
		t.Errorf("parseIntOr fallback = %v", got)
	}
	if got := formatFloat(1.25); got != "1.25" {
		t.Errorf("formatFloat = %q", got)
	}
}

func TestMaskAPIKey(t *testing.T) {
	if got := maskAPIKey("short"); got != "***" {
		t.Errorf("maskAPIKey(short) = %q", got)
	}
	if got := maskAPIKey("sk-abcdefghijklmnop1234"); got != "sk-abcd...1234" {
		t.Errorf("maskAPIKey = %q", got)
	}
}

func TestGetConfiguredProviders(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Providers = map[string]config.ProviderConfig{
		"openai": {APIKey: "sk-test"},
		"gemini": {APIKey: "AIza-test"},
		"groq":   {},
	}

	got := getConfiguredProviders(cfg)
	if strings.Join(got, ",") != "gemini,openai" {
		t.Errorf("getConfiguredProviders() = %v", got)
	}
	if label := formatProvidersLabel(cfg); label != "API Keys (gemini, openai)" {
		t.Errorf("formatProvidersLabel() = %q", label)
	}
}

func TestSetAPIKey(t *testing.T) {
	cfg := &config.Config{}
	setAPIKey(cfg, "groq", "")
	if cfg.Providers != nil {
		t.Error("empty key should leave providers untouched")
	}
	setAPIKey(cfg, "groq", "gsk_test")
	if cfg.Providers["groq"].APIKey != "gsk_test" {
		t.Errorf("providers = %+v", cfg.Providers)
	}
}

func TestGetLanguageOptions(t *testing.T) {
	options := getLanguageOptions("fr-FR")
	if len(options) == 0 {
		t.Fatal("no language options")
	}
	if options[0].Value != "fr-FR" {
		t.Errorf("first option = %q, want current language first", options[0].Value)
	}
}

func TestGetVisionModelOptions(t *testing.T) {
	for _, name := range provider.ListProviders() {
		t.Run(name, func(t *testing.T) {
			p := provider.GetProvider(name)
			options := getVisionModelOptions(name)
			if len(options) == 0 {
				t.Fatal("no vision models")
			}
			if options[0].Value != p.DefaultVisionModel() {
				t.Errorf("first option = %q, want default %q", options[0].Value, p.DefaultVisionModel())
			}
		})
	}

	if options := getVisionModelOptions("nope"); options != nil {
		t.Errorf("unknown provider options = %v", options)
	}
}

func TestGetProviderDisplayName(t *testing.T) {
	if got := getProviderDisplayName(provider.ProviderGemini); got != "Google Gemini" {
		t.Errorf("got %q", got)
	}
	if got := getProviderDisplayName("custom"); got != "custom" {
		t.Errorf("got %q", got)
	}
}

func TestMessageLabel(t *testing.T) {
	cfg := config.DefaultConfig()
	def := notify.MessageDefs[0]

	if got := messageLabel(cfg, def); !strings.Contains(got, def.DefaultText) {
		t.Errorf("messageLabel() = %q, want default text", got)
	}

	cfg.Notifications.Messages.Set(def.ConfigKey, "Custom text")
	if got := messageLabel(cfg, def); !strings.Contains(got, "Custom text") {
		t.Errorf("messageLabel() = %q, want override", got)
	}
}

func TestFormatAdvancedStatusLabel(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.General.StatusAddr = ""
	if got := formatAdvancedStatusLabel(cfg); got != "Status Feed (disabled)" {
		t.Errorf("got %q", got)
	}
	cfg.General.StatusAddr = "127.0.0.1:7531"
	if got := formatAdvancedStatusLabel(cfg); got != "Status Feed (127.0.0.1:7531)" {
		t.Errorf("got %q", got)
	}
}
