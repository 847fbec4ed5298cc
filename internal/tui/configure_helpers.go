package tui

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/leonardotrapani/thirdeye/internal/config"
	"github.com/leonardotrapani/thirdeye/internal/language"
)

func formatLoopLabel(cfg *config.Config) string {
	return fmt.Sprintf("Capture Loop (%s, %s, %s)", cfg.Loop.Source, cfg.Loop.Mode, cfg.Loop.Cadence)
}

// formatLanguageLabel formats the language menu option showing current setting
func formatLanguageLabel(cfg *config.Config) string {
	tag := cfg.Loop.Language
	if language.IsValidTag(tag) {
		return fmt.Sprintf("Language (%s)", language.FromTag(tag).Name)
	}
	return fmt.Sprintf("Language (%s)", tag)
}

func formatPlaybackLabel(cfg *config.Config) string {
	return fmt.Sprintf("Playback (%s, %s, %.2gx)", cfg.Playback.AudioPlayer, cfg.Playback.SpeechEngine, cfg.Playback.Rate)
}

// formatNotificationsLabel formats the notifications menu option
func formatNotificationsLabel(cfg *config.Config) string {
	if !cfg.Notifications.Enabled {
		return "Notifications (disabled)"
	}
	return fmt.Sprintf("Notifications (%s)", cfg.Notifications.Type)
}

func formatBackendLabel(cfg *config.Config) string {
	return fmt.Sprintf("Backend Service (%s / %s)", cfg.Backend.Provider, cfg.Backend.Model)
}

// formatProvidersLabel formats the providers menu option
func formatProvidersLabel(cfg *config.Config) string {
	configured := getConfiguredProviders(cfg)
	if len(configured) == 0 {
		return "API Keys"
	}
	return fmt.Sprintf("API Keys (%s)", strings.Join(configured, ", "))
}

// validateFloat returns a huh validator for a float within [min, max]
func validateFloat(min, max float64) func(string) error {
	return func(s string) error {
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return fmt.Errorf("must be a number")
		}
		if v < min || v > max {
			return fmt.Errorf("must be between %g and %g", min, max)
		}
		return nil
	}
}

func validateDuration(s string) error {
	d, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("must be a duration like 1.5s or 500ms")
	}
	if d <= 0 {
		return fmt.Errorf("must be positive")
	}
	return nil
}

func validateInt(min, max int) func(string) error {
	return func(s string) error {
		v, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return fmt.Errorf("must be a whole number")
		}
		if v < min || v > max {
			return fmt.Errorf("must be between %d and %d", min, max)
		}
		return nil
	}
}

// parseFloatOr returns fallback for input the validators would have rejected.
func parseFloatOr(s string, fallback float64) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return fallback
	}
	return v
}

func parseDurationOr(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func parseIntOr(s string, fallback int) int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return fallback
	}
	return v
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func showSummary(cfg *config.Config) (bool, error) {
	fmt.Println()
	fmt.Println(StyleHeader.Render("Configuration Summary"))
	fmt.Println()

	line := func(label, value string) {
		fmt.Printf("  %s %s\n", StyleLabel.Render(label), value)
	}

	line("Source:", cfg.Loop.Source)
	line("Mode:", cfg.Loop.Mode)
	line("Language:", formatLanguageLabel(cfg))
	if cfg.Loop.Cadence == "interval" {
		line("Cadence:", fmt.Sprintf("every %s", cfg.Loop.Interval))
	} else {
		line("Cadence:", "continuous")
	}
	line("Service:", cfg.Analyze.URL)
	if cfg.Loop.Source == "remote" {
		line("Camera proxy:", cfg.Proxy.URL)
	}
	line("Playback:", fmt.Sprintf("%s / %s at %sx", cfg.Playback.AudioPlayer, cfg.Playback.SpeechEngine, formatFloat(cfg.Playback.Rate)))

	if cfg.Notifications.Enabled {
		line("Notifications:", cfg.Notifications.Type)
	} else {
		line("Notifications:", "disabled")
	}

	line("Backend:", fmt.Sprintf("%s (%s) on %s", cfg.Backend.Provider, cfg.Backend.Model, cfg.Backend.Listen))

	keys := getConfiguredProviders(cfg)
	sort.Strings(keys)
	if len(keys) > 0 {
		line("API keys:", strings.Join(keys, ", "))
	}

	fmt.Println()

	var confirmed bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Save this configuration?").
				Affirmative("Save").
				Negative("Cancel").
				Value(&confirmed),
		),
	).WithTheme(getTheme())

	if err := form.Run(); err != nil {
		return false, err
	}

	return confirmed, nil
}
