package tui

import (
	"fmt"
	"sort"

	"github.com/charmbracelet/huh"
	"github.com/leonardotrapani/thirdeye/internal/config"
	"github.com/leonardotrapani/thirdeye/internal/provider"
)

// providerDisplayNames maps provider IDs to human-readable names
var providerDisplayNames = map[string]string{
	provider.ProviderGemini: "Google Gemini",
	provider.ProviderOpenAI: "OpenAI",
	provider.ProviderGroq:   "Groq",
}

// getProviderDisplayName returns the display name for a provider
func getProviderDisplayName(providerName string) string {
	if name, ok := providerDisplayNames[providerName]; ok {
		return name
	}
	return providerName
}

// maskAPIKey returns a masked version of an API key for display
func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "***"
	}
	return key[:7] + "..." + key[len(key)-4:]
}

// getConfiguredProviders returns the sorted providers with API keys in the config
func getConfiguredProviders(cfg *config.Config) []string {
	var providers []string
	for name, pc := range cfg.Providers {
		if pc.APIKey != "" {
			providers = append(providers, name)
		}
	}
	sort.Strings(providers)
	return providers
}

// editProviders handles the API keys section with submenu
func editProviders(cfg *config.Config) error {
	for {
		var options []huh.Option[string]
		for _, name := range provider.ListProviders() {
			options = append(options, huh.NewOption(formatProviderOption(cfg, name), name))
		}
		options = append(options, huh.NewOption("Done", "back"))

		var selected string
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewSelect[string]().
					Title("API Keys").
					Description("Select a provider to configure its API key").
					Options(options...).
					Value(&selected),
			),
		).WithTheme(getTheme())

		if err := form.Run(); err != nil {
			return err
		}

		if selected == "back" {
			return nil
		}

		apiKey, err := configureSingleProvider(cfg, selected)
		if err != nil {
			continue
		}
		setAPIKey(cfg, selected, apiKey)
	}
}

func setAPIKey(cfg *config.Config, providerName, apiKey string) {
	if apiKey == "" {
		return
	}
	if cfg.Providers == nil {
		cfg.Providers = make(map[string]config.ProviderConfig)
	}
	cfg.Providers[providerName] = config.ProviderConfig{APIKey: apiKey}
}

// formatProviderOption formats a provider menu option with status
func formatProviderOption(cfg *config.Config, name string) string {
	var status string
	switch {
	case hasConfigKey(cfg, name):
		status = "(configured)"
	case cfg.ResolveAPIKey(name) != "":
		status = "(from environment)"
	default:
		status = "(not configured)"
	}

	switch name {
	case provider.ProviderGemini:
		return fmt.Sprintf("Google Gemini - vision %s", status)
	case provider.ProviderOpenAI:
		return fmt.Sprintf("OpenAI - vision + speech %s", status)
	case provider.ProviderGroq:
		return fmt.Sprintf("Groq - Llama vision %s", status)
	default:
		return fmt.Sprintf("%s %s", name, status)
	}
}

func hasConfigKey(cfg *config.Config, name string) bool {
	pc, exists := cfg.Providers[name]
	return exists && pc.APIKey != ""
}

// configureSingleProvider handles the complete flow for configuring a single provider's API key.
// Returns the new API key (empty if user kept current) and any error.
func configureSingleProvider(cfg *config.Config, providerName string) (string, error) {
	if hasConfigKey(cfg, providerName) {
		displayName := getProviderDisplayName(providerName)
		masked := maskAPIKey(cfg.Providers[providerName].APIKey)

		var update bool
		confirmForm := huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title(fmt.Sprintf("%s API Key", displayName)).
					Description(fmt.Sprintf("Current: %s", masked)).
					Affirmative("Update key").
					Negative("Keep current").
					Value(&update),
			),
		).WithTheme(getTheme())

		if err := confirmForm.Run(); err != nil {
			return "", err
		}

		if !update {
			return "", nil
		}
	}

	return inputAPIKey(providerName)
}

func validateAPIKey(providerName string) func(string) error {
	p := provider.GetProvider(providerName)
	displayName := getProviderDisplayName(providerName)
	return func(s string) error {
		if s == "" {
			return fmt.Errorf("API key is required")
		}
		if p != nil && !p.ValidateAPIKey(s) {
			return fmt.Errorf("invalid API key format for %s", displayName)
		}
		return nil
	}
}

func inputAPIKey(providerName string) (string, error) {
	displayName := getProviderDisplayName(providerName)

	var apiKey string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(fmt.Sprintf("%s API Key", displayName)).
				Description(fmt.Sprintf("Enter your %s API key", displayName)).
				EchoMode(huh.EchoModePassword).
				Value(&apiKey).
				Validate(validateAPIKey(providerName)),
		),
	).WithTheme(getTheme())

	if err := form.Run(); err != nil {
		return "", err
	}

	return apiKey, nil
}

// ensureProviderConfigured prompts for an API key when neither the config
// nor the environment has one
func ensureProviderConfigured(cfg *config.Config, providerName string) {
	p := provider.GetProvider(providerName)
	if p == nil || !p.RequiresAPIKey() || cfg.ResolveAPIKey(providerName) != "" {
		return
	}

	apiKey, err := configureSingleProvider(cfg, providerName)
	if err != nil {
		return
	}
	setAPIKey(cfg, providerName, apiKey)
}
