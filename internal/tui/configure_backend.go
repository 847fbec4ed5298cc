package tui

import (
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/leonardotrapani/thirdeye/internal/config"
	"github.com/leonardotrapani/thirdeye/internal/provider"
)

// getVisionModelOptions lists a provider's vision models, default first
func getVisionModelOptions(providerName string) []huh.Option[string] {
	p := provider.GetProvider(providerName)
	if p == nil {
		return nil
	}
	var options []huh.Option[string]
	for _, m := range provider.ModelsOfType(p.Models(), provider.Vision) {
		label := m.Name
		if m.Description != "" {
			label = fmt.Sprintf("%s - %s", m.Name, m.Description)
		}
		opt := huh.NewOption(label, m.ID)
		if m.ID == p.DefaultVisionModel() {
			options = append([]huh.Option[string]{opt}, options...)
			continue
		}
		options = append(options, opt)
	}
	return options
}

// editBackend configures `thirdeye backend`
func editBackend(cfg *config.Config) error {
	providerName := cfg.Backend.Provider
	listen := cfg.Backend.Listen
	cameraURL := cfg.Backend.CameraURL

	var providerOptions []huh.Option[string]
	for _, name := range provider.ListProviders() {
		providerOptions = append(providerOptions, huh.NewOption(getProviderDisplayName(name), name))
	}

	first := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Description Provider").
				Description("Vision model the backend asks for descriptions").
				Options(providerOptions...).
				Value(&providerName),
			huh.NewInput().
				Title("Listen Address").
				Value(&listen),
			huh.NewInput().
				Title("Networked Camera URL").
				Description("JPEG snapshot endpoint served by /fetch-arduino-image").
				Value(&cameraURL),
		),
	).WithTheme(getTheme())

	if err := first.Run(); err != nil {
		return err
	}

	model := cfg.Backend.Model
	if providerName != cfg.Backend.Provider {
		model = ""
	}
	if p := provider.GetProvider(providerName); p != nil && model == "" {
		model = p.DefaultVisionModel()
	}

	speech := cfg.Backend.Speech
	voice := cfg.Backend.Voice
	speechModel := cfg.Backend.SpeechModel

	openai := provider.GetProvider(provider.ProviderOpenAI)
	var voiceOptions []huh.Option[string]
	for _, v := range openai.Voices() {
		voiceOptions = append(voiceOptions, huh.NewOption(v, v))
	}
	var speechModelOptions []huh.Option[string]
	for _, m := range provider.ModelsOfType(openai.Models(), provider.Speech) {
		speechModelOptions = append(speechModelOptions, huh.NewOption(m.Name, m.ID))
	}

	second := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Model").
				Options(getVisionModelOptions(providerName)...).
				Value(&model),
			huh.NewConfirm().
				Title("Return synthesized audio?").
				Description("Clients play it instead of local speech (uses OpenAI text-to-speech)").
				Value(&speech),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Speech Model").
				Options(speechModelOptions...).
				Value(&speechModel),
			huh.NewSelect[string]().
				Title("Voice").
				Options(voiceOptions...).
				Value(&voice),
		).WithHideFunc(func() bool { return !speech }),
	).WithTheme(getTheme())

	if err := second.Run(); err != nil {
		return err
	}

	cfg.Backend.Provider = providerName
	cfg.Backend.Model = model
	cfg.Backend.Listen = listen
	cfg.Backend.CameraURL = cameraURL
	cfg.Backend.Speech = speech
	cfg.Backend.SpeechModel = speechModel
	cfg.Backend.Voice = voice

	ensureProviderConfigured(cfg, providerName)
	if speech {
		ensureProviderConfigured(cfg, provider.ProviderOpenAI)
	}
	return nil
}
