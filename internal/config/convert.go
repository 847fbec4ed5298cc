package config

import (
	"os"

	"github.com/leonardotrapani/thirdeye/internal/analyze"
	"github.com/leonardotrapani/thirdeye/internal/backend"
	"github.com/leonardotrapani/thirdeye/internal/camera"
	"github.com/leonardotrapani/thirdeye/internal/language"
	"github.com/leonardotrapani/thirdeye/internal/pipeline"
	"github.com/leonardotrapani/thirdeye/internal/playback"
	"github.com/leonardotrapani/thirdeye/internal/provider"
)

func (c *Config) ToLocalCameraConfig() camera.LocalConfig {
	return camera.LocalConfig{
		RearDevice:    c.Camera.RearDevice,
		FrontDevice:   c.Camera.FrontDevice,
		Width:         c.Camera.Width,
		Height:        c.Camera.Height,
		Quality:       c.Camera.Quality,
		WarmupTimeout: c.Camera.WarmupTimeout,
	}
}

func (c *Config) ToRemoteCameraConfig() camera.RemoteConfig {
	return camera.RemoteConfig{
		URL:     c.Proxy.URL,
		Timeout: c.Proxy.Timeout,
	}
}

func (c *Config) ToAnalyzeConfig() analyze.Config {
	return analyze.Config{
		URL:     c.Analyze.URL,
		Timeout: c.Analyze.Timeout,
	}
}

func (c *Config) ToPlaybackConfig() playback.Config {
	config := playback.DefaultConfig()
	config.Rate = c.Playback.Rate
	config.Pitch = c.Playback.Pitch
	config.Volume = c.Playback.Volume
	config.AudioPlayer = c.Playback.AudioPlayer
	config.SpeechEngine = c.Playback.SpeechEngine
	return config
}

// ToPipelineConfig assumes a validated config; unparseable values fall
// back to the controller defaults.
func (c *Config) ToPipelineConfig() pipeline.Config {
	source, _ := camera.ParseKind(c.Loop.Source)
	mode, _ := analyze.ParseMode(c.Loop.Mode)
	cadence, _ := pipeline.ParseCadence(c.Loop.Cadence)

	lang := language.Normalize(c.Loop.Language)
	if language.IsValidTag(lang) {
		lang = language.FromTag(lang).Tag
	}

	return pipeline.Config{
		Source:   source,
		Mode:     mode,
		Language: lang,
		Rate:     c.Playback.Rate,
		Cadence:  cadence,
		Interval: c.Loop.Interval,
		Backoff:  c.Loop.Backoff,
		Messages: c.Notifications.Messages.Resolve(),
	}
}

func (c *Config) ToBackendConfig() backend.Config {
	return backend.Config{
		Listen:        c.Backend.Listen,
		Provider:      c.Backend.Provider,
		Model:         c.Backend.Model,
		APIKey:        c.ResolveAPIKey(c.Backend.Provider),
		Timeout:       c.Backend.Timeout,
		Speech:        c.Backend.Speech,
		SpeechModel:   c.Backend.SpeechModel,
		Voice:         c.Backend.Voice,
		SpeechAPIKey:  c.ResolveAPIKey(provider.ProviderOpenAI),
		CameraURL:     c.Backend.CameraURL,
		CameraTimeout: c.Backend.CameraTimeout,
	}
}

// ResolveAPIKey returns the API key for a provider from config, then environment
func (c *Config) ResolveAPIKey(providerName string) string {
	if c.Providers != nil {
		if pc, ok := c.Providers[providerName]; ok && pc.APIKey != "" {
			return pc.APIKey
		}
	}

	for _, envVar := range provider.EnvVarsForProvider(providerName) {
		if key := os.Getenv(envVar); key != "" {
			return key
		}
	}

	return ""
}

// NotificationsEnabled reports whether desktop or log notifications are on.
func (c *Config) NotificationsEnabled() bool {
	return c.Notifications.Enabled && c.Notifications.Type != "none"
}
