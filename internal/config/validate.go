package config

import (
	"fmt"
	"net/url"

	"github.com/leonardotrapani/thirdeye/internal/analyze"
	"github.com/leonardotrapani/thirdeye/internal/camera"
	"github.com/leonardotrapani/thirdeye/internal/pipeline"
	"github.com/leonardotrapani/thirdeye/internal/provider"
)

func (c *Config) Validate() error {
	// Loop
	if _, err := camera.ParseKind(c.Loop.Source); err != nil {
		return fmt.Errorf("invalid loop.source: %s (must be local or remote)", c.Loop.Source)
	}
	if _, err := analyze.ParseMode(c.Loop.Mode); err != nil {
		return fmt.Errorf("invalid loop.mode: %s (must be live or navigation)", c.Loop.Mode)
	}
	if _, err := pipeline.ParseCadence(c.Loop.Cadence); err != nil {
		return fmt.Errorf("invalid loop.cadence: %s (must be continuous or interval)", c.Loop.Cadence)
	}
	if c.Loop.Language == "" {
		return fmt.Errorf("invalid loop.language: empty")
	}
	if c.Loop.Interval <= 0 {
		return fmt.Errorf("invalid loop.interval: %v", c.Loop.Interval)
	}
	if c.Loop.Backoff <= 0 {
		return fmt.Errorf("invalid loop.backoff: %v", c.Loop.Backoff)
	}

	// Camera
	if c.Camera.Quality < 1 || c.Camera.Quality > 100 {
		return fmt.Errorf("invalid camera.quality: %d (must be 1-100)", c.Camera.Quality)
	}
	if c.Camera.Width < 0 || c.Camera.Height < 0 {
		return fmt.Errorf("invalid camera resolution: %dx%d", c.Camera.Width, c.Camera.Height)
	}
	if (c.Camera.Width == 0) != (c.Camera.Height == 0) {
		return fmt.Errorf("invalid camera resolution: set both width and height, or neither")
	}
	if c.Camera.WarmupTimeout <= 0 {
		return fmt.Errorf("invalid camera.warmup_timeout: %v", c.Camera.WarmupTimeout)
	}

	// Proxy and analyze endpoints
	if err := validateURL("proxy.url", c.Proxy.URL); err != nil {
		return err
	}
	if c.Proxy.Timeout <= 0 {
		return fmt.Errorf("invalid proxy.timeout: %v", c.Proxy.Timeout)
	}
	if err := validateURL("analyze.url", c.Analyze.URL); err != nil {
		return err
	}
	if c.Analyze.Timeout <= 0 {
		return fmt.Errorf("invalid analyze.timeout: %v", c.Analyze.Timeout)
	}

	// Playback
	if c.Playback.Rate <= 0 || c.Playback.Rate > 4 {
		return fmt.Errorf("invalid playback.rate: %v (must be > 0 and <= 4)", c.Playback.Rate)
	}
	if c.Playback.Pitch < 0 || c.Playback.Pitch > 2 {
		return fmt.Errorf("invalid playback.pitch: %v (must be 0-2)", c.Playback.Pitch)
	}
	if c.Playback.Volume < 0 || c.Playback.Volume > 1 {
		return fmt.Errorf("invalid playback.volume: %v (must be 0-1)", c.Playback.Volume)
	}
	validPlayers := map[string]bool{"mpv": true, "ffplay": true}
	if !validPlayers[c.Playback.AudioPlayer] {
		return fmt.Errorf("invalid playback.audio_player: %s (must be mpv or ffplay)", c.Playback.AudioPlayer)
	}
	validEngines := map[string]bool{"espeak-ng": true, "espeak": true, "none": true}
	if !validEngines[c.Playback.SpeechEngine] {
		return fmt.Errorf("invalid playback.speech_engine: %s (must be espeak-ng, espeak, or none)", c.Playback.SpeechEngine)
	}

	// Notifications
	validTypes := map[string]bool{"desktop": true, "log": true, "none": true}
	if !validTypes[c.Notifications.Type] {
		return fmt.Errorf("invalid notifications.type: %s (must be desktop, log, or none)", c.Notifications.Type)
	}

	return nil
}

// ValidateBackend checks the settings only `thirdeye backend` needs.
func (c *Config) ValidateBackend() error {
	if c.Backend.Listen == "" {
		return fmt.Errorf("invalid backend.listen: empty")
	}
	p := provider.GetProvider(c.Backend.Provider)
	if p == nil {
		return fmt.Errorf("invalid backend.provider: %s (must be one of %v)", c.Backend.Provider, provider.ListProviders())
	}
	if c.Backend.Model == "" {
		return fmt.Errorf("invalid backend.model: empty")
	}
	if p.RequiresAPIKey() && c.ResolveAPIKey(c.Backend.Provider) == "" {
		return fmt.Errorf("%s API key required: not found in config (providers.%s.api_key) or environment variable (%v)",
			c.Backend.Provider, c.Backend.Provider, provider.EnvVarsForProvider(c.Backend.Provider))
	}
	if c.Backend.Timeout <= 0 {
		return fmt.Errorf("invalid backend.timeout: %v", c.Backend.Timeout)
	}
	if c.Backend.Speech {
		if c.ResolveAPIKey(provider.ProviderOpenAI) == "" {
			return fmt.Errorf("backend.speech requires an OpenAI API key (providers.openai.api_key or %s)", provider.EnvOpenAIKey)
		}
		if c.Backend.SpeechModel == "" || c.Backend.Voice == "" {
			return fmt.Errorf("backend.speech requires speech_model and voice")
		}
	}
	if c.Backend.CameraURL != "" {
		if err := validateURL("backend.camera_url", c.Backend.CameraURL); err != nil {
			return err
		}
	}
	if c.Backend.CameraTimeout <= 0 {
		return fmt.Errorf("invalid backend.camera_timeout: %v", c.Backend.CameraTimeout)
	}
	return nil
}

func validateURL(field, raw string) error {
	if raw == "" {
		return fmt.Errorf("invalid %s: empty", field)
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid %s: %s (must be an http(s) URL)", field, raw)
	}
	return nil
}
