package backend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/leonardotrapani/thirdeye/internal/analyze"
	"github.com/leonardotrapani/thirdeye/internal/provider"
)

// ErrNoDescription is returned when a provider answers without any text.
var ErrNoDescription = errors.New("No text response generated")

// Config holds the describe service configuration
type Config struct {
	Listen        string
	Provider      string
	Model         string
	APIKey        string
	Timeout       time.Duration
	Speech        bool
	SpeechModel   string
	Voice         string
	SpeechAPIKey  string
	CameraURL     string
	CameraTimeout time.Duration
}

// DescribeRequest is one decoded frame to describe.
type DescribeRequest struct {
	Image    []byte
	MIMEType string
	Language string
	Mode     analyze.Mode
}

// Describer turns an image into a short spoken-style description
type Describer interface {
	Describe(ctx context.Context, req DescribeRequest) (string, error)
}

// Speaker renders description text to encoded audio
type Speaker interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// NewDescriber creates a describer based on the provider
func NewDescriber(ctx context.Context, cfg Config) (Describer, error) {
	p := provider.GetProvider(cfg.Provider)
	if p == nil {
		return nil, fmt.Errorf("unsupported describe provider: %s", cfg.Provider)
	}
	if p.RequiresAPIKey() && cfg.APIKey == "" {
		return nil, fmt.Errorf("%s API key required", cfg.Provider)
	}
	if cfg.Model == "" {
		cfg.Model = p.DefaultVisionModel()
	}

	switch cfg.Provider {
	case provider.ProviderGemini:
		return NewGeminiDescriber(ctx, cfg)
	case provider.ProviderOpenAI:
		return NewOpenAIDescriber(cfg), nil
	case provider.ProviderGroq:
		return NewGroqDescriber(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported describe provider: %s", cfg.Provider)
	}
}

// NewSpeaker returns nil when speech is disabled.
func NewSpeaker(cfg Config) (Speaker, error) {
	if !cfg.Speech {
		return nil, nil
	}
	if cfg.SpeechAPIKey == "" {
		return nil, fmt.Errorf("OpenAI API key required for speech")
	}
	return NewOpenAISpeaker(cfg), nil
}
