package provider

import "strings"

// GeminiProvider implements Provider for the Google Gemini API
type GeminiProvider struct{}

func (p *GeminiProvider) Name() string {
	return ProviderGemini
}

func (p *GeminiProvider) RequiresAPIKey() bool {
	return true
}

func (p *GeminiProvider) ValidateAPIKey(key string) bool {
	return strings.HasPrefix(key, "AIza")
}

func (p *GeminiProvider) SupportsSpeech() bool {
	return false
}

func (p *GeminiProvider) DefaultVisionModel() string {
	return "gemini-2.5-flash"
}

func (p *GeminiProvider) DefaultSpeechModel() string {
	return ""
}

func (p *GeminiProvider) Voices() []string {
	return nil
}

func (p *GeminiProvider) Models() []Model {
	endpoint := &EndpointConfig{BaseURL: "https://generativelanguage.googleapis.com", Path: "/v1beta/models"}
	return []Model{
		{
			ID:          "gemini-2.5-flash",
			Name:        "Gemini 2.5 Flash",
			Description: "Fast multimodal model, good single-sentence descriptions",
			Type:        Vision,
			Endpoint:    endpoint,
		},
		{
			ID:          "gemini-2.5-flash-lite",
			Name:        "Gemini 2.5 Flash Lite",
			Description: "Lowest latency, lighter descriptions",
			Type:        Vision,
			Endpoint:    endpoint,
		},
		{
			ID:          "gemini-2.5-pro",
			Name:        "Gemini 2.5 Pro",
			Description: "Most detailed, slower",
			Type:        Vision,
			Endpoint:    endpoint,
		},
	}
}
