package provider

import "strings"

// GroqProvider implements Provider for Groq's OpenAI-compatible API
type GroqProvider struct{}

// GroqBaseURL is the OpenAI-compatible base URL for Groq.
const GroqBaseURL = "https://api.groq.com/openai/v1"

func (p *GroqProvider) Name() string {
	return ProviderGroq
}

func (p *GroqProvider) RequiresAPIKey() bool {
	return true
}

func (p *GroqProvider) ValidateAPIKey(key string) bool {
	return strings.HasPrefix(key, "gsk_")
}

func (p *GroqProvider) SupportsSpeech() bool {
	return false
}

func (p *GroqProvider) DefaultVisionModel() string {
	return "meta-llama/llama-4-scout-17b-16e-instruct"
}

func (p *GroqProvider) DefaultSpeechModel() string {
	return ""
}

func (p *GroqProvider) Voices() []string {
	return nil
}

func (p *GroqProvider) Models() []Model {
	chat := &EndpointConfig{BaseURL: GroqBaseURL, Path: "/chat/completions"}
	return []Model{
		{
			ID:          "meta-llama/llama-4-scout-17b-16e-instruct",
			Name:        "Llama 4 Scout",
			Description: "Fast multimodal Llama",
			Type:        Vision,
			Endpoint:    chat,
		},
		{
			ID:          "meta-llama/llama-4-maverick-17b-128e-instruct",
			Name:        "Llama 4 Maverick",
			Description: "Larger multimodal Llama",
			Type:        Vision,
			Endpoint:    chat,
		},
	}
}
