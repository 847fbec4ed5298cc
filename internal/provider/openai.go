package provider

import "strings"

// OpenAIProvider implements Provider for OpenAI services
type OpenAIProvider struct{}

func (p *OpenAIProvider) Name() string {
	return ProviderOpenAI
}

func (p *OpenAIProvider) RequiresAPIKey() bool {
	return true
}

func (p *OpenAIProvider) ValidateAPIKey(key string) bool {
	return strings.HasPrefix(key, "sk-")
}

func (p *OpenAIProvider) SupportsSpeech() bool {
	return true
}

func (p *OpenAIProvider) DefaultVisionModel() string {
	return "gpt-4o-mini"
}

func (p *OpenAIProvider) DefaultSpeechModel() string {
	return "tts-1"
}

func (p *OpenAIProvider) Voices() []string {
	return []string{"alloy", "echo", "fable", "onyx", "nova", "shimmer"}
}

func (p *OpenAIProvider) Models() []Model {
	chat := &EndpointConfig{BaseURL: "https://api.openai.com/v1", Path: "/chat/completions"}
	speech := &EndpointConfig{BaseURL: "https://api.openai.com/v1", Path: "/audio/speech"}
	return []Model{
		{
			ID:          "gpt-4o-mini",
			Name:        "GPT-4o Mini",
			Description: "Fast and affordable vision model",
			Type:        Vision,
			Endpoint:    chat,
		},
		{
			ID:          "gpt-4o",
			Name:        "GPT-4o",
			Description: "Most capable GPT-4 vision model",
			Type:        Vision,
			Endpoint:    chat,
		},
		{
			ID:          "tts-1",
			Name:        "TTS 1",
			Description: "Low latency speech synthesis",
			Type:        Speech,
			Endpoint:    speech,
		},
		{
			ID:          "tts-1-hd",
			Name:        "TTS 1 HD",
			Description: "Higher quality speech synthesis",
			Type:        Speech,
			Endpoint:    speech,
		},
	}
}
