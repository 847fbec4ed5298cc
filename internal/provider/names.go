package provider

// Provider name constants for config and registry
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderGroq   = "groq"
)

// Environment variable names for API keys
const (
	EnvGeminiKey = "GEMINI_API_KEY"
	EnvGoogleKey = "GOOGLE_API_KEY"
	EnvOpenAIKey = "OPENAI_API_KEY"
	EnvGroqKey   = "GROQ_API_KEY"
)

// EnvVarsForProvider returns the environment variables that may hold a
// provider's API key, in lookup order.
func EnvVarsForProvider(provider string) []string {
	switch provider {
	case ProviderGemini:
		return []string{EnvGeminiKey, EnvGoogleKey}
	case ProviderOpenAI:
		return []string{EnvOpenAIKey}
	case ProviderGroq:
		return []string{EnvGroqKey}
	default:
		return nil
	}
}
