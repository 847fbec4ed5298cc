package provider

import "sort"

// Provider describes an image description service and, optionally, the
// speech synthesis it offers.
type Provider interface {
	Name() string
	RequiresAPIKey() bool
	ValidateAPIKey(key string) bool
	SupportsSpeech() bool
	DefaultVisionModel() string
	DefaultSpeechModel() string
	Voices() []string
	Models() []Model
}

var registry = make(map[string]Provider)

func init() {
	Register(&GeminiProvider{})
	Register(&OpenAIProvider{})
	Register(&GroqProvider{})
}

// Register adds a provider to the registry
func Register(p Provider) {
	registry[p.Name()] = p
}

// GetProvider returns a provider by name, or nil if not found
func GetProvider(name string) Provider {
	return registry[name]
}

// ListProviders returns all registered provider names, sorted
func ListProviders() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ListProvidersWithSpeech returns providers that can synthesize speech
func ListProvidersWithSpeech() []string {
	var names []string
	for _, name := range ListProviders() {
		if registry[name].SupportsSpeech() {
			names = append(names, name)
		}
	}
	return names
}

// VisionModels returns the vision model IDs for a provider.
func VisionModels(name string) []string {
	p := GetProvider(name)
	if p == nil {
		return nil
	}
	var ids []string
	for _, m := range ModelsOfType(p.Models(), Vision) {
		ids = append(ids, m.ID)
	}
	return ids
}
