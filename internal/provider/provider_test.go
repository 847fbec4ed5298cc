package provider

import "testing"

func TestRegistry(t *testing.T) {
	names := ListProviders()
	want := []string{"gemini", "groq", "openai"}
	if len(names) != len(want) {
		t.Fatalf("ListProviders() = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("ListProviders()[%d] = %s, want %s", i, names[i], want[i])
		}
	}

	if GetProvider("mistral") != nil {
		t.Error("unknown provider should be nil")
	}

	speech := ListProvidersWithSpeech()
	if len(speech) != 1 || speech[0] != "openai" {
		t.Errorf("ListProvidersWithSpeech() = %v", speech)
	}
}

func TestProviders_DefaultModelsExist(t *testing.T) {
	for _, name := range ListProviders() {
		t.Run(name, func(t *testing.T) {
			p := GetProvider(name)
			if FindModel(p.Models(), p.DefaultVisionModel()) == nil {
				t.Errorf("default vision model %q not in model list", p.DefaultVisionModel())
			}
			if p.SupportsSpeech() {
				m := FindModel(p.Models(), p.DefaultSpeechModel())
				if m == nil || m.Type != Speech {
					t.Errorf("default speech model %q missing", p.DefaultSpeechModel())
				}
				if len(p.Voices()) == 0 {
					t.Error("speech provider should list voices")
				}
			}
			if len(EnvVarsForProvider(name)) == 0 {
				t.Error("provider should have an API key env var")
			}
		})
	}
}

func TestValidateAPIKey(t *testing.T) {
	tests := []struct {
		provider string
		key      string
		valid    bool
	}{
		{"gemini", "AIzaSyExample", true},
		{"gemini", "sk-abc", false},
		{"openai", "sk-proj-abc", true},
		{"openai", "gsk_abc", false},
		{"groq", "gsk_abc", true},
		{"groq", "AIza", false},
	}

	for _, tc := range tests {
		t.Run(tc.provider+"/"+tc.key, func(t *testing.T) {
			if got := GetProvider(tc.provider).ValidateAPIKey(tc.key); got != tc.valid {
				t.Errorf("ValidateAPIKey(%q) = %v, want %v", tc.key, got, tc.valid)
			}
		})
	}
}

func TestVisionModels(t *testing.T) {
	models := VisionModels("openai")
	for _, id := range models {
		if id == "tts-1" {
			t.Error("speech models must not be listed as vision models")
		}
	}
	if len(models) != 2 {
		t.Errorf("VisionModels(openai) = %v", models)
	}
	if VisionModels("nope") != nil {
		t.Error("unknown provider should have no models")
	}
}

func TestEndpointURL(t *testing.T) {
	m := FindModel(GetProvider("groq").Models(), "meta-llama/llama-4-scout-17b-16e-instruct")
	if got := m.Endpoint.URL(); got != "https://api.groq.com/openai/v1/chat/completions" {
		t.Errorf("URL() = %s", got)
	}
	var nilEndpoint *EndpointConfig
	if nilEndpoint.URL() != "" {
		t.Error("nil endpoint should have empty URL")
	}
}
