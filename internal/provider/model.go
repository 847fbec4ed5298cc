package provider

// ModelType represents the type of a model
type ModelType int

const (
	Vision ModelType = iota
	Speech
)

func (t ModelType) String() string {
	switch t {
	case Vision:
		return "vision"
	case Speech:
		return "speech"
	default:
		return "unknown"
	}
}

// Model represents a model with metadata
type Model struct {
	ID          string    // unique identifier (e.g., "gemini-2.5-flash", "tts-1")
	Name        string    // display name
	Description string    // short description
	Type        ModelType // vision or speech
	Endpoint    *EndpointConfig
}

// EndpointConfig holds the HTTP endpoint a model is served from
type EndpointConfig struct {
	BaseURL string // e.g., "https://api.openai.com/v1"
	Path    string // e.g., "/chat/completions"
}

// URL returns the full endpoint URL.
func (e *EndpointConfig) URL() string {
	if e == nil {
		return ""
	}
	return e.BaseURL + e.Path
}

// ModelsOfType filters models by type.
func ModelsOfType(models []Model, t ModelType) []Model {
	var out []Model
	for _, m := range models {
		if m.Type == t {
			out = append(out, m)
		}
	}
	return out
}

// FindModel returns the model with the given ID, or nil.
func FindModel(models []Model, id string) *Model {
	for i := range models {
		if models[i].ID == id {
			return &models[i]
		}
	}
	return nil
}
