package backend

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"google.golang.org/genai"
)

// GeminiDescriber implements Describer using the Gemini API
type GeminiDescriber struct {
	client *genai.Client
	config Config
}

// NewGeminiDescriber creates a new Gemini describer
func NewGeminiDescriber(ctx context.Context, cfg Config) (*GeminiDescriber, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("genai client: %w", err)
	}
	return &GeminiDescriber{client: client, config: cfg}, nil
}

func (d *GeminiDescriber) Describe(ctx context.Context, req DescribeRequest) (string, error) {
	mime := req.MIMEType
	if mime == "" {
		mime = "image/jpeg"
	}

	contents := []*genai.Content{{
		Role: "user",
		Parts: []*genai.Part{
			genai.NewPartFromBytes(req.Image, mime),
			genai.NewPartFromText(BuildPrompt(req.Mode, req.Language)),
		},
	}}

	start := time.Now()
	resp, err := d.client.Models.GenerateContent(ctx, d.config.Model, contents, nil)
	duration := time.Since(start)

	if err != nil {
		log.Printf("gemini-describer: API call failed after %v: %v", duration, err)
		return "", fmt.Errorf("genai generate: %w", err)
	}

	var sb strings.Builder
	if resp != nil && len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		for _, part := range resp.Candidates[0].Content.Parts {
			sb.WriteString(part.Text)
		}
	}

	result := cleanDescription(sb.String())
	if result == "" {
		return "", ErrNoDescription
	}
	log.Printf("gemini-describer: described %d bytes in %v: %q", len(req.Image), duration, result)
	return result, nil
}
