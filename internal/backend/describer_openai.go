package backend

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"time"

	"github.com/leonardotrapani/thirdeye/internal/provider"
	"github.com/sashabaranov/go-openai"
)

// OpenAIDescriber implements Describer using chat completions with image
// input. Groq serves the same API under a different base URL.
type OpenAIDescriber struct {
	client *openai.Client
	config Config
	name   string
}

// NewOpenAIDescriber creates a new OpenAI describer
func NewOpenAIDescriber(cfg Config) *OpenAIDescriber {
	return &OpenAIDescriber{
		client: openai.NewClient(cfg.APIKey),
		config: cfg,
		name:   provider.ProviderOpenAI,
	}
}

// NewGroqDescriber creates a describer against Groq's OpenAI-compatible API
func NewGroqDescriber(cfg Config) *OpenAIDescriber {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	clientConfig.BaseURL = provider.GroqBaseURL
	return &OpenAIDescriber{
		client: openai.NewClientWithConfig(clientConfig),
		config: cfg,
		name:   provider.ProviderGroq,
	}
}

func (d *OpenAIDescriber) Describe(ctx context.Context, req DescribeRequest) (string, error) {
	mime := req.MIMEType
	if mime == "" {
		mime = "image/jpeg"
	}
	imageURL := "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(req.Image)

	chatReq := openai.ChatCompletionRequest{
		Model: d.config.Model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: BuildPrompt(req.Mode, req.Language)},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    imageURL,
							Detail: openai.ImageURLDetailLow,
						},
					},
				},
			},
		},
		MaxTokens:   150,
		Temperature: 0.3,
	}

	start := time.Now()
	resp, err := d.client.CreateChatCompletion(ctx, chatReq)
	duration := time.Since(start)

	if err != nil {
		log.Printf("%s-describer: API call failed after %v: %v", d.name, duration, err)
		return "", fmt.Errorf("%s chat completion: %w", d.name, err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%s chat completion: no response choices", d.name)
	}

	result := cleanDescription(resp.Choices[0].Message.Content)
	if result == "" {
		return "", ErrNoDescription
	}
	log.Printf("%s-describer: described %d bytes in %v: %q", d.name, len(req.Image), duration, result)
	return result, nil
}
