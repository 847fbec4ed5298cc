package backend

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/sashabaranov/go-openai"
)

// OpenAISpeaker synthesizes mp3 audio with OpenAI text-to-speech
type OpenAISpeaker struct {
	client *openai.Client
	model  string
	voice  string
}

func NewOpenAISpeaker(cfg Config) *OpenAISpeaker {
	model := cfg.SpeechModel
	if model == "" {
		model = string(openai.TTSModel1)
	}
	voice := cfg.Voice
	if voice == "" {
		voice = string(openai.VoiceAlloy)
	}
	return &OpenAISpeaker{
		client: openai.NewClient(cfg.SpeechAPIKey),
		model:  model,
		voice:  voice,
	}
}

func (s *OpenAISpeaker) Synthesize(ctx context.Context, text string) ([]byte, error) {
	start := time.Now()
	resp, err := s.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(s.model),
		Input:          text,
		Voice:          openai.SpeechVoice(s.voice),
		ResponseFormat: openai.SpeechResponseFormatMp3,
	})
	if err != nil {
		log.Printf("openai-speaker: API call failed after %v: %v", time.Since(start), err)
		return nil, fmt.Errorf("openai speech: %w", err)
	}
	defer resp.Close()

	audio, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("read speech audio: %w", err)
	}
	log.Printf("openai-speaker: synthesized %d bytes in %v", len(audio), time.Since(start))
	return audio, nil
}
