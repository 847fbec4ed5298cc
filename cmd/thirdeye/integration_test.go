//go:build integration

package main

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"testing"
	"time"

	"github.com/leonardotrapani/thirdeye/internal/analyze"
	"github.com/leonardotrapani/thirdeye/internal/backend"
	"github.com/leonardotrapani/thirdeye/internal/config"
	"github.com/leonardotrapani/thirdeye/internal/provider"
)

const testTimeout = 45 * time.Second

func TestVisionModels(t *testing.T) {
	img := testFrame(t)
	cfg := loadTestConfig(t)

	for _, test := range buildVisionTests(true) {
		test := test
		name := fmt.Sprintf("%s/%s/%s", test.provider, test.model.ID, test.mode)
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			apiKey := cfg.ResolveAPIKey(test.provider)
			if providerRequiresKey(test.provider) && apiKey == "" {
				t.Skipf("no API key for %s", test.provider)
			}

			ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
			defer cancel()

			describer, err := backend.NewDescriber(ctx, backend.Config{
				Provider: test.provider,
				Model:    test.model.ID,
				APIKey:   apiKey,
			})
			if err != nil {
				t.Fatalf("NewDescriber() error = %v", err)
			}

			text, err := describer.Describe(ctx, backend.DescribeRequest{
				Image:    img,
				MIMEType: "image/jpeg",
				Language: "en-US",
				Mode:     test.mode,
			})
			if err != nil {
				t.Fatalf("Describe() error = %v", err)
			}
			if text == "" {
				t.Fatal("empty description")
			}
			t.Logf("description: %s", truncateString(text, 120))
		})
	}
}

func TestSpeechModels(t *testing.T) {
	cfg := loadTestConfig(t)

	for _, test := range buildSpeechTests() {
		test := test
		t.Run(test.provider+"/"+test.model.ID, func(t *testing.T) {
			result := runSpeechTest(context.Background(), cfg, test, testModelsOptions{timeout: testTimeout})
			switch result.Status {
			case "skip":
				t.Skip(result.Error)
			case "fail":
				t.Fatalf("synthesize failed: %s", result.Error)
			}
			if result.OutputBytes == 0 {
				t.Error("no audio returned")
			}
		})
	}
}

func TestNonEnglishDescription(t *testing.T) {
	cfg := loadTestConfig(t)
	apiKey := cfg.ResolveAPIKey(provider.ProviderGemini)
	if apiKey == "" {
		t.Skip("no Gemini API key")
	}

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	describer, err := backend.NewDescriber(ctx, backend.Config{Provider: provider.ProviderGemini, APIKey: apiKey})
	if err != nil {
		t.Fatalf("NewDescriber() error = %v", err)
	}
	text, err := describer.Describe(ctx, backend.DescribeRequest{
		Image:    testFrame(t),
		MIMEType: "image/jpeg",
		Language: "es-ES",
		Mode:     analyze.ModeContinuous,
	})
	if err != nil {
		t.Fatalf("Describe() error = %v", err)
	}
	t.Logf("es-ES description: %s", text)
}

// testFrame draws a red square on white so every model has something to say.
func testFrame(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 320, 240))
	for y := 0; y < 240; y++ {
		for x := 0; x < 320; x++ {
			c := color.RGBA{255, 255, 255, 255}
			if x >= 110 && x < 210 && y >= 70 && y < 170 {
				c = color.RGBA{220, 20, 20, 255}
			}
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85}); err != nil {
		t.Fatalf("encode test frame: %v", err)
	}
	return buf.Bytes()
}

func loadTestConfig(t *testing.T) *config.Config {
	cfg, err := config.Load()
	if err != nil {
		t.Logf("warning: could not load config: %v", err)
		return config.DefaultConfig()
	}
	return cfg
}
