package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/leonardotrapani/thirdeye/internal/analyze"
	"github.com/leonardotrapani/thirdeye/internal/backend"
	"github.com/leonardotrapani/thirdeye/internal/camera"
	"github.com/leonardotrapani/thirdeye/internal/config"
	"github.com/leonardotrapani/thirdeye/internal/provider"
	"github.com/spf13/cobra"
)

type testModelsOptions struct {
	imagePath  string
	timeout    time.Duration
	outputPath string
	language   string
	bothModes  bool
	speech     bool
}

type modelTest struct {
	provider string
	model    provider.Model
	mode     analyze.Mode
}

type modelTestResult struct {
	Provider    string `json:"provider"`
	Model       string `json:"model"`
	Type        string `json:"type"`
	Mode        string `json:"mode,omitempty"`
	Status      string `json:"status"`
	DurationMS  int64  `json:"duration_ms"`
	Output      string `json:"output,omitempty"`
	OutputBytes int    `json:"output_bytes,omitempty"`
	Error       string `json:"error,omitempty"`
}

type testReport struct {
	StartedAt  time.Time         `json:"started_at"`
	ImageSrc   string            `json:"image_src"`
	Results    []modelTestResult `json:"results"`
	PassCount  int               `json:"pass_count"`
	FailCount  int               `json:"fail_count"`
	SkipCount  int               `json:"skip_count"`
	TotalCount int               `json:"total_count"`
}

// testImage is the frame every model is asked to describe.
type testImage struct {
	data     []byte
	mimeType string
	source   string
}

func testModelsCmd() *cobra.Command {
	var opts testModelsOptions

	cmd := &cobra.Command{
		Use:   "test-models",
		Short: "Run E2E tests for all providers/models",
		Long: `Describes one image with every vision model of every provider and
reports pass/fail/skip per model. Providers without an API key are skipped.
Without --image a frame is captured from the local camera.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTestModels(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.imagePath, "image", "", "JPEG/PNG file to describe (defaults to a local camera frame)")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 45*time.Second, "Per-model timeout")
	cmd.Flags().StringVar(&opts.outputPath, "output", "", "Write JSON report to file")
	cmd.Flags().StringVar(&opts.language, "language", "en-US", "Description language tag")
	cmd.Flags().BoolVar(&opts.bothModes, "both-modes", true, "Test live and navigation prompts")
	cmd.Flags().BoolVar(&opts.speech, "speech", true, "Also test speech models")

	return cmd
}

func runTestModels(ctx context.Context, opts testModelsOptions) error {
	if opts.timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	startedAt := time.Now().UTC()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	img, err := loadTestImage(ctx, cfg, opts.imagePath)
	if err != nil {
		return err
	}

	var results []modelTestResult
	for _, test := range buildVisionTests(opts.bothModes) {
		results = append(results, runVisionTest(ctx, cfg, test, img, opts))
	}
	if opts.speech {
		for _, test := range buildSpeechTests() {
			results = append(results, runSpeechTest(ctx, cfg, test, opts))
		}
	}

	report := summarizeReport(startedAt, img.source, results)
	printReport(report)

	if opts.outputPath != "" {
		if err := writeReport(opts.outputPath, report); err != nil {
			return err
		}
	}

	if report.FailCount > 0 {
		return fmt.Errorf("%d failed, %d skipped", report.FailCount, report.SkipCount)
	}
	return nil
}

func loadTestImage(ctx context.Context, cfg *config.Config, path string) (testImage, error) {
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return testImage{}, fmt.Errorf("failed to read image: %w", err)
		}
		mimeType := http.DetectContentType(data)
		if !strings.HasPrefix(mimeType, "image/") {
			return testImage{}, fmt.Errorf("%s is not an image (%s)", path, mimeType)
		}
		return testImage{data: data, mimeType: mimeType, source: path}, nil
	}

	src := camera.NewLocalSource(cfg.ToLocalCameraConfig())
	if err := src.Open(ctx); err != nil {
		return testImage{}, fmt.Errorf("failed to open camera: %w", err)
	}
	defer src.Close()

	dataURL, err := src.Capture(ctx)
	if err != nil {
		return testImage{}, fmt.Errorf("failed to capture frame: %w", err)
	}
	data, err := base64.StdEncoding.DecodeString(camera.StripDataURL(dataURL))
	if err != nil {
		return testImage{}, fmt.Errorf("failed to decode frame: %w", err)
	}
	device, _ := src.Device()
	return testImage{data: data, mimeType: "image/jpeg", source: device}, nil
}

func buildVisionTests(bothModes bool) []modelTest {
	modes := []analyze.Mode{analyze.ModeContinuous}
	if bothModes {
		modes = append(modes, analyze.ModeGuided)
	}

	var tests []modelTest
	for _, name := range provider.ListProviders() {
		p := provider.GetProvider(name)
		for _, m := range provider.ModelsOfType(p.Models(), provider.Vision) {
			for _, mode := range modes {
				tests = append(tests, modelTest{provider: name, model: m, mode: mode})
			}
		}
	}
	return tests
}

func buildSpeechTests() []modelTest {
	var tests []modelTest
	for _, name := range provider.ListProvidersWithSpeech() {
		p := provider.GetProvider(name)
		for _, m := range provider.ModelsOfType(p.Models(), provider.Speech) {
			tests = append(tests, modelTest{provider: name, model: m})
		}
	}
	return tests
}

func runVisionTest(ctx context.Context, cfg *config.Config, test modelTest, img testImage, opts testModelsOptions) modelTestResult {
	result := modelTestResult{
		Provider: test.provider,
		Model:    test.model.ID,
		Type:     test.model.Type.String(),
		Mode:     string(test.mode),
		Status:   "fail",
	}

	apiKey := cfg.ResolveAPIKey(test.provider)
	if providerRequiresKey(test.provider) && apiKey == "" {
		result.Status = "skip"
		result.Error = "missing api key"
		return result
	}

	testCtx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()

	describer, err := backend.NewDescriber(testCtx, backend.Config{
		Provider: test.provider,
		Model:    test.model.ID,
		APIKey:   apiKey,
	})
	if err != nil {
		result.Error = err.Error()
		return result
	}

	start := time.Now()
	text, err := describer.Describe(testCtx, backend.DescribeRequest{
		Image:    img.data,
		MIMEType: img.mimeType,
		Language: opts.language,
		Mode:     test.mode,
	})
	result.DurationMS = time.Since(start).Milliseconds()
	if err != nil {
		result.Error = err.Error()
		return result
	}
	if strings.TrimSpace(text) == "" {
		result.Error = backend.ErrNoDescription.Error()
		return result
	}

	result.Status = "pass"
	result.Output = strings.TrimSpace(text)
	result.OutputBytes = len(result.Output)
	return result
}

func runSpeechTest(ctx context.Context, cfg *config.Config, test modelTest, opts testModelsOptions) modelTestResult {
	result := modelTestResult{
		Provider: test.provider,
		Model:    test.model.ID,
		Type:     test.model.Type.String(),
		Status:   "fail",
	}

	apiKey := cfg.ResolveAPIKey(test.provider)
	if apiKey == "" {
		result.Status = "skip"
		result.Error = "missing api key"
		return result
	}

	voice := cfg.Backend.Voice
	if voices := provider.GetProvider(test.provider).Voices(); voice == "" && len(voices) > 0 {
		voice = voices[0]
	}

	speaker := backend.NewOpenAISpeaker(backend.Config{
		Speech:       true,
		SpeechModel:  test.model.ID,
		Voice:        voice,
		SpeechAPIKey: apiKey,
	})

	testCtx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()
	start := time.Now()
	audio, err := speaker.Synthesize(testCtx, "A wooden table with a cup of coffee on it.")
	result.DurationMS = time.Since(start).Milliseconds()
	if err != nil {
		result.Error = err.Error()
		return result
	}

	result.Status = "pass"
	result.OutputBytes = len(audio)
	return result
}

func providerRequiresKey(providerName string) bool {
	p := provider.GetProvider(providerName)
	if p == nil {
		return false
	}
	return p.RequiresAPIKey()
}

func summarizeReport(startedAt time.Time, imageSrc string, results []modelTestResult) testReport {
	report := testReport{
		StartedAt: startedAt,
		ImageSrc:  imageSrc,
		Results:   results,
	}
	for _, r := range results {
		report.TotalCount++
		switch r.Status {
		case "pass":
			report.PassCount++
		case "fail":
			report.FailCount++
		case "skip":
			report.SkipCount++
		}
	}
	return report
}

func printReport(report testReport) {
	fmt.Printf("test-models: total=%d pass=%d fail=%d skip=%d\n", report.TotalCount, report.PassCount, report.FailCount, report.SkipCount)
	fmt.Printf("image: %s\n", report.ImageSrc)
	for _, r := range report.Results {
		line := fmt.Sprintf("%s %s/%s %s", r.Status, r.Provider, r.Model, r.Type)
		if r.Mode != "" {
			line += " " + r.Mode
		}
		if r.DurationMS > 0 {
			line += fmt.Sprintf(" %dms", r.DurationMS)
		}
		if r.Error != "" {
			line += fmt.Sprintf(" error=%s", truncateString(r.Error, 160))
		}
		if r.Output != "" {
			line += fmt.Sprintf(" output=%q", truncateString(r.Output, 120))
		} else if r.OutputBytes > 0 {
			line += fmt.Sprintf(" audio=%dB", r.OutputBytes)
		}
		fmt.Println(line)
	}
}

func writeReport(path string, report testReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

func truncateString(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
