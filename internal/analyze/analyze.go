package analyze

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Mode selects the kind of description the service produces.
type Mode string

const (
	ModeContinuous Mode = "live"       // general scene description
	ModeGuided     Mode = "navigation" // obstacles and directions
)

func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeContinuous, ModeGuided:
		return Mode(s), nil
	case "continuous":
		return ModeContinuous, nil
	case "guided":
		return ModeGuided, nil
	default:
		return "", fmt.Errorf("invalid mode: %s (must be live or navigation)", s)
	}
}

// Request is one analysis request. Image is a data URL.
type Request struct {
	Image    string `json:"image"`
	Language string `json:"language"`
	Mode     Mode   `json:"mode"`
}

// Result is a successful description. Audio holds decoded pre-rendered
// speech when the service provided it.
type Result struct {
	Text     string
	Language string
	Audio    []byte
}

func (r Result) HasAudio() bool { return len(r.Audio) > 0 }

func (r Result) Empty() bool { return r.Text == "" && len(r.Audio) == 0 }

// Analyzer describes a captured frame.
type Analyzer interface {
	Analyze(ctx context.Context, req Request) (Result, error)
}

type Config struct {
	URL     string
	Timeout time.Duration
}

type response struct {
	Audio    string `json:"audio"`
	Text     string `json:"text"`
	Language string `json:"language"`
	Error    string `json:"error"`
}

// Client talks to the analyze endpoint. It never retries; retry policy
// belongs to the capture loop.
type Client struct {
	client *http.Client
	url    string
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		client: &http.Client{Timeout: timeout},
		url:    cfg.URL,
	}
}

func (c *Client) Analyze(ctx context.Context, req Request) (Result, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return Result{}, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("create request: %w", err)
	}
	requestID := uuid.NewString()
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Request-ID", requestID)

	start := time.Now()
	resp, err := c.client.Do(httpReq)
	duration := time.Since(start)
	if err != nil {
		log.Printf("Analyze: request %s failed after %v: %v", requestID, duration, err)
		return Result{}, fmt.Errorf("analyze request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		log.Printf("Analyze: request %s returned status %d: %s", requestID, resp.StatusCode, string(bodyBytes))
		return Result{}, &HTTPError{Status: resp.StatusCode, Body: string(bodyBytes)}
	}

	var parsed response
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return Result{}, fmt.Errorf("decode response: %w", err)
	}

	if parsed.Error != "" {
		return Result{}, &ServiceError{Message: parsed.Error}
	}

	result := Result{Text: parsed.Text, Language: parsed.Language}
	if result.Language == "" {
		result.Language = req.Language
	}

	if parsed.Audio != "" {
		audio, err := base64.StdEncoding.DecodeString(parsed.Audio)
		if err != nil {
			if parsed.Text == "" {
				return Result{}, fmt.Errorf("%w: undecodable audio: %v", ErrMalformedResponse, err)
			}
			log.Printf("Analyze: request %s audio not decodable, using text only: %v", requestID, err)
		} else {
			result.Audio = audio
		}
	}

	if result.Empty() {
		return Result{}, ErrMalformedResponse
	}

	log.Printf("Analyze: request %s described in %v (audio=%d bytes): %q", requestID, duration, len(result.Audio), result.Text)
	return result, nil
}
