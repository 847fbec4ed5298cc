package camera

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// RemoteSource fetches frames from the camera proxy endpoint.
// It holds no device, so Open and Close are no-ops.
type RemoteSource struct {
	client *http.Client
	url    string
}

type proxyResponse struct {
	Success bool   `json:"success"`
	Image   string `json:"image"`
	Error   string `json:"error,omitempty"`
}

func NewRemoteSource(config RemoteConfig) *RemoteSource {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &RemoteSource{
		client: &http.Client{Timeout: timeout},
		url:    config.URL,
	}
}

func (s *RemoteSource) Kind() Kind { return Remote }

func (s *RemoteSource) Open(ctx context.Context) error { return nil }

func (s *RemoteSource) Close() error { return nil }

func (s *RemoteSource) Capture(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return "", &ProxyError{Message: "create request", Err: err}
	}

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		return "", &ProxyError{Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", &ProxyError{Message: fmt.Sprintf("status %d: %s", resp.StatusCode, string(body))}
	}

	var parsed proxyResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", &ProxyError{Message: "decode response", Err: err}
	}

	if !parsed.Success {
		msg := parsed.Error
		if msg == "" {
			msg = "Failed to fetch image from remote camera"
		}
		return "", &ProxyError{Message: msg}
	}
	if parsed.Image == "" {
		return "", &ProxyError{Message: "no image in response"}
	}

	log.Printf("Camera: fetched remote frame (%d chars) in %v", len(parsed.Image), time.Since(start))
	return NormalizeDataURL(parsed.Image), nil
}
