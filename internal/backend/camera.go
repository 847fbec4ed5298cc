package backend

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

// maxFrameBytes bounds a single camera frame download.
const maxFrameBytes = 10 << 20

// CameraFetcher pulls JPEG frames from a networked camera such as an
// ESP32 or Raspberry Pi serving snapshots over HTTP.
type CameraFetcher struct {
	client *http.Client
	url    string
}

func NewCameraFetcher(url string, timeout time.Duration) *CameraFetcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &CameraFetcher{
		client: &http.Client{Timeout: timeout},
		url:    url,
	}
}

func (f *CameraFetcher) URL() string { return f.url }

// Fetch returns the frame as a data URL.
func (f *CameraFetcher) Fetch(ctx context.Context) (string, error) {
	if f.url == "" {
		return "", fmt.Errorf("camera url not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("camera request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("camera returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFrameBytes+1))
	if err != nil {
		return "", fmt.Errorf("read frame: %w", err)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("camera returned an empty frame")
	}
	if len(data) > maxFrameBytes {
		return "", fmt.Errorf("camera frame exceeds %d bytes", maxFrameBytes)
	}

	mime := resp.Header.Get("Content-Type")
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	if !strings.HasPrefix(mime, "image/") {
		mime = http.DetectContentType(data)
		if !strings.HasPrefix(mime, "image/") {
			return "", fmt.Errorf("camera returned %s, not an image", mime)
		}
	}

	log.Printf("Backend: fetched %d byte frame from camera", len(data))
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

// Reachable reports whether the camera answers within the client timeout.
func (f *CameraFetcher) Reachable(ctx context.Context) bool {
	if f.url == "" {
		return false
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return false
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
