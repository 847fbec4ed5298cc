package camera

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// Kind selects where frames come from.
type Kind string

const (
	Local  Kind = "local"  // device camera on this machine
	Remote Kind = "remote" // camera reached through the proxy endpoint
)

func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case Local, Remote:
		return Kind(s), nil
	default:
		return "", fmt.Errorf("invalid source: %s (must be local or remote)", s)
	}
}

// ErrSourceUnavailable means no camera could be acquired.
var ErrSourceUnavailable = errors.New("camera unavailable")

// ProxyError is a failure fetching a frame from the camera proxy.
type ProxyError struct {
	Message string
	Err     error
}

func (e *ProxyError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("camera proxy: %s: %v", e.Message, e.Err)
	}
	return "camera proxy: " + e.Message
}

func (e *ProxyError) Unwrap() error { return e.Err }

func IsProxyError(err error) bool {
	var proxyErr *ProxyError
	return errors.As(err, &proxyErr)
}

// Source resolves to one still image per Capture call.
type Source interface {
	Kind() Kind
	// Open acquires the underlying device. It must be called before Capture.
	Open(ctx context.Context) error
	// Capture returns the newest frame as a JPEG data URL.
	Capture(ctx context.Context) (string, error)
	// Close releases the device. Safe to call multiple times.
	Close() error
}

// Selector builds a fresh Source for the selected kind on every start,
// so no stream handle outlives the loop that opened it.
type Selector struct {
	mu     sync.RWMutex
	local  LocalConfig
	remote RemoteConfig
}

func NewSelector(local LocalConfig, remote RemoteConfig) *Selector {
	return &Selector{local: local, remote: remote}
}

// Update replaces the configuration used for sources built afterwards.
func (s *Selector) Update(local LocalConfig, remote RemoteConfig) {
	s.mu.Lock()
	s.local = local
	s.remote = remote
	s.mu.Unlock()
}

func (s *Selector) Source(kind Kind) (Source, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	switch kind {
	case Local:
		return NewLocalSource(s.local), nil
	case Remote:
		return NewRemoteSource(s.remote), nil
	default:
		return nil, fmt.Errorf("unsupported source: %s", kind)
	}
}

// LocalConfig configures device capture.
type LocalConfig struct {
	RearDevice    string
	FrontDevice   string
	Width         int // 0 = probe native resolution
	Height        int
	Quality       int // JPEG quality 1-100
	WarmupTimeout time.Duration
}

func DefaultLocalConfig() LocalConfig {
	return LocalConfig{
		RearDevice:    "/dev/video2",
		FrontDevice:   "/dev/video0",
		Quality:       80,
		WarmupTimeout: 5 * time.Second,
	}
}

// RemoteConfig configures the camera proxy client.
type RemoteConfig struct {
	URL     string
	Timeout time.Duration
}

func DefaultRemoteConfig() RemoteConfig {
	return RemoteConfig{
		URL:     "http://localhost:5000/fetch-arduino-image",
		Timeout: 10 * time.Second,
	}
}
