package config

import (
	"time"

	"github.com/leonardotrapani/thirdeye/internal/provider"
)

// DefaultConfig returns the configuration used when no file exists.
// Loaded files are decoded on top of it, so omitted keys keep these values.
func DefaultConfig() *Config {
	return &Config{
		General: GeneralConfig{
			StatusAddr: "127.0.0.1:7531",
		},
		Loop: LoopConfig{
			Source:   "local",
			Mode:     "live",
			Language: "en-US",
			Cadence:  "continuous",
			Interval: 1500 * time.Millisecond,
			Backoff:  3 * time.Second,
		},
		Camera: CameraConfig{
			RearDevice:    "/dev/video2",
			FrontDevice:   "/dev/video0",
			Quality:       80,
			WarmupTimeout: 5 * time.Second,
		},
		Proxy: ProxyConfig{
			URL:     "http://localhost:5000/fetch-arduino-image",
			Timeout: 10 * time.Second,
		},
		Analyze: AnalyzeConfig{
			URL:     "http://localhost:5000/analyze",
			Timeout: 30 * time.Second,
		},
		Playback: PlaybackConfig{
			Rate:         1.0,
			Pitch:        1.0,
			Volume:       1.0,
			AudioPlayer:  "mpv",
			SpeechEngine: "espeak-ng",
		},
		Notifications: NotificationsConfig{
			Enabled: true,
			Type:    "desktop",
		},
		Backend: BackendConfig{
			Listen:        "127.0.0.1:5000",
			Provider:      provider.ProviderGemini,
			Model:         "gemini-2.5-flash",
			Timeout:       30 * time.Second,
			Speech:        false,
			SpeechModel:   "tts-1",
			Voice:         "alloy",
			CameraURL:     "http://192.168.4.1/capture",
			CameraTimeout: 10 * time.Second,
		},
		Providers: make(map[string]ProviderConfig),
	}
}
