package config

import (
	"reflect"
	"time"

	"github.com/leonardotrapani/thirdeye/internal/notify"
)

// GeneralConfig holds global settings that apply across the application
type GeneralConfig struct {
	StatusAddr string `toml:"status_addr"` // websocket status feed address, empty disables it
}

type Config struct {
	General       GeneralConfig             `toml:"general"`
	Loop          LoopConfig                `toml:"loop"`
	Camera        CameraConfig              `toml:"camera"`
	Proxy         ProxyConfig               `toml:"proxy"`
	Analyze       AnalyzeConfig             `toml:"analyze"`
	Playback      PlaybackConfig            `toml:"playback"`
	Notifications NotificationsConfig       `toml:"notifications"`
	Backend       BackendConfig             `toml:"backend"`
	Providers     map[string]ProviderConfig `toml:"providers"`
}

// ProviderConfig holds API key for a provider
type ProviderConfig struct {
	APIKey string `toml:"api_key"`
}

// LoopConfig controls the capture loop
type LoopConfig struct {
	Source   string        `toml:"source"`   // "local" or "remote"
	Mode     string        `toml:"mode"`     // "live" or "navigation"
	Language string        `toml:"language"` // BCP-47 tag, e.g. "en-US"
	Cadence  string        `toml:"cadence"`  // "continuous" or "interval"
	Interval time.Duration `toml:"interval"` // capture period for interval cadence
	Backoff  time.Duration `toml:"backoff"`  // wait after a failed cycle
}

type CameraConfig struct {
	RearDevice    string        `toml:"rear_device"`
	FrontDevice   string        `toml:"front_device"`
	Width         int           `toml:"width"`  // 0 = native resolution
	Height        int           `toml:"height"` // 0 = native resolution
	Quality       int           `toml:"quality"`
	WarmupTimeout time.Duration `toml:"warmup_timeout"`
}

type ProxyConfig struct {
	URL     string        `toml:"url"`
	Timeout time.Duration `toml:"timeout"`
}

type AnalyzeConfig struct {
	URL     string        `toml:"url"`
	Timeout time.Duration `toml:"timeout"`
}

type PlaybackConfig struct {
	Rate         float64 `toml:"rate"`
	Pitch        float64 `toml:"pitch"`
	Volume       float64 `toml:"volume"`
	AudioPlayer  string  `toml:"audio_player"`  // "mpv" or "ffplay"
	SpeechEngine string  `toml:"speech_engine"` // "espeak-ng", "espeak" or "none"
}

type NotificationsConfig struct {
	Enabled  bool           `toml:"enabled"`
	Type     string         `toml:"type"` // "desktop", "log", "none"
	Messages MessagesConfig `toml:"messages"`
}

// BackendConfig configures `thirdeye backend`
type BackendConfig struct {
	Listen        string        `toml:"listen"`
	Provider      string        `toml:"provider"`
	Model         string        `toml:"model"`
	Timeout       time.Duration `toml:"timeout"`
	Speech        bool          `toml:"speech"` // return synthesized audio with descriptions
	SpeechModel   string        `toml:"speech_model"`
	Voice         string        `toml:"voice"`
	CameraURL     string        `toml:"camera_url"`
	CameraTimeout time.Duration `toml:"camera_timeout"`
}

type MessagesConfig struct {
	RequestingCamera     string `toml:"requesting_camera"`
	CameraActive         string `toml:"camera_active"`
	CameraActiveInterval string `toml:"camera_active_interval"`
	RemoteActive         string `toml:"remote_active"`
	Analyzing            string `toml:"analyzing"`
	Speaking             string `toml:"speaking"`
	CameraStopped        string `toml:"camera_stopped"`
	CameraUnavailable    string `toml:"camera_unavailable"`
}

// Resolve merges user config with defaults from MessageDefs
func (m *MessagesConfig) Resolve() notify.Messages {
	result := make(notify.Messages)

	v := reflect.ValueOf(m).Elem()
	t := v.Type()
	tagToField := make(map[string]int)
	for i := 0; i < t.NumField(); i++ {
		tagToField[t.Field(i).Tag.Get("toml")] = i
	}

	for _, def := range notify.MessageDefs {
		msg := notify.Message{
			Text:    def.DefaultText,
			IsError: def.IsError,
		}
		if idx, ok := tagToField[def.ConfigKey]; ok {
			if text := v.Field(idx).String(); text != "" {
				msg.Text = text
			}
		}
		result[def.Type] = msg
	}
	return result
}

// Get returns the override for a message config key, or "" when unset.
func (m *MessagesConfig) Get(key string) string {
	if f, ok := m.field(key); ok {
		return f.String()
	}
	return ""
}

// Set stores an override for a message config key. Unknown keys are
// reported as false.
func (m *MessagesConfig) Set(key, text string) bool {
	f, ok := m.field(key)
	if !ok {
		return false
	}
	f.SetString(text)
	return true
}

func (m *MessagesConfig) field(key string) (reflect.Value, bool) {
	v := reflect.ValueOf(m).Elem()
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		if t.Field(i).Tag.Get("toml") == key {
			return v.Field(i), true
		}
	}
	return reflect.Value{}, false
}
