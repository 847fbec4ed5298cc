package config

import (
	"fmt"
	"os"
)

const defaultConfigTemplate = `# ThirdEye Configuration
# Edit values as needed - changes are applied immediately without daemon restart.

[general]
  status_addr = "127.0.0.1:7531"   # websocket status feed for 'thirdeye watch' ("" disables)

# Capture loop
[loop]
  source = "local"          # "local" (this machine's camera) or "remote" (camera proxy)
  mode = "live"             # "live" (describe the scene) or "navigation" (obstacles and directions)
  language = "en-US"        # description and speech language
  cadence = "continuous"    # "continuous" (next capture right after speaking) or "interval"
  interval = "1.5s"         # capture period when cadence = "interval"
  backoff = "3s"            # wait before retrying after an error

# Local camera (v4l2 via ffmpeg)
[camera]
  rear_device = "/dev/video2"   # tried first
  front_device = "/dev/video0"  # tried second, then any /dev/video* device
  width = 0                     # 0 = native resolution
  height = 0
  quality = 80                  # JPEG quality 1-100
  warmup_timeout = "5s"         # time allowed for the first frame

# Remote camera proxy
[proxy]
  url = "http://localhost:5000/fetch-arduino-image"
  timeout = "10s"

# Description service
[analyze]
  url = "http://localhost:5000/analyze"
  timeout = "30s"

[playback]
  rate = 1.0                  # speed multiplier, applies live to audio
  pitch = 1.0                 # 0-2, local speech only
  volume = 1.0                # 0-1, local speech only
  audio_player = "mpv"        # "mpv" (live speed changes) or "ffplay"
  speech_engine = "espeak-ng" # "espeak-ng", "espeak" or "none"

[notifications]
  enabled = true
  type = "desktop"            # "desktop", "log", "none"

# 'thirdeye backend' - description service and camera proxy
[backend]
  listen = "127.0.0.1:5000"
  provider = "gemini"         # "gemini", "openai" or "groq"
  model = "gemini-2.5-flash"
  timeout = "30s"
  speech = false              # also return synthesized audio (needs an OpenAI key)
  speech_model = "tts-1"
  voice = "alloy"
  camera_url = "http://192.168.4.1/capture"   # ESP32/Arduino camera JPEG endpoint
  camera_timeout = "10s"

# API keys (or set GEMINI_API_KEY, OPENAI_API_KEY, GROQ_API_KEY)
# [providers.gemini]
#   api_key = ""
`

// SaveDefaultConfig writes the commented default config. It refuses to
// overwrite an existing file unless force is set.
func SaveDefaultConfig(force bool) (string, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return "", err
	}

	if !force {
		if _, err := os.Stat(configPath); err == nil {
			return configPath, fmt.Errorf("config already exists at %s", configPath)
		}
	}

	if err := os.WriteFile(configPath, []byte(defaultConfigTemplate), 0600); err != nil {
		return "", fmt.Errorf("failed to write config content: %w", err)
	}
	return configPath, nil
}
