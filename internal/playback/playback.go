package playback

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrInterrupted is returned by Rendition.Wait when the rendition was stopped.
var ErrInterrupted = errors.New("rendition interrupted")

// ErrRateUnsupported is returned by SetRate on renditions that cannot change speed while playing.
var ErrRateUnsupported = errors.New("live rate change not supported")

// PlaybackError is a failure to start a rendition. Failures after a
// rendition started are logged and swallowed.
type PlaybackError struct {
	Op  string
	Err error
}

func (e *PlaybackError) Error() string {
	if e.Err == nil {
		return "playback " + e.Op
	}
	return fmt.Sprintf("playback %s: %v", e.Op, e.Err)
}

func (e *PlaybackError) Unwrap() error { return e.Err }

func IsPlaybackError(err error) bool {
	var pbErr *PlaybackError
	return errors.As(err, &pbErr)
}

// Rendition is one in-flight audio or speech playback.
type Rendition interface {
	// Wait blocks until playback ends. It returns ErrInterrupted after Stop.
	Wait() error
	// SetRate changes the speed of the live rendition without restarting it.
	SetRate(rate float64) error
	// Stop halts playback immediately. Safe to call multiple times.
	Stop()
}

// AudioPlayer plays pre-rendered audio files.
type AudioPlayer interface {
	Name() string
	Available() error
	Play(ctx context.Context, path string, rate float64) (Rendition, error)
}

// Voice is a speech voice offered by the local engine.
type Voice struct {
	ID       string
	Name     string
	Language string
}

// Utterance is one piece of text to synthesize. An empty Voice leaves
// selection to the engine default.
type Utterance struct {
	Text     string
	Language string
	Voice    string
	Rate     float64
	Pitch    float64
	Volume   float64
}

// Synthesizer speaks text locally.
type Synthesizer interface {
	Name() string
	Available() error
	Voices(ctx context.Context) ([]Voice, error)
	Speak(ctx context.Context, u Utterance) (Rendition, error)
}

type Config struct {
	Rate         float64 // speed multiplier, 1.0 = normal
	Pitch        float64 // 0.0-2.0, 1.0 = normal
	Volume       float64 // 0.0-1.0
	AudioPlayer  string  // "mpv", "ffplay"
	SpeechEngine string  // "espeak-ng", "none"
	StartTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		Rate:         1.0,
		Pitch:        1.0,
		Volume:       1.0,
		AudioPlayer:  "mpv",
		SpeechEngine: "espeak-ng",
		StartTimeout: 2 * time.Second,
	}
}

// NewAudioPlayer returns the player backend with the given name.
func NewAudioPlayer(name string) (AudioPlayer, error) {
	switch name {
	case "mpv":
		return NewMpvPlayer(), nil
	case "ffplay":
		return NewFfplayPlayer(), nil
	default:
		return nil, fmt.Errorf("unsupported audio player: %s", name)
	}
}

// NewSynthesizer returns the speech backend with the given name. "none" disables speech.
func NewSynthesizer(name string) (Synthesizer, error) {
	switch name {
	case "espeak-ng":
		return NewEspeakSynthesizer("espeak-ng"), nil
	case "espeak":
		return NewEspeakSynthesizer("espeak"), nil
	case "none", "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported speech engine: %s", name)
	}
}
