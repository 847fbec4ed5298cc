package playback

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"

	"github.com/leonardotrapani/thirdeye/internal/language"
)

// Mediator owns the single active rendition. Starting a new one stops
// the previous one first.
type Mediator struct {
	player AudioPlayer
	synth  Synthesizer

	mu     sync.Mutex
	config Config
	active Rendition
	gen    uint64

	voicesMu sync.Mutex
	voices   []Voice
}

func NewMediator(config Config, player AudioPlayer, synth Synthesizer) *Mediator {
	if config.Rate <= 0 {
		config.Rate = 1.0
	}
	return &Mediator{
		player: player,
		synth:  synth,
		config: config,
	}
}

// PlayAudio plays pre-rendered audio. Only a failure to start is
// returned; errors while playing are logged.
func (m *Mediator) PlayAudio(ctx context.Context, data []byte) error {
	if m.player == nil {
		return &PlaybackError{Op: "play", Err: errors.New("no audio player configured")}
	}
	if len(data) == 0 {
		return &PlaybackError{Op: "play", Err: errors.New("empty audio")}
	}

	f, err := os.CreateTemp("", "thirdeye-audio-*.mp3")
	if err != nil {
		return &PlaybackError{Op: "play", Err: fmt.Errorf("create temp file: %w", err)}
	}
	path := f.Name()
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(path)
		return &PlaybackError{Op: "play", Err: fmt.Errorf("write temp file: %w", err)}
	}
	f.Close()

	m.mu.Lock()
	m.stopActiveLocked()
	rate := m.config.Rate
	r, err := m.player.Play(ctx, path, rate)
	if err != nil {
		m.mu.Unlock()
		os.Remove(path)
		return &PlaybackError{Op: "play", Err: err}
	}
	gen := m.setActiveLocked(r)
	m.mu.Unlock()

	m.await(r, gen, "audio", func() { os.Remove(path) })
	return nil
}

// Speak synthesizes text locally. It always resolves; missing engines,
// missing voices and engine errors are logged.
func (m *Mediator) Speak(ctx context.Context, text, lang string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	if m.synth == nil {
		log.Printf("Playback: Text-to-speech not supported, skipping audio")
		return
	}

	voice := m.pickVoice(ctx, lang)

	m.mu.Lock()
	m.stopActiveLocked()
	u := Utterance{
		Text:     text,
		Language: lang,
		Voice:    voice,
		Rate:     m.config.Rate,
		Pitch:    m.config.Pitch,
		Volume:   m.config.Volume,
	}
	r, err := m.synth.Speak(ctx, u)
	if err != nil {
		m.mu.Unlock()
		log.Printf("Playback: speech error: %v", err)
		return
	}
	gen := m.setActiveLocked(r)
	m.mu.Unlock()

	m.await(r, gen, "speech", nil)
}

// Prime runs an empty utterance through the engine so the first real
// one does not pay start-up cost.
func (m *Mediator) Prime(ctx context.Context) {
	if m.synth == nil {
		return
	}
	m.WarmVoices(ctx)

	m.mu.Lock()
	m.stopActiveLocked()
	r, err := m.synth.Speak(ctx, Utterance{Text: " ", Volume: 0, Rate: m.config.Rate})
	if err != nil {
		m.mu.Unlock()
		log.Printf("Playback: prime failed: %v", err)
		return
	}
	gen := m.setActiveLocked(r)
	m.mu.Unlock()

	m.await(r, gen, "prime", nil)
}

// SetRate changes the speed for the active rendition and all later ones.
func (m *Mediator) SetRate(rate float64) error {
	if rate <= 0 {
		return fmt.Errorf("invalid rate: %v", rate)
	}
	m.mu.Lock()
	m.config.Rate = rate
	active := m.active
	m.mu.Unlock()

	if active == nil {
		return nil
	}
	if err := active.SetRate(rate); err != nil {
		if errors.Is(err, ErrRateUnsupported) || errors.Is(err, ErrInterrupted) {
			log.Printf("Playback: rate %.2f applies from next rendition", rate)
			return nil
		}
		return err
	}
	log.Printf("Playback: rate changed to %.2f", rate)
	return nil
}

func (m *Mediator) Rate() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.config.Rate
}

// UpdateConfig replaces pitch, volume and rate for subsequent renditions.
func (m *Mediator) UpdateConfig(config Config) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if config.Rate <= 0 {
		config.Rate = m.config.Rate
	}
	m.config = config
}

// StopAll halts the active rendition, if any.
func (m *Mediator) StopAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopActiveLocked()
}

// Active reports whether a rendition is playing.
func (m *Mediator) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active != nil
}

// WarmVoices loads the voice list so the first utterance can pick a voice.
func (m *Mediator) WarmVoices(ctx context.Context) {
	if m.synth == nil {
		return
	}
	m.loadVoices(ctx)
}

func (m *Mediator) stopActiveLocked() {
	if m.active == nil {
		return
	}
	m.active.Stop()
	m.active = nil
}

func (m *Mediator) setActiveLocked(r Rendition) uint64 {
	m.gen++
	m.active = r
	return m.gen
}

func (m *Mediator) await(r Rendition, gen uint64, label string, cleanup func()) {
	err := r.Wait()
	if cleanup != nil {
		cleanup()
	}

	m.mu.Lock()
	if m.gen == gen {
		m.active = nil
	}
	m.mu.Unlock()

	if err != nil && !errors.Is(err, ErrInterrupted) {
		log.Printf("Playback: %s error: %v", label, err)
	}
}

func (m *Mediator) loadVoices(ctx context.Context) []Voice {
	m.voicesMu.Lock()
	defer m.voicesMu.Unlock()

	// An empty list is not cached; engines may report voices late.
	if len(m.voices) > 0 {
		return m.voices
	}
	voices, err := m.synth.Voices(ctx)
	if err != nil {
		log.Printf("Playback: failed to list voices: %v", err)
		return nil
	}
	m.voices = voices
	return voices
}

func (m *Mediator) pickVoice(ctx context.Context, lang string) string {
	if lang == "" {
		return ""
	}
	voices := m.loadVoices(ctx)

	want := language.Normalize(lang)
	for _, v := range voices {
		if language.Normalize(v.Language) == want {
			return v.ID
		}
	}
	for _, v := range voices {
		if language.Matches(v.Language, lang) {
			return v.ID
		}
	}
	log.Printf("Playback: no voice for %s, using engine default", lang)
	return ""
}
