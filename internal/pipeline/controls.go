package pipeline

import (
	"fmt"
	"log"
	"time"

	"github.com/leonardotrapani/thirdeye/internal/analyze"
	"github.com/leonardotrapani/thirdeye/internal/camera"
	"github.com/leonardotrapani/thirdeye/internal/language"
	"github.com/leonardotrapani/thirdeye/internal/notify"
)

// SetSource selects the capture source for the next Start.
func (c *Controller) SetSource(kind camera.Kind) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session != nil {
		return ErrRunning
	}
	c.config.Source = kind
	return nil
}

// SetMode applies from the next cycle.
func (c *Controller) SetMode(mode analyze.Mode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.config.Mode = mode
	if c.session != nil {
		c.session.Mode = mode
	}
}

// SetLanguage applies from the next cycle.
func (c *Controller) SetLanguage(tag string) error {
	tag = language.Normalize(tag)
	if tag == "" {
		return fmt.Errorf("language is required")
	}
	if language.IsValidTag(tag) {
		tag = language.FromTag(tag).Tag
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.config.Language = tag
	if c.session != nil {
		c.session.Language = tag
	}
	return nil
}

// SetRate changes playback speed, including the rendition playing now.
func (c *Controller) SetRate(rate float64) error {
	if rate <= 0 {
		return fmt.Errorf("invalid rate: %v (must be > 0)", rate)
	}

	c.mu.Lock()
	c.config.Rate = rate
	if c.session != nil {
		c.session.Rate = rate
	}
	c.mu.Unlock()

	if c.renderer == nil {
		return nil
	}
	return c.renderer.SetRate(rate)
}

// SetCadence applies from the next Start.
func (c *Controller) SetCadence(cadence Cadence) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.config.Cadence = cadence
}

// SetTiming replaces the interval and backoff used from the next Start.
func (c *Controller) SetTiming(interval, backoff time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if interval > 0 {
		c.config.Interval = interval
	}
	if backoff > 0 {
		c.config.Backoff = backoff
	}
}

// Reconfigure applies a reloaded configuration. Mode, language, rate and
// messages take effect immediately; source and cadence on the next Start.
func (c *Controller) Reconfigure(config Config) {
	config = withDefaults(config)

	c.mu.Lock()
	rateChanged := config.Rate != c.config.Rate
	c.config = config
	if c.session != nil {
		c.session.Mode = config.Mode
		c.session.Language = config.Language
		c.session.Rate = config.Rate
		if c.session.Source != config.Source {
			log.Printf("Pipeline: source change to %s applies after restart", config.Source)
		}
	}
	c.mu.Unlock()

	if rateChanged && c.renderer != nil {
		if err := c.renderer.SetRate(config.Rate); err != nil {
			log.Printf("Pipeline: failed to apply rate: %v", err)
		}
	}
}

func (c *Controller) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session != nil
}

func (c *Controller) Status() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{
		State:      c.state,
		Message:    c.message,
		Source:     c.config.Source,
		Mode:       c.config.Mode,
		Language:   c.config.Language,
		Rate:       c.config.Rate,
		Cadence:    c.config.Cadence,
		Iterations: c.iterations,
		Failures:   c.failures,
	}
	if sess := c.session; sess != nil {
		snap.Running = sess.running
		snap.Processing = sess.processing
		snap.Source = sess.Source
		snap.Cadence = sess.Cadence
	}
	return snap
}

// Messages returns the status texts in use.
func (c *Controller) Messages() notify.Messages {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.config.Messages
}
