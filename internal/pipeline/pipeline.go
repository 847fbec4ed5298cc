package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/leonardotrapani/thirdeye/internal/analyze"
	"github.com/leonardotrapani/thirdeye/internal/camera"
	"github.com/leonardotrapani/thirdeye/internal/language"
	"github.com/leonardotrapani/thirdeye/internal/notify"
)

// Cadence decides what triggers the next capture.
type Cadence string

const (
	// CadenceContinuous captures again as soon as the previous cycle is rendered.
	CadenceContinuous Cadence = "continuous"
	// CadenceInterval captures on a fixed ticker.
	CadenceInterval Cadence = "interval"
)

const (
	DefaultInterval = 1500 * time.Millisecond
	DefaultBackoff  = 3 * time.Second
)

// ErrRunning is returned by operations that are only allowed while stopped.
var ErrRunning = errors.New("capture loop is running")

func ParseCadence(s string) (Cadence, error) {
	switch Cadence(s) {
	case CadenceContinuous, CadenceInterval:
		return Cadence(s), nil
	default:
		return "", fmt.Errorf("invalid cadence: %s (must be continuous or interval)", s)
	}
}

// SourceProvider builds a fresh frame source for a kind.
type SourceProvider interface {
	Source(kind camera.Kind) (camera.Source, error)
}

// Renderer plays one description at a time.
type Renderer interface {
	PlayAudio(ctx context.Context, data []byte) error
	Speak(ctx context.Context, text, lang string)
	SetRate(rate float64) error
	StopAll()
	WarmVoices(ctx context.Context)
}

type Config struct {
	Source   camera.Kind
	Mode     analyze.Mode
	Language string
	Rate     float64
	Cadence  Cadence
	Interval time.Duration
	Backoff  time.Duration
	Messages notify.Messages
}

func DefaultConfig() Config {
	return Config{
		Source:   camera.Local,
		Mode:     analyze.ModeContinuous,
		Language: language.Default.Tag,
		Rate:     1.0,
		Cadence:  CadenceContinuous,
		Interval: DefaultInterval,
		Backoff:  DefaultBackoff,
		Messages: notify.DefaultMessages(),
	}
}

// Session is the state of one running loop. It exists from Start to Stop.
type Session struct {
	running    bool
	processing bool

	Source   camera.Kind
	Mode     analyze.Mode
	Language string
	Rate     float64
	Cadence  Cadence

	ctx    context.Context
	cancel context.CancelFunc
}

// Snapshot is a point-in-time view of the controller.
type Snapshot struct {
	State      notify.State `json:"state"`
	Message    string       `json:"message"`
	Running    bool         `json:"running"`
	Processing bool         `json:"processing"`
	Source     camera.Kind  `json:"source"`
	Mode       analyze.Mode `json:"mode"`
	Language   string       `json:"language"`
	Rate       float64      `json:"rate"`
	Cadence    Cadence      `json:"cadence"`
	Iterations uint64       `json:"iterations"`
	Failures   uint64       `json:"failures"`
}

// Controller is the capture loop: capture a frame, analyze it, render the
// description, repeat until stopped. At most one step runs at a time.
type Controller struct {
	sources  SourceProvider
	analyzer analyze.Analyzer
	renderer Renderer
	notifier notify.Notifier

	// lifecycle serializes Start and Stop
	lifecycle sync.Mutex

	mu         sync.Mutex
	config     Config
	session    *Session
	source     camera.Source
	loopDone   chan struct{}
	stepDone   chan error // result of the last triggered step
	inflight   sync.WaitGroup
	state      notify.State
	message    string
	iterations uint64
	failures   uint64
}

func New(config Config, sources SourceProvider, analyzer analyze.Analyzer, renderer Renderer, notifier notify.Notifier) *Controller {
	config = withDefaults(config)
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &Controller{
		sources:  sources,
		analyzer: analyzer,
		renderer: renderer,
		notifier: notifier,
		config:   config,
		stepDone: make(chan error, 1),
		state:    notify.Idle,
	}
}

func withDefaults(config Config) Config {
	def := DefaultConfig()
	if config.Source == "" {
		config.Source = def.Source
	}
	if config.Mode == "" {
		config.Mode = def.Mode
	}
	if config.Language == "" {
		config.Language = def.Language
	}
	if config.Rate <= 0 {
		config.Rate = def.Rate
	}
	if config.Cadence == "" {
		config.Cadence = def.Cadence
	}
	if config.Interval <= 0 {
		config.Interval = def.Interval
	}
	if config.Backoff <= 0 {
		config.Backoff = def.Backoff
	}
	if config.Messages == nil {
		config.Messages = def.Messages
	}
	return config
}

// Start acquires the selected source and launches the loop. ctx bounds the
// loop's lifetime. Starting a running controller is a no-op.
func (c *Controller) Start(ctx context.Context) error {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()

	c.mu.Lock()
	if c.session != nil {
		c.mu.Unlock()
		return nil
	}
	prev := c.loopDone
	config := c.config
	c.mu.Unlock()

	// A previous loop or a triggered step may still be waiting on a
	// discarded analyze request.
	if prev != nil {
		<-prev
	}
	c.inflight.Wait()

	c.setStatus(notify.RequestingPermission, config.Messages.Text(notify.MsgRequestingCamera))

	source, err := c.sources.Source(config.Source)
	if err != nil {
		log.Printf("Pipeline: no %s source: %v", config.Source, err)
		c.setStatus(notify.Error, config.Messages.Text(notify.MsgCameraUnavailable))
		return fmt.Errorf("%w: %v", camera.ErrSourceUnavailable, err)
	}
	if err := source.Open(ctx); err != nil {
		source.Close()
		log.Printf("Pipeline: failed to open %s source: %v", config.Source, err)
		c.setStatus(notify.Error, config.Messages.Text(notify.MsgCameraUnavailable))
		if errors.Is(err, camera.ErrSourceUnavailable) || camera.IsProxyError(err) {
			return err
		}
		return fmt.Errorf("%w: %v", camera.ErrSourceUnavailable, err)
	}

	loopCtx, cancel := context.WithCancel(ctx)
	sess := &Session{
		running:  true,
		Source:   config.Source,
		Mode:     config.Mode,
		Language: config.Language,
		Rate:     config.Rate,
		Cadence:  config.Cadence,
		ctx:      loopCtx,
		cancel:   cancel,
	}
	done := make(chan struct{})

	c.mu.Lock()
	c.session = sess
	c.source = source
	c.loopDone = done
	c.mu.Unlock()

	select {
	case <-c.stepDone:
	default:
	}

	if c.renderer != nil {
		go c.renderer.WarmVoices(loopCtx)
	}

	log.Printf("Pipeline: started (source=%s, mode=%s, cadence=%s)", config.Source, config.Mode, config.Cadence)
	c.setStatus(notify.Active, activeMessage(config))

	go c.run(sess, config, done)
	return nil
}

// Stop ends the session, releases the source and halts playback. An
// analyze request already in flight is left to finish and its result is
// discarded. Stop is idempotent.
func (c *Controller) Stop() {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()

	c.mu.Lock()
	sess := c.session
	source := c.source
	if sess == nil {
		c.mu.Unlock()
		return
	}
	sess.running = false
	sess.processing = false
	c.session = nil
	c.source = nil
	messages := c.config.Messages
	c.mu.Unlock()

	sess.cancel()
	if source != nil {
		if err := source.Close(); err != nil {
			log.Printf("Pipeline: error releasing source: %v", err)
		}
	}
	if c.renderer != nil {
		c.renderer.StopAll()
	}

	log.Printf("Pipeline: stopped")
	c.setStatus(notify.Idle, messages.Text(notify.MsgCameraStopped))
}

// Step runs one capture cycle now. It is a no-op while stopped or while
// another cycle is processing; triggers are dropped, never queued.
func (c *Controller) Step(ctx context.Context) error {
	_, err := c.step(ctx, nil)
	return err
}

func (c *Controller) run(sess *Session, config Config, done chan struct{}) {
	defer close(done)

	var tick <-chan time.Time
	if config.Cadence == CadenceInterval {
		ticker := time.NewTicker(config.Interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	ctx := sess.ctx
	for c.isCurrent(sess) {
		if tick != nil {
			select {
			case <-ctx.Done():
				return
			case <-tick:
			}
		}

		ran, err := c.step(ctx, sess)
		if !ran {
			if tick != nil {
				continue
			}
			// a triggered step holds the cycle; wait for its outcome
			select {
			case <-ctx.Done():
				return
			case err = <-c.stepDone:
			}
		}
		if err == nil {
			continue
		}

		if !c.backoff(sess, config.Backoff) {
			return
		}
		c.setSessionStatus(sess, notify.Active, activeMessage(config))
	}
}

// backoff waits d and reports whether the session is still running.
func (c *Controller) backoff(sess *Session, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-sess.ctx.Done():
		return false
	case <-timer.C:
	}
	return c.isCurrent(sess)
}

// step runs one cycle for sess, or for the current session when sess is
// nil. It reports whether a cycle ran.
func (c *Controller) step(ctx context.Context, sess *Session) (ran bool, err error) {
	triggered := sess == nil

	c.mu.Lock()
	if sess == nil {
		sess = c.session
	}
	if sess == nil || sess != c.session || !sess.running || sess.processing {
		c.mu.Unlock()
		return false, nil
	}
	sess.processing = true
	c.inflight.Add(1)
	req := analyze.Request{Language: sess.Language, Mode: sess.Mode}
	source := c.source
	messages := c.config.Messages
	if !triggered {
		// the loop owns the cycle again; an older outcome is stale
		select {
		case <-c.stepDone:
		default:
		}
	}
	c.mu.Unlock()

	defer func() { c.finishStep(sess, triggered, err) }()

	stepCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stopWatch := context.AfterFunc(sess.ctx, cancel)
	defer stopWatch()

	c.setSessionStatus(sess, notify.Processing, messages.Text(notify.MsgAnalyzing))

	err = c.cycle(stepCtx, sess, source, req, messages)

	c.mu.Lock()
	if err != nil {
		c.failures++
	} else {
		c.iterations++
	}
	c.mu.Unlock()

	if err != nil {
		log.Printf("Pipeline: step failed: %v", err)
		c.setSessionStatus(sess, notify.Error, "Error: "+err.Error())
	}
	return true, err
}

func (c *Controller) finishStep(sess *Session, triggered bool, err error) {
	defer c.inflight.Done()

	c.mu.Lock()
	sess.processing = false
	c.mu.Unlock()

	if !triggered || !c.isCurrent(sess) {
		return
	}
	// keep only the latest outcome
	select {
	case <-c.stepDone:
	default:
	}
	select {
	case c.stepDone <- err:
	default:
	}
}

func (c *Controller) cycle(ctx context.Context, sess *Session, source camera.Source, req analyze.Request, messages notify.Messages) error {
	image, err := source.Capture(ctx)
	if err != nil {
		if !c.isCurrent(sess) {
			return nil
		}
		return err
	}
	req.Image = image

	// Stop does not abort the request; a late result is dropped below.
	result, err := c.analyzer.Analyze(context.WithoutCancel(ctx), req)
	if !c.isCurrent(sess) {
		log.Printf("Pipeline: discarding result that arrived after stop")
		return nil
	}
	if errors.Is(err, analyze.ErrMalformedResponse) {
		log.Printf("Pipeline: nothing to render: %v", err)
		c.setSessionStatus(sess, notify.Active, activeMessageFor(sess, messages))
		return nil
	}
	if err != nil {
		return err
	}

	c.setSessionStatus(sess, notify.Processing, messages.Text(notify.MsgSpeaking))
	c.render(ctx, result)
	c.setSessionStatus(sess, notify.Active, activeMessageFor(sess, messages))
	return nil
}

// render plays remote audio when present, falling back to local speech.
// Playback failures never fail the cycle.
func (c *Controller) render(ctx context.Context, result analyze.Result) {
	if c.renderer == nil {
		return
	}
	if result.HasAudio() {
		err := c.renderer.PlayAudio(ctx, result.Audio)
		if err == nil {
			return
		}
		log.Printf("Pipeline: audio playback failed: %v", err)
		if result.Text == "" {
			return
		}
		log.Printf("Pipeline: falling back to local speech")
	}
	if result.Text != "" {
		c.renderer.Speak(ctx, result.Text, result.Language)
	}
}

func (c *Controller) isCurrent(sess *Session) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return sess == c.session && sess.running
}

func (c *Controller) setStatus(state notify.State, msg string) {
	c.mu.Lock()
	c.state = state
	c.message = msg
	c.mu.Unlock()
	c.notifier.StatusChanged(state, msg)
}

// setSessionStatus reports a transition only if sess is still current, so a
// late cycle cannot overwrite the stopped status.
func (c *Controller) setSessionStatus(sess *Session, state notify.State, msg string) {
	c.mu.Lock()
	if sess != c.session || !sess.running {
		c.mu.Unlock()
		return
	}
	c.state = state
	c.message = msg
	c.mu.Unlock()
	c.notifier.StatusChanged(state, msg)
}

func activeMessage(config Config) string {
	switch {
	case config.Source == camera.Remote:
		return config.Messages.Text(notify.MsgRemoteActive)
	case config.Cadence == CadenceInterval:
		return config.Messages.Text(notify.MsgCameraActiveInterval)
	default:
		return config.Messages.Text(notify.MsgCameraActive)
	}
}

func activeMessageFor(sess *Session, messages notify.Messages) string {
	return activeMessage(Config{Source: sess.Source, Cadence: sess.Cadence, Messages: messages})
}
