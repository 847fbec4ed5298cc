package testutil

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/leonardotrapani/thirdeye/internal/analyze"
	"github.com/leonardotrapani/thirdeye/internal/camera"
	"github.com/leonardotrapani/thirdeye/internal/notify"
)

// TestImage is a minimal JPEG data URL payload.
const TestImage = "data:image/jpeg;base64,/9j/4AAQSkZJRg=="

// FakeSource implements camera.Source.
type FakeSource struct {
	SourceKind  camera.Kind
	OpenErr     error
	CaptureFunc func(ctx context.Context) (string, error)

	Opens    atomic.Int32
	Captures atomic.Int32
	Closes   atomic.Int32
}

func (s *FakeSource) Kind() camera.Kind { return s.SourceKind }

func (s *FakeSource) Open(ctx context.Context) error {
	s.Opens.Add(1)
	return s.OpenErr
}

func (s *FakeSource) Capture(ctx context.Context) (string, error) {
	s.Captures.Add(1)
	if s.CaptureFunc != nil {
		return s.CaptureFunc(ctx)
	}
	return TestImage, nil
}

func (s *FakeSource) Close() error {
	s.Closes.Add(1)
	return nil
}

// FakeSources hands out a fresh FakeSource per call and remembers them.
type FakeSources struct {
	// Configure, if set, is applied to each new source.
	Configure func(s *FakeSource)
	// Err, if set, is returned instead of a source.
	Err error

	mu    sync.Mutex
	built []*FakeSource
}

func (f *FakeSources) Source(kind camera.Kind) (camera.Source, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	s := &FakeSource{SourceKind: kind}
	if f.Configure != nil {
		f.Configure(s)
	}
	f.mu.Lock()
	f.built = append(f.built, s)
	f.mu.Unlock()
	return s, nil
}

func (f *FakeSources) Built() []*FakeSource {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*FakeSource, len(f.built))
	copy(out, f.built)
	return out
}

// FakeAnalyzer implements analyze.Analyzer and tracks concurrent calls.
type FakeAnalyzer struct {
	AnalyzeFunc func(ctx context.Context, req analyze.Request) (analyze.Result, error)

	mu          sync.Mutex
	requests    []analyze.Request
	inFlight    int
	maxInFlight int
}

func (a *FakeAnalyzer) Analyze(ctx context.Context, req analyze.Request) (analyze.Result, error) {
	a.mu.Lock()
	a.requests = append(a.requests, req)
	a.inFlight++
	if a.inFlight > a.maxInFlight {
		a.maxInFlight = a.inFlight
	}
	a.mu.Unlock()

	defer func() {
		a.mu.Lock()
		a.inFlight--
		a.mu.Unlock()
	}()

	if a.AnalyzeFunc != nil {
		return a.AnalyzeFunc(ctx, req)
	}
	return analyze.Result{Text: "A book on a table", Language: req.Language}, nil
}

func (a *FakeAnalyzer) Requests() []analyze.Request {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]analyze.Request, len(a.requests))
	copy(out, a.requests)
	return out
}

func (a *FakeAnalyzer) Calls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.requests)
}

func (a *FakeAnalyzer) MaxInFlight() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.maxInFlight
}

// FakeRenderer records renditions instead of playing them.
type FakeRenderer struct {
	PlayErr   error
	PlayFunc  func(ctx context.Context, data []byte) error
	SpeakFunc func(ctx context.Context, text, lang string)

	mu        sync.Mutex
	played    [][]byte
	spoken    []string
	languages []string
	rates     []float64
	stops     int
	warmed    int
	active    int
	maxActive int
}

func (r *FakeRenderer) begin() {
	r.mu.Lock()
	r.active++
	if r.active > r.maxActive {
		r.maxActive = r.active
	}
	r.mu.Unlock()
}

func (r *FakeRenderer) end() {
	r.mu.Lock()
	r.active--
	r.mu.Unlock()
}

func (r *FakeRenderer) PlayAudio(ctx context.Context, data []byte) error {
	r.mu.Lock()
	r.played = append(r.played, data)
	r.mu.Unlock()
	if r.PlayErr != nil {
		return r.PlayErr
	}
	r.begin()
	defer r.end()
	if r.PlayFunc != nil {
		return r.PlayFunc(ctx, data)
	}
	return nil
}

func (r *FakeRenderer) Speak(ctx context.Context, text, lang string) {
	r.mu.Lock()
	r.spoken = append(r.spoken, text)
	r.languages = append(r.languages, lang)
	r.mu.Unlock()
	r.begin()
	defer r.end()
	if r.SpeakFunc != nil {
		r.SpeakFunc(ctx, text, lang)
	}
}

func (r *FakeRenderer) SetRate(rate float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rates = append(r.rates, rate)
	return nil
}

func (r *FakeRenderer) StopAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stops++
}

func (r *FakeRenderer) WarmVoices(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.warmed++
}

func (r *FakeRenderer) Played() [][]byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]byte(nil), r.played...)
}

func (r *FakeRenderer) Spoken() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.spoken...)
}

func (r *FakeRenderer) SpokenLanguages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.languages...)
}

func (r *FakeRenderer) Rates() []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]float64(nil), r.rates...)
}

func (r *FakeRenderer) Stops() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stops
}

func (r *FakeRenderer) MaxActive() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.maxActive
}

// Transition is one recorded status change.
type Transition struct {
	State   notify.State
	Message string
	At      time.Time
}

// RecordingNotifier implements notify.Notifier and keeps every transition.
type RecordingNotifier struct {
	mu          sync.Mutex
	transitions []Transition
}

func (n *RecordingNotifier) StatusChanged(state notify.State, msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.transitions = append(n.transitions, Transition{State: state, Message: msg, At: time.Now()})
}

func (n *RecordingNotifier) Transitions() []Transition {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Transition(nil), n.transitions...)
}

func (n *RecordingNotifier) States() []notify.State {
	n.mu.Lock()
	defer n.mu.Unlock()
	states := make([]notify.State, len(n.transitions))
	for i, tr := range n.transitions {
		states[i] = tr.State
	}
	return states
}

// WaitForState blocks until state has been recorded at least count times.
func (n *RecordingNotifier) WaitForState(t *testing.T, state notify.State, count int, timeout time.Duration) {
	t.Helper()
	WaitForCondition(t, func() bool {
		n.mu.Lock()
		defer n.mu.Unlock()
		seen := 0
		for _, tr := range n.transitions {
			if tr.State == state {
				seen++
			}
		}
		return seen >= count
	}, timeout)
}
