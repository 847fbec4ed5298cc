package backend

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/leonardotrapani/thirdeye/internal/analyze"
)

type fakeDescriber struct {
	mu   sync.Mutex
	text string
	err  error
	reqs []DescribeRequest
}

func (f *fakeDescriber) Describe(ctx context.Context, req DescribeRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reqs = append(f.reqs, req)
	return f.text, f.err
}

func (f *fakeDescriber) last() DescribeRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reqs[len(f.reqs)-1]
}

type fakeSpeaker struct {
	audio []byte
	err   error
}

func (f *fakeSpeaker) Synthesize(ctx context.Context, text string) ([]byte, error) {
	return f.audio, f.err
}

var jpegBytes = []byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10, 'J', 'F', 'I', 'F'}

func jpegDataURL() string {
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(jpegBytes)
}

func postAnalyze(t *testing.T, h http.Handler, body string) (*http.Response, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, PathAnalyze, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	resp := rec.Result()
	var parsed map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp, parsed
}

func TestAnalyze(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		describer  *fakeDescriber
		speaker    Speaker
		wantStatus int
		wantError  string
		wantText   string
		wantAudio  bool
	}{
		{
			name:       "missing body",
			body:       "",
			describer:  &fakeDescriber{text: "unused"},
			wantStatus: http.StatusBadRequest,
			wantError:  "No data provided",
		},
		{
			name:       "missing image",
			body:       `{"language":"en-US"}`,
			describer:  &fakeDescriber{text: "unused"},
			wantStatus: http.StatusBadRequest,
			wantError:  "No image data provided",
		},
		{
			name:       "bad base64",
			body:       `{"image":"data:image/jpeg;base64,!!!"}`,
			describer:  &fakeDescriber{text: "unused"},
			wantStatus: http.StatusBadRequest,
			wantError:  "Invalid image data",
		},
		{
			name:       "empty image payload",
			body:       `{"image":"data:image/jpeg;base64,"}`,
			describer:  &fakeDescriber{text: "unused"},
			wantStatus: http.StatusBadRequest,
			wantError:  "No image data provided",
		},
		{
			name:       "provider failure",
			body:       `{"image":"` + jpegDataURL() + `"}`,
			describer:  &fakeDescriber{err: errors.New("quota exceeded")},
			wantStatus: http.StatusInternalServerError,
			wantError:  "quota exceeded",
		},
		{
			name:       "empty text",
			body:       `{"image":"` + jpegDataURL() + `"}`,
			describer:  &fakeDescriber{text: ""},
			wantStatus: http.StatusInternalServerError,
			wantError:  "No text response generated",
		},
		{
			name:       "text only",
			body:       `{"image":"` + jpegDataURL() + `","language":"en-US","mode":"live"}`,
			describer:  &fakeDescriber{text: "A cup on a desk."},
			wantStatus: http.StatusOK,
			wantText:   "A cup on a desk.",
		},
		{
			name:       "with audio",
			body:       `{"image":"` + jpegDataURL() + `"}`,
			describer:  &fakeDescriber{text: "A hallway."},
			speaker:    &fakeSpeaker{audio: []byte("ID3")},
			wantStatus: http.StatusOK,
			wantText:   "A hallway.",
			wantAudio:  true,
		},
		{
			name:       "speech failure falls back to text",
			body:       `{"image":"` + jpegDataURL() + `"}`,
			describer:  &fakeDescriber{text: "A hallway."},
			speaker:    &fakeSpeaker{err: errors.New("tts down")},
			wantStatus: http.StatusOK,
			wantText:   "A hallway.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewServer(Config{Provider: "gemini", Model: "gemini-2.5-flash"}, tt.describer, tt.speaker)
			resp, body := postAnalyze(t, s.Handler(), tt.body)

			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %v)", resp.StatusCode, tt.wantStatus, body)
			}
			if tt.wantError != "" {
				if body["error"] != tt.wantError {
					t.Errorf("error = %v, want %q", body["error"], tt.wantError)
				}
				return
			}
			if body["text"] != tt.wantText {
				t.Errorf("text = %v, want %q", body["text"], tt.wantText)
			}
			_, hasAudio := body["audio"]
			if hasAudio != tt.wantAudio {
				t.Errorf("audio present = %v, want %v", hasAudio, tt.wantAudio)
			}
		})
	}
}

func TestDecodeImage(t *testing.T) {
	encoded := base64.StdEncoding.EncodeToString(jpegBytes)
	tests := []struct {
		name     string
		image    string
		wantMime string
		wantErr  error
	}{
		{name: "data url", image: "data:image/png;base64," + encoded, wantMime: "image/png"},
		{name: "bare base64", image: encoded, wantMime: "image/jpeg"},
		{name: "non-image mime", image: "data:text/plain;base64," + encoded, wantMime: "image/jpeg"},
		{name: "missing comma", image: "data:image/jpeg;base64", wantErr: errInvalidImage},
		{name: "bad base64", image: "data:image/jpeg;base64,%%%", wantErr: errInvalidImage},
		{name: "empty payload", image: "data:image/jpeg;base64,", wantErr: errEmptyImage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, mime, err := decodeImage(tt.image)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("decodeImage() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("decodeImage() error = %v", err)
			}
			if mime != tt.wantMime {
				t.Errorf("mime = %q, want %q", mime, tt.wantMime)
			}
			if string(data) != string(jpegBytes) {
				t.Errorf("data = %v, want %v", data, jpegBytes)
			}
		})
	}
}

func TestAnalyze_DecodesImageAndOptions(t *testing.T) {
	d := &fakeDescriber{text: "Una puerta a la izquierda."}
	s := NewServer(Config{Provider: "gemini"}, d, nil)

	_, body := postAnalyze(t, s.Handler(), `{"image":"`+jpegDataURL()+`","language":"es_es","mode":"navigation"}`)

	req := d.last()
	if string(req.Image) != string(jpegBytes) {
		t.Errorf("image bytes = %v, want %v", req.Image, jpegBytes)
	}
	if req.MIMEType != "image/jpeg" {
		t.Errorf("mime = %q, want image/jpeg", req.MIMEType)
	}
	if req.Mode != analyze.ModeGuided {
		t.Errorf("mode = %q, want navigation", req.Mode)
	}
	if req.Language != "es-ES" {
		t.Errorf("language = %q, want es-ES", req.Language)
	}
	if body["language"] != "es-ES" {
		t.Errorf("response language = %v, want es-ES", body["language"])
	}
}

func TestAnalyze_Defaults(t *testing.T) {
	d := &fakeDescriber{text: "A chair."}
	s := NewServer(Config{Provider: "gemini"}, d, nil)

	bare := base64.StdEncoding.EncodeToString(jpegBytes)
	postAnalyze(t, s.Handler(), `{"image":"`+bare+`"}`)

	req := d.last()
	if req.Mode != analyze.ModeContinuous {
		t.Errorf("mode = %q, want live", req.Mode)
	}
	if req.Language != "en-US" {
		t.Errorf("language = %q, want en-US", req.Language)
	}
	if string(req.Image) != string(jpegBytes) {
		t.Error("bare base64 payload should decode")
	}
}

func TestAnalyze_MethodNotAllowed(t *testing.T) {
	s := NewServer(Config{}, &fakeDescriber{}, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, PathAnalyze, nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestCORSAndRequestID(t *testing.T) {
	s := NewServer(Config{}, &fakeDescriber{}, nil)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, PathAnalyze, nil))
	if rec.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want 204", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("preflight should allow any origin")
	}

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, PathHealth, nil)
	req.Header.Set("X-Request-ID", "abc")
	s.Handler().ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Request-ID"); got != "abc" {
		t.Errorf("X-Request-ID = %q, want abc", got)
	}

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, PathHealth, nil))
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID should be generated when absent")
	}
}

func TestFetchCamera(t *testing.T) {
	cam := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write(jpegBytes)
	}))
	defer cam.Close()

	s := NewServer(Config{CameraURL: cam.URL, CameraTimeout: time.Second}, &fakeDescriber{}, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, PathFetchCamera, nil))

	var resp cameraResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Success {
		t.Fatalf("success = false, error %q", resp.Error)
	}
	if resp.Image != jpegDataURL() {
		t.Errorf("image = %q, want %q", resp.Image, jpegDataURL())
	}
}

func TestFetchCamera_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "Camera not available", http.StatusInternalServerError)
		}},
		{"not an image", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/plain")
			w.Write([]byte("hello"))
		}},
		{"empty", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "image/jpeg")
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cam := httptest.NewServer(tt.handler)
			defer cam.Close()

			s := NewServer(Config{CameraURL: cam.URL, CameraTimeout: time.Second}, &fakeDescriber{}, nil)
			rec := httptest.NewRecorder()
			s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, PathFetchCamera, nil))

			var resp cameraResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Success || resp.Error == "" {
				t.Errorf("expected failure with error, got %+v", resp)
			}
		})
	}
}

func TestFetchCamera_Unconfigured(t *testing.T) {
	f := NewCameraFetcher("", 0)
	if _, err := f.Fetch(context.Background()); err == nil {
		t.Error("Fetch() without url should fail")
	}
	if f.Reachable(context.Background()) {
		t.Error("Reachable() without url should be false")
	}
}

func TestHealth(t *testing.T) {
	cam := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(jpegBytes)
	}))
	defer cam.Close()

	tests := []struct {
		name      string
		cameraURL string
		want      string
	}{
		{"available", cam.URL, "available"},
		{"unconfigured", "", "unconfigured"},
		{"unavailable", "http://127.0.0.1:1/capture", "unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewServer(Config{Provider: "openai", Model: "gpt-4o-mini", CameraURL: tt.cameraURL}, &fakeDescriber{}, nil)
			rec := httptest.NewRecorder()
			s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, PathHealth, nil))

			var resp healthResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Status != "running" || resp.Camera != tt.want {
				t.Errorf("health = %+v, want running/%s", resp, tt.want)
			}
			if resp.Provider != "openai" || resp.Speech {
				t.Errorf("unexpected provider info: %+v", resp)
			}
		})
	}
}

func TestMetrics(t *testing.T) {
	s := NewServer(Config{Provider: "gemini"}, &fakeDescriber{text: "A lamp."}, nil)
	h := s.Handler()

	postAnalyze(t, h, `{"image":"`+jpegDataURL()+`"}`)
	postAnalyze(t, h, `{}`)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, PathMetrics, nil))
	out, _ := io.ReadAll(rec.Body)
	text := string(out)

	for _, want := range []string{
		`thirdeye_backend_requests_total{code="200",endpoint="/analyze"} 1`,
		`thirdeye_backend_requests_total{code="400",endpoint="/analyze"} 1`,
		`thirdeye_backend_descriptions_total{mode="live",provider="gemini",result="ok"} 1`,
	} {
		if !strings.Contains(text, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestServe_Shutdown(t *testing.T) {
	s := NewServer(Config{Listen: "127.0.0.1:0"}, &fakeDescriber{}, nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}
}

func TestBuildPrompt(t *testing.T) {
	tests := []struct {
		name     string
		mode     analyze.Mode
		tag      string
		contains []string
		excludes []string
	}{
		{"live english", analyze.ModeContinuous, "en-US", []string{"single sentence", "visually impaired"}, []string{"Respond only in"}},
		{"navigation", analyze.ModeGuided, "en-GB", []string{"obstacles", "clear"}, []string{"Respond only in"}},
		{"spanish", analyze.ModeContinuous, "es-ES", []string{"Respond only in Spanish."}, nil},
		{"unknown tag", analyze.ModeContinuous, "xx-YY", []string{"Respond only in xx-YY."}, nil},
		{"empty tag", analyze.ModeContinuous, "", nil, []string{"Respond only in"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildPrompt(tt.mode, tt.tag)
			for _, s := range tt.contains {
				if !strings.Contains(got, s) {
					t.Errorf("prompt %q missing %q", got, s)
				}
			}
			for _, s := range tt.excludes {
				if strings.Contains(got, s) {
					t.Errorf("prompt %q should not contain %q", got, s)
				}
			}
		})
	}
}

func TestCleanDescription(t *testing.T) {
	tests := map[string]string{
		"  A dog.  \n":   "A dog.",
		`"A quoted cat."`: "A quoted cat.",
		`"`:               `"`,
		"":                "",
	}
	for in, want := range tests {
		if got := cleanDescription(in); got != want {
			t.Errorf("cleanDescription(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNewDescriber(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"unknown provider", Config{Provider: "nope", APIKey: "x"}, true},
		{"missing key", Config{Provider: "openai"}, true},
		{"openai", Config{Provider: "openai", APIKey: "sk-test"}, false},
		{"groq", Config{Provider: "groq", APIKey: "gsk_test"}, false},
		{"gemini", Config{Provider: "gemini", APIKey: "AIza-test"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := NewDescriber(context.Background(), tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewDescriber() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && d == nil {
				t.Error("NewDescriber() returned nil describer")
			}
		})
	}
}

func TestNewSpeaker(t *testing.T) {
	sp, err := NewSpeaker(Config{Speech: false})
	if err != nil || sp != nil {
		t.Errorf("disabled speech should give nil speaker, got %v, %v", sp, err)
	}
	if _, err := NewSpeaker(Config{Speech: true}); err == nil {
		t.Error("speech without key should fail")
	}
	sp, err = NewSpeaker(Config{Speech: true, SpeechAPIKey: "sk-test"})
	if err != nil || sp == nil {
		t.Errorf("NewSpeaker() = %v, %v", sp, err)
	}
}
