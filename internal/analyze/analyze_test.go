package analyze

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestServer(t *testing.T, status int, body string, check func(r *http.Request, req Request)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("server failed to decode request: %v", err)
		}
		if check != nil {
			check(r, req)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"live", ModeContinuous, false},
		{"navigation", ModeGuided, false},
		{"continuous", ModeContinuous, false},
		{"guided", ModeGuided, false},
		{"walk", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMode(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseMode(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseMode(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestClient_Analyze_Text(t *testing.T) {
	srv := newTestServer(t, http.StatusOK, `{"text":"A book on a table","language":"en-US"}`, func(r *http.Request, req Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if r.Header.Get("X-Request-ID") == "" {
			t.Error("X-Request-ID header should be set")
		}
		if req.Image != "data:image/jpeg;base64,AAAA" || req.Language != "en-US" || req.Mode != ModeGuided {
			t.Errorf("unexpected request body: %+v", req)
		}
	})
	defer srv.Close()

	c := NewClient(Config{URL: srv.URL, Timeout: 5 * time.Second})
	res, err := c.Analyze(context.Background(), Request{
		Image:    "data:image/jpeg;base64,AAAA",
		Language: "en-US",
		Mode:     ModeGuided,
	})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if res.Text != "A book on a table" || res.Language != "en-US" {
		t.Errorf("unexpected result: %+v", res)
	}
	if res.HasAudio() {
		t.Error("result should not carry audio")
	}
}

func TestClient_Analyze_Audio(t *testing.T) {
	audio := []byte("ID3-fake-mp3")
	body := `{"audio":"` + base64.StdEncoding.EncodeToString(audio) + `","text":"A door","language":"en-US"}`
	srv := newTestServer(t, http.StatusOK, body, nil)
	defer srv.Close()

	res, err := NewClient(Config{URL: srv.URL}).Analyze(context.Background(), Request{Language: "en-US", Mode: ModeContinuous})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if string(res.Audio) != string(audio) {
		t.Errorf("audio = %q, want %q", res.Audio, audio)
	}
}

func TestClient_Analyze_LanguageFallsBackToRequest(t *testing.T) {
	srv := newTestServer(t, http.StatusOK, `{"text":"A cup"}`, nil)
	defer srv.Close()

	res, err := NewClient(Config{URL: srv.URL}).Analyze(context.Background(), Request{Language: "it-IT"})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if res.Language != "it-IT" {
		t.Errorf("language = %q, want it-IT", res.Language)
	}
}

func TestClient_Analyze_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{
			name:   "http 500",
			status: http.StatusInternalServerError,
			body:   `{"text":"ignored"}`,
			check: func(t *testing.T, err error) {
				var httpErr *HTTPError
				if !errors.As(err, &httpErr) || httpErr.Status != 500 {
					t.Errorf("want HTTPError{500}, got %v", err)
				}
				if err.Error() != "Server error: 500" {
					t.Errorf("message = %q", err.Error())
				}
			},
		},
		{
			name:   "service error",
			status: http.StatusOK,
			body:   `{"error":"No text response generated"}`,
			check: func(t *testing.T, err error) {
				var svcErr *ServiceError
				if !errors.As(err, &svcErr) || svcErr.Message != "No text response generated" {
					t.Errorf("want ServiceError, got %v", err)
				}
			},
		},
		{
			name:   "empty body object",
			status: http.StatusOK,
			body:   `{}`,
			check: func(t *testing.T, err error) {
				if !errors.Is(err, ErrMalformedResponse) {
					t.Errorf("want ErrMalformedResponse, got %v", err)
				}
			},
		},
		{
			name:   "bad audio without text",
			status: http.StatusOK,
			body:   `{"audio":"!!not-base64!!"}`,
			check: func(t *testing.T, err error) {
				if !errors.Is(err, ErrMalformedResponse) {
					t.Errorf("want ErrMalformedResponse, got %v", err)
				}
			},
		},
		{
			name:   "invalid json",
			status: http.StatusOK,
			body:   `not json`,
			check: func(t *testing.T, err error) {
				if err == nil || errors.Is(err, ErrMalformedResponse) || IsHTTPError(err) {
					t.Errorf("want decode error, got %v", err)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, tt.status, tt.body, nil)
			defer srv.Close()

			_, err := NewClient(Config{URL: srv.URL}).Analyze(context.Background(), Request{})
			if err == nil {
				t.Fatal("Analyze() should fail")
			}
			tt.check(t, err)
		})
	}
}

func TestClient_Analyze_BadAudioWithText(t *testing.T) {
	srv := newTestServer(t, http.StatusOK, `{"audio":"!!not-base64!!","text":"A chair"}`, nil)
	defer srv.Close()

	res, err := NewClient(Config{URL: srv.URL}).Analyze(context.Background(), Request{})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if res.HasAudio() || res.Text != "A chair" {
		t.Errorf("want text-only result, got %+v", res)
	}
}

func TestClient_Analyze_TransportError(t *testing.T) {
	srv := newTestServer(t, http.StatusOK, `{}`, nil)
	url := srv.URL
	srv.Close()

	_, err := NewClient(Config{URL: url, Timeout: time.Second}).Analyze(context.Background(), Request{})
	if err == nil {
		t.Fatal("Analyze() against a closed server should fail")
	}
	if IsHTTPError(err) || IsServiceError(err) {
		t.Errorf("transport failure should not be typed as HTTP/service error: %v", err)
	}
}
