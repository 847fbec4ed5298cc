package backend

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/leonardotrapani/thirdeye/internal/analyze"
	"github.com/leonardotrapani/thirdeye/internal/language"
)

const (
	PathAnalyze     = "/analyze"
	PathFetchCamera = "/fetch-arduino-image"
	PathHealth      = "/health"
	PathMetrics     = "/metrics"

	maxRequestBytes = 20 << 20
)

type analyzeRequest struct {
	Image    string `json:"image"`
	Language string `json:"language"`
	Mode     string `json:"mode"`
}

type analyzeResponse struct {
	Audio    string `json:"audio,omitempty"`
	Text     string `json:"text"`
	Language string `json:"language"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type cameraResponse struct {
	Success bool   `json:"success"`
	Image   string `json:"image,omitempty"`
	Error   string `json:"error,omitempty"`
}

type healthResponse struct {
	Status   string `json:"status"`
	Provider string `json:"provider"`
	Model    string `json:"model"`
	Speech   bool   `json:"speech"`
	Camera   string `json:"camera"`
}

// Server is the describe service and camera proxy.
type Server struct {
	config    Config
	describer Describer
	speaker   Speaker
	camera    *CameraFetcher
	metrics   *Metrics
}

// New builds the provider clients from cfg and returns a ready server.
func New(ctx context.Context, cfg Config) (*Server, error) {
	describer, err := NewDescriber(ctx, cfg)
	if err != nil {
		return nil, err
	}
	speaker, err := NewSpeaker(cfg)
	if err != nil {
		return nil, err
	}
	return NewServer(cfg, describer, speaker), nil
}

// NewServer wires an existing describer; speaker may be nil.
func NewServer(cfg Config, describer Describer, speaker Speaker) *Server {
	return &Server{
		config:    cfg,
		describer: describer,
		speaker:   speaker,
		camera:    NewCameraFetcher(cfg.CameraURL, cfg.CameraTimeout),
		metrics:   NewMetrics(),
	}
}

func (s *Server) Metrics() *Metrics { return s.metrics }

// Handler returns the routed, CORS-enabled handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST "+PathAnalyze, s.metrics.instrument(PathAnalyze, s.handleAnalyze))
	mux.HandleFunc("GET "+PathFetchCamera, s.metrics.instrument(PathFetchCamera, s.handleFetchCamera))
	mux.HandleFunc("GET "+PathHealth, s.metrics.instrument(PathHealth, s.handleHealth))
	mux.Handle("GET "+PathMetrics, s.metrics.Handler())
	return withCORS(withRequestID(mux))
}

// Run serves on the configured listen address until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Listen)
	if err != nil {
		return fmt.Errorf("backend listen %s: %w", s.config.Listen, err)
	}
	return s.Serve(ctx, ln)
}

func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	log.Printf("Backend: listening on http://%s (provider=%s model=%s speech=%v)", ln.Addr(), s.config.Provider, s.config.Model, s.speaker != nil)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		log.Printf("Backend: shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("backend shutdown: %w", err)
		}
		<-errCh
		return nil
	}
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	requestID := w.Header().Get("X-Request-ID")

	var req analyzeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "No data provided"})
		return
	}
	if req.Image == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "No image data provided"})
		return
	}

	image, mime, err := decodeImage(req.Image)
	if err != nil {
		msg := "Invalid image data"
		if errors.Is(err, errEmptyImage) {
			msg = "No image data provided"
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg})
		return
	}

	mode, err := analyze.ParseMode(req.Mode)
	if err != nil {
		mode = analyze.ModeContinuous
	}
	lang := language.Normalize(req.Language)
	if lang == "" {
		lang = language.Default.Tag
	} else if language.IsValidTag(lang) {
		lang = language.FromTag(lang).Tag
	}

	ctx := r.Context()
	if s.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.Timeout)
		defer cancel()
	}

	s.metrics.inFlight.Inc()
	text, err := s.describer.Describe(ctx, DescribeRequest{
		Image:    image,
		MIMEType: mime,
		Language: lang,
		Mode:     mode,
	})
	s.metrics.inFlight.Dec()
	s.metrics.observeDescribe(s.config.Provider, string(mode), err)
	if err != nil {
		log.Printf("Backend: request %s describe failed: %v", requestID, err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	if text == "" {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: ErrNoDescription.Error()})
		return
	}

	resp := analyzeResponse{Text: text, Language: lang}
	if s.speaker != nil {
		audio, err := s.speaker.Synthesize(ctx, text)
		if err != nil {
			// text alone still lets the client speak locally
			log.Printf("Backend: request %s speech failed, returning text only: %v", requestID, err)
		} else {
			resp.Audio = base64.StdEncoding.EncodeToString(audio)
		}
	}

	log.Printf("Backend: request %s (%s, %s) -> %q", requestID, mode, lang, text)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleFetchCamera(w http.ResponseWriter, r *http.Request) {
	image, err := s.camera.Fetch(r.Context())
	s.metrics.observeCameraFetch(err)
	if err != nil {
		log.Printf("Backend: camera fetch failed: %v", err)
		writeJSON(w, http.StatusOK, cameraResponse{Success: false, Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, cameraResponse{Success: true, Image: image})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	camera := "unconfigured"
	if s.camera.URL() != "" {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		camera = "unavailable"
		if s.camera.Reachable(ctx) {
			camera = "available"
		}
	}
	writeJSON(w, http.StatusOK, healthResponse{
		Status:   "running",
		Provider: s.config.Provider,
		Model:    s.config.Model,
		Speech:   s.speaker != nil,
		Camera:   camera,
	})
}

var (
	errInvalidImage = errors.New("invalid image data")
	errEmptyImage   = errors.New("no image data provided")
)

// decodeImage accepts a data URL or bare base64 and returns the bytes
// with their MIME type.
func decodeImage(image string) ([]byte, string, error) {
	mime := "image/jpeg"
	payload := image
	if strings.HasPrefix(image, "data:") {
		comma := strings.IndexByte(image, ',')
		if comma < 0 {
			return nil, "", errInvalidImage
		}
		header := image[len("data:"):comma]
		if m, _, _ := strings.Cut(header, ";"); strings.HasPrefix(m, "image/") {
			mime = m
		}
		payload = image[comma+1:]
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", errInvalidImage, err)
	}
	if len(data) == 0 {
		return nil, "", errEmptyImage
	}
	return data, mime, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Backend: failed to write response: %v", err)
	}
}

func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r)
	})
}

// withCORS lets the browser frontend call the service from another origin.
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
