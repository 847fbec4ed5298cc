package camera

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Facing is a capture constraint, tried in order when acquiring the camera.
type Facing string

const (
	FacingRear  Facing = "environment"
	FacingFront Facing = "user"
	FacingAny   Facing = ""
)

// LocalSource captures from a V4L2 device through an ffmpeg child process
// that streams raw rgb24 frames on stdout. The newest frame is kept.
type LocalSource struct {
	config LocalConfig

	// overridable for tests
	buildCmd    func(ctx context.Context, device string, width, height int) *exec.Cmd
	probe       func(ctx context.Context, device string) (int, int, error)
	listDevices func() []string

	mu      sync.Mutex // guards everything below
	cmd     *exec.Cmd
	cancel  context.CancelFunc
	device  string
	facing  Facing
	width   int
	height  int
	frame   []byte
	seq     uint64
	exitErr error
	lost    bool   // the stream died and has not been reacquired
	epoch   uint64 // bumped by Close

	reopenMu sync.Mutex
	wg       sync.WaitGroup
}

func NewLocalSource(config LocalConfig) *LocalSource {
	return &LocalSource{
		config:      config,
		buildCmd:    ffmpegCmd,
		probe:       ffprobeResolution,
		listDevices: videoDevices,
	}
}

func (s *LocalSource) Kind() Kind { return Local }

// Device returns the device path and facing constraint that was acquired.
func (s *LocalSource) Device() (string, Facing) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.device, s.facing
}

// Open tries the rear camera, then the front camera, then any camera.
func (s *LocalSource) Open(ctx context.Context) error {
	s.mu.Lock()
	opened := s.cmd != nil
	s.mu.Unlock()
	if opened {
		return nil
	}

	var lastErr error
	for _, facing := range []Facing{FacingRear, FacingFront, FacingAny} {
		device := s.resolveDevice(facing)
		if device == "" {
			continue
		}
		err := s.openDevice(ctx, device, facing)
		if err == nil {
			log.Printf("Camera: acquired %s (facing=%q) at %dx%d", device, facing, s.width, s.height)
			return nil
		}
		lastErr = err
		switch facing {
		case FacingRear:
			log.Printf("Camera: rear camera not available (%v), trying front camera...", err)
		case FacingFront:
			log.Printf("Camera: front camera not available (%v), trying default...", err)
		default:
			log.Printf("Camera: default camera not available: %v", err)
		}
	}

	if lastErr == nil {
		lastErr = errors.New("no video devices found")
	}
	return fmt.Errorf("%w: %v", ErrSourceUnavailable, lastErr)
}

func (s *LocalSource) resolveDevice(facing Facing) string {
	switch facing {
	case FacingRear:
		return s.config.RearDevice
	case FacingFront:
		return s.config.FrontDevice
	default:
		devices := s.listDevices()
		if len(devices) == 0 {
			return ""
		}
		return devices[0]
	}
}

func (s *LocalSource) openDevice(ctx context.Context, device string, facing Facing) error {
	width, height := s.config.Width, s.config.Height
	if width <= 0 || height <= 0 {
		w, h, err := s.probe(ctx, device)
		if err != nil {
			return fmt.Errorf("probe %s: %w", device, err)
		}
		width, height = w, h
	}

	streamCtx, cancel := context.WithCancel(ctx)
	cmd := s.buildCmd(streamCtx, device, width, height)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return fmt.Errorf("create stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		cancel()
		return fmt.Errorf("create stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		cancel()
		return fmt.Errorf("start %s: %w", filepath.Base(cmd.Path), err)
	}

	// Log stderr lines to aid diagnostics.
	go func() {
		scanner := bufio.NewScanner(stderr)
		for scanner.Scan() {
			log.Printf("Camera stderr: %s", scanner.Text())
		}
	}()

	done := make(chan struct{})
	first := make(chan struct{})

	s.mu.Lock()
	s.cmd = cmd
	s.cancel = cancel
	s.device = device
	s.facing = facing
	s.width = width
	s.height = height
	s.frame = nil
	s.seq = 0
	s.exitErr = nil
	s.lost = false
	s.wg.Add(1)
	s.mu.Unlock()

	go s.captureLoop(stdout, width*height*3, first, done)

	warmup := s.config.WarmupTimeout
	if warmup <= 0 {
		warmup = 5 * time.Second
	}
	timer := time.NewTimer(warmup)
	defer timer.Stop()

	select {
	case <-first:
		return nil
	case <-done:
		s.mu.Lock()
		exitErr := s.exitErr
		s.mu.Unlock()
		s.release()
		if exitErr == nil {
			exitErr = errors.New("stream ended before first frame")
		}
		return exitErr
	case <-timer.C:
		s.release()
		return fmt.Errorf("no frame within %v", warmup)
	case <-ctx.Done():
		s.release()
		return ctx.Err()
	}
}

func (s *LocalSource) captureLoop(stdout io.Reader, frameSize int, first, done chan struct{}) {
	defer func() {
		close(done)
		s.wg.Done()
	}()

	var once sync.Once
	buffer := make([]byte, frameSize)
	for {
		if _, err := io.ReadFull(stdout, buffer); err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
				err = fmt.Errorf("read frame: %w", err)
			} else {
				err = errors.New("camera stream closed")
			}
			s.mu.Lock()
			s.exitErr = err
			s.mu.Unlock()
			return
		}

		frame := make([]byte, frameSize)
		copy(frame, buffer)

		s.mu.Lock()
		s.frame = frame
		s.seq++
		s.mu.Unlock()

		once.Do(func() { close(first) })
	}
}

// FrameCount returns how many frames the current stream has delivered.
func (s *LocalSource) FrameCount() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq
}

// Capture encodes the newest frame at the stream's native resolution. If
// the ffmpeg process has exited, the same device is reopened first.
func (s *LocalSource) Capture(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.Lock()
	if (s.cmd != nil && s.exitErr != nil) || (s.cmd == nil && s.lost) {
		exitErr, lost := s.exitErr, s.lost
		s.mu.Unlock()
		if !lost {
			log.Printf("Camera: stream exited (%v), reopening", exitErr)
		}
		if err := s.reopen(ctx); err != nil {
			return "", fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
		}
		s.mu.Lock()
	}
	if s.cmd == nil {
		s.mu.Unlock()
		return "", fmt.Errorf("%w: camera not open", ErrSourceUnavailable)
	}
	if s.exitErr != nil {
		err := s.exitErr
		s.mu.Unlock()
		return "", fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	frame, width, height := s.frame, s.width, s.height
	s.mu.Unlock()

	if frame == nil {
		return "", fmt.Errorf("%w: no frame available", ErrSourceUnavailable)
	}

	img, err := rgbToImage(frame, width, height)
	if err != nil {
		return "", err
	}
	return encodeDataURL(img, s.config.Quality)
}

// reopen replaces a dead stream with a new one on the device and facing
// that were acquired by Open.
func (s *LocalSource) reopen(ctx context.Context) error {
	s.reopenMu.Lock()
	defer s.reopenMu.Unlock()

	s.mu.Lock()
	epoch, device, facing := s.epoch, s.device, s.facing
	alive := s.cmd != nil && s.exitErr == nil
	s.mu.Unlock()
	if alive {
		return nil
	}

	s.release()
	// The stream outlives this capture; Close cancels it.
	err := s.openDevice(context.WithoutCancel(ctx), device, facing)

	s.mu.Lock()
	closed := s.epoch != epoch
	if err != nil && !closed {
		s.lost = true
	}
	s.mu.Unlock()

	if closed {
		s.release()
		return errors.New("camera closed")
	}
	if err != nil {
		log.Printf("Camera: failed to reopen %s: %v", device, err)
		return err
	}
	log.Printf("Camera: reopened %s (facing=%q)", device, facing)
	return nil
}

// Close stops the child process and reaps it.
func (s *LocalSource) Close() error {
	s.mu.Lock()
	s.epoch++
	s.lost = false
	s.mu.Unlock()
	return s.release()
}

func (s *LocalSource) release() error {
	s.mu.Lock()
	cancel := s.cancel
	cmd := s.cmd
	device := s.device
	s.cancel = nil
	s.cmd = nil
	s.frame = nil
	s.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	s.wg.Wait()
	if cmd != nil {
		_ = cmd.Wait()
	}
	log.Printf("Camera: released %s", device)
	return nil
}

func ffmpegCmd(ctx context.Context, device string, width, height int) *exec.Cmd {
	args := []string{
		"-hide_banner", "-loglevel", "error",
		"-f", "v4l2",
		"-video_size", fmt.Sprintf("%dx%d", width, height),
		"-i", device,
		"-f", "rawvideo",
		"-pix_fmt", "rgb24",
		"-", // stdout
	}
	return exec.CommandContext(ctx, "ffmpeg", args...)
}

func ffprobeResolution(ctx context.Context, device string) (int, int, error) {
	if _, err := exec.LookPath("ffprobe"); err != nil {
		return 0, 0, fmt.Errorf("ffprobe not found: %w (install ffmpeg)", err)
	}
	// Use a short timeout to avoid hangs on misconfigured devices.
	probeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	out, err := exec.CommandContext(probeCtx, "ffprobe",
		"-v", "error",
		"-f", "v4l2",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height",
		"-of", "csv=p=0:s=x",
		device,
	).Output()
	if err != nil {
		return 0, 0, err
	}
	return parseResolution(string(out))
}

// parseResolution parses "1280x720" as printed by ffprobe.
func parseResolution(s string) (int, int, error) {
	line := strings.TrimSpace(strings.SplitN(strings.TrimSpace(s), "\n", 2)[0])
	parts := strings.Split(line, "x")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("unexpected resolution %q", line)
	}
	w, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid width %q: %w", parts[0], err)
	}
	h, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid height %q: %w", parts[1], err)
	}
	if w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("invalid resolution %dx%d", w, h)
	}
	return w, h, nil
}

func videoDevices() []string {
	devices, _ := filepath.Glob("/dev/video*")
	sort.Strings(devices)
	return devices
}
