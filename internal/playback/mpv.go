package playback

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"
)

// MpvPlayer plays audio with mpv and changes speed live over mpv's JSON IPC socket.
type MpvPlayer struct {
	socketDir string
}

func NewMpvPlayer() *MpvPlayer {
	return &MpvPlayer{socketDir: os.TempDir()}
}

func (p *MpvPlayer) Name() string { return "mpv" }

func (p *MpvPlayer) Available() error {
	if _, err := exec.LookPath("mpv"); err != nil {
		return fmt.Errorf("mpv not found: %w (install mpv package)", err)
	}
	return nil
}

func (p *MpvPlayer) Play(ctx context.Context, path string, rate float64) (Rendition, error) {
	if err := p.Available(); err != nil {
		return nil, err
	}

	sock := filepath.Join(p.socketDir, fmt.Sprintf("thirdeye-mpv-%d-%d.sock", os.Getpid(), time.Now().UnixNano()))
	proc, err := startProcess(ctx, "mpv", nil, func(ctx context.Context) *exec.Cmd {
		return exec.CommandContext(ctx, "mpv",
			"--no-video",
			"--no-terminal",
			"--audio-pitch-correction=yes",
			"--speed="+formatRate(rate),
			"--input-ipc-server="+sock,
			path,
		)
	})
	if err != nil {
		return nil, fmt.Errorf("start mpv: %w", err)
	}
	return &mpvRendition{procRendition: proc, sock: sock}, nil
}

type mpvRendition struct {
	*procRendition
	sock string
}

type mpvCommand struct {
	Command []any `json:"command"`
}

type mpvReply struct {
	Error string `json:"error"`
}

// SetRate sends set_property speed to the running mpv instance.
// The socket appears shortly after start, so dialing is retried briefly.
func (r *mpvRendition) SetRate(rate float64) error {
	var conn net.Conn
	var err error
	for attempt := 0; attempt < 10; attempt++ {
		conn, err = net.DialTimeout("unix", r.sock, 200*time.Millisecond)
		if err == nil {
			break
		}
		select {
		case <-r.done:
			return ErrInterrupted
		case <-time.After(50 * time.Millisecond):
		}
	}
	if err != nil {
		return fmt.Errorf("mpv ipc not reachable at %s: %w", r.sock, err)
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(time.Second))

	payload, err := json.Marshal(mpvCommand{Command: []any{"set_property", "speed", rate}})
	if err != nil {
		return err
	}
	if _, err := conn.Write(append(payload, '\n')); err != nil {
		return fmt.Errorf("mpv ipc write: %w", err)
	}

	// mpv may interleave event lines; the reply is the line carrying "error".
	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		var reply mpvReply
		if err := json.Unmarshal(scanner.Bytes(), &reply); err != nil || reply.Error == "" {
			continue
		}
		if reply.Error != "success" {
			return fmt.Errorf("mpv set speed: %s", reply.Error)
		}
		return nil
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("mpv ipc read: %w", err)
	}
	return fmt.Errorf("mpv ipc closed without reply")
}

func (r *mpvRendition) Stop() {
	r.procRendition.Stop()
	_ = os.Remove(r.sock)
}

func (r *mpvRendition) Wait() error {
	err := r.procRendition.Wait()
	_ = os.Remove(r.sock)
	return err
}

// FfplayPlayer is a fallback player. Speed is fixed for the life of a rendition.
type FfplayPlayer struct{}

func NewFfplayPlayer() *FfplayPlayer { return &FfplayPlayer{} }

func (p *FfplayPlayer) Name() string { return "ffplay" }

func (p *FfplayPlayer) Available() error {
	if _, err := exec.LookPath("ffplay"); err != nil {
		return fmt.Errorf("ffplay not found: %w (install ffmpeg)", err)
	}
	return nil
}

func (p *FfplayPlayer) Play(ctx context.Context, path string, rate float64) (Rendition, error) {
	if err := p.Available(); err != nil {
		return nil, err
	}
	proc, err := startProcess(ctx, "ffplay", nil, func(ctx context.Context) *exec.Cmd {
		return exec.CommandContext(ctx, "ffplay",
			"-nodisp", "-autoexit", "-loglevel", "error",
			"-af", "atempo="+formatRate(clampAtempo(rate)),
			path,
		)
	})
	if err != nil {
		return nil, fmt.Errorf("start ffplay: %w", err)
	}
	return proc, nil
}

// atempo accepts 0.5-100 in one stage.
func clampAtempo(rate float64) float64 {
	if rate < 0.5 {
		return 0.5
	}
	return rate
}

func formatRate(rate float64) string {
	if rate <= 0 {
		rate = 1.0
	}
	return strconv.FormatFloat(rate, 'f', 2, 64)
}
