package tui

import (
	"strings"
	"testing"
	"time"

	"github.com/leonardotrapani/thirdeye/internal/analyze"
	"github.com/leonardotrapani/thirdeye/internal/camera"
	"github.com/leonardotrapani/thirdeye/internal/notify"
	"github.com/leonardotrapani/thirdeye/internal/pipeline"
	"github.com/leonardotrapani/thirdeye/internal/statusfeed"
)

func TestStateLabel(t *testing.T) {
	tests := []struct {
		state notify.State
		want  string
	}{
		{notify.RequestingPermission, "STARTING"},
		{notify.Active, "ACTIVE"},
		{notify.Error, "ERROR"},
		{"", "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := stateLabel(tt.state); got != tt.want {
				t.Errorf("stateLabel(%q) = %q, want %q", tt.state, got, tt.want)
			}
		})
	}
}

func TestRenderEvent(t *testing.T) {
	e := statusfeed.Event{
		State:   notify.Processing,
		Message: "Analyzing image...",
		Time:    time.Date(2025, 1, 2, 3, 4, 5, 0, time.Local),
	}
	got := RenderEvent(e)
	for _, want := range []string{"03:04:05", "PROCESSING", "Analyzing image..."} {
		if !strings.Contains(got, want) {
			t.Errorf("RenderEvent() = %q, missing %q", got, want)
		}
	}

	if got := RenderEvent(statusfeed.Event{State: notify.Idle, Message: "stopped"}); strings.Contains(got, ":") {
		t.Errorf("event without time should have no timestamp: %q", got)
	}
}

func TestRenderSnapshot(t *testing.T) {
	got := RenderSnapshot(pipeline.Snapshot{
		State:      notify.Active,
		Message:    "Camera active",
		Running:    true,
		Processing: true,
		Source:     camera.Remote,
		Mode:       analyze.ModeGuided,
		Language:   "es-ES",
		Rate:       1.5,
		Cadence:    pipeline.CadenceContinuous,
		Iterations: 4,
		Failures:   1,
	})

	for _, want := range []string{"ACTIVE", "Camera active", "yes (processing)", "remote", "navigation", "es-ES", "1.5x", "4 ok, 1 failed"} {
		if !strings.Contains(got, want) {
			t.Errorf("RenderSnapshot() missing %q in:\n%s", want, got)
		}
	}
}
