package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/leonardotrapani/thirdeye/internal/notify"
	"github.com/leonardotrapani/thirdeye/internal/pipeline"
	"github.com/leonardotrapani/thirdeye/internal/statusfeed"
)

// StateStyle colours a state the way the status line shows it.
func StateStyle(state notify.State) lipgloss.Style {
	switch state {
	case notify.Active:
		return StyleSuccess
	case notify.Processing, notify.RequestingPermission:
		return StyleHighlight
	case notify.Error:
		return StyleError
	default:
		return StyleMuted
	}
}

func stateLabel(state notify.State) string {
	switch state {
	case notify.RequestingPermission:
		return "STARTING"
	case "":
		return "UNKNOWN"
	default:
		return strings.ToUpper(string(state))
	}
}

// RenderEvent formats one status feed event as a single line.
func RenderEvent(e statusfeed.Event) string {
	ts := ""
	if !e.Time.IsZero() {
		ts = StyleSubtle.Render(e.Time.Local().Format("15:04:05")) + " "
	}
	label := StateStyle(e.State).Render(fmt.Sprintf("%-10s", stateLabel(e.State)))
	return ts + label + " " + e.Message
}

// RenderSnapshot formats the daemon status for `thirdeye status`.
func RenderSnapshot(s pipeline.Snapshot) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s %s\n", StateStyle(s.State).Render(stateLabel(s.State)), s.Message)
	row := func(label, value string) {
		fmt.Fprintf(&b, "%s %s\n", StyleLabel.Render(fmt.Sprintf("%-10s", label)), value)
	}
	running := "no"
	if s.Running {
		running = "yes"
		if s.Processing {
			running = "yes (processing)"
		}
	}
	row("Running:", running)
	row("Source:", string(s.Source))
	row("Mode:", string(s.Mode))
	row("Language:", s.Language)
	row("Speed:", fmt.Sprintf("%.2gx", s.Rate))
	row("Cadence:", string(s.Cadence))
	row("Cycles:", fmt.Sprintf("%d ok, %d failed", s.Iterations, s.Failures))

	return StyleBox.Render(strings.TrimRight(b.String(), "\n"))
}
