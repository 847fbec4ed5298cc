package deps

import (
	"context"
	"os/exec"
	"strings"
	"time"
)

// Status represents the installation status of a dependency
type Status struct {
	Installed bool
	Path      string
	Version   string
}

// Tool is an external program thirdeye can shell out to.
type Tool struct {
	Name        string
	VersionArgs []string
	Purpose     string
}

var (
	FFmpeg     = Tool{Name: "ffmpeg", VersionArgs: []string{"-version"}, Purpose: "local camera capture"}
	FFprobe    = Tool{Name: "ffprobe", VersionArgs: []string{"-version"}, Purpose: "camera resolution probing"}
	Mpv        = Tool{Name: "mpv", VersionArgs: []string{"--version"}, Purpose: "audio playback with live speed changes"}
	Ffplay     = Tool{Name: "ffplay", VersionArgs: []string{"-version"}, Purpose: "audio playback"}
	EspeakNG   = Tool{Name: "espeak-ng", VersionArgs: []string{"--version"}, Purpose: "local text-to-speech"}
	NotifySend = Tool{Name: "notify-send", VersionArgs: []string{"--version"}, Purpose: "desktop notifications"}
)

// versionTimeout bounds a single --version probe.
const versionTimeout = 3 * time.Second

// Check looks the tool up in PATH and reads the first line of its version output
func Check(tool Tool) Status {
	path, err := exec.LookPath(tool.Name)
	if err != nil {
		return Status{Installed: false}
	}

	status := Status{
		Installed: true,
		Path:      path,
	}

	ctx, cancel := context.WithTimeout(context.Background(), versionTimeout)
	defer cancel()

	output, err := exec.CommandContext(ctx, path, tool.VersionArgs...).Output()
	if err == nil {
		status.Version = firstLine(string(output))
	}

	return status
}

// CheckFFmpeg checks if ffmpeg is installed and returns its status
func CheckFFmpeg() Status {
	return Check(FFmpeg)
}

// ToolFor maps a configured program name to its catalogue entry. Unknown
// names get a tool with a --version probe.
func ToolFor(name string) Tool {
	for _, t := range []Tool{FFmpeg, FFprobe, Mpv, Ffplay, EspeakNG, NotifySend} {
		if t.Name == name {
			return t
		}
	}
	return Tool{Name: name, VersionArgs: []string{"--version"}}
}

// Required lists the tools a daemon with the given settings will run.
// Empty names and "none" are skipped.
func Required(audioPlayer, speechEngine string, desktopNotifications bool) []Tool {
	tools := []Tool{FFmpeg, FFprobe}
	if audioPlayer != "" {
		tools = append(tools, ToolFor(audioPlayer))
	}
	if speechEngine != "" && speechEngine != "none" {
		tools = append(tools, ToolFor(speechEngine))
	}
	if desktopNotifications {
		tools = append(tools, NotifySend)
	}
	return tools
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return strings.TrimSpace(line)
}
