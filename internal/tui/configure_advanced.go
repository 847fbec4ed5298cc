package tui

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/leonardotrapani/thirdeye/internal/config"
)

// AdvancedSection represents a section in the advanced settings menu
type AdvancedSection string

const (
	AdvancedCamera   AdvancedSection = "camera"
	AdvancedTimeouts AdvancedSection = "timeouts"
	AdvancedStatus   AdvancedSection = "status"
	AdvancedBack     AdvancedSection = "back"
)

// editAdvanced handles the advanced settings submenu
func editAdvanced(cfg *config.Config) error {
	for {
		options := []huh.Option[AdvancedSection]{
			huh.NewOption(formatAdvancedCameraLabel(cfg), AdvancedCamera),
			huh.NewOption(formatAdvancedTimeoutsLabel(cfg), AdvancedTimeouts),
			huh.NewOption(formatAdvancedStatusLabel(cfg), AdvancedStatus),
			huh.NewOption("Back to Main Menu", AdvancedBack),
		}

		var selected AdvancedSection
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewSelect[AdvancedSection]().
					Title("Advanced Settings").
					Description("Configure low-level options").
					Options(options...).
					Value(&selected),
			),
		).WithTheme(getTheme())

		if err := form.Run(); err != nil {
			return err
		}

		switch selected {
		case AdvancedBack:
			return nil
		case AdvancedCamera:
			if err := editCamera(cfg); err != nil {
				continue
			}
		case AdvancedTimeouts:
			if err := editTimeouts(cfg); err != nil {
				continue
			}
		case AdvancedStatus:
			if err := editStatusFeed(cfg); err != nil {
				continue
			}
		}
	}
}

func formatAdvancedCameraLabel(cfg *config.Config) string {
	return fmt.Sprintf("Local Camera (rear=%s, front=%s, quality=%d)", cfg.Camera.RearDevice, cfg.Camera.FrontDevice, cfg.Camera.Quality)
}

func formatAdvancedTimeoutsLabel(cfg *config.Config) string {
	return fmt.Sprintf("Timeouts (analyze=%s, proxy=%s, backoff=%s)", cfg.Analyze.Timeout, cfg.Proxy.Timeout, cfg.Loop.Backoff)
}

func formatAdvancedStatusLabel(cfg *config.Config) string {
	if cfg.General.StatusAddr == "" {
		return "Status Feed (disabled)"
	}
	return fmt.Sprintf("Status Feed (%s)", cfg.General.StatusAddr)
}

// editCamera handles local capture device settings
func editCamera(cfg *config.Config) error {
	rear := cfg.Camera.RearDevice
	front := cfg.Camera.FrontDevice
	width := strconv.Itoa(cfg.Camera.Width)
	height := strconv.Itoa(cfg.Camera.Height)
	quality := strconv.Itoa(cfg.Camera.Quality)
	warmup := cfg.Camera.WarmupTimeout.String()

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Rear Camera Device").
				Description("Tried first").
				Placeholder("/dev/video2").
				Value(&rear),
			huh.NewInput().
				Title("Front Camera Device").
				Description("Tried when the rear camera cannot be opened").
				Placeholder("/dev/video0").
				Value(&front),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Width").
				Description("0 keeps the device's native resolution").
				Value(&width).
				Validate(validateInt(0, 8192)),
			huh.NewInput().
				Title("Height").
				Value(&height).
				Validate(validateInt(0, 8192)),
			huh.NewInput().
				Title("JPEG Quality").
				Description("1-100").
				Value(&quality).
				Validate(validateInt(1, 100)),
			huh.NewInput().
				Title("Warmup Timeout").
				Description("Time allowed for the first frame").
				Value(&warmup).
				Validate(validateDuration),
		),
	).WithTheme(getTheme())

	if err := form.Run(); err != nil {
		return err
	}

	cfg.Camera.RearDevice = rear
	cfg.Camera.FrontDevice = front
	cfg.Camera.Width = parseIntOr(width, cfg.Camera.Width)
	cfg.Camera.Height = parseIntOr(height, cfg.Camera.Height)
	cfg.Camera.Quality = parseIntOr(quality, cfg.Camera.Quality)
	cfg.Camera.WarmupTimeout = parseDurationOr(warmup, cfg.Camera.WarmupTimeout)
	return nil
}

// editTimeouts handles network timeouts and the error backoff
func editTimeouts(cfg *config.Config) error {
	analyzeTimeout := cfg.Analyze.Timeout.String()
	proxyTimeout := cfg.Proxy.Timeout.String()
	backoff := cfg.Loop.Backoff.String()

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Description Timeout").
				Value(&analyzeTimeout).
				Validate(validateDuration),
			huh.NewInput().
				Title("Camera Proxy Timeout").
				Value(&proxyTimeout).
				Validate(validateDuration),
			huh.NewInput().
				Title("Error Backoff").
				Description("Wait after a failed cycle before trying again").
				Value(&backoff).
				Validate(validateDuration),
		),
	).WithTheme(getTheme())

	if err := form.Run(); err != nil {
		return err
	}

	cfg.Analyze.Timeout = parseDurationOr(analyzeTimeout, cfg.Analyze.Timeout)
	cfg.Proxy.Timeout = parseDurationOr(proxyTimeout, cfg.Proxy.Timeout)
	cfg.Loop.Backoff = parseDurationOr(backoff, cfg.Loop.Backoff)
	return nil
}

func editStatusFeed(cfg *config.Config) error {
	addr := cfg.General.StatusAddr

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Status Feed Address").
				Description("host:port for 'thirdeye watch'; empty disables the feed").
				Placeholder("127.0.0.1:7531").
				Value(&addr),
		),
	).WithTheme(getTheme())

	if err := form.Run(); err != nil {
		return err
	}

	cfg.General.StatusAddr = addr
	return nil
}
