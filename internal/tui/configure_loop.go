package tui

import (
	"github.com/charmbracelet/huh"
	"github.com/leonardotrapani/thirdeye/internal/config"
)

// editLoop handles source, mode and cadence of the capture loop
func editLoop(cfg *config.Config) error {
	source := cfg.Loop.Source
	mode := cfg.Loop.Mode
	cadence := cfg.Loop.Cadence
	interval := cfg.Loop.Interval.String()
	analyzeURL := cfg.Analyze.URL
	proxyURL := cfg.Proxy.URL

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Camera Source").
				Description("Where frames come from").
				Options(
					huh.NewOption("This machine's camera", "local"),
					huh.NewOption("Remote camera through the proxy endpoint", "remote"),
				).
				Value(&source),
			huh.NewSelect[string]().
				Title("Description Mode").
				Options(
					huh.NewOption("Live - describe the scene", "live"),
					huh.NewOption("Navigation - obstacles and directions", "navigation"),
				).
				Value(&mode),
			huh.NewSelect[string]().
				Title("Cadence").
				Description("When the next frame is captured").
				Options(
					huh.NewOption("Continuous - right after the description is spoken", "continuous"),
					huh.NewOption("Interval - on a fixed timer", "interval"),
				).
				Value(&cadence),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Capture Interval").
				Description("Used with interval cadence").
				Placeholder("1.5s").
				Value(&interval).
				Validate(validateDuration),
		).WithHideFunc(func() bool { return cadence != "interval" }),
		huh.NewGroup(
			huh.NewInput().
				Title("Description Service URL").
				Description("POST endpoint that turns a frame into a description").
				Value(&analyzeURL),
			huh.NewInput().
				Title("Camera Proxy URL").
				Description("GET endpoint returning the remote camera's latest frame").
				Value(&proxyURL),
		),
	).WithTheme(getTheme())

	if err := form.Run(); err != nil {
		return err
	}

	cfg.Loop.Source = source
	cfg.Loop.Mode = mode
	cfg.Loop.Cadence = cadence
	cfg.Loop.Interval = parseDurationOr(interval, cfg.Loop.Interval)
	cfg.Analyze.URL = analyzeURL
	cfg.Proxy.URL = proxyURL
	return nil
}
