package tui

import (
	"github.com/charmbracelet/huh"
	"github.com/leonardotrapani/thirdeye/internal/config"
	"github.com/leonardotrapani/thirdeye/internal/deps"
)

func playerOption(name, label string) huh.Option[string] {
	if !deps.Check(deps.ToolFor(name)).Installed {
		label += " [not installed]"
	}
	return huh.NewOption(label, name)
}

// editPlayback handles speech and audio playback settings
func editPlayback(cfg *config.Config) error {
	player := cfg.Playback.AudioPlayer
	engine := cfg.Playback.SpeechEngine
	rate := formatFloat(cfg.Playback.Rate)
	pitch := formatFloat(cfg.Playback.Pitch)
	volume := formatFloat(cfg.Playback.Volume)

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Audio Player").
				Description("Plays audio returned by the description service").
				Options(
					playerOption("mpv", "mpv - speed changes apply while playing"),
					playerOption("ffplay", "ffplay"),
				).
				Value(&player),
			huh.NewSelect[string]().
				Title("Speech Engine").
				Description("Speaks descriptions that arrive without audio").
				Options(
					playerOption("espeak-ng", "espeak-ng"),
					playerOption("espeak", "espeak"),
					huh.NewOption("None - text only", "none"),
				).
				Value(&engine),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Speed").
				Description("Playback rate multiplier (0.25 - 4)").
				Placeholder("1.0").
				Value(&rate).
				Validate(validateFloat(0.25, 4)),
			huh.NewInput().
				Title("Pitch").
				Description("Local speech only (0 - 2)").
				Placeholder("1.0").
				Value(&pitch).
				Validate(validateFloat(0, 2)),
			huh.NewInput().
				Title("Volume").
				Description("Local speech only (0 - 1)").
				Placeholder("1.0").
				Value(&volume).
				Validate(validateFloat(0, 1)),
		),
	).WithTheme(getTheme())

	if err := form.Run(); err != nil {
		return err
	}

	cfg.Playback.AudioPlayer = player
	cfg.Playback.SpeechEngine = engine
	cfg.Playback.Rate = parseFloatOr(rate, cfg.Playback.Rate)
	cfg.Playback.Pitch = parseFloatOr(pitch, cfg.Playback.Pitch)
	cfg.Playback.Volume = parseFloatOr(volume, cfg.Playback.Volume)
	return nil
}
