package tui

import (
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/leonardotrapani/thirdeye/internal/config"
	"github.com/leonardotrapani/thirdeye/internal/language"
)

// getLanguageOptions lists every supported language, current one first
func getLanguageOptions(current string) []huh.Option[string] {
	var options []huh.Option[string]
	for _, lang := range language.List() {
		label := fmt.Sprintf("%s - %s (%s)", lang.Name, lang.NativeName, lang.Tag)
		opt := huh.NewOption(label, lang.Tag)
		if language.Exact(lang.Tag, current) {
			options = append([]huh.Option[string]{opt}, options...)
			continue
		}
		options = append(options, opt)
	}
	return options
}

// editLanguage selects the language descriptions are requested and spoken in
func editLanguage(cfg *config.Config) error {
	selected := cfg.Loop.Language
	if language.IsValidTag(selected) {
		selected = language.FromTag(selected).Tag
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Language").
				Description("Descriptions are requested and spoken in this language").
				Options(getLanguageOptions(selected)...).
				Filtering(true).
				Value(&selected),
		),
	).WithTheme(getTheme())

	if err := form.Run(); err != nil {
		return err
	}

	cfg.Loop.Language = selected
	return nil
}
