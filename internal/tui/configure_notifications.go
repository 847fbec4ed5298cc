package tui

import (
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/leonardotrapani/thirdeye/internal/config"
	"github.com/leonardotrapani/thirdeye/internal/notify"
)

// editNotifications handles the notifications section edit with type and custom messages
func editNotifications(cfg *config.Config) error {
	enabled := cfg.Notifications.Enabled

	desc := "Show notifications for camera status changes"
	if cfg.Notifications.Enabled {
		desc = fmt.Sprintf("Currently: enabled (%s). %s", cfg.Notifications.Type, desc)
	} else {
		desc = "Currently: disabled. " + desc
	}

	enableForm := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Enable notifications?").
				Description(desc).
				Value(&enabled),
		),
	).WithTheme(getTheme())

	if err := enableForm.Run(); err != nil {
		return err
	}

	cfg.Notifications.Enabled = enabled

	if !enabled {
		return nil
	}

	notifType := cfg.Notifications.Type
	if notifType == "" {
		notifType = "desktop"
	}

	typeOptions := []huh.Option[string]{
		huh.NewOption("Desktop notifications (notify-send)", "desktop"),
		huh.NewOption("Log to console only", "log"),
		huh.NewOption("None (silent)", "none"),
	}

	typeForm := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Notification Type").
				Description("How should status changes be shown?").
				Options(typeOptions...).
				Value(&notifType),
		),
	).WithTheme(getTheme())

	if err := typeForm.Run(); err != nil {
		return err
	}

	cfg.Notifications.Type = notifType

	if confirm("Customize status messages?", "Yes", "No, use defaults") {
		return editNotificationMessages(cfg)
	}
	return nil
}

// messageLabel shows the text a status message currently resolves to
func messageLabel(cfg *config.Config, def notify.MessageDef) string {
	text := cfg.Notifications.Messages.Get(def.ConfigKey)
	if text == "" {
		text = def.DefaultText
	}
	return fmt.Sprintf("%s: %q", def.ConfigKey, text)
}

// editNotificationMessages allows editing individual status messages
func editNotificationMessages(cfg *config.Config) error {
	for {
		var options []huh.Option[string]
		for _, def := range notify.MessageDefs {
			options = append(options, huh.NewOption(messageLabel(cfg, def), def.ConfigKey))
		}
		options = append(options, huh.NewOption("Done", "back"))

		var selected string
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewSelect[string]().
					Title("Status Messages").
					Description("Select a message to edit; empty text restores the default").
					Options(options...).
					Value(&selected),
			),
		).WithTheme(getTheme())

		if err := form.Run(); err != nil {
			return err
		}
		if selected == "back" {
			return nil
		}

		var def notify.MessageDef
		for _, d := range notify.MessageDefs {
			if d.ConfigKey == selected {
				def = d
			}
		}

		text := cfg.Notifications.Messages.Get(selected)
		input := huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title(selected).
					Description("Default: " + def.DefaultText).
					Placeholder(def.DefaultText).
					Value(&text),
			),
		).WithTheme(getTheme())

		if err := input.Run(); err != nil {
			continue
		}
		cfg.Notifications.Messages.Set(selected, text)
	}
}
