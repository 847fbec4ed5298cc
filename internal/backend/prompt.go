package backend

import (
	"fmt"
	"strings"

	"github.com/leonardotrapani/thirdeye/internal/analyze"
	"github.com/leonardotrapani/thirdeye/internal/language"
)

const (
	livePrompt       = "Describe this image concisely, in a single sentence, for a screen reader or visually impaired user."
	navigationPrompt = "You are guiding a visually impaired person who is walking. In one or two short sentences, " +
		"name the obstacles directly ahead and say which way is clear (left, right or straight ahead). " +
		"Mention steps, doors and people when present."
)

// BuildPrompt generates the instruction sent alongside the image
func BuildPrompt(mode analyze.Mode, tag string) string {
	var sb strings.Builder
	if mode == analyze.ModeGuided {
		sb.WriteString(navigationPrompt)
	} else {
		sb.WriteString(livePrompt)
	}

	if name := promptLanguage(tag); name != "" {
		fmt.Fprintf(&sb, " Respond only in %s.", name)
	}
	sb.WriteString(" Output ONLY the description, with no preamble.")
	return sb.String()
}

// promptLanguage is empty for English, which is what models answer in anyway.
func promptLanguage(tag string) string {
	tag = strings.TrimSpace(tag)
	if tag == "" || language.Primary(tag) == "en" {
		return ""
	}
	if language.IsValidTag(tag) {
		return language.FromTag(tag).Name
	}
	return tag
}

// cleanDescription trims whitespace and surrounding quotes some models add.
func cleanDescription(text string) string {
	text = strings.TrimSpace(text)
	if len(text) >= 2 && text[0] == '"' && text[len(text)-1] == '"' {
		text = strings.TrimSpace(text[1 : len(text)-1])
	}
	return text
}
