package language

import "strings"

// Language represents a supported description/speech language
type Language struct {
	Tag        string // BCP-47 tag (e.g., "en-US", "es-ES", "zh-CN")
	Name       string // English name (e.g., "English (US)")
	NativeName string // Native name (e.g., "English", "Español", "中文")
}

// Default is used when the user doesn't specify a language
var Default = Language{Tag: "en-US", Name: "English (US)", NativeName: "English"}

// languages is the master list of languages offered for descriptions,
// limited to tags that common speech engines ship voices for
var languages = []Language{
	{Tag: "ar-SA", Name: "Arabic", NativeName: "العربية"},
	{Tag: "bg-BG", Name: "Bulgarian", NativeName: "Български"},
	{Tag: "ca-ES", Name: "Catalan", NativeName: "Català"},
	{Tag: "cs-CZ", Name: "Czech", NativeName: "Čeština"},
	{Tag: "da-DK", Name: "Danish", NativeName: "Dansk"},
	{Tag: "de-DE", Name: "German", NativeName: "Deutsch"},
	{Tag: "el-GR", Name: "Greek", NativeName: "Ελληνικά"},
	{Tag: "en-GB", Name: "English (UK)", NativeName: "English"},
	{Tag: "en-US", Name: "English (US)", NativeName: "English"},
	{Tag: "es-ES", Name: "Spanish", NativeName: "Español"},
	{Tag: "es-MX", Name: "Spanish (Mexico)", NativeName: "Español"},
	{Tag: "fi-FI", Name: "Finnish", NativeName: "Suomi"},
	{Tag: "fr-FR", Name: "French", NativeName: "Français"},
	{Tag: "he-IL", Name: "Hebrew", NativeName: "עברית"},
	{Tag: "hi-IN", Name: "Hindi", NativeName: "हिन्दी"},
	{Tag: "hu-HU", Name: "Hungarian", NativeName: "Magyar"},
	{Tag: "id-ID", Name: "Indonesian", NativeName: "Bahasa Indonesia"},
	{Tag: "it-IT", Name: "Italian", NativeName: "Italiano"},
	{Tag: "ja-JP", Name: "Japanese", NativeName: "日本語"},
	{Tag: "kn-IN", Name: "Kannada", NativeName: "ಕನ್ನಡ"},
	{Tag: "ko-KR", Name: "Korean", NativeName: "한국어"},
	{Tag: "ml-IN", Name: "Malayalam", NativeName: "മലയാളം"},
	{Tag: "mr-IN", Name: "Marathi", NativeName: "मराठी"},
	{Tag: "nl-NL", Name: "Dutch", NativeName: "Nederlands"},
	{Tag: "no-NO", Name: "Norwegian", NativeName: "Norsk"},
	{Tag: "pl-PL", Name: "Polish", NativeName: "Polski"},
	{Tag: "pt-BR", Name: "Portuguese (Brazil)", NativeName: "Português"},
	{Tag: "pt-PT", Name: "Portuguese", NativeName: "Português"},
	{Tag: "ro-RO", Name: "Romanian", NativeName: "Română"},
	{Tag: "ru-RU", Name: "Russian", NativeName: "Русский"},
	{Tag: "sk-SK", Name: "Slovak", NativeName: "Slovenčina"},
	{Tag: "sv-SE", Name: "Swedish", NativeName: "Svenska"},
	{Tag: "ta-IN", Name: "Tamil", NativeName: "தமிழ்"},
	{Tag: "te-IN", Name: "Telugu", NativeName: "తెలుగు"},
	{Tag: "th-TH", Name: "Thai", NativeName: "ไทย"},
	{Tag: "tr-TR", Name: "Turkish", NativeName: "Türkçe"},
	{Tag: "uk-UA", Name: "Ukrainian", NativeName: "Українська"},
	{Tag: "vi-VN", Name: "Vietnamese", NativeName: "Tiếng Việt"},
	{Tag: "zh-CN", Name: "Chinese", NativeName: "中文"},
}

// tagIndex maps normalized tags to their Language structs for fast lookup
var tagIndex map[string]Language

func init() {
	tagIndex = make(map[string]Language, len(languages))
	for _, lang := range languages {
		tagIndex[Normalize(lang.Tag)] = lang
	}
}

// FromTag returns the Language for the given tag.
// Returns Default if tag is not found.
func FromTag(tag string) Language {
	if lang, ok := tagIndex[Normalize(tag)]; ok {
		return lang
	}
	return Default
}

// List returns all supported languages
func List() []Language {
	result := make([]Language, len(languages))
	copy(result, languages)
	return result
}

// Tags returns all language tags
func Tags() []string {
	tags := make([]string, len(languages))
	for i, lang := range languages {
		tags[i] = lang.Tag
	}
	return tags
}

// IsValidTag returns true if the tag is in the catalogue
func IsValidTag(tag string) bool {
	_, ok := tagIndex[Normalize(tag)]
	return ok
}

// Normalize lowercases a tag and uses '-' as the subtag separator,
// so "en_US", "en-us" and "EN-US" compare equal.
func Normalize(tag string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(tag), "_", "-"))
}

// Primary returns the primary language subtag ("en" for "en-US").
func Primary(tag string) string {
	n := Normalize(tag)
	if i := strings.IndexByte(n, '-'); i >= 0 {
		return n[:i]
	}
	return n
}

// Matches reports whether a voice tagged voiceTag can speak the requested language.
// Matching is by primary-subtag prefix: an "en-GB" voice matches "en-US".
func Matches(voiceTag, requested string) bool {
	if voiceTag == "" || requested == "" {
		return false
	}
	return Primary(voiceTag) == Primary(requested)
}

// Exact reports whether both tags are identical after normalization.
func Exact(voiceTag, requested string) bool {
	return voiceTag != "" && Normalize(voiceTag) == Normalize(requested)
}
