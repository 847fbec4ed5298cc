package language

import "testing"

func TestFromTag(t *testing.T) {
	tests := []struct {
		tag      string
		wantTag  string
		wantName string
	}{
		{"en-US", "en-US", "English (US)"},
		{"es-ES", "es-ES", "Spanish"},
		{"zh_cn", "zh-CN", "Chinese"},
		{"invalid", "en-US", "English (US)"},
		{"", "en-US", "English (US)"},
	}

	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			got := FromTag(tt.tag)
			if got.Tag != tt.wantTag {
				t.Errorf("FromTag(%q).Tag = %q, want %q", tt.tag, got.Tag, tt.wantTag)
			}
			if got.Name != tt.wantName {
				t.Errorf("FromTag(%q).Name = %q, want %q", tt.tag, got.Name, tt.wantName)
			}
		})
	}
}

func TestIsValidTag(t *testing.T) {
	tests := []struct {
		tag  string
		want bool
	}{
		{"en-US", true},
		{"en-us", true},
		{"pt_BR", true},
		{"en", false},
		{"", false},
		{"xx-YY", false},
	}

	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			if got := IsValidTag(tt.tag); got != tt.want {
				t.Errorf("IsValidTag(%q) = %v, want %v", tt.tag, got, tt.want)
			}
		})
	}
}

func TestPrimary(t *testing.T) {
	tests := map[string]string{
		"en-US": "en",
		"en_gb": "en",
		"fr":    "fr",
		"":      "",
		" DE ":  "de",
	}
	for in, want := range tests {
		if got := Primary(in); got != want {
			t.Errorf("Primary(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMatches(t *testing.T) {
	tests := []struct {
		voice     string
		requested string
		want      bool
	}{
		{"en-us", "en-US", true},
		{"en-gb", "en-US", true},
		{"en", "en-US", true},
		{"es", "en-US", false},
		{"", "en-US", false},
		{"en-us", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.voice+"/"+tt.requested, func(t *testing.T) {
			if got := Matches(tt.voice, tt.requested); got != tt.want {
				t.Errorf("Matches(%q, %q) = %v, want %v", tt.voice, tt.requested, got, tt.want)
			}
		})
	}
}

func TestExact(t *testing.T) {
	if !Exact("en-us", "en-US") {
		t.Error("en-us should exactly match en-US")
	}
	if Exact("en-gb", "en-US") {
		t.Error("en-gb should not exactly match en-US")
	}
	if Exact("", "") {
		t.Error("empty tags should not match")
	}
}

func TestListAndTags(t *testing.T) {
	list := List()
	tags := Tags()
	if len(list) != len(tags) {
		t.Fatalf("List() and Tags() lengths differ: %d vs %d", len(list), len(tags))
	}
	if len(list) == 0 {
		t.Fatal("catalogue should not be empty")
	}

	list[0].Tag = "mutated"
	if List()[0].Tag == "mutated" {
		t.Error("List() should return a copy")
	}
}
