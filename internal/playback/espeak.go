package playback

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// baseWordsPerMinute is espeak's default speaking rate, used for Rate 1.0.
const baseWordsPerMinute = 175

// EspeakSynthesizer speaks through espeak-ng (or classic espeak).
type EspeakSynthesizer struct {
	binary string
}

func NewEspeakSynthesizer(binary string) *EspeakSynthesizer {
	return &EspeakSynthesizer{binary: binary}
}

func (s *EspeakSynthesizer) Name() string { return s.binary }

func (s *EspeakSynthesizer) Available() error {
	if _, err := exec.LookPath(s.binary); err != nil {
		return fmt.Errorf("%s not found: %w (install %s package)", s.binary, err, s.binary)
	}
	return nil
}

func (s *EspeakSynthesizer) Voices(ctx context.Context) ([]Voice, error) {
	if err := s.Available(); err != nil {
		return nil, err
	}
	listCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	out, err := exec.CommandContext(listCtx, s.binary, "--voices").Output()
	if err != nil {
		return nil, fmt.Errorf("list voices: %w", err)
	}
	return parseEspeakVoices(string(out)), nil
}

func (s *EspeakSynthesizer) Speak(ctx context.Context, u Utterance) (Rendition, error) {
	if err := s.Available(); err != nil {
		return nil, err
	}
	args := espeakArgs(u)
	proc, err := startProcess(ctx, s.binary, strings.NewReader(u.Text), func(ctx context.Context) *exec.Cmd {
		return exec.CommandContext(ctx, s.binary, args...)
	})
	if err != nil {
		return nil, fmt.Errorf("start %s: %w", s.binary, err)
	}
	return proc, nil
}

func espeakArgs(u Utterance) []string {
	rate := u.Rate
	if rate <= 0 {
		rate = 1.0
	}
	pitch := u.Pitch
	if pitch <= 0 {
		pitch = 1.0
	}
	volume := u.Volume
	if volume < 0 {
		volume = 1.0
	}

	args := []string{
		"-s", strconv.Itoa(int(baseWordsPerMinute * rate)),
		"-p", strconv.Itoa(clampInt(int(50*pitch), 0, 99)),
		"-a", strconv.Itoa(clampInt(int(100*volume), 0, 200)),
	}
	if u.Voice != "" {
		args = append(args, "-v", u.Voice)
	}
	return append(args, "--stdin")
}

// parseEspeakVoices parses `espeak-ng --voices` output:
//
//	Pty Language       Age/Gender VoiceName          File                 Other Languages
//	 5  en-us           --/M      English_(America)  gmw/en-US           (en 2)
func parseEspeakVoices(out string) []Voice {
	var voices []Voice
	for i, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if i == 0 || len(fields) < 5 {
			continue
		}
		voices = append(voices, Voice{
			ID:       fields[1],
			Name:     strings.ReplaceAll(fields[3], "_", " "),
			Language: fields[1],
		})
	}
	return voices
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
