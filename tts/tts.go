// Package tts synthesizes narration audio through the edge-tts tool.
package tts

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"newscast/config"
	apperrors "newscast/errors"
	"newscast/runner"
)

// voices maps a language code to its narration voice.
var voices = map[string]string{
	"en": "en-US-AriaNeural",
	"hi": "hi-IN-SwaraNeural",
	"ta": "ta-IN-PallaviNeural",
	"te": "te-IN-ShrutiNeural",
}

// Voice returns the narration voice for a language code.
func Voice(language string) (string, error) {
	const op = "tts.Voice"

	voice, ok := voices[language]
	if !ok {
		return "", apperrors.InvalidInput(op, nil, "No voice configured for language: "+language)
	}
	return voice, nil
}

type Synthesizer struct {
	cfg    config.TTSConfig
	probe  string
	runner *runner.Runner
	logger *logrus.Logger
}

func NewSynthesizer(cfg config.TTSConfig, ffprobePath string, r *runner.Runner, logger *logrus.Logger) *Synthesizer {
	return &Synthesizer{cfg: cfg, probe: ffprobePath, runner: r, logger: logger}
}

// Synthesize renders text to an audio file and returns its duration
// in seconds.
func (s *Synthesizer) Synthesize(ctx context.Context, text, language, outPath string) (float64, error) {
	const op = "Synthesizer.Synthesize"

	if strings.TrimSpace(text) == "" {
		return 0, apperrors.InvalidInput(op, nil, "No text to synthesize")
	}

	voice, err := Voice(language)
	if err != nil {
		return 0, err
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return 0, apperrors.Internal(op, err, "Failed to create audio directory")
	}

	args := []string{
		"--voice", voice,
		"--text", text,
		"--write-media", outPath,
	}
	if s.cfg.Rate != "" {
		args = append(args, "--rate", s.cfg.Rate)
	}
	if s.cfg.Pitch != "" {
		args = append(args, "--pitch", s.cfg.Pitch)
	}

	if _, err := s.runner.Run(ctx, s.cfg.ToolPath, args...); err != nil {
		return 0, err
	}

	info, err := os.Stat(outPath)
	if err != nil || info.Size() == 0 {
		return 0, apperrors.Internal(op, err, "Synthesis produced no audio")
	}

	duration, err := s.ProbeDuration(ctx, outPath)
	if err != nil {
		return 0, err
	}

	s.logger.WithFields(logrus.Fields{
		"voice":    voice,
		"duration": duration,
		"path":     outPath,
	}).Info("Audio synthesized")

	return duration, nil
}

// ProbeDuration reads a media file's duration via ffprobe.
func (s *Synthesizer) ProbeDuration(ctx context.Context, path string) (float64, error) {
	const op = "Synthesizer.ProbeDuration"

	out, err := s.runner.Run(ctx, s.probe,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	if err != nil {
		return 0, err
	}

	duration, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return 0, apperrors.Internal(op, err, "Unparseable ffprobe duration")
	}
	return duration, nil
}
