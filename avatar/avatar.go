// Package avatar produces the presenter video for a narration track.
// It drives an external avatar generator when one is configured and
// falls back to a static-image video otherwise.
package avatar

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"newscast/config"
	apperrors "newscast/errors"
	"newscast/runner"
)

// Methods reported in the job record.
const (
	MethodAvatar = "avatar"
	MethodStatic = "static"
)

type Generator struct {
	cfg    config.AvatarConfig
	ffmpeg string
	runner *runner.Runner
	logger *logrus.Logger
}

func NewGenerator(cfg config.AvatarConfig, ffmpegPath string, r *runner.Runner, logger *logrus.Logger) *Generator {
	return &Generator{cfg: cfg, ffmpeg: ffmpegPath, runner: r, logger: logger}
}

// Generate renders the presenter video for the audio track and
// reports which method produced it.
func (g *Generator) Generate(ctx context.Context, audioPath, outPath string) (string, error) {
	const op = "Generator.Generate"

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return "", apperrors.Internal(op, err, "Failed to create video directory")
	}

	if g.avatarToolAvailable() {
		if err := g.runAvatarTool(ctx, audioPath, outPath); err == nil {
			return MethodAvatar, nil
		} else {
			g.logger.WithError(err).Warn("Avatar tool failed, falling back to static video")
		}
	}

	if err := g.staticVideo(ctx, audioPath, outPath); err != nil {
		return "", err
	}
	return MethodStatic, nil
}

func (g *Generator) avatarToolAvailable() bool {
	if g.cfg.ToolPath == "" {
		return false
	}
	_, err := exec.LookPath(g.cfg.ToolPath)
	return err == nil
}

func (g *Generator) runAvatarTool(ctx context.Context, audioPath, outPath string) error {
	_, err := g.runner.Run(ctx, g.cfg.ToolPath,
		"--source-image", g.cfg.SourceImage,
		"--driven-audio", audioPath,
		"--output", outPath,
	)
	return err
}

// staticVideo loops the source image for the audio's duration.
func (g *Generator) staticVideo(ctx context.Context, audioPath, outPath string) error {
	const op = "Generator.staticVideo"

	if g.cfg.SourceImage == "" {
		return apperrors.InvalidInput(op, nil, "No avatar source image configured")
	}
	if _, err := os.Stat(g.cfg.SourceImage); err != nil {
		return apperrors.InvalidInput(op, err, "Avatar source image not found: "+g.cfg.SourceImage)
	}

	_, err := g.runner.Run(ctx, g.ffmpeg,
		"-y",
		"-loop", "1",
		"-i", g.cfg.SourceImage,
		"-i", audioPath,
		"-c:v", "libx264",
		"-tune", "stillimage",
		"-c:a", "aac",
		"-pix_fmt", "yuv420p",
		"-shortest",
		outPath,
	)
	return err
}
