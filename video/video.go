// Package video composes the final broadcast video and its thumbnail
// with ffmpeg.
package video

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"newscast/config"
	apperrors "newscast/errors"
	"newscast/runner"
)

type Composer struct {
	cfg    config.VideoConfig
	runner *runner.Runner
	logger *logrus.Logger
}

func NewComposer(cfg config.VideoConfig, r *runner.Runner, logger *logrus.Logger) *Composer {
	return &Composer{cfg: cfg, runner: r, logger: logger}
}

// Compose scales the presenter video to the target resolution and
// overlays the episode title and date.
func (c *Composer) Compose(ctx context.Context, presenterPath, title, date, outPath string) error {
	const op = "Composer.Compose"

	if _, err := os.Stat(presenterPath); err != nil {
		return apperrors.InvalidInput(op, err, "Presenter video not found: "+presenterPath)
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return apperrors.Internal(op, err, "Failed to create output directory")
	}

	args := composeArgs(c.cfg, presenterPath, title, date, outPath)
	if _, err := c.runner.Run(ctx, c.cfg.FFmpegPath, args...); err != nil {
		return err
	}

	c.logger.WithField("path", outPath).Info("Video composed")
	return nil
}

// Thumbnail extracts a frame and overlays the episode title.
func (c *Composer) Thumbnail(ctx context.Context, videoPath, title, outPath string) error {
	const op = "Composer.Thumbnail"

	if _, err := os.Stat(videoPath); err != nil {
		return apperrors.InvalidInput(op, err, "Video not found: "+videoPath)
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return apperrors.Internal(op, err, "Failed to create output directory")
	}

	args := thumbnailArgs(c.cfg, videoPath, title, outPath)
	if _, err := c.runner.Run(ctx, c.cfg.FFmpegPath, args...); err != nil {
		return err
	}

	c.logger.WithField("path", outPath).Info("Thumbnail rendered")
	return nil
}

func composeArgs(cfg config.VideoConfig, in, title, date, out string) []string {
	filter := fmt.Sprintf(
		"scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2,"+
			"drawtext=text='%s':fontcolor=white:fontsize=56:box=1:boxcolor=black@0.6:boxborderw=16:x=(w-text_w)/2:y=64,"+
			"drawtext=text='%s':fontcolor=white:fontsize=36:box=1:boxcolor=black@0.6:boxborderw=12:x=(w-text_w)/2:y=h-th-48",
		cfg.Width, cfg.Height, cfg.Width, cfg.Height,
		escapeDrawtext(title), escapeDrawtext(date),
	)

	return []string{
		"-y",
		"-i", in,
		"-vf", filter,
		"-c:v", "libx264",
		"-preset", "medium",
		"-crf", "23",
		"-c:a", "aac",
		"-b:a", "192k",
		"-movflags", "+faststart",
		out,
	}
}

func thumbnailArgs(cfg config.VideoConfig, in, title, out string) []string {
	filter := fmt.Sprintf(
		"scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2,"+
			"drawtext=text='%s':fontcolor=white:fontsize=72:box=1:boxcolor=black@0.7:boxborderw=24:x=(w-text_w)/2:y=(h-text_h)/2",
		cfg.Width, cfg.Height, cfg.Width, cfg.Height,
		escapeDrawtext(title),
	)

	return []string{
		"-y",
		"-ss", "1",
		"-i", in,
		"-vframes", "1",
		"-vf", filter,
		"-q:v", "2",
		out,
	}
}

// escapeDrawtext escapes the characters ffmpeg's drawtext filter
// treats specially inside a quoted text value.
func escapeDrawtext(s string) string {
	r := strings.NewReplacer(
		`\`, `\\`,
		`'`, `\'`,
		`:`, `\:`,
		`%`, `\%`,
	)
	return r.Replace(s)
}
