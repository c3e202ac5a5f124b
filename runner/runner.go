// Package runner executes the external tools the pipeline depends on
// (edge-tts, ffmpeg, ffprobe, the avatar generator) with timeouts and
// captured output.
package runner

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	apperrors "newscast/errors"
)

type Runner struct {
	logger *logrus.Logger
}

func New(logger *logrus.Logger) *Runner {
	return &Runner{logger: logger}
}

// CheckTool verifies the named binary is resolvable before the
// pipeline starts, so a missing tool fails fast instead of mid-run.
func CheckTool(path string) error {
	const op = "runner.CheckTool"

	if _, err := exec.LookPath(path); err != nil {
		return apperrors.InvalidInput(op, nil, "Tool not found in PATH: "+path)
	}
	return nil
}

// Run executes the tool and returns its stdout. Stderr is included in
// the error on failure since ffmpeg and friends report there.
func (r *Runner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	const op = "Runner.Run"

	r.logger.WithFields(logrus.Fields{
		"tool": name,
		"args": strings.Join(truncateArgs(args), " "),
	}).Debug("Running external tool")

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = os.Environ()

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, apperrors.Internal(op, ctx.Err(), "Tool timed out: "+name)
		}
		r.logger.WithFields(logrus.Fields{
			"tool":    name,
			"elapsed": elapsed,
			"stderr":  tail(stderr.String(), 2000),
		}).Error("External tool failed")
		return nil, apperrors.Internal(op,
			errors.Wrapf(err, "%s (stderr: %s)", name, tail(stderr.String(), 500)),
			"Tool execution failed: "+name)
	}

	r.logger.WithFields(logrus.Fields{
		"tool":    name,
		"elapsed": elapsed,
	}).Debug("External tool finished")

	return stdout.Bytes(), nil
}

// RunWithTimeout wraps Run with a per-invocation deadline.
func (r *Runner) RunWithTimeout(ctx context.Context, timeout time.Duration, name string, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return r.Run(ctx, name, args...)
}

// truncateArgs shortens long argument values (drawtext filters, full
// script text) so debug logs stay readable.
func truncateArgs(args []string) []string {
	out := make([]string, len(args))
	for i, a := range args {
		if len(a) > 120 {
			a = a[:117] + "..."
		}
		out[i] = a
	}
	return out
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
