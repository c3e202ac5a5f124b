package avatar

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"

	"newscast/config"
	"newscast/runner"
)

func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

func TestGenerateUsesAvatarTool(t *testing.T) {
	dir := t.TempDir()
	tool := writeScript(t, dir, "avatar-tool", `
while [ $# -gt 0 ]; do
  if [ "$1" = "--output" ]; then printf video > "$2"; fi
  shift
done
`)

	logger := quietLogger()
	g := NewGenerator(config.AvatarConfig{
		ToolPath:    tool,
		SourceImage: writeScript(t, dir, "face.png", ""),
	}, "ffmpeg", runner.New(logger), logger)

	outPath := filepath.Join(dir, "out", "presenter.mp4")
	method, err := g.Generate(context.Background(), filepath.Join(dir, "audio.mp3"), outPath)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if method != MethodAvatar {
		t.Errorf("method = %q, want %q", method, MethodAvatar)
	}
	if _, err := os.Stat(outPath); err != nil {
		t.Errorf("output missing: %v", err)
	}
}

func TestGenerateFallsBackToStatic(t *testing.T) {
	dir := t.TempDir()
	failing := writeScript(t, dir, "avatar-tool", "exit 1")
	ffmpeg := writeScript(t, dir, "ffmpeg", `
for a in "$@"; do last="$a"; done
printf video > "$last"
`)

	logger := quietLogger()
	g := NewGenerator(config.AvatarConfig{
		ToolPath:    failing,
		SourceImage: writeScript(t, dir, "face.png", ""),
	}, ffmpeg, runner.New(logger), logger)

	outPath := filepath.Join(dir, "presenter.mp4")
	method, err := g.Generate(context.Background(), filepath.Join(dir, "audio.mp3"), outPath)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if method != MethodStatic {
		t.Errorf("method = %q, want %q", method, MethodStatic)
	}
}

func TestStaticVideoRequiresSourceImage(t *testing.T) {
	logger := quietLogger()
	g := NewGenerator(config.AvatarConfig{}, "ffmpeg", runner.New(logger), logger)

	_, err := g.Generate(context.Background(), "audio.mp3", filepath.Join(t.TempDir(), "out.mp4"))
	if err == nil {
		t.Fatal("Generate() error = nil without source image")
	}
}
