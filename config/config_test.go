package config

import (
	"path/filepath"
	"testing"
	"time"
)

func setTestDirs(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("LOG_DIR", filepath.Join(dir, "logs"))
	t.Setenv("DATA_DIR", filepath.Join(dir, "data"))
	t.Setenv("OUTPUT_DIR", filepath.Join(dir, "output"))
	t.Setenv("TEMP_DIR", filepath.Join(dir, "tmp"))
	t.Setenv("DB_PATH", filepath.Join(dir, "data", "test.db"))
}

func TestLoadDefaults(t *testing.T) {
	setTestDirs(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.LLM.Provider != "groq" {
		t.Errorf("default provider = %s, want groq", cfg.LLM.Provider)
	}
	if cfg.Pipeline.ArticlesPerVideo != 4 {
		t.Errorf("default articles per video = %d, want 4", cfg.Pipeline.ArticlesPerVideo)
	}
	if cfg.Scraper.MaxAge != 48*time.Hour {
		t.Errorf("default max age = %v, want 48h", cfg.Scraper.MaxAge)
	}
	if cfg.Schedule.GenerateTime != "10:00" || cfg.Schedule.UploadTime != "11:00" {
		t.Errorf("unexpected default schedule: %s / %s", cfg.Schedule.GenerateTime, cfg.Schedule.UploadTime)
	}
}

func TestLoadOverrides(t *testing.T) {
	setTestDirs(t)
	t.Setenv("LLM_PROVIDER", "ollama")
	t.Setenv("ARTICLES_PER_VIDEO", "6")
	t.Setenv("SCRAPER_MAX_AGE", "24h")
	t.Setenv("DEBUG", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.LLM.Provider != "ollama" {
		t.Errorf("provider = %s, want ollama", cfg.LLM.Provider)
	}
	if cfg.Pipeline.ArticlesPerVideo != 6 {
		t.Errorf("articles per video = %d, want 6", cfg.Pipeline.ArticlesPerVideo)
	}
	if cfg.Scraper.MaxAge != 24*time.Hour {
		t.Errorf("max age = %v, want 24h", cfg.Scraper.MaxAge)
	}
	if !cfg.Debug {
		t.Error("expected debug mode")
	}
}

func TestValidateRejectsBadPrivacy(t *testing.T) {
	setTestDirs(t)
	t.Setenv("YOUTUBE_PRIVACY_STATUS", "secret")

	if _, err := Load(); err == nil {
		t.Error("expected error for invalid privacy status")
	}
}
