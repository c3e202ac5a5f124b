package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

type Config struct {
	// Application paths
	LogDir    string `json:"log_dir"`
	DataDir   string `json:"data_dir"`
	OutputDir string `json:"output_dir"`
	TempDir   string `json:"temp_dir"`
	Debug     bool   `json:"debug"`

	Database  DatabaseConfig  `json:"database"`
	Scraper   ScraperConfig   `json:"scraper"`
	LLM       LLMConfig       `json:"llm"`
	TTS       TTSConfig       `json:"tts"`
	Avatar    AvatarConfig    `json:"avatar"`
	Video     VideoConfig     `json:"video"`
	YouTube   YouTubeConfig   `json:"youtube"`
	Storage   StorageConfig   `json:"storage"`
	Pipeline  PipelineConfig  `json:"pipeline"`
	Schedule  ScheduleConfig  `json:"schedule"`
}

type DatabaseConfig struct {
	Path string `json:"path"`
}

type ScraperConfig struct {
	SourcesFile    string        `json:"sources_file"`
	MaxArticles    int           `json:"max_articles"`
	MaxAge         time.Duration `json:"max_age"`
	RequestTimeout time.Duration `json:"request_timeout"`
	RequestsPerSec float64       `json:"requests_per_sec"`
	Concurrency    int           `json:"concurrency"`
}

type LLMConfig struct {
	Provider    string        `json:"provider"` // "groq" or "ollama"
	APIKey      string        `json:"-"`
	Model       string        `json:"model"`
	BaseURL     string        `json:"base_url"`
	OllamaHost  string        `json:"ollama_host"`
	OllamaModel string        `json:"ollama_model"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
	Timeout     time.Duration `json:"timeout"`
}

type TTSConfig struct {
	ToolPath string `json:"tool_path"`
	Rate     string `json:"rate"`
	Pitch    string `json:"pitch"`
}

type AvatarConfig struct {
	ToolPath    string `json:"tool_path"`
	SourceImage string `json:"source_image"`
}

type VideoConfig struct {
	FFmpegPath  string `json:"ffmpeg_path"`
	FFprobePath string `json:"ffprobe_path"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
}

type YouTubeConfig struct {
	ClientSecretsFile string        `json:"client_secrets_file"`
	TokenFile         string        `json:"token_file"`
	CallbackPort      int           `json:"callback_port"`
	CategoryID        string        `json:"category_id"`
	PrivacyStatus     string        `json:"privacy_status"`
	UploadTimeout     time.Duration `json:"upload_timeout"`
}

type StorageConfig struct {
	Enabled   bool   `json:"enabled"`
	AccessKey string `json:"-"`
	SecretKey string `json:"-"`
	Region    string `json:"region"`
	Endpoint  string `json:"endpoint"`
	Bucket    string `json:"bucket"`
}

type PipelineConfig struct {
	ProcessTimeout   time.Duration `json:"process_timeout"`
	ArticlesPerVideo int           `json:"articles_per_video"`
}

type ScheduleConfig struct {
	GenerateTime string `json:"generate_time"`
	UploadTime   string `json:"upload_time"`
	Timezone     string `json:"timezone"`
	StateFile    string `json:"state_file"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		LogDir:    getEnv("LOG_DIR", "logs"),
		DataDir:   getEnv("DATA_DIR", "data"),
		OutputDir: getEnv("OUTPUT_DIR", "output"),
		TempDir:   getEnv("TEMP_DIR", filepath.Join(os.TempDir(), "newscast")),
		Debug:     getEnvAsBool("DEBUG", false),

		Database: DatabaseConfig{
			Path: getEnv("DB_PATH", "data/news_tracker.db"),
		},

		Scraper: ScraperConfig{
			SourcesFile:    getEnv("SOURCES_FILE", "config/sources.yaml"),
			MaxArticles:    getEnvAsInt("SCRAPER_MAX_ARTICLES", 10),
			MaxAge:         getEnvAsDuration("SCRAPER_MAX_AGE", 48*time.Hour),
			RequestTimeout: getEnvAsDuration("SCRAPER_REQUEST_TIMEOUT", 30*time.Second),
			RequestsPerSec: getEnvAsFloat("SCRAPER_REQUESTS_PER_SEC", 1.0),
			Concurrency:    getEnvAsInt("SCRAPER_CONCURRENCY", 4),
		},

		LLM: LLMConfig{
			Provider:    getEnv("LLM_PROVIDER", "groq"),
			APIKey:      getEnv("GROQ_API_KEY", ""),
			Model:       getEnv("LLM_MODEL", "llama-3.3-70b-versatile"),
			BaseURL:     getEnv("LLM_BASE_URL", "https://api.groq.com/openai/v1"),
			OllamaHost:  getEnv("OLLAMA_HOST", "http://localhost:11434"),
			OllamaModel: getEnv("OLLAMA_MODEL", "llama2"),
			MaxTokens:   getEnvAsInt("LLM_MAX_TOKENS", 2000),
			Temperature: getEnvAsFloat("LLM_TEMPERATURE", 0.7),
			Timeout:     getEnvAsDuration("LLM_TIMEOUT", 2*time.Minute),
		},

		TTS: TTSConfig{
			ToolPath: getEnv("EDGE_TTS_PATH", "edge-tts"),
			Rate:     getEnv("TTS_RATE", "+0%"),
			Pitch:    getEnv("TTS_PITCH", "+0Hz"),
		},

		Avatar: AvatarConfig{
			ToolPath:    getEnv("AVATAR_TOOL_PATH", ""),
			SourceImage: getEnv("AVATAR_SOURCE_IMAGE", "assets/presenter.png"),
		},

		Video: VideoConfig{
			FFmpegPath:  getEnv("FFMPEG_PATH", "ffmpeg"),
			FFprobePath: getEnv("FFPROBE_PATH", "ffprobe"),
			Width:       getEnvAsInt("VIDEO_WIDTH", 1920),
			Height:      getEnvAsInt("VIDEO_HEIGHT", 1080),
		},

		YouTube: YouTubeConfig{
			ClientSecretsFile: getEnv("CLIENT_SECRETS_FILE", "config/client_secrets.json"),
			TokenFile:         getEnv("YOUTUBE_TOKEN_FILE", "config/youtube_token.json"),
			CallbackPort:      getEnvAsInt("OAUTH_CALLBACK_PORT", 8080),
			CategoryID:        getEnv("YOUTUBE_CATEGORY_ID", "25"), // News & Politics
			PrivacyStatus:     getEnv("YOUTUBE_PRIVACY_STATUS", "public"),
			UploadTimeout:     getEnvAsDuration("UPLOAD_TIMEOUT", 30*time.Minute),
		},

		Storage: StorageConfig{
			Enabled:   getEnvAsBool("STORAGE_ENABLED", false),
			AccessKey: getEnv("STORAGE_ACCESS_KEY", ""),
			SecretKey: getEnv("STORAGE_SECRET_KEY", ""),
			Region:    getEnv("STORAGE_REGION", "us-east-1"),
			Endpoint:  getEnv("STORAGE_ENDPOINT", ""),
			Bucket:    getEnv("STORAGE_BUCKET", ""),
		},

		Pipeline: PipelineConfig{
			ProcessTimeout:   getEnvAsDuration("PROCESS_TIMEOUT", 60*time.Minute),
			ArticlesPerVideo: getEnvAsInt("ARTICLES_PER_VIDEO", 4),
		},

		Schedule: ScheduleConfig{
			GenerateTime: getEnv("GENERATE_TIME", "10:00"),
			UploadTime:   getEnv("UPLOAD_TIME", "11:00"),
			Timezone:     getEnv("TIMEZONE", "Asia/Kolkata"),
			StateFile:    getEnv("SCHEDULER_STATE_FILE", "data/scheduler_state.json"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if err := validatePaths(c); err != nil {
		return err
	}

	if c.Pipeline.ProcessTimeout <= 0 {
		return fmt.Errorf("process timeout must be positive")
	}
	if c.Pipeline.ArticlesPerVideo <= 0 {
		return fmt.Errorf("articles per video must be positive")
	}
	if c.Scraper.Concurrency <= 0 {
		return fmt.Errorf("scraper concurrency must be positive")
	}

	switch c.YouTube.PrivacyStatus {
	case "public", "private", "unlisted":
	default:
		return fmt.Errorf("invalid privacy status: %s", c.YouTube.PrivacyStatus)
	}

	return nil
}

func validatePaths(c *Config) error {
	paths := []struct {
		path string
		name string
	}{
		{c.LogDir, "log directory"},
		{c.DataDir, "data directory"},
		{c.OutputDir, "output directory"},
		{c.TempDir, "temp directory"},
		{filepath.Dir(c.Database.Path), "database directory"},
	}

	for _, p := range paths {
		if err := os.MkdirAll(p.path, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", p.name, err)
		}
	}

	return nil
}

// Helper functions for reading environment variables
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
