package models

import (
	"time"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

type UploadStatus string

const (
	UploadPending  UploadStatus = "pending"
	UploadSkipped  UploadStatus = "skipped"
	UploadDone     UploadStatus = "uploaded"
	UploadFailed   UploadStatus = "failed"
)

// VideoJob tracks one pipeline run and its artifacts.
type VideoJob struct {
	ID            string       `json:"id"`
	Title         string       `json:"title"`
	Language      string       `json:"language"`
	Status        Status       `json:"status"`
	Duration      float64      `json:"duration"`
	ArticleCount  int          `json:"article_count"`
	ScriptPath    string       `json:"script_path,omitempty"`
	AudioPath     string       `json:"audio_path,omitempty"`
	VideoPath     string       `json:"video_path,omitempty"`
	ThumbnailPath string       `json:"thumbnail_path,omitempty"`
	NotesPath     string       `json:"notes_path,omitempty"`
	UploadStatus  UploadStatus `json:"upload_status"`
	YouTubeID     string       `json:"youtube_id,omitempty"`
	YouTubeURL    string       `json:"youtube_url,omitempty"`
	Error         string       `json:"error,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
	UploadedAt    time.Time    `json:"uploaded_at,omitempty"`
}
