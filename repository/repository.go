package repository

import (
	"context"
	"time"

	"newscast/models"
)

// ArticleFilter narrows unused-article queries.
type ArticleFilter struct {
	Language string
	Category string
	MaxAge   time.Duration
	Limit    int
}

type ArticleRepository interface {
	Save(ctx context.Context, article *models.Article) (bool, error)
	FindUnused(ctx context.Context, filter ArticleFilter) ([]*models.Article, error)
	MarkUsed(ctx context.Context, ids []int64, videoID string) error
}

type JobRepository interface {
	Save(ctx context.Context, job *models.VideoJob) error
	Find(ctx context.Context, id string) (*models.VideoJob, error)
	SetUploadStatus(ctx context.Context, id string, status models.UploadStatus, youtubeID, youtubeURL string) error
}

// ScrapeLog records the outcome of one source scrape.
type ScrapeLog struct {
	Source     string
	Found      int
	New        int
	Duplicates int
	Status     string
	Errors     string
	StartedAt  time.Time
	FinishedAt time.Time
}

type ScrapeLogRepository interface {
	Log(ctx context.Context, entry *ScrapeLog) error
}

// Statistics summarizes stored articles and generated videos.
type Statistics struct {
	TotalArticles  int `json:"total_articles"`
	UsedArticles   int `json:"used_articles"`
	UnusedArticles int `json:"unused_articles"`
	TotalVideos    int `json:"total_videos"`
	UploadedVideos int `json:"uploaded_videos"`
}
