package models

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Article is a scraped news article tracked for video generation.
type Article struct {
	ID          int64     `json:"id"`
	HashID      string    `json:"hash_id"`
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Source      string    `json:"source"`
	Category    string    `json:"category"`
	Language    string    `json:"language"`
	Summary     string    `json:"summary"`
	Content     string    `json:"content"`
	PublishedAt time.Time `json:"published_at"`
	ScrapedAt   time.Time `json:"scraped_at"`
	Used        bool      `json:"used"`
	UsedInVideo string    `json:"used_in_video,omitempty"`
}

// HashURL returns the SHA-256 hex digest of a URL, used as the
// deduplication key for stored articles.
func HashURL(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:])
}
