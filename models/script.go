package models

import (
	"fmt"
	"strings"
)

type SegmentType string

const (
	SegmentIntro      SegmentType = "intro"
	SegmentNews       SegmentType = "news"
	SegmentTransition SegmentType = "transition"
	SegmentConclusion SegmentType = "conclusion"
)

// Segment is one narration block of a video script.
type Segment struct {
	Type      SegmentType `json:"type"`
	Content   string      `json:"content"`
	Duration  float64     `json:"duration_estimate"`
	KeyPoints []string    `json:"key_points,omitempty"`
	Article   *Article    `json:"-"`
}

// Script is a complete narration script generated from articles.
type Script struct {
	Title        string    `json:"title"`
	Date         string    `json:"date"`
	Language     string    `json:"language"`
	Segments     []Segment `json:"segments"`
	Duration     float64   `json:"total_duration"`
	WordCount    int       `json:"word_count"`
	ArticleCount int       `json:"article_count"`
}

// TTSText flattens the script into continuous prose for synthesis.
// Segments missing terminal punctuation get a period so the voice
// pauses between them.
func (s *Script) TTSText() string {
	parts := make([]string, 0, len(s.Segments))
	for _, seg := range s.Segments {
		content := strings.TrimSpace(seg.Content)
		if content == "" {
			continue
		}
		if !strings.HasSuffix(content, ".") && !strings.HasSuffix(content, "!") && !strings.HasSuffix(content, "?") {
			content += "."
		}
		parts = append(parts, content)
	}
	return strings.Join(parts, " ")
}

// Timestamp marks where a news segment starts in the final video.
type Timestamp struct {
	Time  string `json:"time"`
	Title string `json:"title"`
}

// Timestamps returns chapter markers for the news segments, computed
// from the per-segment duration estimates.
func (s *Script) Timestamps() []Timestamp {
	var stamps []Timestamp
	var elapsed float64
	for _, seg := range s.Segments {
		if seg.Type == SegmentNews {
			title := "Topic"
			if seg.Article != nil {
				title = seg.Article.Title
			}
			stamps = append(stamps, Timestamp{
				Time:  fmt.Sprintf("%02d:%02d", int(elapsed)/60, int(elapsed)%60),
				Title: title,
			})
		}
		elapsed += seg.Duration
	}
	return stamps
}

// KeyPointGroup collects a news segment's key points for study notes.
type KeyPointGroup struct {
	ArticleTitle string   `json:"article_title"`
	Points       []string `json:"key_points"`
}

// KeyPoints returns all key points grouped by source article.
func (s *Script) KeyPoints() []KeyPointGroup {
	var groups []KeyPointGroup
	for _, seg := range s.Segments {
		if len(seg.KeyPoints) == 0 {
			continue
		}
		title := ""
		if seg.Article != nil {
			title = seg.Article.Title
		}
		groups = append(groups, KeyPointGroup{ArticleTitle: title, Points: seg.KeyPoints})
	}
	return groups
}
