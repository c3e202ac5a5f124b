package youtube

import (
	"fmt"
	"strings"

	"newscast/models"
)

// API limits on video metadata.
const (
	maxTitleLen       = 100
	maxDescriptionLen = 5000
	maxTagsLen        = 500
)

// Metadata is the upload payload for one video.
type Metadata struct {
	Title         string
	Description   string
	Tags          []string
	CategoryID    string
	PrivacyStatus string
}

// BuildMetadata derives the upload metadata from a script. notesURL,
// when set, links the study-notes artifact in the description.
func BuildMetadata(script *models.Script, notesURL, categoryID, privacyStatus string) Metadata {
	return Metadata{
		Title:         buildTitle(script),
		Description:   buildDescription(script, notesURL),
		Tags:          buildTags(script),
		CategoryID:    categoryID,
		PrivacyStatus: privacyStatus,
	}
}

func buildTitle(script *models.Script) string {
	title := script.Title
	if !strings.Contains(title, script.Date) {
		title = title + " | " + script.Date
	}
	return truncate(title, maxTitleLen)
}

func buildDescription(script *models.Script, notesURL string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Your daily news update for %s.\n\n", script.Date)

	b.WriteString("In this episode:\n")
	for _, seg := range script.Segments {
		if seg.Type == models.SegmentNews && seg.Article != nil {
			fmt.Fprintf(&b, "- %s\n", seg.Article.Title)
		}
	}

	if stamps := script.Timestamps(); len(stamps) > 0 {
		b.WriteString("\nChapters:\n00:00 Intro\n")
		for _, ts := range stamps {
			fmt.Fprintf(&b, "%s %s\n", ts.Time, ts.Title)
		}
	}

	if notesURL != "" {
		fmt.Fprintf(&b, "\nStudy notes: %s\n", notesURL)
	}

	b.WriteString("\nSources:\n")
	seen := make(map[string]bool)
	for _, seg := range script.Segments {
		if seg.Type != models.SegmentNews || seg.Article == nil {
			continue
		}
		if src := seg.Article.Source; src != "" && !seen[src] {
			seen[src] = true
			fmt.Fprintf(&b, "- %s\n", src)
		}
	}

	b.WriteString("\n#news #dailynews #currentaffairs")

	return truncate(b.String(), maxDescriptionLen)
}

func buildTags(script *models.Script) []string {
	tags := []string{"news", "daily news", "current affairs", "news update"}
	if script.Language != "" && script.Language != "en" {
		tags = append(tags, script.Language+" news")
	}
	for _, seg := range script.Segments {
		if seg.Type == models.SegmentNews && seg.Article != nil && seg.Article.Category != "" {
			tags = appendUnique(tags, seg.Article.Category)
		}
	}

	// The API counts the total length of all tags.
	total := 0
	var out []string
	for _, tag := range tags {
		total += len(tag) + 2
		if total > maxTagsLen {
			break
		}
		out = append(out, tag)
	}
	return out
}

func appendUnique(tags []string, tag string) []string {
	for _, t := range tags {
		if t == tag {
			return tags
		}
	}
	return append(tags, tag)
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
