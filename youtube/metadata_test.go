package youtube

import (
	"strings"
	"testing"

	"newscast/models"
)

func sampleScript() *models.Script {
	return &models.Script{
		Title:    "Rates and Rain",
		Date:     "August 31, 2026",
		Language: "en",
		Segments: []models.Segment{
			{Type: models.SegmentIntro, Content: "Welcome.", Duration: 10},
			{
				Type:     models.SegmentNews,
				Content:  "The central bank held rates steady.",
				Duration: 50,
				Article:  &models.Article{Title: "Rates held steady", Source: "Example News", Category: "business"},
			},
			{
				Type:     models.SegmentNews,
				Content:  "The monsoon arrived early.",
				Duration: 45,
				Article:  &models.Article{Title: "Monsoon arrives early", Source: "Weather Daily", Category: "weather"},
			},
			{Type: models.SegmentConclusion, Content: "See you tomorrow.", Duration: 8},
		},
	}
}

func TestBuildMetadata(t *testing.T) {
	meta := BuildMetadata(sampleScript(), "https://cdn.example.com/notes.md", "25", "public")

	if meta.Title != "Rates and Rain | August 31, 2026" {
		t.Errorf("title = %q", meta.Title)
	}
	if meta.CategoryID != "25" || meta.PrivacyStatus != "public" {
		t.Errorf("category/privacy = %q/%q", meta.CategoryID, meta.PrivacyStatus)
	}

	desc := meta.Description
	for _, want := range []string{
		"- Rates held steady",
		"- Monsoon arrives early",
		"00:00 Intro",
		"00:10 Rates held steady",
		"01:00 Monsoon arrives early",
		"Study notes: https://cdn.example.com/notes.md",
		"- Example News",
		"- Weather Daily",
	} {
		if !strings.Contains(desc, want) {
			t.Errorf("description missing %q:\n%s", want, desc)
		}
	}

	tags := strings.Join(meta.Tags, ",")
	if !strings.Contains(tags, "business") || !strings.Contains(tags, "weather") {
		t.Errorf("tags missing categories: %v", meta.Tags)
	}
}

func TestBuildMetadataWithoutNotesLink(t *testing.T) {
	meta := BuildMetadata(sampleScript(), "", "25", "private")
	if strings.Contains(meta.Description, "Study notes") {
		t.Error("description contains notes link without a URL")
	}
}

func TestTitleTruncation(t *testing.T) {
	script := sampleScript()
	script.Title = strings.Repeat("Very Long Headline ", 10)

	meta := BuildMetadata(script, "", "25", "public")
	if got := len([]rune(meta.Title)); got > maxTitleLen {
		t.Errorf("title length = %d, want <= %d", got, maxTitleLen)
	}
	if !strings.HasSuffix(meta.Title, "...") {
		t.Errorf("truncated title missing ellipsis: %q", meta.Title)
	}
}

func TestTagsRespectTotalLengthLimit(t *testing.T) {
	script := sampleScript()
	for i := 0; i < 100; i++ {
		script.Segments = append(script.Segments, models.Segment{
			Type:    models.SegmentNews,
			Content: "x",
			Article: &models.Article{Title: "t", Category: strings.Repeat("longcategory", 3) + string(rune('a'+i%26))},
		})
	}

	meta := BuildMetadata(script, "", "25", "public")
	total := 0
	for _, tag := range meta.Tags {
		total += len(tag) + 2
	}
	if total > maxTagsLen {
		t.Errorf("total tag length = %d, want <= %d", total, maxTagsLen)
	}
}
