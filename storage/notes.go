package storage

import (
	"fmt"
	"strings"

	"newscast/models"
)

// RenderNotes builds the study-notes markdown from a script's key
// points, one section per covered story.
func RenderNotes(script *models.Script) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", script.Title)
	fmt.Fprintf(&b, "Daily news notes for %s.\n\n", script.Date)

	for _, group := range script.KeyPoints() {
		title := group.ArticleTitle
		if title == "" {
			title = "Key points"
		}
		fmt.Fprintf(&b, "## %s\n\n", title)
		for _, point := range group.Points {
			fmt.Fprintf(&b, "- %s\n", point)
		}
		b.WriteString("\n")
	}

	b.WriteString("Sources:\n\n")
	seen := make(map[string]bool)
	for _, seg := range script.Segments {
		if seg.Article == nil || seg.Article.URL == "" || seen[seg.Article.URL] {
			continue
		}
		seen[seg.Article.URL] = true
		fmt.Fprintf(&b, "- [%s](%s)\n", seg.Article.Source, seg.Article.URL)
	}

	return b.String()
}
