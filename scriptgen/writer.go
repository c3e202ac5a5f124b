package scriptgen

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	apperrors "newscast/errors"
	"newscast/models"
	"newscast/validation"
)

// wordsPerMinute is the narration pace used for duration estimates.
const wordsPerMinute = 140

// Writer builds narration scripts from articles.
type Writer struct {
	llm    Client
	logger *logrus.Logger
}

func NewWriter(llm Client, logger *logrus.Logger) *Writer {
	return &Writer{llm: llm, logger: logger}
}

// llmScript mirrors the JSON shape requested in the prompt.
type llmScript struct {
	Title    string `json:"title"`
	Segments []struct {
		Type      string   `json:"type"`
		Content   string   `json:"content"`
		KeyPoints []string `json:"key_points"`
	} `json:"segments"`
}

// WriteScript generates a script covering the articles. When the LLM
// output cannot be used, a template-assembled script is returned so a
// scheduled run still produces a video.
func (w *Writer) WriteScript(ctx context.Context, articles []*models.Article, language string) (*models.Script, error) {
	const op = "Writer.WriteScript"

	if len(articles) == 0 {
		return nil, apperrors.InvalidInput(op, nil, "No articles to write a script for")
	}

	// The prompt wants the display name ("English"), not the code.
	languageName, err := validation.ValidateLanguage(language)
	if err != nil {
		return nil, err
	}
	date := time.Now().Format("January 2, 2006")

	prompt := buildPrompt(articles, languageName, date)
	raw, err := w.llm.Complete(ctx, prompt)
	if err == nil {
		script, parseErr := w.parseScript(raw, articles, language, date)
		if parseErr == nil {
			return script, nil
		}
		w.logger.WithError(parseErr).Warn("Unusable LLM script output, using template script")
	} else {
		w.logger.WithError(err).Warn("LLM completion failed, using template script")
	}

	return w.templateScript(articles, language, date), nil
}

func buildPrompt(articles []*models.Article, language, date string) string {
	var b strings.Builder
	for i, a := range articles {
		fmt.Fprintf(&b, "%d. %s (%s)\n", i+1, a.Title, a.Source)
		if a.Summary != "" {
			fmt.Fprintf(&b, "   %s\n", a.Summary)
		}
	}
	return fmt.Sprintf(scriptPromptTemplate, language, date, b.String())
}

func (w *Writer) parseScript(raw string, articles []*models.Article, language, date string) (*models.Script, error) {
	const op = "Writer.parseScript"

	var parsed llmScript
	if err := json.Unmarshal([]byte(stripFences(raw)), &parsed); err != nil {
		return nil, apperrors.Internal(op, err, "LLM output is not valid JSON")
	}
	if len(parsed.Segments) == 0 {
		return nil, apperrors.Internal(op, nil, "LLM output has no segments")
	}

	script := &models.Script{
		Title:        strings.TrimSpace(parsed.Title),
		Date:         date,
		Language:     language,
		ArticleCount: len(articles),
	}
	if script.Title == "" {
		script.Title = defaultTitle(date)
	}

	newsIdx := 0
	for _, seg := range parsed.Segments {
		content := strings.TrimSpace(seg.Content)
		if content == "" {
			continue
		}

		segment := models.Segment{
			Type:      models.SegmentType(seg.Type),
			Content:   content,
			KeyPoints: seg.KeyPoints,
			Duration:  estimateDuration(content),
		}
		switch segment.Type {
		case models.SegmentIntro, models.SegmentNews, models.SegmentTransition, models.SegmentConclusion:
		default:
			segment.Type = models.SegmentNews
		}
		if segment.Type == models.SegmentNews && newsIdx < len(articles) {
			segment.Article = articles[newsIdx]
			newsIdx++
		}
		script.Segments = append(script.Segments, segment)
	}

	if newsIdx == 0 {
		return nil, apperrors.Internal(op, nil, "LLM output has no news segments")
	}

	finalizeScript(script)
	return script, nil
}

// templateScript assembles a plain script directly from the article
// summaries, used when no LLM output is usable.
func (w *Writer) templateScript(articles []*models.Article, language, date string) *models.Script {
	script := &models.Script{
		Title:        defaultTitle(date),
		Date:         date,
		Language:     language,
		ArticleCount: len(articles),
	}

	intro := fmt.Sprintf("Welcome to your daily news update for %s. Here are today's top %d stories.", date, len(articles))
	script.Segments = append(script.Segments, models.Segment{
		Type: models.SegmentIntro, Content: intro, Duration: estimateDuration(intro),
	})

	for _, a := range articles {
		content := a.Title + "."
		if a.Summary != "" {
			content += " " + a.Summary
		}
		script.Segments = append(script.Segments, models.Segment{
			Type:      models.SegmentNews,
			Content:   content,
			Duration:  estimateDuration(content),
			KeyPoints: []string{a.Title},
			Article:   a,
		})
	}

	outro := "That's all for today's update. Thank you for watching, and see you tomorrow."
	script.Segments = append(script.Segments, models.Segment{
		Type: models.SegmentConclusion, Content: outro, Duration: estimateDuration(outro),
	})

	finalizeScript(script)
	return script
}

func finalizeScript(s *models.Script) {
	s.WordCount = 0
	s.Duration = 0
	for _, seg := range s.Segments {
		s.WordCount += len(strings.Fields(seg.Content))
		s.Duration += seg.Duration
	}
}

func estimateDuration(content string) float64 {
	words := len(strings.Fields(content))
	return float64(words) / wordsPerMinute * 60
}

func defaultTitle(date string) string {
	return "Daily News Update | " + date
}
