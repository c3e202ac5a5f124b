package scraper

import (
	"context"
	"strings"

	"newscast/models"
	"newscast/repository"
)

// similarityThreshold is the title-similarity ratio above which two
// articles are treated as covering the same story.
const similarityThreshold = 0.8

// SelectArticles returns up to limit unused articles for the language,
// newest first, dropping near-duplicate titles across sources.
func SelectArticles(ctx context.Context, articles repository.ArticleRepository, filter repository.ArticleFilter) ([]*models.Article, error) {
	limit := filter.Limit
	// Over-fetch so similarity filtering still fills the quota.
	filter.Limit = limit * 3

	candidates, err := articles.FindUnused(ctx, filter)
	if err != nil {
		return nil, err
	}

	var selected []*models.Article
	for _, candidate := range candidates {
		if isDuplicateStory(candidate, selected) {
			continue
		}
		selected = append(selected, candidate)
		if limit > 0 && len(selected) >= limit {
			break
		}
	}

	return selected, nil
}

func isDuplicateStory(candidate *models.Article, selected []*models.Article) bool {
	for _, s := range selected {
		if titleSimilarity(candidate.Title, s.Title) >= similarityThreshold {
			return true
		}
	}
	return false
}

// titleSimilarity computes the Sorensen-Dice coefficient over word
// bigrams of the lowercased titles. Returns a value in [0, 1].
func titleSimilarity(a, b string) float64 {
	ba := bigrams(a)
	bb := bigrams(b)
	if len(ba) == 0 || len(bb) == 0 {
		if strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b)) && strings.TrimSpace(a) != "" {
			return 1
		}
		return 0
	}

	overlap := 0
	for gram, n := range ba {
		if m, ok := bb[gram]; ok {
			if m < n {
				overlap += m
			} else {
				overlap += n
			}
		}
	}

	total := 0
	for _, n := range ba {
		total += n
	}
	for _, n := range bb {
		total += n
	}

	return 2 * float64(overlap) / float64(total)
}

func bigrams(s string) map[string]int {
	words := strings.Fields(strings.ToLower(s))
	grams := make(map[string]int)
	if len(words) == 1 {
		grams[words[0]]++
		return grams
	}
	for i := 0; i+1 < len(words); i++ {
		grams[words[i]+" "+words[i+1]]++
	}
	return grams
}
