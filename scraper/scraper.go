// Package scraper fetches articles from configured RSS sources and
// stores them with URL-hash deduplication.
package scraper

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"newscast/config"
	apperrors "newscast/errors"
	"newscast/models"
	"newscast/repository"
)

// Result summarizes one scrape run across all sources.
type Result struct {
	Sources    int
	Found      int
	New        int
	Duplicates int
	Failed     int
}

type Scraper struct {
	cfg      config.ScraperConfig
	articles repository.ArticleRepository
	logs     repository.ScrapeLogRepository
	logger   *logrus.Logger
	client   *http.Client
	limiter  *rate.Limiter
}

func New(cfg config.ScraperConfig, articles repository.ArticleRepository, logs repository.ScrapeLogRepository, logger *logrus.Logger) *Scraper {
	return &Scraper{
		cfg:      cfg,
		articles: articles,
		logs:     logs,
		logger:   logger,
		client: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), 1),
	}
}

// ScrapeAll fetches every source concurrently, bounded by the
// configured worker count. A failing source is logged and counted but
// does not abort the run.
func (s *Scraper) ScrapeAll(ctx context.Context, sources []Source) (*Result, error) {
	const op = "Scraper.ScrapeAll"

	if len(sources) == 0 {
		return nil, apperrors.InvalidInput(op, nil, "No sources to scrape")
	}

	var (
		mu     sync.Mutex
		result = Result{Sources: len(sources)}
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)

	for _, src := range sources {
		src := src
		g.Go(func() error {
			found, added, dups, err := s.scrapeSource(ctx, src)

			mu.Lock()
			result.Found += found
			result.New += added
			result.Duplicates += dups
			if err != nil {
				result.Failed++
			}
			mu.Unlock()

			if err != nil {
				s.logger.WithFields(logrus.Fields{
					"source": src.Name,
					"error":  err,
				}).Warn("Source scrape failed")
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, apperrors.Internal(op, err, "Scrape run failed")
	}

	s.logger.WithFields(logrus.Fields{
		"sources":    result.Sources,
		"found":      result.Found,
		"new":        result.New,
		"duplicates": result.Duplicates,
		"failed":     result.Failed,
	}).Info("Scrape run finished")

	if result.Failed == result.Sources {
		return &result, apperrors.Internal(op, nil, "All sources failed to scrape")
	}

	return &result, nil
}

func (s *Scraper) scrapeSource(ctx context.Context, src Source) (found, added, dups int, err error) {
	started := time.Now().UTC()

	found, added, dups, err = s.fetchAndStore(ctx, src)

	entry := &repository.ScrapeLog{
		Source:     src.Name,
		Found:      found,
		New:        added,
		Duplicates: dups,
		Status:     "success",
		StartedAt:  started,
		FinishedAt: time.Now().UTC(),
	}
	if err != nil {
		entry.Status = "failed"
		entry.Errors = err.Error()
	}
	if logErr := s.logs.Log(ctx, entry); logErr != nil {
		s.logger.WithError(logErr).Warn("Failed to record scrape log")
	}

	return found, added, dups, err
}

func (s *Scraper) fetchAndStore(ctx context.Context, src Source) (found, added, dups int, err error) {
	const op = "Scraper.fetchAndStore"

	if err := s.limiter.Wait(ctx); err != nil {
		return 0, 0, 0, apperrors.Internal(op, err, "Rate limiter wait failed")
	}

	parser := gofeed.NewParser()
	parser.Client = s.client

	feed, err := parser.ParseURLWithContext(src.URL, ctx)
	if err != nil {
		return 0, 0, 0, apperrors.Internal(op, err, "Failed to fetch feed: "+src.Name)
	}

	items := feed.Items
	if s.cfg.MaxArticles > 0 && len(items) > s.cfg.MaxArticles {
		items = items[:s.cfg.MaxArticles]
	}

	for _, item := range items {
		article := itemToArticle(item, src)
		if article == nil {
			continue
		}
		found++

		inserted, err := s.articles.Save(ctx, article)
		if err != nil {
			return found, added, dups, err
		}
		if inserted {
			added++
		} else {
			dups++
		}
	}

	return found, added, dups, nil
}

func itemToArticle(item *gofeed.Item, src Source) *models.Article {
	title := strings.TrimSpace(item.Title)
	link := strings.TrimSpace(item.Link)
	if title == "" || link == "" {
		return nil
	}

	article := &models.Article{
		Title:    title,
		URL:      link,
		Source:   src.Name,
		Category: src.Category,
		Language: src.Language,
		Summary:  cleanSummary(item.Description),
		Content:  strings.TrimSpace(item.Content),
	}
	if item.PublishedParsed != nil {
		article.PublishedAt = item.PublishedParsed.UTC()
	}
	return article
}

// cleanSummary strips markup fragments feeds commonly embed in
// descriptions and collapses whitespace.
func cleanSummary(s string) string {
	s = stripTags(s)
	return strings.Join(strings.Fields(s), " ")
}

func stripTags(s string) string {
	var b strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return b.String()
}
