package sqlite

import (
	"context"
	"database/sql"

	apperrors "newscast/errors"
	"newscast/repository"
)

type ScrapeLogRepo struct {
	db *sql.DB
}

func NewScrapeLogRepo(db *sql.DB) *ScrapeLogRepo {
	return &ScrapeLogRepo{db: db}
}

func (r *ScrapeLogRepo) Log(ctx context.Context, entry *repository.ScrapeLog) error {
	const op = "ScrapeLogRepo.Log"

	err := retryOnLock(ctx, op, func() error {
		_, err := r.db.ExecContext(ctx, insertScrapeLogQuery,
			entry.Source,
			entry.Found,
			entry.New,
			entry.Duplicates,
			entry.Status,
			entry.Errors,
			entry.StartedAt,
			nullTime(entry.FinishedAt),
		)
		return err
	})
	if err != nil {
		return apperrors.Internal(op, err, "Failed to record scrape log")
	}

	return nil
}
