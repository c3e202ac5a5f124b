package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"

	apperrors "newscast/errors"
	"newscast/models"
	"newscast/repository"
)

type ArticleRepo struct {
	db *sql.DB
}

func NewArticleRepo(db *sql.DB) *ArticleRepo {
	return &ArticleRepo{db: db}
}

// Save inserts an article, returning false when the URL hash already
// exists. The hash is computed here so callers never forget it.
func (r *ArticleRepo) Save(ctx context.Context, article *models.Article) (bool, error) {
	const op = "ArticleRepo.Save"

	article.HashID = models.HashURL(article.URL)
	if article.ScrapedAt.IsZero() {
		article.ScrapedAt = time.Now().UTC()
	}

	var inserted bool
	err := retryOnLock(ctx, op, func() error {
		res, err := r.db.ExecContext(ctx, insertArticleQuery,
			article.HashID,
			article.Title,
			article.URL,
			article.Source,
			article.Category,
			article.Language,
			article.Summary,
			article.Content,
			nullTime(article.PublishedAt),
			article.ScrapedAt,
		)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		inserted = n > 0
		if inserted {
			if id, err := res.LastInsertId(); err == nil {
				article.ID = id
			}
		}
		return nil
	})
	if err != nil {
		return false, apperrors.Internal(op, errors.Wrap(err, "insert article"), "Failed to save article")
	}

	return inserted, nil
}

// FindUnused returns unscheduled articles newer than the filter's max
// age, most recent first.
func (r *ArticleRepo) FindUnused(ctx context.Context, filter repository.ArticleFilter) ([]*models.Article, error) {
	const op = "ArticleRepo.FindUnused"

	query := findUnusedQuery
	args := []interface{}{time.Now().UTC().Add(-filter.MaxAge)}

	if filter.Language != "" {
		query += " AND language = ?"
		args = append(args, filter.Language)
	}
	if filter.Category != "" {
		query += " AND category = ?"
		args = append(args, filter.Category)
	}

	query += " ORDER BY published_at DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Internal(op, err, "Failed to query articles")
	}
	defer rows.Close()

	var articles []*models.Article
	for rows.Next() {
		article := &models.Article{}
		var published sql.NullTime
		if err := rows.Scan(
			&article.ID,
			&article.HashID,
			&article.Title,
			&article.URL,
			&article.Source,
			&article.Category,
			&article.Language,
			&article.Summary,
			&article.Content,
			&published,
			&article.ScrapedAt,
			&article.Used,
			&article.UsedInVideo,
		); err != nil {
			return nil, apperrors.Internal(op, err, "Failed to scan article")
		}
		if published.Valid {
			article.PublishedAt = published.Time
		}
		articles = append(articles, article)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Internal(op, err, "Failed to iterate articles")
	}

	return articles, nil
}

func (r *ArticleRepo) MarkUsed(ctx context.Context, ids []int64, videoID string) error {
	const op = "ArticleRepo.MarkUsed"

	if len(ids) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.Internal(op, err, "Failed to begin transaction")
	}
	defer tx.Rollback()

	for _, id := range ids {
		if _, err := tx.ExecContext(ctx, markUsedQuery, videoID, id); err != nil {
			return apperrors.Internal(op, err, "Failed to mark article used")
		}
	}

	if err := tx.Commit(); err != nil {
		return apperrors.Internal(op, err, "Failed to commit")
	}

	return nil
}

func nullTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t
}
