package sqlite

import (
	"context"
	"database/sql"

	apperrors "newscast/errors"
	"newscast/repository"
)

const statsQuery = `
    SELECT
        (SELECT COUNT(*) FROM articles),
        (SELECT COUNT(*) FROM articles WHERE is_used = 1),
        (SELECT COUNT(*) FROM articles WHERE is_used = 0),
        (SELECT COUNT(*) FROM videos),
        (SELECT COUNT(*) FROM videos WHERE upload_status = 'uploaded')
`

// Stats reports article and video counts, used by the --info command.
func Stats(ctx context.Context, db *sql.DB) (*repository.Statistics, error) {
	const op = "sqlite.Stats"

	stats := &repository.Statistics{}
	err := db.QueryRowContext(ctx, statsQuery).Scan(
		&stats.TotalArticles,
		&stats.UsedArticles,
		&stats.UnusedArticles,
		&stats.TotalVideos,
		&stats.UploadedVideos,
	)
	if err != nil {
		return nil, apperrors.Internal(op, err, "Failed to query statistics")
	}

	return stats, nil
}
