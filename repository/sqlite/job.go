package sqlite

import (
	"context"
	"database/sql"
	"time"

	apperrors "newscast/errors"
	"newscast/models"
)

type JobRepo struct {
	db *sql.DB
}

func NewJobRepo(db *sql.DB) *JobRepo {
	return &JobRepo{db: db}
}

func (r *JobRepo) Save(ctx context.Context, job *models.VideoJob) error {
	const op = "JobRepo.Save"

	now := time.Now().UTC()
	if job.CreatedAt.IsZero() {
		job.CreatedAt = now
	}
	job.UpdatedAt = now
	if job.UploadStatus == "" {
		job.UploadStatus = models.UploadPending
	}

	err := retryOnLock(ctx, op, func() error {
		_, err := r.db.ExecContext(ctx, upsertJobQuery,
			job.ID,
			job.Title,
			job.Language,
			string(job.Status),
			job.Duration,
			job.ArticleCount,
			job.ScriptPath,
			job.AudioPath,
			job.VideoPath,
			job.ThumbnailPath,
			job.NotesPath,
			string(job.UploadStatus),
			job.YouTubeID,
			job.YouTubeURL,
			job.Error,
			job.CreatedAt,
			job.UpdatedAt,
			nullTime(job.UploadedAt),
		)
		return err
	})
	if err != nil {
		return apperrors.Internal(op, err, "Failed to save video job")
	}

	return nil
}

func (r *JobRepo) Find(ctx context.Context, id string) (*models.VideoJob, error) {
	const op = "JobRepo.Find"

	job := &models.VideoJob{}
	var status, uploadStatus string
	var uploadedAt sql.NullTime

	err := r.db.QueryRowContext(ctx, findJobQuery, id).Scan(
		&job.ID,
		&job.Title,
		&job.Language,
		&status,
		&job.Duration,
		&job.ArticleCount,
		&job.ScriptPath,
		&job.AudioPath,
		&job.VideoPath,
		&job.ThumbnailPath,
		&job.NotesPath,
		&uploadStatus,
		&job.YouTubeID,
		&job.YouTubeURL,
		&job.Error,
		&job.CreatedAt,
		&job.UpdatedAt,
		&uploadedAt,
	)
	if err == sql.ErrNoRows {
		return nil, apperrors.NotFound(op, nil, "Video job not found")
	}
	if err != nil {
		return nil, apperrors.Internal(op, err, "Failed to query video job")
	}

	job.Status = models.Status(status)
	job.UploadStatus = models.UploadStatus(uploadStatus)
	if uploadedAt.Valid {
		job.UploadedAt = uploadedAt.Time
	}

	return job, nil
}

// SetUploadStatus records the upload outcome. Empty youtubeID and
// youtubeURL leave the stored values untouched.
func (r *JobRepo) SetUploadStatus(ctx context.Context, id string, status models.UploadStatus, youtubeID, youtubeURL string) error {
	const op = "JobRepo.SetUploadStatus"

	now := time.Now().UTC()
	var uploadedAt interface{}
	if status == models.UploadDone {
		uploadedAt = now
	}

	err := retryOnLock(ctx, op, func() error {
		res, err := r.db.ExecContext(ctx, setUploadStatusQuery,
			string(status), youtubeID, youtubeURL, uploadedAt, now, id)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return sql.ErrNoRows
		}
		return nil
	})
	if err == sql.ErrNoRows {
		return apperrors.NotFound(op, nil, "Video job not found")
	}
	if err != nil {
		return apperrors.Internal(op, err, "Failed to update upload status")
	}

	return nil
}
