// Package pipeline runs one news-to-video generation pass: select
// articles, write the script, synthesize narration, render the
// presenter, compose the video and thumbnail, and optionally upload.
package pipeline

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"newscast/config"
	apperrors "newscast/errors"
	"newscast/models"
	"newscast/repository"
	"newscast/scraper"
	"newscast/youtube"
)

// Stage interfaces, satisfied by the concrete packages and by test
// fakes.
type (
	Scraper interface {
		ScrapeAll(ctx context.Context, sources []scraper.Source) (*scraper.Result, error)
	}
	ScriptWriter interface {
		WriteScript(ctx context.Context, articles []*models.Article, language string) (*models.Script, error)
	}
	Synthesizer interface {
		Synthesize(ctx context.Context, text, language, outPath string) (float64, error)
	}
	AvatarGenerator interface {
		Generate(ctx context.Context, audioPath, outPath string) (string, error)
	}
	Composer interface {
		Compose(ctx context.Context, presenterPath, title, date, outPath string) error
		Thumbnail(ctx context.Context, videoPath, title, outPath string) error
	}
	NotesUploader interface {
		UploadNotes(ctx context.Context, key, content string) (string, error)
	}
	VideoUploader interface {
		Upload(ctx context.Context, videoPath string, meta youtube.Metadata) (string, string, error)
		SetThumbnail(ctx context.Context, videoID, thumbnailPath string) error
	}
	NotesRenderer func(script *models.Script) string
)

// Options select what a single run does.
type Options struct {
	Language    string
	Upload      bool
	TestMode    bool // upload as private
	ScrapeFresh bool // scrape sources before selecting articles
}

// RunResult carries everything a later upload needs.
type RunResult struct {
	JobID         string           `json:"job_id"`
	Title         string           `json:"title"`
	Date          string           `json:"date"`
	Language      string           `json:"language"`
	Headlines     []string         `json:"headlines"`
	ScriptPath    string           `json:"script_path"`
	AudioPath     string           `json:"audio_path"`
	VideoPath     string           `json:"video_path"`
	ThumbnailPath string           `json:"thumbnail_path"`
	NotesPath     string           `json:"notes_path"`
	NotesURL      string           `json:"notes_url,omitempty"`
	Metadata      youtube.Metadata `json:"metadata"`
	Duration      float64          `json:"duration"`
	ArticleCount  int              `json:"article_count"`
	YouTubeID     string           `json:"youtube_id,omitempty"`
	YouTubeURL    string           `json:"youtube_url,omitempty"`
	Uploaded      bool             `json:"uploaded"`
}

type Pipeline struct {
	cfg      *config.Config
	sources  []scraper.Source
	articles repository.ArticleRepository
	jobs     repository.JobRepository
	logger   *logrus.Logger

	scraper     Scraper
	writer      ScriptWriter
	synthesizer Synthesizer
	avatar      AvatarGenerator
	composer    Composer
	notes       NotesUploader // nil when object storage is disabled
	renderNotes NotesRenderer
	uploader    VideoUploader
}

type Deps struct {
	Sources     []scraper.Source
	Articles    repository.ArticleRepository
	Jobs        repository.JobRepository
	Scraper     Scraper
	Writer      ScriptWriter
	Synthesizer Synthesizer
	Avatar      AvatarGenerator
	Composer    Composer
	Notes       NotesUploader
	RenderNotes NotesRenderer
	Uploader    VideoUploader
}

func New(cfg *config.Config, deps Deps, logger *logrus.Logger) *Pipeline {
	return &Pipeline{
		cfg:         cfg,
		sources:     deps.Sources,
		articles:    deps.Articles,
		jobs:        deps.Jobs,
		logger:      logger,
		scraper:     deps.Scraper,
		writer:      deps.Writer,
		synthesizer: deps.Synthesizer,
		avatar:      deps.Avatar,
		composer:    deps.Composer,
		notes:       deps.Notes,
		renderNotes: deps.RenderNotes,
		uploader:    deps.Uploader,
	}
}

// Run executes the stages strictly in sequence. The first stage
// failure terminates the run with the job marked failed.
func (p *Pipeline) Run(ctx context.Context, opts Options) (*RunResult, error) {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.Pipeline.ProcessTimeout)
	defer cancel()

	job := &models.VideoJob{
		ID:       uuid.NewString(),
		Language: opts.Language,
		Status:   models.StatusProcessing,
	}
	if err := p.jobs.Save(ctx, job); err != nil {
		return nil, err
	}

	result, err := p.generate(ctx, job, opts)
	if err != nil {
		job.Status = models.StatusFailed
		job.Error = err.Error()
		if saveErr := p.jobs.Save(ctx, job); saveErr != nil {
			p.logger.WithError(saveErr).Error("Failed to record job failure")
		}
		return nil, err
	}

	applyArtifacts(job, result)

	if opts.Upload {
		if err := p.UploadResult(ctx, result); err != nil {
			// Generation succeeded; the artifact can be uploaded
			// manually or by the scheduled upload task later.
			job.Status = models.StatusCompleted
			job.UploadStatus = models.UploadFailed
			job.Error = err.Error()
			if saveErr := p.jobs.Save(ctx, job); saveErr != nil {
				p.logger.WithError(saveErr).Error("Failed to record upload failure")
			}
			return result, err
		}
	}

	job.Status = models.StatusCompleted
	job.YouTubeID = result.YouTubeID
	job.YouTubeURL = result.YouTubeURL
	if result.Uploaded {
		job.UploadStatus = models.UploadDone
		job.UploadedAt = time.Now().UTC()
	} else if !opts.Upload {
		job.UploadStatus = models.UploadSkipped
	}
	if err := p.jobs.Save(ctx, job); err != nil {
		return nil, err
	}

	return result, nil
}

// applyArtifacts copies the generated artifact fields onto the job
// record so they persist even when a later upload fails.
func applyArtifacts(job *models.VideoJob, result *RunResult) {
	job.Title = result.Title
	job.Duration = result.Duration
	job.ArticleCount = result.ArticleCount
	job.ScriptPath = result.ScriptPath
	job.AudioPath = result.AudioPath
	job.VideoPath = result.VideoPath
	job.ThumbnailPath = result.ThumbnailPath
	job.NotesPath = result.NotesPath
}

func (p *Pipeline) generate(ctx context.Context, job *models.VideoJob, opts Options) (*RunResult, error) {
	const op = "Pipeline.generate"

	if opts.ScrapeFresh {
		if _, err := p.scraper.ScrapeAll(ctx, p.sources); err != nil {
			return nil, err
		}
	}

	articles, err := scraper.SelectArticles(ctx, p.articles, repository.ArticleFilter{
		Language: opts.Language,
		MaxAge:   p.cfg.Scraper.MaxAge,
		Limit:    p.cfg.Pipeline.ArticlesPerVideo,
	})
	if err != nil {
		return nil, err
	}
	if len(articles) == 0 {
		return nil, apperrors.NotFound(op, nil,
			"No unused articles available. Run a scrape or wait for fresh news.")
	}

	p.logger.WithFields(logrus.Fields{
		"job":      job.ID,
		"articles": len(articles),
		"language": opts.Language,
	}).Info("Generating video")

	script, err := p.writer.WriteScript(ctx, articles, opts.Language)
	if err != nil {
		return nil, err
	}

	workDir := filepath.Join(p.cfg.OutputDir, job.ID)
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return nil, apperrors.Internal(op, err, "Failed to create work directory")
	}

	result := &RunResult{
		JobID:        job.ID,
		Title:        script.Title,
		Date:         script.Date,
		Language:     script.Language,
		ArticleCount: len(articles),
	}
	for _, a := range articles {
		result.Headlines = append(result.Headlines, a.Title)
	}

	result.ScriptPath = filepath.Join(workDir, "script.json")
	if err := writeJSON(result.ScriptPath, script); err != nil {
		return nil, err
	}

	result.AudioPath = filepath.Join(workDir, "narration.mp3")
	duration, err := p.synthesizer.Synthesize(ctx, script.TTSText(), opts.Language, result.AudioPath)
	if err != nil {
		return nil, err
	}
	result.Duration = duration

	presenterPath := filepath.Join(workDir, "presenter.mp4")
	method, err := p.avatar.Generate(ctx, result.AudioPath, presenterPath)
	if err != nil {
		return nil, err
	}
	p.logger.WithField("method", method).Debug("Presenter video ready")

	result.VideoPath = filepath.Join(workDir, "final.mp4")
	if err := p.composer.Compose(ctx, presenterPath, script.Title, script.Date, result.VideoPath); err != nil {
		return nil, err
	}

	result.ThumbnailPath = filepath.Join(workDir, "thumbnail.jpg")
	if err := p.composer.Thumbnail(ctx, result.VideoPath, script.Title, result.ThumbnailPath); err != nil {
		return nil, err
	}

	notesContent := p.renderNotes(script)
	result.NotesPath = filepath.Join(workDir, "notes.md")
	if err := os.WriteFile(result.NotesPath, []byte(notesContent), 0o644); err != nil {
		return nil, apperrors.Internal(op, err, "Failed to write notes")
	}
	if p.notes != nil {
		url, err := p.notes.UploadNotes(ctx, "notes/"+job.ID+".md", notesContent)
		if err != nil {
			p.logger.WithError(err).Warn("Notes upload failed, description will omit the link")
		} else {
			result.NotesURL = url
		}
	}

	privacy := p.cfg.YouTube.PrivacyStatus
	if opts.TestMode {
		privacy = "private"
	}
	result.Metadata = youtube.BuildMetadata(script, result.NotesURL, p.cfg.YouTube.CategoryID, privacy)

	ids := make([]int64, 0, len(articles))
	for _, a := range articles {
		ids = append(ids, a.ID)
	}
	if err := p.articles.MarkUsed(ctx, ids, job.ID); err != nil {
		return nil, err
	}

	return result, nil
}

// UploadResult pushes a generated video to YouTube and records the
// outcome on the job. A thumbnail rejection degrades to a warning.
func (p *Pipeline) UploadResult(ctx context.Context, result *RunResult) error {
	if job, err := p.jobs.Find(ctx, result.JobID); err == nil && job.UploadStatus == models.UploadDone {
		// A retried upload whose previous attempt already published.
		result.YouTubeID = job.YouTubeID
		result.YouTubeURL = job.YouTubeURL
		result.Uploaded = true
		p.logger.WithField("job", job.ID).Info("Video already uploaded, skipping")
		return nil
	}

	videoID, watchURL, err := p.uploader.Upload(ctx, result.VideoPath, result.Metadata)
	if err != nil {
		if setErr := p.jobs.SetUploadStatus(ctx, result.JobID, models.UploadFailed, "", ""); setErr != nil {
			p.logger.WithError(setErr).Error("Failed to record upload failure")
		}
		return err
	}

	result.YouTubeID = videoID
	result.YouTubeURL = watchURL
	result.Uploaded = true

	if err := p.uploader.SetThumbnail(ctx, videoID, result.ThumbnailPath); err != nil {
		if apperrors.IsKind(err, apperrors.KindChannelUnverified) {
			p.logger.Warn(apperrors.Remediation(apperrors.KindChannelUnverified))
		} else {
			p.logger.WithError(err).Warn("Thumbnail upload failed")
		}
	}

	return p.jobs.SetUploadStatus(ctx, result.JobID, models.UploadDone, videoID, watchURL)
}

func writeJSON(path string, v interface{}) error {
	const op = "pipeline.writeJSON"

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return apperrors.Internal(op, err, "Failed to encode artifact")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return apperrors.Internal(op, err, "Failed to write artifact")
	}
	return nil
}
