// Package scheduler runs the daily generate-then-upload cycle. The
// generate task produces the video and records it as pending; the
// upload task publishes whatever is pending and clears the record, so
// a failed generate cleanly suppresses that day's upload.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"newscast/config"
	apperrors "newscast/errors"
	"newscast/pipeline"
	"newscast/validation"
)

// Runner is the pipeline surface the scheduler drives.
type Runner interface {
	Run(ctx context.Context, opts pipeline.Options) (*pipeline.RunResult, error)
	UploadResult(ctx context.Context, result *pipeline.RunResult) error
}

type Scheduler struct {
	cfg      config.ScheduleConfig
	language string
	runner   Runner
	state    *StateStore
	logger   *logrus.Logger
	location *time.Location
	cron     *cron.Cron

	// Entry ids assigned by Start. The cron keeps its entries sorted
	// by next fire time, so index position says nothing about which
	// task an entry belongs to.
	generateID cron.EntryID
	uploadID   cron.EntryID
}

func New(cfg config.ScheduleConfig, language string, runner Runner, state *StateStore, logger *logrus.Logger) (*Scheduler, error) {
	const op = "scheduler.New"

	location, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, apperrors.InvalidInput(op, err, "Unknown timezone: "+cfg.Timezone)
	}

	genH, genM, err := validation.ParseTimeOfDay(cfg.GenerateTime)
	if err != nil {
		return nil, err
	}
	upH, upM, err := validation.ParseTimeOfDay(cfg.UploadTime)
	if err != nil {
		return nil, err
	}
	if genH*60+genM >= upH*60+upM {
		return nil, apperrors.InvalidInput(op, nil,
			"generate time must be earlier than upload time")
	}

	return &Scheduler{
		cfg:      cfg,
		language: language,
		runner:   runner,
		state:    state,
		logger:   logger,
		location: location,
		cron:     cron.New(cron.WithLocation(location)),
	}, nil
}

// Start registers both tasks and begins the schedule loop.
func (s *Scheduler) Start() error {
	const op = "Scheduler.Start"

	genH, genM, _ := validation.ParseTimeOfDay(s.cfg.GenerateTime)
	upH, upM, _ := validation.ParseTimeOfDay(s.cfg.UploadTime)

	generateID, err := s.cron.AddFunc(cronSpec(genH, genM), s.generateTask)
	if err != nil {
		return apperrors.Internal(op, err, "Failed to schedule generate task")
	}
	uploadID, err := s.cron.AddFunc(cronSpec(upH, upM), s.uploadTask)
	if err != nil {
		return apperrors.Internal(op, err, "Failed to schedule upload task")
	}
	s.generateID = generateID
	s.uploadID = uploadID

	s.cron.Start()
	s.logger.WithFields(logrus.Fields{
		"generate": s.cfg.GenerateTime,
		"upload":   s.cfg.UploadTime,
		"timezone": s.cfg.Timezone,
	}).Info("Scheduler started")
	return nil
}

// Stop halts the schedule loop, waiting for a running task to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Scheduler stopped")
}

// NextRuns reports the next fire time of each task, generate first.
func (s *Scheduler) NextRuns() (generate, upload time.Time) {
	return s.cron.Entry(s.generateID).Next, s.cron.Entry(s.uploadID).Next
}

// RunNow executes an immediate generate-and-upload pass outside the
// schedule.
func (s *Scheduler) RunNow(ctx context.Context, upload bool) error {
	_, err := s.runner.Run(ctx, pipeline.Options{
		Language:    s.language,
		Upload:      upload,
		ScrapeFresh: true,
	})
	return err
}

// generateTask produces the day's video without uploading and records
// it as pending. No record is written on failure.
func (s *Scheduler) generateTask() {
	ctx := context.Background()
	s.logger.Info("Scheduled generation starting")

	result, err := s.runner.Run(ctx, pipeline.Options{
		Language:    s.language,
		Upload:      false,
		ScrapeFresh: true,
	})
	if err != nil {
		s.logger.WithError(err).Error("Scheduled generation failed, upload will be skipped")
		return
	}

	if err := s.state.SavePending(result); err != nil {
		s.logger.WithError(err).Error("Failed to record pending upload")
		return
	}

	s.logger.WithFields(logrus.Fields{
		"job":   result.JobID,
		"title": result.Title,
	}).Info("Video generated, pending upload")
}

// uploadTask publishes the pending video, if any.
func (s *Scheduler) uploadTask() {
	ctx := context.Background()

	pending, err := s.state.LoadPending()
	if err != nil {
		if apperrors.IsKind(err, apperrors.KindNotFound) {
			s.logger.Info("No pending video, skipping scheduled upload")
		} else {
			s.logger.WithError(err).Error("Failed to load pending upload")
		}
		return
	}

	s.logger.WithFields(logrus.Fields{
		"job":   pending.Result.JobID,
		"title": pending.Result.Title,
	}).Info("Scheduled upload starting")

	if err := s.runner.UploadResult(ctx, &pending.Result); err != nil {
		s.logger.WithError(err).Error("Scheduled upload failed")
		if kind := apperrors.KindOf(err); apperrors.Remediation(kind) != "" {
			s.logger.Warn(apperrors.Remediation(kind))
		}
		// Keep the record so the next cycle can retry.
		return
	}

	if err := s.state.ClearPending(); err != nil {
		s.logger.WithError(err).Error("Failed to clear pending upload")
	}
}

func cronSpec(hour, minute int) string {
	return fmt.Sprintf("%d %d * * *", minute, hour)
}
