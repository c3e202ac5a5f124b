package scheduler

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newscast/config"
	apperrors "newscast/errors"
	"newscast/pipeline"
)

type fakeRunner struct {
	runCalls    int
	runErr      error
	lastOpts    pipeline.Options
	uploadCalls int
	uploadErr   error
	uploaded    *pipeline.RunResult
}

func (f *fakeRunner) Run(_ context.Context, opts pipeline.Options) (*pipeline.RunResult, error) {
	f.runCalls++
	f.lastOpts = opts
	if f.runErr != nil {
		return nil, f.runErr
	}
	return &pipeline.RunResult{
		JobID:     "job-1",
		Title:     "Test Episode",
		VideoPath: "/tmp/job-1/final.mp4",
	}, nil
}

func (f *fakeRunner) UploadResult(_ context.Context, result *pipeline.RunResult) error {
	f.uploadCalls++
	f.uploaded = result
	return f.uploadErr
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

func testConfig() config.ScheduleConfig {
	return config.ScheduleConfig{
		GenerateTime: "10:00",
		UploadTime:   "11:00",
		Timezone:     "Asia/Kolkata",
	}
}

func testScheduler(t *testing.T, runner *fakeRunner) *Scheduler {
	t.Helper()
	state := NewStateStore(filepath.Join(t.TempDir(), "pending.json"))
	s, err := New(testConfig(), "en", runner, state, quietLogger())
	require.NoError(t, err)
	return s
}

func TestNewRejectsGenerateAfterUpload(t *testing.T) {
	cfg := testConfig()
	cfg.GenerateTime = "11:30"

	state := NewStateStore(filepath.Join(t.TempDir(), "pending.json"))
	_, err := New(cfg, "en", &fakeRunner{}, state, quietLogger())
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindInvalidInput))
}

func TestNewRejectsBadTimezone(t *testing.T) {
	cfg := testConfig()
	cfg.Timezone = "Mars/Olympus"

	state := NewStateStore(filepath.Join(t.TempDir(), "pending.json"))
	_, err := New(cfg, "en", &fakeRunner{}, state, quietLogger())
	require.Error(t, err)
}

// With generate_time < upload_time, the generate task must be
// scheduled before the upload task on every day.
func TestGenerateScheduledBeforeUpload(t *testing.T) {
	s := testScheduler(t, &fakeRunner{})
	require.NoError(t, s.Start())
	defer s.Stop()

	generate, upload := s.NextRuns()
	require.False(t, generate.IsZero())
	require.False(t, upload.IsZero())

	// The two next fire times are at most a day apart; whichever day
	// each lands on, generate fires at 10:00 and upload at 11:00
	// local time.
	assert.Equal(t, 10, generate.Hour())
	assert.Equal(t, 11, upload.Hour())
	sameDay := generate.YearDay() == upload.YearDay()
	if sameDay {
		assert.True(t, generate.Before(upload), "generate %v not before upload %v", generate, upload)
	} else {
		// Between 10:00 and 11:00 local: today's generate already
		// fired, so the pending upload is still ahead of tomorrow's
		// generate.
		assert.True(t, upload.Before(generate))
	}
}

// The cron keeps its entry slice sorted by next fire time, so between
// the two daily slots the upload entry sorts ahead of the generate
// entry. NextRuns must still report each task's own time.
func TestNextRunsBetweenSlots(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)

	now := time.Now().In(loc)
	if now.Hour() == 0 || now.Hour() == 23 {
		t.Skip("schedule window would cross midnight")
	}
	cfg := config.ScheduleConfig{
		GenerateTime: now.Add(-time.Hour).Format("15:04"),
		UploadTime:   now.Add(time.Hour).Format("15:04"),
		Timezone:     "Asia/Kolkata",
	}

	state := NewStateStore(filepath.Join(t.TempDir(), "pending.json"))
	s, err := New(cfg, "en", &fakeRunner{}, state, quietLogger())
	require.NoError(t, err)
	require.NoError(t, s.Start())
	defer s.Stop()

	generate, upload := s.NextRuns()
	// Today's generate already fired, so its next run is tomorrow,
	// after the upload that is still ahead today.
	assert.True(t, upload.Before(generate), "upload %v not before generate %v", upload, generate)
	assert.Equal(t, now.Add(-time.Hour).Hour(), generate.Hour())
	assert.Equal(t, now.Add(time.Hour).Hour(), upload.Hour())
}

func TestGenerateTaskRecordsPendingUpload(t *testing.T) {
	runner := &fakeRunner{}
	s := testScheduler(t, runner)

	s.generateTask()

	assert.Equal(t, 1, runner.runCalls)
	assert.False(t, runner.lastOpts.Upload, "generate task must not upload")
	assert.True(t, runner.lastOpts.ScrapeFresh)

	pending, err := s.state.LoadPending()
	require.NoError(t, err)
	assert.Equal(t, "job-1", pending.Result.JobID)
	assert.WithinDuration(t, time.Now().UTC(), pending.GeneratedAt, time.Minute)
}

// A failed generate leaves no pending record, so the upload task is a
// no-op.
func TestFailedGenerateSuppressesUpload(t *testing.T) {
	runner := &fakeRunner{runErr: errors.New("no articles")}
	s := testScheduler(t, runner)

	s.generateTask()
	_, err := s.state.LoadPending()
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))

	s.uploadTask()
	assert.Equal(t, 0, runner.uploadCalls)
}

func TestUploadTaskPublishesAndClearsPending(t *testing.T) {
	runner := &fakeRunner{}
	s := testScheduler(t, runner)

	s.generateTask()
	s.uploadTask()

	require.Equal(t, 1, runner.uploadCalls)
	assert.Equal(t, "job-1", runner.uploaded.JobID)

	_, err := s.state.LoadPending()
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound), "pending record not cleared")
}

func TestUploadFailureKeepsPendingForRetry(t *testing.T) {
	runner := &fakeRunner{uploadErr: errors.New("quota exhausted")}
	s := testScheduler(t, runner)

	s.generateTask()
	s.uploadTask()

	require.Equal(t, 1, runner.uploadCalls)
	pending, err := s.state.LoadPending()
	require.NoError(t, err, "record must survive a failed upload")
	assert.Equal(t, "job-1", pending.Result.JobID)
}

func TestRunNow(t *testing.T) {
	runner := &fakeRunner{}
	s := testScheduler(t, runner)

	require.NoError(t, s.RunNow(context.Background(), true))
	assert.Equal(t, 1, runner.runCalls)
	assert.True(t, runner.lastOpts.Upload)
	assert.True(t, runner.lastOpts.ScrapeFresh)
}

func TestStateStoreRoundTrip(t *testing.T) {
	store := NewStateStore(filepath.Join(t.TempDir(), "nested", "pending.json"))

	_, err := store.LoadPending()
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))

	result := &pipeline.RunResult{JobID: "job-9", Title: "Episode", VideoPath: "/tmp/v.mp4"}
	require.NoError(t, store.SavePending(result))

	pending, err := store.LoadPending()
	require.NoError(t, err)
	assert.Equal(t, "job-9", pending.Result.JobID)

	require.NoError(t, store.ClearPending())
	require.NoError(t, store.ClearPending())
}
