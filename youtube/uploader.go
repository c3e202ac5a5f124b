package youtube

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	apperrors "newscast/errors"
)

const (
	defaultUploadBaseURL = "https://www.googleapis.com/upload/youtube/v3"

	// One resumable upload costs about 1600 quota units against a
	// 10000 unit daily budget, so pacing is coarse.
	uploadsPerHour = 4

	maxUploadRetries = 8
)

// Uploader performs resumable video uploads and thumbnail sets.
type Uploader struct {
	client  *http.Client
	logger  *logrus.Logger
	limiter *rate.Limiter

	// Overridable in tests.
	uploadBaseURL string
	backoffBase   time.Duration
}

func NewUploader(client *http.Client, logger *logrus.Logger) *Uploader {
	return &Uploader{
		client:        client,
		logger:        logger,
		limiter:       rate.NewLimiter(rate.Limit(float64(uploadsPerHour)/3600), 1),
		uploadBaseURL: defaultUploadBaseURL,
		backoffBase:   time.Second,
	}
}

type uploadSnippet struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags,omitempty"`
	CategoryID  string   `json:"categoryId,omitempty"`
}

type uploadStatus struct {
	PrivacyStatus           string `json:"privacyStatus"`
	SelfDeclaredMadeForKids bool   `json:"selfDeclaredMadeForKids"`
}

type uploadRequest struct {
	Snippet uploadSnippet `json:"snippet"`
	Status  uploadStatus  `json:"status"`
}

// Upload sends the video through the resumable upload protocol and
// returns the new video id and watch URL.
func (u *Uploader) Upload(ctx context.Context, videoPath string, meta Metadata) (string, string, error) {
	const op = "Uploader.Upload"

	if u.client == nil {
		return "", "", apperrors.Unauthenticated(op, nil, "no authorized client, run --auth first")
	}

	info, err := os.Stat(videoPath)
	if err != nil {
		return "", "", apperrors.InvalidInput(op, err, "Video file not found: "+videoPath)
	}

	if err := u.limiter.Wait(ctx); err != nil {
		return "", "", apperrors.Internal(op, err, "Upload pacing interrupted")
	}

	u.logger.WithFields(logrus.Fields{
		"title": meta.Title,
		"size":  info.Size(),
	}).Info("Starting video upload")

	location, err := u.startSession(ctx, meta, info.Size())
	if err != nil {
		return "", "", err
	}

	videoID, err := u.sendFile(ctx, location, videoPath, info.Size())
	if err != nil {
		return "", "", err
	}

	watchURL := "https://www.youtube.com/watch?v=" + videoID
	u.logger.WithFields(logrus.Fields{
		"video_id": videoID,
		"url":      watchURL,
	}).Info("Video uploaded")

	return videoID, watchURL, nil
}

func (u *Uploader) startSession(ctx context.Context, meta Metadata, size int64) (string, error) {
	const op = "Uploader.startSession"

	body, err := json.Marshal(uploadRequest{
		Snippet: uploadSnippet{
			Title:       meta.Title,
			Description: meta.Description,
			Tags:        meta.Tags,
			CategoryID:  meta.CategoryID,
		},
		Status: uploadStatus{PrivacyStatus: meta.PrivacyStatus},
	})
	if err != nil {
		return "", apperrors.Internal(op, err, "Failed to encode upload metadata")
	}

	endpoint := u.uploadBaseURL + "/videos?uploadType=resumable&part=snippet,status"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", apperrors.Internal(op, err, "Failed to build session request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Upload-Content-Type", "video/*")
	req.Header.Set("X-Upload-Content-Length", strconv.FormatInt(size, 10))

	resp, err := u.client.Do(req)
	if err != nil {
		return "", apperrors.Internal(op, err, "Upload session request failed")
	}
	defer resp.Body.Close()

	if err := u.classifyStatus(op, resp); err != nil {
		return "", err
	}

	location := resp.Header.Get("Location")
	if location == "" {
		return "", apperrors.Internal(op, nil, "Upload session response missing Location")
	}
	return location, nil
}

// sendFile PUTs the video bytes to the session URL, retrying
// transient server errors with exponential backoff.
func (u *Uploader) sendFile(ctx context.Context, location, videoPath string, size int64) (string, error) {
	const op = "Uploader.sendFile"

	backoff := u.backoffBase
	var lastErr error

	for attempt := 0; attempt <= maxUploadRetries; attempt++ {
		if attempt > 0 {
			u.logger.WithFields(logrus.Fields{
				"attempt": attempt,
				"wait":    backoff,
			}).Warn("Retrying video upload")
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", apperrors.Internal(op, ctx.Err(), "Upload cancelled")
			}
			backoff *= 2
		}

		videoID, retryable, err := u.putOnce(ctx, location, videoPath, size)
		if err == nil {
			return videoID, nil
		}
		lastErr = err
		if !retryable {
			return "", err
		}
	}

	return "", apperrors.Internal(op, lastErr, "Upload failed after retries")
}

func (u *Uploader) putOnce(ctx context.Context, location, videoPath string, size int64) (videoID string, retryable bool, err error) {
	const op = "Uploader.putOnce"

	file, err := os.Open(videoPath)
	if err != nil {
		return "", false, apperrors.Internal(op, err, "Failed to open video file")
	}
	defer file.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, location, file)
	if err != nil {
		return "", false, apperrors.Internal(op, err, "Failed to build upload request")
	}
	req.ContentLength = size
	req.Header.Set("Content-Type", "video/*")

	resp, err := u.client.Do(req)
	if err != nil {
		return "", true, apperrors.Internal(op, err, "Upload request failed")
	}
	defer resp.Body.Close()

	if isRetriableStatus(resp.StatusCode) {
		return "", true, apperrors.Internal(op,
			fmt.Errorf("upload returned %d", resp.StatusCode), "Transient upload failure")
	}
	if err := u.classifyStatus(op, resp); err != nil {
		return "", false, err
	}

	var parsed struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", false, apperrors.Internal(op, err, "Unparseable upload response")
	}
	if parsed.ID == "" {
		return "", false, apperrors.Internal(op, nil, "Upload response missing video id")
	}

	return parsed.ID, false, nil
}

// SetThumbnail uploads the custom thumbnail for a video. Accounts
// without phone verification cannot set thumbnails; callers should
// treat that failure as non-fatal.
func (u *Uploader) SetThumbnail(ctx context.Context, videoID, thumbnailPath string) error {
	const op = "Uploader.SetThumbnail"

	if u.client == nil {
		return apperrors.Unauthenticated(op, nil, "no authorized client, run --auth first")
	}

	data, err := os.ReadFile(thumbnailPath)
	if err != nil {
		return apperrors.InvalidInput(op, err, "Thumbnail file not found: "+thumbnailPath)
	}

	endpoint := u.uploadBaseURL + "/thumbnails/set?videoId=" + videoID
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return apperrors.Internal(op, err, "Failed to build thumbnail request")
	}
	req.Header.Set("Content-Type", "image/jpeg")

	resp, err := u.client.Do(req)
	if err != nil {
		return apperrors.Internal(op, err, "Thumbnail request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusForbidden {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
		if strings.Contains(string(body), "quota") {
			return apperrors.QuotaExceeded(op, nil, "API quota exhausted")
		}
		return apperrors.ChannelUnverified(op, nil,
			"Thumbnail rejected. The channel likely needs phone verification.")
	}
	if resp.StatusCode != http.StatusOK {
		return apperrors.Internal(op,
			fmt.Errorf("thumbnail set returned %d", resp.StatusCode), "Thumbnail upload failed")
	}

	u.logger.WithField("video_id", videoID).Info("Thumbnail set")
	return nil
}

// classifyStatus maps API error responses to the error taxonomy.
func (u *Uploader) classifyStatus(op string, resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusUnauthorized:
		return apperrors.Unauthenticated(op, nil, "Credential rejected by the API")
	case resp.StatusCode == http.StatusForbidden:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
		if strings.Contains(string(body), "quota") {
			return apperrors.QuotaExceeded(op, nil, "API quota exhausted")
		}
		return apperrors.AuthDenied(op,
			fmt.Errorf("api returned 403: %s", strings.TrimSpace(string(body))),
			"The API refused the request for this account")
	case resp.StatusCode >= 400:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
		return apperrors.Internal(op,
			fmt.Errorf("api returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body))),
			"API request failed")
	default:
		return nil
	}
}

func isRetriableStatus(code int) bool {
	switch code {
	case 500, 502, 503, 504:
		return true
	}
	return false
}
