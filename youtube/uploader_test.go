package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "newscast/errors"
)

func testUploader(baseURL string) *Uploader {
	u := NewUploader(http.DefaultClient, quietLogger())
	u.uploadBaseURL = baseURL
	u.backoffBase = time.Millisecond
	return u
}

func writeVideoFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "video.mp4")
	require.NoError(t, os.WriteFile(path, []byte("fake video bytes"), 0o644))
	return path
}

func testMetadata() Metadata {
	return Metadata{
		Title:         "Daily News Update | August 31, 2026",
		Description:   "Today's stories.",
		Tags:          []string{"news"},
		CategoryID:    "25",
		PrivacyStatus: "public",
	}
}

func TestUploadResumableFlow(t *testing.T) {
	var putBody []byte
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/videos", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "resumable", r.URL.Query().Get("uploadType"))
		assert.Equal(t, "16", r.Header.Get("X-Upload-Content-Length"))

		var req uploadRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Daily News Update | August 31, 2026", req.Snippet.Title)
		assert.Equal(t, "25", req.Snippet.CategoryID)
		assert.Equal(t, "public", req.Status.PrivacyStatus)

		w.Header().Set("Location", srv.URL+"/session")
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/session", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		putBody, _ = io.ReadAll(r.Body)
		fmt.Fprint(w, `{"id":"vid-123"}`)
	})

	u := testUploader(srv.URL)
	id, watchURL, err := u.Upload(context.Background(), writeVideoFile(t), testMetadata())
	require.NoError(t, err)
	assert.Equal(t, "vid-123", id)
	assert.Equal(t, "https://www.youtube.com/watch?v=vid-123", watchURL)
	assert.Equal(t, "fake video bytes", string(putBody))
}

func TestUploadRetriesTransientServerErrors(t *testing.T) {
	var putCalls atomic.Int32
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/videos", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Location", srv.URL+"/session")
	})
	mux.HandleFunc("/session", func(w http.ResponseWriter, _ *http.Request) {
		if putCalls.Add(1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, `{"id":"vid-456"}`)
	})

	u := testUploader(srv.URL)
	id, _, err := u.Upload(context.Background(), writeVideoFile(t), testMetadata())
	require.NoError(t, err)
	assert.Equal(t, "vid-456", id)
	assert.Equal(t, int32(3), putCalls.Load())
}

func TestUploadMapsQuotaExhaustion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"error":{"errors":[{"reason":"quotaExceeded"}],"message":"quota exceeded"}}`)
	}))
	defer srv.Close()

	u := testUploader(srv.URL)
	_, _, err := u.Upload(context.Background(), writeVideoFile(t), testMetadata())
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindQuotaExceeded))
}

func TestUploadMapsUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	u := testUploader(srv.URL)
	_, _, err := u.Upload(context.Background(), writeVideoFile(t), testMetadata())
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindUnauthenticated))
}

func TestSetThumbnail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "vid-123", r.URL.Query().Get("videoId"))
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, "jpeg bytes", string(body))
		fmt.Fprint(w, `{}`)
	}))
	defer srv.Close()

	thumb := filepath.Join(t.TempDir(), "thumb.jpg")
	require.NoError(t, os.WriteFile(thumb, []byte("jpeg bytes"), 0o644))

	u := testUploader(srv.URL)
	require.NoError(t, u.SetThumbnail(context.Background(), "vid-123", thumb))
}

func TestSetThumbnailMapsUnverifiedChannel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"error":{"message":"The account is not verified."}}`)
	}))
	defer srv.Close()

	thumb := filepath.Join(t.TempDir(), "thumb.jpg")
	require.NoError(t, os.WriteFile(thumb, []byte("x"), 0o644))

	u := testUploader(srv.URL)
	err := u.SetThumbnail(context.Background(), "vid-123", thumb)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindChannelUnverified))
}

func TestUploadRejectsMissingFile(t *testing.T) {
	u := testUploader("http://unused")
	_, _, err := u.Upload(context.Background(), "/nonexistent.mp4", testMetadata())
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindInvalidInput))
}
