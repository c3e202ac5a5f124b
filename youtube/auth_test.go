package youtube

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"newscast/config"
	apperrors "newscast/errors"
)

const clientSecretsFixture = `{
  "installed": {
    "client_id": "test-client-id",
    "client_secret": "test-client-secret",
    "auth_uri": "https://accounts.google.com/o/oauth2/auth",
    "token_uri": "https://oauth2.googleapis.com/token",
    "redirect_uris": ["http://localhost"]
  }
}`

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

func testAuthenticator(t *testing.T) *Authenticator {
	t.Helper()
	dir := t.TempDir()

	secretsPath := filepath.Join(dir, "client_secrets.json")
	require.NoError(t, os.WriteFile(secretsPath, []byte(clientSecretsFixture), 0o600))

	a, err := NewAuthenticator(config.YouTubeConfig{
		ClientSecretsFile: secretsPath,
		TokenFile:         filepath.Join(dir, "token.json"),
		CallbackPort:      0,
	}, quietLogger())
	require.NoError(t, err)
	return a
}

func validToken() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  "access-token",
		RefreshToken: "refresh-token",
		TokenType:    "Bearer",
		Expiry:       time.Now().Add(time.Hour),
	}
}

func TestTokenStoreRoundTrip(t *testing.T) {
	store := NewTokenStore(filepath.Join(t.TempDir(), "nested", "token.json"))

	_, err := store.Load()
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
	assert.False(t, store.Exists())

	require.NoError(t, store.Save(validToken()))
	assert.True(t, store.Exists())

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "access-token", loaded.AccessToken)
	assert.Equal(t, "refresh-token", loaded.RefreshToken)

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	require.NoError(t, store.Clear())
	assert.False(t, store.Exists())
	// Clearing twice is fine.
	require.NoError(t, store.Clear())
}

func TestAuthenticateUsesValidStoredToken(t *testing.T) {
	a := testAuthenticator(t)
	require.NoError(t, a.store.Save(validToken()))

	token, err := a.Authenticate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "access-token", token.AccessToken)
}

func TestAuthenticateWithoutTokenFailsWhenNotInteractive(t *testing.T) {
	a := testAuthenticator(t)

	_, err := a.Authenticate(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindUnauthenticated))
}

// Deleting the token file must force the full consent flow rather
// than a silent refresh.
func TestDeletedTokenForcesConsentFlow(t *testing.T) {
	a := testAuthenticator(t)
	require.NoError(t, a.store.Save(validToken()))
	require.NoError(t, a.store.Clear())

	_, err := a.Authenticate(context.Background())
	assert.True(t, apperrors.IsKind(err, apperrors.KindUnauthenticated))

	// In interactive mode the consent flow starts: the auth URL is
	// surfaced instead of any refresh attempt.
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"new-access","refresh_token":"new-refresh","token_type":"Bearer","expires_in":3600}`)
	}))
	defer tokenSrv.Close()
	a.oauth.Endpoint = oauth2.Endpoint{
		AuthURL:  tokenSrv.URL + "/auth",
		TokenURL: tokenSrv.URL + "/token",
	}
	a.SetInteractive(true)

	authURLCh := make(chan string, 1)
	a.openURL = func(u string) { authURLCh <- u }

	go func() {
		rawURL := <-authURLCh
		parsed, err := url.Parse(rawURL)
		if err != nil {
			return
		}
		q := parsed.Query()
		redirect := q.Get("redirect_uri") + "?state=" + q.Get("state") + "&code=auth-code"
		resp, err := http.Get(redirect)
		if err == nil {
			resp.Body.Close()
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	token, err := a.Authenticate(ctx)
	require.NoError(t, err)
	assert.Equal(t, "new-access", token.AccessToken)
	assert.True(t, a.store.Exists(), "consent flow must persist the token")
}

func TestConsentFlowDeclinedReturnsAuthDenied(t *testing.T) {
	a := testAuthenticator(t)
	a.SetInteractive(true)

	authURLCh := make(chan string, 1)
	a.openURL = func(u string) { authURLCh <- u }

	go func() {
		rawURL := <-authURLCh
		parsed, err := url.Parse(rawURL)
		if err != nil {
			return
		}
		q := parsed.Query()
		redirect := q.Get("redirect_uri") + "?state=" + q.Get("state") + "&error=access_denied"
		resp, err := http.Get(redirect)
		if err == nil {
			resp.Body.Close()
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := a.Authenticate(ctx)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindAuthDenied))
}

func TestRefreshMapsInvalidGrantToTokenExpired(t *testing.T) {
	a := testAuthenticator(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":"invalid_grant","error_description":"Token has been revoked."}`)
	}))
	defer srv.Close()
	a.oauth.Endpoint = oauth2.Endpoint{TokenURL: srv.URL}

	expired := validToken()
	expired.Expiry = time.Now().Add(-time.Hour)
	require.NoError(t, a.store.Save(expired))

	_, err := a.Refresh(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindTokenExpired))
}

func TestRefreshPersistsNewToken(t *testing.T) {
	a := testAuthenticator(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"fresh-access","token_type":"Bearer","expires_in":3600}`)
	}))
	defer srv.Close()
	a.oauth.Endpoint = oauth2.Endpoint{TokenURL: srv.URL}

	expired := validToken()
	expired.Expiry = time.Now().Add(-time.Hour)
	require.NoError(t, a.store.Save(expired))

	refreshed, err := a.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fresh-access", refreshed.AccessToken)
	// Refresh responses often omit the refresh token; the stored one
	// must be carried forward.
	assert.Equal(t, "refresh-token", refreshed.RefreshToken)

	stored, err := a.store.Load()
	require.NoError(t, err)
	assert.Equal(t, "fresh-access", stored.AccessToken)
}

func TestInfoReturnsChannelIdentity(t *testing.T) {
	a := testAuthenticator(t)
	require.NoError(t, a.store.Save(validToken()))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer access-token", r.Header.Get("Authorization"))
		assert.Equal(t, "true", r.URL.Query().Get("mine"))
		fmt.Fprint(w, `{"items":[{"id":"UC123","snippet":{"title":"Test Channel"},"statistics":{"subscriberCount":"42","videoCount":"7"}}]}`)
	}))
	defer srv.Close()
	a.apiBaseURL = srv.URL

	info, err := a.Info(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "UC123", info.ID)
	assert.Equal(t, "Test Channel", info.Title)
	assert.Equal(t, "42", info.Subscribers)
}

// After Revoke, Info must fail Unauthenticated until a new
// Authenticate succeeds.
func TestRevokeInvalidatesCredential(t *testing.T) {
	a := testAuthenticator(t)
	require.NoError(t, a.store.Save(validToken()))

	var revokedToken string
	revokeSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		revokedToken = r.Form.Get("token")
	}))
	defer revokeSrv.Close()
	a.revokeURL = revokeSrv.URL

	require.NoError(t, a.Revoke(context.Background()))
	assert.Equal(t, "refresh-token", revokedToken)
	assert.False(t, a.store.Exists())

	_, err := a.Info(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindUnauthenticated))
}

func TestInfoMapsUnauthorizedStatus(t *testing.T) {
	a := testAuthenticator(t)
	require.NoError(t, a.store.Save(validToken()))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()
	a.apiBaseURL = srv.URL

	_, err := a.Info(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindUnauthenticated))
}
