package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"newscast/config"
	apperrors "newscast/errors"
)

// Scopes requested during the consent flow: upload plus channel
// management for thumbnails and metadata edits.
var scopes = []string{
	"https://www.googleapis.com/auth/youtube.upload",
	"https://www.googleapis.com/auth/youtube",
	"https://www.googleapis.com/auth/youtube.force-ssl",
}

const (
	defaultAPIBaseURL = "https://www.googleapis.com/youtube/v3"
	defaultRevokeURL  = "https://oauth2.googleapis.com/revoke"
)

// ChannelInfo is the identity returned by a read-only profile call.
type ChannelInfo struct {
	ID          string
	Title       string
	Subscribers string
	VideoCount  string
}

// Authenticator maintains the OAuth token through its four states:
// unauthenticated, authenticated, expired and revoked.
type Authenticator struct {
	oauth       *oauth2.Config
	store       *TokenStore
	logger      *logrus.Logger
	interactive bool
	port        int

	// Overridable in tests.
	apiBaseURL string
	revokeURL  string
	httpClient *http.Client
	openURL    func(authURL string)
}

func NewAuthenticator(cfg config.YouTubeConfig, logger *logrus.Logger) (*Authenticator, error) {
	const op = "youtube.NewAuthenticator"

	data, err := os.ReadFile(cfg.ClientSecretsFile)
	if err != nil {
		return nil, apperrors.InvalidInput(op, err,
			"Client secrets file not found: "+cfg.ClientSecretsFile)
	}

	oauthCfg, err := google.ConfigFromJSON(data, scopes...)
	if err != nil {
		return nil, apperrors.InvalidInput(op, err, "Invalid client secrets file")
	}

	return &Authenticator{
		oauth:      oauthCfg,
		store:      NewTokenStore(cfg.TokenFile),
		logger:     logger,
		port:       cfg.CallbackPort,
		apiBaseURL: defaultAPIBaseURL,
		revokeURL:  defaultRevokeURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		openURL: func(authURL string) {
			fmt.Printf("\nOpen this URL in your browser to authorize the application:\n\n%s\n\n", authURL)
		},
	}, nil
}

// SetInteractive enables the browser consent flow. Scheduled runs
// leave it off so a missing token fails instead of blocking on a
// browser that will never open.
func (a *Authenticator) SetInteractive(interactive bool) {
	a.interactive = interactive
}

// Authenticate returns a usable token: a valid stored one, a silent
// refresh of an expired one, or, in interactive mode, a token from a
// full browser consent flow.
func (a *Authenticator) Authenticate(ctx context.Context) (*oauth2.Token, error) {
	const op = "Authenticator.Authenticate"

	token, err := a.store.Load()
	if err == nil {
		if token.Valid() {
			return token, nil
		}
		if token.RefreshToken != "" {
			refreshed, refreshErr := a.Refresh(ctx)
			if refreshErr == nil {
				return refreshed, nil
			}
			if !a.interactive {
				return nil, refreshErr
			}
			a.logger.WithError(refreshErr).Warn("Silent refresh failed, starting consent flow")
		}
	}

	if !a.interactive {
		return nil, apperrors.Unauthenticated(op, nil,
			"No usable credential. Run with --auth to authorize.")
	}

	return a.consentFlow(ctx)
}

// Refresh exchanges the stored refresh token for a new access token
// and persists the result.
func (a *Authenticator) Refresh(ctx context.Context) (*oauth2.Token, error) {
	const op = "Authenticator.Refresh"

	token, err := a.store.Load()
	if err != nil {
		return nil, apperrors.Unauthenticated(op, err, "No stored token to refresh")
	}
	if token.RefreshToken == "" {
		return nil, apperrors.Unauthenticated(op, nil, "Stored token has no refresh token")
	}

	refreshed, err := a.oauth.TokenSource(ctx, token).Token()
	if err != nil {
		if isInvalidGrant(err) {
			return nil, apperrors.TokenExpired(op, err,
				"Refresh token revoked, full re-authentication required")
		}
		return nil, apperrors.Internal(op, err, "Token refresh failed")
	}

	if refreshed.RefreshToken == "" {
		refreshed.RefreshToken = token.RefreshToken
	}
	if err := a.store.Save(refreshed); err != nil {
		return nil, err
	}

	a.logger.Info("Access token refreshed")
	return refreshed, nil
}

// Revoke invalidates the credential at the provider and deletes the
// local token file. The next operation needs a full consent flow.
func (a *Authenticator) Revoke(ctx context.Context) error {
	const op = "Authenticator.Revoke"

	token, err := a.store.Load()
	if err != nil {
		// Nothing stored; ensure the file is gone.
		return a.store.Clear()
	}

	credential := token.RefreshToken
	if credential == "" {
		credential = token.AccessToken
	}
	if credential != "" {
		form := url.Values{"token": {credential}}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.revokeURL,
			strings.NewReader(form.Encode()))
		if err != nil {
			return apperrors.Internal(op, err, "Failed to build revoke request")
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		resp, err := a.httpClient.Do(req)
		if err != nil {
			a.logger.WithError(err).Warn("Revocation endpoint unreachable, deleting local token anyway")
		} else {
			resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				a.logger.WithField("status", resp.StatusCode).
					Warn("Revocation endpoint rejected the token, deleting local token anyway")
			}
		}
	}

	if err := a.store.Clear(); err != nil {
		return err
	}

	a.logger.Info("Credential revoked")
	return nil
}

// Info validates the credential with a read-only channel lookup.
func (a *Authenticator) Info(ctx context.Context) (*ChannelInfo, error) {
	const op = "Authenticator.Info"

	token, err := a.silentToken(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		a.apiBaseURL+"/channels?part=snippet,statistics&mine=true", nil)
	if err != nil {
		return nil, apperrors.Internal(op, err, "Failed to build channel request")
	}
	token.SetAuthHeader(req)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.Internal(op, err, "Channel lookup failed")
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode == http.StatusUnauthorized {
		return nil, apperrors.Unauthenticated(op, nil, "Credential rejected by the API")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.Internal(op,
			fmt.Errorf("channel lookup returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body))),
			"Channel lookup failed")
	}

	var parsed struct {
		Items []struct {
			ID      string `json:"id"`
			Snippet struct {
				Title string `json:"title"`
			} `json:"snippet"`
			Statistics struct {
				SubscriberCount string `json:"subscriberCount"`
				VideoCount      string `json:"videoCount"`
			} `json:"statistics"`
		} `json:"items"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, apperrors.Internal(op, err, "Unparseable channel response")
	}
	if len(parsed.Items) == 0 {
		return nil, apperrors.NotFound(op, nil, "No channel associated with this account")
	}

	item := parsed.Items[0]
	return &ChannelInfo{
		ID:          item.ID,
		Title:       item.Snippet.Title,
		Subscribers: item.Statistics.SubscriberCount,
		VideoCount:  item.Statistics.VideoCount,
	}, nil
}

// Client returns an HTTP client that authorizes requests with the
// current token, refreshing transparently.
func (a *Authenticator) Client(ctx context.Context) (*http.Client, error) {
	token, err := a.Authenticate(ctx)
	if err != nil {
		return nil, err
	}
	return oauth2.NewClient(ctx, a.oauth.TokenSource(ctx, token)), nil
}

// silentToken loads and refreshes without ever starting the
// interactive flow, regardless of mode.
func (a *Authenticator) silentToken(ctx context.Context) (*oauth2.Token, error) {
	const op = "Authenticator.silentToken"

	token, err := a.store.Load()
	if err != nil {
		return nil, apperrors.Unauthenticated(op, err,
			"No stored credential. Run with --auth to authorize.")
	}
	if token.Valid() {
		return token, nil
	}
	if token.RefreshToken == "" {
		return nil, apperrors.Unauthenticated(op, nil,
			"Stored credential expired with no refresh token. Run with --auth.")
	}
	return a.Refresh(ctx)
}

// consentFlow runs the desktop-app authorization: a loopback callback
// server receives the code after the user approves in the browser.
func (a *Authenticator) consentFlow(ctx context.Context) (*oauth2.Token, error) {
	const op = "Authenticator.consentFlow"

	listener, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", a.port))
	if err != nil {
		return nil, apperrors.Internal(op, err,
			fmt.Sprintf("Failed to listen on callback port %d", a.port))
	}
	defer listener.Close()

	redirectURL := fmt.Sprintf("http://%s/callback", listener.Addr().String())
	oauthCfg := *a.oauth
	oauthCfg.RedirectURL = redirectURL

	state := uuid.NewString()
	authURL := oauthCfg.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	)
	a.openURL(authURL)

	type callbackResult struct {
		code string
		err  error
	}
	resultCh := make(chan callbackResult, 1)

	server := &http.Server{
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			switch {
			case q.Get("state") != state:
				resultCh <- callbackResult{err: apperrors.AuthDenied(op, nil, "State mismatch in callback")}
				http.Error(w, "state mismatch", http.StatusBadRequest)
			case q.Get("error") != "":
				resultCh <- callbackResult{err: apperrors.AuthDenied(op,
					fmt.Errorf("consent error: %s", q.Get("error")),
					"Authorization was declined. Add your account as a test user and try again.")}
				fmt.Fprintln(w, "Authorization declined. You can close this window.")
			default:
				resultCh <- callbackResult{code: q.Get("code")}
				fmt.Fprintln(w, "Authorization complete. You can close this window.")
			}
		}),
	}
	go server.Serve(listener)
	defer server.Close()

	var result callbackResult
	select {
	case result = <-resultCh:
	case <-ctx.Done():
		return nil, apperrors.Internal(op, ctx.Err(), "Authorization cancelled")
	}
	if result.err != nil {
		return nil, result.err
	}
	if result.code == "" {
		return nil, apperrors.AuthDenied(op, nil, "Callback carried no authorization code")
	}

	token, err := oauthCfg.Exchange(ctx, result.code)
	if err != nil {
		if isAccessDenied(err) {
			return nil, apperrors.AuthDenied(op, err,
				"Authorization was declined. Add your account as a test user and try again.")
		}
		return nil, apperrors.Internal(op, err, "Code exchange failed")
	}

	if err := a.store.Save(token); err != nil {
		return nil, err
	}

	a.logger.Info("Authorization complete, token stored")
	return token, nil
}

func isInvalidGrant(err error) bool {
	return err != nil && strings.Contains(err.Error(), "invalid_grant")
}

func isAccessDenied(err error) bool {
	return err != nil && strings.Contains(err.Error(), "access_denied")
}
