package google

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	oauth2api "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"

	"github.com/teemow/slotbook/internal/instrumentation"
	"github.com/teemow/slotbook/internal/logging"
)

// DefaultRevokeURL is Google's token revocation endpoint.
const DefaultRevokeURL = "https://oauth2.googleapis.com/revoke"

// Logout outcomes, returned verbatim to users.
const (
	LogoutMessageRevoked      = "Session successfully logged out."
	LogoutMessageRevokeFailed = "Credentials removed, but revoke failed."
	LogoutMessageNoSession    = "No active session to log out."
)

// authState is the state parameter for copy-paste code flows.
const authState = "slotbook"

// SessionConfig configures a Session.
type SessionConfig struct {
	// OAuth is the installed-app client configuration, usually from LoadOAuthConfig.
	OAuth *oauth2.Config

	// TokenPath is where the token is persisted (default: DefaultTokenPath()).
	TokenPath string

	// RevokeURL overrides DefaultRevokeURL.
	RevokeURL string

	// UserinfoEndpoint overrides the oauth2/v2 base URL.
	UserinfoEndpoint string

	// HTTPClient is used for code exchange, refresh and revocation.
	// When nil a fresh HTTP/1.1 transport is used.
	HTTPClient *http.Client

	Metrics *instrumentation.Metrics
	Logger  *slog.Logger
}

// Session is the process-wide Google auth handle. It is created empty and
// becomes usable once a token exists on disk. All methods are safe for
// concurrent use.
type Session struct {
	oauth            *oauth2.Config
	tokenPath        string
	revokeURL        string
	userinfoEndpoint string
	baseClient       *http.Client
	metrics          *instrumentation.Metrics
	logger           *slog.Logger

	mu     sync.Mutex
	client *http.Client
	email  string
}

// LoadOAuthConfig reads installed-app client secrets from path.
func LoadOAuthConfig(path string, scopes ...string) (*oauth2.Config, error) {
	if len(scopes) == 0 {
		scopes = DefaultOAuthScopes
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &AuthError{Reason: "missing client secrets " + path, Err: err}
	}

	conf, err := google.ConfigFromJSON(data, scopes...)
	if err != nil {
		return nil, &AuthError{Reason: "invalid client secrets " + path, Err: err}
	}
	return conf, nil
}

// NewSession creates a session. No network or disk access happens here.
func NewSession(cfg SessionConfig) (*Session, error) {
	if cfg.OAuth == nil {
		return nil, errors.New("oauth config is required")
	}
	if cfg.TokenPath == "" {
		cfg.TokenPath = DefaultTokenPath()
	}
	if cfg.RevokeURL == "" {
		cfg.RevokeURL = DefaultRevokeURL
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Session{
		oauth:            cfg.OAuth,
		tokenPath:        cfg.TokenPath,
		revokeURL:        cfg.RevokeURL,
		userinfoEndpoint: cfg.UserinfoEndpoint,
		baseClient:       cfg.HTTPClient,
		metrics:          cfg.Metrics,
		logger:           cfg.Logger.With(logging.Service(instrumentation.ServiceOAuth2)),
	}, nil
}

// TokenPath returns the persisted token location.
func (s *Session) TokenPath() string {
	return s.tokenPath
}

// HasToken reports whether a persisted token exists.
func (s *Session) HasToken() bool {
	_, err := os.Stat(s.tokenPath)
	return err == nil
}

// AuthURL returns the consent URL for the copy-paste code flow. The code
// shown after consent is passed to Exchange.
func (s *Session) AuthURL() string {
	return s.oauth.AuthCodeURL(authState, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// Exchange trades an authorization code for a token and persists it.
func (s *Session) Exchange(ctx context.Context, code string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return &AuthError{Reason: "authorization code is empty"}
	}
	return s.exchange(ctx, s.oauth, code)
}

// Login runs the loopback flow: it listens on 127.0.0.1, hands the consent
// URL to prompt and waits for the browser redirect carrying the code.
func (s *Session) Login(ctx context.Context, prompt func(authURL string)) error {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return fmt.Errorf("failed to start loopback listener: %w", err)
	}

	conf := *s.oauth
	conf.RedirectURL = "http://" + ln.Addr().String() + "/"
	state := uuid.NewString()

	codes := make(chan string, 1)
	failures := make(chan error, 1)

	srv := &http.Server{
		ReadHeaderTimeout: 10 * time.Second,
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			if q.Get("state") != state {
				http.Error(w, "state mismatch", http.StatusBadRequest)
				return
			}
			if reason := q.Get("error"); reason != "" {
				http.Error(w, "authorization failed: "+reason, http.StatusBadRequest)
				select {
				case failures <- &AuthError{Reason: "authorization denied: " + reason}:
				default:
				}
				return
			}
			code := q.Get("code")
			if code == "" {
				http.Error(w, "missing code", http.StatusBadRequest)
				return
			}
			fmt.Fprintln(w, "Authorization complete. You can close this window.")
			select {
			case codes <- code:
			default:
			}
		}),
	}
	go func() { _ = srv.Serve(ln) }()
	defer srv.Close()

	prompt(conf.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce))

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-failures:
		s.metrics.RecordOAuthAuth(ctx, instrumentation.OAuthResultFailure)
		return err
	case code := <-codes:
		return s.exchange(ctx, &conf, code)
	}
}

func (s *Session) exchange(ctx context.Context, conf *oauth2.Config, code string) error {
	start := time.Now()
	tok, err := conf.Exchange(s.clientContext(ctx), code)
	s.recordAPI(ctx, instrumentation.OperationExchange, err, start)
	if err != nil {
		s.metrics.RecordOAuthAuth(ctx, instrumentation.OAuthResultFailure)
		return &AuthError{Reason: "failed to exchange authorization code", Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := writeToken(s.tokenPath, tok); err != nil {
		s.metrics.RecordOAuthAuth(ctx, instrumentation.OAuthResultFailure)
		return err
	}
	s.client = nil
	s.email = ""

	s.metrics.RecordOAuthAuth(ctx, instrumentation.OAuthResultSuccess)
	s.logger.Info("google session stored", slog.String("token_path", s.tokenPath))
	return nil
}

// HTTPClient returns an authorized client. Refreshed tokens are written back
// to disk. Without a stored token it fails with an *AuthError.
func (s *Session) HTTPClient(ctx context.Context) (*http.Client, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client != nil {
		return s.client, nil
	}

	tok, err := readToken(s.tokenPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &AuthError{Reason: "not logged in", Err: ErrNotLoggedIn}
	}
	if err != nil {
		return nil, &AuthError{Reason: "stored credentials unreadable", Err: err}
	}

	// Refresh outlives any single request.
	base := s.clientContext(context.Background())
	src := &persistingTokenSource{
		base:   s.oauth.TokenSource(base, tok),
		path:   s.tokenPath,
		last:   tok.AccessToken,
		logger: s.logger,
	}

	client := oauth2.NewClient(base, oauth2.ReuseTokenSource(tok, src))
	if s.baseClient == nil {
		// Force HTTP/1.1 by disabling HTTP/2
		client.Transport.(*oauth2.Transport).Base = &http.Transport{
			Proxy:             http.ProxyFromEnvironment,
			ForceAttemptHTTP2: false,
		}
	}

	s.client = client
	return client, nil
}

// CurrentUserEmail returns the signed-in user's email via the userinfo API.
// The result is cached until the session changes.
func (s *Session) CurrentUserEmail(ctx context.Context) (string, error) {
	s.mu.Lock()
	cached := s.email
	s.mu.Unlock()
	if cached != "" {
		return cached, nil
	}

	hc, err := s.HTTPClient(ctx)
	if err != nil {
		return "", err
	}

	opts := []option.ClientOption{option.WithHTTPClient(hc)}
	if s.userinfoEndpoint != "" {
		opts = append(opts, option.WithEndpoint(s.userinfoEndpoint))
	}
	svc, err := oauth2api.NewService(ctx, opts...)
	if err != nil {
		return "", fmt.Errorf("failed to create oauth2 service: %w", err)
	}

	ctx, span := instrumentation.StartGoogleAPISpan(ctx, instrumentation.ServiceOAuth2, instrumentation.OperationUserinfo)
	defer span.End()

	start := time.Now()
	info, err := svc.Userinfo.Get().Context(ctx).Do()
	s.recordAPI(ctx, instrumentation.OperationUserinfo, err, start)
	if err != nil {
		instrumentation.SetSpanError(span, err)
		var gerr *googleapi.Error
		if errors.As(err, &gerr) && gerr.Code == http.StatusUnauthorized {
			return "", &AuthError{Reason: "credentials rejected", Err: err}
		}
		return "", fmt.Errorf("failed to fetch user info: %w", err)
	}
	if info.Email == "" {
		return "", &AuthError{Reason: "user info has no email; was the userinfo.email scope granted?"}
	}
	instrumentation.SetSpanSuccess(span)

	s.mu.Lock()
	s.email = info.Email
	s.mu.Unlock()

	s.logger.Debug("resolved current user", logging.UserHash(info.Email), logging.Domain(info.Email))
	return info.Email, nil
}

// Logout revokes the stored token, deletes it and drops the cached client.
// The returned message is one of the LogoutMessage constants.
func (s *Session) Logout(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tok, err := readToken(s.tokenPath)
	if errors.Is(err, fs.ErrNotExist) {
		s.metrics.RecordOAuthRevocation(ctx, instrumentation.RevokeResultNoSession)
		return LogoutMessageNoSession, nil
	}

	revokeErr := err
	if err == nil {
		revokeErr = s.revoke(ctx, tok)
	}

	if err := os.Remove(s.tokenPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("failed to remove token file: %w", err)
	}
	s.client = nil
	s.email = ""

	if revokeErr != nil {
		s.logger.Warn("token revocation failed", logging.Err(revokeErr))
		s.metrics.RecordOAuthRevocation(ctx, instrumentation.RevokeResultFailed)
		return LogoutMessageRevokeFailed, nil
	}

	s.logger.Info("google session revoked")
	s.metrics.RecordOAuthRevocation(ctx, instrumentation.RevokeResultRevoked)
	return LogoutMessageRevoked, nil
}

// Close drops the cached client. The persisted token is kept.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.client = nil
	s.email = ""
}

func (s *Session) revoke(ctx context.Context, tok *oauth2.Token) error {
	token := tok.AccessToken
	if token == "" {
		token = tok.RefreshToken
	}

	form := url.Values{"token": {token}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.revokeURL, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	start := time.Now()
	resp, err := s.httpClient().Do(req)
	if err == nil {
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			err = fmt.Errorf("revoke returned %s", resp.Status)
		}
	}
	s.recordAPI(ctx, instrumentation.OperationRevoke, err, start)
	return err
}

func (s *Session) httpClient() *http.Client {
	if s.baseClient != nil {
		return s.baseClient
	}
	return http.DefaultClient
}

func (s *Session) clientContext(ctx context.Context) context.Context {
	if s.baseClient != nil {
		return context.WithValue(ctx, oauth2.HTTPClient, s.baseClient)
	}
	return ctx
}

func (s *Session) recordAPI(ctx context.Context, operation string, err error, start time.Time) {
	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
	}
	s.metrics.RecordGoogleAPIOperation(ctx, instrumentation.ServiceOAuth2, operation, status, time.Since(start))
}

// persistingTokenSource writes refreshed tokens back to disk.
type persistingTokenSource struct {
	base   oauth2.TokenSource
	path   string
	last   string
	logger *slog.Logger
}

func (p *persistingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := p.base.Token()
	if err != nil {
		return nil, &AuthError{Reason: "token refresh failed", Err: err}
	}
	if tok.AccessToken != p.last {
		if err := writeToken(p.path, tok); err != nil {
			p.logger.Warn("failed to persist refreshed token", logging.Err(err))
		} else {
			p.last = tok.AccessToken
		}
	}
	return tok, nil
}
