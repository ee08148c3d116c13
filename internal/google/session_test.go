package google

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

// fakeGoogle serves the token, userinfo and revoke endpoints.
type fakeGoogle struct {
	srv *httptest.Server

	accessToken   string
	revokeStatus  int
	userinfoCalls atomic.Int32
	tokenCalls    atomic.Int32
	revoked       atomic.Value
}

func newFakeGoogle(t *testing.T) *fakeGoogle {
	t.Helper()

	f := &fakeGoogle{accessToken: "at-1", revokeStatus: http.StatusOK}
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		f.tokenCalls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  f.accessToken,
			"token_type":    "Bearer",
			"refresh_token": "rt-1",
			"expires_in":    3600,
		})
	})
	mux.HandleFunc("/oauth2/v2/userinfo", func(w http.ResponseWriter, r *http.Request) {
		f.userinfoCalls.Add(1)
		if r.Header.Get("Authorization") != "Bearer "+f.accessToken {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":{"code":401,"message":"invalid credentials"}}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"email":"admin@example.com","verified_email":true}`))
	})
	mux.HandleFunc("/revoke", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		f.revoked.Store(r.PostForm.Get("token"))
		w.WriteHeader(f.revokeStatus)
	})
	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeGoogle) session(t *testing.T, tokenPath string) *Session {
	t.Helper()

	s, err := NewSession(SessionConfig{
		OAuth: &oauth2.Config{
			ClientID:     "client-id",
			ClientSecret: "client-secret",
			Endpoint: oauth2.Endpoint{
				AuthURL:  f.srv.URL + "/auth",
				TokenURL: f.srv.URL + "/token",
			},
			RedirectURL: "http://localhost",
			Scopes:      DefaultOAuthScopes,
		},
		TokenPath:        tokenPath,
		RevokeURL:        f.srv.URL + "/revoke",
		UserinfoEndpoint: f.srv.URL + "/",
		HTTPClient:       f.srv.Client(),
	})
	require.NoError(t, err)
	return s
}

func storeToken(t *testing.T, path string, tok *oauth2.Token) {
	t.Helper()
	require.NoError(t, writeToken(path, tok))
}

func TestLoadOAuthConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "credentials.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"installed":{
		"client_id":"cid","client_secret":"secret",
		"auth_uri":"https://accounts.google.com/o/oauth2/auth",
		"token_uri":"https://oauth2.googleapis.com/token",
		"redirect_uris":["http://localhost"]}}`), 0600))

	conf, err := LoadOAuthConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "cid", conf.ClientID)
	assert.Equal(t, DefaultOAuthScopes, conf.Scopes)
	assert.Equal(t, "http://localhost", conf.RedirectURL)
}

func TestLoadOAuthConfig_Missing(t *testing.T) {
	_, err := LoadOAuthConfig(filepath.Join(t.TempDir(), "nope.json"))

	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Contains(t, authErr.Error(), "missing client secrets")
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestNewSession_RequiresOAuthConfig(t *testing.T) {
	_, err := NewSession(SessionConfig{})
	assert.Error(t, err)
}

func TestSession_HTTPClientWithoutToken(t *testing.T) {
	f := newFakeGoogle(t)
	s := f.session(t, filepath.Join(t.TempDir(), "token.json"))

	assert.False(t, s.HasToken())

	_, err := s.HTTPClient(context.Background())
	assert.True(t, IsAuthError(err))
	assert.ErrorIs(t, err, ErrNotLoggedIn)
}

func TestSession_AuthURL(t *testing.T) {
	f := newFakeGoogle(t)
	s := f.session(t, filepath.Join(t.TempDir(), "token.json"))

	u, err := url.Parse(s.AuthURL())
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "client-id", q.Get("client_id"))
	assert.Equal(t, "offline", q.Get("access_type"))
	assert.Contains(t, q.Get("scope"), "https://www.googleapis.com/auth/calendar")
}

func TestSession_ExchangePersistsToken(t *testing.T) {
	f := newFakeGoogle(t)
	path := filepath.Join(t.TempDir(), "nested", "token.json")
	s := f.session(t, path)

	require.NoError(t, s.Exchange(context.Background(), "  the-code \n"))
	assert.True(t, s.HasToken())

	tok, err := readToken(path)
	require.NoError(t, err)
	assert.Equal(t, "at-1", tok.AccessToken)
	assert.Equal(t, "rt-1", tok.RefreshToken)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestSession_ExchangeEmptyCode(t *testing.T) {
	f := newFakeGoogle(t)
	s := f.session(t, filepath.Join(t.TempDir(), "token.json"))

	err := s.Exchange(context.Background(), "   ")
	assert.True(t, IsAuthError(err))
	assert.Zero(t, f.tokenCalls.Load())
}

func TestSession_CurrentUserEmail(t *testing.T) {
	f := newFakeGoogle(t)
	path := filepath.Join(t.TempDir(), "token.json")
	storeToken(t, path, &oauth2.Token{AccessToken: "at-1", TokenType: "Bearer", RefreshToken: "rt-1"})
	s := f.session(t, path)

	email, err := s.CurrentUserEmail(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "admin@example.com", email)

	// Cached for the lifetime of the session.
	_, err = s.CurrentUserEmail(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), f.userinfoCalls.Load())
}

func TestSession_CurrentUserEmailRejected(t *testing.T) {
	f := newFakeGoogle(t)
	path := filepath.Join(t.TempDir(), "token.json")
	storeToken(t, path, &oauth2.Token{AccessToken: "stale", TokenType: "Bearer"})
	s := f.session(t, path)

	_, err := s.CurrentUserEmail(context.Background())
	assert.True(t, IsAuthError(err))
}

func TestSession_RefreshIsWrittenBack(t *testing.T) {
	f := newFakeGoogle(t)
	f.accessToken = "at-2"
	path := filepath.Join(t.TempDir(), "token.json")
	storeToken(t, path, &oauth2.Token{
		AccessToken:  "at-1",
		TokenType:    "Bearer",
		RefreshToken: "rt-1",
		Expiry:       time.Now().Add(-time.Hour),
	})
	s := f.session(t, path)

	email, err := s.CurrentUserEmail(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "admin@example.com", email)
	assert.Equal(t, int32(1), f.tokenCalls.Load())

	tok, err := readToken(path)
	require.NoError(t, err)
	assert.Equal(t, "at-2", tok.AccessToken)
	assert.Equal(t, "rt-1", tok.RefreshToken)
}

func TestSession_Logout(t *testing.T) {
	tests := []struct {
		name         string
		withToken    bool
		revokeStatus int
		want         string
	}{
		{"no session", false, http.StatusOK, LogoutMessageNoSession},
		{"revoked", true, http.StatusOK, LogoutMessageRevoked},
		{"revoke rejected", true, http.StatusBadRequest, LogoutMessageRevokeFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakeGoogle(t)
			f.revokeStatus = tt.revokeStatus
			path := filepath.Join(t.TempDir(), "token.json")
			if tt.withToken {
				storeToken(t, path, &oauth2.Token{AccessToken: "at-1", RefreshToken: "rt-1"})
			}
			s := f.session(t, path)

			msg, err := s.Logout(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.want, msg)
			assert.False(t, s.HasToken())

			if tt.withToken {
				assert.Equal(t, "at-1", f.revoked.Load())
			}
		})
	}
}

func TestSession_LogoutDropsCachedClient(t *testing.T) {
	f := newFakeGoogle(t)
	path := filepath.Join(t.TempDir(), "token.json")
	storeToken(t, path, &oauth2.Token{AccessToken: "at-1", TokenType: "Bearer"})
	s := f.session(t, path)

	_, err := s.HTTPClient(context.Background())
	require.NoError(t, err)

	_, err = s.Logout(context.Background())
	require.NoError(t, err)

	_, err = s.HTTPClient(context.Background())
	assert.ErrorIs(t, err, ErrNotLoggedIn)
}

func TestSession_LoginLoopback(t *testing.T) {
	f := newFakeGoogle(t)
	path := filepath.Join(t.TempDir(), "token.json")
	s := f.session(t, path)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := s.Login(ctx, func(authURL string) {
		u, err := url.Parse(authURL)
		if err != nil {
			return
		}
		q := u.Query()
		redirect := q.Get("redirect_uri") + "?code=loop-code&state=" + url.QueryEscape(q.Get("state"))
		go func() {
			resp, err := http.Get(redirect)
			if err == nil {
				resp.Body.Close()
			}
		}()
	})
	require.NoError(t, err)
	assert.True(t, s.HasToken())
}

func TestSession_LoginDenied(t *testing.T) {
	f := newFakeGoogle(t)
	s := f.session(t, filepath.Join(t.TempDir(), "token.json"))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := s.Login(ctx, func(authURL string) {
		u, _ := url.Parse(authURL)
		q := u.Query()
		redirect := q.Get("redirect_uri") + "?error=access_denied&state=" + url.QueryEscape(q.Get("state"))
		go func() {
			resp, err := http.Get(redirect)
			if err == nil {
				resp.Body.Close()
			}
		}()
	})
	assert.True(t, IsAuthError(err))
	assert.False(t, s.HasToken())
}

func TestSession_LoginCanceled(t *testing.T) {
	f := newFakeGoogle(t)
	s := f.session(t, filepath.Join(t.TempDir(), "token.json"))

	ctx, cancel := context.WithCancel(context.Background())
	err := s.Login(ctx, func(string) { cancel() })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAuthError(t *testing.T) {
	inner := errors.New("boom")
	err := &AuthError{Reason: "token refresh failed", Err: inner}

	assert.Equal(t, "google auth: token refresh failed: boom", err.Error())
	assert.ErrorIs(t, err, inner)
	assert.Equal(t, "google auth: not logged in", (&AuthError{Reason: "not logged in"}).Error())
}

func TestReadToken_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0600))

	_, err := readToken(path)
	assert.Error(t, err)
}
