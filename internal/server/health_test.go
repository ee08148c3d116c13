package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getJSON(t *testing.T, h http.Handler, path string, out any) int {
	t.Helper()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
	return rec.Code
}

func TestHealthChecker_Liveness(t *testing.T) {
	h := NewHealthChecker(nil)

	var resp HealthResponse
	assert.Equal(t, http.StatusOK, getJSON(t, h.LivenessHandler(), "/healthz", &resp))
	assert.Equal(t, healthStatusOK, resp.Status)
}

func TestHealthChecker_Readiness(t *testing.T) {
	sc := newTestServerContext(t, &stubSession{})
	h := NewHealthChecker(sc)

	var resp HealthResponse
	assert.Equal(t, http.StatusOK, getJSON(t, h.ReadinessHandler(), "/readyz", &resp))
	assert.Equal(t, healthStatusOK, resp.Checks["ready"])

	h.SetReady(false)
	assert.False(t, h.IsReady())
	resp = HealthResponse{}
	assert.Equal(t, http.StatusServiceUnavailable, getJSON(t, h.ReadinessHandler(), "/readyz", &resp))
	assert.Equal(t, healthStatusNotReady, resp.Checks["ready"])

	h.SetReady(true)
	require.NoError(t, sc.Shutdown())
	resp = HealthResponse{}
	assert.Equal(t, http.StatusServiceUnavailable, getJSON(t, h.ReadinessHandler(), "/readyz", &resp))
	assert.Equal(t, healthStatusShuttingDown, resp.Checks["shutdown"])
}

func TestHealthChecker_Detailed(t *testing.T) {
	tests := []struct {
		name     string
		loggedIn bool
		readOnly bool
		wantAuth string
		wantMode string
	}{
		{"logged out read-write", false, false, healthStatusLoggedOut, "read-write"},
		{"logged in read-only", true, true, healthStatusOK, "read-only"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc := newTestServerContext(t, &stubSession{loggedIn: tt.loggedIn}, WithReadOnly(tt.readOnly))
			h := NewHealthChecker(sc)

			var resp DetailedHealthResponse
			// Sign-in state never changes the status code.
			assert.Equal(t, http.StatusOK, getJSON(t, h.DetailedHealthHandler(), "/healthz/detailed", &resp))
			assert.Equal(t, healthStatusOK, resp.Status)
			assert.NotEmpty(t, resp.Uptime)
			assert.Equal(t, tt.wantAuth, resp.Checks["calendar_auth"])
			assert.Equal(t, tt.wantMode, resp.Checks["mode"])
		})
	}
}
