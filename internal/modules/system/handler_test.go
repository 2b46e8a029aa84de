package system

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticCounter int

func (s staticCounter) OnlineCount() int { return int(s) }

func newTestRouter(secret string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(nil, staticCounter(0), secret).RegisterRoutes(r)
	return r
}

func TestTestEndpointResponds(t *testing.T) {
	r := newTestRouter("")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/test", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "サーバーは正常に動作しています")
}

func TestCleanupRequiresAdminSecret(t *testing.T) {
	r := newTestRouter("topsecret")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/cleanup", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/cleanup", nil)
	req.Header.Set("X-Admin-Secret", "wrong")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCleanupDisabledWithoutConfiguredSecret(t *testing.T) {
	r := newTestRouter("")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/cleanup", nil)
	req.Header.Set("X-Admin-Secret", "")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCleanupRejectsBadDays(t *testing.T) {
	r := newTestRouter("topsecret")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/cleanup?days=zero", nil)
	req.Header.Set("X-Admin-Secret", "topsecret")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
