package response

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(fn func(c *gin.Context)) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	fn(c)
	return w
}

func TestOKWrapsSlices(t *testing.T) {
	w := record(func(c *gin.Context) { OK(c, []string{"a", "b"}) })
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":["a","b"]}`, w.Body.String())

	w = record(func(c *gin.Context) { OK(c, gin.H{"k": "v"}) })
	assert.JSONEq(t, `{"k":"v"}`, w.Body.String())
}

func TestInternalErrorCarriesMessage(t *testing.T) {
	w := record(func(c *gin.Context) { InternalError(c, "統計情報の取得に失敗しました") })

	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "統計情報の取得に失敗しました")
	assert.Contains(t, w.Body.String(), `"code":500`)
}

func TestErrorEnvelopeShape(t *testing.T) {
	w := record(func(c *gin.Context) { BadRequest(c, "bad input") })
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"ok":0,"code":400,"message":"bad input"}`, w.Body.String())

	w = record(NotFound)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
