package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type observation struct {
	method, path string
	status       int
}

type recorderStub struct {
	seen []observation
}

func (r *recorderStub) ObserveHTTPRequest(method, path string, status int, _ time.Duration) {
	r.seen = append(r.seen, observation{method: method, path: path, status: status})
}

func TestMetricsUsesRoutePattern(t *testing.T) {
	gin.SetMode(gin.TestMode)
	recorder := &recorderStub{}
	router := gin.New()
	router.Use(Metrics(recorder))
	router.GET("/exam-arrangements/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/exam-arrangements/arr-1", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	require.Len(t, recorder.seen, 2)
	assert.Equal(t, observation{http.MethodGet, "/exam-arrangements/:id", http.StatusNoContent}, recorder.seen[0])
	assert.Equal(t, "unmatched", recorder.seen[1].path)
	assert.Equal(t, http.StatusNotFound, recorder.seen[1].status)
}

func TestMetricsNilRecorder(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Metrics(nil))
	router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
