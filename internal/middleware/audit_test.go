package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/exam-scheduler/pkg/middleware/requestid"
)

func TestAuditLogsSuccessfulMutations(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zap.InfoLevel)
	router := gin.New()
	router.Use(requestid.Middleware())
	router.PATCH("/exam-arrangements/:id", Audit(zap.New(core), "arrangement.adjust"), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	router.POST("/fail", Audit(zap.New(core), "fail"), func(c *gin.Context) {
		c.Status(http.StatusConflict)
	})

	req := httptest.NewRequest(http.MethodPatch, "/exam-arrangements/arr-1", nil)
	req.Header.Set("X-Request-ID", "req-42")
	router.ServeHTTP(httptest.NewRecorder(), req)
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/fail", nil))

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "arrangement.adjust", fields["action"])
	assert.Equal(t, "arr-1", fields["param_id"])
	assert.Equal(t, "req-42", fields["request_id"])
	assert.Equal(t, "audit", entries[0].LoggerName)
}
