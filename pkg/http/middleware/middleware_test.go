package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	apperrors "github.com/jgirmay/chatroom/pkg/errors"
	"github.com/jgirmay/chatroom/pkg/logging"
	"github.com/jgirmay/chatroom/pkg/metrics"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(router *gin.Engine, path string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRequestIDGeneratedAndReused(t *testing.T) {
	router := gin.New()
	router.Use(RequestID())
	router.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(RequestIDKey))
	})

	w := serve(router, "/ping", nil)
	generated := w.Header().Get(RequestIDHeader)
	assert.NotEmpty(t, generated)
	assert.Equal(t, generated, w.Body.String())

	w = serve(router, "/ping", http.Header{RequestIDHeader: []string{"abc-123"}})
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}

func TestRespondErrorEnvelope(t *testing.T) {
	router := gin.New()
	router.Use(RequestID())
	router.GET("/missing", func(c *gin.Context) {
		RespondError(c, apperrors.NotFound("room", 9))
	})
	router.GET("/plain", func(c *gin.Context) {
		RespondError(c, errors.New("boom"))
	})

	w := serve(router, "/missing", http.Header{RequestIDHeader: []string{"trace-1"}})
	assert.Equal(t, http.StatusNotFound, w.Code)

	var body struct {
		Error   map[string]interface{} `json:"error"`
		TraceID string                 `json:"trace_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "not_found", body.Error["type"])
	assert.Equal(t, "NOT_FOUND", body.Error["code"])
	assert.Equal(t, "room not found", body.Error["message"])
	assert.Equal(t, "trace-1", body.TraceID)

	w = serve(router, "/plain", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "boom")
}

func TestErrorHandlerRendersUnwrittenErrors(t *testing.T) {
	m := metrics.New()
	router := gin.New()
	router.Use(ErrorHandler(m))
	router.GET("/fail", func(c *gin.Context) {
		c.Error(apperrors.StorageUnavailable("rooms.get", errors.New("dial tcp: refused")))
	})

	w := serve(router, "/fail", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "STORAGE_UNAVAILABLE")
}

func TestRecoveryReturns500(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	router := gin.New()
	router.Use(Recovery(logging.FromZap(zap.New(core))))
	router.GET("/panic", func(c *gin.Context) {
		panic("unexpected")
	})

	w := serve(router, "/panic", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "internal_error")
	assert.Equal(t, 1, logs.FilterMessage("panic recovered").Len())
}

func TestRequestLoggerLevels(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	router := gin.New()
	router.Use(RequestID(), RequestLogger(logging.FromZap(zap.New(core))))
	router.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/bad", func(c *gin.Context) { c.Status(http.StatusBadRequest) })

	serve(router, "/ok", nil)
	serve(router, "/bad", nil)

	require.Equal(t, 2, logs.Len())
	entries := logs.All()
	assert.Equal(t, "request", entries[0].Message)
	assert.Equal(t, "request rejected", entries[1].Message)
	assert.Equal(t, int64(http.StatusBadRequest), entries[1].ContextMap()["status"])
	assert.NotEmpty(t, entries[1].ContextMap()["request_id"])
}

func TestTimeoutSetsDeadline(t *testing.T) {
	router := gin.New()
	router.Use(Timeout(50 * time.Millisecond))
	router.GET("/deadline", func(c *gin.Context) {
		_, ok := c.Request.Context().Deadline()
		c.JSON(http.StatusOK, gin.H{"deadline": ok})
	})

	w := serve(router, "/deadline", nil)
	assert.JSONEq(t, `{"deadline":true}`, w.Body.String())
}
