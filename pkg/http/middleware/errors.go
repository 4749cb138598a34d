package middleware

import (
	"github.com/gin-gonic/gin"

	apperrors "github.com/jgirmay/chatroom/pkg/errors"
	"github.com/jgirmay/chatroom/pkg/metrics"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error   *apperrors.AppError `json:"error"`
	TraceID string              `json:"trace_id,omitempty"`
}

// RespondError writes err as an ErrorResponse with its mapped status
func RespondError(c *gin.Context, err error) {
	appErr, ok := apperrors.As(err)
	if !ok {
		appErr = apperrors.Internal("internal server error", err)
	}

	c.Error(err)
	c.JSON(appErr.Status, ErrorResponse{
		Error:   appErr,
		TraceID: c.GetString(RequestIDKey),
	})
}

// ErrorHandler renders errors attached with c.Error that no handler wrote,
// and counts storage failures
func ErrorHandler(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		last := c.Errors.Last().Err
		if appErr, ok := apperrors.As(last); ok && appErr.Type == apperrors.TypeStorage {
			m.IncStorageError(appErr.Code)
		}

		if !c.Writer.Written() {
			RespondError(c, last)
		}
	}
}
