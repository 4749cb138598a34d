package routes

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "github.com/jgirmay/chatroom/pkg/errors"
	"github.com/jgirmay/chatroom/pkg/http/middleware"
	"github.com/jgirmay/chatroom/pkg/validation"
)

// pathID parses a positive integer path parameter, responding 400 on failure
func pathID(c *gin.Context, name string) (uint, bool) {
	id, err := parseID(c.Param(name), name)
	if err != nil {
		middleware.RespondError(c, err)
		return 0, false
	}
	if id == 0 {
		middleware.RespondError(c, apperrors.MissingField(name))
		return 0, false
	}
	return id, true
}

// queryID parses an optional integer query parameter; absent means 0
func queryID(c *gin.Context, name string) (uint, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	id, err := parseID(raw, name)
	if err != nil {
		middleware.RespondError(c, err)
		return 0, false
	}
	return id, true
}

func parseID(raw, name string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, apperrors.Validation(fmt.Sprintf("%s must be a positive integer", name)).WithDetail("field", name)
	}
	return uint(id), nil
}

// bindJSON decodes the body into req and runs its validate tags.
// An empty body is validated as the zero value so missing fields are reported by name.
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil && !errors.Is(err, io.EOF) {
		middleware.RespondError(c, apperrors.Validation("invalid request body").WithDetail("reason", err.Error()))
		return false
	}
	if err := validation.Check(req); err != nil {
		middleware.RespondError(c, err)
		return false
	}
	return true
}
