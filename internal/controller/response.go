package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"clarita-backend/internal/apperrors"
	logger "clarita-backend/pkg/logging"
)

// respondError maps a service error onto the HTTP taxonomy. Upstream
// quota failures additionally carry a "quota" flag so the UI can show a
// friendlier message.
func respondError(c *gin.Context, err error) {
	status := apperrors.StatusCode(err)

	body := gin.H{"error": err.Error()}
	var ue *apperrors.UpstreamError
	if errors.As(err, &ue) {
		body["quota"] = ue.Quota
	}

	if status >= http.StatusInternalServerError {
		logger.Error("%s %s failed: %v", c.Request.Method, c.FullPath(), err)
		// Do not leak store internals to the caller.
		body["error"] = "internal server error"
		if status == http.StatusBadGateway {
			body["error"] = "quiz generation is currently unavailable"
		}
	}

	c.JSON(status, body)
}

// pathID parses a numeric :id path parameter.
func pathID(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return uint(id), true
}
