package middleware

import (
	"bytes"
	"io"

	"github.com/gin-gonic/gin"

	logger "clarita-backend/pkg/logging"
)

// RequestDumpMiddleware logs each request's method, URL, headers and
// body. Enabled through the REQUEST_DUMP config attribute; intended for
// debugging only.
func RequestDumpMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		var bodyBytes []byte
		if c.Request.Body != nil {
			bodyBytes, _ = io.ReadAll(c.Request.Body)
		}
		c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))

		logger.Debug(
			"[Request]\n"+
				"\tMethod: %s\n"+
				"\tURL: %s\n"+
				"\tHeaders: %v\n"+
				"\tBody: %s",
			c.Request.Method,
			c.Request.URL.String(),
			c.Request.Header,
			string(bodyBytes),
		)

		c.Next()
	}
}
