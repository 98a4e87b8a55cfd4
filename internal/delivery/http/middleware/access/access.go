package http_access_middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// ReadOnlyBadGatewayMiddleware rejects every non-GET request when mode is
// "RO". Any other mode lets requests through.
func ReadOnlyBadGatewayMiddleware(mode string) gin.HandlerFunc {
	readOnly := strings.EqualFold(mode, "RO")
	return func(c *gin.Context) {
		if !readOnly {
			c.Next()
			return
		}

		if c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead {
			c.Next()
			return
		}

		c.JSON(http.StatusBadGateway, gin.H{
			"error":   "Bad Gateway",
			"message": "Swipes and resets are not allowed on a read-only instance",
			"code":    "READ_ONLY_INSTANCE",
		})
		c.Abort()
	}
}
