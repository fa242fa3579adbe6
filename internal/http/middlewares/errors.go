package middlewares

import (
	"github.com/geocoder89/lecturehub/internal/observability"
	"github.com/gin-gonic/gin"
)

// abortWithError writes the same error envelope the handlers use.
func abortWithError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"error": gin.H{
			"code":      code,
			"message":   message,
			"requestId": observability.RequestIDFrom(c.Request.Context()),
		},
	})
}
