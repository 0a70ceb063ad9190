package http

import (
	"github.com/gin-gonic/gin"
)

func errorBody(message string) gin.H {
	return gin.H{"success": false, "error": message}
}

// writeError writes the standard failure body, with extra fields merged in.
func writeError(c *gin.Context, status int, message string, extra gin.H) {
	body := errorBody(message)
	for k, v := range extra {
		body[k] = v
	}
	c.JSON(status, body)
}

// writeMappedError maps err to a status and writes the failure body.
func writeMappedError(c *gin.Context, err error, defaultStatus int, extra gin.H) {
	_ = c.Error(err)
	status, message := statusFor(err, defaultStatus)
	writeError(c, status, message, extra)
}
