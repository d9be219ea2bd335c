package middlewares

import (
	"github.com/gin-gonic/gin"
)

// APIError is the payload of every error response, wrapped as {"error": ...}.
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"requestId,omitempty"`
	Details   any    `json:"details,omitempty"`
}

// WriteError aborts the chain with the error envelope. Handlers and middleware
// share it so clients see a single error shape.
func WriteError(c *gin.Context, status int, code, message string, details any) {
	c.AbortWithStatusJSON(status, gin.H{"error": APIError{
		Code:      code,
		Message:   message,
		RequestID: requestID(c),
		Details:   details,
	}})
}

func requestID(c *gin.Context) string {
	if id := c.GetString(CtxRequestID); id != "" {
		return id
	}
	return c.GetHeader(requestIDHeader)
}

func abortError(c *gin.Context, status int, code, message string) {
	WriteError(c, status, code, message, nil)
}
