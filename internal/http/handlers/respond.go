package handlers

import (
	"net/http"

	"github.com/geocoder89/projectpulse/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

// Error codes clients can branch on. Messages are for humans and may change.
const (
	codeInvalidRequest     = "invalid_request"
	codeEmailTaken         = "email_taken"
	codeInvalidCredentials = "invalid_credentials"
	codeUnauthorized       = "unauthorized"
	codeForbidden          = "forbidden"
	codeNotFound           = "not_found"
	codeInternal           = "internal_error"
)

func RespondError(ctx *gin.Context, status int, code, message string, details any) {
	middlewares.WriteError(ctx, status, code, message, details)
}

func RespondBadRequest(ctx *gin.Context, message string, details any) {
	RespondError(ctx, http.StatusBadRequest, codeInvalidRequest, message, details)
}

// RespondUnAuthorized also sets the Bearer challenge.
func RespondUnAuthorized(ctx *gin.Context, code, message string) {
	ctx.Header("WWW-Authenticate", "Bearer")
	RespondError(ctx, http.StatusUnauthorized, code, message, nil)
}

func RespondForbidden(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusForbidden, codeForbidden, message, nil)
}

func RespondNotFound(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusNotFound, codeNotFound, message, nil)
}

func RespondInternal(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusInternalServerError, codeInternal, message, nil)
}
