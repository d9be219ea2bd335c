package handlers

import (
	"log/slog"
	"net/http"

	"github.com/geocoder89/projectpulse/internal/config"
	"github.com/geocoder89/projectpulse/internal/domain/user"
	"github.com/geocoder89/projectpulse/internal/repo"
	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	store repo.Store
}

func NewAdminHandler(store repo.Store) *AdminHandler {
	return &AdminHandler{store: store}
}

// ListUsers is mounted behind RequireAdmin.
func (h *AdminHandler) ListUsers(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(ctx.Request.Context(), storageTimeout)
	defer cancel()

	users, err := h.store.Users().List(cctx)

	if err != nil {
		slog.Default().ErrorContext(cctx, "list users", "err", err)
		RespondInternal(ctx, "Could not list users")
		return
	}

	out := make([]user.Public, 0, len(users))
	for _, u := range users {
		out = append(out, u.Public())
	}

	ctx.JSON(http.StatusOK, out)
}
