package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/geocoder89/projectpulse/internal/auth"
	"github.com/geocoder89/projectpulse/internal/config"
	"github.com/geocoder89/projectpulse/internal/domain/project"
	"github.com/geocoder89/projectpulse/internal/domain/user"
	"github.com/geocoder89/projectpulse/internal/http/middlewares"
	"github.com/geocoder89/projectpulse/internal/repo"
	"github.com/gin-gonic/gin"
)

const storageTimeout = 3 * time.Second

// ProjectRecorder counts create/update/delete outcomes; observability.Prom implements it.
type ProjectRecorder interface {
	RecordProjectWrite(op, result string)
}

type ProjectsHandler struct {
	store   repo.Store
	metrics ProjectRecorder
}

func NewProjectsHandler(store repo.Store, metrics ProjectRecorder) *ProjectsHandler {
	if metrics == nil {
		metrics = nopRecorder{}
	}

	return &ProjectsHandler{store: store, metrics: metrics}
}

func (h *ProjectsHandler) List(ctx *gin.Context) {
	u, ok := currentUser(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), storageTimeout)
	defer cancel()

	projects, err := h.store.Projects().List(cctx, auth.ListScope(u))

	if err != nil {
		slog.Default().ErrorContext(cctx, "list projects", "err", err)
		RespondInternal(ctx, "Could not list projects")
		return
	}

	RespondJSONWithETag(ctx, projects)
}

func (h *ProjectsHandler) Create(ctx *gin.Context) {
	u, ok := currentUser(ctx)
	if !ok {
		return
	}

	var req project.CreateProjectRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), storageTimeout)
	defer cancel()

	created, err := h.store.Projects().Create(cctx, project.NewFromCreateRequest(req, u.ID))

	if err != nil {
		slog.Default().ErrorContext(cctx, "create project", "err", err)
		h.metrics.RecordProjectWrite("create", "error")
		RespondInternal(ctx, "Could not create project")
		return
	}

	h.metrics.RecordProjectWrite("create", "ok")

	ctx.Header("Location", "/projects/"+strconv.FormatInt(created.ID, 10))
	ctx.JSON(http.StatusCreated, created)
}

func (h *ProjectsHandler) GetByID(ctx *gin.Context) {
	u, ok := currentUser(ctx)
	if !ok {
		return
	}

	id, ok := projectID(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), storageTimeout)
	defer cancel()

	p, err := h.store.Projects().GetByID(cctx, id)

	if err != nil {
		h.loadFailed(ctx, err, "get project")
		return
	}

	if !auth.CanRead(u, p) {
		RespondForbidden(ctx, "Not allowed to view this project")
		return
	}

	RespondJSONWithETag(ctx, p)
}

// Update applies a partial update. The row stays locked from load to commit.
func (h *ProjectsHandler) Update(ctx *gin.Context) {
	u, ok := currentUser(ctx)
	if !ok {
		return
	}

	id, ok := projectID(ctx)
	if !ok {
		return
	}

	var req project.UpdateProjectRequest

	if !BindJSON(ctx, &req) {
		return
	}

	if !ValidateJSON(ctx, req.Validate(Validator())) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), storageTimeout)
	defer cancel()

	tx, err := h.store.BeginTx(cctx)

	if err != nil {
		slog.Default().ErrorContext(cctx, "update project: begin tx", "err", err)
		RespondInternal(ctx, "Could not update project")
		return
	}

	defer func() { _ = tx.Rollback(cctx) }()

	current, err := tx.Projects().GetForUpdate(cctx, id)

	if err != nil {
		h.writeFailed(ctx, err, "update")
		return
	}

	if !auth.CanWrite(u, current) {
		h.metrics.RecordProjectWrite("update", "forbidden")
		RespondForbidden(ctx, "Not allowed to modify this project")
		return
	}

	updated, err := tx.Projects().Update(cctx, current.Apply(req))

	if err != nil {
		h.writeFailed(ctx, err, "update")
		return
	}

	if err := tx.Commit(cctx); err != nil {
		h.writeFailed(ctx, err, "update")
		return
	}

	h.metrics.RecordProjectWrite("update", "ok")
	ctx.JSON(http.StatusOK, updated)
}

func (h *ProjectsHandler) Delete(ctx *gin.Context) {
	u, ok := currentUser(ctx)
	if !ok {
		return
	}

	id, ok := projectID(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), storageTimeout)
	defer cancel()

	tx, err := h.store.BeginTx(cctx)

	if err != nil {
		slog.Default().ErrorContext(cctx, "delete project: begin tx", "err", err)
		RespondInternal(ctx, "Could not delete project")
		return
	}

	defer func() { _ = tx.Rollback(cctx) }()

	current, err := tx.Projects().GetForUpdate(cctx, id)

	if err != nil {
		h.writeFailed(ctx, err, "delete")
		return
	}

	if !auth.CanWrite(u, current) {
		h.metrics.RecordProjectWrite("delete", "forbidden")
		RespondForbidden(ctx, "Not allowed to delete this project")
		return
	}

	if err := tx.Projects().Delete(cctx, id); err != nil {
		h.writeFailed(ctx, err, "delete")
		return
	}

	if err := tx.Commit(cctx); err != nil {
		h.writeFailed(ctx, err, "delete")
		return
	}

	h.metrics.RecordProjectWrite("delete", "ok")
	ctx.Status(http.StatusNoContent)
}

func (h *ProjectsHandler) loadFailed(ctx *gin.Context, err error, op string) {
	if errors.Is(err, project.ErrNotFound) {
		RespondNotFound(ctx, "Project not found")
		return
	}

	slog.Default().ErrorContext(ctx.Request.Context(), op, "err", err)
	RespondInternal(ctx, "Could not load project")
}

func (h *ProjectsHandler) writeFailed(ctx *gin.Context, err error, op string) {
	if errors.Is(err, project.ErrNotFound) {
		h.metrics.RecordProjectWrite(op, "not_found")
		RespondNotFound(ctx, "Project not found")
		return
	}

	h.metrics.RecordProjectWrite(op, "error")
	slog.Default().ErrorContext(ctx.Request.Context(), op+" project", "err", err)
	RespondInternal(ctx, "Could not "+op+" project")
}

func projectID(ctx *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)

	if err != nil {
		RespondBadRequest(ctx, "Invalid project id", gin.H{"fields": []FieldError{{
			Field:   "id",
			Rule:    "type",
			Message: "must be an integer",
		}}})
		return 0, false
	}

	return id, true
}

// currentUser writes a 401 when the route was registered without RequireAuth.
func currentUser(ctx *gin.Context) (user.User, bool) {
	u, ok := middlewares.CurrentUser(ctx)

	if !ok {
		RespondUnAuthorized(ctx, codeUnauthorized, "Could not validate credentials")
		return user.User{}, false
	}

	return u, true
}
