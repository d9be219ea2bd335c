package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/geocoder89/projectpulse/internal/config"
	"github.com/geocoder89/projectpulse/internal/domain/user"
	"github.com/geocoder89/projectpulse/internal/http/middlewares"
	"github.com/geocoder89/projectpulse/internal/repo"
	"github.com/geocoder89/projectpulse/internal/security"
	"github.com/gin-gonic/gin"
)

type PasswordHasher interface {
	HashPassword(plain string) (string, error)
	CheckPassword(hash, plain string) bool
}

type TokenIssuer interface {
	GenerateAccessToken(userID int64, role user.Role) (string, error)
}

// AuthRecorder counts auth outcomes; observability.Prom implements it.
type AuthRecorder interface {
	RecordAuth(action, result string)
}

type nopRecorder struct{}

func (nopRecorder) RecordAuth(string, string)         {}
func (nopRecorder) RecordProjectWrite(string, string) {}

type AuthHandler struct {
	store   repo.Store
	hasher  PasswordHasher
	tokens  TokenIssuer
	metrics AuthRecorder

	// dummyHash is compared against when the email is unknown, so both
	// login failures spend the same time in the hasher.
	dummyHash string
}

const dummyPassword = "projectpulse-login-dummy"

func NewAuthHandler(store repo.Store, hasher PasswordHasher, tokens TokenIssuer, metrics AuthRecorder) *AuthHandler {
	if metrics == nil {
		metrics = nopRecorder{}
	}

	dummyHash, err := hasher.HashPassword(dummyPassword)
	if err != nil {
		slog.Default().Warn("login: could not prepare dummy hash", "err", err)
	}

	return &AuthHandler{
		store:     store,
		hasher:    hasher,
		tokens:    tokens,
		metrics:   metrics,
		dummyHash: dummyHash,
	}
}

type LoginResponse struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	User        user.Public `json:"user"`
}

const (
	invalidCredentialsMessage = "Incorrect email or password"
	emailTakenMessage         = "Email already registered"
)

func (h *AuthHandler) Register(ctx *gin.Context) {
	var req user.RegisterRequest

	if !BindJSON(ctx, &req) {
		return
	}

	hash, err := h.hasher.HashPassword(req.Password)

	if err != nil {
		if errors.Is(err, security.ErrPasswordTooLong) {
			RespondBadRequest(ctx, "Password too long; please use 72 bytes or fewer.", gin.H{
				"fields": []FieldError{{
					Field:   "password",
					Rule:    "max_bytes",
					Param:   "72",
					Message: "must be at most 72 bytes",
				}},
			})
			return
		}

		RespondInternal(ctx, "Could not create user")
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)

	defer cancel()

	tx, err := h.store.BeginTx(cctx)

	if err != nil {
		slog.Default().ErrorContext(cctx, "register: begin tx", "err", err)
		RespondInternal(ctx, "Could not create user")
		return
	}

	defer func() { _ = tx.Rollback(cctx) }()

	// the unique index still decides a race between two registrations
	_, err = tx.Users().GetByEmail(cctx, req.Email)

	if err == nil {
		h.emailTaken(ctx)
		return
	}

	if !errors.Is(err, user.ErrNotFound) {
		slog.Default().ErrorContext(cctx, "register: lookup email", "err", err)
		RespondInternal(ctx, "Could not create user")
		return
	}

	u, err := tx.Users().Create(cctx, user.NewUser{
		Email:        req.Email,
		FullName:     req.FullName,
		PasswordHash: hash,
		Role:         user.RoleUser,
	})

	if err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			h.emailTaken(ctx)
			return
		}

		slog.Default().ErrorContext(cctx, "register: create user", "err", err)
		RespondInternal(ctx, "Could not create user")
		return
	}

	if err := tx.Commit(cctx); err != nil {
		slog.Default().ErrorContext(cctx, "register: commit", "err", err)
		RespondInternal(ctx, "Could not create user")
		return
	}

	h.metrics.RecordAuth("register", "ok")
	ctx.JSON(http.StatusCreated, u.Public())
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req user.LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}
	// short timeout for DB lookup
	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	foundUser, err := h.store.Users().GetByEmail(cctx, req.Email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			h.hasher.CheckPassword(h.dummyHash, req.Password)
			h.invalidCredentials(ctx)
			return
		}

		slog.Default().ErrorContext(cctx, "login: lookup email", "err", err)
		RespondInternal(ctx, "Could not log in")
		return
	}

	if !h.hasher.CheckPassword(foundUser.PasswordHash, req.Password) {
		h.invalidCredentials(ctx)
		return
	}

	accessToken, err := h.tokens.GenerateAccessToken(foundUser.ID, foundUser.Role)

	if err != nil {
		RespondInternal(ctx, "Could not generate access token")
		return
	}

	h.metrics.RecordAuth("login", "ok")
	ctx.JSON(http.StatusOK, LoginResponse{
		AccessToken: accessToken,
		TokenType:   "bearer",
		User:        foundUser.Public(),
	})
}

func (h *AuthHandler) Me(ctx *gin.Context) {
	u, ok := middlewares.CurrentUser(ctx)

	if !ok {
		RespondUnAuthorized(ctx, codeUnauthorized, "Could not validate credentials")
		return
	}

	ctx.JSON(http.StatusOK, u.Public())
}

func (h *AuthHandler) emailTaken(ctx *gin.Context) {
	h.metrics.RecordAuth("register", "email_taken")
	RespondError(ctx, http.StatusBadRequest, codeEmailTaken, emailTakenMessage, nil)
}

// Unknown email and wrong password produce the same response.
func (h *AuthHandler) invalidCredentials(ctx *gin.Context) {
	h.metrics.RecordAuth("login", "invalid_credentials")
	RespondUnAuthorized(ctx, codeInvalidCredentials, invalidCredentialsMessage)
}
