package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/geocoder89/projectpulse/internal/domain/project"
	"github.com/geocoder89/projectpulse/internal/domain/user"
	"github.com/geocoder89/projectpulse/internal/http/middlewares"
	"github.com/geocoder89/projectpulse/internal/repo"
	"github.com/geocoder89/projectpulse/internal/repo/memory"
	"github.com/geocoder89/projectpulse/internal/security"
	"github.com/gin-gonic/gin"
)

// Make sure Gin does not spam the console during the test

func init() {
	gin.SetMode(gin.TestMode)
}

// plainHasher stores "hashed:<password>" so tests stay fast.
type plainHasher struct{}

func (plainHasher) HashPassword(plain string) (string, error) {
	if len(plain) > security.MaxPasswordBytes {
		return "", security.ErrPasswordTooLong
	}
	return "hashed:" + plain, nil
}

func (plainHasher) CheckPassword(hash, plain string) bool {
	return hash == "hashed:"+plain
}

// countingHasher records the hashes CheckPassword was asked to compare against.
type countingHasher struct {
	plainHasher
	checked []string
}

func (h *countingHasher) CheckPassword(hash, plain string) bool {
	h.checked = append(h.checked, hash)
	return h.plainHasher.CheckPassword(hash, plain)
}

type fakeTokens struct {
	err error
}

func (f fakeTokens) GenerateAccessToken(userID int64, role user.Role) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "token-" + strconv.FormatInt(userID, 10) + "-" + string(role), nil
}

type recordedAuth struct {
	events []string
}

func (r *recordedAuth) RecordAuth(action, result string) {
	r.events = append(r.events, action+":"+result)
}

// brokenStore fails every storage call, for the 500 paths.
type brokenStore struct {
	repo.Store
	err error
}

func (b brokenStore) BeginTx(context.Context) (repo.Tx, error) { return nil, b.err }
func (b brokenStore) Users() repo.Users                        { return brokenUsers{err: b.err} }
func (b brokenStore) Projects() repo.Projects                  { return brokenProjects{err: b.err} }

type brokenUsers struct {
	repo.Users
	err error
}

func (b brokenUsers) GetByEmail(context.Context, string) (user.User, error) { return user.User{}, b.err }
func (b brokenUsers) List(context.Context) ([]user.User, error)             { return nil, b.err }

type brokenProjects struct {
	repo.Projects
	err error
}

func (b brokenProjects) List(context.Context, project.ListFilter) ([]project.Project, error) {
	return nil, b.err
}

func (b brokenProjects) GetByID(context.Context, int64) (project.Project, error) {
	return project.Project{}, b.err
}

var errStorage = errors.New("storage offline")

// asUser stands in for RequireAuth.
func asUser(u user.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middlewares.CtxUser, u)
		c.Next()
	}
}

func seedUser(t *testing.T, store *memory.Store, email string, role user.Role) user.User {
	t.Helper()

	u, err := store.Users().Create(context.Background(), user.NewUser{
		Email:        email,
		PasswordHash: "hashed:password123",
		Role:         role,
	})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func seedProject(t *testing.T, store *memory.Store, owner int64, name string) project.Project {
	t.Helper()

	p, err := store.Projects().Create(context.Background(), project.NewFromCreateRequest(project.CreateProjectRequest{Name: name}, owner))
	if err != nil {
		t.Fatalf("seed project: %v", err)
	}
	return p
}

func doJSON(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode body: %v body=%s", err, w.Body.String())
	}
	return out
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}
