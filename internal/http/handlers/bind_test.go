package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/geocoder89/projectpulse/internal/domain/project"
	"github.com/geocoder89/projectpulse/internal/domain/user"
	"github.com/geocoder89/projectpulse/internal/http/handlers"
	"github.com/geocoder89/projectpulse/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type bindErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details struct {
			JSON   string                `json:"json"`
			Field  string                `json:"field"`
			Fields []handlers.FieldError `json:"fields"`
		} `json:"details"`
	} `json:"error"`
}

func postJSON(r http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBindError(t *testing.T, w *httptest.ResponseRecorder) bindErrorResponse {
	t.Helper()

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want %d, body=%s", w.Code, http.StatusBadRequest, w.Body.String())
	}

	var resp bindErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal error response: %v body=%s", err, w.Body.String())
	}

	if resp.Error.Code != "invalid_request" {
		t.Fatalf("unexpected code: %s", resp.Error.Code)
	}

	return resp
}

func TestBindJSON_ValidationErrorsUseJSONFieldNames(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.POST("/auth/register", func(ctx *gin.Context) {
		var req user.RegisterRequest
		if !handlers.BindJSON(ctx, &req) {
			return
		}
		ctx.Status(http.StatusCreated)
	})

	body := `{"email":"not-an-email","password":"abc","full_name":"` + strings.Repeat("x", 201) + `"}`
	resp := decodeBindError(t, postJSON(r, "/auth/register", body))

	wantRules := map[string]string{
		"email":     "email",
		"password":  "min",
		"full_name": "max",
	}

	found := map[string]handlers.FieldError{}
	for _, fieldErr := range resp.Error.Details.Fields {
		found[fieldErr.Field] = fieldErr
	}

	for field, rule := range wantRules {
		fieldErr, ok := found[field]
		if !ok {
			t.Fatalf("missing field error for %q: %+v", field, resp.Error.Details.Fields)
		}
		if fieldErr.Rule != rule {
			t.Fatalf("field %q rule mismatch: got %q want %q", field, fieldErr.Rule, rule)
		}
		if fieldErr.Message == "" {
			t.Fatalf("field %q should include a non-empty message", field)
		}
	}
}

func TestBindJSON_TypeMismatchUsesJSONFieldNames(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.POST("/projects", func(ctx *gin.Context) {
		var req project.CreateProjectRequest
		if !handlers.BindJSON(ctx, &req) {
			return
		}
		ctx.Status(http.StatusCreated)
	})

	resp := decodeBindError(t, postJSON(r, "/projects", `{"name":42}`))

	if resp.Error.Details.JSON != "invalid_json_type" {
		t.Fatalf("expected invalid_json_type, got %q", resp.Error.Details.JSON)
	}
	if resp.Error.Details.Field != "name" {
		t.Fatalf("expected detail field to be name, got %q", resp.Error.Details.Field)
	}
	if len(resp.Error.Details.Fields) == 0 || resp.Error.Details.Fields[0].Rule != "type" {
		t.Fatalf("expected a type field error, got %+v", resp.Error.Details.Fields)
	}
}

func TestBindJSON_StatusOutsideEnum(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.POST("/projects", func(ctx *gin.Context) {
		var req project.CreateProjectRequest
		if !handlers.BindJSON(ctx, &req) {
			return
		}
		ctx.Status(http.StatusCreated)
	})

	resp := decodeBindError(t, postJSON(r, "/projects", `{"name":"ok","status":"DONE"}`))

	if len(resp.Error.Details.Fields) != 1 {
		t.Fatalf("expected one field error, got %+v", resp.Error.Details.Fields)
	}
	if got := resp.Error.Details.Fields[0]; got.Field != "status" || got.Rule != "oneof" {
		t.Fatalf("unexpected field error %+v", got)
	}
}

func TestBindJSON_SyntaxAndEmptyBody(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.POST("/x", func(ctx *gin.Context) {
		var req project.CreateProjectRequest
		if !handlers.BindJSON(ctx, &req) {
			return
		}
		ctx.Status(http.StatusCreated)
	})

	if got := decodeBindError(t, postJSON(r, "/x", `{"name":`)).Error.Details.JSON; got != "invalid_json_syntax" && got != "" {
		t.Fatalf("unexpected json detail %q", got)
	}

	if got := decodeBindError(t, postJSON(r, "/x", ``)).Error.Details.JSON; got != "empty_body" {
		t.Fatalf("expected empty_body, got %q", got)
	}
}

func TestBindJSON_BodyTooLarge(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(middlewares.MaxBodyBytes(32))
	r.POST("/x", func(ctx *gin.Context) {
		var req project.CreateProjectRequest
		if !handlers.BindJSON(ctx, &req) {
			return
		}
		ctx.Status(http.StatusCreated)
	})

	body := `{"name":"` + strings.Repeat("a", 100) + `"}`
	if got := decodeBindError(t, postJSON(r, "/x", body)).Error.Details.JSON; got != "body_too_large" {
		t.Fatalf("expected body_too_large, got %q", got)
	}
}

func TestValidateJSON_PatchErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.POST("/patch", func(ctx *gin.Context) {
		var req project.UpdateProjectRequest
		if !handlers.BindJSON(ctx, &req) {
			return
		}
		if !handlers.ValidateJSON(ctx, req.Validate(handlers.Validator())) {
			return
		}
		ctx.Status(http.StatusOK)
	})

	resp := decodeBindError(t, postJSON(r, "/patch", `{"name":null,"status":"NOPE"}`))

	found := map[string]string{}
	for _, f := range resp.Error.Details.Fields {
		found[f.Field] = f.Rule
	}

	if found["name"] != "required" || found["status"] != "oneof" {
		t.Fatalf("unexpected field errors %+v", resp.Error.Details.Fields)
	}

	for _, f := range resp.Error.Details.Fields {
		if f.Field == "status" && f.Message != "must be one of NOT_STARTED, IN_PROGRESS, COMPLETED" {
			t.Fatalf("unexpected status message %q", f.Message)
		}
	}

	long := decodeBindError(t, postJSON(r, "/patch", `{"name":"`+strings.Repeat("n", 201)+`"}`))
	if len(long.Error.Details.Fields) != 1 {
		t.Fatalf("expected one field error, got %+v", long.Error.Details.Fields)
	}
	if f := long.Error.Details.Fields[0]; f.Field != "name" || f.Rule != "max" || f.Param != "200" || f.Message != "must be at most 200" {
		t.Fatalf("unexpected name error %+v", f)
	}

	if w := postJSON(r, "/patch", `{"description":null}`); w.Code != http.StatusOK {
		t.Fatalf("null description should pass validation, got %d", w.Code)
	}
}
