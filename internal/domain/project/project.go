package project

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
)

type Status string

const (
	StatusNotStarted Status = "NOT_STARTED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
)

var ErrNotFound = errors.New("project not found")

type Project struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	Status      Status    `json:"status"`
	OwnerID     int64     `json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ListFilter scopes a listing. A nil OwnerID means every project.
type ListFilter struct {
	OwnerID *int64
}

type CreateProjectRequest struct {
	Name        string  `json:"name" binding:"required,min=1,max=200"`
	Description *string `json:"description"`
	Status      Status  `json:"status" binding:"omitempty,oneof=NOT_STARTED IN_PROGRESS COMPLETED"`
}

// NewFromCreateRequest builds an unsaved project owned by ownerID.
func NewFromCreateRequest(req CreateProjectRequest, ownerID int64) Project {
	now := time.Now().UTC()

	status := req.Status
	if status == "" {
		status = StatusNotStarted
	}

	return Project{
		Name:        req.Name,
		Description: req.Description,
		Status:      status,
		OwnerID:     ownerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// UpdateProjectRequest is a partial update; only fields present in the body are applied.
type UpdateProjectRequest struct {
	Name        Patch[string] `json:"name"`
	Description Patch[string] `json:"description"`
	Status      Patch[Status] `json:"status"`
}

// Rules for fields present in a partial update. They match the binding tags on
// CreateProjectRequest, with required rejecting an explicit null.
const (
	nameRules   = "required,min=1,max=200"
	statusRules = "required,oneof=NOT_STARTED IN_PROGRESS COMPLETED"
)

// Validate checks the fields present in the body against v. Absent fields are
// not checked.
func (r UpdateProjectRequest) Validate(v *validator.Validate) error {
	var errs ValidationErrors

	if r.Name.Set {
		errs = appendFieldErrors(errs, "name", v.Var(r.Name.Value, nameRules))
	}

	if r.Status.Set {
		errs = appendFieldErrors(errs, "status", v.Var(r.Status.Value, statusRules))
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// appendFieldErrors names the errors from a single Var check after field.
func appendFieldErrors(errs ValidationErrors, field string, err error) ValidationErrors {
	if err == nil {
		return errs
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return append(errs, ValidationError{Field: field, Rule: "invalid", Message: err.Error()})
	}

	for _, fe := range verrs {
		errs = append(errs, ValidationError{Field: field, Rule: fe.Tag(), Param: fe.Param()})
	}
	return errs
}

// Apply returns p with the supplied fields of req written over it.
func (p Project) Apply(req UpdateProjectRequest) Project {
	if req.Name.Set && req.Name.Value != nil {
		p.Name = *req.Name.Value
	}

	if req.Description.Set {
		p.Description = req.Description.Value
	}

	if req.Status.Set && req.Status.Value != nil {
		p.Status = *req.Status.Value
	}

	return p
}
