// Package repo declares the storage contracts shared by the Postgres and in-memory backends.
package repo

import (
	"context"

	"github.com/geocoder89/projectpulse/internal/domain/project"
	"github.com/geocoder89/projectpulse/internal/domain/user"
)

// Users is the credential store.
type Users interface {
	Create(ctx context.Context, nu user.NewUser) (user.User, error)
	GetByID(ctx context.Context, id int64) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
	List(ctx context.Context) ([]user.User, error)
}

type Projects interface {
	Create(ctx context.Context, p project.Project) (project.Project, error)
	GetByID(ctx context.Context, id int64) (project.Project, error)
	// GetForUpdate loads a project and holds it until the transaction ends.
	GetForUpdate(ctx context.Context, id int64) (project.Project, error)
	List(ctx context.Context, filter project.ListFilter) ([]project.Project, error)
	Update(ctx context.Context, p project.Project) (project.Project, error)
	Delete(ctx context.Context, id int64) error
}

// Tx is a unit of work. Rollback after Commit is a no-op, so callers can always defer it.
type Tx interface {
	Users() Users
	Projects() Projects
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

type Store interface {
	BeginTx(ctx context.Context) (Tx, error)
	// Users reads outside any transaction.
	Users() Users
	Projects() Projects
	Ping(ctx context.Context) error
}
