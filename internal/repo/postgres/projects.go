package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/geocoder89/projectpulse/internal/domain/project"
	"github.com/jackc/pgx/v5"
)

const projectColumns = `id, name, description, status, owner_id, created_at, updated_at`

type ProjectsRepo struct {
	db  DBTX
	obs Observer
}

func NewProjectsRepo(db DBTX, obs Observer) *ProjectsRepo {
	if obs == nil {
		obs = nopObserver{}
	}
	return &ProjectsRepo{db: db, obs: obs}
}

func (r *ProjectsRepo) Create(ctx context.Context, p project.Project) (project.Project, error) {
	var out project.Project

	err := r.obs.ObserveDB("projects_create", func() error {
		row := r.db.QueryRow(ctx,
			`INSERT INTO projects (name, description, status, owner_id, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING `+projectColumns,
			p.Name, p.Description, string(p.Status), p.OwnerID, p.CreatedAt, p.UpdatedAt,
		)

		var err error
		out, err = scanProject(row)
		return err
	})

	if err != nil {
		return project.Project{}, fmt.Errorf("create project: %w", err)
	}

	return out, nil
}

func (r *ProjectsRepo) GetByID(ctx context.Context, id int64) (project.Project, error) {
	return r.getOne(ctx, "projects_get_by_id", `SELECT `+projectColumns+` FROM projects WHERE id = $1`, id)
}

// GetForUpdate locks the row so a concurrent update or delete waits for this transaction.
func (r *ProjectsRepo) GetForUpdate(ctx context.Context, id int64) (project.Project, error) {
	return r.getOne(ctx, "projects_get_for_update", `SELECT `+projectColumns+` FROM projects WHERE id = $1 FOR UPDATE`, id)
}

func (r *ProjectsRepo) List(ctx context.Context, filter project.ListFilter) ([]project.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects`
	var args []any

	if filter.OwnerID != nil {
		query += ` WHERE owner_id = $1`
		args = append(args, *filter.OwnerID)
	}

	query += ` ORDER BY id ASC`

	out := make([]project.Project, 0)

	err := r.obs.ObserveDB("projects_list", func() error {
		rows, err := r.db.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			p, err := scanProject(rows)
			if err != nil {
				return err
			}
			out = append(out, p)
		}

		return rows.Err()
	})

	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}

	return out, nil
}

func (r *ProjectsRepo) Update(ctx context.Context, p project.Project) (project.Project, error) {
	var out project.Project

	err := r.obs.ObserveDB("projects_update", func() error {
		row := r.db.QueryRow(ctx,
			`UPDATE projects
			SET name = $2,
				description = $3,
				status = $4,
				updated_at = NOW()
			WHERE id = $1
			RETURNING `+projectColumns,
			p.ID, p.Name, p.Description, string(p.Status),
		)

		var err error
		out, err = scanProject(row)
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return project.Project{}, project.ErrNotFound
		}
		return project.Project{}, fmt.Errorf("update project: %w", err)
	}

	return out, nil
}

func (r *ProjectsRepo) Delete(ctx context.Context, id int64) error {
	var affected int64

	err := r.obs.ObserveDB("projects_delete", func() error {
		tag, err := r.db.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
		affected = tag.RowsAffected()
		return err
	})

	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}

	// if no rows were deleted as a result return a not found error
	if affected == 0 {
		return project.ErrNotFound
	}

	return nil
}

func (r *ProjectsRepo) getOne(ctx context.Context, op, query string, id int64) (project.Project, error) {
	var p project.Project

	err := r.obs.ObserveDB(op, func() error {
		var err error
		p, err = scanProject(r.db.QueryRow(ctx, query, id))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return project.Project{}, project.ErrNotFound
		}
		return project.Project{}, err
	}

	return p, nil
}

func scanProject(row pgx.Row) (project.Project, error) {
	var (
		p      project.Project
		status string
	)

	err := row.Scan(&p.ID, &p.Name, &p.Description, &status, &p.OwnerID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return project.Project{}, err
	}

	p.Status = project.Status(status)
	return p, nil
}
