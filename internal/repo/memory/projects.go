package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/geocoder89/projectpulse/internal/domain/project"
	"github.com/geocoder89/projectpulse/internal/domain/user"
)

type projectsRepo struct {
	access access
}

func (r *projectsRepo) Create(ctx context.Context, p project.Project) (project.Project, error) {
	err := r.access(ctx, true, func(st *state) error {
		if _, ok := st.users[p.OwnerID]; !ok {
			return fmt.Errorf("create project: owner %d: %w", p.OwnerID, user.ErrNotFound)
		}

		now := time.Now().UTC()
		if p.CreatedAt.IsZero() {
			p.CreatedAt = now
		}
		if p.UpdatedAt.IsZero() {
			p.UpdatedAt = p.CreatedAt
		}

		st.nextProjectID++
		p.ID = st.nextProjectID
		st.projects[p.ID] = p
		return nil
	})

	if err != nil {
		return project.Project{}, err
	}

	return p, nil
}

func (r *projectsRepo) GetByID(ctx context.Context, id int64) (project.Project, error) {
	var out project.Project

	err := r.access(ctx, false, func(st *state) error {
		p, ok := st.projects[id]
		if !ok {
			return project.ErrNotFound
		}
		out = p
		return nil
	})

	return out, err
}

// GetForUpdate is GetByID: a transaction already has the store to itself.
func (r *projectsRepo) GetForUpdate(ctx context.Context, id int64) (project.Project, error) {
	return r.GetByID(ctx, id)
}

func (r *projectsRepo) List(ctx context.Context, filter project.ListFilter) ([]project.Project, error) {
	out := make([]project.Project, 0)

	err := r.access(ctx, false, func(st *state) error {
		for _, p := range st.projects {
			if filter.OwnerID != nil && p.OwnerID != *filter.OwnerID {
				continue
			}
			out = append(out, p)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Update writes name, description and status. Owner and creation time stay as stored.
func (r *projectsRepo) Update(ctx context.Context, p project.Project) (project.Project, error) {
	var out project.Project

	err := r.access(ctx, true, func(st *state) error {
		cur, ok := st.projects[p.ID]
		if !ok {
			return project.ErrNotFound
		}

		cur.Name = p.Name
		cur.Description = p.Description
		cur.Status = p.Status
		cur.UpdatedAt = time.Now().UTC()

		st.projects[cur.ID] = cur
		out = cur
		return nil
	})

	if err != nil {
		return project.Project{}, err
	}

	return out, nil
}

func (r *projectsRepo) Delete(ctx context.Context, id int64) error {
	return r.access(ctx, true, func(st *state) error {
		if _, ok := st.projects[id]; !ok {
			return project.ErrNotFound
		}
		delete(st.projects, id)
		return nil
	})
}
