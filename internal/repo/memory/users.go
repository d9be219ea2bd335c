package memory

import (
	"context"
	"sort"
	"time"

	"github.com/geocoder89/projectpulse/internal/domain/user"
)

type usersRepo struct {
	access access
}

func (r *usersRepo) Create(ctx context.Context, nu user.NewUser) (user.User, error) {
	var out user.User

	err := r.access(ctx, true, func(st *state) error {
		if _, exists := st.emails[nu.Email]; exists {
			return user.ErrEmailTaken
		}

		st.nextUserID++
		out = user.User{
			ID:           st.nextUserID,
			Email:        nu.Email,
			FullName:     nu.FullName,
			PasswordHash: nu.PasswordHash,
			Role:         nu.Role,
			CreatedAt:    time.Now().UTC(),
		}

		st.users[out.ID] = out
		st.emails[out.Email] = out.ID
		return nil
	})

	if err != nil {
		return user.User{}, err
	}

	return out, nil
}

func (r *usersRepo) GetByID(ctx context.Context, id int64) (user.User, error) {
	var out user.User

	err := r.access(ctx, false, func(st *state) error {
		u, ok := st.users[id]
		if !ok {
			return user.ErrNotFound
		}
		out = u
		return nil
	})

	return out, err
}

func (r *usersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	var out user.User

	err := r.access(ctx, false, func(st *state) error {
		id, ok := st.emails[email]
		if !ok {
			return user.ErrNotFound
		}
		out = st.users[id]
		return nil
	})

	return out, err
}

func (r *usersRepo) List(ctx context.Context) ([]user.User, error) {
	out := make([]user.User, 0)

	err := r.access(ctx, false, func(st *state) error {
		for _, u := range st.users {
			out = append(out, u)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
