package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/geocoder89/projectpulse/internal/domain/user"
	"github.com/jackc/pgx/v5"
)

const userColumns = `id, email, full_name, password_hash, role, created_at`

type UsersRepo struct {
	db  DBTX
	obs Observer
}

func NewUsersRepo(db DBTX, obs Observer) *UsersRepo {
	if obs == nil {
		obs = nopObserver{}
	}
	return &UsersRepo{db: db, obs: obs}
}

// Create relies on the unique index on email, so concurrent registrations of one
// address end with exactly one row and ErrEmailTaken for the rest.
func (r *UsersRepo) Create(ctx context.Context, nu user.NewUser) (user.User, error) {
	var u user.User

	err := r.obs.ObserveDB("users_create", func() error {
		row := r.db.QueryRow(ctx,
			`INSERT INTO users (email, full_name, password_hash, role)
			VALUES ($1, $2, $3, $4)
			RETURNING `+userColumns,
			nu.Email, nu.FullName, nu.PasswordHash, string(nu.Role),
		)

		var err error
		u, err = scanUser(row)
		return err
	})

	if err != nil {
		if isUniqueViolation(err) {
			return user.User{}, user.ErrEmailTaken
		}
		return user.User{}, fmt.Errorf("create user: %w", err)
	}

	return u, nil
}

func (r *UsersRepo) GetByID(ctx context.Context, id int64) (user.User, error) {
	return r.getOne(ctx, "users_get_by_id", `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	return r.getOne(ctx, "users_get_by_email", `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (r *UsersRepo) List(ctx context.Context) ([]user.User, error) {
	out := make([]user.User, 0)

	err := r.obs.ObserveDB("users_list", func() error {
		rows, err := r.db.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY id ASC`)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			u, err := scanUser(rows)
			if err != nil {
				return err
			}
			out = append(out, u)
		}

		return rows.Err()
	})

	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	return out, nil
}

func (r *UsersRepo) getOne(ctx context.Context, op, query string, arg any) (user.User, error) {
	var u user.User

	err := r.obs.ObserveDB(op, func() error {
		var err error
		u, err = scanUser(r.db.QueryRow(ctx, query, arg))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, err
	}

	return u, nil
}

func scanUser(row pgx.Row) (user.User, error) {
	var (
		u    user.User
		role string
	)

	err := row.Scan(&u.ID, &u.Email, &u.FullName, &u.PasswordHash, &role, &u.CreatedAt)
	if err != nil {
		return user.User{}, err
	}

	u.Role = user.Role(role)
	return u, nil
}
