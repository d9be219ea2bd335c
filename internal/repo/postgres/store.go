package postgres

import (
	"context"
	"errors"

	"github.com/geocoder89/projectpulse/internal/repo"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is satisfied by *pgxpool.Pool and pgx.Tx, so a repo can run on either.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Pool interface {
	DBTX
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
}

// Observer times a logical DB operation. observability.Prom implements it.
type Observer interface {
	ObserveDB(op string, fn func() error) error
}

type nopObserver struct{}

func (nopObserver) ObserveDB(_ string, fn func() error) error { return fn() }

type Store struct {
	pool Pool
	obs  Observer
}

func NewStore(pool Pool, obs Observer) *Store {
	if obs == nil {
		obs = nopObserver{}
	}
	return &Store{pool: pool, obs: obs}
}

func (s *Store) BeginTx(ctx context.Context) (repo.Tx, error) {
	var tx pgx.Tx

	err := s.obs.ObserveDB("tx_begin", func() error {
		var err error
		tx, err = s.pool.Begin(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	return &Tx{tx: tx, obs: s.obs}, nil
}

func (s *Store) Users() repo.Users {
	return NewUsersRepo(s.pool, s.obs)
}

func (s *Store) Projects() repo.Projects {
	return NewProjectsRepo(s.pool, s.obs)
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

type Tx struct {
	tx  pgx.Tx
	obs Observer
}

func (t *Tx) Users() repo.Users {
	return NewUsersRepo(t.tx, t.obs)
}

func (t *Tx) Projects() repo.Projects {
	return NewProjectsRepo(t.tx, t.obs)
}

func (t *Tx) Commit(ctx context.Context) error {
	return t.obs.ObserveDB("tx_commit", func() error {
		return t.tx.Commit(ctx)
	})
}

func (t *Tx) Rollback(ctx context.Context) error {
	err := t.tx.Rollback(ctx)
	if errors.Is(err, pgx.ErrTxClosed) {
		return nil
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
