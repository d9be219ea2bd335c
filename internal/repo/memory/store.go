// Package memory is an in-process store used for local runs and tests.
// Transactions are serialized: one Tx at a time works on a private copy of the
// data that replaces the shared copy on Commit.
package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/geocoder89/projectpulse/internal/domain/project"
	"github.com/geocoder89/projectpulse/internal/domain/user"
	"github.com/geocoder89/projectpulse/internal/repo"
)

var ErrTxDone = errors.New("transaction already committed or rolled back")

type state struct {
	users         map[int64]user.User
	emails        map[string]int64
	projects      map[int64]project.Project
	nextUserID    int64
	nextProjectID int64
}

func newState() state {
	return state{
		users:    make(map[int64]user.User),
		emails:   make(map[string]int64),
		projects: make(map[int64]project.Project),
	}
}

func (s state) clone() state {
	c := state{
		users:         make(map[int64]user.User, len(s.users)),
		emails:        make(map[string]int64, len(s.emails)),
		projects:      make(map[int64]project.Project, len(s.projects)),
		nextUserID:    s.nextUserID,
		nextProjectID: s.nextProjectID,
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.emails {
		c.emails[k] = v
	}
	for k, v := range s.projects {
		c.projects[k] = v
	}
	return c
}

// access runs fn against some copy of the state. write tells the store-level
// accessor whether it needs exclusive access.
type access func(ctx context.Context, write bool, fn func(st *state) error) error

type Store struct {
	// writer admits one transaction (or direct write) at a time.
	writer chan struct{}

	mu sync.RWMutex
	st state
}

func NewStore() *Store {
	return &Store{
		writer: make(chan struct{}, 1),
		st:     newState(),
	}
}

func (s *Store) acquire(ctx context.Context) error {
	select {
	case s.writer <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Store) release() {
	<-s.writer
}

func (s *Store) BeginTx(ctx context.Context) (repo.Tx, error) {
	if err := s.acquire(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	working := s.st.clone()
	s.mu.RUnlock()

	return &Tx{store: s, st: &working}, nil
}

func (s *Store) Users() repo.Users {
	return &usersRepo{access: s.direct}
}

func (s *Store) Projects() repo.Projects {
	return &projectsRepo{access: s.direct}
}

func (s *Store) Ping(context.Context) error {
	return nil
}

func (s *Store) direct(ctx context.Context, write bool, fn func(st *state) error) error {
	if !write {
		s.mu.RLock()
		defer s.mu.RUnlock()
		return fn(&s.st)
	}

	if err := s.acquire(ctx); err != nil {
		return err
	}
	defer s.release()

	s.mu.Lock()
	defer s.mu.Unlock()

	return fn(&s.st)
}

type Tx struct {
	store *Store
	st    *state
	done  bool
}

func (t *Tx) Users() repo.Users {
	return &usersRepo{access: t.access}
}

func (t *Tx) Projects() repo.Projects {
	return &projectsRepo{access: t.access}
}

func (t *Tx) access(ctx context.Context, _ bool, fn func(st *state) error) error {
	if t.done {
		return ErrTxDone
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(t.st)
}

func (t *Tx) Commit(ctx context.Context) error {
	if t.done {
		return ErrTxDone
	}
	t.done = true
	defer t.store.release()

	if err := ctx.Err(); err != nil {
		return err
	}

	t.store.mu.Lock()
	t.store.st = *t.st
	t.store.mu.Unlock()

	return nil
}

func (t *Tx) Rollback(context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	t.store.release()

	return nil
}
