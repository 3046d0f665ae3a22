// Package session holds the client's authenticated state: the signed-in user
// and the session token. State changes are pushed synchronously to
// subscribers and mirrored to local storage so a session survives restarts.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/ADRPUR/event-driven-marketplace/internal/client/api"
	"github.com/ADRPUR/event-driven-marketplace/internal/client/storage"
)

// Storage keys. One record per concern, matching the stored JSON shapes.
const (
	keyUser  = "user"
	keyToken = "token"
)

var ErrNoSession = errors.New("no active session")

// Snapshot is an immutable view of the session state at one point in time.
type Snapshot struct {
	User  *api.User
	Token string
}

// Authenticated reports whether a session token is present. Route guards key
// off the token alone; the user record only refines role checks.
func (s Snapshot) Authenticated() bool {
	return s.Token != ""
}

// Store is the single source of truth for the session. All mutations go
// through Login, SetUser, and Logout; readers take a Snapshot.
type Store struct {
	repo storage.Repository

	mu    sync.Mutex
	user  *api.User
	token string
	subs  []func(Snapshot)
}

func NewStore(repo storage.Repository) *Store {
	return &Store{repo: repo}
}

// Init restores the session persisted by a previous run. A split record
// (user without token, or token without user) is treated as corrupt and
// discarded, leaving the store signed out.
func (s *Store) Init(ctx context.Context) error {
	userData, err := s.repo.Get(ctx, keyUser)
	if err != nil {
		return fmt.Errorf("session restore: %w", err)
	}
	tokenData, err := s.repo.Get(ctx, keyToken)
	if err != nil {
		return fmt.Errorf("session restore: %w", err)
	}

	if userData == nil || tokenData == nil {
		if userData != nil || tokenData != nil {
			if err := s.repo.Clear(ctx); err != nil {
				return fmt.Errorf("session restore: %w", err)
			}
		}
		return nil
	}

	var user api.User
	if err := json.Unmarshal(userData, &user); err != nil {
		// Unreadable record, start signed out.
		if err := s.repo.Clear(ctx); err != nil {
			return fmt.Errorf("session restore: %w", err)
		}
		return nil
	}

	s.mu.Lock()
	s.user = &user
	s.token = string(tokenData)
	s.mu.Unlock()
	return nil
}

// Login persists both records, then installs the user and token as one
// atomic change and notifies subscribers. When persistence fails the store
// is left untouched, so subscribers never observe a session that did not
// make it to durable storage.
func (s *Store) Login(ctx context.Context, user api.User, token string) error {
	if token == "" {
		return fmt.Errorf("login: empty token")
	}

	if err := s.persist(ctx, &user, token); err != nil {
		return err
	}

	s.mu.Lock()
	s.user = &user
	s.token = token
	s.mu.Unlock()

	s.notify()
	return nil
}

// SetUser replaces the user record of an existing session, keeping the token.
// Returns ErrNoSession when signed out. Like Login, the record is persisted
// before the in-memory state changes.
func (s *Store) SetUser(ctx context.Context, user api.User) error {
	s.mu.Lock()
	token := s.token
	s.mu.Unlock()
	if token == "" {
		return ErrNoSession
	}

	if err := s.persist(ctx, &user, token); err != nil {
		return err
	}

	s.mu.Lock()
	if s.token == "" {
		s.mu.Unlock()
		return ErrNoSession
	}
	s.user = &user
	s.mu.Unlock()

	s.notify()
	return nil
}

// Logout removes the persisted records, then clears the session and notifies
// subscribers.
func (s *Store) Logout(ctx context.Context) error {
	if err := s.repo.Clear(ctx); err != nil {
		return fmt.Errorf("session clear: %w", err)
	}

	s.mu.Lock()
	s.user = nil
	s.token = ""
	s.mu.Unlock()

	s.notify()
	return nil
}

// Snapshot returns the current state. The user is copied so callers cannot
// mutate the store through it.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	snap := Snapshot{Token: s.token}
	if s.user != nil {
		u := *s.user
		snap.User = &u
	}
	return snap
}

// Subscribe registers fn to be called synchronously, in registration order,
// after every state change. The returned function removes the subscription.
func (s *Store) Subscribe(fn func(Snapshot)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.subs = append(s.subs, fn)
	idx := len(s.subs) - 1

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.subs[idx] = nil
	}
}

func (s *Store) notify() {
	s.mu.Lock()
	snap := s.snapshotLocked()
	subs := make([]func(Snapshot), len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	for _, fn := range subs {
		if fn != nil {
			fn(snap)
		}
	}
}

func (s *Store) persist(ctx context.Context, user *api.User, token string) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("session persist: %w", err)
	}
	if err := s.repo.Set(ctx, keyUser, data); err != nil {
		return fmt.Errorf("session persist: %w", err)
	}
	if err := s.repo.Set(ctx, keyToken, []byte(token)); err != nil {
		return fmt.Errorf("session persist: %w", err)
	}
	return nil
}
