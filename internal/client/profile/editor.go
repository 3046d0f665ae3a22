// Package profile implements the profile screen flow: load the server
// record, toggle edit mode over a form mirror, submit the full mirror on
// save, and reconcile local and session state with the server's canonical
// response.
package profile

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ADRPUR/event-driven-marketplace/internal/client/api"
)

var (
	// ErrNotLoaded means edit mode was requested before any profile fetch
	// succeeded.
	ErrNotLoaded = errors.New("profile not loaded")
	// ErrNotEditing means the operation is only valid in edit mode.
	ErrNotEditing = errors.New("not in edit mode")
	// ErrSaveInFlight means a save is already running; the save control is
	// disabled until it finishes.
	ErrSaveInFlight = errors.New("save already in progress")
)

// Form mirrors the editable profile fields. Every field is a string (never
// left unset) so the form can round-trip through display untouched.
type Form struct {
	FirstName   string
	LastName    string
	DateOfBirth string
	Phone       string
	Address     api.Address
}

func seedForm(user *api.User) Form {
	f := Form{
		FirstName:   user.Details.FirstName,
		LastName:    user.Details.LastName,
		DateOfBirth: user.Details.DateOfBirth,
		Phone:       user.Details.Phone,
	}
	if user.Details.Address != nil {
		f.Address = *user.Details.Address
	}
	return f
}

func (f Form) toUpdate() api.DetailsUpdate {
	upd := api.DetailsUpdate{
		FirstName:   f.FirstName,
		LastName:    f.LastName,
		DateOfBirth: f.DateOfBirth,
		Phone:       f.Phone,
	}
	if f.Address != (api.Address{}) {
		addr := f.Address
		upd.Address = &addr
	}
	return upd
}

// Client is the slice of the API client the editor needs.
type Client interface {
	Me(ctx context.Context) (*api.User, error)
	UpdateMe(ctx context.Context, upd api.DetailsUpdate) (*api.User, error)
}

// SessionUpdater receives the refreshed user record after a successful save.
// Satisfied by *session.Store.
type SessionUpdater interface {
	SetUser(ctx context.Context, user api.User) error
}

// Editor drives the profile screen. current is the last fetched or saved
// server record; form is the in-progress draft while editing.
type Editor struct {
	client  Client
	session SessionUpdater

	mu      sync.Mutex
	current *api.User
	form    Form
	editing bool
	saving  bool
}

func NewEditor(client Client, session SessionUpdater) *Editor {
	return &Editor{client: client, session: session}
}

// Load fetches the profile and seeds the read-only view. Any edit in
// progress is abandoned.
func (e *Editor) Load(ctx context.Context) error {
	user, err := e.client.Me(ctx)
	if err != nil {
		return fmt.Errorf("load profile: %w", err)
	}

	e.mu.Lock()
	e.current = user
	e.form = seedForm(user)
	e.editing = false
	e.mu.Unlock()
	return nil
}

// Begin enters edit mode, re-seeding the form from the last fetched or saved
// record. A draft discarded earlier never reappears.
func (e *Editor) Begin() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.current == nil {
		return ErrNotLoaded
	}
	if e.saving {
		return ErrSaveInFlight
	}
	e.form = seedForm(e.current)
	e.editing = true
	return nil
}

// SetForm replaces the draft. Valid only in edit mode.
func (e *Editor) SetForm(f Form) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.editing {
		return ErrNotEditing
	}
	e.form = f
	return nil
}

// Discard leaves edit mode, dropping the draft.
func (e *Editor) Discard() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.saving {
		return ErrSaveInFlight
	}
	e.editing = false
	return nil
}

// Save submits the full form mirror. On success the canonical profile is
// re-fetched, the session user is replaced, and edit mode ends. On failure
// edit mode and the draft survive so nothing typed is lost.
func (e *Editor) Save(ctx context.Context) error {
	e.mu.Lock()
	if !e.editing {
		e.mu.Unlock()
		return ErrNotEditing
	}
	if e.saving {
		e.mu.Unlock()
		return ErrSaveInFlight
	}
	e.saving = true
	form := e.form
	e.mu.Unlock()

	err := e.save(ctx, form)

	e.mu.Lock()
	e.saving = false
	e.mu.Unlock()
	return err
}

func (e *Editor) save(ctx context.Context, form Form) error {
	if _, err := e.client.UpdateMe(ctx, form.toUpdate()); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}

	// Re-fetch rather than trust the mutation response, so the display
	// always matches the server record.
	user, err := e.client.Me(ctx)
	if err != nil {
		return fmt.Errorf("refresh profile: %w", err)
	}
	if err := e.session.SetUser(ctx, *user); err != nil {
		return fmt.Errorf("refresh session: %w", err)
	}

	e.mu.Lock()
	e.current = user
	e.form = seedForm(user)
	e.editing = false
	e.mu.Unlock()
	return nil
}

// Current returns the last fetched or saved record, or nil before Load.
func (e *Editor) Current() *api.User {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current == nil {
		return nil
	}
	u := *e.current
	return &u
}

func (e *Editor) Form() Form {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.form
}

func (e *Editor) Editing() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.editing
}

func (e *Editor) Saving() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.saving
}
