package session

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ADRPUR/event-driven-marketplace/internal/client/api"
	"github.com/ADRPUR/event-driven-marketplace/internal/client/storage"
)

func newTestStore(t *testing.T) (*Store, storage.Repository) {
	t.Helper()
	repo, err := storage.InitDatabase(context.Background(), filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	return NewStore(repo), repo
}

func testUser() api.User {
	return api.User{
		ID:    "u1",
		Email: "user@example.com",
		Role:  "user",
		Details: api.Details{
			FirstName: "Ana",
			LastName:  "Pop",
		},
	}
}

func TestStore_LoginLogout(t *testing.T) {
	ctx := context.Background()
	store, repo := newTestStore(t)

	assert.False(t, store.Snapshot().Authenticated())

	require.NoError(t, store.Login(ctx, testUser(), "token1"))

	snap := store.Snapshot()
	assert.True(t, snap.Authenticated())
	require.NotNil(t, snap.User)
	assert.Equal(t, "u1", snap.User.ID)
	assert.Equal(t, "token1", snap.Token)

	require.NoError(t, store.Logout(ctx))

	snap = store.Snapshot()
	assert.False(t, snap.Authenticated())
	assert.Nil(t, snap.User)

	// Durable storage holds neither record after logout.
	for _, key := range []string{"user", "token"} {
		value, err := repo.Get(ctx, key)
		require.NoError(t, err)
		assert.Nil(t, value)
	}
}

func TestStore_LoginRejectsEmptyToken(t *testing.T) {
	store, _ := newTestStore(t)
	require.Error(t, store.Login(context.Background(), testUser(), ""))
	assert.False(t, store.Snapshot().Authenticated())
}

func TestStore_SetUserRequiresSession(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	err := store.SetUser(ctx, testUser())
	require.ErrorIs(t, err, ErrNoSession)

	require.NoError(t, store.Login(ctx, testUser(), "token1"))

	updated := testUser()
	updated.Details.FirstName = "Maria"
	require.NoError(t, store.SetUser(ctx, updated))

	snap := store.Snapshot()
	assert.Equal(t, "Maria", snap.User.Details.FirstName)
	assert.Equal(t, "token1", snap.Token, "token must survive a user update")
}

func TestStore_PersistsAcrossRestart(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "state.db")

	repo, err := storage.InitDatabase(ctx, dsn)
	require.NoError(t, err)

	store := NewStore(repo)
	require.NoError(t, store.Login(ctx, testUser(), "token1"))

	// New store over the same database simulates a restart.
	restored := NewStore(repo)
	require.NoError(t, restored.Init(ctx))

	snap := restored.Snapshot()
	assert.True(t, snap.Authenticated())
	require.NotNil(t, snap.User)
	assert.Equal(t, "user@example.com", snap.User.Email)
	assert.Equal(t, "token1", snap.Token)
}

func TestStore_InitDiscardsSplitRecords(t *testing.T) {
	ctx := context.Background()
	store, repo := newTestStore(t)

	// Token without user is a corrupt leftover.
	require.NoError(t, repo.Set(ctx, "token", []byte("orphan")))

	require.NoError(t, store.Init(ctx))

	snap := store.Snapshot()
	assert.False(t, snap.Authenticated())

	value, err := repo.Get(ctx, "token")
	require.NoError(t, err)
	assert.Nil(t, value, "orphan record must be removed")
}

func TestStore_SubscribersNotifiedInOrder(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	var order []string
	store.Subscribe(func(s Snapshot) { order = append(order, "first") })
	store.Subscribe(func(s Snapshot) { order = append(order, "second") })

	require.NoError(t, store.Login(ctx, testUser(), "token1"))
	assert.Equal(t, []string{"first", "second"}, order, "notification is synchronous and ordered")

	order = nil
	require.NoError(t, store.Logout(ctx))
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestStore_Unsubscribe(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	calls := 0
	cancel := store.Subscribe(func(s Snapshot) { calls++ })

	require.NoError(t, store.Login(ctx, testUser(), "token1"))
	assert.Equal(t, 1, calls)

	cancel()
	require.NoError(t, store.Logout(ctx))
	assert.Equal(t, 1, calls)
}

// failingRepo rejects every write so tests can observe what the store does
// when the session cannot be made durable.
type failingRepo struct {
	err error
}

func (r *failingRepo) Get(ctx context.Context, key string) ([]byte, error) { return nil, nil }
func (r *failingRepo) Set(ctx context.Context, key string, value []byte) error {
	return r.err
}
func (r *failingRepo) Delete(ctx context.Context, key string) error { return r.err }
func (r *failingRepo) Clear(ctx context.Context) error              { return r.err }

func TestStore_LoginPersistFailureLeavesStoreUntouched(t *testing.T) {
	ctx := context.Background()
	store := NewStore(&failingRepo{err: errors.New("disk full")})

	calls := 0
	store.Subscribe(func(s Snapshot) { calls++ })

	err := store.Login(ctx, testUser(), "token1")
	require.Error(t, err)

	assert.Equal(t, 0, calls, "subscribers must only see committed state")
	assert.False(t, store.Snapshot().Authenticated())
}

func TestStore_SetUserPersistFailureKeepsPreviousUser(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	require.NoError(t, store.Login(ctx, testUser(), "token1"))

	store.repo = &failingRepo{err: errors.New("disk full")}

	calls := 0
	store.Subscribe(func(s Snapshot) { calls++ })

	updated := testUser()
	updated.Details.FirstName = "Maria"
	require.Error(t, store.SetUser(ctx, updated))

	assert.Equal(t, 0, calls)
	assert.Equal(t, "Ana", store.Snapshot().User.Details.FirstName)
}

func TestStore_SnapshotIsACopy(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	require.NoError(t, store.Login(ctx, testUser(), "token1"))

	snap := store.Snapshot()
	snap.User.Email = "tampered@example.com"

	assert.Equal(t, "user@example.com", store.Snapshot().User.Email)
}
