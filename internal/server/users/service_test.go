package users

import (
	"bytes"
	"context"
	"database/sql"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"

	"github.com/ADRPUR/event-driven-marketplace/internal/common"
	"github.com/ADRPUR/event-driven-marketplace/internal/dbx"
	"github.com/ADRPUR/event-driven-marketplace/internal/imagex"
	"github.com/ADRPUR/event-driven-marketplace/internal/server/auth"
	"github.com/ADRPUR/event-driven-marketplace/internal/server/config"
	"github.com/ADRPUR/event-driven-marketplace/internal/server/models"
	productsrepo "github.com/ADRPUR/event-driven-marketplace/internal/server/repositories/products"
	"github.com/ADRPUR/event-driven-marketplace/internal/server/repositories/refreshtokens"
	usersrepo "github.com/ADRPUR/event-driven-marketplace/internal/server/repositories/users"
)

// fakeUserRepo is an in-memory users.Repository.
type fakeUserRepo struct {
	users   map[string]*models.User
	details map[string]*models.UserDetails
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		users:   make(map[string]*models.User),
		details: make(map[string]*models.UserDetails),
	}
}

func (r *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	for _, u := range r.users {
		if u.Email == user.Email {
			return common.ErrorAlreadyExists
		}
	}
	u := *user
	r.users[user.ID] = &u
	return nil
}

func (r *fakeUserRepo) CreateDetails(ctx context.Context, details *models.UserDetails) error {
	d := *details
	r.details[details.UserID] = &d
	return nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *u
	return &c, nil
}

func (r *fakeUserRepo) GetDetails(ctx context.Context, userID string) (*models.UserDetails, error) {
	d, ok := r.details[userID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *d
	return &c, nil
}

func (r *fakeUserRepo) UpdateDetails(ctx context.Context, details *models.UserDetails) error {
	if _, ok := r.details[details.UserID]; !ok {
		return common.ErrorNotFound
	}
	d := *details
	r.details[details.UserID] = &d
	return nil
}

func (r *fakeUserRepo) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	u, ok := r.users[userID]
	if !ok {
		return common.ErrorNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

func (r *fakeUserRepo) UpdatePhoto(ctx context.Context, userID, photoPath, thumbnailPath string) error {
	d, ok := r.details[userID]
	if !ok {
		return common.ErrorNotFound
	}
	d.PhotoPath = photoPath
	d.ThumbnailPath = thumbnailPath
	return nil
}

func (r *fakeUserRepo) List(ctx context.Context) ([]*models.Profile, error) {
	out := make([]*models.Profile, 0, len(r.users))
	for id, u := range r.users {
		p := &models.Profile{User: *u}
		if d, ok := r.details[id]; ok {
			p.Details = *d
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *fakeUserRepo) Delete(ctx context.Context, id string) error {
	if _, ok := r.users[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.users, id)
	delete(r.details, id)
	return nil
}

// fakeTokenRepo is an in-memory refreshtokens.Repository.
type fakeTokenRepo struct {
	tokens map[string]*models.RefreshToken
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{tokens: make(map[string]*models.RefreshToken)}
}

func (r *fakeTokenRepo) Create(ctx context.Context, userID, token string, ttl time.Duration) error {
	r.tokens[token] = &models.RefreshToken{
		Token:     token,
		UserID:    userID,
		ExpiresAt: time.Now().Add(ttl),
	}
	return nil
}

func (r *fakeTokenRepo) Get(ctx context.Context, token string) (*models.RefreshToken, error) {
	t, ok := r.tokens[token]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return t, nil
}

func (r *fakeTokenRepo) Delete(ctx context.Context, token string) error {
	delete(r.tokens, token)
	return nil
}

func (r *fakeTokenRepo) DeleteExpired(ctx context.Context) error {
	for k, t := range r.tokens {
		if t.Expired() {
			delete(r.tokens, k)
		}
	}
	return nil
}

type fakeRepoManager struct {
	userRepo  *fakeUserRepo
	tokenRepo *fakeTokenRepo
}

func (m *fakeRepoManager) Users(db dbx.DBTX) usersrepo.Repository { return m.userRepo }
func (m *fakeRepoManager) RefreshTokens(db dbx.DBTX) refreshtokens.Repository {
	return m.tokenRepo
}
func (m *fakeRepoManager) Products(db dbx.DBTX) productsrepo.Repository        { return nil }
func (m *fakeRepoManager) RunMigrations(ctx context.Context, db *sql.DB) error { return nil }

type fakePhotoStore struct {
	saves    map[string][]byte
	lastKeys []string
}

func (f *fakePhotoStore) Save(ctx context.Context, key string, data []byte) (string, error) {
	if f.saves == nil {
		f.saves = make(map[string][]byte)
	}
	f.saves[key] = data
	f.lastKeys = append(f.lastKeys, key)
	return "/uploads/" + key, nil
}

func newTestService(t *testing.T) (*Service, *fakeRepoManager, *fakePhotoStore) {
	t.Helper()

	// WithTx needs a real handle; the fake repos ignore it.
	db, err := sql.Open("sqlite", "file:usersvc?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repos := &fakeRepoManager{userRepo: newFakeUserRepo(), tokenRepo: newFakeTokenRepo()}
	photos := &fakePhotoStore{}

	cfg := &config.Config{}
	cfg.LoadDefaults()

	return NewService(db, repos, photos, cfg), repos, photos
}

func register(t *testing.T, svc *Service, email string) *models.User {
	t.Helper()
	user, err := svc.Register(context.Background(), Registration{
		Email:     email,
		Password:  "password1",
		FirstName: "Ana",
		LastName:  "Pop",
	})
	require.NoError(t, err)
	return user
}

func TestService_Register(t *testing.T) {
	svc, repos, _ := newTestService(t)
	ctx := context.Background()

	user := register(t, svc, "User@Example.com")

	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "user@example.com", user.Email, "email is normalized")
	assert.Equal(t, models.RoleUser, user.Role)

	stored := repos.userRepo.users[user.ID]
	require.NotNil(t, stored)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("password1")))

	details := repos.userRepo.details[user.ID]
	require.NotNil(t, details)
	assert.Equal(t, "Ana", details.FirstName)

	_, err := svc.Register(ctx, Registration{Email: "user@example.com", Password: "password1"})
	require.ErrorIs(t, err, common.ErrorValidation, "duplicate email is a validation error")
}

func TestService_RegisterValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name string
		reg  Registration
	}{
		{name: "empty email", reg: Registration{Email: "", Password: "password1"}},
		{name: "not an email", reg: Registration{Email: "nope", Password: "password1"}},
		{name: "short password", reg: Registration{Email: "a@b.c", Password: "123"}},
		{name: "unknown role", reg: Registration{Email: "a@b.c", Password: "password1", Role: "root"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.reg)
			require.ErrorIs(t, err, common.ErrorValidation)
		})
	}
}

func TestService_LoginAndRefresh(t *testing.T) {
	svc, repos, _ := newTestService(t)
	ctx := context.Background()

	user := register(t, svc, "user@example.com")

	res, err := svc.Login(ctx, "user@example.com", "password1")
	require.NoError(t, err)

	assert.NotEmpty(t, res.AccessToken)
	assert.NotEmpty(t, res.RefreshToken)
	assert.NotEmpty(t, res.SessionToken)
	assert.Equal(t, user.ID, res.Profile.User.ID)

	claims, err := auth.ParseToken(res.AccessToken, []byte("secretKey"))
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, models.RoleUser, claims.Role)

	require.Contains(t, repos.tokenRepo.tokens, res.RefreshToken)

	accessToken, expiresAt, err := svc.Refresh(ctx, res.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, accessToken)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), expiresAt, time.Minute)
}

func TestService_LoginFailures(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	register(t, svc, "user@example.com")

	_, err := svc.Login(ctx, "user@example.com", "wrong")
	require.ErrorIs(t, err, common.ErrorInvalidCredentials)

	_, err = svc.Login(ctx, "missing@example.com", "password1")
	require.ErrorIs(t, err, common.ErrorInvalidCredentials, "lookup miss looks like a bad password")
}

func TestService_RefreshExpiredToken(t *testing.T) {
	svc, repos, _ := newTestService(t)
	ctx := context.Background()

	user := register(t, svc, "user@example.com")
	repos.tokenRepo.tokens["old"] = &models.RefreshToken{
		Token:     "old",
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(-time.Hour),
	}

	_, _, err := svc.Refresh(ctx, "old")
	require.ErrorIs(t, err, common.ErrRefreshTokenExpired)

	_, _, err = svc.Refresh(ctx, "never-issued")
	require.ErrorIs(t, err, common.ErrRefreshTokenExpired)
}

func TestService_Logout(t *testing.T) {
	svc, repos, _ := newTestService(t)
	ctx := context.Background()

	register(t, svc, "user@example.com")
	res, err := svc.Login(ctx, "user@example.com", "password1")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, res.RefreshToken))
	assert.NotContains(t, repos.tokenRepo.tokens, res.RefreshToken)

	_, _, err = svc.Refresh(ctx, res.RefreshToken)
	require.ErrorIs(t, err, common.ErrRefreshTokenExpired)
}

func TestService_ChangePassword(t *testing.T) {
	svc, repos, _ := newTestService(t)
	ctx := context.Background()

	user := register(t, svc, "user@example.com")

	require.NoError(t, svc.ChangePassword(ctx, user.ID, "password1", "password2"))

	stored := repos.userRepo.users[user.ID]
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("password2")))

	_, err := svc.Login(ctx, "user@example.com", "password1")
	require.ErrorIs(t, err, common.ErrorInvalidCredentials)

	_, err = svc.Login(ctx, "user@example.com", "password2")
	require.NoError(t, err)
}

func TestService_ChangePasswordRejections(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	user := register(t, svc, "user@example.com")

	err := svc.ChangePassword(ctx, user.ID, "wrong", "password2")
	require.ErrorIs(t, err, common.ErrorInvalidCredentials)

	err = svc.ChangePassword(ctx, user.ID, "password1", "123")
	require.ErrorIs(t, err, common.ErrorValidation)

	// Neither rejection touched the stored hash.
	_, err = svc.Login(ctx, "user@example.com", "password1")
	require.NoError(t, err)
}

func TestService_UpdateDetails(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	user := register(t, svc, "user@example.com")

	dob := time.Date(1990, 4, 12, 0, 0, 0, 0, time.UTC)
	profile, err := svc.UpdateDetails(ctx, user.ID, DetailsUpdate{
		FirstName:   "Maria",
		LastName:    "Ionescu",
		DateOfBirth: dob,
		Phone:       "+40700000000",
		Address: &models.Address{
			Line: "Str. Lunga 1", City: "Brasov", PostalCode: "500035", Country: "RO",
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "Maria", profile.Details.FirstName)
	assert.Equal(t, dob, profile.Details.DateOfBirth)
	require.NotNil(t, profile.Details.Address)
	assert.Equal(t, "Brasov", profile.Details.Address.City)

	// The mirror replaces wholesale: omitted fields clear.
	profile, err = svc.UpdateDetails(ctx, user.ID, DetailsUpdate{FirstName: "Maria"})
	require.NoError(t, err)
	assert.Empty(t, profile.Details.LastName)
	assert.Nil(t, profile.Details.Address)
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestService_UploadPhoto(t *testing.T) {
	svc, repos, photos := newTestService(t)
	ctx := context.Background()

	user := register(t, svc, "user@example.com")

	photoPath, thumbnailPath, err := svc.UploadPhoto(ctx, user.ID, pngBytes(t, 400, 300))
	require.NoError(t, err)

	assert.NotEmpty(t, photoPath)
	assert.NotEmpty(t, thumbnailPath)
	require.Len(t, photos.lastKeys, 2)

	// Thumbnail is square at the configured edge.
	thumb, err := imagex.Decode(bytes.NewReader(photos.saves[photos.lastKeys[1]]))
	require.NoError(t, err)
	assert.Equal(t, 200, thumb.Bounds().Dx())
	assert.Equal(t, 200, thumb.Bounds().Dy())

	details := repos.userRepo.details[user.ID]
	assert.Equal(t, photoPath, details.PhotoPath)
	assert.Equal(t, thumbnailPath, details.ThumbnailPath)
}

func TestService_UploadPhotoRejectsGarbage(t *testing.T) {
	svc, _, photos := newTestService(t)
	ctx := context.Background()

	user := register(t, svc, "user@example.com")

	_, _, err := svc.UploadPhoto(ctx, user.ID, []byte("not an image"))
	require.ErrorIs(t, err, common.ErrorValidation)
	assert.Empty(t, photos.lastKeys)
}

func TestService_AdminOperations(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	u1 := register(t, svc, "a@example.com")
	register(t, svc, "b@example.com")

	profiles, err := svc.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, profiles, 2)

	profile, err := svc.UpdateUser(ctx, u1.ID, DetailsUpdate{FirstName: "Renamed"})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", profile.Details.FirstName)

	require.NoError(t, svc.DeleteUser(ctx, u1.ID))
	profiles, err = svc.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, profiles, 1)

	require.ErrorIs(t, svc.DeleteUser(ctx, u1.ID), common.ErrorNotFound)
}
