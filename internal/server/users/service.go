// Package users implements the account service: registration, login and
// token lifecycle, profile reads/updates, photo processing, and the admin
// operations over the user list.
package users

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/ADRPUR/event-driven-marketplace/internal/common"
	"github.com/ADRPUR/event-driven-marketplace/internal/dbx"
	"github.com/ADRPUR/event-driven-marketplace/internal/imagex"
	"github.com/ADRPUR/event-driven-marketplace/internal/server/auth"
	"github.com/ADRPUR/event-driven-marketplace/internal/server/config"
	"github.com/ADRPUR/event-driven-marketplace/internal/server/models"
	"github.com/ADRPUR/event-driven-marketplace/internal/server/photostore"
	"github.com/ADRPUR/event-driven-marketplace/internal/server/repositories/repomanager"
)

// LoginResult carries everything the login endpoint returns.
type LoginResult struct {
	AccessToken  string
	RefreshToken string
	SessionToken string
	ExpiresAt    time.Time
	Profile      *models.Profile
}

// Registration is the input for creating a new account.
type Registration struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      string
}

// DetailsUpdate is the full profile mirror submitted by PUT /me and
// PUT /users/{id}. Fields replace the stored record wholesale.
type DetailsUpdate struct {
	FirstName   string
	LastName    string
	DateOfBirth time.Time
	Phone       string
	Address     *models.Address
}

type Service struct {
	db                           *sql.DB
	repos                        repomanager.RepositoryManager
	photos                       photostore.Store
	jwtSecret                    []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
	thumbnailSize                int
}

func NewService(db *sql.DB, repos repomanager.RepositoryManager, photos photostore.Store, cfg *config.Config) *Service {
	return &Service{
		db:                           db,
		repos:                        repos,
		photos:                       photos,
		jwtSecret:                    []byte(cfg.SecretKey),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
		thumbnailSize:                cfg.ThumbnailSize,
	}
}

// Register creates a user and an empty details sub-record in one
// transaction and returns the new account.
func (s *Service) Register(ctx context.Context, reg Registration) (*models.User, error) {
	email := strings.TrimSpace(strings.ToLower(reg.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: invalid email", common.ErrorValidation)
	}
	if len(reg.Password) < 6 {
		return nil, fmt.Errorf("%w: password must be at least 6 characters", common.ErrorValidation)
	}

	role := reg.Role
	if role == "" {
		role = models.RoleUser
	}
	if role != models.RoleUser && role != models.RoleAdmin {
		return nil, fmt.Errorf("%w: unknown role %q", common.ErrorValidation, role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repos.Users(tx)
		if err := repo.Create(ctx, user); err != nil {
			return err
		}
		return repo.CreateDetails(ctx, &models.UserDetails{
			UserID:    user.ID,
			FirstName: reg.FirstName,
			LastName:  reg.LastName,
		})
	})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, fmt.Errorf("%w: email already registered", common.ErrorValidation)
		}
		return nil, err
	}

	return user, nil
}

// Login validates credentials and mints the token set. A lookup miss and a
// wrong password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	repo := s.repos.Users(s.db)

	user, err := repo.GetByEmail(ctx, strings.TrimSpace(strings.ToLower(email)))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorInvalidCredentials
		}
		return nil, common.ErrorInternal
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, common.ErrorInvalidCredentials
	}

	accessToken, err := auth.GenerateToken(user.ID, user.Role, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return nil, common.ErrorInternal
	}

	refreshToken, err := common.MakeRandHexString(32)
	if err != nil {
		return nil, common.ErrorInternal
	}
	if err := s.repos.RefreshTokens(s.db).Create(ctx, user.ID, refreshToken, s.refreshTokenValidityDuration); err != nil {
		return nil, common.ErrorInternal
	}

	details, err := repo.GetDetails(ctx, user.ID)
	if err != nil {
		return nil, common.ErrorInternal
	}

	return &LoginResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		SessionToken: uuid.New().String(),
		ExpiresAt:    time.Now().Add(s.accessTokenValidityDuration),
		Profile:      &models.Profile{User: *user, Details: *details},
	}, nil
}

// Refresh exchanges a live refresh token for a new access token.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (string, time.Time, error) {
	rt, err := s.repos.RefreshTokens(s.db).Get(ctx, refreshToken)
	if err != nil || rt.Expired() {
		return "", time.Time{}, common.ErrRefreshTokenExpired
	}

	user, err := s.repos.Users(s.db).GetByID(ctx, rt.UserID)
	if err != nil {
		return "", time.Time{}, common.ErrorInternal
	}

	accessToken, err := auth.GenerateToken(user.ID, user.Role, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return "", time.Time{}, common.ErrorInternal
	}
	return accessToken, time.Now().Add(s.accessTokenValidityDuration), nil
}

// Logout revokes the refresh token (single-device logout).
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	return s.repos.RefreshTokens(s.db).Delete(ctx, refreshToken)
}

// ChangePassword verifies the current password and stores a fresh hash of
// the new one. Outstanding refresh tokens stay valid.
func (s *Service) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if len(newPassword) < 6 {
		return fmt.Errorf("%w: password must be at least 6 characters", common.ErrorValidation)
	}

	repo := s.repos.Users(s.db)

	user, err := repo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword)) != nil {
		return common.ErrorInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return repo.UpdatePassword(ctx, userID, string(hash))
}

// GetProfile returns a user with details.
func (s *Service) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	repo := s.repos.Users(s.db)

	user, err := repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	details, err := repo.GetDetails(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &models.Profile{User: *user, Details: *details}, nil
}

// UpdateDetails replaces the details sub-record with upd and returns the
// refreshed profile.
func (s *Service) UpdateDetails(ctx context.Context, userID string, upd DetailsUpdate) (*models.Profile, error) {
	repo := s.repos.Users(s.db)

	details, err := repo.GetDetails(ctx, userID)
	if err != nil {
		return nil, err
	}

	details.FirstName = upd.FirstName
	details.LastName = upd.LastName
	details.DateOfBirth = upd.DateOfBirth
	details.Phone = upd.Phone
	details.Address = upd.Address

	if err := repo.UpdateDetails(ctx, details); err != nil {
		return nil, err
	}
	return s.GetProfile(ctx, userID)
}

// UploadPhoto decodes the submitted image, stores a normalized JPEG plus a
// square thumbnail, and records both paths on the profile.
func (s *Service) UploadPhoto(ctx context.Context, userID string, data []byte) (photoPath, thumbnailPath string, err error) {
	img, err := imagex.Decode(bytes.NewReader(data))
	if err != nil {
		return "", "", fmt.Errorf("%w: unsupported image: %v", common.ErrorValidation, err)
	}

	var buf bytes.Buffer
	if err := imagex.EncodeJPEG(&buf, img); err != nil {
		return "", "", fmt.Errorf("encode photo: %w", err)
	}

	key := photostore.RandomKey(".jpg")
	photoPath, err = s.photos.Save(ctx, key, buf.Bytes())
	if err != nil {
		return "", "", fmt.Errorf("store photo: %w", err)
	}

	buf.Reset()
	if err := imagex.EncodeJPEG(&buf, imagex.Thumbnail(img, s.thumbnailSize)); err != nil {
		return "", "", fmt.Errorf("encode thumbnail: %w", err)
	}

	thumbKey := strings.TrimSuffix(key, ".jpg") + "_thumb.jpg"
	thumbnailPath, err = s.photos.Save(ctx, thumbKey, buf.Bytes())
	if err != nil {
		return "", "", fmt.Errorf("store thumbnail: %w", err)
	}

	if err := s.repos.Users(s.db).UpdatePhoto(ctx, userID, photoPath, thumbnailPath); err != nil {
		return "", "", err
	}
	return photoPath, thumbnailPath, nil
}

// ListUsers returns every account with details (admin screen).
func (s *Service) ListUsers(ctx context.Context) ([]*models.Profile, error) {
	return s.repos.Users(s.db).List(ctx)
}

// UpdateUser lets an admin replace any user's details.
func (s *Service) UpdateUser(ctx context.Context, userID string, upd DetailsUpdate) (*models.Profile, error) {
	return s.UpdateDetails(ctx, userID, upd)
}

// DeleteUser removes an account; details and refresh tokens cascade.
func (s *Service) DeleteUser(ctx context.Context, userID string) error {
	return s.repos.Users(s.db).Delete(ctx, userID)
}
