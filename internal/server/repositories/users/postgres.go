package users

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ADRPUR/event-driven-marketplace/internal/common"
	"github.com/ADRPUR/event-driven-marketplace/internal/dbx"
	"github.com/ADRPUR/event-driven-marketplace/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) error {
	query := `INSERT INTO users (id, email, password_hash, role)
	          VALUES ($1, $2, $3, $4)
	          RETURNING created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		user.ID, user.Email, user.PasswordHash, user.Role).
		Scan(&user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return common.ErrorAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) CreateDetails(ctx context.Context, details *models.UserDetails) error {
	addr, err := marshalAddress(details.Address)
	if err != nil {
		return err
	}

	query := `INSERT INTO user_details
	          (user_id, first_name, last_name, date_of_birth, phone, address, photo_path, thumbnail_path)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	          RETURNING created_at, updated_at`

	err = r.db.QueryRowContext(ctx, query,
		details.UserID, details.FirstName, details.LastName,
		nullDate(details.DateOfBirth), details.Phone, addr,
		details.PhotoPath, details.ThumbnailPath).
		Scan(&details.CreatedAt, &details.UpdatedAt)

	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT id, email, password_hash, role, created_at, updated_at
	          FROM users WHERE email = $1`
	return r.scanUser(r.db.QueryRowContext(ctx, query, email))
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT id, email, password_hash, role, created_at, updated_at
	          FROM users WHERE id = $1`
	return r.scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) scanUser(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(&user.ID, &user.Email, &user.PasswordHash, &user.Role,
		&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}

func (r *PostgresRepository) GetDetails(ctx context.Context, userID string) (*models.UserDetails, error) {
	query := `SELECT user_id, first_name, last_name, date_of_birth, phone, address,
	                 photo_path, thumbnail_path, created_at, updated_at
	          FROM user_details WHERE user_id = $1`

	details := &models.UserDetails{}
	var dob sql.NullTime
	var addr []byte

	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&details.UserID, &details.FirstName, &details.LastName, &dob,
		&details.Phone, &addr, &details.PhotoPath, &details.ThumbnailPath,
		&details.CreatedAt, &details.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if dob.Valid {
		details.DateOfBirth = dob.Time
	}
	if details.Address, err = unmarshalAddress(addr); err != nil {
		return nil, err
	}
	return details, nil
}

func (r *PostgresRepository) UpdateDetails(ctx context.Context, details *models.UserDetails) error {
	addr, err := marshalAddress(details.Address)
	if err != nil {
		return err
	}

	query := `UPDATE user_details
	          SET first_name = $2, last_name = $3, date_of_birth = $4,
	              phone = $5, address = $6, updated_at = now()
	          WHERE user_id = $1
	          RETURNING updated_at`

	err = r.db.QueryRowContext(ctx, query,
		details.UserID, details.FirstName, details.LastName,
		nullDate(details.DateOfBirth), details.Phone, addr).
		Scan(&details.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	query := `UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, userID, passwordHash)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) UpdatePhoto(ctx context.Context, userID, photoPath, thumbnailPath string) error {
	query := `UPDATE user_details
	          SET photo_path = $2, thumbnail_path = $3, updated_at = now()
	          WHERE user_id = $1`

	res, err := r.db.ExecContext(ctx, query, userID, photoPath, thumbnailPath)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]*models.Profile, error) {
	query := `SELECT u.id, u.email, u.role, u.created_at, u.updated_at,
	                 d.first_name, d.last_name, d.date_of_birth, d.phone, d.address,
	                 d.photo_path, d.thumbnail_path, d.created_at, d.updated_at
	          FROM users u
	          JOIN user_details d ON d.user_id = u.id
	          ORDER BY u.created_at`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Profile
	for rows.Next() {
		p := &models.Profile{}
		var dob sql.NullTime
		var addr []byte

		err := rows.Scan(&p.User.ID, &p.User.Email, &p.User.Role,
			&p.User.CreatedAt, &p.User.UpdatedAt,
			&p.Details.FirstName, &p.Details.LastName, &dob, &p.Details.Phone,
			&addr, &p.Details.PhotoPath, &p.Details.ThumbnailPath,
			&p.Details.CreatedAt, &p.Details.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}

		p.Details.UserID = p.User.ID
		if dob.Valid {
			p.Details.DateOfBirth = dob.Time
		}
		if p.Details.Address, err = unmarshalAddress(addr); err != nil {
			return nil, err
		}
		result = append(result, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func marshalAddress(a *models.Address) ([]byte, error) {
	if a == nil {
		return nil, nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("marshal address: %w", err)
	}
	return b, nil
}

func unmarshalAddress(b []byte) (*models.Address, error) {
	if len(b) == 0 {
		return nil, nil
	}
	a := &models.Address{}
	if err := json.Unmarshal(b, a); err != nil {
		return nil, fmt.Errorf("unmarshal address: %w", err)
	}
	return a, nil
}

func nullDate(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
