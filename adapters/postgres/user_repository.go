package postgres

import (
	"context"
	"database/sql"
	stderrors "errors"

	"schoolresults/internal/errors"
	"schoolresults/models"
	"schoolresults/ports"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// UserRepositoryImpl implements UserRepository for PostgreSQL
type UserRepositoryImpl struct {
	db *sqlx.DB
}

// NewUserRepository creates a new PostgreSQL user repository
func NewUserRepository(db *sqlx.DB) ports.UserRepository {
	return &UserRepositoryImpl{db: db}
}

// CreateUser creates a new user
func (r *UserRepositoryImpl) CreateUser(ctx context.Context, user *models.User) error {
	user.ID = uuid.New()
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO users (id, username, full_name, role, password_hash, is_active, must_change_password, created_at, updated_at)
		VALUES (:id, :username, :full_name, :role, :password_hash, :is_active, :must_change_password, NOW(), NOW())
	`, user)

	if err != nil {
		var pqErr *pq.Error
		if stderrors.As(err, &pqErr) && pqErr.Code == "23505" { // unique_violation
			return errors.ValidationError("username already exists")
		}
		return err
	}
	return nil
}

// GetUserByID retrieves a user by their ID
func (r *UserRepositoryImpl) GetUserByID(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `
		SELECT id, username, full_name, role, password_hash, is_active, must_change_password, created_at, updated_at
		FROM users
		WHERE id = $1
	`, userID)

	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NotFound("user")
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByUsername retrieves a user by exact username
func (r *UserRepositoryImpl) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `
		SELECT id, username, full_name, role, password_hash, is_active, must_change_password, created_at, updated_at
		FROM users
		WHERE username = $1
	`, username)

	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NotFound("user")
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// MatchByName resolves a free-text name by case-insensitive equality against
// username or full name. Ordering by created_at keeps the first match
// deterministic when display names collide.
func (r *UserRepositoryImpl) MatchByName(ctx context.Context, name string) (*models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `
		SELECT id, username, full_name, role, password_hash, is_active, must_change_password, created_at, updated_at
		FROM users
		WHERE LOWER(username) = LOWER($1) OR LOWER(full_name) = LOWER($1)
		ORDER BY created_at
		LIMIT 1
	`, name)

	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdatePassword replaces a user's credential hash and clears the
// must-change-password flag
func (r *UserRepositoryImpl) UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET password_hash = $2, must_change_password = false, updated_at = NOW()
		WHERE id = $1
	`, userID, passwordHash)
	return err
}
