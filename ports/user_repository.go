package ports

import (
	"context"

	"schoolresults/models"

	"github.com/google/uuid"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	// CreateUser creates a new user
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByID retrieves a user by their ID
	GetUserByID(ctx context.Context, userID uuid.UUID) (*models.User, error)

	// GetUserByUsername retrieves a user by exact username
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)

	// MatchByName resolves a free-text name to a user by case-insensitive
	// equality against username or full name. Returns (nil, nil) when no
	// user matches; the first match wins.
	MatchByName(ctx context.Context, name string) (*models.User, error)

	// UpdatePassword replaces a user's credential hash and clears the
	// must-change-password flag
	UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error
}
