package ports

import (
	"context"

	"schoolresults/models"

	"github.com/google/uuid"
)

// ResultRepository defines the interface for stored result operations
type ResultRepository interface {
	// StoreUpload persists one upload's records in a single transaction.
	// When evictOtherSessions is set, every stored record whose session
	// differs from the given session is deleted in the same transaction
	// before the new records go in. Records are upserted on the
	// (name, student_class, subject, term, session) key.
	StoreUpload(ctx context.Context, session string, evictOtherSessions bool, records []models.StudentResult) error

	// ListByStudentID returns all records linked to a student identity
	ListByStudentID(ctx context.Context, studentID uuid.UUID) ([]models.StudentResult, error)

	// SearchByNameContains returns records whose uploaded name contains the
	// given text, case-insensitively
	SearchByNameContains(ctx context.Context, name string) ([]models.StudentResult, error)

	// BackfillStudentID links the given records to a student identity where
	// no link exists yet
	BackfillStudentID(ctx context.Context, resultIDs []uuid.UUID, studentID uuid.UUID) error

	// ListByClassTerm returns every record for a class in one term,
	// across all students
	ListByClassTerm(ctx context.Context, class, term string) ([]models.StudentResult, error)

	// ListByClass returns every record for a class
	ListByClass(ctx context.Context, class string) ([]models.StudentResult, error)

	// ListAll returns every stored record
	ListAll(ctx context.Context) ([]models.StudentResult, error)
}
