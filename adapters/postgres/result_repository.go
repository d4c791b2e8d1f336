package postgres

import (
	"context"

	"schoolresults/internal/errors"
	"schoolresults/models"
	"schoolresults/ports"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// ResultRepositoryImpl implements ResultRepository for PostgreSQL
type ResultRepositoryImpl struct {
	db *sqlx.DB
}

// NewResultRepository creates a new PostgreSQL result repository
func NewResultRepository(db *sqlx.DB) ports.ResultRepository {
	return &ResultRepositoryImpl{db: db}
}

const resultColumns = `id, name, student_class, subject, percentage, student_id, teacher_id, term, session, created_at`

// StoreUpload persists one upload inside a single transaction. Eviction of
// other sessions and the upserts commit together, so a reader never observes
// the store with the old sessions gone but the new rows missing.
func (r *ResultRepositoryImpl) StoreUpload(ctx context.Context, session string, evictOtherSessions bool, records []models.StudentResult) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	if evictOtherSessions {
		if _, err := tx.ExecContext(ctx, `DELETE FROM results WHERE session <> $1`, session); err != nil {
			return errors.Wrap(err, "failed to evict prior sessions")
		}
	}

	for i := range records {
		records[i].ID = uuid.New()
		_, err := tx.NamedExecContext(ctx, `
			INSERT INTO results (id, name, student_class, subject, percentage, student_id, teacher_id, term, session, created_at)
			VALUES (:id, :name, :student_class, :subject, :percentage, :student_id, :teacher_id, :term, :session, NOW())
			ON CONFLICT (name, student_class, subject, term, session)
			DO UPDATE SET
				percentage = EXCLUDED.percentage,
				student_id = COALESCE(EXCLUDED.student_id, results.student_id)
		`, records[i])
		if err != nil {
			return errors.Wrap(err, "failed to insert result")
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit upload")
	}
	return nil
}

// ListByStudentID returns all records linked to a student identity
func (r *ResultRepositoryImpl) ListByStudentID(ctx context.Context, studentID uuid.UUID) ([]models.StudentResult, error) {
	var results []models.StudentResult
	err := r.db.SelectContext(ctx, &results, `
		SELECT `+resultColumns+`
		FROM results
		WHERE student_id = $1
		ORDER BY term, subject
	`, studentID)
	return results, err
}

// SearchByNameContains returns records whose uploaded name contains the given
// text, case-insensitively
func (r *ResultRepositoryImpl) SearchByNameContains(ctx context.Context, name string) ([]models.StudentResult, error) {
	var results []models.StudentResult
	err := r.db.SelectContext(ctx, &results, `
		SELECT `+resultColumns+`
		FROM results
		WHERE name ILIKE '%' || $1 || '%'
		ORDER BY term, subject
	`, name)
	return results, err
}

// BackfillStudentID links the given records to a student identity where no
// link exists yet
func (r *ResultRepositoryImpl) BackfillStudentID(ctx context.Context, resultIDs []uuid.UUID, studentID uuid.UUID) error {
	if len(resultIDs) == 0 {
		return nil
	}
	_, err := r.db.ExecContext(ctx, `
		UPDATE results
		SET student_id = $1
		WHERE id = ANY($2) AND student_id IS NULL
	`, studentID, pq.Array(resultIDs))
	return err
}

// ListByClassTerm returns every record for a class in one term
func (r *ResultRepositoryImpl) ListByClassTerm(ctx context.Context, class, term string) ([]models.StudentResult, error) {
	var results []models.StudentResult
	err := r.db.SelectContext(ctx, &results, `
		SELECT `+resultColumns+`
		FROM results
		WHERE student_class = $1 AND term = $2
	`, class, term)
	return results, err
}

// ListByClass returns every record for a class
func (r *ResultRepositoryImpl) ListByClass(ctx context.Context, class string) ([]models.StudentResult, error) {
	var results []models.StudentResult
	err := r.db.SelectContext(ctx, &results, `
		SELECT `+resultColumns+`
		FROM results
		WHERE student_class = $1
		ORDER BY name, subject
	`, class)
	return results, err
}

// ListAll returns every stored record
func (r *ResultRepositoryImpl) ListAll(ctx context.Context) ([]models.StudentResult, error) {
	var results []models.StudentResult
	err := r.db.SelectContext(ctx, &results, `
		SELECT `+resultColumns+`
		FROM results
		ORDER BY session, term, student_class, name
	`)
	return results, err
}
