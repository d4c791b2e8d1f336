// Package testkit provides in-memory implementations of the application's
// ports for service and handler tests. The fakes mirror the semantics of the
// postgres adapters: upsert keying, session eviction, name matching and lazy
// student-id backfill behave the same way.
package testkit

import (
	"context"
	"strings"
	"sync"

	"schoolresults/internal/errors"
	"schoolresults/models"
	"schoolresults/ports"

	"github.com/google/uuid"
)

var (
	_ ports.UserRepository   = (*FakeUserRepository)(nil)
	_ ports.ResultRepository = (*FakeResultRepository)(nil)
	_ ports.ReportGenerator  = (*StubReportGenerator)(nil)
)

// FakeUserRepository is an in-memory ports.UserRepository.
type FakeUserRepository struct {
	mu    sync.Mutex
	users []*models.User

	FailWith error // when set, every call fails with this error
}

func NewFakeUserRepository() *FakeUserRepository {
	return &FakeUserRepository{}
}

// Seed adds a user directly, assigning an ID when absent.
func (r *FakeUserRepository) Seed(user models.User) *models.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	u := user
	r.users = append(r.users, &u)
	return &u
}

func (r *FakeUserRepository) CreateUser(ctx context.Context, user *models.User) error {
	if r.FailWith != nil {
		return r.FailWith
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == user.Username {
			return errors.ValidationError("username already exists")
		}
	}
	user.ID = uuid.New()
	u := *user
	r.users = append(r.users, &u)
	return nil
}

func (r *FakeUserRepository) GetUserByID(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	if r.FailWith != nil {
		return nil, r.FailWith
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.ID == userID {
			copied := *u
			return &copied, nil
		}
	}
	return nil, errors.NotFound("user")
}

func (r *FakeUserRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	if r.FailWith != nil {
		return nil, r.FailWith
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			copied := *u
			return &copied, nil
		}
	}
	return nil, errors.NotFound("user")
}

func (r *FakeUserRepository) MatchByName(ctx context.Context, name string) (*models.User, error) {
	if r.FailWith != nil {
		return nil, r.FailWith
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Username, name) || strings.EqualFold(u.FullName, name) {
			copied := *u
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *FakeUserRepository) UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error {
	if r.FailWith != nil {
		return r.FailWith
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.ID == userID {
			u.PasswordHash = passwordHash
			u.MustChangePassword = false
			return nil
		}
	}
	return errors.NotFound("user")
}

// FakeResultRepository is an in-memory ports.ResultRepository.
type FakeResultRepository struct {
	mu      sync.Mutex
	records []models.StudentResult

	FailWith error // when set, every call fails with this error
}

func NewFakeResultRepository() *FakeResultRepository {
	return &FakeResultRepository{}
}

// All returns a snapshot of the stored records.
func (r *FakeResultRepository) All() []models.StudentResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.StudentResult, len(r.records))
	copy(out, r.records)
	return out
}

func upsertKey(rec models.StudentResult) string {
	return strings.Join([]string{rec.Name, rec.StudentClass, rec.Subject, rec.Term, rec.Session}, "\x00")
}

func (r *FakeResultRepository) StoreUpload(ctx context.Context, session string, evictOtherSessions bool, records []models.StudentResult) error {
	if r.FailWith != nil {
		return r.FailWith
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if evictOtherSessions {
		kept := r.records[:0]
		for _, rec := range r.records {
			if rec.Session == session {
				kept = append(kept, rec)
			}
		}
		r.records = kept
	}

	for _, rec := range records {
		rec.ID = uuid.New()
		replaced := false
		for i := range r.records {
			if upsertKey(r.records[i]) == upsertKey(rec) {
				r.records[i].Percentage = rec.Percentage
				if r.records[i].StudentID == nil {
					r.records[i].StudentID = rec.StudentID
				}
				replaced = true
				break
			}
		}
		if !replaced {
			r.records = append(r.records, rec)
		}
	}
	return nil
}

func (r *FakeResultRepository) ListByStudentID(ctx context.Context, studentID uuid.UUID) ([]models.StudentResult, error) {
	if r.FailWith != nil {
		return nil, r.FailWith
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.StudentResult
	for _, rec := range r.records {
		if rec.StudentID != nil && *rec.StudentID == studentID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *FakeResultRepository) SearchByNameContains(ctx context.Context, name string) ([]models.StudentResult, error) {
	if r.FailWith != nil {
		return nil, r.FailWith
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.StudentResult
	for _, rec := range r.records {
		if strings.Contains(strings.ToLower(rec.Name), strings.ToLower(name)) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *FakeResultRepository) BackfillStudentID(ctx context.Context, resultIDs []uuid.UUID, studentID uuid.UUID) error {
	if r.FailWith != nil {
		return r.FailWith
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	wanted := make(map[uuid.UUID]bool, len(resultIDs))
	for _, id := range resultIDs {
		wanted[id] = true
	}
	for i := range r.records {
		if wanted[r.records[i].ID] && r.records[i].StudentID == nil {
			sid := studentID
			r.records[i].StudentID = &sid
		}
	}
	return nil
}

func (r *FakeResultRepository) ListByClassTerm(ctx context.Context, class, term string) ([]models.StudentResult, error) {
	if r.FailWith != nil {
		return nil, r.FailWith
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.StudentResult
	for _, rec := range r.records {
		if rec.StudentClass == class && rec.Term == term {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *FakeResultRepository) ListByClass(ctx context.Context, class string) ([]models.StudentResult, error) {
	if r.FailWith != nil {
		return nil, r.FailWith
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.StudentResult
	for _, rec := range r.records {
		if rec.StudentClass == class {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *FakeResultRepository) ListAll(ctx context.Context) ([]models.StudentResult, error) {
	if r.FailWith != nil {
		return nil, r.FailWith
	}
	return r.All(), nil
}

// StubReportGenerator is a canned ports.ReportGenerator.
type StubReportGenerator struct {
	Report string
	Err    error
	Calls  [][]models.ResultRow
}

func (g *StubReportGenerator) GenerateStudentReport(ctx context.Context, rows []models.ResultRow) (string, error) {
	g.Calls = append(g.Calls, rows)
	if g.Err != nil {
		return "", g.Err
	}
	return g.Report, nil
}
