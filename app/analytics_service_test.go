package app

import (
	"context"
	"testing"

	"schoolresults/domain/academic"
	"schoolresults/internal/errors"
	"schoolresults/internal/testkit"
	"schoolresults/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type analyticsFixture struct {
	svc     *AnalyticsService
	users   *testkit.FakeUserRepository
	results *testkit.FakeResultRepository
	reports *testkit.StubReportGenerator
}

func newAnalyticsFixture() *analyticsFixture {
	users := testkit.NewFakeUserRepository()
	results := testkit.NewFakeResultRepository()
	reports := &testkit.StubReportGenerator{Report: "Keep up the good work."}
	return &analyticsFixture{
		svc:     NewAnalyticsService(users, results, reports),
		users:   users,
		results: results,
		reports: reports,
	}
}

// seedClass stores first-term scores for three JSS1 students: Ada averages
// 90, Bola and Chidi both average 80. Bola additionally has one second-term
// score.
func (f *analyticsFixture) seedClass(t *testing.T) (ada, bola, chidi *models.User) {
	t.Helper()
	ada = f.users.Seed(models.User{Username: "ada", FullName: "Ada Obi"})
	bola = f.users.Seed(models.User{Username: "bola", FullName: "Bola Ade"})
	chidi = f.users.Seed(models.User{Username: "chidi", FullName: "Chidi Eze"})

	rec := func(u *models.User, subject string, pct float64, term string) models.StudentResult {
		id := u.ID
		return models.StudentResult{
			Name:         u.FullName,
			StudentClass: "JSS1",
			Subject:      subject,
			Percentage:   pct,
			StudentID:    &id,
			Term:         term,
			Session:      "2024/2025",
		}
	}

	require.NoError(t, f.results.StoreUpload(context.Background(), "2024/2025", false, []models.StudentResult{
		rec(ada, "Mathematics", 90, academic.FirstTerm),
		rec(ada, "English", 90, academic.FirstTerm),
		rec(bola, "Mathematics", 80, academic.FirstTerm),
		rec(bola, "English", 80, academic.FirstTerm),
		rec(chidi, "Mathematics", 85, academic.FirstTerm),
		rec(chidi, "English", 75, academic.FirstTerm),
		rec(bola, "Mathematics", 70, academic.SecondTerm),
	}))
	return ada, bola, chidi
}

func TestStudentReport(t *testing.T) {
	f := newAnalyticsFixture()
	f.seedClass(t)

	report, err := f.svc.StudentReport(context.Background(), "bola")
	require.NoError(t, err)

	assert.Equal(t, "Bola Ade", report.StudentName)
	assert.Equal(t, academic.SecondTerm, report.LatestTerm)
	require.Len(t, report.Results, 3)

	// First term: Ada averages 90, Bola and Chidi tie at 80 -> both 2nd.
	first := report.TermPositions[academic.FirstTerm]
	require.NotNil(t, first.Position)
	assert.Equal(t, 2, *first.Position)
	assert.Equal(t, "2nd", first.PositionLabel)
	assert.InDelta(t, 80.0, first.AverageScore, 1e-9)

	// Second term: Bola is the only ranked student.
	second := report.TermPositions[academic.SecondTerm]
	require.NotNil(t, second.Position)
	assert.Equal(t, 1, *second.Position)
	assert.Equal(t, "1st", second.PositionLabel)
	assert.InDelta(t, 70.0, second.AverageScore, 1e-9)

	// Class-wide subject stats annotate Bola's own rows. First-term
	// Mathematics scores are [90, 80, 85].
	var mathRow *models.ResultRow
	for i := range report.Results {
		if report.Results[i].Term == academic.FirstTerm && report.Results[i].Subject == "Mathematics" {
			mathRow = &report.Results[i]
		}
	}
	require.NotNil(t, mathRow)
	assert.Equal(t, 80.0, mathRow.MinScoreInClass)
	assert.Equal(t, 90.0, mathRow.MaxScoreInClass)
	assert.Equal(t, 85.0, mathRow.MedianScoreInClass)

	// The narrative covers only the latest term's rows.
	require.NotNil(t, report.AcademicAnalysis)
	assert.Equal(t, "Keep up the good work.", *report.AcademicAnalysis)
	require.Len(t, f.reports.Calls, 1)
	require.Len(t, f.reports.Calls[0], 1)
	assert.Equal(t, academic.SecondTerm, f.reports.Calls[0][0].Term)
}

func TestStudentReportTopOfClass(t *testing.T) {
	f := newAnalyticsFixture()
	f.seedClass(t)

	report, err := f.svc.StudentReport(context.Background(), "ada")
	require.NoError(t, err)

	first := report.TermPositions[academic.FirstTerm]
	require.NotNil(t, first.Position)
	assert.Equal(t, 1, *first.Position)
	assert.Equal(t, "1st", first.PositionLabel)
	assert.InDelta(t, 90.0, first.AverageScore, 1e-9)
	assert.Equal(t, academic.FirstTerm, report.LatestTerm)
}

func TestStudentReportNameFallbackBackfills(t *testing.T) {
	f := newAnalyticsFixture()
	user := f.users.Seed(models.User{Username: "ao2024", FullName: "Ada Obi"})

	// Uploaded before the account existed: no student link.
	require.NoError(t, f.results.StoreUpload(context.Background(), "2024/2025", false, []models.StudentResult{
		{Name: "Ada Obi", StudentClass: "JSS1", Subject: "Mathematics", Percentage: 88, Term: academic.FirstTerm, Session: "2024/2025"},
	}))

	report, err := f.svc.StudentReport(context.Background(), "ao2024")
	require.NoError(t, err)
	require.Len(t, report.Results, 1)

	stored := f.results.All()
	require.Len(t, stored, 1)
	require.NotNil(t, stored[0].StudentID)
	assert.Equal(t, user.ID, *stored[0].StudentID)
}

func TestStudentReportMissingUsername(t *testing.T) {
	f := newAnalyticsFixture()

	_, err := f.svc.StudentReport(context.Background(), "")
	require.Error(t, err)
	assert.Equal(t, errors.CodeValidationError, errors.GetCode(err))
}

func TestStudentReportUnknownUser(t *testing.T) {
	f := newAnalyticsFixture()

	_, err := f.svc.StudentReport(context.Background(), "nobody")
	require.Error(t, err)
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))
}

func TestStudentReportNoResults(t *testing.T) {
	f := newAnalyticsFixture()
	f.users.Seed(models.User{Username: "ada", FullName: "Ada Obi"})

	report, err := f.svc.StudentReport(context.Background(), "ada")
	require.NoError(t, err)

	assert.NotNil(t, report.Results)
	assert.Empty(t, report.Results)
	assert.Nil(t, report.AcademicAnalysis)
	assert.Empty(t, f.reports.Calls)
}

func TestStudentReportGeneratorFailureAbsorbed(t *testing.T) {
	f := newAnalyticsFixture()
	f.seedClass(t)
	f.reports.Err = assert.AnError

	report, err := f.svc.StudentReport(context.Background(), "bola")
	require.NoError(t, err)
	assert.Nil(t, report.AcademicAnalysis)
	require.Len(t, report.Results, 3)
}

func TestStudentReportRanksAreDense(t *testing.T) {
	f := newAnalyticsFixture()
	users := make([]*models.User, 0, 4)
	records := make([]models.StudentResult, 0, 4)
	scores := []float64{95, 90, 90, 60}
	names := []string{"u1", "u2", "u3", "u4"}
	for i, score := range scores {
		u := f.users.Seed(models.User{Username: names[i], FullName: names[i]})
		users = append(users, u)
		id := u.ID
		records = append(records, models.StudentResult{
			Name: names[i], StudentClass: "SS1", Subject: "Physics", Percentage: score,
			StudentID: &id, Term: academic.FirstTerm, Session: "2024/2025",
		})
	}
	require.NoError(t, f.results.StoreUpload(context.Background(), "2024/2025", false, records))

	wantPositions := []int{1, 2, 2, 3}
	for i, u := range users {
		report, err := f.svc.StudentReport(context.Background(), u.Username)
		require.NoError(t, err)
		pos := report.TermPositions[academic.FirstTerm]
		require.NotNil(t, pos.Position, "user %s", u.Username)
		assert.Equal(t, wantPositions[i], *pos.Position, "user %s", u.Username)
	}
}
