package app

import (
	"context"
	"log"
	"sort"

	"schoolresults/domain/academic"
	"schoolresults/internal/errors"
	"schoolresults/models"
	"schoolresults/ports"

	"github.com/google/uuid"
	"github.com/montanaflynn/stats"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"
)

// AnalyticsService computes a student's results view: per-term class
// rankings, class-wide subject statistics and the narrative report for the
// latest term.
type AnalyticsService struct {
	users   ports.UserRepository
	results ports.ResultRepository
	reports ports.ReportGenerator
}

// NewAnalyticsService creates a new analytics engine.
func NewAnalyticsService(users ports.UserRepository, results ports.ResultRepository, reports ports.ReportGenerator) *AnalyticsService {
	return &AnalyticsService{
		users:   users,
		results: results,
		reports: reports,
	}
}

// subjectStats holds class-wide statistics for one subject in one term.
type subjectStats struct {
	min    float64
	max    float64
	median float64
}

// termOutput is one term's share of the report.
type termOutput struct {
	term     string
	rows     []models.ResultRow
	position models.TermPosition
}

// StudentReport assembles the full analytics payload for one student.
func (s *AnalyticsService) StudentReport(ctx context.Context, username string) (*models.StudentResultsReport, error) {
	if username == "" {
		return nil, errors.ValidationError("username query parameter is required")
	}

	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	records, err := s.fetchRecords(ctx, user)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return &models.StudentResultsReport{Results: []models.ResultRow{}}, nil
	}

	byTerm := make(map[string][]models.StudentResult)
	for _, rec := range records {
		byTerm[rec.Term] = append(byTerm[rec.Term], rec)
	}

	terms := make([]string, 0, len(byTerm))
	for term := range byTerm {
		terms = append(terms, term)
	}
	sort.Slice(terms, func(i, j int) bool {
		if academic.TermOrder(terms[i]) != academic.TermOrder(terms[j]) {
			return academic.TermOrder(terms[i]) < academic.TermOrder(terms[j])
		}
		return terms[i] < terms[j]
	})
	latestTerm := academic.LatestTerm(terms)

	// Terms are independent of each other; compute them concurrently.
	outputs := make([]termOutput, len(terms))
	g, gctx := errgroup.WithContext(ctx)
	for i, term := range terms {
		i, term := i, term
		g.Go(func() error {
			outputs[i] = s.computeTerm(gctx, user, term, byTerm[term])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &models.StudentResultsReport{
		Results:       []models.ResultRow{},
		StudentName:   user.DisplayName(),
		TermPositions: make(map[string]models.TermPosition, len(outputs)),
		LatestTerm:    latestTerm,
	}
	var latestRows []models.ResultRow
	for _, out := range outputs {
		report.Results = append(report.Results, out.rows...)
		report.TermPositions[out.term] = out.position
		if out.term == latestTerm {
			latestRows = out.rows
		}
	}

	// Collaborator failures degrade to an absent analysis, never an error.
	if analysis, err := s.reports.GenerateStudentReport(ctx, latestRows); err != nil {
		log.Printf("[Analytics] narrative report failed for %s: %v", username, err)
	} else {
		report.AcademicAnalysis = &analysis
	}

	return report, nil
}

// fetchRecords loads the student's results by identity, falling back to a
// substring search on the uploaded name (username first, then full name).
// Records found by name only are lazily linked to the student.
func (s *AnalyticsService) fetchRecords(ctx context.Context, user *models.User) ([]models.StudentResult, error) {
	records, err := s.results.ListByStudentID(ctx, user.ID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load results")
	}
	if len(records) > 0 {
		return records, nil
	}

	records, err = s.results.SearchByNameContains(ctx, user.Username)
	if err != nil {
		return nil, errors.Wrap(err, "failed to search results by username")
	}
	if len(records) == 0 && user.FullName != "" {
		records, err = s.results.SearchByNameContains(ctx, user.FullName)
		if err != nil {
			return nil, errors.Wrap(err, "failed to search results by full name")
		}
	}
	if len(records) == 0 {
		return nil, nil
	}

	var backfill []uuid.UUID
	for i := range records {
		if records[i].StudentID == nil {
			backfill = append(backfill, records[i].ID)
			id := user.ID
			records[i].StudentID = &id
		}
	}
	if err := s.results.BackfillStudentID(ctx, backfill, user.ID); err != nil {
		return nil, errors.Wrap(err, "failed to backfill student id")
	}

	return records, nil
}

// computeTerm ranks the student within their class for one term and
// annotates each of their rows with class-wide subject statistics. Store
// failures degrade to zeroed statistics so a sparse or unreadable class
// never takes the whole report down.
func (s *AnalyticsService) computeTerm(ctx context.Context, user *models.User, term string, termRecords []models.StudentResult) termOutput {
	// One class per term, taken from the first record.
	class := termRecords[0].StudentClass

	classRecords, err := s.results.ListByClassTerm(ctx, class, term)
	if err != nil {
		log.Printf("[Analytics] class lookup failed for %s/%s: %v", class, term, err)
		classRecords = nil
	}

	ownScores := make([]float64, len(termRecords))
	for i, rec := range termRecords {
		ownScores[i] = rec.Percentage
	}
	studentAvg := stat.Mean(ownScores, nil)

	position := termPosition(classRecords, user.ID, studentAvg)
	statsBySubject := computeSubjectStats(classRecords)

	rows := make([]models.ResultRow, len(termRecords))
	for i, rec := range termRecords {
		st := statsBySubject[rec.Subject]
		rows[i] = models.ResultRow{
			Name:               rec.Name,
			StudentClass:       rec.StudentClass,
			Subject:            rec.Subject,
			Percentage:         rec.Percentage,
			Term:               rec.Term,
			Session:            rec.Session,
			MinScoreInClass:    st.min,
			MaxScoreInClass:    st.max,
			MedianScoreInClass: st.median,
		}
	}

	return termOutput{term: term, rows: rows, position: position}
}

// termPosition ranks the student by class average: position is the number of
// distinct class averages strictly above the student's, plus one. Averages
// tie only when bit-identical. When the student's id is absent from the
// computed set the position is reported as absent.
func termPosition(classRecords []models.StudentResult, studentID uuid.UUID, studentAvg float64) models.TermPosition {
	scoresByStudent := make(map[uuid.UUID][]float64)
	for _, rec := range classRecords {
		// Unlinked records pool under the nil id, mirroring the store's
		// NULL student_id bucket.
		sid := uuid.Nil
		if rec.StudentID != nil {
			sid = *rec.StudentID
		}
		scoresByStudent[sid] = append(scoresByStudent[sid], rec.Percentage)
	}

	averages := make(map[uuid.UUID]float64, len(scoresByStudent))
	for sid, scores := range scoresByStudent {
		averages[sid] = stat.Mean(scores, nil)
	}

	pos := models.TermPosition{AverageScore: studentAvg}
	ownAvg, ok := averages[studentID]
	if !ok {
		return pos
	}

	distinctAbove := make(map[float64]bool)
	for _, avg := range averages {
		if avg > ownAvg {
			distinctAbove[avg] = true
		}
	}
	p := len(distinctAbove) + 1
	pos.Position = &p
	pos.PositionLabel = academic.Ordinal(p)
	return pos
}

// computeSubjectStats aggregates min/max/median per subject across every
// student's records in the class for that term.
func computeSubjectStats(classRecords []models.StudentResult) map[string]subjectStats {
	scoresBySubject := make(map[string][]float64)
	for _, rec := range classRecords {
		scoresBySubject[rec.Subject] = append(scoresBySubject[rec.Subject], rec.Percentage)
	}

	out := make(map[string]subjectStats, len(scoresBySubject))
	for subject, scores := range scoresBySubject {
		min, _ := stats.Min(scores)
		max, _ := stats.Max(scores)
		median, _ := stats.Median(scores)
		out[subject] = subjectStats{min: min, max: max, median: median}
	}
	return out
}
