package app

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	"schoolresults/adapters/spreadsheet"
	"schoolresults/domain/academic"
	"schoolresults/internal/config"
	"schoolresults/internal/errors"
	"schoolresults/models"
	"schoolresults/ports"
)

// Columns every uploaded results sheet must carry.
var requiredColumns = []string{"Student Name", "Class", "Subject", "Percentage"}

// IngestService coordinates one upload: filename metadata extraction,
// spreadsheet loading, directory matching, prior-session eviction and
// persistence.
type IngestService struct {
	reader    *spreadsheet.Reader
	users     ports.UserRepository
	results   ports.ResultRepository
	retention string
}

// NewIngestService creates a new ingestion coordinator. retention is one of
// the config.Retention* values and decides whether an upload with a known
// session evicts every other stored session.
func NewIngestService(reader *spreadsheet.Reader, users ports.UserRepository, results ports.ResultRepository, retention string) *IngestService {
	return &IngestService{
		reader:    reader,
		users:     users,
		results:   results,
		retention: retention,
	}
}

// UploadResults ingests one spreadsheet of student scores. Rows that cannot
// be coerced are reported in the summary's Skipped list rather than silently
// dropped; names that match no known user end up in Unmatched.
func (s *IngestService) UploadResults(ctx context.Context, data []byte, filename string) (*models.UploadSummary, error) {
	term := academic.InferTerm(filename)
	session := academic.InferSession(filename)

	table, err := s.reader.Read(data, filename)
	if err != nil {
		return nil, err
	}
	if err := spreadsheet.RequireColumns(table, requiredColumns...); err != nil {
		return nil, err
	}

	var (
		records   []models.StudentResult
		skipped   []models.SkippedRow
		unmatched []string
		seen      = make(map[string]bool)
	)

	for i, row := range table.Rows {
		// Spreadsheet row number, counting the header as row 1.
		rowNumber := i + 2

		record, reason := s.coerceRow(row, term, session)
		if reason != "" {
			skipped = append(skipped, models.SkippedRow{RowNumber: rowNumber, Reason: reason})
			continue
		}

		user, err := s.users.MatchByName(ctx, record.Name)
		if err != nil {
			return nil, errors.Wrap(err, "student lookup failed")
		}
		if user != nil {
			id := user.ID
			record.StudentID = &id
		} else if !seen[record.Name] {
			seen[record.Name] = true
			unmatched = append(unmatched, record.Name)
		}

		records = append(records, *record)
	}

	evict := s.retention == config.RetentionReplace && session != academic.UnknownSession
	if err := s.results.StoreUpload(ctx, session, evict, records); err != nil {
		return nil, errors.Wrap(err, "result ingestion failed")
	}

	log.Printf("[Ingest] %s: %d records stored, %d skipped, %d unmatched (%s, %s)",
		filename, len(records), len(skipped), len(unmatched), term, session)

	msg := fmt.Sprintf("%d results uploaded successfully for %s (%s).", len(records), term, session)
	if len(unmatched) > 0 {
		preview := unmatched
		if len(preview) > 5 {
			preview = preview[:5]
		}
		msg += fmt.Sprintf(" %d names not matched: %s...", len(unmatched), strings.Join(preview, ", "))
	}

	return &models.UploadSummary{
		Message:      msg,
		Term:         term,
		Session:      session,
		RecordsAdded: len(records),
		Unmatched:    unmatched,
		Skipped:      skipped,
	}, nil
}

// coerceRow turns one raw spreadsheet row into a StudentResult. The second
// return value carries the skip reason when coercion fails.
func (s *IngestService) coerceRow(row spreadsheet.RowData, term, session string) (*models.StudentResult, string) {
	name := strings.TrimSpace(row["Student Name"])
	class := strings.TrimSpace(row["Class"])
	subject := strings.TrimSpace(row["Subject"])

	if name == "" {
		return nil, "missing student name"
	}
	if class == "" {
		return nil, "missing class"
	}
	if subject == "" {
		return nil, "missing subject"
	}

	percentage, err := strconv.ParseFloat(strings.TrimSpace(row["Percentage"]), 64)
	if err != nil {
		return nil, fmt.Sprintf("invalid percentage %q", row["Percentage"])
	}

	return &models.StudentResult{
		Name:         name,
		StudentClass: class,
		Subject:      subject,
		Percentage:   percentage,
		Term:         term,
		Session:      session,
	}, ""
}
