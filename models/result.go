package models

import (
	"time"

	"github.com/google/uuid"
)

// StudentResult is one subject score for one student in one term/session.
// Term and session are never empty: ingestion falls back to the Unknown
// labels when inference from the filename fails.
type StudentResult struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	Name         string     `json:"name" db:"name"`
	StudentClass string     `json:"student_class" db:"student_class"`
	Subject      string     `json:"subject" db:"subject"`
	Percentage   float64    `json:"percentage" db:"percentage"`
	StudentID    *uuid.UUID `json:"student_id,omitempty" db:"student_id"`
	TeacherID    *uuid.UUID `json:"teacher_id,omitempty" db:"teacher_id"`
	Term         string     `json:"term" db:"term"`
	Session      string     `json:"session" db:"session"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
}

// ResultRow is a StudentResult enriched with class-wide subject statistics,
// as returned by the analytics read path.
type ResultRow struct {
	Name               string  `json:"name"`
	StudentClass       string  `json:"student_class"`
	Subject            string  `json:"subject"`
	Percentage         float64 `json:"percentage"`
	Term               string  `json:"term"`
	Session            string  `json:"session"`
	MinScoreInClass    float64 `json:"min_score_in_class"`
	MaxScoreInClass    float64 `json:"max_score_in_class"`
	MedianScoreInClass float64 `json:"median_score_in_class"`
}

// TermPosition is a student's ranking within their class for one term.
// Position is nil when the student's own average could not be located in the
// class average set.
type TermPosition struct {
	Position      *int    `json:"position"`
	PositionLabel string  `json:"position_label"`
	AverageScore  float64 `json:"average_score"`
}

// StudentResultsReport is the full analytics payload for one student.
type StudentResultsReport struct {
	Results          []ResultRow             `json:"results"`
	AcademicAnalysis *string                 `json:"academic_analysis"`
	StudentName      string                  `json:"student_name,omitempty"`
	TermPositions    map[string]TermPosition `json:"term_positions,omitempty"`
	LatestTerm       string                  `json:"latest_term,omitempty"`
}

// SkippedRow records one spreadsheet row that ingestion could not coerce.
type SkippedRow struct {
	RowNumber int    `json:"row_number"`
	Reason    string `json:"reason"`
}

// UploadSummary is the outcome of one spreadsheet upload.
type UploadSummary struct {
	Message      string       `json:"message"`
	Term         string       `json:"term"`
	Session      string       `json:"session"`
	RecordsAdded int          `json:"records_added"`
	Unmatched    []string     `json:"unmatched,omitempty"`
	Skipped      []SkippedRow `json:"skipped,omitempty"`
}
