package ports

import (
	"context"

	"schoolresults/models"
)

// ReportGenerator produces a narrative performance summary for a set of
// result rows. Implementations absorb service-level failures into fallback
// text; a non-nil error means the report could not be produced at all and
// callers should degrade to an absent analysis rather than failing.
type ReportGenerator interface {
	GenerateStudentReport(ctx context.Context, rows []models.ResultRow) (string, error)
}
