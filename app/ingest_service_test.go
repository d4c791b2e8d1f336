package app

import (
	"context"
	"testing"

	"schoolresults/adapters/spreadsheet"
	"schoolresults/domain/academic"
	"schoolresults/internal/config"
	"schoolresults/internal/errors"
	"schoolresults/internal/testkit"
	"schoolresults/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIngestFixture(retention string) (*IngestService, *testkit.FakeUserRepository, *testkit.FakeResultRepository) {
	users := testkit.NewFakeUserRepository()
	results := testkit.NewFakeResultRepository()
	svc := NewIngestService(spreadsheet.NewReader(), users, results, retention)
	return svc, users, results
}

func TestUploadResults(t *testing.T) {
	svc, users, results := newIngestFixture(config.RetentionReplace)
	ada := users.Seed(models.User{Username: "ada", FullName: "Ada Obi", Role: models.RoleStudent})

	csvData := []byte("Student Name,Class,Subject,Percentage\n" +
		"Ada Obi,JSS1,Mathematics,88\n" +
		"Ada Obi,JSS1,English,64\n" +
		"Tunde Bello,JSS1,Mathematics,71\n")

	summary, err := svc.UploadResults(context.Background(), csvData, "first_term_2024_2025.csv")
	require.NoError(t, err)

	assert.Equal(t, academic.FirstTerm, summary.Term)
	assert.Equal(t, "2024/2025", summary.Session)
	assert.Equal(t, 3, summary.RecordsAdded)
	assert.Equal(t, []string{"Tunde Bello"}, summary.Unmatched)
	assert.Empty(t, summary.Skipped)
	assert.Contains(t, summary.Message, "3 results uploaded successfully for First Term (2024/2025).")
	assert.Contains(t, summary.Message, "1 names not matched: Tunde Bello")

	stored := results.All()
	require.Len(t, stored, 3)
	for _, rec := range stored {
		assert.Equal(t, academic.FirstTerm, rec.Term)
		assert.Equal(t, "2024/2025", rec.Session)
		if rec.Name == "Ada Obi" {
			require.NotNil(t, rec.StudentID)
			assert.Equal(t, ada.ID, *rec.StudentID)
		} else {
			assert.Nil(t, rec.StudentID)
		}
	}
}

func TestUploadResultsMatchesByFullNameInsensitive(t *testing.T) {
	svc, users, results := newIngestFixture(config.RetentionReplace)
	ada := users.Seed(models.User{Username: "ao2024", FullName: "Ada Obi"})

	csvData := []byte("Student Name,Class,Subject,Percentage\nADA OBI,JSS1,Mathematics,88\n")

	summary, err := svc.UploadResults(context.Background(), csvData, "first_term_2024_2025.csv")
	require.NoError(t, err)
	assert.Empty(t, summary.Unmatched)

	stored := results.All()
	require.Len(t, stored, 1)
	require.NotNil(t, stored[0].StudentID)
	assert.Equal(t, ada.ID, *stored[0].StudentID)
}

func TestUploadResultsEvictsOtherSessions(t *testing.T) {
	svc, _, results := newIngestFixture(config.RetentionReplace)

	// Prior session left over from an earlier year.
	require.NoError(t, results.StoreUpload(context.Background(), "2023/2024", false, []models.StudentResult{
		{Name: "Old Student", StudentClass: "JSS1", Subject: "Mathematics", Percentage: 50, Term: academic.FirstTerm, Session: "2023/2024"},
	}))

	csvData := []byte("Student Name,Class,Subject,Percentage\nAda Obi,JSS1,Mathematics,88\n")
	_, err := svc.UploadResults(context.Background(), csvData, "second_term_2024_2025.csv")
	require.NoError(t, err)

	stored := results.All()
	require.Len(t, stored, 1)
	assert.Equal(t, "2024/2025", stored[0].Session)
}

func TestUploadResultsUnknownSessionKeepsEverything(t *testing.T) {
	svc, _, results := newIngestFixture(config.RetentionReplace)

	require.NoError(t, results.StoreUpload(context.Background(), "2023/2024", false, []models.StudentResult{
		{Name: "Old Student", StudentClass: "JSS1", Subject: "Mathematics", Percentage: 50, Term: academic.FirstTerm, Session: "2023/2024"},
	}))

	csvData := []byte("Student Name,Class,Subject,Percentage\nAda Obi,JSS1,Mathematics,88\n")
	summary, err := svc.UploadResults(context.Background(), csvData, "results.csv")
	require.NoError(t, err)

	assert.Equal(t, academic.UnknownTerm, summary.Term)
	assert.Equal(t, academic.UnknownSession, summary.Session)
	assert.Len(t, results.All(), 2)
}

func TestUploadResultsRetentionKeep(t *testing.T) {
	svc, _, results := newIngestFixture(config.RetentionKeep)

	require.NoError(t, results.StoreUpload(context.Background(), "2023/2024", false, []models.StudentResult{
		{Name: "Old Student", StudentClass: "JSS1", Subject: "Mathematics", Percentage: 50, Term: academic.FirstTerm, Session: "2023/2024"},
	}))

	csvData := []byte("Student Name,Class,Subject,Percentage\nAda Obi,JSS1,Mathematics,88\n")
	_, err := svc.UploadResults(context.Background(), csvData, "first_term_2024_2025.csv")
	require.NoError(t, err)

	assert.Len(t, results.All(), 2)
}

func TestUploadResultsSkipsBadRows(t *testing.T) {
	svc, _, results := newIngestFixture(config.RetentionReplace)

	csvData := []byte("Student Name,Class,Subject,Percentage\n" +
		"Ada Obi,JSS1,Mathematics,88\n" +
		"Tunde Bello,JSS1,English,not-a-number\n" +
		",JSS1,Mathematics,70\n")

	summary, err := svc.UploadResults(context.Background(), csvData, "first_term_2024_2025.csv")
	require.NoError(t, err)

	assert.Equal(t, 1, summary.RecordsAdded)
	require.Len(t, summary.Skipped, 2)
	assert.Equal(t, 3, summary.Skipped[0].RowNumber)
	assert.Contains(t, summary.Skipped[0].Reason, "invalid percentage")
	assert.Equal(t, 4, summary.Skipped[1].RowNumber)
	assert.Equal(t, "missing student name", summary.Skipped[1].Reason)
	assert.Len(t, results.All(), 1)
}

func TestUploadResultsReuploadUpserts(t *testing.T) {
	svc, _, results := newIngestFixture(config.RetentionReplace)

	first := []byte("Student Name,Class,Subject,Percentage\nAda Obi,JSS1,Mathematics,60\n")
	corrected := []byte("Student Name,Class,Subject,Percentage\nAda Obi,JSS1,Mathematics,75\n")

	_, err := svc.UploadResults(context.Background(), first, "first_term_2024_2025.csv")
	require.NoError(t, err)
	_, err = svc.UploadResults(context.Background(), corrected, "first_term_2024_2025.csv")
	require.NoError(t, err)

	stored := results.All()
	require.Len(t, stored, 1)
	assert.Equal(t, 75.0, stored[0].Percentage)
}

func TestUploadResultsUnsupportedFormat(t *testing.T) {
	svc, _, _ := newIngestFixture(config.RetentionReplace)

	_, err := svc.UploadResults(context.Background(), []byte("x"), "results.pdf")
	require.Error(t, err)
	assert.Equal(t, errors.CodeUnsupportedFormat, errors.GetCode(err))
}

func TestUploadResultsMissingColumns(t *testing.T) {
	svc, _, _ := newIngestFixture(config.RetentionReplace)

	csvData := []byte("Student Name,Percentage\nAda Obi,88\n")
	_, err := svc.UploadResults(context.Background(), csvData, "first_term_2024_2025.csv")
	require.Error(t, err)
	assert.Equal(t, errors.CodeMissingColumns, errors.GetCode(err))
	assert.Contains(t, err.Error(), "Class")
	assert.Contains(t, err.Error(), "Subject")
}

func TestUploadResultsStoreFailure(t *testing.T) {
	svc, _, results := newIngestFixture(config.RetentionReplace)
	results.FailWith = assert.AnError

	csvData := []byte("Student Name,Class,Subject,Percentage\nAda Obi,JSS1,Mathematics,88\n")
	_, err := svc.UploadResults(context.Background(), csvData, "first_term_2024_2025.csv")
	require.Error(t, err)
	assert.Equal(t, errors.CodeInternalError, errors.GetCode(err))
}
