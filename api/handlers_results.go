package api

import (
	"fmt"
	"io"
	"net/http"

	"schoolresults/internal/errors"
	"schoolresults/models"

	"github.com/go-chi/chi/v5"
	"github.com/gomarkdown/markdown"
)

// maxUploadSize bounds one results spreadsheet.
const maxUploadSize = 32 << 20

// handleUpload ingests one spreadsheet of results
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeError(w, errors.ValidationError("invalid multipart form"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, errors.ValidationError("file field is required"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, errors.Wrap(err, "failed to read upload"))
		return
	}

	summary, err := s.ingest.UploadResults(r.Context(), data, header.Filename)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// handleMyResults returns a student's results with rankings, class subject
// statistics and the latest-term narrative analysis
func (s *Server) handleMyResults(w http.ResponseWriter, r *http.Request) {
	report, err := s.analytics.StudentReport(r.Context(), r.URL.Query().Get("username"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// handleReport renders the latest-term narrative analysis as an HTML page,
// the server-side counterpart of the dashboard's report export
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	report, err := s.analytics.StudentReport(r.Context(), r.URL.Query().Get("username"))
	if err != nil {
		writeError(w, err)
		return
	}
	if report.AcademicAnalysis == nil {
		writeError(w, errors.NotFound("academic analysis"))
		return
	}

	body := markdown.ToHTML([]byte(*report.AcademicAnalysis), nil, nil)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, "<!DOCTYPE html>\n<html>\n<head><title>Performance Report - %s</title></head>\n<body>\n<h1>%s - %s</h1>\n%s</body>\n</html>\n",
		report.StudentName, report.StudentName, report.LatestTerm, body)
}

// handleAllResults returns every stored record, for admin analytics
func (s *Server) handleAllResults(w http.ResponseWriter, r *http.Request) {
	results, err := s.results.ListAll(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if len(results) == 0 {
		writeError(w, errors.NotFound("results"))
		return
	}
	writeJSON(w, http.StatusOK, results)
}

// handleClassResults returns every record for one class
func (s *Server) handleClassResults(w http.ResponseWriter, r *http.Request) {
	results, err := s.results.ListByClass(r.Context(), chi.URLParam(r, "class"))
	if err != nil {
		writeError(w, err)
		return
	}
	if results == nil {
		results = []models.StudentResult{}
	}
	writeJSON(w, http.StatusOK, results)
}
