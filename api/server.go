package api

import (
	"encoding/json"
	"log"
	"net/http"

	"schoolresults/app"
	"schoolresults/internal/errors"
	"schoolresults/ports"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server is the HTTP transport for the results service
type Server struct {
	router    *chi.Mux
	ingest    *app.IngestService
	analytics *app.AnalyticsService
	users     ports.UserRepository
	results   ports.ResultRepository
}

// NewServer creates the HTTP server and wires its routes
func NewServer(ingest *app.IngestService, analytics *app.AnalyticsService, users ports.UserRepository, results ports.ResultRepository) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		ingest:    ingest,
		analytics: analytics,
		users:     users,
		results:   results,
	}

	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// Handler returns the root http.Handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupMiddleware configures HTTP middleware
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
}

// setupRoutes configures the application routes
func (s *Server) setupRoutes() {
	s.router.Get("/", s.handleHome)

	s.router.Route("/results", func(r chi.Router) {
		r.Post("/upload", s.handleUpload)
		r.Get("/myResults", s.handleMyResults)
		r.Get("/report", s.handleReport)
		r.Get("/all", s.handleAllResults)
		r.Get("/class/{class}", s.handleClassResults)
	})

	s.router.Route("/auth", func(r chi.Router) {
		r.Post("/register", s.handleRegister)
		r.Post("/login", s.handleLogin)
		r.With(s.currentUser).Post("/change-password", s.handleChangePassword)
	})
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Welcome to School Result API"})
}

// writeJSON serializes v as the response body with the given status
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[API] failed to encode response: %v", err)
	}
}

// writeError maps application error codes onto HTTP statuses. Messages pass
// through unredacted; this is an internal admin tool.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch errors.GetCode(err) {
	case errors.CodeValidationError, errors.CodeUnsupportedFormat, errors.CodeMissingColumns:
		status = http.StatusBadRequest
	case errors.CodeNotFound:
		status = http.StatusNotFound
	case errors.CodeUnauthorized:
		status = http.StatusUnauthorized
	}

	if status == http.StatusInternalServerError {
		log.Printf("[API] internal error: %v", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
