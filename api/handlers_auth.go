package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"schoolresults/internal/errors"
	"schoolresults/models"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type contextKey string

const userContextKey contextKey = "currentUser"

// currentUser resolves the calling user from the X-User-Id header
func (s *Server) currentUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("X-User-Id")
		if header == "" {
			writeError(w, errors.Unauthorized("Missing X-User-Id header"))
			return
		}

		userID, err := uuid.Parse(header)
		if err != nil {
			writeError(w, errors.Unauthorized("invalid X-User-Id header"))
			return
		}

		user, err := s.users.GetUserByID(r.Context(), userID)
		if err != nil {
			writeError(w, errors.Unauthorized("User not found"))
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
	FullName string `json:"full_name"`
}

// handleRegister creates a new user account
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.ValidationError("invalid request body"))
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, errors.ValidationError("username and password are required"))
		return
	}
	if req.Role == "" {
		req.Role = models.RoleStudent
	}
	if req.Role != models.RoleStudent && req.Role != models.RoleAdmin {
		writeError(w, errors.ValidationError("role must be admin or student"))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, errors.Wrap(err, "failed to hash password"))
		return
	}

	user := &models.User{
		Username:     req.Username,
		FullName:     req.FullName,
		Role:         req.Role,
		PasswordHash: string(hash),
		IsActive:     true,
	}
	if err := s.users.CreateUser(r.Context(), user); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": fmt.Sprintf("%s registered successfully", capitalize(req.Role)),
		"user_id": user.ID,
	})
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// handleLogin verifies credentials and returns the user's identity
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.ValidationError("invalid request body"))
		return
	}

	user, err := s.users.GetUserByUsername(r.Context(), req.Username)
	if err != nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		writeError(w, errors.Unauthorized("Invalid credentials"))
		return
	}
	if !user.IsActive {
		writeError(w, errors.Unauthorized("account is disabled"))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":              "Login successful",
		"user_id":              user.ID,
		"username":             user.Username,
		"role":                 user.Role,
		"must_change_password": user.MustChangePassword,
	})
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// handleChangePassword sets a new password for the calling user and clears
// the must-change-password flag
func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value(userContextKey).(*models.User)
	if !ok {
		writeError(w, errors.Unauthorized("Missing X-User-Id header"))
		return
	}

	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.ValidationError("invalid request body"))
		return
	}
	if req.NewPassword == "" {
		writeError(w, errors.ValidationError("new_password is required"))
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.OldPassword)) != nil {
		writeError(w, errors.Unauthorized("Invalid credentials"))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, errors.Wrap(err, "failed to hash password"))
		return
	}
	if err := s.users.UpdatePassword(r.Context(), user.ID, string(hash)); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Password updated"})
}
