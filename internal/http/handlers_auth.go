package http

import (
	"errors"
	"net/http"

	"horas/internal/auth"
	"horas/internal/core"
)

type loginRequest struct {
	Name     string `json:"name" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token string    `json:"token"`
	User  core.User `json:"user"`
}

// handleLogin verifies credentials and issues the session token, both as
// a cookie for browsers and in the body for API clients.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	user, err := s.users.GetUserByName(r.Context(), req.Name)
	if err != nil && !errors.Is(err, core.ErrNotFound) {
		writeError(w, r, err)
		return
	}
	// Unknown user and wrong password answer identically.
	if err != nil || !user.Active || !auth.CheckPassword(user.Password, req.Password) {
		s.logger.WarnContext(r.Context(), "Login rejected", "name", req.Name)
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid credentials"})
		return
	}

	token, err := s.auth.GenerateToken(user)
	if err != nil {
		writeError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	s.logger.InfoContext(r.Context(), "User logged in", "user_id", user.ID, "name", user.Name)
	writeJSON(w, http.StatusOK, loginResponse{Token: token, User: user})
}
