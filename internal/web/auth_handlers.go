package web

import (
	"encoding/json"
	"net/http"

	"github.com/ashrafalve/ecommerce-store-go/internal/auth"
)

type credentialsRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid json"})
		return
	}
	user, err := s.Auth.SignUp(r.Context(), req.Email, req.Password, req.FirstName, req.LastName)
	if err != nil {
		s.writeError(w, "signup", err)
		return
	}
	if err := s.logIn(w, r, user.ID); err != nil {
		s.internalError(w, "signup", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"user": user})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid json"})
		return
	}
	user, err := s.Auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeError(w, "login", err)
		return
	}
	if err := s.logIn(w, r, user.ID); err != nil {
		s.internalError(w, "login", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

// logIn rotates the session ID, binds the user to it, and reissues the
// cookie. The cart stays in the session, so an anonymous cart survives login.
func (s *Server) logIn(w http.ResponseWriter, r *http.Request, userID int64) error {
	sess := sessionFrom(r)
	if err := sess.Rotate(r.Context()); err != nil {
		return err
	}
	if err := sess.Set(r.Context(), auth.SessionKey, userID); err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := sessionFrom(r).Unset(r.Context(), auth.SessionKey); err != nil {
		s.internalError(w, "logout", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "logged out"})
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	user, err := s.Auth.ByID(r.Context(), currentUserID(r))
	if err != nil {
		s.writeError(w, "profile", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}
