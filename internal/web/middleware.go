package web

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/ashrafalve/ecommerce-store-go/internal/auth"
	"github.com/ashrafalve/ecommerce-store-go/internal/session"
	"github.com/ashrafalve/ecommerce-store-go/pkg/logging"
)

const sessionCookie = "sid"

type ctxKey int

const sessionKey ctxKey = iota

// route wraps a handler with session resolution and request metrics. Every
// request gets a session; a missing or unknown cookie starts a fresh one.
func (s *Server) route(name string, h http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		sess, fresh, err := s.openSession(r)
		if err != nil {
			s.internalError(w, name, err)
			s.observe(name, http.StatusInternalServerError, start)
			return
		}
		if fresh {
			http.SetCookie(w, &http.Cookie{
				Name:     sessionCookie,
				Value:    sess.ID,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h(rec, r.WithContext(context.WithValue(r.Context(), sessionKey, sess)))
		s.observe(name, rec.status, start)
	})
}

func (s *Server) openSession(r *http.Request) (*session.Session, bool, error) {
	if c, err := r.Cookie(sessionCookie); err == nil && c.Value != "" {
		sess, err := session.Open(r.Context(), s.Sessions, c.Value)
		if err != nil {
			return nil, false, err
		}
		return sess, false, nil
	}
	return session.New(s.Sessions), true, nil
}

func (s *Server) observe(handler string, status int, start time.Time) {
	if s.Metrics == nil {
		return
	}
	s.Metrics.Requests.WithLabelValues(handler, strconv.Itoa(status)).Inc()
	s.Metrics.LatencyMS.WithLabelValues(handler).Observe(float64(time.Since(start).Milliseconds()))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func sessionFrom(r *http.Request) *session.Session {
	sess, _ := r.Context().Value(sessionKey).(*session.Session)
	return sess
}

// currentUserID reads the logged-in user from the session, 0 if anonymous.
func currentUserID(r *http.Request) int64 {
	sess := sessionFrom(r)
	if sess == nil {
		return 0
	}
	var id int64
	if !sess.Get(auth.SessionKey, &id) {
		return 0
	}
	return id
}

// requireUser rejects anonymous requests with 401; the client is expected to
// send the user to login without retrying the action.
func (s *Server) requireUser(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if currentUserID(r) == 0 {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "authentication required"})
			return
		}
		h(w, r)
	}
}

func (s *Server) internalError(w http.ResponseWriter, step string, err error) {
	logging.Log(logging.Fields{
		Service: "storefront",
		Step:    step,
		Status:  "error",
		Message: err.Error(),
	})
	writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "something went wrong, please try again"})
}
