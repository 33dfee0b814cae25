package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/shahriarsany/portfolio/backend/internal/errors"
	"github.com/shahriarsany/portfolio/backend/internal/models"
)

// State is the guard's view of the current visitor. It starts at
// StateUnknown and only ever moves to one of the three resolved states
// once the session has been checked; nothing protected is rendered
// while it is still StateUnknown.
type State string

const (
	StateUnknown         State = "unknown"
	StateAuthorized      State = "authorized"      // signed in as the admin
	StateUnauthorized    State = "unauthorized"    // signed in, but not the admin
	StateUnauthenticated State = "unauthenticated" // not signed in
)

// Resolve classifies a session against the admin allow-list.
func (s *Service) Resolve(session *models.Session) State {
	if session == nil {
		return StateUnauthenticated
	}
	if session.Email == s.adminEmail {
		return StateAuthorized
	}
	return StateUnauthorized
}

// State returns the last published guard state.
func (s *Service) State() State {
	s.watchMu.Lock()
	defer s.watchMu.Unlock()
	return s.state
}

// Subscribe registers a watcher for guard state changes. The current
// state is delivered immediately; later transitions coalesce, so a slow
// reader only ever sees the newest state. Cancel with the returned
// function.
func (s *Service) Subscribe() (<-chan State, func()) {
	ch := make(chan State, 1)

	s.watchMu.Lock()
	id := s.nextID
	s.nextID++
	s.watchers[id] = ch
	ch <- s.state
	s.watchMu.Unlock()

	cancel := func() {
		s.watchMu.Lock()
		delete(s.watchers, id)
		s.watchMu.Unlock()
	}
	return ch, cancel
}

// publish records a state transition and fans it out to watchers,
// replacing any undelivered previous state.
func (s *Service) publish(state State) {
	s.watchMu.Lock()
	defer s.watchMu.Unlock()

	s.state = state
	for _, ch := range s.watchers {
		select {
		case ch <- state:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- state
		}
	}
}

type contextKey string

const sessionContextKey contextKey = "auth.session"

// SessionFromContext returns the session the guard attached to an
// authorized request.
func SessionFromContext(ctx context.Context) *models.Session {
	session, _ := ctx.Value(sessionContextKey).(*models.Session)
	return session
}

// bearerToken extracts the raw session token from the Authorization
// header, falling back to the session cookie.
func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	if c, err := r.Cookie("session"); err == nil {
		return c.Value
	}
	return ""
}

// Middleware guards admin routes. Requests proceed only after the
// session resolves to StateAuthorized; anything else is answered with
// an error body and the protected handler never runs.
func (s *Service) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, err := s.SessionFor(bearerToken(r))
		if err != nil {
			writeGuardError(w, http.StatusUnauthorized, err)
			return
		}

		switch s.Resolve(session) {
		case StateAuthorized:
			ctx := context.WithValue(r.Context(), sessionContextKey, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		case StateUnauthorized:
			writeGuardError(w, http.StatusForbidden,
				errors.New(errors.ErrUnauthorized, "account is not the admin"))
		default:
			writeGuardError(w, http.StatusUnauthorized,
				errors.New(errors.ErrNoSession, "no usable session"))
		}
	})
}

func writeGuardError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"code":    string(errors.CodeOf(err)),
		"message": Message(err),
	})
}
