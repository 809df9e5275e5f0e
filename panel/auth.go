package panel

import (
	"crypto/subtle"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const sessionCookie = "studybot_session"

// sessionTTL bounds how long a login stays valid without re-entering
// the password.
const sessionTTL = 12 * time.Hour

type sessionStore struct {
	mu     sync.Mutex
	tokens map[string]time.Time
}

func newSessionStore() *sessionStore {
	return &sessionStore{tokens: make(map[string]time.Time)}
}

func (s *sessionStore) create() string {
	token := uuid.NewString()
	s.mu.Lock()
	s.tokens[token] = time.Now().Add(sessionTTL)
	s.mu.Unlock()
	return token
}

func (s *sessionStore) valid(token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	expiry, ok := s.tokens[token]
	if !ok {
		return false
	}
	if time.Now().After(expiry) {
		delete(s.tokens, token)
		return false
	}
	return true
}

func (s *sessionStore) revoke(token string) {
	s.mu.Lock()
	delete(s.tokens, token)
	s.mu.Unlock()
}

const loginPage = `<!DOCTYPE html>
<html>
<head><title>studybot panel</title></head>
<body>
<form method="post" action="/login">
  <input type="password" name="password" placeholder="Password" autofocus>
  <button type="submit">Log in</button>
</form>
</body>
</html>`

func (s *Server) handleLoginPage(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(loginPage))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_form", err.Error())
		return
	}
	given := r.PostFormValue("password")
	if s.password == "" ||
		subtle.ConstantTimeCompare([]byte(given), []byte(s.password)) != 1 {
		s.logger.Warn("panel login rejected", zap.String("remote", r.RemoteAddr))
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    s.sessions.create(),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessionCookie); err == nil {
		s.sessions.revoke(cookie.Value)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// requireSession gates a route group. Page routes redirect to the login
// form; API and stream routes answer 401 so clients see the failure.
func (s *Server) requireSession(redirect bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(sessionCookie)
			if err != nil || !s.sessions.valid(cookie.Value) {
				if redirect {
					http.Redirect(w, r, "/login", http.StatusSeeOther)
					return
				}
				respondError(w, http.StatusUnauthorized, "unauthorized", "login required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
