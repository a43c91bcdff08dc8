package api

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
)

const sessionCookie = "flugblick_session"

// sessionToken derives the cookie value from the shared password. A single
// static secret is all the gate provides; there are no users or roles.
func (s *Server) sessionToken() string {
	sum := sha256.Sum256([]byte("flugblick:" + s.password))
	return hex.EncodeToString(sum[:])
}

func (s *Server) authenticated(r *http.Request) bool {
	c, err := r.Cookie(sessionCookie)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(c.Value), []byte(s.sessionToken())) == 1
}

// requireAuth redirects browsers to the login page and rejects API calls.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.authenticated(r) {
			if len(r.URL.Path) >= 5 && r.URL.Path[:5] == "/api/" {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next(w, r)
	}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		if subtle.ConstantTimeCompare([]byte(r.FormValue("password")), []byte(s.password)) == 1 {
			http.SetCookie(w, &http.Cookie{
				Name:     sessionCookie,
				Value:    s.sessionToken(),
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		s.renderPage(w, "login.html", map[string]any{"Error": "Wrong password"})
		return
	}
	s.renderPage(w, "login.html", map[string]any{})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:   sessionCookie,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
