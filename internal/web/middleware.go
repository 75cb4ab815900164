package web

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"strings"
)

// sessionMiddleware assigns a session cookie on first sight and records
// every page request in the registry. Infrastructure endpoints are not
// tracked.
func (s *Server) sessionMiddleware(next http.Handler) http.Handler {
	cookieName := s.cfg.GetCookieName()

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if untracked(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		var sid string
		if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
			sid = c.Value
		} else {
			sid = newSessionID()
			http.SetCookie(w, &http.Cookie{
				Name:     cookieName,
				Value:    sid,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}

		s.mon.Touch(sid, r.RemoteAddr, r.UserAgent())
		next.ServeHTTP(w, r)
	})
}

func untracked(path string) bool {
	return path == "/metrics" || path == "/healthz" || strings.HasPrefix(path, "/static/")
}

func newSessionID() string {
	b := make([]byte, 16)
	rand.Read(b)
	return hex.EncodeToString(b)
}
