// Package auth guards the operational endpoints with HTTP Basic
// credentials.
package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"pocketdrop/internal/metrics"
)

// Guard verifies HTTP Basic credentials. The configured password may
// be a bcrypt hash or plain text; either way the comparison does not
// leak timing.
type Guard struct {
	username string
	password string
	hashed   bool
	metrics  *metrics.Metrics
}

// NewGuard creates a guard. Empty credentials disable it, leaving the
// wrapped endpoints open.
func NewGuard(username, password string, m *metrics.Metrics) *Guard {
	return &Guard{
		username: username,
		password: password,
		hashed:   isBcryptHash(password),
		metrics:  m,
	}
}

// Enabled reports whether credentials are configured.
func (g *Guard) Enabled() bool {
	return g.username != "" && g.password != ""
}

// Verify checks one username/password pair.
func (g *Guard) Verify(username, password string) bool {
	if !g.Enabled() {
		return true
	}

	// Hashing both sides first keeps the comparison constant time for
	// inputs of any length.
	userHash := sha256.Sum256([]byte(username))
	wantUserHash := sha256.Sum256([]byte(g.username))
	userOK := subtle.ConstantTimeCompare(userHash[:], wantUserHash[:]) == 1

	var passOK bool
	if g.hashed {
		passOK = bcrypt.CompareHashAndPassword([]byte(g.password), []byte(password)) == nil
	} else {
		passHash := sha256.Sum256([]byte(password))
		wantPassHash := sha256.Sum256([]byte(g.password))
		passOK = subtle.ConstantTimeCompare(passHash[:], wantPassHash[:]) == 1
	}

	if !userOK || !passOK {
		g.metrics.AuthFailuresTotal.Inc()
		return false
	}
	return true
}

// Middleware enforces the guard on a handler. A disabled guard passes
// every request through.
func (g *Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !g.Enabled() {
			next.ServeHTTP(w, r)
			return
		}

		username, password, ok := r.BasicAuth()
		if !ok || !g.Verify(username, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="pocketdrop"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// isBcryptHash recognizes the standard bcrypt prefixes.
func isBcryptHash(s string) bool {
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}
