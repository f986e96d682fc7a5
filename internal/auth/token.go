// Package auth implements the edit-credential gate for mutating
// operations.
//
// The token is deliberately the original journal's weak scheme, kept
// bit-for-bit so cookies issued by earlier deployments stay valid:
// base64("<unix millis>:<secret>"), verified by decoding and comparing
// everything after the first ':' against the configured secret. There is
// no signature; possession of the secret is the capability.
package auth

import (
	"crypto/subtle"
	"encoding/base64"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// CookieName matches the original deployment's cookie.
const CookieName = "nine-delights-edit-token"

// CookieMaxAge is the 30-day validity window of an issued credential.
const CookieMaxAge = 30 * 24 * time.Hour

// Gate issues and verifies edit tokens against a single shared secret.
type Gate struct {
	secret string
	secure bool
	now    func() time.Time
}

// NewGate builds a gate for the given shared secret. secure controls the
// cookie's Secure flag (off for plain-HTTP local development).
func NewGate(secret string, secure bool) *Gate {
	return &Gate{secret: secret, secure: secure, now: time.Now}
}

// Configured reports whether a secret is set at all. Mutations are
// rejected outright on an unconfigured gate.
func (g *Gate) Configured() bool {
	return g.secret != ""
}

// Issue mints a token for a caller that presented the correct password.
func (g *Gate) Issue() string {
	millis := strconv.FormatInt(g.now().UnixMilli(), 10)
	return base64.StdEncoding.EncodeToString([]byte(millis + ":" + g.secret))
}

// Check reports whether the presented password matches the secret.
func (g *Gate) Check(password string) bool {
	if !g.Configured() {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(password), []byte(g.secret)) == 1
}

// Verify decodes a token and compares its embedded secret. Everything
// after the first ':' is the secret, so secrets containing ':' survive
// the round trip.
func (g *Gate) Verify(token string) bool {
	if token == "" || !g.Configured() {
		return false
	}
	decoded, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return false
	}
	_, secret, found := strings.Cut(string(decoded), ":")
	if !found {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(secret), []byte(g.secret)) == 1
}

// Authenticated reports whether the request carries a valid edit cookie.
func (g *Gate) Authenticated(r *http.Request) bool {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return false
	}
	return g.Verify(c.Value)
}

// SetCookie attaches a freshly issued credential cookie to the response.
func (g *Gate) SetCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    g.Issue(),
		Path:     "/",
		MaxAge:   int(CookieMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   g.secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// ClearCookie expires the credential cookie.
func (g *Gate) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   g.secure,
		SameSite: http.SameSiteStrictMode,
	})
}
