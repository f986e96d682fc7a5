package auth

import (
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestIssueVerifyRoundTrip(t *testing.T) {
	g := NewGate("hunter2", false)
	if !g.Verify(g.Issue()) {
		t.Fatal("freshly issued token must verify")
	}
}

func TestVerifyRejects(t *testing.T) {
	g := NewGate("hunter2", false)
	cases := []struct {
		name, token string
	}{
		{"empty", ""},
		{"not base64", "!!!not-base64!!!"},
		{"no separator", base64.StdEncoding.EncodeToString([]byte("justsomething"))},
		{"wrong secret", base64.StdEncoding.EncodeToString([]byte("1700000000000:other"))},
	}
	for _, tc := range cases {
		if g.Verify(tc.token) {
			t.Fatalf("%s: token should not verify", tc.name)
		}
	}

	other := NewGate("other", false)
	if g.Verify(other.Issue()) {
		t.Fatal("token from a different secret must not verify")
	}
}

func TestSecretContainingColon(t *testing.T) {
	g := NewGate("pa:ss:word", false)
	if !g.Verify(g.Issue()) {
		t.Fatal("secret containing ':' must survive the round trip")
	}
}

func TestUnconfiguredGate(t *testing.T) {
	g := NewGate("", false)
	if g.Configured() {
		t.Fatal("empty secret should report unconfigured")
	}
	if g.Check("") || g.Verify(g.Issue()) {
		t.Fatal("unconfigured gate must reject everything")
	}
}

func TestCookieRoundTrip(t *testing.T) {
	g := NewGate("hunter2", false)

	w := httptest.NewRecorder()
	g.SetCookie(w)
	cookies := w.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("got %d cookies, want 1", len(cookies))
	}
	c := cookies[0]
	if c.Name != CookieName || !c.HttpOnly || c.SameSite != http.SameSiteStrictMode {
		t.Fatalf("cookie attributes wrong: %+v", c)
	}
	if c.MaxAge != int(CookieMaxAge.Seconds()) {
		t.Fatalf("maxAge = %d, want %d", c.MaxAge, int(CookieMaxAge.Seconds()))
	}

	r := httptest.NewRequest(http.MethodPost, "/api/delights", nil)
	r.AddCookie(c)
	if !g.Authenticated(r) {
		t.Fatal("request with issued cookie must authenticate")
	}

	bare := httptest.NewRequest(http.MethodPost, "/api/delights", nil)
	if g.Authenticated(bare) {
		t.Fatal("request without cookie must not authenticate")
	}
}
