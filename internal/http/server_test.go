package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ninedelights/internal/auth"
	"ninedelights/internal/core"
	"ninedelights/internal/sheets/memory"
)

func newTestServer(t *testing.T) (*Server, *auth.Gate, *memory.Store) {
	t.Helper()
	store := memory.New()
	gate := auth.NewGate("s3cret", false)
	s := NewServer("127.0.0.1:0", store, gate, nil)
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })
	return s, gate, store
}

func doRequest(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func authedRequest(gate *auth.Gate, method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: gate.Issue()})
	return req
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rec.Body.String())
	}
}

func TestListRequiresWindow(t *testing.T) {
	s, _, _ := newTestServer(t)

	rec := doRequest(s, httptest.NewRequest(http.MethodGet, "/api/delights", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	var body map[string]string
	decodeBody(t, rec, &body)
	if body["error"] != "Missing start or end" {
		t.Fatalf("error = %q", body["error"])
	}
}

func TestListRejectsBadDates(t *testing.T) {
	s, _, _ := newTestServer(t)

	rec := doRequest(s, httptest.NewRequest(http.MethodGet, "/api/delights?start=2024-6-1&end=2024-06-30", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestCreateRequiresAuth(t *testing.T) {
	s, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/delights",
		strings.NewReader(`{"date":"2024-06-01","delight":"goofing"}`))
	rec := doRequest(s, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}

	var body map[string]string
	decodeBody(t, rec, &body)
	if body["error"] != "Unauthorized" {
		t.Fatalf("error = %q", body["error"])
	}
}

func TestCreateAndListRoundTrip(t *testing.T) {
	s, gate, _ := newTestServer(t)

	rec := doRequest(s, authedRequest(gate, http.MethodPost, "/api/delights",
		`{"date":"2024-06-01","delight":"goofing","description":"silly hats"}`))
	if rec.Code != http.StatusOK {
		t.Fatalf("create status = %d: %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(s, httptest.NewRequest(http.MethodGet, "/api/delights?start=2024-06-01&end=2024-06-07", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}

	var entries []core.Entry
	decodeBody(t, rec, &entries)
	if len(entries) != 1 || entries[0].Description != "silly hats" || entries[0].Row != 2 {
		t.Fatalf("entries = %+v", entries)
	}
}

func TestCreateRejectsUnknownDelight(t *testing.T) {
	s, gate, _ := newTestServer(t)

	rec := doRequest(s, authedRequest(gate, http.MethodPost, "/api/delights",
		`{"date":"2024-06-01","delight":"procrastination"}`))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
}

func TestUpdateEntry(t *testing.T) {
	s, gate, _ := newTestServer(t)

	doRequest(s, authedRequest(gate, http.MethodPost, "/api/delights",
		`{"date":"2024-06-01","delight":"goofing"}`))

	rec := doRequest(s, authedRequest(gate, http.MethodPut, "/api/delights",
		`{"rowIndex":2,"date":"2024-06-02","delight":"fellowship","description":"dinner"}`))
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d: %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(s, httptest.NewRequest(http.MethodGet, "/api/delights?all=true", nil))
	var entries []core.Entry
	decodeBody(t, rec, &entries)
	if len(entries) != 1 || entries[0].Type != core.Fellowship || entries[0].Date != "2024-06-02" {
		t.Fatalf("entries = %+v", entries)
	}
}

func TestUpdateRequiresRowIndex(t *testing.T) {
	s, gate, _ := newTestServer(t)

	rec := doRequest(s, authedRequest(gate, http.MethodPut, "/api/delights",
		`{"date":"2024-06-02","delight":"fellowship"}`))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestDeleteEntry(t *testing.T) {
	s, gate, _ := newTestServer(t)

	doRequest(s, authedRequest(gate, http.MethodPost, "/api/delights",
		`{"date":"2024-06-01","delight":"goofing"}`))

	rec := doRequest(s, authedRequest(gate, http.MethodDelete, "/api/delights", `{"rowIndex":2}`))
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d: %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(s, httptest.NewRequest(http.MethodGet, "/api/delights?all=true", nil))
	var entries []core.Entry
	decodeBody(t, rec, &entries)
	if len(entries) != 0 {
		t.Fatalf("entries = %+v, want empty", entries)
	}

	rec = doRequest(s, authedRequest(gate, http.MethodDelete, "/api/delights", `{"rowIndex":2}`))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("double delete status = %d, want 400", rec.Code)
	}
}

func TestMutationInvalidatesListCache(t *testing.T) {
	s, gate, _ := newTestServer(t)

	// Prime the cache with an empty window.
	doRequest(s, httptest.NewRequest(http.MethodGet, "/api/delights?start=2024-06-01&end=2024-06-07", nil))

	doRequest(s, authedRequest(gate, http.MethodPost, "/api/delights",
		`{"date":"2024-06-03","delight":"deliciousness"}`))

	rec := doRequest(s, httptest.NewRequest(http.MethodGet, "/api/delights?start=2024-06-01&end=2024-06-07", nil))
	var entries []core.Entry
	decodeBody(t, rec, &entries)
	if len(entries) != 1 {
		t.Fatalf("cached empty window survived mutation: %+v", entries)
	}
}

func TestAuthEndpoints(t *testing.T) {
	s, _, _ := newTestServer(t)

	t.Run("wrong password", func(t *testing.T) {
		rec := doRequest(s, httptest.NewRequest(http.MethodPost, "/api/auth",
			strings.NewReader(`{"password":"nope"}`)))
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("login sets cookie and probe sees it", func(t *testing.T) {
		rec := doRequest(s, httptest.NewRequest(http.MethodPost, "/api/auth",
			strings.NewReader(`{"password":"s3cret"}`)))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
		}

		cookies := rec.Result().Cookies()
		if len(cookies) != 1 || cookies[0].Name != auth.CookieName {
			t.Fatalf("cookies = %+v", cookies)
		}

		probe := httptest.NewRequest(http.MethodGet, "/api/auth", nil)
		probe.AddCookie(cookies[0])
		rec = doRequest(s, probe)

		var body map[string]bool
		decodeBody(t, rec, &body)
		if !body["authenticated"] {
			t.Fatal("probe should report authenticated")
		}
	})

	t.Run("logout clears cookie", func(t *testing.T) {
		rec := doRequest(s, httptest.NewRequest(http.MethodDelete, "/api/auth", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		cookies := rec.Result().Cookies()
		if len(cookies) != 1 || cookies[0].MaxAge != -1 {
			t.Fatalf("cookies = %+v, want expired edit cookie", cookies)
		}
	})
}

func TestStatsEndpoint(t *testing.T) {
	s, gate, _ := newTestServer(t)

	for _, body := range []string{
		`{"date":"2024-06-01","delight":"goofing"}`,
		`{"date":"2024-06-01","delight":"fellowship"}`,
		`{"date":"2024-06-02","delight":"goofing"}`,
	} {
		rec := doRequest(s, authedRequest(gate, http.MethodPost, "/api/delights", body))
		if rec.Code != http.StatusOK {
			t.Fatalf("seed failed: %d %s", rec.Code, rec.Body.String())
		}
	}

	rec := doRequest(s, httptest.NewRequest(http.MethodGet, "/api/stats?range=all", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var stats core.Stats
	decodeBody(t, rec, &stats)
	if stats.TotalEntries != 3 || stats.ActiveDays != 2 {
		t.Fatalf("stats = %+v", stats)
	}
	if stats.MostPracticed.Type != core.Goofing {
		t.Fatalf("mostPracticed = %+v", stats.MostPracticed)
	}

	rec = doRequest(s, httptest.NewRequest(http.MethodGet, "/api/stats?range=14", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid range status = %d, want 400", rec.Code)
	}
}

func TestUploadUnconfigured(t *testing.T) {
	s, gate, _ := newTestServer(t)

	rec := doRequest(s, authedRequest(gate, http.MethodPost, "/api/upload", ""))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestHealthEndpoints(t *testing.T) {
	s, _, _ := newTestServer(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		rec := doRequest(s, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("%s status = %d", path, rec.Code)
		}
	}
}

func TestMethodNotAllowed(t *testing.T) {
	s, _, _ := newTestServer(t)

	rec := doRequest(s, httptest.NewRequest(http.MethodPatch, "/api/delights", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
	if allow := rec.Header().Get("Allow"); !strings.Contains(allow, "GET") {
		t.Fatalf("Allow = %q", allow)
	}
}

func TestSecurityHeaders(t *testing.T) {
	s, _, _ := newTestServer(t)

	rec := doRequest(s, httptest.NewRequest(http.MethodGet, "/api/delights?all=true", nil))
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("missing X-Content-Type-Options")
	}
	if rec.Header().Get("X-Frame-Options") != "DENY" {
		t.Error("missing X-Frame-Options")
	}
}
