package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestIndexRenders(t *testing.T) {
	s, gate, _ := newTestServer(t)

	doRequest(s, authedRequest(gate, http.MethodPost, "/api/delights",
		`{"date":"2024-06-01","delight":"goofing","description":"silly hats"}`))

	rec := doRequest(s, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Nine Delights") {
		t.Error("index should carry the title")
	}
	if !strings.Contains(body, "Walking Around") {
		t.Error("index should render the legend")
	}
}

func TestIndexUnknownPathIs404(t *testing.T) {
	s, _, _ := newTestServer(t)

	rec := doRequest(s, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestCalendarPartial(t *testing.T) {
	s, gate, _ := newTestServer(t)

	doRequest(s, authedRequest(gate, http.MethodPost, "/api/delights",
		`{"date":"2024-06-01","delight":"fellowship","description":"picnic"}`))

	t.Run("month grid", func(t *testing.T) {
		rec := doRequest(s, httptest.NewRequest(http.MethodGet, "/ui/calendar?view=month&anchor=2024-06-15", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		body := rec.Body.String()
		if !strings.Contains(body, "June 2024") {
			t.Error("month label missing")
		}
		if !strings.Contains(body, "Fellowship") {
			t.Error("entry missing from grid")
		}
	})

	t.Run("week view", func(t *testing.T) {
		rec := doRequest(s, httptest.NewRequest(http.MethodGet, "/ui/calendar?view=week&anchor=2024-06-01", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		// 2024-06-01 is a Saturday; its week starts Monday 05-27.
		if !strings.Contains(rec.Body.String(), "Week of 2024-05-27") {
			t.Errorf("week label wrong: %s", rec.Body.String())
		}
	})

	t.Run("bad anchor falls back to today", func(t *testing.T) {
		rec := doRequest(s, httptest.NewRequest(http.MethodGet, "/ui/calendar?anchor=junk", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
	})
}

func TestStatsPartial(t *testing.T) {
	s, _, _ := newTestServer(t)

	rec := doRequest(s, httptest.NewRequest(http.MethodGet, "/ui/stats?range=all", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "active days") {
		t.Error("stats partial missing summary")
	}
}
