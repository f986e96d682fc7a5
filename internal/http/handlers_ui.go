package http

import (
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"ninedelights/internal/core"
)

type calendarData struct {
	View   string
	Anchor string
	Label  string
	Weeks  [][]core.Day
}

type statsData struct {
	Range string
	Stats core.Stats
}

type indexData struct {
	Today    string
	Delights []core.Delight
	Calendar calendarData
	Stats    statsData
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if s.templates == nil {
		slog.ErrorContext(r.Context(), "Templates not loaded", "url", r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	today := time.Now().Format("2006-01-02")
	start, end := core.MonthWindow(today)

	// The month grid and the stats summary come from different windows;
	// fetch them concurrently.
	var (
		monthEntries []core.Entry
		stats        core.Stats
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		monthEntries, err = s.listWindow(ctx, start, end)
		return err
	})
	g.Go(func() error {
		var err error
		stats, err = s.statsFor(ctx, "30")
		return err
	})
	if err := g.Wait(); err != nil {
		slog.ErrorContext(r.Context(), "Index data fetch failed", "error", err)
		http.Error(w, "failed to load journal", http.StatusInternalServerError)
		return
	}

	data := indexData{
		Today:    today,
		Delights: core.Delights,
		Calendar: calendarData{
			View:   "month",
			Anchor: today,
			Label:  monthLabel(today),
			Weeks:  core.MonthGrid(monthEntries, today),
		},
		Stats: statsData{Range: "30", Stats: stats},
	}

	if err := s.templates.ExecuteTemplate(w, "index.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Index template execution failed", "error", err, "template", "index.html")
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// handleCalendarPartial renders the week or month grid partial.
func (s *Server) handleCalendarPartial(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	q := r.URL.Query()
	view := q.Get("view")
	if view != "week" {
		view = "month"
	}

	anchor := q.Get("anchor")
	if _, err := core.ParseDay(anchor); err != nil {
		anchor = time.Now().Format("2006-01-02")
	}

	var start, end string
	if view == "week" {
		start, end = core.WeekWindow(anchor)
	} else {
		start, end = core.MonthWindow(anchor)
	}

	entries, err := s.listWindow(r.Context(), start, end)
	if err != nil {
		slog.ErrorContext(r.Context(), "Calendar fetch failed", "error", err, "view", view, "anchor", anchor)
		_, _ = w.Write([]byte(`<div class="calendar error">Failed to load calendar</div>`))
		return
	}

	data := calendarData{View: view, Anchor: anchor}
	if view == "week" {
		data.Label = "Week of " + start
		data.Weeks = [][]core.Day{core.WeekDays(entries, anchor)}
	} else {
		data.Label = monthLabel(anchor)
		data.Weeks = core.MonthGrid(entries, anchor)
	}

	s.renderPartial(w, r, "calendar.html", data)
}

// handleStatsPartial renders the stats summary partial.
func (s *Server) handleStatsPartial(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	rangeParam := r.URL.Query().Get("range")
	if rangeParam == "" {
		rangeParam = "30"
	}

	stats, err := s.statsFor(r.Context(), rangeParam)
	if err != nil {
		slog.ErrorContext(r.Context(), "Stats partial failed", "error", err, "range", rangeParam)
		_, _ = w.Write([]byte(`<div class="stats error">Failed to load stats</div>`))
		return
	}

	s.renderPartial(w, r, "stats.html", statsData{Range: rangeParam, Stats: stats})
}

func (s *Server) renderPartial(w http.ResponseWriter, r *http.Request, name string, data any) {
	if s.templates == nil {
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		slog.ErrorContext(r.Context(), "Partial template execution failed", "error", err, "template", name)
	}
}

func monthLabel(anchor string) string {
	t, err := time.Parse("2006-01-02", anchor)
	if err != nil {
		return anchor
	}
	return t.Format("January 2006")
}
