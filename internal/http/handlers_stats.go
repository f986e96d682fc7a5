package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"ninedelights/internal/core"
)

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}

	rangeParam := r.URL.Query().Get("range")
	if rangeParam == "" {
		rangeParam = "all"
	}

	stats, err := s.statsFor(r.Context(), rangeParam)
	if err != nil {
		if err == errBadRange {
			writeError(w, http.StatusBadRequest, "Invalid range: expected 7, 30, 90 or all")
			return
		}
		slog.ErrorContext(r.Context(), "Stats computation failed", "error", err, "range", rangeParam)
		writeError(w, http.StatusInternalServerError, "Failed to compute stats")
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

var errBadRange = &badRangeError{}

type badRangeError struct{}

func (*badRangeError) Error() string { return "invalid range" }

// statsFor computes the stats bundle for a named window, served from
// cache when fresh. The cache key includes today's date so a cached
// window never straddles midnight.
func (s *Server) statsFor(ctx context.Context, rangeParam string) (core.Stats, error) {
	asOf := time.Now().Format("2006-01-02")
	key := rangeParam + "|" + asOf

	if stats, found := s.statsCache.Get(key); found {
		return stats, nil
	}

	var days int
	switch rangeParam {
	case "all":
		days = 0
	case "7", "30", "90":
		days, _ = strconv.Atoi(rangeParam)
	default:
		return core.Stats{}, errBadRange
	}

	entries, err := s.listAll(ctx)
	if err != nil {
		return core.Stats{}, err
	}

	if days > 0 {
		entries = core.FilterSince(entries, core.DaysAgo(asOf, days))
	}

	stats := core.ComputeStats(entries, asOf)
	s.statsCache.Set(key, stats)
	return stats, nil
}
