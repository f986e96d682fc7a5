package core

import (
	"sort"
	"strconv"
	"time"
)

// maxStreakLookback caps the backward walk of the current-streak scan. A
// streak is never reported longer than this, even when the true run is;
// the bound is deliberate and documented rather than removed.
const maxStreakLookback = 365

const dayLayout = "2006-01-02"

type (
	// CategoryCount is one row of the frequency ranking.
	CategoryCount struct {
		Type  DelightType `json:"type"`
		Label string      `json:"label"`
		Color string      `json:"color"`
		Count int         `json:"count"`
	}

	// RadarRow is one axis of the balance radar. FullMark is the highest
	// category count in the window (at least 1) so the chart normalizes.
	RadarRow struct {
		Delight  string `json:"delight"`
		Count    int    `json:"count"`
		FullMark int    `json:"fullMark"`
	}

	// Streak holds the current and best run of consecutive days for one
	// category.
	Streak struct {
		Type    DelightType `json:"type"`
		Label   string      `json:"label"`
		Color   string      `json:"color"`
		Current int         `json:"currentStreak"`
		Max     int         `json:"maxStreak"`
	}

	// Stats is the full derived-statistics bundle for a window of entries.
	Stats struct {
		Frequency      []CategoryCount `json:"frequency"`
		Radar          []RadarRow      `json:"radar"`
		ActiveDays     int             `json:"activeDays"`
		TotalEntries   int             `json:"totalEntries"`
		AvgPerDay      string          `json:"avgPerDay"`
		PerfectDays    int             `json:"perfectDays"`
		MostPracticed  CategoryCount   `json:"mostPracticed"`
		LeastPracticed CategoryCount   `json:"leastPracticed"`
		Streaks        []Streak        `json:"streaks"`
	}
)

// InRange reports whether date falls in [start, end], both inclusive.
// Comparison is lexicographic, which is correct only for zero-padded ISO
// dates; callers validate with ParseDay before storing anything.
func InRange(date, start, end string) bool {
	return date >= start && date <= end
}

// FilterRange returns the entries whose date falls in [start, end].
func FilterRange(entries []Entry, start, end string) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if InRange(e.Date, start, end) {
			out = append(out, e)
		}
	}
	return out
}

// FilterSince returns the entries dated on or after cutoff.
func FilterSince(entries []Entry, cutoff string) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.Date >= cutoff {
			out = append(out, e)
		}
	}
	return out
}

// DaysAgo returns the ISO date n days before asOf. Malformed asOf yields
// asOf unchanged, which makes downstream filters a no-op rather than a
// failure.
func DaysAgo(asOf string, n int) string {
	t, err := time.Parse(dayLayout, asOf)
	if err != nil {
		return asOf
	}
	return t.AddDate(0, 0, -n).Format(dayLayout)
}

// ComputeStats derives the full statistics bundle from the given entries.
// It is pure and total: no I/O, no clock (asOf is the injected "today" for
// streak scans), and the empty slice produces all-zero output.
func ComputeStats(entries []Entry, asOf string) Stats {
	counts := make(map[DelightType]int, len(Delights))
	daySet := make(map[string]struct{})
	dayTypes := make(map[string]map[DelightType]struct{})
	typeDays := make(map[DelightType]map[string]struct{}, len(Delights))

	for _, d := range Delights {
		counts[d.Type] = 0
		typeDays[d.Type] = make(map[string]struct{})
	}

	for _, e := range entries {
		counts[e.Type]++
		daySet[e.Date] = struct{}{}
		if days, ok := typeDays[e.Type]; ok {
			days[e.Date] = struct{}{}
		}
		types := dayTypes[e.Date]
		if types == nil {
			types = make(map[DelightType]struct{})
			dayTypes[e.Date] = types
		}
		types[e.Type] = struct{}{}
	}

	frequency := make([]CategoryCount, 0, len(Delights))
	maxCount := 0
	for _, d := range Delights {
		c := counts[d.Type]
		frequency = append(frequency, CategoryCount{Type: d.Type, Label: d.Label, Color: d.Color, Count: c})
		if c > maxCount {
			maxCount = c
		}
	}
	// Descending by count; stable so ties keep enumeration order.
	sort.SliceStable(frequency, func(i, j int) bool {
		return frequency[i].Count > frequency[j].Count
	})

	fullMark := maxCount
	if fullMark < 1 {
		fullMark = 1
	}
	radar := make([]RadarRow, 0, len(Delights))
	for _, d := range Delights {
		radar = append(radar, RadarRow{Delight: truncateLabel(d.Label), Count: counts[d.Type], FullMark: fullMark})
	}

	activeDays := len(daySet)
	totalEntries := len(entries)
	avg := "0"
	if activeDays > 0 {
		avg = strconv.FormatFloat(float64(totalEntries)/float64(activeDays), 'f', 1, 64)
	}

	perfectDays := 0
	for _, types := range dayTypes {
		if len(types) >= len(Delights) {
			perfectDays++
		}
	}

	mostPracticed := frequency[0]
	leastPracticed := frequency[len(frequency)-1]
	for i := len(frequency) - 1; i >= 0; i-- {
		if frequency[i].Count > 0 {
			leastPracticed = frequency[i]
			break
		}
	}

	streaks := make([]Streak, 0, len(Delights))
	for _, d := range Delights {
		cur, max := streakFor(typeDays[d.Type], asOf)
		streaks = append(streaks, Streak{Type: d.Type, Label: d.Label, Color: d.Color, Current: cur, Max: max})
	}

	return Stats{
		Frequency:      frequency,
		Radar:          radar,
		ActiveDays:     activeDays,
		TotalEntries:   totalEntries,
		AvgPerDay:      avg,
		PerfectDays:    perfectDays,
		MostPracticed:  mostPracticed,
		LeastPracticed: leastPracticed,
		Streaks:        streaks,
	}
}

// streakFor computes the current streak (unbroken run ending at asOf,
// walking backward up to maxStreakLookback days) and the longest run of
// consecutive days in the set.
func streakFor(days map[string]struct{}, asOf string) (current, max int) {
	if len(days) == 0 {
		return 0, 0
	}

	if cursor, err := time.Parse(dayLayout, asOf); err == nil {
		for i := 0; i < maxStreakLookback; i++ {
			if _, ok := days[cursor.Format(dayLayout)]; !ok {
				break
			}
			current++
			cursor = cursor.AddDate(0, 0, -1)
		}
	}

	sorted := make([]string, 0, len(days))
	for day := range days {
		sorted = append(sorted, day)
	}
	sort.Strings(sorted)

	run := 1
	for i := 1; i < len(sorted); i++ {
		prev, errPrev := time.Parse(dayLayout, sorted[i-1])
		next, errNext := time.Parse(dayLayout, sorted[i])
		if errPrev == nil && errNext == nil && next.Sub(prev) == 24*time.Hour {
			run++
			continue
		}
		if run > max {
			max = run
		}
		run = 1
	}
	if run > max {
		max = run
	}
	return current, max
}

func truncateLabel(label string) string {
	if len(label) > 10 {
		return label[:8] + "…"
	}
	return label
}
