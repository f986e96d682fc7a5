package core

import "time"

// Day pairs a calendar date with the entries recorded on it, for the
// calendar partials.
type Day struct {
	Date    string
	InMonth bool
	Entries []Entry
}

// startOfWeek returns the Monday on or before t.
func startOfWeek(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	return t.AddDate(0, 0, -offset)
}

// WeekWindow returns the Monday and Sunday of the week containing anchor.
func WeekWindow(anchor string) (start, end string) {
	t, err := time.Parse(dayLayout, anchor)
	if err != nil {
		return anchor, anchor
	}
	mon := startOfWeek(t)
	return mon.Format(dayLayout), mon.AddDate(0, 0, 6).Format(dayLayout)
}

// MonthWindow returns the first and last day of the month containing
// anchor.
func MonthWindow(anchor string) (start, end string) {
	t, err := time.Parse(dayLayout, anchor)
	if err != nil {
		return anchor, anchor
	}
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	return first.Format(dayLayout), last.Format(dayLayout)
}

// WeekDays builds the seven days of the week containing anchor, each
// carrying its entries from the given list.
func WeekDays(entries []Entry, anchor string) []Day {
	start, _ := WeekWindow(anchor)
	t, err := time.Parse(dayLayout, start)
	if err != nil {
		return nil
	}
	days := make([]Day, 0, 7)
	for i := 0; i < 7; i++ {
		date := t.AddDate(0, 0, i).Format(dayLayout)
		days = append(days, Day{Date: date, InMonth: true, Entries: entriesOn(entries, date)})
	}
	return days
}

// MonthGrid builds the full calendar grid for the month containing anchor:
// whole weeks from the Monday on or before the 1st through the Sunday on
// or after the last day. Days outside the month are flagged so the
// template can dim them.
func MonthGrid(entries []Entry, anchor string) [][]Day {
	t, err := time.Parse(dayLayout, anchor)
	if err != nil {
		return nil
	}
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	start := startOfWeek(first)
	end := startOfWeek(last).AddDate(0, 0, 6)

	var grid [][]Day
	var week []Day
	for cursor := start; !cursor.After(end); cursor = cursor.AddDate(0, 0, 1) {
		date := cursor.Format(dayLayout)
		week = append(week, Day{
			Date:    date,
			InMonth: cursor.Month() == first.Month(),
			Entries: entriesOn(entries, date),
		})
		if len(week) == 7 {
			grid = append(grid, week)
			week = nil
		}
	}
	return grid
}

func entriesOn(entries []Entry, date string) []Entry {
	var out []Entry
	for _, e := range entries {
		if e.Date == date {
			out = append(out, e)
		}
	}
	return out
}
