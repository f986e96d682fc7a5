package google

import (
	"fmt"
	"strings"

	"ninedelights/internal/core"
)

// parseRows converts raw sheet values into entries. Row numbers start at 2
// (row 1 is the header). Rows with an empty date cell are skipped: the
// sheet may contain stray formatting rows, and a persisted entry never has
// an empty date. Legacy five-column rows (written before the image column
// existed) parse with an empty image URL.
func parseRows(values [][]any) []core.Entry {
	out := make([]core.Entry, 0, len(values))
	for i, row := range values {
		cols := toStrings(row)
		date := cell(cols, 0)
		if date == "" {
			continue
		}
		out = append(out, core.Entry{
			Row:          i + 2,
			Date:         date,
			Type:         core.DelightType(cell(cols, 1)),
			Description:  cell(cols, 2),
			WildcardName: cell(cols, 3),
			CreatedAt:    cell(cols, 4),
			ImageURL:     cell(cols, 5),
		})
	}
	return out
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func cell(cols []string, idx int) string {
	if idx < 0 || idx >= len(cols) {
		return ""
	}
	return cols[idx]
}
