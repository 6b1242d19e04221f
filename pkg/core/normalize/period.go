package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"camels_monitor/pkg/core/ingest"
)

// Period is a canonical fiscal quarter: label "YYYYQn" plus ISO date bounds.
type Period struct {
	Label string
	Start string
	End   string
}

var (
	periodKeys  = []string{"period", "periodo", "quarter", "trimestre", "fecha", "date"}
	yearKeys    = map[string]bool{"year": true, "anio": true, "año": true}
	quarterKeys = map[string]bool{"quarter": true, "q": true, "trim": true, "trimestre": true}

	quarterPattern = regexp.MustCompile(`(?i)(\d{4}).*?q([1-4])`)
	digitPattern   = regexp.MustCompile(`[1-4]`)

	dateLayouts = []string{
		"2006-01-02",
		"02/01/2006",
		"01/02/2006",
		"02-01-2006",
		"2006/01/02",
	}
)

// ResolvePeriod infers the reporting quarter from a parsed row.
//
// Two passes run over the fields in their declared order: first, dedicated
// year and quarter columns are collected; second, period/date columns are
// matched against a "YYYY…Qn" pattern and then a fixed list of date layouts.
// The first period/date field that yields a match wins and overrides the
// year/quarter pair. The second return value is false when the row carries
// no period evidence at all.
func ResolvePeriod(row ingest.Row) (Period, bool) {
	year, quarter := extractYearQuarter(row)

	for _, field := range row {
		key := strings.ToLower(field.Name)
		if !containsAny(key, periodKeys) {
			continue
		}
		text := strings.TrimSpace(field.Value)
		if text == "" {
			continue
		}
		if m := quarterPattern.FindStringSubmatch(text); m != nil {
			year, _ = strconv.Atoi(m[1])
			quarter, _ = strconv.Atoi(m[2])
			break
		}
		if parsed, ok := parseDate(text); ok {
			year = parsed.Year()
			quarter = (int(parsed.Month())-1)/3 + 1
			break
		}
	}

	if year == 0 || quarter == 0 {
		return Period{}, false
	}
	return canonicalPeriod(year, quarter), true
}

// extractYearQuarter scans dedicated year/quarter columns. Later columns
// override earlier ones; any 4-digit year is accepted as-is.
func extractYearQuarter(row ingest.Row) (int, int) {
	year, quarter := 0, 0
	for _, field := range row {
		key := strings.ToLower(field.Name)
		value := strings.TrimSpace(field.Value)
		if value == "" {
			continue
		}
		if yearKeys[key] {
			if y, err := strconv.Atoi(value); err == nil {
				year = y
			}
		}
		if quarterKeys[key] {
			if m := digitPattern.FindString(value); m != "" {
				quarter, _ = strconv.Atoi(m)
			}
		}
	}
	return year, quarter
}

func parseDate(text string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return t, true
		}
	}
	// ISO-8601 fallback for timestamps like 2024-03-31T00:00:00.
	for _, layout := range []string{"2006-01-02T15:04:05", time.RFC3339} {
		if t, err := time.Parse(layout, text); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func canonicalPeriod(year, quarter int) Period {
	start := quarterStart(year, quarter)
	var end time.Time
	if quarter == 4 {
		end = time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
	} else {
		end = quarterStart(year, quarter+1).AddDate(0, 0, -1)
	}
	return Period{
		Label: fmt.Sprintf("%dQ%d", year, quarter),
		Start: start.Format("2006-01-02"),
		End:   end.Format("2006-01-02"),
	}
}

func quarterStart(year, quarter int) time.Time {
	month := time.Month((quarter-1)*3 + 1)
	return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
}

func containsAny(key string, markers []string) bool {
	for _, marker := range markers {
		if strings.Contains(key, marker) {
			return true
		}
	}
	return false
}
