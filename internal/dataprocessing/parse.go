package dataprocessing

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// serialEpoch is the spreadsheet date-serial epoch. 1899-12-30 absorbs the
// fictitious 1900-02-29 of the original spreadsheet calendar, so modern
// serials land on the same dates spreadsheets display.
var serialEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// isoLayouts are tried first so an ambiguous string matching both ISO and a
// regional pattern always resolves as ISO.
var isoLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// regionalLayouts cover the slash- and dash-separated forms commonly found
// in exported reports.
var regionalLayouts = []string{
	"01/02/2006",
	"1/2/2006",
	"02-01-2006",
	"2-1-2006",
}

// permissiveLayouts are the last-resort formats, mirroring what a lenient
// native date constructor would accept.
var permissiveLayouts = []string{
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"2006/01/02",
	"Jan 2 2006",
	time.RFC1123,
	time.RFC822,
}

// ParseDate converts a raw cell value into a calendar date. It accepts
// native time values, spreadsheet serial numbers (days since the 1899-12-30
// epoch, converted via millisecond arithmetic), and strings in ISO-8601 or a
// small set of regional formats. The boolean is false when no interpretation
// validates.
func ParseDate(value interface{}) (time.Time, bool) {
	switch v := value.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		if v.IsZero() {
			return time.Time{}, false
		}
		return v, true
	case float64:
		return serialToDate(v)
	case float32:
		return serialToDate(float64(v))
	case int:
		return serialToDate(float64(v))
	case int64:
		return serialToDate(float64(v))
	case string:
		return parseDateString(v)
	default:
		return time.Time{}, false
	}
}

// serialToDate interprets a spreadsheet day serial. Fractional serials carry
// a time-of-day component.
func serialToDate(serial float64) (time.Time, bool) {
	if math.IsNaN(serial) || math.IsInf(serial, 0) || serial <= 0 {
		return time.Time{}, false
	}
	ms := serial * 24 * 60 * 60 * 1000
	return serialEpoch.Add(time.Duration(ms) * time.Millisecond), true
}

func parseDateString(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	// Strict ISO first.
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	for _, layout := range regionalLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	// Permissive fallback.
	for _, layout := range permissiveLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	return time.Time{}, false
}

// numericStripper removes the decorations found around numbers in exported
// spreadsheets: currency glyphs, thousands separators and percent signs.
var numericStripper = strings.NewReplacer(
	"$", "",
	"€", "",
	"£", "",
	"¥", "",
	",", "",
	"%", "",
	" ", "",
)

// ParseNumeric converts a raw cell value into a float. Numbers pass through
// unchanged when finite; strings are stripped of currency symbols, thousands
// separators and percent signs before parsing. Anything else yields false.
func ParseNumeric(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return finite(v)
	case float32:
		return finite(float64(v))
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		s := numericStripper.Replace(strings.TrimSpace(v))
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return finite(f)
	default:
		return 0, false
	}
}

func finite(f float64) (float64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
