package core

// convert.go provides type conversion functions for raw CSV cells.
//
// These functions handle the messy reality of exported CSV data:
//   - Null markers written by spreadsheets and dataframe tools (NA, NaN, NULL)
//   - Multiple date formats (US, ISO, timestamps)
//   - Currency symbols and thousand separators in numbers
//   - Excel formula prefixes (="value")
//
// ToPgText and ToPgDate return pgtype values with Valid=false for empty or
// invalid input, so a null survives every step of the pipeline unchanged.

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/spf13/cast"
)

// DateLayout is the canonical output format for date columns.
const DateLayout = "2006-01-02"

// TwoDigitYearPivot defines how 2-digit years are interpreted.
// Years that would result in dates more than this many years in the future
// are assumed to be in the previous century.
var TwoDigitYearPivot = 20

// nullTokens are cell values read as null, matching what dataframe tools emit.
var nullTokens = map[string]bool{
	"NA":   true,
	"N/A":  true,
	"NaN":  true,
	"nan":  true,
	"NULL": true,
	"null": true,
	"None": true,
}

// Date layouts split by year format for proper 2-digit year handling
var (
	twoDigitYearLayouts = []string{
		"1/2/06", "01/02/06", "1-2-06", "1.2.06", "01.02.06",
	}
	fourDigitYearLayouts = []string{
		"2006-01-02", "2006-1-2", "2006/01/02", "2006/1/2", "2006.01.02",
		"1/2/2006", "01/02/2006", "1-2-2006", "01-02-2006", "1.2.2006", "01.02.2006",
		"Jan 2, 2006", "January 2, 2006", "2 Jan 2006",
		"20060102",
	}
	dateTimeLayouts = []string{
		time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02 15:04",
		"1/2/2006 15:04:05", "1/2/2006 15:04",
	}
)

// IsNullToken reports whether a trimmed cell value stands for a missing value.
func IsNullToken(s string) bool {
	return s == "" || nullTokens[s]
}

// ToPgText converts a raw cell to pgtype.Text.
// Returns invalid if the cell is empty, only whitespace, or a null marker.
func ToPgText(s string) pgtype.Text {
	s = strings.TrimSpace(s)
	if IsNullToken(s) {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: s, Valid: true}
}

// ToPgDate converts a string to pgtype.Date.
// Supports multiple date formats and handles 2-digit years with pivot.
// Slash dates are read month first, so "13/31/2024" is invalid.
func ToPgDate(s string) pgtype.Date {
	s = strings.TrimSpace(s)
	if IsNullToken(s) {
		return pgtype.Date{Valid: false}
	}

	// Try 4-digit year layouts first (unambiguous)
	for _, layout := range fourDigitYearLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return pgtype.Date{Time: t, Valid: true}
		}
	}

	for _, layout := range dateTimeLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			y, m, d := t.Date()
			return pgtype.Date{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC), Valid: true}
		}
	}

	// Try 2-digit year layouts with pivot year adjustment
	currentYear := time.Now().Year()
	pivotYear := currentYear + TwoDigitYearPivot

	for _, layout := range twoDigitYearLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			if t.Year() > pivotYear {
				t = t.AddDate(-100, 0, 0)
			}
			return pgtype.Date{Time: t, Valid: true}
		}
	}

	return pgtype.Date{Valid: false}
}

// maxExactInteger is the largest magnitude up to which float64 holds every
// integer exactly.
const maxExactInteger = 1 << 53

// ParseNumber converts a cell to a float64.
// Handles currency symbols, thousands separators, and accounting format
// (parentheses for negative). NaN and infinities are rejected.
func ParseNumber(s string) (float64, bool) {
	s, ok := normalizeNumber(s)
	if !ok {
		return 0, false
	}
	f, err := cast.ToFloat64E(s)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// ParseInteger converts a cell to an int64 without passing through float64,
// so identifiers above 2^53 keep every digit. A float form such as "12.0"
// or "1e3" is accepted only when it is whole and no larger than 2^53.
// Values outside int64 range are rejected.
func ParseInteger(s string) (int64, bool) {
	s, ok := normalizeNumber(s)
	if !ok {
		return 0, false
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i, true
	}
	f, err := cast.ToFloat64E(s)
	if err != nil || f != math.Trunc(f) || math.Abs(f) > maxExactInteger {
		return 0, false
	}
	return int64(f), true
}

// ParsesAs reports whether s is a valid value for a numeric column of type ft.
func ParsesAs(s string, ft FieldType) bool {
	if ft == FieldInteger {
		_, ok := ParseInteger(s)
		return ok
	}
	_, ok := ParseNumber(s)
	return ok
}

// normalizeNumber strips currency symbols and thousands separators and
// turns accounting parentheses into a leading minus.
func normalizeNumber(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if IsNullToken(s) {
		return "", false
	}

	// Detect negative accounting format "(123.45)"
	isNegative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		isNegative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	// Remove common currency symbols and thousands separators
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, "€", "") // Euro
	s = strings.ReplaceAll(s, "£", "") // Pound
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	if isNegative {
		s = "-" + s
	}
	return s, s != ""
}

// ParseCell parses a numeric cell. Null cells report false.
func ParseCell(c pgtype.Text) (float64, bool) {
	if !c.Valid {
		return 0, false
	}
	return ParseNumber(c.String)
}

// FormatInteger renders a number as an integer, rounding half away from zero.
func FormatInteger(f float64) string {
	return strconv.FormatInt(int64(math.Round(f)), 10)
}

// FormatReal renders a number in its shortest round-tripping form.
func FormatReal(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// FormatNumber renders a number the way a column of the given type stores it.
func FormatNumber(f float64, ft FieldType) string {
	if ft == FieldInteger {
		return FormatInteger(f)
	}
	return FormatReal(f)
}

// FormatDate renders a date in the canonical ISO-8601 form.
func FormatDate(d pgtype.Date) pgtype.Text {
	if !d.Valid {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: d.Time.Format(DateLayout), Valid: true}
}

// RoundTo rounds f to the given number of decimals.
func RoundTo(f float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(f*p) / p
}

// MakeHeaderIndex creates a HeaderIndex from a CSV header row.
// Keys are lowercased for case-insensitive matching.
func MakeHeaderIndex(header []string) HeaderIndex {
	idx := make(HeaderIndex, len(header))
	for i, h := range header {
		key := strings.ToLower(CleanCell(h))
		idx[key] = i
	}
	return idx
}

// CleanCell removes common CSV artifacts from a cell value:
// - Trims whitespace
// - Removes Excel formula prefix (="...")
// - Removes surrounding quotes
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	// Remove leading '='
	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	// Remove any surrounding quotes
	return strings.Trim(s, `"'`)
}

// CleanHeader normalizes a raw header name according to style.
func CleanHeader(name string, style HeaderStyle) string {
	name = strings.TrimSpace(name)
	if style == HeaderSnake {
		name = strings.ReplaceAll(strings.ToLower(name), " ", "_")
	}
	return name
}
