package importer

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// DateStatus classifies the outcome of normalizing a date cell.
type DateStatus int

const (
	DateOK DateStatus = iota
	DateAbsent
	DateUnparseable
)

// Gender is the canonical gender enumeration.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

// dateLayouts are tried in order. Day-first forms win over the US form, so
// an ambiguous value like 03/04/2024 reads as 3 April.
var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"02-01-2006",
	"01/02/2006",
}

// NormalizeText canonicalizes a raw cell value. Whitespace is trimmed, an
// integral float rendering (from numeric cells) drops its decimal part, and
// a ten-digit number starting with 1 regains the leading zero that numeric
// cell storage strips from local phone numbers.
func NormalizeText(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	if strings.ContainsAny(s, ".eE") {
		if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsInf(f, 0) && f == math.Trunc(f) {
			s = strconv.FormatFloat(f, 'f', -1, 64)
		}
	}
	if len(s) == 10 && s[0] == '1' && isDigits(s) {
		s = "0" + s
	}
	return s
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return len(s) > 0
}

// normalizeRow canonicalizes every known cell of a row.
func normalizeRow(row RawRow) map[Field]string {
	vals := make(map[Field]string, len(Columns))
	for _, c := range Columns {
		vals[c.Field] = NormalizeText(row.Get(c.Field))
	}
	return vals
}

// NormalizeDate parses a raw cell value into a date. Numeric values are
// treated as spreadsheet serial dates; text values are tried against the
// accepted layouts in order.
func NormalizeDate(raw string) (time.Time, DateStatus) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, DateAbsent
	}

	if f, err := strconv.ParseFloat(s, 64); err == nil {
		t, err := excelize.ExcelDateToTime(f, false)
		if err != nil {
			return time.Time{}, DateUnparseable
		}
		return t.Truncate(24 * time.Hour), DateOK
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, DateOK
		}
	}
	return time.Time{}, DateUnparseable
}

// NormalizeGender maps a raw value onto the gender enumeration,
// case-insensitively. The second return reports whether it matched.
func NormalizeGender(raw string) (Gender, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "male":
		return GenderMale, true
	case "female":
		return GenderFemale, true
	case "other":
		return GenderOther, true
	default:
		return "", false
	}
}
