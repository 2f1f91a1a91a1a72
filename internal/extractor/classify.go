package extractor

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"budget-reconciliation-service/internal/models"

	"github.com/shopspring/decimal"
)

// Cell classifiers for the statement row scan. Each classifier decides
// in isolation whether a raw cell carries one of the three signals the
// extractor looks for, so the heuristics can be tested apart from the
// scan-order logic.

var (
	// slashDatePattern detects D/M/YYYY-family cells anywhere in the text
	slashDatePattern = regexp.MustCompile(`\d{1,2}/\d{1,2}/\d{4}`)

	// dayMonthYearPattern captures a full day-first date (Italian convention)
	dayMonthYearPattern = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`)

	// isoDatePattern captures an already-ISO date, possibly unpadded
	isoDatePattern = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})$`)

	// amountPattern matches an optionally-signed decimal number with a
	// comma or dot separator, after currency symbols are stripped
	amountPattern = regexp.MustCompile(`^-?\d+[.,]?\d*$`)

	// bareNumberPattern identifies cells that are purely numeric and
	// therefore never descriptions
	bareNumberPattern = regexp.MustCompile(`^\d+$`)
)

// Spreadsheet date serials between these bounds (exclusive) are
// plausible statement dates, covering roughly the years 2009-2036.
// Values outside the window are treated as ordinary numbers.
const (
	serialDateMin = 40000
	serialDateMax = 50000
)

// serialEpoch is the day-zero of the 1900 date system, shifted to
// 1899-12-30 to absorb the historical Lotus leap-year bug.
var serialEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// currencyCodes lists bare currency-code cells that must never be
// claimed as descriptions.
var currencyCodes = map[string]bool{
	"EUR": true,
	"USD": true,
}

// ClassifyDate reports whether the cell carries a date signal and, if
// so, the calendar date it encodes. A cell that looks date-shaped but
// fails conversion is not a date; the caller keeps scanning.
func ClassifyDate(cell string) (time.Time, bool) {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return time.Time{}, false
	}

	if !slashDatePattern.MatchString(cell) && !isSerialCandidate(cell) {
		return time.Time{}, false
	}

	date, err := ParseStatementDate(cell)
	if err != nil {
		return time.Time{}, false
	}
	return date, true
}

// isSerialCandidate reports whether the cell's full text is a number in
// the plausible date-serial window.
func isSerialCandidate(cell string) bool {
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return false
	}
	return v > serialDateMin && v < serialDateMax
}

// ParseStatementDate converts a statement cell to a calendar date.
// Priority order: spreadsheet date serial, day-first D/M/YYYY, ISO
// YYYY-MM-DD, then the generic formats ledger exports use.
func ParseStatementDate(cell string) (time.Time, error) {
	cell = strings.TrimSpace(cell)

	if isSerialCandidate(cell) {
		serial, err := strconv.ParseFloat(cell, 64)
		if err == nil {
			// Fractional time-of-day is discarded
			return serialEpoch.AddDate(0, 0, int(serial)), nil
		}
	}

	if m := dayMonthYearPattern.FindStringSubmatch(cell); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		return calendarDate(year, month, day)
	}

	if m := isoDatePattern.FindStringSubmatch(cell); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		return calendarDate(year, month, day)
	}

	return models.ParseDateWithFormats(cell)
}

// calendarDate builds a date-only value, rejecting component overflow
// like 31/02 that time.Date would silently normalize.
func calendarDate(year, month, day int) (time.Time, error) {
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return time.Time{}, &time.ParseError{Layout: models.DateOnly, Value: t.Format(models.DateOnly)}
	}
	return t, nil
}

// ClassifyAmount reports whether the cell carries an amount signal and,
// if so, the signed decimal it encodes. Currency symbols and whitespace
// are stripped before shape-matching; zero amounts are rejected because
// zero-amount rows are not transactions.
func ClassifyAmount(cell string) (decimal.Decimal, bool) {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return decimal.Zero, false
	}

	stripped := strings.NewReplacer("€", "", "$", "", "£", "", " ", "", "\t", "").Replace(cell)
	if !amountPattern.MatchString(stripped) {
		return decimal.Zero, false
	}

	amount, err := models.ParseDecimalFromString(stripped)
	if err != nil || amount.IsZero() {
		return decimal.Zero, false
	}
	return amount, true
}

// ClassifyDescription reports whether the cell can serve as the row's
// description: at least 3 characters, not purely numeric, and not a
// bare currency code.
func ClassifyDescription(cell string) (string, bool) {
	cell = strings.TrimSpace(cell)

	if len([]rune(cell)) < 3 {
		return "", false
	}
	if currencyCodes[cell] {
		return "", false
	}
	if bareNumberPattern.MatchString(cell) {
		return "", false
	}
	return cell, true
}
