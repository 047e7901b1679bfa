package domain

import (
	"fmt"
	"time"

	dErrors "fieldsafe/pkg/domain-errors"
)

// Month is a calendar month in "YYYY-MM" form. It is the key space of the
// visit tracking calendar.
type Month string

const monthLayout = "2006-01"

// ParseMonth validates a "YYYY-MM" string.
func ParseMonth(s string) (Month, error) {
	if _, err := time.Parse(monthLayout, s); err != nil {
		return "", dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("month must be in YYYY-MM form, got %q", s))
	}
	return Month(s), nil
}

// MonthOf returns the Month containing t.
func MonthOf(t time.Time) Month {
	return Month(t.Format(monthLayout))
}

// MonthsOfYear returns the twelve months of a calendar year in order.
func MonthsOfYear(year int) []Month {
	months := make([]Month, 0, 12)
	for m := time.January; m <= time.December; m++ {
		months = append(months, MonthOf(time.Date(year, m, 1, 0, 0, 0, 0, time.UTC)))
	}
	return months
}

func (m Month) String() string { return string(m) }

// Year returns the calendar year of the month. Zero for invalid months.
func (m Month) Year() int {
	t, err := time.Parse(monthLayout, string(m))
	if err != nil {
		return 0
	}
	return t.Year()
}

// Valid reports whether the month parses as "YYYY-MM".
func (m Month) Valid() bool {
	_, err := ParseMonth(string(m))
	return err == nil
}
