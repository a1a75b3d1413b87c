// Package dateutils provides the date handling shared by the ledger: parsing dates emitted
// by the classifier, day truncation and the month windows used by summaries.
package dateutils

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Date layouts accepted on input. Day-first and month-first numeric layouts are not
// accepted: they cannot be told apart.
const (
	DateLayoutISO   = "2006-01-02"
	DateLayoutFull  = "2006-01-02 15:04:05"
	DateLayoutSlash = "2006/01/02"
	DateLayoutDots  = "2006.01.02"
	DateLayoutMonth = "2006-01"
)

// CommonFormats is the list of layouts ParseDate tries, in order.
var CommonFormats = []string{
	DateLayoutISO,
	DateLayoutFull,
	time.RFC3339,
	DateLayoutSlash,
	DateLayoutDots,
	"2006年1月2日",
	"Jan 2, 2006",
	"January 2, 2006",
}

var multiSpace = regexp.MustCompile(`\s+`)

// ParseDate attempts to parse a date string using CommonFormats.
// Returns the parsed day (time stripped, UTC) and the detected layout.
func ParseDate(dateStr string) (time.Time, string, error) {
	dateStr = CleanDateString(dateStr)
	if dateStr == "" {
		return time.Time{}, "", fmt.Errorf("empty date")
	}

	for _, format := range CommonFormats {
		if t, err := time.Parse(format, dateStr); err == nil {
			return StartOfDay(t), format, nil
		}
	}

	return time.Time{}, "", fmt.Errorf("unable to parse date: %s", dateStr)
}

// CleanDateString trims and collapses whitespace.
func CleanDateString(dateStr string) string {
	return multiSpace.ReplaceAllString(strings.TrimSpace(dateStr), " ")
}

// ToISODate formats a time.Time value as an ISO date (YYYY-MM-DD)
func ToISODate(date time.Time) string {
	return date.Format(DateLayoutISO)
}

// MonthKey formats the month of date as YYYY-MM.
func MonthKey(date time.Time) string {
	return date.Format(DateLayoutMonth)
}

// StartOfDay drops the clock part of t, keeping its calendar day in UTC.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// StartOfMonth returns the first day of the month for a given date
func StartOfMonth(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), 1, 0, 0, 0, 0, date.Location())
}

// EndOfMonth returns the last day of the month for a given date
func EndOfMonth(date time.Time) time.Time {
	return StartOfMonth(date).AddDate(0, 1, -1)
}

// MonthWindow returns the first day of the month months-1 months before now and the last
// day of now's month, so months=1 covers the current month only.
func MonthWindow(now time.Time, months int) (time.Time, time.Time) {
	if months < 1 {
		months = 1
	}
	day := StartOfDay(now)
	from := StartOfMonth(day).AddDate(0, -(months - 1), 0)
	return from, EndOfMonth(day)
}

// CompareDates compares two dates by calendar day and returns:
//
//	-1 if date1 is before date2
//	 0 if date1 is equal to date2
//	 1 if date1 is after date2
func CompareDates(date1, date2 time.Time) int {
	date1 = StartOfDay(date1)
	date2 = StartOfDay(date2)

	switch {
	case date1.Before(date2):
		return -1
	case date1.After(date2):
		return 1
	default:
		return 0
	}
}
