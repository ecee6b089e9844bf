package timeparse

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	// DateLayout is the calendar date format used for appointment dates
	DateLayout = "2006-01-02"
	// ClockLayout is the 12-hour clock format used for appointment times
	ClockLayout = "3:04 PM"
)

var (
	ErrInvalidTime = errors.New("invalid time, use h:mm AM/PM")
	ErrInvalidDate = errors.New("invalid date, use YYYY-MM-DD")
)

// ParseError reports which input could not be parsed
type ParseError struct {
	Input string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%v: %q", e.Err, e.Input)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ParseClock parses a 12-hour clock string such as "1:30 PM" into a 24-hour hour and minute.
// 12 AM maps to hour 0 and 12 PM to hour 12.
func ParseClock(s string) (int, int, error) {
	fail := func() (int, int, error) {
		return 0, 0, &ParseError{Input: s, Err: ErrInvalidTime}
	}

	fields := strings.Fields(strings.TrimSpace(s))
	if len(fields) != 2 {
		return fail()
	}

	clock, meridiem := fields[0], strings.ToUpper(fields[1])
	if meridiem != "AM" && meridiem != "PM" {
		return fail()
	}

	hourStr, minuteStr, ok := strings.Cut(clock, ":")
	if !ok || len(hourStr) == 0 || len(hourStr) > 2 || len(minuteStr) != 2 {
		return fail()
	}

	hour, err := strconv.Atoi(hourStr)
	if err != nil || hour < 1 || hour > 12 {
		return fail()
	}
	minute, err := strconv.Atoi(minuteStr)
	if err != nil || minute < 0 || minute > 59 {
		return fail()
	}
	// Atoi accepts signs, the clock does not
	if strings.ContainsAny(clock, "+-") {
		return fail()
	}

	switch {
	case meridiem == "AM" && hour == 12:
		hour = 0
	case meridiem == "PM" && hour != 12:
		hour += 12
	}

	return hour, minute, nil
}

// ParseDate parses a calendar date in loc. Full RFC3339 timestamps are accepted and
// truncated to their calendar date.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	s = strings.TrimSpace(s)

	if d, err := time.ParseInLocation(DateLayout, s, loc); err == nil {
		return d, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		y, m, d := t.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, loc), nil
	}

	return time.Time{}, &ParseError{Input: s, Err: ErrInvalidDate}
}

// Combine returns the absolute time of clock on date in loc
func Combine(date, clock string, loc *time.Location) (time.Time, error) {
	day, err := ParseDate(date, loc)
	if err != nil {
		return time.Time{}, err
	}
	hour, minute, err := ParseClock(clock)
	if err != nil {
		return time.Time{}, err
	}

	y, m, d := day.Date()
	return time.Date(y, m, d, hour, minute, 0, 0, day.Location()), nil
}

// FormatClock formats t as "h:mm AM/PM"
func FormatClock(t time.Time) string {
	return t.Format(ClockLayout)
}

// FormatDate formats t as YYYY-MM-DD
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}
