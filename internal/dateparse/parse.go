// Package dateparse resolves the free-text German date/time expressions found
// on mbasic event pages into concrete start/end instants.
//
// The grammar covers exactly the forms the event pages emit:
//
//	<dayword>[, <date>] um <time>
//	<dayword>[, <date>] von <time> bis <time>
//
// where <dayword> is "Heute", "Morgen" or a weekday name, <date> is an
// absolute "2. Januar 2006" date (only present for dates further out than the
// named weekday), and <time> is "HH:MM UTC<offset>".
package dateparse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	dateRe = regexp.MustCompile(`^(?P<dayofweek>.*?)(?:, (?P<date>.*))?(?:(?: von (?P<von>.*))(?: bis (?P<bis>.*))|(?: um (?P<um>.*)))$`)
	utcRe  = regexp.MustCompile(`UTC[+-]\d+`)

	idxDayword = dateRe.SubexpIndex("dayofweek")
	idxDate    = dateRe.SubexpIndex("date")
	idxVon     = dateRe.SubexpIndex("von")
	idxBis     = dateRe.SubexpIndex("bis")
	idxUm      = dateRe.SubexpIndex("um")
)

var weekdays = map[string]time.Weekday{
	"Montag":     time.Monday,
	"Dienstag":   time.Tuesday,
	"Mittwoch":   time.Wednesday,
	"Donnerstag": time.Thursday,
	"Freitag":    time.Friday,
	"Samstag":    time.Saturday,
	"Sonntag":    time.Sunday,
}

var months = map[string]time.Month{
	"Januar":    time.January,
	"Februar":   time.February,
	"März":      time.March,
	"April":     time.April,
	"Mai":       time.May,
	"Juni":      time.June,
	"Juli":      time.July,
	"August":    time.August,
	"September": time.September,
	"Oktober":   time.October,
	"November":  time.November,
	"Dezember":  time.December,
}

// MalformedDateError reports a date expression that does not match the
// grammar or contains an unparseable component.
type MalformedDateError struct {
	Text string // the offending expression
	Err  error  // underlying cause, if any
}

func (e *MalformedDateError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed date %q: %v", e.Text, e.Err)
	}
	return fmt.Sprintf("malformed date %q", e.Text)
}

func (e *MalformedDateError) Unwrap() error {
	return e.Err
}

// calDate is a zone-free calendar date.
type calDate struct {
	year  int
	month time.Month
	day   int
}

// Resolve parses one date/time expression into a start/end pair. Relative
// daywords ("Heute", "Morgen", bare weekday names) are resolved against the
// calendar date of today, which callers normally pass as time.Now(); tests
// pass a fixed reference instead of touching the process clock.
//
// A bare weekday name always resolves strictly into the future: if today is a
// Monday, "Montag" means next week's Monday (same-day events use "Heute").
// Without a "bis" time the event ends at the next midnight in the start's
// zone, and the end is advanced day by day until it strictly follows the
// start, which also covers events crossing midnight.
func Resolve(text string, today time.Time) (start, end time.Time, err error) {
	m := dateRe.FindStringSubmatch(text)
	if m == nil {
		return time.Time{}, time.Time{}, &MalformedDateError{Text: text}
	}

	date, err := resolveDate(m[idxDayword], m[idxDate], today)
	if err != nil {
		return time.Time{}, time.Time{}, &MalformedDateError{Text: text, Err: err}
	}

	startClock := m[idxVon]
	if startClock == "" {
		startClock = m[idxUm]
	}
	clock, err := parseClock(startClock)
	if err != nil {
		return time.Time{}, time.Time{}, &MalformedDateError{Text: text, Err: err}
	}
	start = combine(date, clock)

	if m[idxBis] != "" {
		endClock, err := parseClock(m[idxBis])
		if err != nil {
			return time.Time{}, time.Time{}, &MalformedDateError{Text: text, Err: err}
		}
		end = combine(date, endClock)
	} else {
		end = time.Date(date.year, date.month, date.day, 0, 0, 0, 0, start.Location()).AddDate(0, 0, 1)
	}

	for !end.After(start) {
		end = end.AddDate(0, 0, 1)
	}

	return start, end, nil
}

// resolveDate turns the dayword (and optional absolute date) into a calendar
// date relative to today.
func resolveDate(dayword, date string, today time.Time) (calDate, error) {
	var off int
	switch {
	case dayword == "Heute":
		off = 0
	case dayword == "Morgen":
		off = 1
	case date == "":
		then, ok := weekdays[dayword]
		if !ok {
			return calDate{}, fmt.Errorf("unknown weekday %q", dayword)
		}
		off = int(then) - int(today.Weekday())
		for off <= 0 {
			off += 7
		}
	default:
		return parseAbsoluteDate(date)
	}

	d := today.AddDate(0, 0, off)
	return calDate{year: d.Year(), month: d.Month(), day: d.Day()}, nil
}

// parseAbsoluteDate parses a "2. Januar 2006" date.
func parseAbsoluteDate(s string) (calDate, error) {
	parts := strings.SplitN(s, " ", 3)
	if len(parts) != 3 {
		return calDate{}, fmt.Errorf("unexpected date %q", s)
	}

	dayStr, ok := strings.CutSuffix(parts[0], ".")
	if !ok {
		return calDate{}, fmt.Errorf("unexpected day %q", parts[0])
	}
	day, err := strconv.Atoi(dayStr)
	if err != nil {
		return calDate{}, fmt.Errorf("unexpected day %q", parts[0])
	}

	month, ok := months[parts[1]]
	if !ok {
		return calDate{}, fmt.Errorf("unknown month %q", parts[1])
	}

	year, err := strconv.Atoi(parts[2])
	if err != nil {
		return calDate{}, fmt.Errorf("unexpected year %q", parts[2])
	}

	// time.Date normalizes out-of-range days, so round-trip to reject
	// dates like "31. Februar 2021".
	d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if d.Day() != day || d.Month() != month || d.Year() != year {
		return calDate{}, fmt.Errorf("day out of range in %q", s)
	}

	return calDate{year: year, month: month, day: day}, nil
}

// parseClock parses "HH:MM UTC<offset>" into a clock carrier whose hour,
// minute and fixed-offset location are combined with a calendar date later.
func parseClock(s string) (time.Time, error) {
	t, err := time.Parse("15:04 UTC-0700", fixUTCOffset(s))
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}

// fixUTCOffset right-pads every "UTC±d..." substring with '0' to eight bytes
// ("UTC" plus sign plus four digits) so a variable-width offset always parses
// as a two-digit-hour/two-digit-minute fixed offset. A short offset like
// "UTC+1" therefore pads to "UTC+1000" and parses as +10:00, not +01:00; the
// mbasic pages this grammar was written against emit four-digit offsets, and
// the padding is kept bit-for-bit compatible with the files already in
// existing archives.
func fixUTCOffset(s string) string {
	return utcRe.ReplaceAllStringFunc(s, func(m string) string {
		for len(m) < 8 {
			m += "0"
		}
		return m
	})
}

func combine(d calDate, clock time.Time) time.Time {
	return time.Date(d.year, d.month, d.day, clock.Hour(), clock.Minute(), 0, 0, clock.Location())
}
