package rawfact

import (
	"fmt"
	"strings"
	"time"
)

// Timeframe is an inclusive period used to select facts. A nil bound leaves
// that side of the period open.
type Timeframe struct {
	Start *time.Time
	End   *time.Time
}

// String provides a printable representation.
func (tf Timeframe) String() string {
	f := func(t *time.Time) string {
		if t == nil {
			return "..."
		}
		return t.Format("2006-01-02 15:04:05")
	}
	return fmt.Sprintf("%s - %s", f(tf.Start), f(tf.End))
}

// dayStartOn returns the instant the tracking day of the given calendar date
// begins.
func dayStartOn(y int, m time.Month, d int, dayStart time.Duration, loc *time.Location) time.Time {
	h := int(dayStart / time.Hour)
	mi := int(dayStart % time.Hour / time.Minute)
	s := int(dayStart % time.Minute / time.Second)
	return time.Date(y, m, d, h, mi, s, 0, loc)
}

// DayOf returns the tracking day containing t. A tracking day runs from
// dayStart on one calendar date to one second before dayStart on the next, so
// with a day start of 05:00 the instant 2015-12-13 03:00 belongs to the
// tracking day of 2015-12-12.
func DayOf(t time.Time, dayStart time.Duration) Timeframe {
	y, m, d := t.Add(-dayStart).Date()
	start := dayStartOn(y, m, d, dayStart, t.Location())
	end := dayStartOn(y, m, d+1, dayStart, t.Location()).Add(-time.Second)
	return Timeframe{Start: &start, End: &end}
}

// point is one side of a timeframe expression.
type point struct {
	date    time.Time // midnight of the given date, zero if none was given
	clock   *Clock
	hasDate bool
}

// parsePoint parses "YYYY-MM-DD", "YYYY-MM-DD HH:MM" or "HH:MM".
func parsePoint(s string, loc *time.Location) (point, error) {
	s = strings.TrimSpace(s)
	if m := regexpClockRange.FindStringSubmatch(s); m != nil && m[3] == "" {
		c, err := parseClock(m[1], m[2])
		if err != nil {
			return point{}, err
		}
		return point{clock: &c}, nil
	}
	if t, err := time.ParseInLocation("2006-01-02", s, loc); err == nil {
		return point{date: t, hasDate: true}, nil
	}
	if t, err := time.ParseInLocation("2006-01-02 15:04", s, loc); err == nil {
		c := Clock{Hour: t.Hour(), Minute: t.Minute()}
		y, mo, d := t.Date()
		return point{date: time.Date(y, mo, d, 0, 0, 0, 0, loc), clock: &c, hasDate: true}, nil
	}
	return point{}, fmt.Errorf("malformed time %q, expected YYYY-MM-DD, YYYY-MM-DD HH:MM or HH:MM", s)
}

// ParseTimeframe parses a timeframe expression relative to now. Accepted forms
// are "HH:MM-HH:MM", a single point, or two points separated by " - ", where a
// point is "YYYY-MM-DD", "YYYY-MM-DD HH:MM" or "HH:MM". Missing parts are
// completed using the tracking day: a date without a time starts at dayStart,
// an end date without a time runs to the end of that tracking day and a time
// without a date is taken on now's date. A single point runs to the end of its
// tracking day. An empty expression gives an unbounded timeframe.
func ParseTimeframe(s string, dayStart time.Duration, now time.Time) (Timeframe, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Timeframe{}, nil
	}
	loc := now.Location()

	var startPt, endPt point
	var hasEnd bool
	var err error

	if m := regexpClockRange.FindStringSubmatch(s); m != nil && m[3] != "" {
		r, err := parseRange(s)
		if err != nil {
			return Timeframe{}, &ParseError{Input: s, Reason: err.Error()}
		}
		startPt, endPt, hasEnd = point{clock: r.Start}, point{clock: r.End}, true
	} else {
		left, right, isPair := strings.Cut(s, " - ")
		startPt, err = parsePoint(left, loc)
		if err != nil {
			return Timeframe{}, &ParseError{Input: s, Reason: err.Error()}
		}
		if isPair {
			endPt, err = parsePoint(right, loc)
			if err != nil {
				return Timeframe{}, &ParseError{Input: s, Reason: err.Error()}
			}
			hasEnd = true
		}
	}

	// Complete the start.
	var start time.Time
	switch {
	case startPt.hasDate && startPt.clock != nil:
		start = startPt.clock.On(startPt.date)
	case startPt.hasDate:
		y, m, d := startPt.date.Date()
		start = dayStartOn(y, m, d, dayStart, loc)
	default:
		start = startPt.clock.On(now)
	}

	if !hasEnd {
		end := *DayOf(start, dayStart).End
		return Timeframe{Start: &start, End: &end}, nil
	}

	// Complete the end.
	var end time.Time
	switch {
	case endPt.hasDate && endPt.clock != nil:
		end = endPt.clock.On(endPt.date)
	case endPt.hasDate:
		y, m, d := endPt.date.Date()
		end = dayStartOn(y, m, d+1, dayStart, loc).Add(-time.Second)
	default:
		end = endPt.clock.On(start)
		if end.Before(start) {
			end = endPt.clock.On(start.AddDate(0, 0, 1))
		}
	}
	if end.Before(start) {
		return Timeframe{}, &ParseError{Input: s, Reason: "timeframe ends before it starts"}
	}
	return Timeframe{Start: &start, End: &end}, nil
}
