package rawfact

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// MaxRollDays is the number of days an end clock time may be moved forward
// to fall on or after its start before resolution gives up.
const MaxRollDays = 7

// dateTimeLayouts are the accepted forms of explicit start and end values.
var dateTimeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// ParseDateTime parses an absolute datetime such as "2015-12-12 13:00" in loc.
func ParseDateTime(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.New("expected a datetime such as '2006-01-02 15:04:05' or '2006-01-02 15:04'")
}

// Resolve determines the start and end of a fact from its embedded time range
// and the explicit start and end values, relative to now. A nil end means the
// fact is ongoing.
//
// Explicit values take precedence over the embedded range. Clock times from
// the range are placed on now's date; the start is never moved off that date,
// even if it lies in the future. An end clock time earlier than the start is
// moved forward a day at a time, for at most MaxRollDays days.
func Resolve(r Range, explicitStart, explicitEnd string, now time.Time) (time.Time, *time.Time, error) {
	var start time.Time

	explicitStart = strings.TrimSpace(explicitStart)
	switch {
	case explicitStart != "":
		t, err := ParseDateTime(explicitStart, now.Location())
		if err != nil {
			return time.Time{}, nil, &ValidationError{Field: "start", Value: explicitStart, Err: err}
		}
		start = t
	case r.Start != nil:
		start = r.Start.On(now)
	default:
		return time.Time{}, nil, &ParseError{Reason: "no start time given"}
	}

	explicitEnd = strings.TrimSpace(explicitEnd)
	switch {
	case explicitEnd != "":
		end, err := ParseDateTime(explicitEnd, now.Location())
		if err != nil {
			return time.Time{}, nil, &ValidationError{Field: "end", Value: explicitEnd, Err: err}
		}
		if end.Before(start) {
			return time.Time{}, nil, &ValidationError{Field: "end", Value: explicitEnd, Err: ErrEndBeforeStart}
		}
		return start, &end, nil

	case r.End != nil:
		day := now
		end := r.End.On(day)
		for rolled := 0; end.Before(start); rolled++ {
			if rolled == MaxRollDays {
				return time.Time{}, nil, &ParseError{Reason: fmt.Sprintf(
					"end time %s does not fall within %d days after %s to follow start %s",
					r.End, MaxRollDays, now.Format("2006-01-02"), start.Format("2006-01-02 15:04"),
				)}
			}
			day = day.AddDate(0, 0, 1)
			end = r.End.On(day)
		}
		return start, &end, nil
	}

	// No end information: the fact is ongoing.
	return start, nil, nil
}
