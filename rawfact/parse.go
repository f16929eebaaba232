// Package rawfact turns the one-line fact notation used on the command line,
// such as
//
//	10:00-18:00 coding@work #go, fixing the parser
//
// into a fact draft with absolute start and end times.
//
// The grammar is
//
//	[<time-range>] <activity>[@<category>][ #tag ...][, <description>]
//
// where the optional time range is either a start clock time "HH:MM" or a
// start and end pair "HH:MM-HH:MM". Clock times carry no date; they are placed
// on a calendar day by [Resolve], which takes the reference instant as an
// argument rather than reading the system clock.
package rawfact

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
)

var (
	// regexpClockRange matches "HH:MM" and "HH:MM-HH:MM" with one or two hour
	// digits. Range checking happens in parseClock.
	regexpClockRange = regexp.MustCompile(`^(\d{1,2}):(\d{2})(?:-(\d{1,2}):(\d{2}))?$`)

	// regexpTimeLike matches tokens which are meant as a time range, so that a
	// mistyped range like "10:0-18" is reported rather than taken as an
	// activity name.
	regexpTimeLike = regexp.MustCompile(`^[0-9\-]*:[0-9:\-]*$`)
)

// Clock is a time of day at minute resolution.
type Clock struct {
	Hour   int
	Minute int
}

// String provides a printable representation.
func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// On places the clock time on the calendar day of t, in t's location.
func (c Clock) On(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, c.Hour, c.Minute, 0, 0, t.Location())
}

// Range is the optional time range leading a raw fact. A nil Start means no
// range was given; a nil End means only a start clock time was given.
type Range struct {
	Start *Clock
	End   *Clock
}

// Parsed is the structured content of a raw fact before its times are resolved.
type Parsed struct {
	Activity    string
	Category    *string // nil when the fact has no "@category" segment
	Description string
	Tags        []string
	Range       Range
}

// Parse parses a raw fact string. It fails with a *ParseError when the string
// is empty, names no activity or leads with a malformed time range.
func Parse(raw string) (Parsed, error) {
	var p Parsed

	text := strings.TrimSpace(raw)
	if text == "" {
		return p, &ParseError{Input: raw, Reason: "fact is empty"}
	}

	// Split off a leading time range token.
	token, rest := text, ""
	if i := strings.IndexFunc(text, unicode.IsSpace); i >= 0 {
		token, rest = text[:i], strings.TrimLeftFunc(text[i:], unicode.IsSpace)
	}
	if regexpTimeLike.MatchString(token) {
		r, err := parseRange(token)
		if err != nil {
			return p, &ParseError{Input: raw, Reason: err.Error()}
		}
		p.Range = r
		text = strings.TrimSpace(rest)
	}

	// activity[@category][, description], the description taking everything
	// after the first comma.
	head, description, _ := strings.Cut(text, ",")
	activity, category, hasCategory := strings.Cut(head, "@")
	if hasCategory {
		head = category
	} else {
		head = activity
	}

	// Tags follow the activity, or the category when there is one.
	head, p.Tags = splitTags(head)
	if hasCategory {
		category = head
	} else {
		activity = head
	}

	p.Activity = strings.TrimSpace(activity)
	if p.Activity == "" {
		return p, &ParseError{Input: raw, Reason: "no activity name"}
	}
	if c := strings.TrimSpace(category); hasCategory && c != "" {
		p.Category = &c
	}
	p.Description = strings.TrimSpace(description)
	return p, nil
}

// parseRange parses "HH:MM" or "HH:MM-HH:MM". An end earlier than the start
// is a range crossing midnight and is left to Resolve.
func parseRange(token string) (Range, error) {
	m := regexpClockRange.FindStringSubmatch(token)
	if m == nil {
		return Range{}, fmt.Errorf("malformed time range %q, expected HH:MM or HH:MM-HH:MM", token)
	}
	start, err := parseClock(m[1], m[2])
	if err != nil {
		return Range{}, err
	}
	r := Range{Start: &start}
	if m[3] != "" {
		end, err := parseClock(m[3], m[4])
		if err != nil {
			return Range{}, err
		}
		r.End = &end
	}
	return r, nil
}

// parseClock converts hour and minute digits, limiting them to 00:00-23:59.
func parseClock(hour, minute string) (Clock, error) {
	h, err := strconv.Atoi(hour)
	if err != nil {
		return Clock{}, fmt.Errorf("invalid hour %q: %w", hour, err)
	}
	m, err := strconv.Atoi(minute)
	if err != nil {
		return Clock{}, fmt.Errorf("invalid minute %q: %w", minute, err)
	}
	if h > 23 || m > 59 {
		return Clock{}, fmt.Errorf("time %s:%s is outside 00:00-23:59", hour, minute)
	}
	return Clock{Hour: h, Minute: m}, nil
}

// splitTags removes "#tag" words from s, returning the remaining text and the
// tag names in order of appearance.
func splitTags(s string) (string, []string) {
	if !strings.Contains(s, "#") {
		return s, nil
	}
	var words, tags []string
	for _, w := range strings.Fields(s) {
		if len(w) > 1 && w[0] == '#' {
			tags = append(tags, w[1:])
			continue
		}
		words = append(words, w)
	}
	return strings.Join(words, " "), tags
}
