package rawfact

import (
	"errors"
	"time"
)

// Draft is a fact ready to be handed to the store. End is nil for an ongoing
// fact.
type Draft struct {
	Activity    string
	Category    *string
	Description string
	Tags        []string
	Start       time.Time
	End         *time.Time
}

// Ongoing reports whether the draft has no end.
func (d Draft) Ongoing() bool {
	return d.End == nil
}

// NewDraft parses raw and resolves its times against now, with explicitStart
// and explicitEnd overriding any time range in raw when they are not empty.
func NewDraft(raw, explicitStart, explicitEnd string, now time.Time) (Draft, error) {
	p, err := Parse(raw)
	if err != nil {
		return Draft{}, err
	}
	start, end, err := Resolve(p.Range, explicitStart, explicitEnd, now)
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) && pe.Input == "" {
			pe.Input = raw
		}
		return Draft{}, err
	}
	return Draft{
		Activity:    p.Activity,
		Category:    p.Category,
		Description: p.Description,
		Tags:        p.Tags,
		Start:       start,
		End:         end,
	}, nil
}
