package rawfact

import (
	"errors"
	"fmt"
)

// ErrEndBeforeStart reports an explicit end time earlier than the start.
var ErrEndBeforeStart = errors.New("end is before start")

// ParseError reports a raw fact from which no fact can be built: an empty
// string, a missing activity name, a malformed time range token or a start or
// end time which cannot be resolved.
type ParseError struct {
	Input  string
	Reason string
}

// Error fulfills the Error interface requirement for ParseError.
func (e *ParseError) Error() string {
	if e.Input == "" {
		return fmt.Sprintf("cannot parse fact: %s", e.Reason)
	}
	return fmt.Sprintf("cannot parse fact %q: %s", e.Input, e.Reason)
}

// ValidationError reports an explicit start or end value which is not a usable
// absolute datetime.
type ValidationError struct {
	Field string // "start" or "end"
	Value string
	Err   error
}

// Error fulfills the Error interface requirement for ValidationError.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s time %q: %v", e.Field, e.Value, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}
