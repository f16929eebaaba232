package db

// functions.go registers the ICONTAINS function used by the search queries, as
// set out in the package docs for modernc.org/sqlite.RegisterFunction.
//
// sqlite's own LIKE only folds ASCII case, so "Éte" would not find "éte".

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"sync"

	"modernc.org/sqlite"
)

var registerOnce sync.Once

// icontains reports whether substr is within s, ignoring case. An empty substr
// is always contained.
func icontains(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// textArg converts an sqlite argument to a string. A NULL argument is reported
// with ok false.
func textArg(v driver.Value) (s string, ok bool, err error) {
	switch a := v.(type) {
	case nil:
		return "", false, nil
	case string:
		return a, true, nil
	case []byte:
		return string(a), true, nil
	default:
		return "", false, fmt.Errorf("expected text argument, got %T", v)
	}
}

// RegisterFunctions registers the custom Go functions with the sqlite driver for
// all connections.
func RegisterFunctions() {
	registerOnce.Do(func() {
		sqlite.MustRegisterDeterministicScalarFunction(
			"ICONTAINS",
			2,
			func(ctx *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
				s, ok, err := textArg(args[0])
				if err != nil {
					return nil, fmt.Errorf("ICONTAINS argv[0]: %w", err)
				}
				if !ok {
					return false, nil
				}
				substr, ok, err := textArg(args[1])
				if err != nil {
					return nil, fmt.Errorf("ICONTAINS argv[1]: %w", err)
				}
				if !ok {
					return false, nil
				}
				return icontains(s, substr), nil
			},
		)
	})
}
