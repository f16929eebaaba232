package db

import (
	"errors"
	"fmt"
	"io/fs"
	"regexp"
	"strings"
)

// ParameterizedQuery is an sql file with its `/* @param */` literals replaced by
// sqlx named parameters, together with the parameter names in file order.
type ParameterizedQuery struct {
	Body       []byte
	Parameters []string
}

// String provides a printable representation.
func (p ParameterizedQuery) String() string {
	return fmt.Sprintf(
		"\nParams: %s\nBody:   %s\n",
		strings.Join(p.Parameters, ", "),
		string(p.Body),
	)
}

// regexpParam matches declarations such as
//
//	,'2015-12-12 13:00:00' AS StartTime    /* @param */
//
// capturing the literal value and the `StartTime` name so that the literal can
// be replaced by the named parameter `:StartTime`. Note that whitespace is
// required before `AS` and before the marker.
var (
	paramLiterals = []string{
		`(?:[a-zA-Z_]\w*\([^\)]*\))`, // datetime('now')
		`(?:'[^']*')`,                // 'text' or ''
		`(?:-?\d*\.?\d+)`,            // 1, -5 or 0.5
		`(?:null)`,                   // null
	}

	regexpParam = regexp.MustCompile(fmt.Sprintf(
		`(?P<value>%s)(?P<as>\s+AS\s+)(?P<param>[A-Za-z0-9_]+)(?P<end>\s+/\* @param \*/)`,
		strings.Join(paramLiterals, "|"),
	))
)

// ErrNoParameters is returned for a query without `/* @param */` declarations.
var ErrNoParameters = errors.New("no parameters found")

// parameterize rewrites each `/* @param */` declaration in query to use a named
// parameter, so that
//
//	,null AS EndTime    /* @param */
//
// becomes
//
//	,:EndTime AS EndTime
//
// A parameter declared more than once is an error as sqlx would bind the same
// value to each occurrence.
func parameterize(query []byte) (*ParameterizedQuery, error) {

	matches := regexpParam.FindAllSubmatch(query, -1)
	if len(matches) == 0 {
		return nil, fmt.Errorf("parameterize: %w", ErrNoParameters)
	}

	paramIdx := regexpParam.SubexpIndex("param")
	seen := map[string]bool{}
	pq := &ParameterizedQuery{}
	for _, m := range matches {
		name := string(m[paramIdx])
		if seen[name] {
			return nil, fmt.Errorf("parameterize: parameter %q declared more than once", name)
		}
		seen[name] = true
		pq.Parameters = append(pq.Parameters, name)
	}

	pq.Body = regexpParam.ReplaceAll(query, []byte(`:${param}${as}${param}`))
	return pq, nil
}

// ParameterizeFile reads filePath from fileFS and parameterizes it.
func ParameterizeFile(fileFS fs.FS, filePath string) (*ParameterizedQuery, error) {
	query, err := fs.ReadFile(fileFS, filePath)
	if err != nil {
		return nil, fmt.Errorf("file read error: %w", err)
	}
	pq, err := parameterize(query)
	if err != nil {
		return nil, fmt.Errorf("query %q: %w", filePath, err)
	}
	return pq, nil
}
