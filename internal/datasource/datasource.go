// Package datasource resolves the request endpoint of a DataRequest node from
// its data source category and ticker.
//
// The mapping is a fixed table of URL templates under a configurable base
// URL. The ticker is the only user-controlled part and is escaped for the
// position it is substituted into.
package datasource

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"
)

// DefaultBaseURL is the API root used when no base is configured.
const DefaultBaseURL = "http://localhost:8000/api"

// ErrUnknownCategory is returned for a category outside the table.
var ErrUnknownCategory = errors.New("unknown data source category")

// Supported categories.
const (
	CategoryStock   = "stock"
	CategorySummary = "summary"
	CategorySearch  = "search"
	CategoryFilings = "filings"
)

type route struct {
	// format has a single %s for the escaped ticker.
	format string
	escape func(string) string
}

var routes = map[string]route{
	CategoryStock:   {format: "/quote/%s", escape: url.PathEscape},
	CategorySummary: {format: "/summary/%s", escape: url.PathEscape},
	CategorySearch:  {format: "/search?ticker=%s", escape: url.QueryEscape},
	CategoryFilings: {format: "/filings/%s", escape: url.PathEscape},
}

// Categories returns the supported categories, sorted.
func Categories() []string {
	out := make([]string, 0, len(routes))
	for c := range routes {
		out = append(out, c)
	}
	slices.Sort(out)
	return out
}

// Known reports whether category is in the table. The empty category is
// known: it means "no data source selected".
func Known(category string) bool {
	if category == "" {
		return true
	}
	_, ok := routes[category]
	return ok
}

// Resolver derives endpoints under a base URL.
type Resolver struct {
	base string
}

// NewResolver returns a Resolver rooted at base. An empty base selects
// DefaultBaseURL.
func NewResolver(base string) (*Resolver, error) {
	if base == "" {
		base = DefaultBaseURL
	}
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("invalid data source base url '%s': %w", base, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid data source base url '%s': scheme must be http or https", base)
	}
	return &Resolver{base: strings.TrimRight(base, "/")}, nil
}

// Base returns the base URL without a trailing slash.
func (r *Resolver) Base() string {
	return r.base
}

// Endpoint returns the URL for category and ticker. An empty category yields
// an empty endpoint. An unknown category yields ErrUnknownCategory.
func (r *Resolver) Endpoint(category, ticker string) (string, error) {
	if category == "" {
		return "", nil
	}
	rt, ok := routes[category]
	if !ok {
		return "", fmt.Errorf("%w: '%s'", ErrUnknownCategory, category)
	}
	return r.base + fmt.Sprintf(rt.format, rt.escape(ticker)), nil
}
