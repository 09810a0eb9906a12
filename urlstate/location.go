package urlstate

import (
	"net/url"
	"strings"

	"github.com/wippyai/digest-playground/errors"
)

// Location is the host's visible address. Replace swaps the query string in
// place: there is no history and nothing navigates.
//
// Location is not safe for concurrent use; the orchestrator owns it.
type Location struct {
	base *url.URL
}

// ParseLocation parses a full URL ("http://host/path?query=...") or a bare
// query string ("?query=..."). A bare query string gets an empty base, so
// String returns just "?…".
func ParseLocation(raw string) (*Location, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.HasPrefix(raw, "?") {
		return &Location{base: &url.URL{RawQuery: strings.TrimPrefix(raw, "?")}}, nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, errors.New(errors.PhaseConfig, errors.KindInvalidInput).
			Detail("invalid location %q", raw).
			Cause(err).
			Build()
	}
	u.Fragment = ""
	return &Location{base: u}, nil
}

// Query returns the current query string without the leading '?'.
func (l *Location) Query() string {
	return l.base.RawQuery
}

// Replace sets the query string, replacing the previous one.
func (l *Location) Replace(query string) {
	l.base.RawQuery = strings.TrimPrefix(query, "?")
}

// WithBase returns a copy of l whose scheme, host and path come from base
// and whose query is kept.
func (l *Location) WithBase(base *url.URL) *Location {
	u := *base
	u.RawQuery = l.base.RawQuery
	u.Fragment = ""
	return &Location{base: &u}
}

// Relative reports whether l has no scheme or host, as for a bare query
// string.
func (l *Location) Relative() bool {
	return l.base.Scheme == "" && l.base.Host == ""
}

// String returns the full shareable link.
func (l *Location) String() string {
	u := *l.base
	if u.Scheme == "" && u.Host == "" && u.Path == "" {
		if u.RawQuery == "" {
			return ""
		}
		return "?" + u.RawQuery
	}
	return u.String()
}
