// Package urlstate maps a FormState to and from the query string of a
// shareable URL.
//
// The projection is minimal: the version is omitted when it is the default
// and the statement is omitted when it is blank. Decoding is additive and
// never fails; unknown or invalid parameters leave the form untouched.
package urlstate

import (
	"net/url"
	"strings"

	dp "github.com/wippyai/digest-playground"
)

// Query parameter names.
const (
	ParamQuery   = "query"
	ParamVersion = "version"
)

// Decode applies the parameters found in query to form and returns the
// result. A leading '?' is accepted. Pairs that cannot be parsed are skipped.
func Decode(query string, form dp.FormState) dp.FormState {
	// ParseQuery keeps every well-formed pair even when it reports an error.
	params, _ := url.ParseQuery(strings.TrimPrefix(query, "?"))

	if vals, ok := params[ParamQuery]; ok && len(vals) > 0 {
		form.SQL = vals[0]
	}
	if vals, ok := params[ParamVersion]; ok && len(vals) > 0 {
		if v, valid := dp.ParseVersion(vals[0]); valid {
			form.Version = v
		}
	}
	if !form.Version.Valid() {
		form.Version = dp.DefaultVersion
	}
	return form
}

// Encode returns the canonical query string for form, without a leading '?'.
// Keys appear in the order query, version.
func Encode(form dp.FormState) string {
	params := url.Values{}
	if sql := form.Trimmed(); sql != "" {
		params.Set(ParamQuery, sql)
	}
	if form.Version.Valid() && form.Version != dp.DefaultVersion {
		params.Set(ParamVersion, form.Version.String())
	}
	return params.Encode()
}
