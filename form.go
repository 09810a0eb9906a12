package digestplayground

import (
	"strconv"
	"strings"
)

// Version selects the rule-set the engine applies when computing a digest.
type Version int

const (
	VersionMySQL80 Version = iota
	VersionMySQL84
	VersionMySQL57
	Version3
)

// DefaultVersion is used when the version is absent or invalid. It is never
// written back into a shareable URL.
const DefaultVersion = VersionMySQL57

// Versions lists every valid version in selector order.
var Versions = []Version{VersionMySQL80, VersionMySQL84, VersionMySQL57, Version3}

// ParseVersion accepts only the literal strings "0" through "3".
func ParseVersion(s string) (Version, bool) {
	switch s {
	case "0", "1", "2", "3":
		return Version(s[0] - '0'), true
	}
	return DefaultVersion, false
}

// Valid reports whether v is one of the four known versions.
func (v Version) Valid() bool {
	return v >= VersionMySQL80 && v <= Version3
}

// String returns the URL form of the version.
func (v Version) String() string {
	return strconv.Itoa(int(v))
}

// Label returns a human readable name for selector widgets.
func (v Version) Label() string {
	switch v {
	case VersionMySQL80:
		return "MySQL 8.0"
	case VersionMySQL84:
		return "MySQL 8.4"
	case VersionMySQL57:
		return "MySQL 5.7"
	case Version3:
		return "version 3"
	default:
		return "version " + v.String()
	}
}

// Next returns the version after v, wrapping around.
func (v Version) Next() Version {
	if !v.Valid() {
		return DefaultVersion
	}
	return (v + 1) % Version(len(Versions))
}

// Prev returns the version before v, wrapping around.
func (v Version) Prev() Version {
	if !v.Valid() {
		return DefaultVersion
	}
	return (v + Version(len(Versions)) - 1) % Version(len(Versions))
}

// FormState is the user-editable input: the statement text and the version.
type FormState struct {
	SQL     string
	Version Version
}

// NewFormState returns an empty form with the default version.
func NewFormState() FormState {
	return FormState{Version: DefaultVersion}
}

// Trimmed returns the statement with surrounding whitespace removed.
func (f FormState) Trimmed() string {
	return strings.TrimSpace(f.SQL)
}

// Blank reports whether the statement is empty after trimming.
func (f FormState) Blank() bool {
	return f.Trimmed() == ""
}
