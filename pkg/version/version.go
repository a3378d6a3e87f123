// Package version identifies the parsed record column set and embeds the
// manifest describing each released set.
package version

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Current is the parsed_messages column set written by this module. Minor
// releases only add nullable columns; a major release renames or retypes
// existing ones.
const Current = "1.0"

// ErrUnsupportedSchema is returned for record schemas this build cannot read.
var ErrUnsupportedSchema = errors.New("unsupported record schema")

// SchemaVersion is a parsed "major.minor" record schema version.
type SchemaVersion struct {
	Major uint16
	Minor uint16
}

// Parse parses a "major.minor" version string.
func Parse(s string) (SchemaVersion, error) {
	maj, min, ok := strings.Cut(s, ".")
	if !ok {
		return SchemaVersion{}, fmt.Errorf("invalid schema version %q: expected major.minor", s)
	}
	major, err := component(maj)
	if err != nil {
		return SchemaVersion{}, fmt.Errorf("invalid schema version %q: major: %w", s, err)
	}
	minor, err := component(min)
	if err != nil {
		return SchemaVersion{}, fmt.Errorf("invalid schema version %q: minor: %w", s, err)
	}
	return SchemaVersion{Major: major, Minor: minor}, nil
}

func component(s string) (uint16, error) {
	if s == "" || s[0] == '+' {
		return 0, strconv.ErrSyntax
	}
	n, err := strconv.ParseUint(s, 10, 16)
	return uint16(n), err
}

func (v SchemaVersion) String() string {
	return strconv.Itoa(int(v.Major)) + "." + strconv.Itoa(int(v.Minor))
}

// ReadableBy reports whether records written under v decode without loss
// in a build at schema cur. Records from an older minor only lack the
// columns added since; records from a newer minor carry columns cur would
// drop.
func (v SchemaVersion) ReadableBy(cur SchemaVersion) bool {
	return v.Major == cur.Major && v.Minor <= cur.Minor
}

// CheckCompatible returns an error wrapping ErrUnsupportedSchema unless
// records written under s are readable by Current.
func CheckCompatible(s string) error {
	v, err := Parse(s)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnsupportedSchema, err)
	}
	cur, _ := Parse(Current)
	switch {
	case v.Major != cur.Major:
		return fmt.Errorf("%w: %s uses a different column layout than %s", ErrUnsupportedSchema, v, cur)
	case v.Minor > cur.Minor:
		return fmt.Errorf("%w: %s is newer than %s", ErrUnsupportedSchema, v, cur)
	}
	return nil
}
