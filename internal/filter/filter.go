// Package filter decides which keys and relative paths take part in a transfer phase.
package filter

import "strings"

// SourceExtension is excluded by the combined sync so the tool's own sources are never shipped.
const SourceExtension = ".py"

// Criteria selects identifiers by extension. The zero value matches everything.
type Criteria struct {
	// Extension, when set, requires the identifier to end with it.
	Extension string
	// ExcludeExtension, when set, rejects identifiers that end with it.
	ExcludeExtension string
}

// All matches every identifier
func All() Criteria {
	return Criteria{}
}

// Extension matches identifiers ending in ext. A blank ext matches everything.
func Extension(ext string) Criteria {
	return Criteria{Extension: normalize(ext)}
}

// ExcludeExtension matches identifiers not ending in ext
func ExcludeExtension(ext string) Criteria {
	return Criteria{ExcludeExtension: normalize(ext)}
}

// SkipSourceFiles excludes SourceExtension
func SkipSourceFiles() Criteria {
	return ExcludeExtension(SourceExtension)
}

// Matches reports whether identifier satisfies c
func Matches(identifier string, c Criteria) bool {
	if inc := normalize(c.Extension); inc != "" && !strings.HasSuffix(identifier, inc) {
		return false
	}
	if exc := normalize(c.ExcludeExtension); exc != "" && strings.HasSuffix(identifier, exc) {
		return false
	}
	return true
}

// Matches is shorthand for Matches(identifier, c)
func (c Criteria) Matches(identifier string) bool {
	return Matches(identifier, c)
}

// IsAll reports whether c matches everything
func (c Criteria) IsAll() bool {
	return normalize(c.Extension) == "" && normalize(c.ExcludeExtension) == ""
}

func (c Criteria) String() string {
	inc, exc := normalize(c.Extension), normalize(c.ExcludeExtension)
	switch {
	case inc == "" && exc == "":
		return "*"
	case exc == "":
		return "*" + inc
	case inc == "":
		return "!*" + exc
	default:
		return "*" + inc + " !*" + exc
	}
}

// normalize trims whitespace and ensures a leading dot
func normalize(ext string) string {
	ext = strings.TrimSpace(ext)
	if ext == "" || strings.HasPrefix(ext, ".") {
		return ext
	}
	return "." + ext
}
