package format

import (
	"strings"
)

// Validate reports whether text parses under the grammar of format.
//
// Blank text is an error ([ErrEmpty]) for the [Source] role but valid for
// the [Target] role, an empty target pane simply has nothing to check yet.
//
// Parse failures are returned as a [*ParseError].
func Validate(text string, format Format, role Role) error {
	if IsBlank(text) {
		if role == Source {
			return ErrEmpty
		}

		return nil
	}

	return Check(text, format)
}

// IsBlank reports whether text is empty or only whitespace.
func IsBlank(text string) bool {
	return strings.TrimSpace(text) == ""
}
