package format

import (
	"fmt"
	"strings"
)

// Conversion is the result of a successful [Convert].
type Conversion struct {
	Text   string // The converted document
	Format Format // The format of Text, always the opposite of the source format
}

// Convert converts text of format from into the opposite format.
//
// JSON becomes block style YAML with no anchors or aliases, ending in exactly one
// newline. YAML becomes JSON indented by [Indent] spaces, an empty or null YAML
// document converts to an empty JSON object.
//
// Callers are expected to have validated text already, but any parse or serialisation
// failure is returned as an error rather than a partial result.
func Convert(text string, from Format) (Conversion, error) {
	switch from {
	case JSON:
		node, err := decodeJSON(text)
		if err != nil {
			return Conversion{}, err
		}

		out, err := encodeYAML(node)
		if err != nil {
			return Conversion{}, fmt.Errorf("could not encode YAML: %w", err)
		}

		return Conversion{Text: out, Format: YAML}, nil
	case YAML:
		doc, err := parseYAML(text)
		if err != nil {
			return Conversion{}, err
		}

		root := documentRoot(doc)
		if root == nil {
			return Conversion{Text: "{}", Format: JSON}, nil
		}

		out, err := encodeJSON(root)
		if err != nil {
			return Conversion{}, fmt.Errorf("could not encode JSON: %w", err)
		}

		return Conversion{Text: out, Format: JSON}, nil
	default:
		return Conversion{}, ErrUnknownFormat
	}
}

// Check reports whether text parses under the grammar of format, with no special
// treatment of blank text.
func Check(text string, format Format) error {
	switch format {
	case JSON:
		return parseJSON(text)
	case YAML:
		_, err := parseYAML(text)
		return err
	default:
		return ErrUnknownFormat
	}
}

// Normalise prepares freshly loaded text for editing and returns the text to show
// along with any parse error.
//
// The text is always usable even when the error is not nil:
//
//   - JSON that parses is re-indented, JSON that doesn't is returned untouched
//   - YAML gets a trailing newline if it was missing one, whether it parses or not
func Normalise(text string, format Format) (string, error) {
	switch format {
	case JSON:
		node, err := decodeJSON(text)
		if err != nil {
			return text, err
		}

		out, err := encodeJSON(node)
		if err != nil {
			return text, err
		}

		return out, nil
	case YAML:
		if !strings.HasSuffix(text, "\n") {
			text += "\n"
		}

		return text, Check(text, YAML)
	default:
		return text, ErrUnknownFormat
	}
}
