// Package format implements detection, validation and conversion of the two document
// formats jyed understands: JSON and YAML.
//
// Everything in this package is a pure function of its inputs, the parsing and
// serialisation itself is delegated to [github.com/goccy/go-json] and [go.yaml.in/yaml/v4].
package format

import (
	"errors"
	"fmt"
	"strings"
)

// Output layout.
const (
	// Indent is the number of spaces used for each level of nesting in both
	// JSON and YAML output.
	Indent = 2

	// LineWidth is the column past which long string values in YAML output are
	// folded onto continuation lines.
	LineWidth = 80
)

// ErrEmpty is returned when validating a source document that contains nothing
// but whitespace.
var ErrEmpty = errors.New("No content to validate.") //nolint:staticcheck // Shown to users verbatim

// ErrUnknownFormat is returned when asked to work with a [Format] that is neither
// JSON nor YAML.
var ErrUnknownFormat = errors.New("unknown format, expected one of (json|yaml)")

// Format is a document serialisation grammar.
type Format int

const (
	Unknown Format = iota // Unknown is the zero value, content that could not be detected
	JSON                  // JSON documents
	YAML                  // YAML documents, single document streams only
)

// Lookup returns the [Format] named by name, which may be any of "json", "yaml" or "yml"
// ignoring case and an optional leading dot.
func Lookup(name string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(name, ".")) {
	case "json":
		return JSON, nil
	case "yaml", "yml":
		return YAML, nil
	default:
		return Unknown, fmt.Errorf("%w: got %q", ErrUnknownFormat, name)
	}
}

// String implements [fmt.Stringer] for a [Format].
func (f Format) String() string {
	switch f {
	case JSON:
		return "json"
	case YAML:
		return "yaml"
	default:
		return "unknown"
	}
}

// Title returns the name of the format as it is shown above an editor pane.
func (f Format) Title() string {
	return strings.ToUpper(f.String())
}

// Opposite returns the format a document of format f converts into.
//
// The opposite of [Unknown] is [Unknown].
func (f Format) Opposite() Format {
	switch f {
	case JSON:
		return YAML
	case YAML:
		return JSON
	default:
		return Unknown
	}
}

// Extension returns the canonical file extension for the format, including
// the leading dot.
func (f Format) Extension() string {
	switch f {
	case JSON:
		return ".json"
	case YAML:
		return ".yaml"
	default:
		return ""
	}
}

// DownloadName is the name of the file offered for download when a document
// of this format is saved.
func (f Format) DownloadName() string {
	return "document" + f.Extension()
}

// MarshalText implements [encoding.TextMarshaler] for a [Format].
func (f Format) MarshalText() ([]byte, error) {
	if f == Unknown {
		return nil, ErrUnknownFormat
	}

	return []byte(f.String()), nil
}

// UnmarshalText implements [encoding.TextUnmarshaler] for a [Format].
func (f *Format) UnmarshalText(text []byte) error {
	format, err := Lookup(string(text))
	if err != nil {
		return err
	}

	*f = format

	return nil
}

// Role distinguishes the two editor panes, which treat empty content differently.
type Role int

const (
	Source Role = iota // Source is the pane the user writes in, empty content is an error
	Target             // Target is the pane conversions are written to, empty content is fine
)

// String implements [fmt.Stringer] for a [Role].
func (r Role) String() string {
	if r == Target {
		return "target"
	}

	return "source"
}

// ParseError is the error returned when text does not conform to the grammar
// of its claimed format.
//
// Its message is exactly the diagnostic produced by the underlying parser.
type ParseError struct {
	Err    error  // The parser's error
	Format Format // The format the text was parsed as
}

// Error implements the error interface for a [ParseError].
func (p *ParseError) Error() string {
	if p.Err == nil {
		return "parse error"
	}

	return p.Err.Error()
}

// Unwrap returns the wrapped parser error.
func (p *ParseError) Unwrap() error {
	return p.Err
}
