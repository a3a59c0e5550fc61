package format

import (
	"path/filepath"
)

// Detect works out the format of a file given its name and content.
//
// A .json, .yaml or .yml extension is decisive and the content is not looked at.
// Otherwise the content is sniffed, first as JSON then as YAML, JSON is tried first
// because almost any JSON document is also valid YAML. If neither parses,
// [Unknown] is returned.
func Detect(filename, content string) Format {
	if format, err := Lookup(filepath.Ext(filename)); err == nil {
		return format
	}

	if parseJSON(content) == nil {
		return JSON
	}

	if _, err := parseYAML(content); err == nil {
		return YAML
	}

	return Unknown
}
