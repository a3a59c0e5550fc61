package format

import (
	"bytes"
	"errors"
	"io"
	"slices"
	"strings"
	"unicode/utf8"

	"go.yaml.in/yaml/v4"
)

var errMultipleDocuments = errors.New("expected a single document in the stream, but found more")

// parseYAML parses text as a single YAML document, returning a [*ParseError] on failure.
//
// An empty stream (including one that contains only comments) is a valid, empty
// document node.
func parseYAML(text string) (*yaml.Node, error) {
	decoder := yaml.NewDecoder(strings.NewReader(text))

	var doc yaml.Node
	if err := decoder.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return &yaml.Node{Kind: yaml.DocumentNode}, nil
		}

		return nil, &ParseError{Format: YAML, Err: err}
	}

	var next yaml.Node
	if err := decoder.Decode(&next); !errors.Is(err, io.EOF) {
		if err == nil {
			err = errMultipleDocuments
		}

		return nil, &ParseError{Format: YAML, Err: err}
	}

	// Decoding into a node is structural only, things like duplicate mapping keys
	// or malformed tagged scalars are only caught when building values
	var value any
	if err := doc.Decode(&value); err != nil {
		return nil, &ParseError{Format: YAML, Err: err}
	}

	return &doc, nil
}

// documentRoot returns the top level value of a parsed document, or nil if the document
// is empty or explicitly null.
func documentRoot(doc *yaml.Node) *yaml.Node {
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil
	}

	root := resolveAlias(doc.Content[0])
	if root.Kind == yaml.ScalarNode && root.ShortTag() == "!!null" {
		return nil
	}

	return root
}

// encodeYAML serialises a node tree as block style YAML.
//
// String values that would run past [LineWidth] are folded onto continuation lines
// where they contain spaces to break at. Trailing whitespace is trimmed and a single
// newline appended, unless the output would otherwise be empty.
func encodeYAML(node *yaml.Node) (string, error) {
	out, err := emitYAML(node)
	if err != nil {
		return "", err
	}

	out, err = foldYAML(node, out)
	if err != nil {
		return "", err
	}

	out = strings.TrimRight(out, " \t\r\n")
	if out == "" {
		return "", nil
	}

	return out + "\n", nil
}

func emitYAML(node *yaml.Node) (string, error) {
	buf := &bytes.Buffer{}

	encoder := yaml.NewEncoder(buf)
	encoder.SetIndent(Indent)

	if err := encoder.Encode(node); err != nil {
		return "", err
	}

	if err := encoder.Close(); err != nil {
		return "", err
	}

	return buf.String(), nil
}

// foldYAML wraps the long string values in out, the emitted form of node.
//
// The emitter has no line width of its own so this happens in two passes. Values
// on overlong lines are restyled as folded block scalars (or double quoted where
// a block scalar can't hold them) and emitted again, then the single line each
// one was written on is broken at spaces. Both styles turn a line break back into
// the one space it replaced.
func foldYAML(node *yaml.Node, out string) (string, error) {
	lines := strings.Split(out, "\n")
	if !slices.ContainsFunc(lines, func(line string) bool { return width(line) > LineWidth }) {
		return out, nil
	}

	doc, err := parseYAML(out)
	if err != nil {
		return "", err
	}

	restyled := false
	eachValue(node, documentRoot(doc), func(written, parsed *yaml.Node, _ int) {
		if !foldable(written) || width(lines[parsed.Line-1]) <= LineWidth {
			return
		}

		written.Style = yaml.DoubleQuotedStyle
		if blockFoldable(written.Value) {
			written.Style = yaml.FoldedStyle
		}

		restyled = true
	})

	if !restyled {
		return out, nil
	}

	out, err = emitYAML(node)
	if err != nil {
		return "", err
	}

	lines = strings.Split(out, "\n")

	doc, err = parseYAML(out)
	if err != nil {
		return "", err
	}

	folded := make(map[int][]string)
	eachValue(node, documentRoot(doc), func(written, parsed *yaml.Node, column int) {
		if written.Style == 0 {
			return
		}

		switch {
		case parsed.Style&yaml.FoldedStyle != 0:
			// The header is on the scalar's own line, the text on the one after
			index := parsed.Line
			indent := leadingSpaces(lines[index])
			folded[index] = foldLine(lines[index], len(indent), 0, indent)
		case parsed.Style&yaml.DoubleQuotedStyle != 0:
			// Continuation lines sit deeper than the collection holding the value
			index := parsed.Line - 1
			line := lines[index]
			indent := strings.Repeat(" ", column+Indent)
			folded[index] = foldLine(line, byteOffset(line, parsed.Column-1), 1, indent)
		}
	})

	var result []string
	for i, line := range lines {
		if pieces, ok := folded[i]; ok {
			result = append(result, pieces...)
			continue
		}

		result = append(result, line)
	}

	return strings.Join(result, "\n"), nil
}

// eachValue walks written and its emitted then re-parsed twin parsed together,
// calling fn with every scalar that is a mapping value or a sequence item along
// with the column, counted from 0, of the collection it belongs to.
//
// Mapping keys and a top level scalar are never visited.
func eachValue(written, parsed *yaml.Node, fn func(written, parsed *yaml.Node, column int)) {
	if written == nil || parsed == nil || written.Kind != parsed.Kind || len(written.Content) != len(parsed.Content) {
		return
	}

	column := max(parsed.Column-1, 0)

	visit := func(written, parsed *yaml.Node) {
		if written.Kind == yaml.ScalarNode && parsed.Kind == yaml.ScalarNode {
			fn(written, parsed, column)
			return
		}

		eachValue(written, parsed, fn)
	}

	switch written.Kind {
	case yaml.MappingNode:
		for i := 1; i < len(written.Content); i += 2 {
			visit(written.Content[i], parsed.Content[i])
		}
	case yaml.SequenceNode:
		for i := range written.Content {
			visit(written.Content[i], parsed.Content[i])
		}
	}
}

// foldable reports whether node is a single line string with somewhere to break it.
func foldable(node *yaml.Node) bool {
	if node.ShortTag() != "!!str" || strings.ContainsAny(node.Value, "\r\n\u0085\u2028\u2029") {
		return false
	}

	for i := 1; i < len(node.Value)-1; i++ {
		if canBreak(node.Value, i) {
			return true
		}
	}

	return false
}

// blockFoldable reports whether value can be written as a folded block scalar.
func blockFoldable(value string) bool {
	return value != "" && strings.Trim(value, " \t") == value && !strings.Contains(value, "\t")
}

// foldLine breaks line at spaces after byte offset start so that no piece is wider
// than [LineWidth], unless a single word already is. The last tail bytes of line
// (a closing quote) are never broken before and continuation pieces begin with indent.
func foldLine(line string, start, tail int, indent string) []string {
	var pieces []string

	for width(line) > LineWidth {
		cut := -1

		for i := start + 2; i < len(line)-1-tail; i++ {
			if !canBreak(line, i) {
				continue
			}

			if width(line[:i]) > LineWidth {
				if cut == -1 {
					cut = i
				}

				break
			}

			cut = i
		}

		if cut == -1 {
			break
		}

		next := indent + line[cut+1:]
		if len(next) >= len(line) {
			break
		}

		pieces = append(pieces, line[:cut])
		line = next
		start = len(indent)
	}

	return append(pieces, line)
}

// canBreak reports whether the space at s[i] can become a line break, it must be
// a lone space between two printing characters and not follow an escape.
func canBreak(s string, i int) bool {
	if s[i] != ' ' || i == 0 || i == len(s)-1 {
		return false
	}

	switch s[i-1] {
	case ' ', '\t', '\\':
		return false
	}

	switch s[i+1] {
	case ' ', '\t':
		return false
	}

	return true
}

func width(line string) int {
	return utf8.RuneCountInString(line)
}

func leadingSpaces(line string) string {
	return line[:len(line)-len(strings.TrimLeft(line, " "))]
}

// byteOffset returns the byte offset in line of the rune at column, counted from 0.
func byteOffset(line string, column int) int {
	for offset := range line {
		if column == 0 {
			return offset
		}

		column--
	}

	return len(line)
}
