package format

import (
	"bytes"
	stdjson "encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"go.yaml.in/yaml/v4"
)

// maxExpandedNodes bounds the number of values written when expanding a YAML
// tree into JSON, aliases are expanded inline so a small document can otherwise
// describe an enormous one.
const maxExpandedNodes = 1_000_000

var errTooLarge = fmt.Errorf("document expands to more than %d values", maxExpandedNodes)

// parseJSON reports whether text is a single valid JSON value, returning
// a [*ParseError] if not.
//
// Numbers too large for a float64 are valid JSON, go-json refuses them on every
// decode path so the grammar alone is checked before giving up.
func parseJSON(text string) error {
	var value any
	if err := json.Unmarshal([]byte(text), &value); err != nil {
		if stdjson.Valid([]byte(text)) {
			return nil
		}

		return &ParseError{Format: JSON, Err: err}
	}

	return nil
}

// decodeJSON parses text into a YAML node tree, preserving the order of object keys.
//
// When an object repeats a key, the last value wins but keeps the position
// of the first occurrence.
func decodeJSON(text string) (*yaml.Node, error) {
	if err := parseJSON(text); err != nil {
		return nil, err
	}

	decoder := json.NewDecoder(strings.NewReader(text))
	decoder.UseNumber()

	token, err := decoder.Token()
	if err != nil {
		return nil, &ParseError{Format: JSON, Err: err}
	}

	node, err := jsonValue(decoder, token)
	if err != nil {
		return nil, &ParseError{Format: JSON, Err: err}
	}

	return node, nil
}

// jsonValue builds the node for the value that starts with token.
func jsonValue(decoder *json.Decoder, token any) (*yaml.Node, error) {
	switch value := token.(type) {
	case json.Delim:
		switch value {
		case '{':
			return jsonObject(decoder)
		case '[':
			return jsonArray(decoder)
		default:
			return nil, fmt.Errorf("unexpected delimiter %q", rune(value))
		}
	case string:
		return scalar("!!str", value), nil
	case json.Number:
		return number(value), nil
	case float64:
		return number(json.Number(strconv.FormatFloat(value, 'g', -1, 64))), nil
	case bool:
		return scalar("!!bool", strconv.FormatBool(value)), nil
	case nil:
		return scalar("!!null", "null"), nil
	default:
		return nil, fmt.Errorf("unexpected JSON token %T", token)
	}
}

func jsonObject(decoder *json.Decoder) (*yaml.Node, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	seen := make(map[string]int)

	for decoder.More() {
		token, err := decoder.Token()
		if err != nil {
			return nil, err
		}

		key, ok := token.(string)
		if !ok {
			return nil, fmt.Errorf("object key must be a string, got %T", token)
		}

		token, err = decoder.Token()
		if err != nil {
			return nil, err
		}

		value, err := jsonValue(decoder, token)
		if err != nil {
			return nil, err
		}

		if index, ok := seen[key]; ok {
			node.Content[index+1] = value
			continue
		}

		seen[key] = len(node.Content)
		node.Content = append(node.Content, scalar("!!str", key), value)
	}

	// Closing '}'
	if _, err := decoder.Token(); err != nil {
		return nil, err
	}

	return node, nil
}

func jsonArray(decoder *json.Decoder) (*yaml.Node, error) {
	node := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}

	for decoder.More() {
		token, err := decoder.Token()
		if err != nil {
			return nil, err
		}

		value, err := jsonValue(decoder, token)
		if err != nil {
			return nil, err
		}

		node.Content = append(node.Content, value)
	}

	// Closing ']'
	if _, err := decoder.Token(); err != nil {
		return nil, err
	}

	return node, nil
}

// number returns the scalar node for a JSON number.
//
// Integers that fit in 64 bits are kept exactly as written, everything else
// goes through float64 and is written the way JSON serialisers write floats
// so that e.g. 1.0 and 1e2 come out as 1 and 100. Numbers beyond the range
// of a float64 become infinities.
func number(n json.Number) *yaml.Node {
	text := n.String()

	if !strings.ContainsAny(text, ".eE") {
		if _, err := strconv.ParseInt(text, 10, 64); err == nil {
			return scalar("!!int", text)
		}

		if _, err := strconv.ParseUint(text, 10, 64); err == nil {
			return scalar("!!int", text)
		}
	}

	f, err := strconv.ParseFloat(text, 64)
	switch {
	case math.IsInf(f, 1):
		return scalar("!!float", ".inf")
	case math.IsInf(f, -1):
		return scalar("!!float", "-.inf")
	case err != nil:
		return scalar("!!float", text)
	}

	formatted, err := marshalScalar(f)
	if err != nil {
		return scalar("!!float", text)
	}

	if strings.ContainsAny(formatted, ".eE") {
		return scalar("!!float", formatted)
	}

	return scalar("!!int", formatted)
}

func scalar(tag, value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value}
}

// encodeJSON serialises a YAML node tree as indented JSON with keys in document order.
//
// The result has no trailing newline.
func encodeJSON(node *yaml.Node) (string, error) {
	w := &jsonWriter{}
	if err := w.value(node, 0); err != nil {
		return "", err
	}

	return w.buf.String(), nil
}

// jsonWriter writes a YAML node tree as JSON.
type jsonWriter struct {
	buf     strings.Builder
	written int // Number of values written so far, bounded by maxExpandedNodes
}

func (w *jsonWriter) value(node *yaml.Node, depth int) error {
	w.written++
	if w.written > maxExpandedNodes {
		return errTooLarge
	}

	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			w.buf.WriteString("{}")
			return nil
		}

		return w.value(node.Content[0], depth)
	case yaml.AliasNode:
		if node.Alias == nil {
			return fmt.Errorf("line %d: alias %q refers to nothing", node.Line, node.Value)
		}

		return w.value(node.Alias, depth)
	case yaml.MappingNode:
		return w.object(node, depth)
	case yaml.SequenceNode:
		return w.array(node, depth)
	case yaml.ScalarNode:
		return w.scalar(node)
	default:
		return fmt.Errorf("line %d: unexpected YAML node kind %v", node.Line, node.Kind)
	}
}

func (w *jsonWriter) object(node *yaml.Node, depth int) error {
	pairs, err := mappingPairs(node)
	if err != nil {
		return err
	}

	if len(pairs) == 0 {
		w.buf.WriteString("{}")
		return nil
	}

	w.buf.WriteString("{\n")

	for i, pair := range pairs {
		w.indent(depth + 1)

		key, err := marshalScalar(pair.key)
		if err != nil {
			return err
		}

		w.buf.WriteString(key)
		w.buf.WriteString(": ")

		if err := w.value(pair.value, depth+1); err != nil {
			return err
		}

		if i < len(pairs)-1 {
			w.buf.WriteByte(',')
		}

		w.buf.WriteByte('\n')
	}

	w.indent(depth)
	w.buf.WriteByte('}')

	return nil
}

func (w *jsonWriter) array(node *yaml.Node, depth int) error {
	if len(node.Content) == 0 {
		w.buf.WriteString("[]")
		return nil
	}

	w.buf.WriteString("[\n")

	for i, item := range node.Content {
		w.indent(depth + 1)

		if err := w.value(item, depth+1); err != nil {
			return err
		}

		if i < len(node.Content)-1 {
			w.buf.WriteByte(',')
		}

		w.buf.WriteByte('\n')
	}

	w.indent(depth)
	w.buf.WriteByte(']')

	return nil
}

func (w *jsonWriter) scalar(node *yaml.Node) error {
	var value any
	if err := node.Decode(&value); err != nil {
		return err
	}

	switch v := value.(type) {
	case float64:
		// JSON has no representation for these
		if math.IsNaN(v) || math.IsInf(v, 0) {
			value = nil
		}
	case time.Time:
		value = v.Format(time.RFC3339Nano)
	}

	out, err := marshalScalar(value)
	if err != nil {
		return err
	}

	w.buf.WriteString(out)

	return nil
}

func (w *jsonWriter) indent(depth int) {
	w.buf.WriteString(strings.Repeat(" ", depth*Indent))
}

// pair is a single resolved key value pair from a YAML mapping.
type pair struct {
	key   string
	value *yaml.Node
}

// mappingPairs resolves the entries of a YAML mapping in document order, applying
// merge keys (<<). Keys written explicitly in the mapping win over merged ones.
func mappingPairs(node *yaml.Node) ([]pair, error) {
	var pairs []pair

	index := make(map[string]int)

	set := func(key string, value *yaml.Node, explicit bool) {
		if i, ok := index[key]; ok {
			if explicit {
				pairs[i].value = value
			}

			return
		}

		index[key] = len(pairs)
		pairs = append(pairs, pair{key: key, value: value})
	}

	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, valueNode := node.Content[i], node.Content[i+1]

		if keyNode.Kind == yaml.ScalarNode && keyNode.ShortTag() == "!!merge" {
			merged, err := mergeSources(valueNode)
			if err != nil {
				return nil, err
			}

			for _, source := range merged {
				sourcePairs, err := mappingPairs(source)
				if err != nil {
					return nil, err
				}

				for _, p := range sourcePairs {
					set(p.key, p.value, false)
				}
			}

			continue
		}

		key, err := mappingKey(keyNode)
		if err != nil {
			return nil, err
		}

		set(key, valueNode, true)
	}

	return pairs, nil
}

// mergeSources returns the mappings referenced by the value of a merge key, which
// may be a single mapping or a sequence of them.
func mergeSources(node *yaml.Node) ([]*yaml.Node, error) {
	node = resolveAlias(node)

	switch node.Kind {
	case yaml.MappingNode:
		return []*yaml.Node{node}, nil
	case yaml.SequenceNode:
		sources := make([]*yaml.Node, 0, len(node.Content))
		for _, item := range node.Content {
			item = resolveAlias(item)
			if item.Kind != yaml.MappingNode {
				return nil, fmt.Errorf("line %d: merge key sequence must only contain mappings", item.Line)
			}

			sources = append(sources, item)
		}

		return sources, nil
	default:
		return nil, fmt.Errorf("line %d: merge key value must be a mapping or a sequence of mappings", node.Line)
	}
}

// mappingKey returns the JSON object key for a YAML mapping key, only scalar keys
// can be represented.
//
// Numbers and booleans are keyed by their canonical form rather than as written,
// so 0x10 and 1.0 become "16" and "1".
func mappingKey(node *yaml.Node) (string, error) {
	node = resolveAlias(node)

	if node.Kind != yaml.ScalarNode {
		return "", fmt.Errorf("line %d: mapping keys must be scalars to be represented in JSON", node.Line)
	}

	switch node.ShortTag() {
	case "!!null":
		return "null", nil
	case "!!int", "!!float", "!!bool":
		var value any
		if err := node.Decode(&value); err != nil {
			return "", err
		}

		if f, ok := value.(float64); ok {
			switch {
			case math.IsNaN(f):
				return "NaN", nil
			case math.IsInf(f, 1):
				return "Infinity", nil
			case math.IsInf(f, -1):
				return "-Infinity", nil
			}
		}

		return marshalScalar(value)
	default:
		return node.Value, nil
	}
}

func resolveAlias(node *yaml.Node) *yaml.Node {
	for node.Kind == yaml.AliasNode && node.Alias != nil {
		node = node.Alias
	}

	return node
}

// marshalScalar encodes a single scalar value as JSON without escaping HTML characters.
func marshalScalar(value any) (string, error) {
	buf := &bytes.Buffer{}

	encoder := json.NewEncoder(buf)
	encoder.SetEscapeHTML(false)

	if err := encoder.Encode(value); err != nil {
		return "", err
	}

	return strings.TrimSuffix(buf.String(), "\n"), nil
}
