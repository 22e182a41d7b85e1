package document

import (
	"encoding/json"
	"iter"
	"strconv"

	"go.yaml.in/yaml/v4"
)

// Unwrap follows document and alias wrappers to the value node.
func Unwrap(n *yaml.Node) *yaml.Node {
	for n != nil {
		switch {
		case n.Kind == yaml.DocumentNode && len(n.Content) > 0:
			n = n.Content[0]
		case n.Kind == yaml.AliasNode && n.Alias != nil:
			n = n.Alias
		default:
			return n
		}
	}
	return nil
}

func IsMapping(n *yaml.Node) bool {
	n = Unwrap(n)
	return n != nil && n.Kind == yaml.MappingNode
}

// Lookup returns the value stored under key in a mapping node. Duplicate keys
// resolve to the last occurrence, matching JSON decoding.
func Lookup(n *yaml.Node, key string) *yaml.Node {
	n = Unwrap(n)
	if n == nil || n.Kind != yaml.MappingNode {
		return nil
	}
	var found *yaml.Node
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			found = n.Content[i+1]
		}
	}
	return Unwrap(found)
}

func Has(n *yaml.Node, key string) bool {
	return Lookup(n, key) != nil
}

// String returns the scalar text stored under key, or "".
func String(n *yaml.Node, key string) string {
	return Scalar(Lookup(n, key))
}

// Scalar returns the text of a scalar node, or "" for anything else.
func Scalar(n *yaml.Node) string {
	n = Unwrap(n)
	if n == nil || n.Kind != yaml.ScalarNode || n.ShortTag() == "!!null" {
		return ""
	}
	return n.Value
}

// IsString reports whether n is a scalar that YAML resolves to a string.
func IsString(n *yaml.Node) bool {
	n = Unwrap(n)
	return n != nil && n.Kind == yaml.ScalarNode && n.ShortTag() == "!!str"
}

// Number parses a numeric scalar.
func Number(n *yaml.Node) (float64, bool) {
	n = Unwrap(n)
	if n == nil || n.Kind != yaml.ScalarNode {
		return 0, false
	}
	switch n.ShortTag() {
	case "!!int", "!!float":
	default:
		return 0, false
	}
	var f float64
	if err := n.Decode(&f); err != nil {
		v, perr := strconv.ParseFloat(n.Value, 64)
		if perr != nil {
			return 0, false
		}
		return v, true
	}
	return f, true
}

// Bool parses a boolean scalar stored under key.
func Bool(n *yaml.Node, key string) bool {
	v := Lookup(n, key)
	if v == nil || v.Kind != yaml.ScalarNode || v.ShortTag() != "!!bool" {
		return false
	}
	var b bool
	_ = v.Decode(&b)
	return b
}

// Pairs iterates a mapping node in declaration order.
func Pairs(n *yaml.Node) iter.Seq2[string, *yaml.Node] {
	return func(yield func(string, *yaml.Node) bool) {
		n = Unwrap(n)
		if n == nil || n.Kind != yaml.MappingNode {
			return
		}
		for i := 0; i+1 < len(n.Content); i += 2 {
			if !yield(n.Content[i].Value, Unwrap(n.Content[i+1])) {
				return
			}
		}
	}
}

// Items returns the elements of a sequence node.
func Items(n *yaml.Node) []*yaml.Node {
	n = Unwrap(n)
	if n == nil || n.Kind != yaml.SequenceNode {
		return nil
	}
	items := make([]*yaml.Node, 0, len(n.Content))
	for _, c := range n.Content {
		items = append(items, Unwrap(c))
	}
	return items
}

// Strings returns the scalar members of a sequence node.
func Strings(n *yaml.Node) []string {
	var out []string
	for _, item := range Items(n) {
		if s := Scalar(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Value converts a node to a Go value suitable for JSON encoding. Scalars
// become strings, numbers, booleans or nil; collections become ordered raw
// JSON so declared key order is kept.
func Value(n *yaml.Node) any {
	n = Unwrap(n)
	if n == nil {
		return nil
	}
	if n.Kind == yaml.ScalarNode {
		return scalarValue(n)
	}
	data, err := ToJSON(n)
	if err != nil {
		return nil
	}
	return json.RawMessage(data)
}

func scalarValue(n *yaml.Node) any {
	switch n.ShortTag() {
	case "!!null":
		return nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err == nil {
			return b
		}
	case "!!int":
		var i int64
		if err := n.Decode(&i); err == nil {
			return i
		}
	case "!!float":
		var f float64
		if err := n.Decode(&f); err == nil {
			if _, err := json.Marshal(f); err == nil {
				return f
			}
		}
	}
	return n.Value
}
