package document

import (
	"bytes"
	"encoding/json"
	"errors"

	"go.yaml.in/yaml/v4"
)

var errCyclicNode = errors.New("document contains a reference cycle")

// ToJSON renders a node tree as compact JSON, keeping mapping key order.
func ToJSON(n *yaml.Node) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeJSON(&buf, n, make(map[*yaml.Node]bool)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeJSON(buf *bytes.Buffer, n *yaml.Node, active map[*yaml.Node]bool) error {
	n = Unwrap(n)
	if n == nil {
		buf.WriteString("null")
		return nil
	}
	if active[n] {
		return errCyclicNode
	}

	switch n.Kind {
	case yaml.MappingNode:
		active[n] = true
		defer delete(active, n)
		buf.WriteByte('{')
		for i := 0; i+1 < len(n.Content); i += 2 {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, _ := json.Marshal(n.Content[i].Value)
			buf.Write(key)
			buf.WriteByte(':')
			if err := writeJSON(buf, n.Content[i+1], active); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	case yaml.SequenceNode:
		active[n] = true
		defer delete(active, n)
		buf.WriteByte('[')
		for i, c := range n.Content {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSON(buf, c, active); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	default:
		data, err := json.Marshal(scalarValue(n))
		if err != nil {
			data, _ = json.Marshal(n.Value)
		}
		buf.Write(data)
	}
	return nil
}

// ToYAML renders a node tree as YAML bytes.
func ToYAML(n *yaml.Node) ([]byte, error) {
	return yaml.Marshal(Unwrap(n))
}
