package document

import "go.yaml.in/yaml/v4"

// Clone deep-copies a node graph. Shared nodes stay shared in the copy and
// cycles are reproduced instead of followed.
func Clone(n *yaml.Node) *yaml.Node {
	return cloneNode(n, make(map[*yaml.Node]*yaml.Node))
}

func cloneNode(n *yaml.Node, seen map[*yaml.Node]*yaml.Node) *yaml.Node {
	if n == nil {
		return nil
	}
	if c, ok := seen[n]; ok {
		return c
	}
	c := &yaml.Node{}
	*c = *n
	seen[n] = c
	if n.Alias != nil {
		c.Alias = cloneNode(n.Alias, seen)
	}
	if n.Content != nil {
		c.Content = make([]*yaml.Node, len(n.Content))
		for i, child := range n.Content {
			c.Content[i] = cloneNode(child, seen)
		}
	}
	return c
}
