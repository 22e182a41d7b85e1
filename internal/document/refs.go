package document

import (
	"strconv"
	"strings"

	"go.yaml.in/yaml/v4"
)

// UnresolvedRefs lists every $ref target still present under n, in walk
// order. The walk tracks visited nodes, so shared or cyclic graphs left by a
// resolver are scanned once.
func UnresolvedRefs(n *yaml.Node) []string {
	var refs []string
	visited := make(map[*yaml.Node]bool)
	var walk func(*yaml.Node)
	walk = func(n *yaml.Node) {
		n = Unwrap(n)
		if n == nil || visited[n] {
			return
		}
		visited[n] = true
		switch n.Kind {
		case yaml.MappingNode:
			for i := 0; i+1 < len(n.Content); i += 2 {
				if n.Content[i].Value == "$ref" && IsString(n.Content[i+1]) {
					refs = append(refs, n.Content[i+1].Value)
					continue
				}
				walk(n.Content[i+1])
			}
		case yaml.SequenceNode:
			for _, c := range n.Content {
				walk(c)
			}
		}
	}
	walk(n)
	return refs
}

// HasRefs reports whether any $ref remains under n.
func HasRefs(n *yaml.Node) bool {
	return len(UnresolvedRefs(n)) > 0
}

// IsLocalRef reports whether ref points inside the current document.
func IsLocalRef(ref string) bool {
	return strings.HasPrefix(ref, "#")
}

// ResolvePointer follows a local JSON pointer ("#/a/b") from root. It returns
// nil when ref is external or any segment is missing.
func ResolvePointer(root *yaml.Node, ref string) *yaml.Node {
	if !IsLocalRef(ref) {
		return nil
	}
	ptr := strings.TrimPrefix(ref, "#")
	cur := Unwrap(root)
	if ptr == "" || ptr == "/" {
		return cur
	}
	for _, part := range strings.Split(strings.TrimPrefix(ptr, "/"), "/") {
		part = strings.ReplaceAll(part, "~1", "/")
		part = strings.ReplaceAll(part, "~0", "~")
		switch {
		case cur == nil:
			return nil
		case cur.Kind == yaml.MappingNode:
			cur = Lookup(cur, part)
		case cur.Kind == yaml.SequenceNode:
			idx, err := strconv.Atoi(part)
			if err != nil || idx < 0 || idx >= len(cur.Content) {
				return nil
			}
			cur = Unwrap(cur.Content[idx])
		default:
			return nil
		}
	}
	return cur
}
