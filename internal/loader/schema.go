package loader

import (
	"github.com/kolah/piglet/internal/document"
	"github.com/kolah/piglet/internal/model"
	"go.yaml.in/yaml/v4"
)

// maxRefChain bounds $ref-to-$ref hops so pointer loops without content end.
const maxRefChain = 32

// SchemaBuilder turns schema nodes of one document into model.Schema graphs.
// Nodes are memoised by identity, so a schema reached twice yields the same
// *model.Schema and self-referencing schemas become cyclic graphs. Local
// $refs the dereference stage left behind are followed here; anything else
// stays as an unresolved Ref.
type SchemaBuilder struct {
	root  *yaml.Node
	built map[*yaml.Node]*model.Schema
}

func NewSchemaBuilder(root *yaml.Node) *SchemaBuilder {
	return &SchemaBuilder{
		root:  document.Unwrap(root),
		built: make(map[*yaml.Node]*model.Schema),
	}
}

// Build converts n, returning nil when n is not a schema object.
func (b *SchemaBuilder) Build(n *yaml.Node) *model.Schema {
	return b.build(n, 0)
}

func (b *SchemaBuilder) build(n *yaml.Node, hops int) *model.Schema {
	n = document.Unwrap(n)
	if n == nil || n.Kind != yaml.MappingNode {
		return nil
	}

	key := identity(n)
	if s, ok := b.built[key]; ok {
		return s
	}

	if ref := document.String(n, "$ref"); ref != "" {
		target := document.ResolvePointer(b.root, ref)
		if target == nil || target == n || hops >= maxRefChain {
			s := &model.Schema{Ref: ref}
			b.built[key] = s
			return s
		}
		s := b.build(target, hops+1)
		if s == nil {
			s = &model.Schema{Ref: ref}
		}
		b.built[key] = s
		return s
	}

	s := &model.Schema{}
	b.built[key] = s
	b.fill(s, n)
	return s
}

func (b *SchemaBuilder) fill(s *model.Schema, n *yaml.Node) {
	s.Type = schemaType(document.Lookup(n, "type"))
	s.Format = document.String(n, "format")
	s.Pattern = document.String(n, "pattern")
	s.ContentMediaType = document.String(n, "contentMediaType")
	s.Description = document.String(n, "description")

	for _, e := range document.Items(document.Lookup(n, "enum")) {
		s.Enum = append(s.Enum, document.Value(e))
	}

	s.Minimum = floatPtr(document.Lookup(n, "minimum"))
	s.Maximum = floatPtr(document.Lookup(n, "maximum"))
	s.MinLength = intPtr(document.Lookup(n, "minLength"))
	s.MaxLength = intPtr(document.Lookup(n, "maxLength"))
	s.MinItems = intPtr(document.Lookup(n, "minItems"))
	s.MaxItems = intPtr(document.Lookup(n, "maxItems"))

	if items := document.Lookup(n, "items"); items != nil {
		// Tuple-form items (older drafts) use the first member.
		if items.Kind == yaml.SequenceNode {
			if seq := document.Items(items); len(seq) > 0 {
				s.Items = b.Build(seq[0])
			}
		} else {
			s.Items = b.Build(items)
		}
	}

	for name, prop := range document.Pairs(document.Lookup(n, "properties")) {
		s.Properties = append(s.Properties, model.Property{
			Name:   name,
			Schema: b.Build(prop),
		})
	}

	s.AllOf = b.buildAll(document.Lookup(n, "allOf"))
	s.OneOf = b.buildAll(document.Lookup(n, "oneOf"))
	s.AnyOf = b.buildAll(document.Lookup(n, "anyOf"))
}

func (b *SchemaBuilder) buildAll(n *yaml.Node) []*model.Schema {
	var result []*model.Schema
	for _, item := range document.Items(n) {
		if s := b.Build(item); s != nil {
			result = append(result, s)
		}
	}
	return result
}

// identity keys a mapping node by its first content node. Resolvers that
// inline a reference share the target's content, so every inlined copy of a
// schema maps to the same key.
func identity(n *yaml.Node) *yaml.Node {
	if len(n.Content) > 0 {
		return n.Content[0]
	}
	return n
}

// schemaType reads `type`, taking the first non-null member of an
// OpenAPI 3.1 type array.
func schemaType(n *yaml.Node) model.SchemaType {
	if n == nil {
		return ""
	}
	if n.Kind == yaml.SequenceNode {
		for _, t := range document.Strings(n) {
			if t != string(model.TypeNull) {
				return model.SchemaType(t)
			}
		}
		return ""
	}
	return model.SchemaType(document.Scalar(n))
}

func floatPtr(n *yaml.Node) *float64 {
	v, ok := document.Number(n)
	if !ok {
		return nil
	}
	return &v
}

func intPtr(n *yaml.Node) *int64 {
	v, ok := document.Number(n)
	if !ok {
		return nil
	}
	i := int64(v)
	return &i
}
