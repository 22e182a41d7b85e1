package document

import (
	"strings"

	"go.yaml.in/yaml/v4"
)

// Dialect tags the schema dialect every downstream stage interprets a
// document with. It is computed once, by Classify.
type Dialect string

const (
	DialectSwagger2  Dialect = "swagger-2.0"
	DialectOpenAPI30 Dialect = "openapi-3.0"
	DialectOpenAPI31 Dialect = "openapi-3.1"
)

// Document is a parsed document accepted by the classifier.
type Document struct {
	Root    *yaml.Node
	Dialect Dialect
	Version string
	Format  Format
}

func (d *Document) IsSwagger2() bool {
	return d.Dialect == DialectSwagger2
}

// WithRoot returns a copy of d pointing at a different root node.
func (d *Document) WithRoot(root *yaml.Node) *Document {
	c := *d
	c.Root = root
	return &c
}

// Classify accepts a parsed value that carries `paths` and a `swagger` or
// `openapi` version marker, or at least an `info` member.
func Classify(root *yaml.Node, format Format) (*Document, bool) {
	root = Unwrap(root)
	if !IsMapping(root) || !Has(root, "paths") {
		return nil, false
	}

	doc := &Document{Root: root, Format: format}

	switch {
	case isScalar(Lookup(root, "swagger")):
		doc.Dialect = DialectSwagger2
		doc.Version = String(root, "swagger")
	case isScalar(Lookup(root, "openapi")):
		doc.Version = String(root, "openapi")
		doc.Dialect = openAPIDialect(doc.Version)
	case Has(root, "info"):
		doc.Dialect = guessDialect(root)
	default:
		return nil, false
	}

	return doc, true
}

func isScalar(n *yaml.Node) bool {
	return n != nil && n.Kind == yaml.ScalarNode && n.Value != ""
}

func openAPIDialect(version string) Dialect {
	if strings.HasPrefix(version, "3.") && !strings.HasPrefix(version, "3.0") {
		return DialectOpenAPI31
	}
	return DialectOpenAPI30
}

// guessDialect handles documents without a version marker: Swagger-only
// top-level members pick 2.0, anything else is read as OpenAPI 3.0.
func guessDialect(root *yaml.Node) Dialect {
	for _, key := range []string{"definitions", "securityDefinitions", "host", "basePath", "schemes"} {
		if Has(root, key) {
			return DialectSwagger2
		}
	}
	return DialectOpenAPI30
}
