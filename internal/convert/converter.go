// Package convert turns classified, dereferenced documents into collections.
package convert

import (
	"fmt"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/mitchellh/copystructure"
	"github.com/rs/zerolog"
	"go.yaml.in/yaml/v4"

	"github.com/kolah/piglet/internal/document"
	"github.com/kolah/piglet/internal/loader"
	"github.com/kolah/piglet/internal/mock"
	"github.com/kolah/piglet/internal/model"
	"github.com/kolah/piglet/internal/templates"
)

const untitled = "Untitled"

// Converter builds collections. A Converter is not safe for concurrent use
// because the mock generator's randomness is not.
type Converter struct {
	gen       *mock.Generator
	scripts   templates.Engine
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
}

type Option func(*Converter)

// WithScripts sets the engine rendering pre-request and test scripts.
// Without one, scripts are left empty.
func WithScripts(e templates.Engine) Option {
	return func(c *Converter) {
		c.scripts = e
	}
}

// WithSanitizedDescriptions strips markup from every description.
func WithSanitizedDescriptions(enabled bool) Option {
	return func(c *Converter) {
		if enabled {
			c.sanitizer = bluemonday.StrictPolicy()
		} else {
			c.sanitizer = nil
		}
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Converter) {
		c.logger = logger
	}
}

func New(gen *mock.Generator, opts ...Option) *Converter {
	c := &Converter{
		gen:    gen,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// docContext holds the per-document state of one conversion.
type docContext struct {
	*Converter
	doc          *document.Document
	root         *yaml.Node
	schemas      *loader.SchemaBuilder
	placeholders []string
	seen         map[string]bool
}

// operation is a converted request with the tags it is filed under.
type operation struct {
	request model.Request
	tags    []string
}

// Convert builds the collection for doc. origin is the fallback used for
// relative or scheme-less server URLs.
func (c *Converter) Convert(doc *document.Document, origin string) (model.Collection, error) {
	ctx := &docContext{
		Converter: c,
		doc:       doc,
		root:      document.Unwrap(doc.Root),
		schemas:   loader.NewSchemaBuilder(doc.Root),
		seen:      make(map[string]bool),
	}

	info := ctx.resolveLocal(document.Lookup(ctx.root, "info"))
	name := document.String(info, "title")
	if name == "" {
		name = untitled
	}

	baseURL, serverVars := BaseURL(doc, origin)

	col := newCollection(name)
	col.Description = ctx.sanitize(document.String(info, "description"))
	col.APIVersion = document.String(info, "version")
	col.Auth = model.CollectionAuth{
		Auth:    ctx.mapAuth(document.Lookup(ctx.root, "security")),
		BaseURL: baseURL,
	}

	ops, err := ctx.operations(baseURL)
	if err != nil {
		return model.Collection{}, err
	}

	descriptions := ctx.tagDescriptions()
	for _, op := range ops {
		if len(op.tags) == 0 {
			col.Requests = append(col.Requests, op.request)
			continue
		}
		for _, tag := range op.tags {
			folder := col.Folder(tag)
			if folder == nil {
				f := newCollection(tag)
				f.Description = descriptions[tag]
				f.Auth = model.CollectionAuth{Auth: model.InheritAuth()}
				col.Folders = append(col.Folders, f)
				folder = &col.Folders[len(col.Folders)-1]
			}
			req, err := copyRequest(op.request)
			if err != nil {
				return model.Collection{}, fmt.Errorf("copying request %q for tag %q: %w", op.request.Name, tag, err)
			}
			folder.Requests = append(folder.Requests, req)
		}
	}

	col.Variables = append(col.Variables, serverVars...)
	for _, key := range ctx.placeholders {
		col.Variables = append(col.Variables, model.Variable{Key: key, Active: true})
	}

	ctx.logger.Debug().
		Str("collection", col.Name).
		Int("requests", len(ops)).
		Int("folders", len(col.Folders)).
		Msg("document converted")

	return col, nil
}

func newCollection(name string) model.Collection {
	return model.Collection{
		Name:      name,
		Headers:   []model.KeyValue{},
		Variables: []model.Variable{},
		Folders:   []model.Collection{},
		Requests:  []model.Request{},
	}
}

func copyRequest(r model.Request) (model.Request, error) {
	c, err := copystructure.Copy(r)
	if err != nil {
		return model.Request{}, err
	}
	return c.(model.Request), nil
}

func (ctx *docContext) tagDescriptions() map[string]string {
	out := make(map[string]string)
	for _, tag := range document.Items(document.Lookup(ctx.root, "tags")) {
		name := document.String(tag, "name")
		if name == "" {
			continue
		}
		if desc := ctx.sanitize(document.String(tag, "description")); desc != "" {
			out[name] = desc
		}
	}
	return out
}

// placeholder records a <<name>> variable the collection must declare and
// returns the templated reference.
func (ctx *docContext) placeholder(name string) string {
	if !ctx.seen[name] {
		ctx.seen[name] = true
		ctx.placeholders = append(ctx.placeholders, name)
	}
	return "<<" + name + ">>"
}

func (c *Converter) sanitize(s string) string {
	if c.sanitizer == nil || s == "" {
		return s
	}
	return strings.TrimSpace(html.UnescapeString(c.sanitizer.Sanitize(s)))
}

// resolveLocal follows local $ref chains the dereference stage left behind.
func (ctx *docContext) resolveLocal(n *yaml.Node) *yaml.Node {
	n = document.Unwrap(n)
	for hops := 0; hops < 32; hops++ {
		ref := document.String(n, "$ref")
		if ref == "" {
			return n
		}
		target := document.ResolvePointer(ctx.root, ref)
		if target == nil || target == n {
			return n
		}
		n = target
	}
	return n
}

func firstPair(n *yaml.Node) (string, *yaml.Node, bool) {
	for k, v := range document.Pairs(n) {
		return k, v, true
	}
	return "", nil, false
}
