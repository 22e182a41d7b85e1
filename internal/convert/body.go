package convert

import (
	"mime"
	"strings"

	"go.yaml.in/yaml/v4"

	"github.com/kolah/piglet/internal/document"
	"github.com/kolah/piglet/internal/mock"
	"github.com/kolah/piglet/internal/model"
)

const (
	contentJSON      = "application/json"
	contentForm      = "application/x-www-form-urlencoded"
	contentMultipart = "multipart/form-data"
)

// mediaType returns the lower-cased media type without parameters.
func mediaType(contentType string) string {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mt, _, _ = strings.Cut(contentType, ";")
	}
	return strings.ToLower(strings.TrimSpace(mt))
}

func isJSON(contentType string) bool {
	mt := mediaType(contentType)
	return mt == contentJSON || strings.HasSuffix(mt, "+json")
}

func isForm(contentType string) bool {
	mt := mediaType(contentType)
	return mt == contentForm || mt == contentMultipart
}

// isSupported reports whether a body of this content type is synthesized.
func isSupported(contentType string) bool {
	mt := mediaType(contentType)
	switch {
	case isJSON(mt), isForm(mt):
		return true
	case mt == "application/xml", strings.HasSuffix(mt, "+xml"):
		return true
	case strings.HasPrefix(mt, "text/"):
		return true
	case mt == "application/octet-stream":
		return true
	}
	return false
}

// render serializes a synthesized value as body text. JSON content types get
// indented JSON; other types use strings verbatim.
func render(contentType string, v any) string {
	if v == nil {
		return ""
	}
	if isJSON(contentType) {
		return mock.JSON(v, true)
	}
	return mock.Text(v, true)
}

func (ctx *docContext) requestBody(op *yaml.Node, params []*yaml.Node) model.Body {
	if ctx.doc.IsSwagger2() {
		return ctx.swaggerBody(op, params)
	}
	return ctx.openAPIBody(op)
}

// openAPIBody reads only the first declared content type.
func (ctx *docContext) openAPIBody(op *yaml.Node) model.Body {
	rb := ctx.resolveLocal(document.Lookup(op, "requestBody"))
	contentType, media, ok := firstPair(document.Lookup(rb, "content"))
	if !ok || !isSupported(contentType) {
		return model.Body{}
	}

	schema := ctx.schemas.Build(document.Lookup(media, "schema"))
	if isForm(contentType) {
		return model.Body{ContentType: contentType, Fields: formFields(schema)}
	}
	return model.Body{
		ContentType: contentType,
		Body:        render(contentType, ctx.gen.Synthesize(schema, nil, "")),
	}
}

// formFields lists the object properties of s as blank form fields,
// including properties contributed by allOf members.
func formFields(s *model.Schema) []model.FormField {
	fields := []model.FormField{}
	seen := make(map[string]bool)
	visited := make(map[*model.Schema]bool)
	var walk func(*model.Schema)
	walk = func(s *model.Schema) {
		if s == nil || visited[s] {
			return
		}
		visited[s] = true
		for _, member := range s.AllOf {
			walk(member)
		}
		for _, p := range s.Properties {
			if seen[p.Name] {
				continue
			}
			seen[p.Name] = true
			fields = append(fields, model.FormField{Key: p.Name, Active: true})
		}
	}
	walk(s)
	return fields
}

// swaggerBody builds a body from formData parameters, else from the body
// parameter.
func (ctx *docContext) swaggerBody(op *yaml.Node, params []*yaml.Node) model.Body {
	consumes := document.Strings(document.Lookup(op, "consumes"))
	if len(consumes) == 0 {
		consumes = document.Strings(document.Lookup(ctx.root, "consumes"))
	}

	var formData []*yaml.Node
	var body *yaml.Node
	for _, p := range params {
		switch document.String(p, "in") {
		case "formData":
			formData = append(formData, p)
		case "body":
			if body == nil {
				body = p
			}
		}
	}

	if len(formData) > 0 {
		contentType := contentMultipart
		if len(consumes) > 0 && mediaType(consumes[0]) == contentForm {
			contentType = contentForm
		}
		fields := make([]model.FormField, 0, len(formData))
		for _, p := range formData {
			name := document.String(p, "name")
			schema := ctx.schemas.Build(p)
			fields = append(fields, model.FormField{
				Key:    name,
				Value:  mock.Text(ctx.gen.Synthesize(schema, nil, name), false),
				Active: true,
				IsFile: schema != nil && schema.IsBinary(),
			})
		}
		return model.Body{ContentType: contentType, Fields: fields}
	}

	if body != nil {
		contentType := contentJSON
		if len(consumes) > 0 {
			contentType = consumes[0]
		}
		schema := ctx.schemas.Build(document.Lookup(body, "schema"))
		return model.Body{
			ContentType: contentType,
			Body:        render(contentType, ctx.gen.Synthesize(schema, nil, document.String(body, "name"))),
		}
	}

	return model.Body{}
}
