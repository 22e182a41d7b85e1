package convert

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/mitchellh/copystructure"
	"go.yaml.in/yaml/v4"

	"github.com/kolah/piglet/internal/document"
	"github.com/kolah/piglet/internal/mock"
	"github.com/kolah/piglet/internal/model"
)

// responses builds one stub per declared response. Stubs are keyed by
// name; a name used twice gets the status code appended.
func (ctx *docContext) responses(op *yaml.Node, req *model.Request) (map[string]model.Response, error) {
	out := make(map[string]model.Response)
	for code, resp := range document.Pairs(document.Lookup(op, "responses")) {
		resp = ctx.resolveLocal(resp)

		name := document.String(resp, "description")
		if name == "" {
			name = code
		}
		if _, taken := out[name]; taken {
			name = fmt.Sprintf("%s (%s)", name, code)
		}

		status, err := strconv.Atoi(code)
		if err != nil || status < 100 || status > 599 {
			status = http.StatusOK
		}

		contentType, body := ctx.responseBody(op, resp)

		snapshot, err := snapshotOf(req)
		if err != nil {
			return nil, fmt.Errorf("snapshotting request for response %q: %w", code, err)
		}

		out[name] = model.Response{
			Name:   name,
			Code:   status,
			Status: http.StatusText(status),
			Headers: []model.KeyValue{
				{Key: "content-type", Value: contentType, Active: true},
			},
			Body:            body,
			OriginalRequest: snapshot,
		}
	}
	return out, nil
}

func (ctx *docContext) responseBody(op, resp *yaml.Node) (string, string) {
	if ctx.doc.IsSwagger2() {
		return ctx.swaggerResponseBody(op, resp)
	}
	contentType, media, ok := firstPair(document.Lookup(resp, "content"))
	if !ok {
		return contentJSON, ""
	}
	if ex := document.Lookup(media, "example"); ex != nil {
		return contentType, mock.Text(document.Value(ex), true)
	}
	if _, ex, ok := firstPair(document.Lookup(media, "examples")); ok {
		if v := document.Lookup(ctx.resolveLocal(ex), "value"); v != nil {
			return contentType, mock.Text(document.Value(v), true)
		}
	}
	schema := ctx.schemas.Build(document.Lookup(media, "schema"))
	return contentType, render(contentType, ctx.gen.Synthesize(schema, nil, ""))
}

func (ctx *docContext) swaggerResponseBody(op, resp *yaml.Node) (string, string) {
	if contentType, ex, ok := firstPair(document.Lookup(resp, "examples")); ok {
		return contentType, mock.Text(document.Value(ex), true)
	}

	produces := document.Strings(document.Lookup(op, "produces"))
	if len(produces) == 0 {
		produces = document.Strings(document.Lookup(ctx.root, "produces"))
	}
	contentType := contentJSON
	if len(produces) > 0 {
		contentType = produces[0]
	}

	schema := ctx.schemas.Build(document.Lookup(resp, "schema"))
	if schema == nil {
		return contentType, ""
	}
	return contentType, render(contentType, ctx.gen.Synthesize(schema, nil, ""))
}

// snapshotOf deep-copies the request shape so later edits to the request
// do not leak into its response stubs.
func snapshotOf(req *model.Request) (model.RequestSnapshot, error) {
	snap := model.RequestSnapshot{
		Name:      req.Name,
		Method:    req.Method,
		Endpoint:  req.Endpoint,
		Params:    req.Params,
		Headers:   req.Headers,
		Variables: req.Variables,
		Auth:      req.Auth,
		Body:      req.Body,
	}
	c, err := copystructure.Copy(snap)
	if err != nil {
		return model.RequestSnapshot{}, err
	}
	return c.(model.RequestSnapshot), nil
}
