package convert

import (
	"go.yaml.in/yaml/v4"

	"github.com/kolah/piglet/internal/document"
	"github.com/kolah/piglet/internal/model"
	"github.com/kolah/piglet/internal/templates"
)

var methods = []struct {
	key    string
	method model.Method
}{
	{"get", model.MethodGet},
	{"post", model.MethodPost},
	{"put", model.MethodPut},
	{"delete", model.MethodDelete},
	{"patch", model.MethodPatch},
	{"head", model.MethodHead},
	{"options", model.MethodOptions},
}

// operations converts every recognised operation, in path then verb order.
func (ctx *docContext) operations(baseURL string) ([]operation, error) {
	var ops []operation
	for path, item := range document.Pairs(document.Lookup(ctx.root, "paths")) {
		item = ctx.resolveLocal(item)
		if !document.IsMapping(item) {
			continue
		}
		for _, m := range methods {
			op := document.Lookup(item, m.key)
			if !document.IsMapping(op) {
				continue
			}
			req, err := ctx.request(baseURL, path, m.method, item, op)
			if err != nil {
				return nil, err
			}
			ops = append(ops, operation{
				request: req,
				tags:    uniqueTags(document.Strings(document.Lookup(op, "tags"))),
			})
		}
	}
	return ops, nil
}

func (ctx *docContext) request(baseURL, path string, method model.Method, item, op *yaml.Node) (model.Request, error) {
	params := ctx.parameters(item, op)
	query, headers, vars := ctx.splitParameters(params)

	security := document.Lookup(op, "security")
	if security == nil {
		security = document.Lookup(ctx.root, "security")
	}

	req := model.Request{
		Name:        requestName(op, method, path),
		Description: ctx.sanitize(description(op)),
		Method:      method,
		Endpoint:    joinEndpoint(baseURL, path),
		Params:      query,
		Headers:     headers,
		Variables:   vars,
		Auth:        ctx.mapAuth(security),
		Body:        ctx.requestBody(op, params),
	}

	responses, err := ctx.responses(op, &req)
	if err != nil {
		return model.Request{}, err
	}
	req.Responses = responses

	req.PreRequestScript = ctx.script(templates.PreRequestScript, &req)
	req.TestScript = ctx.script(templates.TestScript, &req)
	return req, nil
}

func requestName(op *yaml.Node, method model.Method, path string) string {
	if id := document.String(op, "operationId"); id != "" {
		return id
	}
	if summary := document.String(op, "summary"); summary != "" {
		return summary
	}
	return string(method) + " " + path
}

func description(op *yaml.Node) string {
	if d := document.String(op, "description"); d != "" {
		return d
	}
	return document.String(op, "summary")
}

func uniqueTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := tags[:0]
	for _, t := range tags {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}

func (ctx *docContext) script(name string, req *model.Request) string {
	if ctx.scripts == nil {
		return ""
	}
	out, err := ctx.scripts.Execute(name, templates.ScriptData{
		Name:     req.Name,
		Method:   string(req.Method),
		Endpoint: req.Endpoint,
	})
	if err != nil {
		ctx.logger.Warn().Err(err).Str("template", name).Str("request", req.Name).Msg("rendering script")
		return ""
	}
	return out
}
