package convert

import (
	"go.yaml.in/yaml/v4"

	"github.com/kolah/piglet/internal/document"
	"github.com/kolah/piglet/internal/model"
)

// parameters merges path-item parameters into the operation's own list.
// Operation entries override path-item entries with the same name and
// location.
func (ctx *docContext) parameters(pathItem, op *yaml.Node) []*yaml.Node {
	type key struct{ name, in string }

	var params []*yaml.Node
	index := make(map[key]int)
	add := func(list *yaml.Node) {
		for _, p := range document.Items(list) {
			p = ctx.resolveLocal(p)
			if !document.IsMapping(p) {
				continue
			}
			k := key{document.String(p, "name"), document.String(p, "in")}
			if i, ok := index[k]; ok {
				params[i] = p
				continue
			}
			index[k] = len(params)
			params = append(params, p)
		}
	}
	add(document.Lookup(pathItem, "parameters"))
	add(document.Lookup(op, "parameters"))
	return params
}

// splitParameters sorts parameters into query params, headers and path
// variables. Values stay blank.
func (ctx *docContext) splitParameters(params []*yaml.Node) ([]model.KeyValue, []model.KeyValue, []model.Variable) {
	query := []model.KeyValue{}
	headers := []model.KeyValue{}
	vars := []model.Variable{}

	for _, p := range params {
		name := document.String(p, "name")
		if name == "" {
			continue
		}
		switch document.String(p, "in") {
		case "query":
			query = append(query, model.KeyValue{
				Key:         name,
				Description: ctx.sanitize(document.String(p, "description")),
				Active:      true,
			})
		case "header":
			headers = append(headers, model.KeyValue{
				Key:         name,
				Description: ctx.sanitize(document.String(p, "description")),
				Active:      true,
			})
		case "path":
			vars = append(vars, model.Variable{Key: name, Active: true})
		}
	}
	return query, headers, vars
}
