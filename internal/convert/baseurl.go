package convert

import (
	"regexp"
	"slices"
	"strings"

	"go.yaml.in/yaml/v4"

	"github.com/kolah/piglet/internal/document"
	"github.com/kolah/piglet/internal/model"
)

var pathTemplate = regexp.MustCompile(`\{([^{}/]+)\}`)

// templatize rewrites {name} path templating as <<name>>.
func templatize(s string) string {
	return pathTemplate.ReplaceAllString(s, "<<$1>>")
}

// BaseURL resolves the base URL of doc. OpenAPI 3.x servers win, then the
// Swagger 2.0 host, schemes and basePath, then origin. Server variables are
// returned with their defaults.
func BaseURL(doc *document.Document, origin string) (string, []model.Variable) {
	root := document.Unwrap(doc.Root)
	origin = strings.TrimRight(origin, "/")

	if servers := document.Items(document.Lookup(root, "servers")); len(servers) > 0 {
		if url := document.String(servers[0], "url"); url != "" {
			return serverURL(url, origin), serverVariables(servers[0])
		}
	}

	host := document.String(root, "host")
	basePath := strings.TrimRight(document.String(root, "basePath"), "/")
	if host != "" {
		return pickScheme(document.Strings(document.Lookup(root, "schemes"))) + "://" + strings.TrimRight(host, "/") + basePath, nil
	}
	if basePath != "" && origin != "" {
		return origin + basePath, nil
	}
	return origin, nil
}

func serverURL(url, origin string) string {
	url = templatize(url)
	switch {
	case strings.HasPrefix(url, "//"):
		if scheme, _, ok := strings.Cut(origin, "://"); ok && scheme != "" {
			return scheme + ":" + strings.TrimRight(url, "/")
		}
		return strings.TrimRight(url, "/")
	case strings.HasPrefix(url, "/"):
		return origin + strings.TrimRight(url, "/")
	case !strings.Contains(url, "://"):
		if origin != "" {
			return origin
		}
		return strings.TrimRight(url, "/")
	}
	return strings.TrimRight(url, "/")
}

func serverVariables(server *yaml.Node) []model.Variable {
	var vars []model.Variable
	for name, v := range document.Pairs(document.Lookup(server, "variables")) {
		vars = append(vars, model.Variable{
			Key:    name,
			Value:  document.String(v, "default"),
			Active: true,
		})
	}
	return vars
}

func pickScheme(schemes []string) string {
	if len(schemes) == 0 || slices.Contains(schemes, "https") {
		return "https"
	}
	return schemes[0]
}

// joinEndpoint appends path to base without doubling the slash at the seam.
func joinEndpoint(base, path string) string {
	switch {
	case base == "":
		return templatize(path)
	case strings.HasSuffix(base, "/") && strings.HasPrefix(path, "/"):
		path = path[1:]
	case !strings.HasSuffix(base, "/") && !strings.HasPrefix(path, "/") && path != "":
		path = "/" + path
	}
	return templatize(base + path)
}
