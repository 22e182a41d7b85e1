package convert

import (
	"strings"

	"go.yaml.in/yaml/v4"

	"github.com/kolah/piglet/internal/document"
	"github.com/kolah/piglet/internal/model"
)

// mapAuth maps a security requirement list to an auth configuration. Only
// the first named requirement counts. Scheme checks run in a fixed order:
// bearer, apiKey, basic, then oauth2.
func (ctx *docContext) mapAuth(security *yaml.Node) model.Auth {
	name, scopes, ok := firstRequirement(security)
	if !ok {
		return model.NoAuth()
	}

	scheme := ctx.resolveLocal(document.Lookup(ctx.securitySchemes(), name))
	if !document.IsMapping(scheme) {
		return model.NoAuth()
	}

	typ := document.String(scheme, "type")
	httpScheme := strings.ToLower(document.String(scheme, "scheme"))

	switch {
	case typ == "http" && httpScheme == "bearer":
		return model.Auth{
			Type:   model.AuthBearer,
			Active: true,
			Token:  ctx.placeholder("token"),
		}
	case typ == "apiKey":
		addTo := model.APIKeyInHeader
		if document.String(scheme, "in") == "query" {
			addTo = model.APIKeyInQuery
		}
		return model.Auth{
			Type:   model.AuthAPIKey,
			Active: true,
			Key:    document.String(scheme, "name"),
			Value:  ctx.placeholder("apiKey"),
			AddTo:  addTo,
		}
	case (typ == "http" && httpScheme == "basic") || typ == "basic":
		return model.Auth{
			Type:     model.AuthBasic,
			Active:   true,
			Username: ctx.placeholder("username"),
			Password: ctx.placeholder("password"),
		}
	case typ == "oauth2":
		if grant, ok := ctx.mapOAuth2(scheme, scopes); ok {
			return model.Auth{Type: model.AuthOAuth2, Active: true, OAuth2: grant}
		}
	}
	return model.NoAuth()
}

func (ctx *docContext) securitySchemes() *yaml.Node {
	if ctx.doc.IsSwagger2() {
		return document.Lookup(ctx.root, "securityDefinitions")
	}
	return document.Lookup(document.Lookup(ctx.root, "components"), "securitySchemes")
}

// firstRequirement returns the first scheme name of the first non-empty
// requirement object, with its required scopes.
func firstRequirement(security *yaml.Node) (string, []string, bool) {
	for _, req := range document.Items(security) {
		for name, scopes := range document.Pairs(req) {
			return name, document.Strings(scopes), true
		}
	}
	return "", nil, false
}

// grantTypes maps OpenAPI 3.x and Swagger 2.0 flow names onto grant types.
var grantTypes = map[string]model.GrantType{
	"implicit":          model.GrantImplicit,
	"password":          model.GrantPassword,
	"clientCredentials": model.GrantClientCredentials,
	"application":       model.GrantClientCredentials,
	"authorizationCode": model.GrantAuthorizationCode,
	"accessCode":        model.GrantAuthorizationCode,
}

func (ctx *docContext) mapOAuth2(scheme *yaml.Node, required []string) (*model.OAuth2, bool) {
	grant, flow, ok := firstFlow(scheme, ctx.doc.IsSwagger2())
	if !ok {
		return nil, false
	}

	o := &model.OAuth2{
		GrantType: grant,
		ClientID:  ctx.placeholder("clientId"),
	}

	switch grant {
	case model.GrantImplicit:
		o.AuthURL = ctx.endpoint(flow, "authorizationUrl", "authUrl")
	case model.GrantPassword:
		o.TokenURL = ctx.endpoint(flow, "tokenUrl", "tokenUrl")
		o.ClientSecret = ctx.placeholder("clientSecret")
		o.Username = ctx.placeholder("username")
		o.Password = ctx.placeholder("password")
	case model.GrantClientCredentials:
		o.TokenURL = ctx.endpoint(flow, "tokenUrl", "tokenUrl")
		o.ClientSecret = ctx.placeholder("clientSecret")
	case model.GrantAuthorizationCode:
		o.AuthURL = ctx.endpoint(flow, "authorizationUrl", "authUrl")
		o.TokenURL = ctx.endpoint(flow, "tokenUrl", "tokenUrl")
		o.ClientSecret = ctx.placeholder("clientSecret")
	}

	scopes := required
	if len(scopes) == 0 {
		for name := range document.Pairs(document.Lookup(flow, "scopes")) {
			scopes = append(scopes, name)
		}
	}
	o.Scopes = strings.Join(scopes, " ")
	return o, true
}

// firstFlow picks the first recognised flow. Swagger 2.0 declares a single
// flow inline on the scheme.
func firstFlow(scheme *yaml.Node, swagger2 bool) (model.GrantType, *yaml.Node, bool) {
	if swagger2 || !document.Has(scheme, "flows") {
		grant, ok := grantTypes[document.String(scheme, "flow")]
		return grant, scheme, ok
	}
	for name, flow := range document.Pairs(document.Lookup(scheme, "flows")) {
		if grant, ok := grantTypes[name]; ok {
			return grant, flow, true
		}
	}
	return "", nil, false
}

// endpoint returns the declared URL under key, or a placeholder.
func (ctx *docContext) endpoint(flow *yaml.Node, key, placeholder string) string {
	if url := document.String(flow, key); url != "" {
		return url
	}
	return ctx.placeholder(placeholder)
}
