package model

type AuthType string

const (
	AuthNone    AuthType = "none"
	AuthInherit AuthType = "inherit"
	AuthBearer  AuthType = "bearer"
	AuthBasic   AuthType = "basic"
	AuthAPIKey  AuthType = "api-key"
	AuthOAuth2  AuthType = "oauth-2"
)

// APIKeyLocation is where an api-key auth value is sent.
type APIKeyLocation string

const (
	APIKeyInHeader APIKeyLocation = "header"
	APIKeyInQuery  APIKeyLocation = "query"
)

type GrantType string

const (
	GrantImplicit          GrantType = "implicit"
	GrantPassword          GrantType = "password"
	GrantClientCredentials GrantType = "client-credentials"
	GrantAuthorizationCode GrantType = "authorization-code"
)

type Auth struct {
	Type   AuthType `json:"authType"`
	Active bool     `json:"authActive"`

	// bearer
	Token string `json:"token,omitempty"`

	// basic
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`

	// api-key
	Key   string         `json:"key,omitempty"`
	Value string         `json:"value,omitempty"`
	AddTo APIKeyLocation `json:"addTo,omitempty"`

	// oauth-2
	OAuth2 *OAuth2 `json:"grantTypeInfo,omitempty"`
}

type OAuth2 struct {
	GrantType    GrantType `json:"grantType"`
	AuthURL      string    `json:"authEndpoint,omitempty"`
	TokenURL     string    `json:"tokenEndpoint,omitempty"`
	ClientID     string    `json:"clientID"`
	ClientSecret string    `json:"clientSecret,omitempty"`
	Username     string    `json:"username,omitempty"`
	Password     string    `json:"password,omitempty"`
	Scopes       string    `json:"scopes"`
}

func NoAuth() Auth {
	return Auth{Type: AuthNone, Active: true}
}

func InheritAuth() Auth {
	return Auth{Type: AuthInherit, Active: true}
}
