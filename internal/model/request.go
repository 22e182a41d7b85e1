package model

type Method string

const (
	MethodGet     Method = "GET"
	MethodPost    Method = "POST"
	MethodPut     Method = "PUT"
	MethodDelete  Method = "DELETE"
	MethodPatch   Method = "PATCH"
	MethodHead    Method = "HEAD"
	MethodOptions Method = "OPTIONS"
)

// Request is one executable operation. Endpoint templating uses <<name>>.
type Request struct {
	Name             string              `json:"name"`
	Description      string              `json:"description,omitempty"`
	Method           Method              `json:"method"`
	Endpoint         string              `json:"endpoint"`
	Params           []KeyValue          `json:"params"`
	Headers          []KeyValue          `json:"headers"`
	Variables        []Variable          `json:"requestVariables"`
	Auth             Auth                `json:"auth"`
	Body             Body                `json:"body"`
	PreRequestScript string              `json:"preRequestScript"`
	TestScript       string              `json:"testScript"`
	Responses        map[string]Response `json:"responses"`
}

// Body is the request payload. An empty ContentType means no body.
type Body struct {
	ContentType string      `json:"contentType,omitempty"`
	Body        string      `json:"body,omitempty"`
	Fields      []FormField `json:"fields,omitempty"`
}

type FormField struct {
	Key    string `json:"key"`
	Value  string `json:"value"`
	Active bool   `json:"active"`
	IsFile bool   `json:"isFile"`
}

// Response is an example response stub for one declared status code.
type Response struct {
	Name            string          `json:"name"`
	Code            int             `json:"code"`
	Status          string          `json:"status"`
	Headers         []KeyValue      `json:"headers"`
	Body            string          `json:"body"`
	OriginalRequest RequestSnapshot `json:"originalRequest"`
}

// RequestSnapshot is a copy of a request's shape taken when a response
// stub is built.
type RequestSnapshot struct {
	Name      string     `json:"name"`
	Method    Method     `json:"method"`
	Endpoint  string     `json:"endpoint"`
	Params    []KeyValue `json:"params"`
	Headers   []KeyValue `json:"headers"`
	Variables []Variable `json:"requestVariables"`
	Auth      Auth       `json:"auth"`
	Body      Body       `json:"body"`
}
