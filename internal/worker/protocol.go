// Package worker runs validation and dereferencing on a dedicated goroutine
// behind a request/response message protocol.
//
// Each Request yields exactly one Response. Messages carry no correlation
// IDs, so a worker serves one outstanding request at a time; Client enforces
// that.
package worker

import "github.com/kolah/piglet/internal/document"

type RequestType string

const (
	RequestValidate    RequestType = "validate"
	RequestDereference RequestType = "dereference"
)

type ResponseType string

const (
	ResponseValidation  ResponseType = "VALIDATION_RESULT"
	ResponseDereference ResponseType = "DEREFERENCE_RESULT"
)

type Request struct {
	Type RequestType
	Doc  *document.Document
}

// Result carries either the processed document or the failure message.
type Result struct {
	OK    bool
	Doc   *document.Document
	Error string
}

type Response struct {
	Type ResponseType
	Data Result
}

func responseTypeFor(t RequestType) ResponseType {
	if t == RequestValidate {
		return ResponseValidation
	}
	return ResponseDereference
}
