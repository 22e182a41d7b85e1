// Package resolve validates and dereferences classified documents.
//
// Both operations sit behind Backend so the pipeline never knows whether it
// talks to a Direct backend or to a worker.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kolah/piglet/internal/document"
)

// Backend validates and dereferences documents. Implementations never mutate
// the document they are given.
type Backend interface {
	Validate(ctx context.Context, doc *document.Document) (*document.Document, error)
	Dereference(ctx context.Context, doc *document.Document) (*document.Document, error)
}

// ValidationMode selects how much checking Validate performs.
type ValidationMode string

const (
	// ValidationPassthrough returns documents unchanged; validation is
	// assumed to have happened before the import.
	ValidationPassthrough ValidationMode = "passthrough"
	// ValidationStrict checks documents against the OpenAPI schema.
	ValidationStrict ValidationMode = "strict"
)

func (m ValidationMode) Valid() bool {
	return m == ValidationPassthrough || m == ValidationStrict
}

// ErrExternalRefs is returned when dereferencing leaves references to other
// documents behind.
var ErrExternalRefs = errors.New("unresolved external references")

// ValidationError lists the problems strict validation found.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	switch len(e.Problems) {
	case 0:
		return "document is invalid"
	case 1:
		return "document is invalid: " + e.Problems[0]
	}
	return fmt.Sprintf("document is invalid: %s (and %d more)", e.Problems[0], len(e.Problems)-1)
}

func externalRefsError(refs []string) error {
	return fmt.Errorf("%w: %s", ErrExternalRefs, strings.Join(refs, ", "))
}
