package resolve

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/getkin/kin-openapi/openapi2"
	"github.com/getkin/kin-openapi/openapi2conv"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/pb33f/libopenapi"
	validator "github.com/pb33f/libopenapi-validator"
	"github.com/pb33f/libopenapi/index"
	"github.com/rs/zerolog"
	"go.yaml.in/yaml/v4"

	"github.com/kolah/piglet/internal/document"
)

// Direct validates and dereferences in the calling goroutine.
type Direct struct {
	validation ValidationMode
	logger     zerolog.Logger
}

type Option func(*Direct)

func WithValidationMode(mode ValidationMode) Option {
	return func(d *Direct) {
		d.validation = mode
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(d *Direct) {
		d.logger = logger
	}
}

func NewDirect(opts ...Option) *Direct {
	d := &Direct{
		validation: ValidationPassthrough,
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Validate returns doc unchanged in passthrough mode. In strict mode OpenAPI
// 3.x documents are checked with libopenapi-validator and Swagger 2.0
// documents are converted and checked with kin-openapi.
func (d *Direct) Validate(ctx context.Context, doc *document.Document) (_ *document.Document, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if d.validation != ValidationStrict {
		return doc, nil
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("validator panicked: %v", r)
		}
	}()

	if doc.IsSwagger2() {
		err = validateSwagger2(ctx, doc)
	} else {
		err = validateOpenAPI3(doc)
	}
	if err != nil {
		d.logger.Debug().Err(err).Str("dialect", string(doc.Dialect)).Msg("validation failed")
		return nil, err
	}
	return doc, nil
}

func validateOpenAPI3(doc *document.Document) error {
	spec, err := document.ToYAML(doc.Root)
	if err != nil {
		return fmt.Errorf("encoding document: %w", err)
	}

	parsed, err := libopenapi.NewDocument(spec)
	if err != nil {
		return fmt.Errorf("parsing document: %w", err)
	}

	v, errs := validator.NewValidator(parsed)
	if len(errs) > 0 {
		return fmt.Errorf("building validator: %w", errors.Join(errs...))
	}

	valid, verrs := v.ValidateDocument()
	if valid {
		return nil
	}
	problems := make([]string, 0, len(verrs))
	for _, e := range verrs {
		msg := e.Message
		if e.Reason != "" {
			msg += ": " + e.Reason
		}
		problems = append(problems, msg)
	}
	return &ValidationError{Problems: problems}
}

func validateSwagger2(ctx context.Context, doc *document.Document) error {
	data, err := document.ToJSON(doc.Root)
	if err != nil {
		return fmt.Errorf("encoding document: %w", err)
	}

	var doc2 openapi2.T
	if err := json.Unmarshal(data, &doc2); err != nil {
		return fmt.Errorf("decoding swagger document: %w", err)
	}

	loader := openapi3.NewLoader()
	loader.Context = ctx
	doc3, err := openapi2conv.ToV3WithLoader(&doc2, loader, nil)
	if err != nil {
		return fmt.Errorf("converting swagger document: %w", err)
	}

	if err := doc3.Validate(ctx); err != nil {
		return &ValidationError{Problems: []string{err.Error()}}
	}
	return nil
}

// Dereference inlines local references in a copy of doc. Circular local
// references are left in place for the schema builder to link. Any resolver
// error or remaining external reference fails the call.
func (d *Direct) Dereference(ctx context.Context, doc *document.Document) (out *document.Document, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("resolver panicked: %v", r)
		}
	}()

	root := document.Clone(doc.Root)
	wrapped := &yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{root}}

	cfg := index.CreateClosedAPIIndexConfig()
	cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	idx := index.NewSpecIndexWithConfig(wrapped, cfg)

	var failures []error
	circular := 0
	for _, e := range index.NewResolver(idx).Resolve() {
		if e.CircularReference != nil {
			circular++
			continue
		}
		failures = append(failures, e)
	}
	if len(failures) > 0 {
		return nil, fmt.Errorf("resolving references: %w", errors.Join(failures...))
	}

	var external []string
	for _, ref := range document.UnresolvedRefs(root) {
		if !document.IsLocalRef(ref) {
			external = append(external, ref)
		}
	}
	if len(external) > 0 {
		return nil, externalRefsError(external)
	}

	if circular > 0 {
		d.logger.Debug().Int("circular", circular).Msg("circular references left in place")
	}
	return doc.WithRoot(root), nil
}
