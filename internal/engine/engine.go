// Package engine runs the import pipeline: load, classify, validate,
// dereference and convert. Every stage finishes for the whole batch before
// the next one starts, and output order follows input order.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.yaml.in/yaml/v4"

	"github.com/kolah/piglet/internal/convert"
	"github.com/kolah/piglet/internal/document"
	"github.com/kolah/piglet/internal/importerr"
	"github.com/kolah/piglet/internal/mock"
	"github.com/kolah/piglet/internal/model"
	"github.com/kolah/piglet/internal/resolve"
	"github.com/kolah/piglet/internal/templates"
)

// Engine imports batches of API description documents. Import may be
// called concurrently as long as the backend allows it.
type Engine struct {
	backend        resolve.Backend
	logger         zerolog.Logger
	seed           uint64
	patternTimeout time.Duration
	scripts        templates.Engine
	sanitize       bool
}

type Option func(*Engine)

func WithBackend(b resolve.Backend) Option {
	return func(e *Engine) {
		e.backend = b
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithSeed fixes the mock generator seed. Zero picks a random seed per
// import.
func WithSeed(seed uint64) Option {
	return func(e *Engine) {
		e.seed = seed
	}
}

func WithPatternTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.patternTimeout = d
	}
}

func WithScripts(s templates.Engine) Option {
	return func(e *Engine) {
		e.scripts = s
	}
}

func WithSanitizedDescriptions(enabled bool) Option {
	return func(e *Engine) {
		e.sanitize = enabled
	}
}

func New(opts ...Option) *Engine {
	e := &Engine{
		logger:         zerolog.Nop(),
		patternTimeout: mock.DefaultPatternTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.backend == nil {
		e.backend = resolve.NewDirect(resolve.WithLogger(e.logger))
	}
	return e
}

// entry is a classified document with its position in the input batch.
type entry struct {
	index int
	doc   *document.Document
}

// Import converts every file into a collection. The batch fails with
// invalid_file_format when any file is unparseable or none is an API
// description, and with deref_error when no document could be converted.
// Everything else degrades per document.
func (e *Engine) Import(ctx context.Context, files [][]byte, origin string) ([]model.Collection, error) {
	entries, err := e.load(files)
	if err != nil {
		return nil, err
	}

	for i := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		entries[i].doc = e.validate(ctx, entries[i])
	}

	for i := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		entries[i].doc = e.dereference(ctx, entries[i])
	}

	return e.convert(ctx, entries, origin)
}

func (e *Engine) load(files [][]byte) ([]entry, error) {
	type parsed struct {
		root   *yaml.Node
		format document.Format
	}

	all := make([]parsed, len(files))
	for i, data := range files {
		root, format, err := document.Parse(data)
		if err != nil {
			e.logger.Error().Err(err).Str("stage", "load").Int("doc", i).Msg("unparseable document")
			return nil, importerr.Fatal(importerr.KindInvalidFileFormat, fmt.Errorf("document %d: %w", i, err))
		}
		all[i] = parsed{root: root, format: format}
	}

	var entries []entry
	for i, p := range all {
		doc, ok := document.Classify(p.root, p.format)
		if !ok {
			e.logger.Warn().Str("stage", "classify").Int("doc", i).Msg("not an API description, skipping")
			continue
		}
		e.logger.Debug().Str("stage", "classify").Int("doc", i).Str("dialect", string(doc.Dialect)).Msg("classified")
		entries = append(entries, entry{index: i, doc: doc})
	}
	if len(entries) == 0 {
		return nil, importerr.Fatal(importerr.KindInvalidFileFormat, errors.New("no document is an API description"))
	}
	return entries, nil
}

// validate keeps the unvalidated document when validation fails. Every
// classified document carries paths, so it is always plausible enough.
func (e *Engine) validate(ctx context.Context, en entry) *document.Document {
	out, err := e.backend.Validate(ctx, en.doc)
	if err == nil && out != nil {
		return out
	}
	rerr := importerr.Recoverable(importerr.KindCouldNotValidate, en.index, err)
	e.logger.Warn().Err(rerr).Str("stage", "validate").Int("doc", en.index).Msg("using unvalidated document")
	return en.doc
}

// dereference falls back to the original document on failure, warning when
// it still holds references.
func (e *Engine) dereference(ctx context.Context, en entry) *document.Document {
	out, err := e.backend.Dereference(ctx, en.doc)
	if err == nil && out != nil {
		return out
	}
	rerr := importerr.Recoverable(importerr.KindCouldNotDereference, en.index, err)
	ev := e.logger.Warn().Err(rerr).Str("stage", "dereference").Int("doc", en.index)
	if refs := document.UnresolvedRefs(en.doc.Root); len(refs) > 0 {
		ev.Strs("refs", refs).Msg("document still contains unresolved references")
		return en.doc
	}
	ev.Msg("using original document")
	return en.doc
}

func (e *Engine) convert(ctx context.Context, entries []entry, origin string) ([]model.Collection, error) {
	conv := convert.New(
		mock.New(mock.NewFakerProvider(e.seed, e.patternTimeout)),
		convert.WithScripts(e.scripts),
		convert.WithSanitizedDescriptions(e.sanitize),
		convert.WithLogger(e.logger.With().Str("stage", "convert").Logger()),
	)

	collections := make([]model.Collection, 0, len(entries))
	var failures []error
	for _, en := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		col, err := convertOne(conv, en, origin)
		if err != nil {
			e.logger.Error().Err(err).Str("stage", "convert").Int("doc", en.index).Msg("conversion failed")
			failures = append(failures, err)
			continue
		}
		collections = append(collections, col)
	}

	if len(collections) == 0 {
		return nil, importerr.Fatal(importerr.KindDerefError, errors.Join(failures...))
	}
	return collections, nil
}

func convertOne(conv *convert.Converter, en entry, origin string) (col model.Collection, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = importerr.Recoverable(importerr.KindDerefError, en.index, fmt.Errorf("converter panicked: %v", r))
		}
	}()
	col, err = conv.Convert(en.doc, origin)
	if err != nil {
		return model.Collection{}, importerr.Recoverable(importerr.KindDerefError, en.index, err)
	}
	return col, nil
}
