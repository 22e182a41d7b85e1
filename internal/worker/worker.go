package worker

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/kolah/piglet/internal/resolve"
)

// Worker answers requests read from its inbox using a backend it owns.
type Worker struct {
	backend resolve.Backend
	in      chan Request
	out     chan Response
	done    chan struct{}
	logger  zerolog.Logger
}

func newWorker(backend resolve.Backend, logger zerolog.Logger) *Worker {
	return &Worker{
		backend: backend,
		in:      make(chan Request),
		out:     make(chan Response, 1),
		done:    make(chan struct{}),
		logger:  logger,
	}
}

// run serves requests until the inbox is closed.
func (w *Worker) run(ctx context.Context) {
	defer close(w.done)
	for req := range w.in {
		resp := w.handle(ctx, req)
		select {
		case w.out <- resp:
		case <-ctx.Done():
			return
		}
	}
}

func (w *Worker) handle(ctx context.Context, req Request) (resp Response) {
	resp.Type = responseTypeFor(req.Type)

	defer func() {
		if r := recover(); r != nil {
			w.logger.Error().Interface("panic", r).Str("type", string(req.Type)).Msg("worker recovered")
			resp.Data = Result{Error: fmt.Sprintf("worker panicked: %v", r)}
		}
	}()

	var err error
	switch req.Type {
	case RequestValidate:
		resp.Data.Doc, err = w.backend.Validate(ctx, req.Doc)
	case RequestDereference:
		resp.Data.Doc, err = w.backend.Dereference(ctx, req.Doc)
	default:
		err = fmt.Errorf("unknown request type %q", req.Type)
	}
	if err != nil {
		resp.Data = Result{Error: err.Error()}
		return resp
	}
	resp.Data.OK = true
	return resp
}
