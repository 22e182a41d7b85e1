package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/kolah/piglet/internal/document"
	"github.com/kolah/piglet/internal/resolve"
)

// DefaultTimeout bounds a single round trip to the worker.
const DefaultTimeout = 30 * time.Second

var (
	// ErrClosed is returned once the worker has been closed or retired.
	ErrClosed = errors.New("worker closed")
	// ErrTimeout is returned when the worker does not answer in time.
	ErrTimeout = errors.New("worker timed out")
)

// Failure is a failure signal reported by the worker.
type Failure struct {
	Type    ResponseType
	Message string
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s failed: %s", f.Type, f.Message)
}

// Client is a resolve.Backend that forwards every call to a worker
// goroutine. Calls are serialised. A timed out worker is retired and every
// later call fails with ErrClosed.
type Client struct {
	mu      sync.Mutex
	worker  *Worker
	cancel  context.CancelFunc
	timeout time.Duration
	closed  bool
	// pending is set when a caller gave up before its response arrived.
	pending bool
	logger  zerolog.Logger
}

var _ resolve.Backend = (*Client)(nil)

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// Start launches a worker serving backend and returns its client. The
// caller owns the worker and must Close it.
func Start(backend resolve.Backend, opts ...Option) *Client {
	c := &Client{
		timeout: DefaultTimeout,
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.worker = newWorker(backend, c.logger.With().Str("component", "worker").Logger())
	go c.worker.run(ctx)
	return c
}

func (c *Client) Validate(ctx context.Context, doc *document.Document) (*document.Document, error) {
	return c.roundTrip(ctx, Request{Type: RequestValidate, Doc: doc})
}

func (c *Client) Dereference(ctx context.Context, doc *document.Document) (*document.Document, error) {
	return c.roundTrip(ctx, Request{Type: RequestDereference, Doc: doc})
}

func (c *Client) roundTrip(ctx context.Context, req Request) (*document.Document, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrClosed
	}

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()

	if c.pending {
		select {
		case <-c.worker.out:
			c.pending = false
		case <-timer.C:
			c.retire()
			return nil, ErrTimeout
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	select {
	case c.worker.in <- req:
	case <-timer.C:
		c.retire()
		return nil, ErrTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case resp := <-c.worker.out:
		if resp.Type != responseTypeFor(req.Type) {
			return nil, fmt.Errorf("unexpected response %q to %q", resp.Type, req.Type)
		}
		if !resp.Data.OK {
			return nil, &Failure{Type: resp.Type, Message: resp.Data.Error}
		}
		return resp.Data.Doc, nil
	case <-timer.C:
		c.retire()
		return nil, ErrTimeout
	case <-ctx.Done():
		// The late response is drained by the next call.
		c.pending = true
		return nil, ctx.Err()
	}
}

// retire abandons the worker. The goroutine exits once its current request
// finishes. Must be called with mu held.
func (c *Client) retire() {
	if c.closed {
		return
	}
	c.closed = true
	c.cancel()
	close(c.worker.in)
	c.logger.Warn().Msg("worker retired")
}

// Close stops the worker and waits for it to exit.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.cancel()
	close(c.worker.in)
	c.mu.Unlock()

	<-c.worker.done
	return nil
}
