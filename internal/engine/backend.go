package engine

import (
	"fmt"
	"runtime"
	"time"

	"github.com/rs/zerolog"

	"github.com/kolah/piglet/internal/resolve"
	"github.com/kolah/piglet/internal/worker"
)

// BackendMode selects where validation and dereferencing run.
type BackendMode string

const (
	// BackendAuto uses a worker when more than one CPU is available.
	BackendAuto   BackendMode = "auto"
	BackendWorker BackendMode = "worker"
	BackendDirect BackendMode = "direct"
)

func (m BackendMode) Valid() bool {
	switch m {
	case BackendAuto, BackendWorker, BackendDirect:
		return true
	}
	return false
}

// BackendConfig describes the backend to construct.
type BackendConfig struct {
	Mode          BackendMode
	Validation    resolve.ValidationMode
	WorkerTimeout time.Duration
	Logger        zerolog.Logger
}

// NewBackend builds the backend described by cfg. The returned close
// function releases a worker, if one was started.
func NewBackend(cfg BackendConfig) (resolve.Backend, func() error, error) {
	mode := cfg.Mode
	if mode == "" {
		mode = BackendAuto
	}
	if !mode.Valid() {
		return nil, nil, fmt.Errorf("invalid backend mode: %s (valid: auto, worker, direct)", mode)
	}
	validation := cfg.Validation
	if validation == "" {
		validation = resolve.ValidationPassthrough
	}
	if !validation.Valid() {
		return nil, nil, fmt.Errorf("invalid validation mode: %s (valid: passthrough, strict)", validation)
	}

	direct := resolve.NewDirect(
		resolve.WithValidationMode(validation),
		resolve.WithLogger(cfg.Logger.With().Str("component", "resolve").Logger()),
	)

	if mode == BackendAuto {
		mode = BackendDirect
		if runtime.GOMAXPROCS(0) > 1 {
			mode = BackendWorker
		}
	}

	cfg.Logger.Debug().Str("backend", string(mode)).Str("validation", string(validation)).Msg("backend selected")

	if mode == BackendDirect {
		return direct, func() error { return nil }, nil
	}

	client := worker.Start(direct,
		worker.WithTimeout(cfg.WorkerTimeout),
		worker.WithLogger(cfg.Logger),
	)
	return client, client.Close, nil
}
