package cli

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/kolah/piglet/internal/config"
	"github.com/kolah/piglet/internal/engine"
	"github.com/kolah/piglet/internal/resolve"
	"github.com/kolah/piglet/internal/templates"
)

// buildEngine wires an import engine from cfg. The returned close function
// releases the backend.
func buildEngine(cfg *config.Config, logger zerolog.Logger) (*engine.Engine, func() error, error) {
	backend, closeBackend, err := engine.NewBackend(engine.BackendConfig{
		Mode:          engine.BackendMode(cfg.Backend.Mode),
		Validation:    resolve.ValidationMode(cfg.Validation.Mode),
		WorkerTimeout: cfg.Backend.WorkerTimeout,
		Logger:        logger,
	})
	if err != nil {
		return nil, nil, err
	}

	scripts, err := templates.NewDefaultEngine(cfg.Templates.Dir)
	if err != nil {
		_ = closeBackend()
		return nil, nil, fmt.Errorf("loading script templates: %w", err)
	}

	eng := engine.New(
		engine.WithBackend(backend),
		engine.WithLogger(logger),
		engine.WithSeed(cfg.Mock.Seed),
		engine.WithPatternTimeout(cfg.Mock.PatternTimeout),
		engine.WithScripts(scripts),
		engine.WithSanitizedDescriptions(cfg.SanitizeHTML),
	)
	return eng, closeBackend, nil
}
