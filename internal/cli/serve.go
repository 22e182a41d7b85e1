package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kolah/piglet/internal/config"
	"github.com/kolah/piglet/internal/server"
)

func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the import API over HTTP",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}

	flags := cmd.Flags()
	flags.String("addr", "", "Listen address (default :8080)")
	flags.String("token", "", "Require this token as a bearer token or X-Piglet-Token header")

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cmd.ErrOrStderr(), cfg.Level())

	eng, closeBackend, err := buildEngine(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeBackend(); err != nil {
			logger.Warn().Err(err).Msg("closing backend")
		}
	}()

	srv, err := server.New(eng,
		server.WithLogger(logger.With().Str("component", "server").Logger()),
		server.WithToken(cfg.Server.Token),
	)
	if err != nil {
		return err
	}
	if cfg.Server.Token == "" {
		logger.Warn().Msg("no token configured, the import API is open")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return srv.ListenAndServe(ctx, cfg.Server.Addr)
}
