package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kolah/piglet/internal/config"
	"github.com/kolah/piglet/internal/loader"
)

func NewImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import [files...]",
		Short: "Convert OpenAPI/Swagger documents into collections (- reads stdin)",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runImport,
	}

	flags := cmd.Flags()
	flags.StringP("output", "o", "", "Output file (- for stdout)")
	flags.Bool("pretty", true, "Indent JSON output")

	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cmd.ErrOrStderr(), cfg.Level())

	sources, err := loader.ReadFiles(args, cmd.InOrStdin())
	if err != nil {
		return err
	}

	eng, closeBackend, err := buildEngine(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeBackend(); err != nil {
			logger.Warn().Err(err).Msg("closing backend")
		}
	}()

	collections, err := eng.Import(cmd.Context(), loader.Contents(sources), cfg.Origin)
	if err != nil {
		return fmt.Errorf("importing: %w", err)
	}

	var data []byte
	if cfg.Pretty {
		data, err = json.MarshalIndent(collections, "", "  ")
	} else {
		data, err = json.Marshal(collections)
	}
	if err != nil {
		return fmt.Errorf("encoding collections: %w", err)
	}
	data = append(data, '\n')

	if cfg.Output == "-" {
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}

	if err := os.WriteFile(cfg.Output, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", cfg.Output, err)
	}
	cmd.PrintErrf("Written: %s (%d collections)\n", cfg.Output, len(collections))
	return nil
}
