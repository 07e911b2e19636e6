package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/heartmarshall/modelboard-ingest/internal/app"
	"github.com/heartmarshall/modelboard-ingest/internal/config"
	"github.com/heartmarshall/modelboard-ingest/internal/service/ingest"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "ingest",
		Short:         "Import model sheets into the talent database",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(
		newUploadCmd(),
		newCheckCmd(),
		newPreviewCmd(),
		newRegenerateCmd(),
		newConfirmCmd(),
		newDeleteCmd(),
		newEnrichCmd(),
		newMigrateCmd(),
	)
	return cmd
}

// session is the wired service graph for one command invocation.
type session struct {
	cfg    *config.Config
	logger *slog.Logger
	*app.Components
}

// run loads configuration, wires services and calls fn. Errors are printed
// as a failure envelope.
func run(ctx context.Context, fn func(s *session) (any, string, error)) error {
	cfg, err := config.Load()
	if err != nil {
		return fail(err)
	}
	logger := app.NewLogger(cfg.Log, "cli")

	c, err := app.Build(ctx, cfg, logger)
	if err != nil {
		return fail(err)
	}
	defer c.Close()

	data, msg, err := fn(&session{cfg: cfg, logger: logger, Components: c})
	if err != nil {
		return fail(err)
	}
	return writeJSON(envelope{Success: true, Message: msg, Data: data})
}

// readUpload loads a sheet from disk the way the API receives it.
func readUpload(path, gender string) (ingest.UploadInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ingest.UploadInput{}, fmt.Errorf("read %s: %w", path, err)
	}
	return ingest.UploadInput{
		Filename: filepath.Base(path),
		Data:     data,
		Gender:   gender,
	}, nil
}
