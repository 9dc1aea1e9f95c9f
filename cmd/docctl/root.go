package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/samakshmehra/document-processing-system/internal/bootstrap"
	"github.com/samakshmehra/document-processing-system/internal/config"
)

type cli struct {
	out     io.Writer
	output  string
	verbose bool
	backend string

	app *bootstrap.App
}

func newRootCmd(out io.Writer) *cobra.Command {
	c := &cli{out: out}

	root := &cobra.Command{
		Use:   "docctl",
		Short: "Classify documents and inspect the shared processing history",
		Long: `docctl routes local files through the classifier and the format agents
and reads back the recorded history. Storage is selected with HISTORY_BACKEND;
use sqlite, postgres or redis to keep history between invocations.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			level := slog.LevelWarn
			if c.verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

			if err := validateOutput(c.output); err != nil {
				return err
			}

			cfg := config.Load()
			if c.backend != "" {
				cfg.HistoryBackend = c.backend
			}
			app, err := bootstrap.New(cmd.Context(), cfg, bootstrap.Options{})
			if err != nil {
				return fmt.Errorf("bootstrap: %w", err)
			}
			c.app = app
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if c.app != nil {
				c.app.Close()
			}
		},
	}

	root.PersistentFlags().StringVarP(&c.output, "output", "o", outputTable, "Output format: table, json or yaml")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&c.backend, "backend", "", "Override HISTORY_BACKEND (memory, sqlite, postgres, redis)")

	root.AddCommand(newProcessCmd(c), newHistoryCmd(c), newExportCmd(c))
	return root
}
