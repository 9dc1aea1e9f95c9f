package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/samakshmehra/document-processing-system/internal/core/domain"
)

type processResult struct {
	File     string          `json:"file" yaml:"file"`
	ThreadID string          `json:"thread_id,omitempty" yaml:"thread_id,omitempty"`
	Format   domain.Format   `json:"format,omitempty" yaml:"format,omitempty"`
	Intent   domain.Intent   `json:"intent,omitempty" yaml:"intent,omitempty"`
	Final    domain.StepType `json:"final_step,omitempty" yaml:"final_step,omitempty"`
	Error    string          `json:"error,omitempty" yaml:"error,omitempty"`
}

func newProcessCmd(c *cli) *cobra.Command {
	var parallel int

	cmd := &cobra.Command{
		Use:   "process <file>...",
		Short: "Classify files and run the matching extraction agent",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			results := make([]processResult, len(args))

			g, ctx := errgroup.WithContext(cmd.Context())
			if parallel > 0 {
				g.SetLimit(parallel)
			}
			for i, path := range args {
				g.Go(func() error {
					results[i] = processResult{File: path}
					content, err := os.ReadFile(path)
					if err != nil {
						results[i].Error = err.Error()
						return nil
					}
					outcome, err := c.app.Router.Route(ctx, domain.NewDocument(filepath.Base(path), content))
					if err != nil {
						return fmt.Errorf("route %s: %w", path, err)
					}
					results[i].ThreadID = outcome.ThreadID
					results[i].Format = outcome.Format
					results[i].Intent = outcome.Intent
					results[i].Final = outcome.Final
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			if err := render(c.out, c.output, results, processTable); err != nil {
				return err
			}
			for _, r := range results {
				if r.Error != "" {
					return fmt.Errorf("%s: %s", r.File, r.Error)
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&parallel, "parallel", "p", 4, "Number of files routed concurrently")
	return cmd
}

func processTable(v any) ([]string, [][]string) {
	results := v.([]processResult)
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		rows = append(rows, []string{r.File, r.ThreadID, string(r.Format), string(r.Intent), string(r.Final), r.Error})
	}
	return []string{"FILE", "THREAD", "FORMAT", "INTENT", "FINAL", "ERROR"}, rows
}
