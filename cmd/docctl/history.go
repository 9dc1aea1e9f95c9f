package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/samakshmehra/document-processing-system/internal/core/domain"
)

type filterFlags struct {
	threadID    string
	sourceAgent string
	stepType    string
	since       string
}

func (f *filterFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.threadID, "thread", "", "Only records of this thread")
	cmd.Flags().StringVar(&f.sourceAgent, "agent", "", "Only records written by this agent")
	cmd.Flags().StringVar(&f.stepType, "step", "", "Only CLASSIFY, EXTRACT or ERROR records")
	cmd.Flags().StringVar(&f.since, "since", "", "Only records at or after this RFC3339 time")
}

func (f *filterFlags) filter() (domain.RecordFilter, error) {
	filter := domain.RecordFilter{
		ThreadID:    f.threadID,
		SourceAgent: f.sourceAgent,
		StepType:    domain.StepType(strings.ToUpper(f.stepType)),
	}
	switch filter.StepType {
	case "", domain.StepClassify, domain.StepExtract, domain.StepError:
	default:
		return domain.RecordFilter{}, fmt.Errorf("unknown step %q", f.stepType)
	}
	if f.since != "" {
		since, err := time.Parse(time.RFC3339, f.since)
		if err != nil {
			return domain.RecordFilter{}, fmt.Errorf("parse --since: %w", err)
		}
		filter.Since = since
	}
	return filter, nil
}

func newHistoryCmd(c *cli) *cobra.Command {
	var flags filterFlags

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded steps in timestamp order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter, err := flags.filter()
			if err != nil {
				return err
			}
			records, err := c.app.History.Search(cmd.Context(), filter)
			if err != nil {
				return err
			}
			views := make([]domain.RecordView, 0, len(records))
			for _, r := range records {
				views = append(views, domain.NewRecordView(r))
			}
			return render(c.out, c.output, views, historyTable)
		},
	}
	flags.bind(cmd)
	return cmd
}

func historyTable(v any) ([]string, [][]string) {
	views := v.([]domain.RecordView)
	rows := make([][]string, 0, len(views))
	for _, r := range views {
		rows = append(rows, []string{
			r.Timestamp.Format(time.RFC3339Nano),
			r.ThreadID,
			r.SourceAgent,
			string(r.StepType),
			r.Summary,
		})
	}
	return []string{"TIMESTAMP", "THREAD", "AGENT", "STEP", "SUMMARY"}, rows
}

func newExportCmd(c *cli) *cobra.Command {
	var (
		flags filterFlags
		out   string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the history to an xlsx workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter, err := flags.filter()
			if err != nil {
				return err
			}
			records, err := c.app.History.Search(cmd.Context(), filter)
			if err != nil {
				return err
			}

			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("create %s: %w", out, err)
			}
			if err := c.app.Exporter.WriteXLSX(f, records); err != nil {
				_ = f.Close()
				return fmt.Errorf("write workbook: %w", err)
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(c.out, "exported %d records to %s\n", len(records), out)
			return nil
		},
	}
	flags.bind(cmd)
	cmd.Flags().StringVar(&out, "out", "history.xlsx", "Destination file")
	return cmd
}
