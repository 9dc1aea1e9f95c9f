// Package xlsx renders the shared history as an Excel workbook.
package xlsx

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/samakshmehra/document-processing-system/internal/core/domain"
)

const (
	historySheet = "History"
	threadsSheet = "Threads"
)

var historyHeader = []any{"record_id", "thread_id", "correlation_id", "source_agent", "step_type", "timestamp", "summary", "payload"}
var threadsHeader = []any{"thread_id", "records", "format", "intent", "final_step", "first_seen", "last_seen"}

type Exporter struct{}

func NewExporter() *Exporter {
	return &Exporter{}
}

// WriteXLSX writes one row per record to the History sheet and one row per
// thread to the Threads sheet.
func (e *Exporter) WriteXLSX(w io.Writer, records []domain.MemoryRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", historySheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(threadsSheet); err != nil {
		return fmt.Errorf("create threads sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	if err := writeRow(f, historySheet, 1, historyHeader); err != nil {
		return err
	}
	for i, r := range records {
		payload, err := json.Marshal(r.Payload)
		if err != nil {
			return fmt.Errorf("marshal payload %s: %w", r.ID, err)
		}
		row := []any{
			r.ID,
			r.ThreadID,
			r.CorrelationID,
			r.SourceAgent,
			string(r.StepType),
			r.Timestamp.UTC().Format(time.RFC3339Nano),
			r.Payload.Summary(),
			string(payload),
		}
		if err := writeRow(f, historySheet, i+2, row); err != nil {
			return err
		}
	}

	if err := writeRow(f, threadsSheet, 1, threadsHeader); err != nil {
		return err
	}
	for i, t := range summarizeThreads(records) {
		row := []any{
			t.threadID,
			t.count,
			string(t.format),
			string(t.intent),
			string(t.final),
			t.first.UTC().Format(time.RFC3339Nano),
			t.last.UTC().Format(time.RFC3339Nano),
		}
		if err := writeRow(f, threadsSheet, i+2, row); err != nil {
			return err
		}
	}

	for _, sheet := range []string{historySheet, threadsSheet} {
		if err := f.SetRowStyle(sheet, 1, 1, headerStyle); err != nil {
			return fmt.Errorf("style header: %w", err)
		}
		if err := f.SetColWidth(sheet, "A", "H", 22); err != nil {
			return fmt.Errorf("set column width: %w", err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("cell name: %w", err)
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}

type threadSummary struct {
	threadID string
	count    int
	format   domain.Format
	intent   domain.Intent
	final    domain.StepType
	first    time.Time
	last     time.Time
}

func summarizeThreads(records []domain.MemoryRecord) []threadSummary {
	byThread := make(map[string]*threadSummary)
	var order []string
	for _, r := range records {
		t, ok := byThread[r.ThreadID]
		if !ok {
			t = &threadSummary{threadID: r.ThreadID, first: r.Timestamp}
			byThread[r.ThreadID] = t
			order = append(order, r.ThreadID)
		}
		t.count++
		t.final = r.StepType
		if r.Timestamp.After(t.last) {
			t.last = r.Timestamp
		}
		if r.Timestamp.Before(t.first) {
			t.first = r.Timestamp
		}
		if c := r.Payload.Classification; c != nil {
			t.format = c.Format
			t.intent = c.Intent
		}
	}

	out := make([]threadSummary, 0, len(order))
	for _, id := range order {
		out = append(out, *byThread[id])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].first.Before(out[j].first) })
	return out
}
