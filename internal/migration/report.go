package migration

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/xuri/excelize/v2"

	"vet1stop-platform/models"
)

// WriteJSON writes the summary as indented JSON
func (s *Summary) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

// WriteText writes a human-readable report with one audit line per record
func (s *Summary) WriteText(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	mode := "live"
	if s.DryRun {
		mode = "dry-run"
	}
	fmt.Fprintf(tw, "Reclassification run %s (%s)\n", s.RunID, mode)
	fmt.Fprintf(tw, "Started:\t%s\n", s.StartedAt.Format(time.RFC3339))
	fmt.Fprintf(tw, "Finished:\t%s\n", s.FinishedAt.Format(time.RFC3339))
	if s.Cancelled {
		fmt.Fprintf(tw, "Status:\tcancelled\n")
	}
	fmt.Fprintf(tw, "Scanned:\t%d\n", s.Scanned)
	fmt.Fprintf(tw, "Moved:\t%d\n", s.TotalMoved())
	for _, c := range models.AllCategories() {
		if n := s.Moved[c]; n > 0 {
			fmt.Fprintf(tw, "  %s:\t%d\n", c, n)
		}
	}
	fmt.Fprintf(tw, "Uncategorized:\t%d\n", s.Uncategorized)
	fmt.Fprintf(tw, "Failed:\t%d\n", s.Failed)
	fmt.Fprintf(tw, "Partial moves:\t%d\n", s.PartialMoves)

	if len(s.Audit) > 0 {
		fmt.Fprintln(tw)
		fmt.Fprintln(tw, "ID\tFROM\tTO\tOUTCOME\tKEYWORD\tAT")
		for _, e := range s.Audit {
			to := e.ToPartition
			if to == "" {
				to = "-"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
				e.ResourceID, e.FromPartition, to, e.Outcome, e.Keyword, e.At.Format(time.RFC3339))
		}
	}
	return tw.Flush()
}

// WriteXLSX writes a workbook with a summary sheet and an audit sheet
func (s *Summary) WriteXLSX(path string) error {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			fmt.Printf("Error closing Excel file: %v\n", err)
		}
	}()

	const summarySheet = "Summary"
	const auditSheet = "Audit"

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}

	rows := [][]any{
		{"Run ID", s.RunID},
		{"Dry run", s.DryRun},
		{"Cancelled", s.Cancelled},
		{"Started", s.StartedAt.Format(time.RFC3339)},
		{"Finished", s.FinishedAt.Format(time.RFC3339)},
		{"Scanned", s.Scanned},
		{"Moved", s.TotalMoved()},
		{"Uncategorized", s.Uncategorized},
		{"Failed", s.Failed},
		{"Partial moves", s.PartialMoves},
	}
	for _, c := range models.AllCategories() {
		if n := s.Moved[c]; n > 0 {
			rows = append(rows, []any{"Moved: " + string(c), n})
		}
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write summary row: %w", err)
		}
	}

	if _, err := f.NewSheet(auditSheet); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	headers := []any{"Resource ID", "Title", "From", "To", "Category", "Keyword", "Outcome", "Error", "At"}
	if err := f.SetSheetRow(auditSheet, "A1", &headers); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}
	for i, e := range s.Audit {
		row := []any{e.ResourceID, e.Title, e.FromPartition, e.ToPartition, string(e.Category), e.Keyword, string(e.Outcome), e.Error, e.At.Format(time.RFC3339)}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(auditSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write audit row: %w", err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}
