package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"vet1stop-platform/internal/app"
	"vet1stop-platform/internal/migration"
)

var reclassifyCmd = &cobra.Command{
	Use:   "reclassify",
	Short: "Move undefined resources into their keyword category",
	Long: `Categorizes every record in undefinedResources and moves matches into the
partition of their category. Records matching no rule stay where they are.
Interrupting stops after the record in flight and still prints a report.`,
	Args: cobra.NoArgs,
	RunE: runReclassify,
}

var reclassifyFlags struct {
	dryRun bool
	format string
	xlsx   string
}

func init() {
	f := reclassifyCmd.Flags()
	f.BoolVar(&reclassifyFlags.dryRun, "dry-run", false, "Categorize and report without moving anything")
	f.StringVar(&reclassifyFlags.format, "format", "text", "Report format: text or json")
	f.StringVar(&reclassifyFlags.xlsx, "xlsx", "", "Also write the audit trail to this .xlsx file")
	rootCmd.AddCommand(reclassifyCmd)
}

func runReclassify(cmd *cobra.Command, _ []string) error {
	if err := validateFormat(reclassifyFlags.format); err != nil {
		return err
	}

	stores, err := openStores()
	if err != nil {
		return err
	}
	defer stores.Close()

	categorizer, err := app.Categorizer(env.cfg, env.log)
	if err != nil {
		return err
	}

	o := migration.NewOrchestrator(stores.Partitions, categorizer,
		migration.WithCountsCache(stores.Counts),
		migration.WithMetrics(env.metrics),
		migration.WithLogger(env.log),
	)
	summary, err := o.Run(cmd.Context(), migration.RunOptions{DryRun: reclassifyFlags.dryRun})
	if err != nil {
		return err
	}

	if err := writeSummary(cmd.OutOrStdout(), summary, reclassifyFlags.format); err != nil {
		return err
	}
	if reclassifyFlags.xlsx != "" {
		if err := summary.WriteXLSX(reclassifyFlags.xlsx); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Audit workbook written to %s\n", reclassifyFlags.xlsx)
	}
	if summary.Cancelled {
		return fmt.Errorf("run %s interrupted after %d records", summary.RunID, summary.Scanned)
	}
	return nil
}

func validateFormat(format string) error {
	switch format {
	case "text", "json":
		return nil
	}
	return fmt.Errorf("unknown format %q (want text or json)", format)
}

func writeSummary(w io.Writer, s *migration.Summary, format string) error {
	if format == "json" {
		return s.WriteJSON(w)
	}
	return s.WriteText(w)
}
