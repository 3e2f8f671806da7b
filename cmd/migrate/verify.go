package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"vet1stop-platform/internal/migration"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Print the record count of every partition",
	Args:  cobra.NoArgs,
	RunE:  runVerify,
}

var verifyFormat string

func init() {
	verifyCmd.Flags().StringVar(&verifyFormat, "format", "text", "Output format: text or json")
	rootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, _ []string) error {
	if err := validateFormat(verifyFormat); err != nil {
		return err
	}

	stores, err := openStores()
	if err != nil {
		return err
	}
	defer stores.Close()

	counts, err := migration.NewOrchestrator(stores.Partitions, nil, migration.WithLogger(env.log)).Verify(cmd.Context())
	if err != nil {
		return err
	}
	return writeCounts(cmd.OutOrStdout(), counts, verifyFormat)
}

func writeCounts(w io.Writer, counts []migration.PartitionCount, format string) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(counts)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PARTITION\tCATEGORY\tCOUNT")
	var total int64
	for _, c := range counts {
		fmt.Fprintf(tw, "%s\t%s\t%d\n", c.Partition, c.Category, c.Count)
		total += c.Count
	}
	fmt.Fprintf(tw, "total\t\t%d\n", total)
	return tw.Flush()
}
