package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"vet1stop-platform/models"
)

var seedCmd = &cobra.Command{
	Use:   "seed [file.json]",
	Short: "Import resources from a JSON array into a partition",
	Long: `Reads a JSON array of resources and inserts them into the partition of
--category (undefined by default). Missing dateAdded and createdAt are set to now.`,
	Args: cobra.ExactArgs(1),
	RunE: runSeed,
}

var seedCategory string

func init() {
	seedCmd.Flags().StringVar(&seedCategory, "category", string(models.CategoryUndefined), "Target category partition")
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, args []string) error {
	category, err := models.ParseCategory(seedCategory)
	if err != nil {
		return err
	}

	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	records, err := decodeSeed(f, category, time.Now().UTC())
	if err != nil {
		return err
	}

	stores, err := openStores()
	if err != nil {
		return err
	}
	defer stores.Close()

	target := stores.Partitions.Partition(category)
	inserted := 0
	for i := range records {
		if _, err := target.InsertOne(cmd.Context(), &records[i]); err != nil {
			env.log.Error("seed insert failed", "title", records[i].Title, "error", err)
			continue
		}
		inserted++
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Inserted %d of %d resources into %s\n", inserted, len(records), category.Partition())
	return nil
}

// decodeSeed parses a JSON array of resources and stamps category and timestamps
func decodeSeed(r io.Reader, category models.Category, now time.Time) ([]models.Resource, error) {
	var records []models.Resource
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode seed file: %w", err)
	}
	for i := range records {
		rec := &records[i]
		if rec.Title == "" {
			return nil, fmt.Errorf("record %d has no title", i)
		}
		rec.Category = category
		if rec.DateAdded.IsZero() {
			rec.DateAdded = now
		}
		if rec.CreatedAt.IsZero() {
			rec.CreatedAt = now
		}
		rec.UpdatedAt = now
	}
	return records, nil
}
