package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"vet1stop-platform/internal/config"
	"vet1stop-platform/internal/queue"
)

var enqueueCmd = &cobra.Command{
	Use:   "enqueue",
	Short: "Queue a reclassification for the background worker",
	Args:  cobra.NoArgs,
	RunE:  runEnqueue,
}

var enqueueDryRun bool

func init() {
	enqueueCmd.Flags().BoolVar(&enqueueDryRun, "dry-run", false, "Queue a dry run")
	rootCmd.AddCommand(enqueueCmd)
}

func runEnqueue(cmd *cobra.Command, _ []string) error {
	if env.cfg.RedisURL == "" {
		return errors.New("REDIS_URL is required to queue tasks")
	}
	opt, err := config.RedisOptions(env.cfg)
	if err != nil {
		return err
	}

	client := queue.NewClient(queue.RedisConnOpt(opt))
	defer client.Close()

	requestedBy := "cli"
	if user := os.Getenv("USER"); user != "" {
		requestedBy = "cli:" + user
	}

	info, err := client.EnqueueReclassify(cmd.Context(), enqueueDryRun, requestedBy)
	if errors.Is(err, queue.ErrAlreadyQueued) {
		fmt.Fprintln(cmd.OutOrStdout(), "A reclassification is already queued")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Queued task %s on %s\n", info.ID, info.Queue)
	return nil
}
