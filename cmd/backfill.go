package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vqt123/construction-cost-estimator/internal/backfill"
)

var backfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Attach embeddings to corpus documents missing one",
	Long:  "Embeds every cost document whose embedding is still null and persists the result. Idempotent; per-document failures are skipped and retried on the next run.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		job := backfill.New(st, newOllamaClient(), backfill.Config{
			Delay:         cfg.Backfill.Delay(),
			ProbeAttempts: cfg.Backfill.ProbeAttempts,
			ProbeDelay:    cfg.Backfill.ProbeDelay(),
		})

		res, err := job.Run(ctx)
		if err != nil {
			return err
		}

		fmt.Printf("Backfill complete: %d processed, %d updated, %d failed\n",
			res.Processed, res.Updated, res.Failed)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(backfillCmd)
}
