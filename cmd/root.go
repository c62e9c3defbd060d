package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vqt123/construction-cost-estimator/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "cost-estimator",
	Short: "Retrieval-augmented construction cost estimation service",
	Long:  "Answers natural-language construction cost questions by combining pgvector similarity retrieval over a cost-knowledge corpus with an Ollama-hosted model for parameter extraction and narrative estimates.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
