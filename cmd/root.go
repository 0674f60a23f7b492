package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/solarch/roofscout/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "roofscout",
	Short: "Large-roof building discovery from OpenStreetMap",
	Long:  "Queries Overpass for building footprints around a point, projects them to LV95, scores roofs by area and compactness, and exports ranked candidates.",
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
