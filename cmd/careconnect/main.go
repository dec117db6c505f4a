package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/abdulhamidalthaljy/CareConnect/internal/config"
	"github.com/abdulhamidalthaljy/CareConnect/pkg/logger"
)

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:          "careconnect",
		Short:        "CareConnect clinic portal",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to the YAML config file")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads configuration and installs the global logger.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger.Setup(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	return cfg, nil
}
