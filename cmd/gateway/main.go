// AngelaMos | 2026
// main.go

package main

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var configPath string

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to load .env file", "error", err)
	}

	if err := rootCmd().Execute(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "gateway",
		Short:         "Multi-tenant platform gateway",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "path to config file")

	root.AddCommand(serveCmd(), migrateCmd())
	return root
}

// resolvedConfigPath drops the default file name when no such file exists so
// env-only deployments still load.
func resolvedConfigPath() string {
	if configPath == "" {
		return ""
	}
	if _, err := os.Stat(configPath); errors.Is(err, fs.ErrNotExist) {
		return ""
	}
	return configPath
}
