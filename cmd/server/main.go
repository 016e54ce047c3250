package main

import (
	"fmt"
	"log/slog"
	"os"

	"airport_manager/internal/config"

	"github.com/spf13/cobra"
)

var (
	rootCmd = &cobra.Command{
		Use:          "airport-manager",
		Short:        "Order, payment and customer backend for a custom clothing shop",
		SilenceUsage: true,
		RunE:         serve,
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE:  serve,
	}

	migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE:  migrate,
	}

	seedCmd = &cobra.Command{
		Use:   "seed",
		Short: "Create the owner account and its default categories",
		RunE:  seed,
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the service version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version)
		},
	}

	envFile string
	version = "dev"
)

// loadConfig reads the configuration and installs the JSON logger.
func loadConfig() *config.Config {
	cfg := config.Load(envFile)
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel})))
	return cfg
}

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))
	rootCmd.PersistentFlags().StringVarP(&envFile, "env-file", "e", "", "path to a .env file (optional)")
	rootCmd.AddCommand(serveCmd, migrateCmd, seedCmd, versionCmd)
	if err := rootCmd.Execute(); err != nil {
		slog.Error("command failed", "err", err)
		os.Exit(1)
	}
}
