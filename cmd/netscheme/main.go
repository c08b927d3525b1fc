package main

import (
	"fmt"
	"os"

	"netscheme/internal/config"
	"netscheme/internal/logger"
	"netscheme/internal/logger/console"

	"github.com/spf13/cobra"
)

var (
	configPath string
	logLevel   string

	// cfg is loaded once by the root command before any subcommand runs
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "netscheme",
	Short: "Builds display representations of neural network models",
	Long: `netscheme ingests populations and projections of a network model,
scales them against the dataset maxima and emits the resulting
representations for a renderer.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: search "+config.EnvConfigPath+" and standard paths)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log level (debug, info, warn, error)")

	rootCmd.AddCommand(loadCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(statsCmd)
}

func setup(cmd *cobra.Command, args []string) error {
	var (
		path string
		err  error
	)
	if configPath != "" {
		cfg, path, err = config.LoadFromPath(configPath)
	} else {
		cfg, path, err = config.Load()
	}
	if err != nil {
		return err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}

	logger.Init(console.New(console.Params{
		Level:      cfg.Log.Level,
		Timestamps: cfg.Log.Timestamps,
		Output:     os.Stderr,
	}))
	if path != "" {
		logger.Debug("config loaded", "path", path)
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
