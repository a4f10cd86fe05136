package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/kalambet/userdefaults/internal/backend"
	"github.com/kalambet/userdefaults/internal/config"
	"github.com/kalambet/userdefaults/internal/defaults"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "userdefaults",
	Short: "Read and write typed application preferences",
	Long: `Read and write typed application preferences.

Values are one of four kinds: long, double, string and string-array. On
macOS the default backend is CFPreferences (the store behind the defaults
tool); elsewhere preferences live in a JSON file per domain.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if v, _ := cmd.Flags().GetBool("no-color"); v {
			noColor = true
		}
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("domain", "", "preferences domain (default from config)")
	pf.String("backend", "", "backend: auto, memory, file, sqlite, bolt or native")
	pf.String("data-dir", "", "data directory for file, sqlite and bolt backends")
	pf.String("log-level", "", "log level: trace, debug, info, warn or error")
	pf.Bool("no-color", false, "disable colored output")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		printError("%v", err)
		os.Exit(1)
	}
}

// loadConfig reads the config file and environment, then applies any
// persistent flags the user set.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	flags := cmd.Flags()
	if v, _ := flags.GetString("domain"); flags.Changed("domain") {
		cfg.Domain = v
	}
	if v, _ := flags.GetString("backend"); flags.Changed("backend") {
		cfg.Backend.Kind = v
	}
	if v, _ := flags.GetString("data-dir"); flags.Changed("data-dir") {
		cfg.Backend.DataDir = v
	}
	if v, _ := flags.GetString("log-level"); flags.Changed("log-level") {
		cfg.Log.Level = v
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func setupLogging(cmd *cobra.Command, cfg config.Config) {
	level, err := cfg.Log.SlogLevel()
	if err != nil {
		level = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
}

// openStore loads configuration, installs the logger and opens the
// configured backend. The caller closes the store.
func openStore(cmd *cobra.Command) (*defaults.Store, config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, config.Config{}, err
	}
	setupLogging(cmd, cfg)
	s, err := backend.OpenStore(cfg)
	if err != nil {
		return nil, config.Config{}, err
	}
	return s, cfg, nil
}

func closeStore(s *defaults.Store) {
	if err := s.Close(); err != nil {
		printWarning("closing store: %v", err)
	}
}

