package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/colloquy"
	"github.com/aretw0/colloquy/internal/logging"
	"github.com/aretw0/colloquy/pkg/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "colloquy",
	Short: "Colloquy is a conversational bot runtime",
	Long: `Colloquy keeps per-session conversation state (histories, predicates,
topic) and asks a responder for a reply to each sentence of the input.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "colloquy.yaml", "Path to the configuration file")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error); overrides the config file")
}

// loadConfig reads the config file named by --config.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	return config.Load(path)
}

func newLogger(cmd *cobra.Command, cfg config.Config) (*slog.Logger, error) {
	levelName := cfg.LogLevel
	if cmd.Flags().Changed("log-level") {
		levelName, _ = cmd.Flags().GetString("log-level")
	}
	level, err := logging.ParseLevel(levelName)
	if err != nil {
		return nil, err
	}
	return logging.New(level), nil
}

// openBot builds a bot from the command's flags. reg may be nil.
func openBot(cmd *cobra.Command, reg prometheus.Registerer) (*colloquy.Bot, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(cmd, cfg)
	if err != nil {
		return nil, err
	}
	opts := []colloquy.Option{colloquy.WithLogger(logger)}
	if reg != nil {
		opts = append(opts, colloquy.WithMetrics(reg))
	}
	bot, err := colloquy.New(cfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize colloquy: %w", err)
	}
	return bot, nil
}
