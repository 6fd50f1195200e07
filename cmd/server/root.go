package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/wirecast-server/internal/config"
	applog "github.com/vovakirdan/wirecast-server/internal/log"
)

var (
	version = "dev"
	commit  = "unknown"
)

var configPath string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "wirecast",
	Short: "Live broadcast hub: rooms, chat, tips and WebRTC signaling",
	Long: `wirecast runs the real-time hub that lets one broadcaster stream to many
viewers. It relays WebRTC signaling, fans out chat, likes and tips, and keeps
viewer counts in sync with the stream database.`,
	Version: fmt.Sprintf("%s (commit: %s)", version, commit),
}

// Execute runs the root command. Called once from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file path (default is $WIRECAST_CONFIG_DEFAULT_PATH/config.yaml)")
}

// loadConfig resolves configuration and builds the logger it asks for.
func loadConfig() (config.Config, *zerolog.Logger, error) {
	boot := applog.New("info", "console")
	cfg, path, err := config.Load(boot, configPath)
	if err != nil {
		return cfg, boot, fmt.Errorf("load config: %w", err)
	}
	logger := applog.New(cfg.LogLevel, cfg.LogFormat)
	logger.Debug().Str("config_path", path).Msg("configuration loaded")
	return cfg, logger, nil
}
