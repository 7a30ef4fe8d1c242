// Package main is the entry point for the visitd daemon, the subject service
// the visitwatch dashboard talks to.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/tOgg1/visitwatch/internal/config"
	"github.com/tOgg1/visitwatch/internal/logging"
	"github.com/tOgg1/visitwatch/internal/visitd"
)

// Version information (set by goreleaser)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	addr := flag.String("addr", "", "listen address (default server.addr from config)")
	dbPath := flag.String("db", "", "database file (default <data_dir>/visitwatch.db)")
	configFile := flag.String("config", "", "config file (default is $HOME/.config/visitwatch/config.yaml)")
	logLevel := flag.String("log-level", "", "override logging level (debug, info, warn, error)")
	logFormat := flag.String("log-format", "", "override logging format (json, console)")
	flag.Parse()

	cfg, loader, err := loadConfig(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	if *logFormat != "" {
		cfg.Logging.Format = *logFormat
	}

	out, closer, err := logging.Output(cfg.Logging.File, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening log file: %v\n", err)
		os.Exit(1)
	}
	defer closer.Close()

	logging.Init(logging.Config{
		Level:        cfg.Logging.Level,
		Format:       cfg.Logging.Format,
		Output:       out,
		EnableCaller: cfg.Logging.EnableCaller,
		NoColor:      cfg.Logging.File != "",
	})
	logger := logging.Component("visitd")

	if err := cfg.EnsureDirectories(); err != nil {
		logger.Warn().Err(err).Msg("failed to create directories")
	}

	if cfgUsed := loader.ConfigFileUsed(); cfgUsed != "" {
		logger.Debug().Str("config_file", cfgUsed).Msg("loaded config file")
	}

	logger.Info().
		Str("version", version).
		Str("commit", commit).
		Str("built", date).
		Msg("visitd starting")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	daemon, err := visitd.New(ctx, cfg, logger, visitd.Options{
		Addr:         *addr,
		DatabasePath: *dbPath,
	})
	if err != nil {
		logger.Error().Err(err).Msg("failed to initialize visitd")
		os.Exit(1)
	}

	runErr := daemon.Run(ctx)
	if err := daemon.Close(); err != nil {
		logger.Warn().Err(err).Msg("failed to close database")
	}
	if runErr != nil {
		logger.Error().Err(runErr).Msg("visitd exited with error")
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, *config.Loader, error) {
	loader := config.NewLoader()
	if path != "" {
		loader.SetConfigFile(path)
	}
	cfg, err := loader.Load()
	if err != nil {
		return nil, nil, err
	}
	return cfg, loader, nil
}
