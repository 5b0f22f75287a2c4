package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/eventstudio/eventstudio-api/config"
	"github.com/eventstudio/eventstudio-api/internal/server"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	var envFile string
	var port string

	flagSet := pflag.NewFlagSet("eventstudio-api", pflag.ContinueOnError)
	flagSet.StringVar(&envFile, "env-file", ".env", "path to a dotenv file loaded before reading the environment")
	flagSet.StringVar(&port, "port", "", "listen port (overrides PORT)")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	if err := godotenv.Load(envFile); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", envFile, err)
		}
		slog.Warn("env file not found, using process environment", "path", envFile)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if port != "" {
		cfg.Port = port
	}

	return server.Start(cfg)
}
