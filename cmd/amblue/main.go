package main

import (
	"log/slog"
	"os"

	amblue "github.com/alanpramil7/agent-v1"
)

func main() {
	cfg := amblue.LoadAppConfig()

	logger := newLogger(os.Stderr, cfg.LogLevel)
	slog.SetDefault(logger)

	srv := amblue.New(
		amblue.WithHost(cfg.Host),
		amblue.WithPort(cfg.Port),
		amblue.WithConfigFile(cfg.ConfigFile),
		amblue.WithLogger(logger),
	)

	if err := srv.Start(); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}
