package main

import (
	"log/slog"
	"os"

	"github.com/kirillkom/tariff-resolver/internal/config"
	"github.com/kirillkom/tariff-resolver/internal/observability/logging"
)

func main() {
	slog.SetDefault(logging.NewJSONLoggerTo(os.Stderr, "tariffctl", config.Load().LogLevel))

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
