package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"nhanesci/internal"
	"nhanesci/internal/config"
	"nhanesci/internal/errors"
)

func main() {
	// .env is optional; real environment variables win
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Warning: could not read .env: %v\n", err)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(errors.ExitCode(err))
	}

	logger := internal.NewLogger(cfg.LogLevel)
	internal.DefaultLogger.SetLevel(cfg.LogLevel)

	if err := newRootCmd(cfg, logger).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(errors.ExitCode(err))
	}
}
