package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/yunx/internal/services"
	"github.com/desertthunder/yunx/internal/shared"
	"github.com/urfave/cli/v3"
)

const configPath = "config.toml"

func main() {
	logger := shared.NewLogger(nil)

	if err := shared.LoadEnvFile(".env"); err != nil {
		logger.Warn("ignoring env file", "err", err)
	}

	config := shared.DefaultConfig()
	if _, err := os.Stat(configPath); err == nil {
		loaded, err := shared.LoadConfig(configPath)
		if err != nil {
			logger.Fatalf("failed to load %s: %v", configPath, err)
		}
		config = loaded
	} else if err := shared.ApplyEnv(config); err != nil {
		logger.Fatalf("failed to apply environment: %v", err)
	}
	shared.SetLogLevel(logger, shared.ParseLogLevel(config.Log.Level))

	cookie, err := shared.LoadCookie(config.Netease.CookiePath)
	if err != nil {
		logger.Warn("no session cookie, requests are anonymous", "path", config.Netease.CookiePath, "err", err)
	}

	httpClient := services.NewHTTPClient(config.Netease.RequestsPerSecond, config.Netease.Burst, config.Netease.Timeout())
	api := services.NewNeteaseService(services.NeteaseOpts{
		BaseURL:    config.Netease.BaseURL,
		Cookie:     cookie,
		HTTPClient: httpClient,
		Logger:     logger,
	})

	runner := NewRunner(RunnerOpts{
		Config:     config,
		API:        api,
		HTTPClient: httpClient,
		Logger:     logger,
	})

	app := &cli.Command{
		Name:     "yunx",
		Usage:    "Cache NetEase Cloud Music metadata, lyrics and audio",
		Version:  "0.1.0",
		Commands: runner.register(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = app.Run(ctx, os.Args)
	stop()

	if cerr := runner.Close(); cerr != nil {
		logger.Warn("failed to close backends", "err", cerr)
	}

	if err != nil {
		if errors.Is(err, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		}
		logger.Fatalf("application error: %v", err)
	}
}
