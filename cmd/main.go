package main

import (
	"context"
	"os"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/mkbridge/slidekit/internal/services"
	"github.com/mkbridge/slidekit/internal/shared"
)

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		}
	}
	shared.LoadEnvCredentials(config)

	var gemini *services.GeminiService
	if config.HasCredentials() {
		timeout := time.Duration(config.Generation.TimeoutSeconds) * time.Second
		if svc, err := services.NewGeminiService(config.Credentials.Gemini.APIKey, config.Credentials.Gemini.BaseURL, timeout, logger); err == nil {
			gemini = svc
		}
	}

	opts := RunnerOpts{
		Config: config,
		Logger: logger,
	}
	if gemini != nil {
		opts.Text = gemini
		opts.Image = gemini
	}
	runner := NewRunner(opts)

	app := &cli.Command{
		Name:     "slidekit",
		Usage:    "Generate presentation decks from documents with AI-rendered slides",
		Version:  "0.3.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		logger.Fatalf("application error: %v", err)
	}
}
