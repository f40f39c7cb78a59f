package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/mkbridge/slidekit/internal/shared"
)

// Setup writes a default config.toml for the user to edit.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	if err := shared.CreateConfigFile(configPath); err != nil {
		return err
	}

	r.writePlainln("✓ Created %s", configPath)
	r.writePlain("Add your Gemini API key under [credentials.gemini], or set GEMINI_API_KEY in the environment.\n")
	return nil
}
