package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/mkbridge/slidekit/internal/styles"
)

// Styles prints the visual style catalog.
func (r *Runner) Styles(ctx context.Context, cmd *cli.Command) error {
	catalog := styles.All()

	if cmd.Bool("json") {
		return r.writeJSON(catalog, true)
	}

	r.writePlainHeader("Available Styles")
	for _, style := range catalog {
		marker := " "
		if style.ID == styles.Default() {
			marker = "*"
		}
		r.writePlain("%s %-14s %s\n", marker, style.ID, style.Description)
	}
	r.writePlain("\n* default\n")
	return nil
}
