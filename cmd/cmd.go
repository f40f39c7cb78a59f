// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// sourceFlags are shared by every command that reads a source document.
func sourceFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "input",
			Aliases: []string{"i"},
			Usage:   "Path to the source document (.txt, .md, .pdf, .docx)",
		},
		&cli.StringFlag{
			Name:  "text",
			Usage: "Source text passed directly on the command line",
		},
		&cli.IntFlag{
			Name:    "slides",
			Aliases: []string{"n"},
			Usage:   "Number of slides to generate",
			Value:   8,
		},
	}
}

// generateCommand runs the full pipeline: outline, render, export.
func generateCommand(r *Runner) *cli.Command {
	flags := append(sourceFlags(),
		&cli.StringFlag{
			Name:    "style",
			Aliases: []string{"s"},
			Usage:   "Visual style id (see 'slidekit styles')",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output PDF path",
		},
		&cli.BoolFlag{
			Name:  "images",
			Usage: "Also save each slide as an image file",
		},
		&cli.BoolFlag{
			Name:  "force",
			Usage: "Export the PDF even if some slides failed, skipping them",
		},
	)

	return &cli.Command{
		Name:    "generate",
		Aliases: []string{"gen"},
		Usage:   "Generate a full slide deck PDF from a document",
		Flags:   flags,
		Action:  r.Generate,
	}
}

// outlineCommand extracts and prints the outline without rendering images.
func outlineCommand(r *Runner) *cli.Command {
	flags := append(sourceFlags(),
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print output",
			Value: true,
		},
	)

	return &cli.Command{
		Name:   "outline",
		Usage:  "Extract a slide outline from a document",
		Flags:  flags,
		Action: r.Outline,
	}
}

// stylesCommand lists the visual style catalog.
func stylesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "styles",
		Usage: "List available visual styles",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Styles,
	}
}

// tuiCommand returns the top-level TUI command for interactive deck generation.
func tuiCommand(r *Runner) *cli.Command {
	flags := append(sourceFlags(),
		&cli.StringFlag{
			Name:    "style",
			Aliases: []string{"s"},
			Usage:   "Visual style id (see 'slidekit styles')",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output PDF path",
		},
	)

	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch interactive TUI for deck generation",
		Flags:   flags,
		Action:  r.TUI,
	}
}

// setupCommand handles configuration scaffolding.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create a config.toml with default settings",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
		},
		Action: r.Setup,
	}
}
