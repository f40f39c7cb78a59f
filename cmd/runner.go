package main

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/mkbridge/slidekit/internal/deck"
	"github.com/mkbridge/slidekit/internal/services"
	"github.com/mkbridge/slidekit/internal/shared"
	"github.com/mkbridge/slidekit/internal/tasks"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config *shared.Config
	text   services.TextService
	image  services.ImageService
	store  *deck.Store
	engine *tasks.DeckEngine
	logger *log.Logger
	output io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config *shared.Config
	Text   services.TextService
	Image  services.ImageService
	Logger *log.Logger
	Output io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	store := deck.NewStore()
	engine := tasks.NewDeckEngine(
		opts.Text,
		opts.Image,
		store,
		opts.Config.Generation.RateLimit,
		opts.Config.Generation.MaxSourceChars,
		opts.Logger,
	)

	return &Runner{
		config: opts.Config,
		text:   opts.Text,
		image:  opts.Image,
		store:  store,
		engine: engine,
		logger: opts.Logger,
		output: opts.Output,
	}
}

// SetLogger swaps the runner and engine loggers, used when the TUI takes over the terminal.
// The engine is rebuilt on the same store so in-progress state is preserved.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
	r.engine = tasks.NewDeckEngine(
		r.text,
		r.image,
		r.store,
		r.config.Generation.RateLimit,
		r.config.Generation.MaxSourceChars,
		logger,
	)
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, stylesCommand, outlineCommand, generateCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// requireBackends verifies the generation services were initialized, which
// fails when no API key was found in config, .env, or the environment.
func (r *Runner) requireBackends() error {
	if r.text == nil || r.image == nil {
		return fmt.Errorf("%w: no Gemini API key configured (set credentials.gemini.api_key in config.toml or the GEMINI_API_KEY environment variable)", shared.ErrMissingCredentials)
	}
	return nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
