package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mixtape/internal/curation"
	"github.com/desertthunder/mixtape/internal/observability"
	"github.com/desertthunder/mixtape/internal/services"
	"github.com/desertthunder/mixtape/internal/shared"
	"github.com/desertthunder/mixtape/internal/ui"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// Chat, catalog and title sources are built from the config on demand unless injected.
type Runner struct {
	config     *shared.Config
	configPath string
	chat       services.Chat
	catalog    services.Catalog
	titles     *curation.TitleSources
	metrics    *observability.Metrics
	reporter   *observability.Reporter
	logger     *log.Logger
	output     io.Writer
	palette    *ui.Palette
	now        func() time.Time
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Chat       services.Chat
	Catalog    services.Catalog
	Titles     *curation.TitleSources
	Metrics    *observability.Metrics
	Reporter   *observability.Reporter
	Logger     *log.Logger
	Output     io.Writer
	Now        func() time.Time
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
	if opts.Metrics == nil {
		opts.Metrics = observability.NewMetrics()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		chat:       opts.Chat,
		catalog:    opts.Catalog,
		titles:     opts.Titles,
		metrics:    opts.Metrics,
		reporter:   opts.Reporter,
		logger:     opts.Logger,
		output:     opts.Output,
		palette:    ui.Default,
		now:        opts.Now,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		curateCommand, authCommand, serveCommand, setupCommand, configCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// loadConfig returns the runner's config, or the file named by --config when the flag is set.
func (r *Runner) loadConfig(cmd *cli.Command) (*shared.Config, string, error) {
	if !cmd.IsSet("config") {
		return r.config, r.configPath, nil
	}

	path := cmd.String("config")
	config, err := shared.LoadConfig(path)
	if err != nil {
		return nil, path, err
	}
	return config, path, nil
}

// readConfig loads path when it exists and falls back to the embedded defaults otherwise.
// The environment is applied in both cases.
func readConfig(path string) (*shared.Config, error) {
	if exists(path) {
		return shared.LoadConfig(path)
	}

	config := shared.DefaultConfig()
	if err := shared.ApplyEnv(config); err != nil {
		return config, err
	}
	return config, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

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
	r.writePlain("%v\n", r.palette.Title(title))
	r.writePlain("═══════════════════════════════════════\n")
}
