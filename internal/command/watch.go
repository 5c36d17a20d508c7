package command

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/joeycumines/crew-scheduler/internal/config"
	"github.com/joeycumines/crew-scheduler/internal/present"
	"github.com/joeycumines/crew-scheduler/internal/sim"
)

// WatchCommand steps one scenario live in the terminal.
type WatchCommand struct {
	*BaseCommand
	config   *config.Config
	version  string
	flags    simFlags
	interval time.Duration

	// run starts the program; replaced in tests.
	run func(m tea.Model, opts ...tea.ProgramOption) error
}

// NewWatchCommand creates a new watch command.
func NewWatchCommand(cfg *config.Config, version string) *WatchCommand {
	return &WatchCommand{
		BaseCommand: NewBaseCommand(
			"watch",
			"Step a scenario live in the terminal",
			"watch [options] <scenario.yaml>",
		),
		config:  cfg,
		version: version,
		run: func(m tea.Model, opts ...tea.ProgramOption) error {
			_, err := tea.NewProgram(m, opts...).Run()
			return err
		},
	}
}

// SetupFlags configures the flags for the watch command.
func (c *WatchCommand) SetupFlags(fs *flag.FlagSet) {
	c.flags.setup(fs)
	fs.DurationVar(&c.interval, "interval", 0, "Wall-clock time between ticks (default: config [watch] interval)")
}

// Execute runs the interactive view until quit, the tick budget is spent
// and the user quits, or a signal arrives.
func (c *WatchCommand) Execute(args []string, stdout, stderr io.Writer) error {
	if len(args) != 1 {
		_, _ = fmt.Fprintf(stderr, "Usage: %s\n", c.Usage())
		return fmt.Errorf("expected exactly one scenario file")
	}

	schema := config.DefaultSchema()
	interval := c.interval
	if interval <= 0 {
		interval, _ = time.ParseDuration(schema.ResolveIn(c.config, "watch", "interval"))
	}

	ctx, stop := signalContext()
	defer stop()

	// logs would corrupt the alternate screen
	if c.flags.logFile == "" && schema.Resolve(c.config, "log.file") == "" {
		stderr = io.Discard
	}
	s, err := openSession(ctx, c.config, c.version, c.flags, stderr)
	if err != nil {
		return err
	}
	defer s.close()

	sc, err := sim.LoadScenario(args[0])
	if err != nil {
		return err
	}
	simulation, err := sc.Build(s.options(sc.Name)...)
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}

	model := present.NewWatchModel(simulation,
		present.WithInterval(interval),
		present.WithDelta(s.dt),
		present.WithMaxTicks(s.ticks),
		present.WithContext(ctx),
	)
	err = c.run(model,
		tea.WithContext(ctx),
		tea.WithAltScreen(),
		tea.WithOutput(stdout),
		tea.WithInput(os.Stdin),
	)
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
