package command

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/joeycumines/crew-scheduler/internal/config"
	"github.com/joeycumines/crew-scheduler/internal/present"
	"github.com/joeycumines/crew-scheduler/internal/sim"
)

// RunCommand runs scenario files to completion and reports what every agent
// did.
type RunCommand struct {
	*BaseCommand
	config   *config.Config
	version  string
	flags    simFlags
	format   string
	parallel int
}

// NewRunCommand creates a new run command.
func NewRunCommand(cfg *config.Config, version string) *RunCommand {
	return &RunCommand{
		BaseCommand: NewBaseCommand(
			"run",
			"Run scenario files and report objective changes",
			"run [options] <scenario.yaml>...",
		),
		config:  cfg,
		version: version,
	}
}

// SetupFlags configures the flags for the run command.
func (c *RunCommand) SetupFlags(fs *flag.FlagSet) {
	c.flags.setup(fs)
	fs.StringVar(&c.format, "format", "", "Report format: text, json (default: config [run] format)")
	fs.IntVar(&c.parallel, "parallel", 0, "Scenarios run concurrently (default: config [run] parallel)")
}

// runResult is the outcome of one scenario.
type runResult struct {
	Scenario string           `json:"scenario"`
	Path     string           `json:"path"`
	Run      string           `json:"run"`
	Ticks    []sim.TickReport `json:"ticks"`
	Error    string           `json:"error,omitempty"`
	final    present.Frame
	err      error
}

// Execute runs every scenario.
func (c *RunCommand) Execute(args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		_, _ = fmt.Fprintf(stderr, "Usage: %s\n", c.Usage())
		return fmt.Errorf("no scenario files given")
	}

	schema := config.DefaultSchema()
	format := c.format
	if format == "" {
		format = schema.ResolveIn(c.config, "run", "format")
	}
	if format != "text" && format != "json" {
		return fmt.Errorf("invalid format: %s", format)
	}
	parallel := c.parallel
	if parallel <= 0 {
		parallel, _ = strconv.Atoi(schema.ResolveIn(c.config, "run", "parallel"))
	}

	ctx, stop := signalContext()
	defer stop()

	s, err := openSession(ctx, c.config, c.version, c.flags, stderr)
	if err != nil {
		return err
	}
	defer s.close()

	results, err := runScenarios(ctx, s, args, max(parallel, 1))
	if err != nil {
		return err
	}

	switch format {
	case "json":
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			return err
		}
	default:
		for i, r := range results {
			if i > 0 {
				_, _ = fmt.Fprintln(stdout)
			}
			writeText(stdout, r)
		}
	}

	var errs []error
	for _, r := range results {
		if r.err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.Path, r.err))
		}
	}
	return errors.Join(errs...)
}

// runScenarios runs every file at most limit at a time. Agent failures are
// kept in each result; a scenario that cannot be loaded stops the batch.
func runScenarios(ctx context.Context, s *session, paths []string, limit int) ([]runResult, error) {
	results := make([]runResult, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, path := range paths {
		g.Go(func() error {
			sc, err := sim.LoadScenario(path)
			if err != nil {
				return err
			}
			name := sc.Name
			if name == "" {
				name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
			}
			simulation, err := sc.Build(s.options(name)...)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			reports, err := simulation.Run(ctx, s.ticks, s.dt)
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			r := runResult{
				Scenario: name,
				Path:     path,
				Run:      simulation.RunID(),
				Ticks:    reports,
				err:      err,
			}
			if err != nil {
				r.Error = err.Error()
			}
			var last sim.TickReport
			if len(reports) > 0 {
				last = reports[len(reports)-1]
			}
			r.final = present.Snapshot(simulation, last)
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// writeText prints the objective changes of every agent, then the final
// state.
func writeText(w io.Writer, r runResult) {
	_, _ = fmt.Fprintf(w, "== %s (%s)\n", r.Scenario, r.Path)
	for _, line := range transitions(r.Ticks) {
		_, _ = fmt.Fprintln(w, line)
	}
	_, _ = fmt.Fprintln(w, present.Render(r.final))
}

// transitions lists, per tick, scenario events, deaths, and every agent
// whose objective or order changed.
func transitions(reports []sim.TickReport) []string {
	type state struct{ objective, order string }
	last := map[string]state{}
	var lines []string
	for _, r := range reports {
		prefix := fmt.Sprintf("[%4d t=%6.1f]", r.Seq, r.Elapsed)
		for _, e := range r.Events {
			lines = append(lines, fmt.Sprintf("%s event %s", prefix, e))
		}
		for _, d := range r.Died {
			lines = append(lines, fmt.Sprintf("%s %s died", prefix, d))
		}
		for _, a := range r.Agents {
			now := state{a.Objective, a.Order}
			before, seen := last[a.ID]
			last[a.ID] = now
			if a.Error != "" {
				lines = append(lines, fmt.Sprintf("%s %s error: %s", prefix, a.ID, a.Error))
			}
			if seen && before == now {
				continue
			}
			line := fmt.Sprintf("%s %s: %s", prefix, a.ID, label(a.Objective))
			if seen && before.objective != now.objective {
				line = fmt.Sprintf("%s %s: %s -> %s", prefix, a.ID, label(before.objective), label(a.Objective))
			}
			if a.Objective != "" {
				line += fmt.Sprintf(" (%.0f)", a.Priority)
			}
			if a.Order != "" {
				line += fmt.Sprintf(" order=%q", a.Order)
			}
			if len(a.Targets) > 0 {
				line += " targets=" + strings.Join(a.Targets, ",")
			}
			lines = append(lines, line)
		}
	}
	return lines
}

func label(kind string) string {
	if kind == "" {
		return "-"
	}
	return kind
}
