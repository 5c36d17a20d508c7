package command

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/joeycumines/crew-scheduler/internal/config"
	"github.com/joeycumines/crew-scheduler/internal/sim"
	"github.com/joeycumines/crew-scheduler/internal/telemetry"
)

// simFlags are the flags shared by commands that run simulations.
type simFlags struct {
	ticks    int
	dt       float64
	logLevel string
	logFile  string
}

func (f *simFlags) setup(fs *flag.FlagSet) {
	fs.IntVar(&f.ticks, "ticks", 0, "Ticks to run (default: config sim.ticks)")
	fs.Float64Var(&f.dt, "dt", 0, "Simulated seconds per tick (default: config sim.tick)")
	fs.StringVar(&f.logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	fs.StringVar(&f.logFile, "log-file", "", "Write JSON logs to this file instead of stderr")
}

// session is the shared runtime of one simulation command: logging,
// telemetry, and the scheduler tuning from config.
type session struct {
	logger      *slog.Logger
	settings    sim.Settings
	instruments *telemetry.Instruments
	ticks       int
	dt          float64

	lc       logConfig
	shutdown telemetry.Shutdown
}

func openSession(ctx context.Context, cfg *config.Config, version string, f simFlags, stderr io.Writer) (*session, error) {
	lc, err := resolveLogConfig(f.logFile, f.logLevel, cfg)
	if err != nil {
		return nil, err
	}
	s := &session{lc: lc, logger: lc.logger(stderr)}

	if s.settings, err = cfg.Scheduler(s.logger); err != nil {
		s.lc.close()
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	schema := config.DefaultSchema()
	s.ticks = f.ticks
	if s.ticks <= 0 {
		s.ticks, _ = strconv.Atoi(schema.Resolve(cfg, "sim.ticks"))
	}
	s.dt = f.dt
	if s.dt <= 0 {
		s.dt, _ = strconv.ParseFloat(schema.Resolve(cfg, "sim.tick"), 64)
	}
	if s.ticks <= 0 || s.dt <= 0 {
		s.lc.close()
		return nil, fmt.Errorf("ticks and dt must be positive, got %d and %v", s.ticks, s.dt)
	}

	endpoint := schema.Resolve(cfg, "telemetry.endpoint")
	if s.shutdown, err = telemetry.Init(ctx, endpoint, "crewsim", version, cfg.GetBool("telemetry.insecure")); err != nil {
		s.lc.close()
		return nil, err
	}
	if s.instruments, err = telemetry.NewInstruments(telemetry.Meter()); err != nil {
		s.close()
		return nil, err
	}
	return s, nil
}

// options returns the sim options for one scenario.
func (s *session) options(scenario string) []sim.Option {
	return []sim.Option{
		sim.WithLogger(s.logger.With("scenario", scenario)),
		sim.WithSettings(s.settings),
		sim.WithInstruments(s.instruments),
		sim.WithTracer(telemetry.Tracer()),
	}
}

// close flushes telemetry and closes the log file.
func (s *session) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.shutdown(ctx); err != nil {
		s.logger.Warn("telemetry shutdown failed", "error", err)
	}
	s.lc.close()
}
