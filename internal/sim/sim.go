// Package sim runs crew controllers against a shared world in deterministic,
// single-threaded steps.
//
// Each Tick applies the world's own dynamics and due scenario events,
// refreshes every controller's perception, then ticks the controllers in
// agent id order. A failing or panicking controller is isolated: its error
// is reported and the remaining agents still run.
package sim

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/joeycumines/crew-scheduler/internal/objective"
	"github.com/joeycumines/crew-scheduler/internal/rescue"
	"github.com/joeycumines/crew-scheduler/internal/telemetry"
	"github.com/joeycumines/crew-scheduler/internal/world"
)

// AgentError is the isolated failure of one controller during a tick.
type AgentError struct {
	Agent world.AgentID
	Seq   uint64
	Err   error
}

func (e *AgentError) Error() string {
	return fmt.Sprintf("agent %s: tick %d: %v", e.Agent, e.Seq, e.Err)
}

func (e *AgentError) Unwrap() error { return e.Err }

// Option configures a Simulation.
type Option func(*Simulation)

// WithLogger sets the logger of the simulation and its controllers.
func WithLogger(l *slog.Logger) Option {
	return func(s *Simulation) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithSettings replaces DefaultSettings.
func WithSettings(settings Settings) Option {
	return func(s *Simulation) { s.settings = settings }
}

// WithInstruments records scheduler metrics.
func WithInstruments(i *telemetry.Instruments) Option {
	return func(s *Simulation) { s.instruments = i }
}

// WithTracer records one span per tick.
func WithTracer(t trace.Tracer) Option {
	return func(s *Simulation) { s.tracer = t }
}

// WithRunID fixes the run id, instead of a random one.
func WithRunID(id string) Option {
	return func(s *Simulation) { s.runID = id }
}

// Simulation owns a world and one Controller per non-player agent.
type Simulation struct {
	runID       string
	world       *world.World
	controllers map[world.AgentID]*Controller
	ids         []world.AgentID
	events      []Event
	settings    Settings
	logger      *slog.Logger
	instruments *telemetry.Instruments
	tracer      trace.Tracer
	seq         uint64
	elapsed     float64
}

// New creates a Simulation over w, with a controller for every agent that
// is not a player.
func New(w *world.World, opts ...Option) (*Simulation, error) {
	if w == nil {
		w = world.New()
	}
	s := &Simulation{
		world:       w,
		controllers: make(map[world.AgentID]*Controller),
		settings:    DefaultSettings(),
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.runID == "" {
		s.runID = uuid.NewString()
	}
	if s.tracer == nil {
		s.tracer = telemetry.Tracer()
	}
	s.logger = s.logger.With("run", s.runID)
	for a := range w.Agents() {
		if err := s.manage(a); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Simulation) manage(a *world.Agent) error {
	if a.Player {
		return nil
	}
	c, err := NewController(s.world, a, peerQuery{sim: s}, s.settings, s.logger)
	if err != nil {
		return err
	}
	s.controllers[a.ID] = c
	if i, found := slices.BinarySearch(s.ids, a.ID); !found {
		s.ids = slices.Insert(s.ids, i, a.ID)
	}
	return nil
}

// RunID identifies this run in logs and telemetry.
func (s *Simulation) RunID() string { return s.runID }

// World returns the simulated world.
func (s *Simulation) World() *world.World { return s.world }

// Seq returns the sequence number of the last completed tick.
func (s *Simulation) Seq() uint64 { return s.seq }

// Elapsed returns the simulated seconds so far.
func (s *Simulation) Elapsed() float64 { return s.elapsed }

// Controller returns the controller of the agent with id.
func (s *Simulation) Controller(id world.AgentID) (*Controller, bool) {
	c, ok := s.controllers[id]
	return c, ok
}

// Controllers returns every controller in agent id order.
func (s *Simulation) Controllers() []*Controller {
	out := make([]*Controller, 0, len(s.ids))
	for _, id := range s.ids {
		out = append(out, s.controllers[id])
	}
	return out
}

// AddAgent adds a to the world, with a controller unless it is a player.
func (s *Simulation) AddAgent(a *world.Agent) error {
	if err := s.world.AddAgent(a); err != nil {
		return err
	}
	return s.manage(a)
}

// RemoveAgent destroys the agent with id and drops its controller.
func (s *Simulation) RemoveAgent(id world.AgentID) bool {
	if !s.world.RemoveAgent(id) {
		return false
	}
	delete(s.controllers, id)
	if i, found := slices.BinarySearch(s.ids, id); found {
		s.ids = slices.Delete(s.ids, i, i+1)
	}
	for _, c := range s.controllers {
		c.forgetTarget(id)
	}
	return true
}

// IssueOrder gives the agent with id an order of kind. It is, with
// RevokeOrder, the only way to change an agent's current order.
func (s *Simulation) IssueOrder(id world.AgentID, kind string) error {
	c, ok := s.controllers[id]
	if !ok {
		return fmt.Errorf("issue order to %s: %w", id, world.ErrNotFound)
	}
	return c.IssueOrder(kind)
}

// RevokeOrder revokes the current order of the agent with id.
func (s *Simulation) RevokeOrder(id world.AgentID) error {
	c, ok := s.controllers[id]
	if !ok {
		return fmt.Errorf("revoke order of %s: %w", id, world.ErrNotFound)
	}
	c.RevokeOrder()
	return nil
}

// Schedule queues events; each applies at the start of the tick it names.
// Events for ticks already run are applied on the next tick.
func (s *Simulation) Schedule(events ...Event) {
	s.events = append(s.events, events...)
	slices.SortStableFunc(s.events, func(a, b Event) int { return cmp.Compare(a.Tick, b.Tick) })
}

// Pending returns the number of queued events.
func (s *Simulation) Pending() int { return len(s.events) }

// Tick advances the simulation by dt seconds. Per-agent failures are
// isolated and returned joined, as *AgentError values, alongside the full
// report; only a done ctx stops the tick before it starts.
func (s *Simulation) Tick(ctx context.Context, dt float64) (TickReport, error) {
	if err := ctx.Err(); err != nil {
		return TickReport{}, err
	}
	s.seq++
	s.elapsed += dt
	tick := objective.Tick{Seq: s.seq, Delta: dt}

	ctx, span := s.tracer.Start(ctx, "sim.tick", trace.WithAttributes(
		attribute.String("run", s.runID),
		attribute.Int64("seq", int64(s.seq)),
	))
	defer span.End()

	report := TickReport{Seq: s.seq, Elapsed: s.elapsed}
	var errs []error

	for len(s.events) > 0 && s.events[0].Tick <= s.seq {
		ev := s.events[0]
		s.events = s.events[1:]
		if err := s.apply(ev); err != nil {
			s.logger.Warn("scenario event failed", "seq", s.seq, "event", ev.String(), "error", err)
			report.Events = append(report.Events, ev.String()+": "+err.Error())
			continue
		}
		report.Events = append(report.Events, ev.String())
	}

	for _, id := range s.settings.Effects.apply(s.world, dt) {
		s.logger.Info("agent died", "seq", s.seq, "agent", id)
		report.Died = append(report.Died, string(id))
	}

	hazards := s.world.PerceiveHazards()
	for _, id := range s.ids {
		s.controllers[id].Perceive(hazards)
	}

	for _, id := range slices.Clone(s.ids) {
		c, ok := s.controllers[id]
		if !ok {
			// removed by an earlier controller this tick
			continue
		}
		ar, err := s.tickController(ctx, c, tick)
		if err != nil {
			aerr := &AgentError{Agent: id, Seq: s.seq, Err: err}
			s.logger.Error("controller failed", "seq", s.seq, "agent", id, "error", err)
			ar.Error = err.Error()
			errs = append(errs, aerr)
			s.record(func(i *telemetry.Instruments) { i.AgentErrors.Add(ctx, 1) })
		}
		report.Agents = append(report.Agents, ar)
	}

	s.record(func(i *telemetry.Instruments) { i.Ticks.Add(ctx, 1) })
	err := errors.Join(errs...)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	}
	return report, err
}

// tickController ticks c, converting a panic into an error.
func (s *Simulation) tickController(ctx context.Context, c *Controller, tick objective.Tick) (ar AgentReport, err error) {
	ticked := c.Agent().Active()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
		ar = agentReport(s.settings, c)
		if ticked {
			s.record(func(i *telemetry.Instruments) {
				if ar.Objective != "" {
					i.Selected.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", ar.Objective)))
				}
				i.LoopTargets.Record(ctx, int64(len(ar.Targets)))
			})
		}
	}()
	retired, err := c.Tick(tick)
	for _, o := range retired {
		s.logger.Debug("objective retired",
			"seq", tick.Seq,
			"agent", c.Agent().ID,
			"kind", o.Kind(),
			"state", o.State().String())
	}
	if n := int64(len(retired)); n > 0 {
		s.record(func(i *telemetry.Instruments) { i.Retired.Add(ctx, n) })
	}
	return ar, err
}

func agentReport(s Settings, c *Controller) AgentReport {
	a := c.Agent()
	ar := AgentReport{
		ID:       string(a.ID),
		Hull:     string(a.Hull),
		Vitality: vitality(s, a),
		Active:   a.Active(),
		Targets:  c.Targets(),
	}
	if o := c.LastUpdated(); o != nil && ar.Active {
		ar.Objective = o.Kind()
		ar.Priority = o.Priority()
	}
	if o := c.View().CurrentOrder(); o != nil {
		ar.Order = o.Kind()
	}
	return ar
}

func (s *Simulation) record(f func(*telemetry.Instruments)) {
	if s.instruments != nil {
		f(s.instruments)
	}
}

// Run executes ticks steps of dt seconds and returns every report. Agent
// errors are accumulated; a done ctx stops the run early.
func (s *Simulation) Run(ctx context.Context, ticks int, dt float64) ([]TickReport, error) {
	reports := make([]TickReport, 0, ticks)
	var errs []error
	for range ticks {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		r, err := s.Tick(ctx, dt)
		reports = append(reports, r)
		if err != nil {
			errs = append(errs, err)
		}
	}
	return reports, errors.Join(errs...)
}

func vitality(s Settings, a *world.Agent) float64 {
	if s.Evaluator != nil {
		return s.Evaluator.Vitality(a)
	}
	return rescue.DefaultEvaluator.Vitality(a)
}
