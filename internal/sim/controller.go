package sim

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/joeycumines/crew-scheduler/internal/crew"
	"github.com/joeycumines/crew-scheduler/internal/objective"
	"github.com/joeycumines/crew-scheduler/internal/rescue"
	"github.com/joeycumines/crew-scheduler/internal/world"
)

// ErrUnknownOrder is returned when an order names no known objective kind.
var ErrUnknownOrder = errors.New("unknown order")

// Settings tune every controller of a simulation and its world effects.
type Settings struct {
	Crew   crew.Settings
	Rescue rescue.Settings
	// Evaluator overrides the vitality formula; nil selects the default.
	Evaluator *rescue.Evaluator
	// SwitchMargin is the manager's anti-thrashing margin.
	SwitchMargin float64
	Effects      Effects
}

// DefaultSettings returns the stock tuning.
func DefaultSettings() Settings {
	return Settings{
		Crew:    crew.DefaultSettings(),
		Rescue:  rescue.DefaultSettings(),
		Effects: DefaultEffects(),
	}
}

// Controller drives one non-player agent: its Manager, its own perception of
// unsafe hulls, and the default objective set.
type Controller struct {
	agent   *world.Agent
	manager *objective.Manager
	unsafe  world.UnsafeHulls
	env     rescue.Env
	config  Settings
	logger  *slog.Logger
}

// NewController wires a Manager for a, registering Idle, FindSafety, Combat
// and "rescue all" as persistent objectives.
func NewController(w *world.World, a *world.Agent, peers rescue.PeerQuery, s Settings, logger *slog.Logger) (*Controller, error) {
	if a == nil {
		return nil, fmt.Errorf("new controller: %w", world.ErrEmptyID)
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("agent", a.ID)
	c := &Controller{
		agent: a,
		manager: objective.NewManager(
			objective.WithManagerLogger(logger),
			objective.WithSwitchMargin(s.SwitchMargin),
		),
		unsafe: world.UnsafeHulls{},
		config: s,
		logger: logger,
	}
	c.env = rescue.Env{
		Env: crew.Env{
			Self:       a,
			World:      w,
			Perception: c.unsafe,
			Logger:     logger,
		},
		Manager:   c.manager.View(),
		Peers:     peers,
		Evaluator: s.Evaluator,
		Settings:  s.Rescue,
	}

	for _, f := range []objective.Factory{
		func() objective.Objective { return crew.NewIdle(c.env.Env, s.Crew) },
		func() objective.Objective { return crew.NewFindSafety(c.env.Env, s.Crew) },
		func() objective.Objective { return crew.NewCombat(c.env.Env, s.Crew) },
		func() objective.Objective { return rescue.NewAll(c.env) },
	} {
		if err := c.manager.RegisterPersistent(f); err != nil {
			return nil, fmt.Errorf("new controller %s: %w", a.ID, err)
		}
	}
	return c, nil
}

// Agent returns the driven agent.
func (c *Controller) Agent() *world.Agent { return c.agent }

// View is the read-only scheduler view handed to peers and presentation.
func (c *Controller) View() objective.Introspector { return c.manager.View() }

// Objectives returns the registered objectives, in registration order.
func (c *Controller) Objectives() []objective.Objective { return c.manager.Objectives() }

// LastUpdated returns the objective that ran during the latest tick.
func (c *Controller) LastUpdated() objective.Objective { return c.manager.LastUpdated() }

// Unsafe returns the hulls the agent currently perceives as unsafe, sorted.
func (c *Controller) Unsafe() []world.HullID { return c.unsafe.Sorted() }

// Perceive replaces the agent's perception of unsafe hulls.
func (c *Controller) Perceive(unsafe world.UnsafeHulls) {
	clear(c.unsafe)
	maps.Copy(c.unsafe, unsafe)
}

// IssueOrder replaces the current order with a fresh objective of kind.
func (c *Controller) IssueOrder(kind string) error {
	var o objective.Objective
	switch kind {
	case rescue.KindAll:
		o = rescue.NewAll(c.env)
	case crew.KindFindSafety:
		o = crew.NewFindSafety(c.env.Env, c.config.Crew)
	case crew.KindCombat:
		o = crew.NewCombat(c.env.Env, c.config.Crew)
	default:
		return fmt.Errorf("order %q for %s: %w", kind, c.agent.ID, ErrUnknownOrder)
	}
	if err := c.manager.SetCurrentOrder(o); err != nil {
		return err
	}
	c.logger.Info("order issued", "kind", kind)
	return nil
}

// RevokeOrder revokes the current order; it is abandoned on the next tick.
func (c *Controller) RevokeOrder() {
	if c.manager.CurrentOrder() != nil {
		c.logger.Info("order revoked", "kind", c.manager.CurrentOrder().Kind())
	}
	c.manager.ClearCurrentOrder()
}

// Tick runs one scheduling step, reporting the objectives retired by it.
// An incapacitated agent is not ticked.
func (c *Controller) Tick(tick objective.Tick) (retired []objective.Objective, err error) {
	if !c.agent.Active() {
		return nil, nil
	}
	before := c.manager.Objectives()
	if o := c.manager.CurrentOrder(); o != nil {
		before = append(before, o)
	}
	if err := c.manager.Tick(tick); err != nil {
		return nil, err
	}
	after := c.manager.Objectives()
	if o := c.manager.CurrentOrder(); o != nil {
		after = append(after, o)
	}
	for _, o := range before {
		if !slices.Contains(after, o) {
			retired = append(retired, o)
		}
	}
	return retired, nil
}

// Targets returns the ids tracked by the active "rescue all" objective, the
// order taking precedence, in insertion order.
func (c *Controller) Targets() []string {
	if all, ok := c.manager.CurrentOrder().(*rescue.All); ok {
		return all.TargetIDs()
	}
	for _, o := range c.manager.Objectives() {
		if all, ok := o.(*rescue.All); ok {
			return all.TargetIDs()
		}
	}
	return nil
}

// forgetTarget drops id from every "rescue all" objective without waiting for
// the next reconcile.
func (c *Controller) forgetTarget(id world.AgentID) {
	if all, ok := c.manager.CurrentOrder().(*rescue.All); ok {
		all.Forget(string(id))
	}
	for _, o := range c.manager.Objectives() {
		if all, ok := o.(*rescue.All); ok {
			all.Forget(string(id))
		}
	}
}
