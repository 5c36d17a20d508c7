package objective

import (
	"fmt"
	"log/slog"
	"math"
)

// Priority bounds used by every objective in this package.
const (
	MinPriority = 0
	MaxPriority = 100
)

// State is the lifecycle state of an Objective.
type State int

const (
	// Pending objectives have been constructed but never updated.
	Pending State = iota
	// Active objectives have received at least one Update.
	Active
	// Completed objectives reached their goal.
	Completed
	// Abandoned objectives could not make progress, or were revoked.
	Abandoned
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Active:
		return "active"
	case Completed:
		return "completed"
	case Abandoned:
		return "abandoned"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Terminal reports whether s is Completed or Abandoned.
func (s State) Terminal() bool {
	return s == Completed || s == Abandoned
}

// Tick identifies one simulation step.
type Tick struct {
	// Seq increases by one every simulation step, starting at 1.
	Seq uint64
	// Delta is the simulated time since the previous step, in seconds.
	Delta float64
}

// Objective is one unit of intended behaviour.
type Objective interface {
	// Kind is a short, stable, human readable tag (e.g. "rescue all").
	Kind() string

	// RecomputePriority evaluates the objective against the current world
	// state. It must not mutate anything except the cached value returned
	// by Priority.
	RecomputePriority() float64

	// Priority returns the value computed by the last RecomputePriority.
	// It is for reporting only and must never be compared across ticks.
	Priority() float64

	// Update advances the objective by one tick. It returns a
	// *ContractError if called on a terminal objective or twice in one
	// tick. World edge cases never produce errors; the objective abandons
	// itself instead.
	Update(tick Tick) error

	// Abandon moves a non-terminal objective to Abandoned. It is a no-op
	// on terminal objectives.
	Abandon(reason string)

	State() State
	IsCompleted() bool
	IsAbandoned() bool

	// ForceRun objectives may preempt the active objective on any strictly
	// higher priority, ignoring the Manager's switch margin.
	ForceRun() bool
}

// Reconciler is implemented by objectives that need a bookkeeping pass
// every tick before priorities are compared (e.g. Loop).
type Reconciler interface {
	Reconcile(tick Tick)
}

// Delegator is implemented by objectives that run child objectives. It
// exposes the child that received (or will receive) the latest update.
type Delegator interface {
	ActiveChild() Objective
}

// Option configures a Base.
type Option func(*Base)

// WithPriorityModifier scales the objective's priority. The result is still
// clamped to [MinPriority, MaxPriority].
func WithPriorityModifier(m float64) Option {
	return func(b *Base) {
		b.modifier = m
	}
}

// WithLogger sets the logger used for diagnostics (abandoned children,
// behaviour errors). Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(b *Base) {
		b.logger = l
	}
}

// WithForceRun marks the objective as ForceRun.
func WithForceRun() Option {
	return func(b *Base) {
		b.forceRun = true
	}
}

// Base implements the lifecycle, contract checks and cached priority shared
// by every objective. Concrete objectives embed it and call Begin at the top
// of Update.
type Base struct {
	kind     string
	state    State
	priority float64
	modifier float64
	forceRun bool
	lastSeq  uint64
	reason   string
	logger   *slog.Logger
}

// NewBase creates a Pending Base.
func NewBase(kind string, opts ...Option) Base {
	b := Base{kind: kind, modifier: 1}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

// Kind implements Objective.Kind.
func (b *Base) Kind() string { return b.kind }

// Priority implements Objective.Priority.
func (b *Base) Priority() float64 { return b.priority }

// Logger returns the configured logger, or slog.Default().
func (b *Base) Logger() *slog.Logger {
	if b.logger == nil {
		return slog.Default()
	}
	return b.logger
}

// PriorityModifier returns the multiplier applied by SetPriority.
func (b *Base) PriorityModifier() float64 { return b.modifier }

// ForceRun implements Objective.ForceRun.
func (b *Base) ForceRun() bool { return b.forceRun }

// State implements Objective.State.
func (b *Base) State() State { return b.state }

// IsCompleted implements Objective.IsCompleted.
func (b *Base) IsCompleted() bool { return b.state == Completed }

// IsAbandoned implements Objective.IsAbandoned.
func (b *Base) IsAbandoned() bool { return b.state == Abandoned }

// AbandonReason returns the reason passed to Abandon, for diagnostics.
func (b *Base) AbandonReason() string { return b.reason }

// SetPriority applies the modifier, clamps, caches and returns the value.
func (b *Base) SetPriority(p float64) float64 {
	b.priority = ClampPriority(p * b.modifier)
	return b.priority
}

// Begin enforces the Update contract and activates a Pending objective.
func (b *Base) Begin(tick Tick) error {
	if b.state.Terminal() {
		return &ContractError{Kind: b.kind, Seq: tick.Seq, Err: ErrTerminal}
	}
	if b.lastSeq != 0 && tick.Seq == b.lastSeq {
		return &ContractError{Kind: b.kind, Seq: tick.Seq, Err: ErrUpdatedTwice}
	}
	b.lastSeq = tick.Seq
	if b.state == Pending {
		b.state = Active
	}
	return nil
}

// Complete moves a non-terminal objective to Completed.
func (b *Base) Complete() {
	if !b.state.Terminal() {
		b.state = Completed
	}
}

// Abandon implements Objective.Abandon.
func (b *Base) Abandon(reason string) {
	if !b.state.Terminal() {
		b.state = Abandoned
		b.reason = reason
	}
}

// ClampPriority clamps p to [MinPriority, MaxPriority]; NaN maps to
// MinPriority.
func ClampPriority(p float64) float64 {
	return Clamp(p, MinPriority, MaxPriority)
}

// Clamp clamps v to [lo, hi]; NaN maps to lo.
func Clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
