package objective

import (
	"fmt"
	"log/slog"
)

// Factory constructs a fresh objective. Persistent objectives are rebuilt
// with their factory as soon as they retire.
type Factory func() Objective

type registration struct {
	objective Objective
	factory   Factory
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithManagerLogger sets the logger. Defaults to slog.Default().
func WithManagerLogger(l *slog.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = l
	}
}

// WithSwitchMargin sets the anti-thrashing margin: a challenger must beat
// the active objective's priority by more than margin to take over, unless
// it is ForceRun. Defaults to 0 (strictly greater wins, ties keep the
// active objective).
func WithSwitchMargin(margin float64) ManagerOption {
	return func(m *Manager) {
		m.switchMargin = margin
	}
}

// Manager schedules the top-level objectives of one agent.
type Manager struct {
	logger       *slog.Logger
	switchMargin float64

	registered []registration
	current    Objective
	updated    Objective

	order        Objective
	orderRevoked bool

	lastSeq uint64
	ticked  bool
}

// NewManager creates an empty Manager.
func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{logger: slog.Default()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Register adds a one-shot top-level objective; it is dropped once terminal.
func (m *Manager) Register(o Objective) error {
	if o == nil {
		return &ContractError{Err: ErrNilObjective}
	}
	if o.State().Terminal() {
		return &ContractError{Kind: o.Kind(), Err: ErrTerminal}
	}
	m.registered = append(m.registered, registration{objective: o})
	return nil
}

// RegisterPersistent registers factory() and re-registers a fresh instance,
// in the same slot, whenever the previous one retires.
func (m *Manager) RegisterPersistent(factory Factory) error {
	if factory == nil {
		return &ContractError{Err: ErrNilObjective}
	}
	o := factory()
	if o == nil {
		return &ContractError{Err: ErrNilObjective}
	}
	m.registered = append(m.registered, registration{objective: o, factory: factory})
	return nil
}

// Objectives returns the registered top-level objectives in registration
// order. The current order is not included.
func (m *Manager) Objectives() []Objective {
	out := make([]Objective, 0, len(m.registered))
	for _, r := range m.registered {
		out = append(out, r.objective)
	}
	return out
}

// CurrentObjective returns the objective selected by the latest Tick, or nil.
func (m *Manager) CurrentObjective() Objective { return m.current }

// LastUpdated returns the objective updated by the latest Tick, even if it
// has since retired, or nil when none ran.
func (m *Manager) LastUpdated() Objective { return m.updated }

// CurrentOrder returns the externally assigned objective, or nil. A revoked
// order is still reported until the next Tick abandons it.
func (m *Manager) CurrentOrder() Objective { return m.order }

// SetCurrentOrder assigns a new order, replacing (and abandoning) any
// previous one. The order outranks every registered objective.
func (m *Manager) SetCurrentOrder(o Objective) error {
	if o == nil {
		return &ContractError{Err: ErrNilObjective}
	}
	if o.State().Terminal() {
		return &ContractError{Kind: o.Kind(), Err: ErrTerminal}
	}
	if m.order != nil && m.order != o {
		m.order.Abandon("superseded by a new order")
		if m.current == m.order {
			m.current = nil
		}
	}
	m.order = o
	m.orderRevoked = false
	return nil
}

// ClearCurrentOrder revokes the current order. The order is abandoned at the
// start of the next Tick, never in the middle of an update.
func (m *Manager) ClearCurrentOrder() {
	if m.order != nil {
		m.orderRevoked = true
	}
}

// Tick runs one scheduling step. The only errors are *ContractError values
// (possibly wrapped), which indicate a broken invariant.
func (m *Manager) Tick(tick Tick) error {
	if m.ticked && tick.Seq <= m.lastSeq {
		return &ContractError{Seq: tick.Seq, Err: ErrTickedTwice}
	}
	m.ticked = true
	m.lastSeq = tick.Seq

	if m.order != nil && m.orderRevoked {
		m.order.Abandon("order revoked")
		m.orderRevoked = false
	}
	if m.order != nil && m.order.State().Terminal() {
		m.clearOrder()
	}

	m.reconcile(tick)

	// fresh priorities for every candidate, this tick only
	priorities := make([]float64, len(m.registered))
	for i, r := range m.registered {
		priorities[i] = r.objective.RecomputePriority()
	}
	if m.order != nil {
		m.order.RecomputePriority()
	}

	selected := m.selectObjective(priorities)
	if selected != m.current {
		m.logger.Debug("objective switch",
			"seq", tick.Seq,
			"from", kindOf(m.current),
			"to", kindOf(selected))
	}
	m.current = selected
	m.updated = selected

	var err error
	if selected != nil {
		if uerr := selected.Update(tick); uerr != nil {
			err = fmt.Errorf("update %q: %w", selected.Kind(), uerr)
		}
	}

	m.retire()
	return err
}

func (m *Manager) reconcile(tick Tick) {
	for _, r := range m.registered {
		if v, ok := r.objective.(Reconciler); ok {
			v.Reconcile(tick)
		}
	}
	if v, ok := m.order.(Reconciler); ok {
		v.Reconcile(tick)
	}
}

// selectObjective picks the current order when present, otherwise the
// registered objective with the highest positive priority. Ties go to the
// active objective, then to registration order.
func (m *Manager) selectObjective(priorities []float64) Objective {
	if m.order != nil {
		return m.order
	}
	best := -1
	for i, r := range m.registered {
		if r.objective.State().Terminal() || priorities[i] <= MinPriority {
			continue
		}
		if best < 0 || priorities[i] > priorities[best] {
			best = i
		}
	}
	if best < 0 {
		return nil
	}
	challenger := m.registered[best].objective

	// anti-thrashing: keep the active objective unless clearly beaten
	for i, r := range m.registered {
		if r.objective != m.current || r.objective == challenger {
			continue
		}
		if r.objective.State().Terminal() || priorities[i] <= MinPriority {
			break
		}
		margin := m.switchMargin
		if challenger.ForceRun() {
			margin = 0
		}
		if priorities[best] <= priorities[i]+margin {
			return r.objective
		}
		break
	}
	return challenger
}

// retire drops terminal objectives, rebuilding persistent ones in place.
func (m *Manager) retire() {
	kept := m.registered[:0]
	for _, r := range m.registered {
		if !r.objective.State().Terminal() {
			kept = append(kept, r)
			continue
		}
		if r.objective == m.current {
			m.current = nil
		}
		m.logger.Debug("objective retired",
			"kind", r.objective.Kind(),
			"state", r.objective.State().String(),
			"persistent", r.factory != nil)
		if r.factory == nil {
			continue
		}
		if next := r.factory(); next != nil {
			kept = append(kept, registration{objective: next, factory: r.factory})
		}
	}
	// zero the tail so retired objectives can be collected
	for i := len(kept); i < len(m.registered); i++ {
		m.registered[i] = registration{}
	}
	m.registered = kept

	if m.order != nil && m.order.State().Terminal() {
		m.clearOrder()
	}
}

func (m *Manager) clearOrder() {
	m.logger.Debug("order retired",
		"kind", m.order.Kind(),
		"state", m.order.State().String())
	if m.current == m.order {
		m.current = nil
	}
	m.order = nil
	m.orderRevoked = false
}

func kindOf(o Objective) string {
	if o == nil {
		return ""
	}
	return o.Kind()
}
