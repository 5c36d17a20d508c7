package objective

import (
	"fmt"
	"iter"
	"math"
)

// Policy supplies the domain rules of a Loop.
type Policy[T any] interface {
	// Candidates is the live candidate source. It is re-queried on every
	// reconciliation; population changes must be visible immediately.
	Candidates() iter.Seq[T]

	// TargetID returns a stable identity for target. Tracking is keyed by
	// this value, never by reference.
	TargetID(target T) string

	// Filter is the validity predicate. It must be deterministic for an
	// unchanged world state.
	Filter(target T) bool

	// Urgency scores one tracked target. Lower means more urgent when the
	// policy implements InverseEvaluator, higher otherwise.
	Urgency(target T) float64

	// Evaluate combines the tracked targets (in insertion order, never
	// empty) into one value for the whole goal.
	Evaluate(tracked []T) float64

	// NewChild constructs the single-target child objective. Returning nil
	// skips the candidate for this tick.
	NewChild(target T) Objective

	// OnChildCompleted is called once, when a child reports Completed,
	// right before its target is released.
	OnChildCompleted(child Objective, target T)
}

// InverseEvaluator is optionally implemented by a Policy whose Urgency and
// Evaluate use the "lower is more urgent" convention. The Loop converts the
// evaluation to a priority as MaxPriority - value.
type InverseEvaluator interface {
	InverseTargetEvaluation() bool
}

// RunAller is optionally implemented by a Policy whose goal updates every
// tracked child each tick, instead of only the most urgent one.
type RunAller interface {
	RunAllTargets() bool
}

// Holder is optionally implemented by a Policy whose goal must stay active
// while it tracks nothing, e.g. for as long as it is held as an order. It is
// asked every tick.
type Holder interface {
	HoldWhenEmpty() bool
}

type loopEntry[T any] struct {
	target T
	child  Objective
}

// Loop maintains a dynamic set of targets, each backed by exactly one child
// objective, reconciled every tick against the policy's candidate source.
//
// Reconciliation (once per tick, always before Update):
//
//  1. re-filter tracked targets; failures (or targets missing from the
//     candidate source) are released and their child abandoned
//  2. track every new candidate passing the filter, constructing its child
//  3. release targets whose child completed (invoking OnChildCompleted) or
//     abandoned itself
//
// Update then delegates to the tracked child with the lowest urgency (or
// highest, for non-inverse policies), ties broken by insertion order. A Loop
// with nothing left to track completes.
type Loop[T any] struct {
	Base
	policy  Policy[T]
	inverse bool
	runAll  bool

	order   []string
	tracked map[string]*loopEntry[T]
	active  Objective

	reconciledSeq uint64
	reconciled    bool
}

var (
	_ Objective  = (*Loop[any])(nil)
	_ Reconciler = (*Loop[any])(nil)
	_ Delegator  = (*Loop[any])(nil)
)

// NewLoop creates a Pending Loop driven by policy.
//
// Panics if policy is nil.
func NewLoop[T any](kind string, policy Policy[T], opts ...Option) *Loop[T] {
	if policy == nil {
		panic(fmt.Sprintf("objective.NewLoop: policy parameter cannot be nil (kind=%s)", kind))
	}
	l := &Loop[T]{
		Base:    NewBase(kind, opts...),
		policy:  policy,
		tracked: make(map[string]*loopEntry[T]),
	}
	if v, ok := policy.(InverseEvaluator); ok {
		l.inverse = v.InverseTargetEvaluation()
	}
	if v, ok := policy.(RunAller); ok {
		l.runAll = v.RunAllTargets()
	}
	return l
}

// Reconcile implements Reconciler. It runs at most once per tick.
func (l *Loop[T]) Reconcile(tick Tick) {
	if l.reconciled && l.reconciledSeq == tick.Seq {
		return
	}
	l.reconciled = true
	l.reconciledSeq = tick.Seq
	if l.State().Terminal() {
		return
	}

	// snapshot of the live source, first occurrence of an id wins
	live := make(map[string]T)
	var liveOrder []string
	for candidate := range l.policy.Candidates() {
		id := l.policy.TargetID(candidate)
		if _, dup := live[id]; dup {
			continue
		}
		live[id] = candidate
		liveOrder = append(liveOrder, id)
	}

	// (1) re-filter
	kept := make([]string, 0, len(l.order))
	for _, id := range l.order {
		entry := l.tracked[id]
		target, ok := live[id]
		if ok {
			entry.target = target
		}
		if !ok || !l.policy.Filter(target) {
			l.release(id, entry, "target no longer valid")
			continue
		}
		kept = append(kept, id)
	}
	l.order = kept

	// (2) add new candidates
	for _, id := range liveOrder {
		if _, ok := l.tracked[id]; ok {
			continue
		}
		target := live[id]
		if !l.policy.Filter(target) {
			continue
		}
		child := l.policy.NewChild(target)
		if child == nil {
			continue
		}
		l.tracked[id] = &loopEntry[T]{target: target, child: child}
		l.order = append(l.order, id)
	}

	// (3) retire finished children
	kept = l.order[:0]
	for _, id := range l.order {
		entry := l.tracked[id]
		if entry.child.State().Terminal() {
			l.release(id, entry, "")
			continue
		}
		kept = append(kept, id)
	}
	l.order = kept

	if l.active != nil && l.active.State().Terminal() {
		l.active = nil
	}
}

// release forgets a tracked target. Completed children get the completion
// callback; live children are abandoned with reason.
func (l *Loop[T]) release(id string, entry *loopEntry[T], reason string) {
	delete(l.tracked, id)
	switch {
	case entry.child.IsCompleted():
		l.policy.OnChildCompleted(entry.child, entry.target)
	case entry.child.IsAbandoned():
		l.Logger().Debug("releasing abandoned child",
			"kind", l.Kind(),
			"target", id,
			"child", entry.child.Kind())
	default:
		entry.child.Abandon(reason)
		l.Logger().Debug("abandoning child",
			"kind", l.Kind(),
			"target", id,
			"child", entry.child.Kind(),
			"reason", reason)
	}
	if l.active == entry.child {
		l.active = nil
	}
}

// RecomputePriority implements Objective.RecomputePriority. It evaluates the
// currently tracked targets; an empty set yields MinPriority.
func (l *Loop[T]) RecomputePriority() float64 {
	if l.State().Terminal() || len(l.order) == 0 {
		return l.SetPriority(MinPriority)
	}
	v := l.policy.Evaluate(l.Targets())
	if l.inverse {
		v = MaxPriority - ClampPriority(v)
	}
	return l.SetPriority(v)
}

// Update implements Objective.Update.
func (l *Loop[T]) Update(tick Tick) error {
	if err := l.Begin(tick); err != nil {
		return err
	}
	l.Reconcile(tick)
	if len(l.order) == 0 {
		l.active = nil
		if h, ok := l.policy.(Holder); ok && h.HoldWhenEmpty() {
			return nil
		}
		l.Complete()
		return nil
	}
	if l.runAll {
		for _, id := range l.order {
			child := l.tracked[id].child
			l.active = child
			if err := child.Update(tick); err != nil {
				return fmt.Errorf("%s: target %s: %w", l.Kind(), id, err)
			}
		}
		return nil
	}
	id := l.mostUrgent()
	child := l.tracked[id].child
	l.active = child
	if err := child.Update(tick); err != nil {
		return fmt.Errorf("%s: target %s: %w", l.Kind(), id, err)
	}
	return nil
}

// mostUrgent returns the tracked id with the best urgency; the first tracked
// wins ties. NaN scores never win. Requires a non-empty set.
func (l *Loop[T]) mostUrgent() string {
	best := l.order[0]
	bestScore := l.score(l.tracked[best].target)
	for _, id := range l.order[1:] {
		if s := l.score(l.tracked[id].target); s < bestScore {
			best, bestScore = id, s
		}
	}
	return best
}

// score maps urgency onto "lower is better".
func (l *Loop[T]) score(target T) float64 {
	u := l.policy.Urgency(target)
	if math.IsNaN(u) {
		return math.Inf(1)
	}
	if !l.inverse {
		return -u
	}
	return u
}

// ActiveChild implements Delegator.
func (l *Loop[T]) ActiveChild() Objective { return l.active }

// Len returns the number of tracked targets.
func (l *Loop[T]) Len() int { return len(l.order) }

// TargetIDs returns the tracked target ids in insertion order.
func (l *Loop[T]) TargetIDs() []string {
	return append([]string(nil), l.order...)
}

// Targets returns the tracked targets in insertion order.
func (l *Loop[T]) Targets() []T {
	out := make([]T, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, l.tracked[id].target)
	}
	return out
}

// Child returns the child objective tracking id.
func (l *Loop[T]) Child(id string) (Objective, bool) {
	entry, ok := l.tracked[id]
	if !ok {
		return nil, false
	}
	return entry.child, true
}

// Tracks reports whether id is currently tracked.
func (l *Loop[T]) Tracks(id string) bool {
	_, ok := l.tracked[id]
	return ok
}

// Forget releases id immediately, abandoning its child if still running.
// It is a no-op for untracked ids.
func (l *Loop[T]) Forget(id string) {
	entry, ok := l.tracked[id]
	if !ok {
		return
	}
	for i, v := range l.order {
		if v == id {
			l.order = append(l.order[:i], l.order[i+1:]...)
			break
		}
	}
	delete(l.tracked, id)
	entry.child.Abandon("target forgotten")
	if l.active == entry.child {
		l.active = nil
	}
}
