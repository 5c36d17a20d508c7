package objective

import (
	"iter"
	"math"
)

// stub is a scriptable objective for scheduler tests.
type stub struct {
	Base
	raw      float64
	updates  []uint64
	onUpdate func(s *stub, tick Tick)
}

func newStub(kind string, priority float64, opts ...Option) *stub {
	return &stub{Base: NewBase(kind, opts...), raw: priority}
}

func (s *stub) RecomputePriority() float64 {
	if s.State().Terminal() {
		return s.SetPriority(0)
	}
	return s.SetPriority(s.raw)
}

func (s *stub) Update(tick Tick) error {
	if err := s.Begin(tick); err != nil {
		return err
	}
	s.updates = append(s.updates, tick.Seq)
	if s.onUpdate != nil {
		s.onUpdate(s, tick)
	}
	return nil
}

// otherStub is a distinct objective type for introspection tests.
type otherStub struct {
	*stub
}

type fakeTarget struct {
	id      string
	urgency float64
	valid   bool
}

type fakePolicy struct {
	live      []*fakeTarget
	inverse   bool
	runAll    bool
	hold      bool
	filter    func(t *fakeTarget) bool
	filtered  int
	completed []string
	children  map[string][]*stub
	evaluate  func(tracked []*fakeTarget) float64
}

var (
	_ Policy[*fakeTarget] = (*fakePolicy)(nil)
	_ InverseEvaluator    = (*fakePolicy)(nil)
	_ RunAller            = (*fakePolicy)(nil)
	_ Holder              = (*fakePolicy)(nil)
)

func newFakePolicy(targets ...*fakeTarget) *fakePolicy {
	return &fakePolicy{live: targets, inverse: true, children: make(map[string][]*stub)}
}

func (p *fakePolicy) Candidates() iter.Seq[*fakeTarget] {
	return func(yield func(*fakeTarget) bool) {
		for _, t := range p.live {
			if !yield(t) {
				return
			}
		}
	}
}

func (p *fakePolicy) TargetID(t *fakeTarget) string { return t.id }

func (p *fakePolicy) Filter(t *fakeTarget) bool {
	p.filtered++
	if p.filter != nil {
		return p.filter(t)
	}
	return t != nil && t.valid
}

func (p *fakePolicy) Urgency(t *fakeTarget) float64 { return t.urgency }

func (p *fakePolicy) Evaluate(tracked []*fakeTarget) float64 {
	if p.evaluate != nil {
		return p.evaluate(tracked)
	}
	lowest := math.Inf(1)
	for _, t := range tracked {
		lowest = math.Min(lowest, t.urgency)
	}
	return lowest
}

func (p *fakePolicy) NewChild(t *fakeTarget) Objective {
	c := newStub("child:"+t.id, 1)
	p.children[t.id] = append(p.children[t.id], c)
	return c
}

func (p *fakePolicy) OnChildCompleted(_ Objective, t *fakeTarget) {
	p.completed = append(p.completed, t.id)
}

func (p *fakePolicy) InverseTargetEvaluation() bool { return p.inverse }

func (p *fakePolicy) RunAllTargets() bool { return p.runAll }

func (p *fakePolicy) HoldWhenEmpty() bool { return p.hold }

func (p *fakePolicy) child(id string) *stub {
	cs := p.children[id]
	if len(cs) == 0 {
		return nil
	}
	return cs[len(cs)-1]
}

func (p *fakePolicy) remove(id string) {
	for i, t := range p.live {
		if t.id == id {
			p.live = append(p.live[:i], p.live[i+1:]...)
			return
		}
	}
}

func tickAt(seq uint64) Tick {
	return Tick{Seq: seq, Delta: 0.1}
}
