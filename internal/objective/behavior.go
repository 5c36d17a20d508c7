package objective

import (
	"fmt"

	bt "github.com/joeycumines/go-behaviortree"
)

// Behavior is an Objective whose update step ticks a go-behaviortree node.
//
// The node's status drives the lifecycle:
//
//	bt.Running → stays Active
//	bt.Success → Completed
//	bt.Failure → Abandoned
//
// A node error is a world edge case (e.g. the target vanished), so it also
// abandons the objective rather than propagating.
type Behavior struct {
	Base
	evaluate func() float64
	node     bt.Node
	tick     Tick
}

var _ Objective = (*Behavior)(nil)

// NewBehavior creates a Behavior. evaluate computes the raw priority (before
// the modifier and clamping) and must be side-effect free.
//
// Panics if node or evaluate is nil.
func NewBehavior(kind string, evaluate func() float64, node bt.Node, opts ...Option) *Behavior {
	if node == nil {
		panic(fmt.Sprintf("objective.NewBehavior: node parameter cannot be nil (kind=%s)", kind))
	}
	if evaluate == nil {
		panic(fmt.Sprintf("objective.NewBehavior: evaluate parameter cannot be nil (kind=%s)", kind))
	}
	return &Behavior{
		Base:     NewBase(kind, opts...),
		evaluate: evaluate,
		node:     node,
	}
}

// CurrentTick returns the tick being processed by Update. Node closures use
// it to scale their effects by Tick.Delta.
func (o *Behavior) CurrentTick() Tick { return o.tick }

// RecomputePriority implements Objective.RecomputePriority.
func (o *Behavior) RecomputePriority() float64 {
	if o.State().Terminal() {
		return o.SetPriority(0)
	}
	return o.SetPriority(o.evaluate())
}

// Update implements Objective.Update.
func (o *Behavior) Update(tick Tick) error {
	if err := o.Begin(tick); err != nil {
		return err
	}
	o.tick = tick
	status, err := o.node.Tick()
	if err != nil {
		o.Logger().Debug("behaviour error, abandoning objective",
			"kind", o.Kind(),
			"seq", tick.Seq,
			"error", err)
		o.Abandon(err.Error())
		return nil
	}
	switch status {
	case bt.Success:
		o.Complete()
	case bt.Failure:
		o.Logger().Debug("behaviour failed, abandoning objective",
			"kind", o.Kind(),
			"seq", tick.Seq)
		o.Abandon("behaviour failed")
	}
	return nil
}
