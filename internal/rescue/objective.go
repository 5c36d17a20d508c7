package rescue

import (
	"errors"
	"math"

	bt "github.com/joeycumines/go-behaviortree"

	"github.com/joeycumines/crew-scheduler/internal/behavior"
	"github.com/joeycumines/crew-scheduler/internal/objective"
	"github.com/joeycumines/crew-scheduler/internal/world"
)

// Facts of a Rescue plan.
const (
	FactAtTarget behavior.Fact = "atTarget"
	FactTreated  behavior.Fact = "treated"
)

var (
	errTargetGone     = errors.New("target no longer exists")
	errTargetDead     = errors.New("target died")
	errUnreachable    = errors.New("target unreachable")
	errIncapacitated  = errors.New("rescuer incapacitated")
	errRescuerRemoved = errors.New("rescuer removed")
)

// Rescue walks its agent to one target and treats it until the target's
// vitality reaches Threshold. It is a PA-BT plan with goal "treated",
// steps moveTo (yields atTarget) and treat (needs atTarget, yields
// treated); a sync step refreshes the plan's facts from the world before
// every plan tick and abandons the objective when the target is lost.
type Rescue struct {
	*objective.Behavior
	env     Env
	target  world.AgentID
	planner *behavior.Planner
}

// NewRescue creates the single-target rescue objective.
func NewRescue(env Env, target world.AgentID, opts ...objective.Option) (*Rescue, error) {
	r := &Rescue{
		env:     env,
		target:  target,
		planner: behavior.NewPlanner(env.Log()),
	}
	r.planner.Set(FactAtTarget, false)
	r.planner.Set(FactTreated, false)
	r.planner.Add(
		behavior.NewStep("moveTo", bt.New(r.moveTo)).
			Yields(FactAtTarget, true),
		behavior.NewStep("treat", bt.New(r.treat)).
			Needs(behavior.Is(FactAtTarget, true)).
			Yields(FactTreated, true),
	)

	plan, err := r.planner.Plan(behavior.Is(FactTreated, true))
	if err != nil {
		return nil, err
	}

	r.Behavior = objective.NewBehavior(KindRescue, r.evaluate,
		bt.New(bt.Sequence,
			bt.New(r.sync),
			plan,
		),
		opts...,
	)
	return r, nil
}

// Target returns the id of the agent being rescued.
func (r *Rescue) Target() world.AgentID { return r.target }

// Facts exposes what the plan last observed, for diagnostics.
func (r *Rescue) Facts() *behavior.Facts { return &r.planner.Facts }

func (r *Rescue) evaluate() float64 {
	t, ok := r.lookup()
	if !ok || t.Dead {
		return objective.MinPriority
	}
	return objective.MaxPriority - r.env.evaluator().Vitality(t)
}

func (r *Rescue) lookup() (*world.Agent, bool) {
	if r.env.World == nil {
		return nil, false
	}
	return r.env.World.Agent(r.target)
}

// sync refreshes the plan's facts; an error abandons the objective.
func (r *Rescue) sync([]bt.Node) (bt.Status, error) {
	self := r.env.Self
	if self == nil || self.Removed {
		return bt.Failure, errRescuerRemoved
	}
	if !self.Active() {
		return bt.Failure, errIncapacitated
	}
	t, ok := r.lookup()
	if !ok {
		return bt.Failure, errTargetGone
	}
	if t.Dead {
		return bt.Failure, errTargetDead
	}
	if _, ok := r.env.World.Path(self.Hull, t.Hull); !ok {
		return bt.Failure, errUnreachable
	}
	r.planner.Set(FactAtTarget, self.Hull == t.Hull)
	r.planner.Set(FactTreated, r.env.evaluator().Vitality(t) >= Threshold(r.env, t))
	return bt.Success, nil
}

func (r *Rescue) moveTo([]bt.Node) (bt.Status, error) {
	self := r.env.Self
	t, ok := r.lookup()
	if !ok {
		return bt.Failure, errTargetGone
	}
	path, ok := r.env.World.Path(self.Hull, t.Hull)
	if !ok {
		return bt.Failure, errUnreachable
	}
	if len(path) > 0 {
		if err := r.env.World.MoveAgent(self.ID, path[0]); err != nil {
			return bt.Failure, err
		}
	}
	if self.Hull != t.Hull {
		return bt.Running, nil
	}
	r.planner.Set(FactAtTarget, true)
	return bt.Success, nil
}

func (r *Rescue) treat([]bt.Node) (bt.Status, error) {
	self := r.env.Self
	t, ok := r.lookup()
	if !ok {
		return bt.Failure, errTargetGone
	}
	if self.Hull != t.Hull {
		// the target moved; the plan walks again next tick
		r.planner.Set(FactAtTarget, false)
		return bt.Running, nil
	}
	amount := r.env.Settings.TreatRate * r.CurrentTick().Delta * (1 + self.Skill(r.env.Settings.MedicalSkill)/100)
	Treat(&t.Vitals, amount)
	r.env.Log().Debug("treating",
		"agent", self.ID,
		"target", t.ID,
		"amount", amount,
		"vitality", r.env.evaluator().Vitality(t))
	if r.env.evaluator().Vitality(t) < Threshold(r.env, t) {
		return bt.Running, nil
	}
	r.planner.Set(FactTreated, true)
	return bt.Success, nil
}

// Treat applies amount of medical care to v. Every negative sub-signal
// recovers by amount, bounded by its healthy value.
func Treat(v *world.Vitals, amount float64) {
	if amount <= 0 || math.IsNaN(amount) {
		return
	}
	v.Bleeding = math.Max(v.Bleeding-amount, 0)
	v.Bloodloss = math.Max(v.Bloodloss-amount, 0)
	v.Health = math.Min(v.Health+amount, world.MaxVitality)
	if v.Oxygen < 0 {
		v.Oxygen = math.Min(v.Oxygen+amount, 0)
	}
}
