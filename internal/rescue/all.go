package rescue

import (
	"iter"
	"math"

	"github.com/joeycumines/crew-scheduler/internal/objective"
	"github.com/joeycumines/crew-scheduler/internal/world"
)

// All is the "rescue all" goal: an objective.Loop over every agent in the
// world, tracking valid rescue targets with one Rescue child each. It is
// ForceRun, and implements the Loop's Policy itself.
type All struct {
	*objective.Loop[*world.Agent]
	env Env
}

var (
	_ objective.Policy[*world.Agent] = (*All)(nil)
	_ objective.InverseEvaluator     = (*All)(nil)
	_ objective.Holder               = (*All)(nil)
	_ objective.Objective            = (*All)(nil)
)

// NewAll creates the rescue-all goal for env.Self.
func NewAll(env Env, opts ...objective.Option) *All {
	a := &All{env: env}
	opts = append([]objective.Option{objective.WithForceRun(), objective.WithLogger(env.Log())}, opts...)
	a.Loop = objective.NewLoop[*world.Agent](KindAll, a, opts...)
	return a
}

// Candidates implements objective.Policy: every live agent, self included.
func (a *All) Candidates() iter.Seq[*world.Agent] {
	if a.env.World == nil {
		return func(func(*world.Agent) bool) {}
	}
	return a.env.World.Agents()
}

// TargetID implements objective.Policy.
func (a *All) TargetID(target *world.Agent) string { return string(target.ID) }

// Filter implements objective.Policy.
func (a *All) Filter(target *world.Agent) bool { return IsValidTarget(a.env, target) }

// Urgency implements objective.Policy: the target's vitality.
func (a *All) Urgency(target *world.Agent) float64 {
	return a.env.evaluator().Vitality(target)
}

// InverseTargetEvaluation implements objective.InverseEvaluator.
func (a *All) InverseTargetEvaluation() bool { return true }

// Evaluate implements objective.Policy. The worst vitality among tracked
// targets, divided by the coverage ratio (targets per engaged peer). When
// not ordered, a less qualified agent yields to better rescuers: full
// coverage by at least as skilled engaged peers returns EnoughRescuers, and
// a non-medic doubles its value while a medic peer exists.
func (a *All) Evaluate(tracked []*world.Agent) float64 {
	lowest := math.Inf(1)
	for _, t := range tracked {
		lowest = math.Min(lowest, a.Urgency(t))
	}
	if math.IsInf(lowest, 1) {
		return a.env.Settings.EnoughRescuers
	}

	s := a.env.Settings
	var peers []Peer
	if a.env.Peers != nil && a.env.Self != nil {
		peers = a.env.Peers.Peers(a.env.Self.ID)
	}
	var engaged []Peer
	for _, p := range peers {
		if objective.IsCurrentObjective[*All](p.Objectives) {
			engaged = append(engaged, p)
		}
	}

	targets := float64(len(tracked))
	ratio := 1.0
	if len(engaged) > 0 {
		ratio = targets / float64(len(engaged))
	}

	if a.isCurrentOrder() {
		return lowest / ratio
	}

	multiplier := 1.0
	if len(engaged) > 0 {
		mySkill := a.env.Self.Skill(s.MedicalSkill)
		better := 0
		for _, p := range engaged {
			if p.Skills[s.MedicalSkill] >= mySkill {
				better++
			}
		}
		if better > 0 && targets/float64(better) <= 1 {
			return s.EnoughRescuers
		}
		if a.env.Self.Job != s.MedicJob {
			for _, p := range peers {
				if p.Job == s.MedicJob {
					multiplier = s.NonMedicMultiplier
					break
				}
			}
		}
	}
	return lowest / ratio * multiplier
}

// HoldWhenEmpty implements objective.Holder: an ordered rescue-all stays
// active until the order is revoked or superseded.
func (a *All) HoldWhenEmpty() bool { return a.isCurrentOrder() }

func (a *All) isCurrentOrder() bool {
	if a.env.Manager == nil {
		return false
	}
	o := a.env.Manager.CurrentOrder()
	return o != nil && o == objective.Objective(a)
}

// NewChild implements objective.Policy.
func (a *All) NewChild(target *world.Agent) objective.Objective {
	r, err := NewRescue(a.env, target.ID,
		objective.WithPriorityModifier(a.PriorityModifier()),
		objective.WithLogger(a.Logger()))
	if err != nil {
		a.Logger().Error("cannot build rescue objective", "agent", a.selfID(), "target", target.ID, "error", err)
		return nil
	}
	return r
}

// OnChildCompleted implements objective.Policy. The Loop already forgets the
// target; the Rescue child applied every side effect itself.
func (a *All) OnChildCompleted(_ objective.Objective, target *world.Agent) {
	a.Logger().Debug("rescue completed", "agent", a.selfID(), "target", target.ID)
}

func (a *All) selfID() world.AgentID {
	if a.env.Self == nil {
		return ""
	}
	return a.env.Self.ID
}
