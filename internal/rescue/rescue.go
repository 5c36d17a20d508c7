// Package rescue implements the "rescue all" standing duty: a Loop over every
// agent in the world that tracks crew members in need of medical attention,
// and the single-target Rescue objective that walks to and treats one of
// them.
//
// Urgency follows the "lower is more urgent" convention (vitality); the All
// policy declares inverse evaluation, so the Loop reports priority as
// 100 - urgency to the Manager.
package rescue

import (
	"github.com/joeycumines/crew-scheduler/internal/crew"
	"github.com/joeycumines/crew-scheduler/internal/objective"
	"github.com/joeycumines/crew-scheduler/internal/world"
)

// Objective kinds.
const (
	KindAll    = "rescue all"
	KindRescue = "rescue"
)

// Settings are the rescue tunables.
type Settings struct {
	// VitalityThreshold: targets at or above it need no rescue.
	VitalityThreshold float64
	// OrderThreshold replaces VitalityThreshold when the agent is ordered
	// to rescue, or evaluates itself.
	OrderThreshold float64
	// EnoughRescuers is the evaluation returned when engaged peers already
	// cover every target.
	EnoughRescuers float64
	// NonMedicMultiplier scales the evaluation of a non-medic when a medic
	// peer exists.
	NonMedicMultiplier float64
	MedicalSkill       string
	MedicJob           string
	// TreatRate is the vitality restored per second of treatment at skill 0.
	TreatRate float64
}

// DefaultSettings returns the stock tuning.
func DefaultSettings() Settings {
	return Settings{
		VitalityThreshold:  80,
		OrderThreshold:     100,
		EnoughRescuers:     100,
		NonMedicMultiplier: 2,
		MedicalSkill:       "medical",
		MedicJob:           "medicaldoctor",
		TreatRate:          10,
	}
}

// Peer is the read-only view of one cooperating agent's scheduler.
type Peer struct {
	ID  world.AgentID
	Job string

	// Skills is a copy; nil when the peer exposes no skill information.
	Skills map[string]float64

	Objectives objective.Introspector
}

// PeerQuery gives read-only access to other agents' schedulers.
type PeerQuery interface {
	// Lookup returns the scheduler view of the agent with id, if it is
	// driven by one (players and unmanaged agents are not).
	Lookup(id world.AgentID) (objective.Introspector, bool)
	// Peers returns the scheduler-driven agents cooperating with self,
	// excluding self, in id order.
	Peers(self world.AgentID) []Peer
}

// Env is everything a rescue objective knows about its owner.
type Env struct {
	crew.Env
	// Manager is the owner's own scheduler view.
	Manager   objective.Introspector
	Peers     PeerQuery
	Evaluator *Evaluator
	Settings  Settings
}

func (e Env) evaluator() *Evaluator {
	if e.Evaluator == nil {
		return DefaultEvaluator
	}
	return e.Evaluator
}

// Ordered reports whether the owner's current order is a rescue-all.
func (e Env) Ordered() bool {
	return objective.IsCurrentOrder[*All](e.Manager)
}

// Threshold is the vitality below which target qualifies for rescue.
func Threshold(env Env, target *world.Agent) float64 {
	if env.Self != nil && target != nil && env.Self.ID == target.ID {
		return env.Settings.OrderThreshold
	}
	if env.Ordered() {
		return env.Settings.OrderThreshold
	}
	return env.Settings.VitalityThreshold
}

// IsValidTarget is the rescue validity predicate. Checks run cheapest first
// and short-circuit:
//
//  1. target exists and is neither dead nor removed
//  2. target is friendly
//  3. target's vitality is below Threshold
//  4. both agents are in a hull of the same structure
//  5. target's hull is not unsafe in the owner's perception, unless ordered
//  6. target is not conscious and busy fighting, fleeing or rescuing
//     (players are never considered busy)
//  7. no active hostile shares the target's hull
//
// Missing data (unset hull, unknown structure, no peer information) reads
// as an invalid candidate or as "not busy", never as an error.
func IsValidTarget(env Env, target *world.Agent) bool {
	self := env.Self
	if target == nil || target.Dead || target.Removed || self == nil {
		return false
	}
	if !world.IsFriendly(self, target) {
		return false
	}
	if env.evaluator().Vitality(target) >= Threshold(env, target) {
		return false
	}
	if env.World == nil {
		return false
	}
	targetStructure, ok := env.World.StructureOf(target.Hull)
	if !ok {
		return false
	}
	selfStructure, ok := env.World.StructureOf(self.Hull)
	if !ok || selfStructure != targetStructure {
		return false
	}
	if !env.Ordered() && env.IsUnsafe(target.Hull) {
		return false
	}
	if target.ID != self.ID && !target.Player && target.Active() && isBusy(env, target.ID) {
		return false
	}
	if env.World.HostilePresent(self, target.Hull) {
		return false
	}
	return true
}

func isBusy(env Env, id world.AgentID) bool {
	if env.Peers == nil {
		return false
	}
	view, ok := env.Peers.Lookup(id)
	if !ok {
		return false
	}
	return objective.HasActiveObjective[*crew.Combat](view) ||
		objective.HasActiveObjective[*crew.FindSafety](view) ||
		objective.HasActiveObjective[*Rescue](view)
}
