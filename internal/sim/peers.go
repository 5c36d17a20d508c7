package sim

import (
	"github.com/joeycumines/crew-scheduler/internal/objective"
	"github.com/joeycumines/crew-scheduler/internal/rescue"
	"github.com/joeycumines/crew-scheduler/internal/world"
)

// peerQuery answers rescue.PeerQuery over the simulation's controllers. Only
// read-only views leave it.
type peerQuery struct {
	sim *Simulation
}

var _ rescue.PeerQuery = peerQuery{}

func (q peerQuery) Lookup(id world.AgentID) (objective.Introspector, bool) {
	c, ok := q.sim.controllers[id]
	if !ok {
		return nil, false
	}
	return c.View(), true
}

// Peers lists the friendly agents that can act. A dead or unconscious peer
// keeps its last objectives but is not working on them.
func (q peerQuery) Peers(self world.AgentID) []rescue.Peer {
	me, ok := q.sim.world.Agent(self)
	if !ok {
		return nil
	}
	var out []rescue.Peer
	for _, id := range q.sim.ids {
		c := q.sim.controllers[id]
		a := c.Agent()
		if id == self || !a.Active() || !world.IsFriendly(me, a) {
			continue
		}
		out = append(out, rescue.Peer{
			ID:         a.ID,
			Job:        a.Job,
			Skills:     a.CopySkills(),
			Objectives: c.View(),
		})
	}
	return out
}
