// Package world is the simulation state the scheduler observes: agents, the
// hulls they stand in, and the structures those hulls belong to.
//
// It is the perception/world query collaborator of the scheduler. Lookups
// never fail loudly: a missing agent, hull or structure reads as "absent".
// A World is not safe for concurrent use; the simulation mutates it between
// ticks and every controller reads it during a tick.
package world

import (
	"errors"
	"fmt"
	"iter"
	"slices"
)

type (
	AgentID     string
	HullID      string
	StructureID string
)

var (
	ErrDuplicate = errors.New("duplicate id")
	ErrEmptyID   = errors.New("empty id")
	ErrNotFound  = errors.New("not found")
)

// Structure is a vessel or outpost owned by a team.
type Structure struct {
	ID   StructureID
	Team string
}

// Hull is one room of a structure.
type Hull struct {
	ID        HullID
	Structure StructureID
	Flooded   bool
	Breached  bool

	neighbours []HullID
}

// Neighbours returns the hulls directly reachable from h, sorted.
func (h *Hull) Neighbours() []HullID {
	return slices.Clone(h.neighbours)
}

// Hazardous reports whether the hull is flooded or breached.
func (h *Hull) Hazardous() bool {
	return h != nil && (h.Flooded || h.Breached)
}

// World holds every entity, with deterministic (id ordered) iteration.
type World struct {
	agents     map[AgentID]*Agent
	agentOrder []AgentID

	hulls     map[HullID]*Hull
	hullOrder []HullID

	structures map[StructureID]*Structure
}

// New creates an empty World.
func New() *World {
	return &World{
		agents:     make(map[AgentID]*Agent),
		hulls:      make(map[HullID]*Hull),
		structures: make(map[StructureID]*Structure),
	}
}

// AddStructure registers s.
func (w *World) AddStructure(s *Structure) error {
	if s == nil || s.ID == "" {
		return fmt.Errorf("add structure: %w", ErrEmptyID)
	}
	if _, ok := w.structures[s.ID]; ok {
		return fmt.Errorf("add structure %s: %w", s.ID, ErrDuplicate)
	}
	w.structures[s.ID] = s
	return nil
}

// Structure returns the structure with id.
func (w *World) Structure(id StructureID) (*Structure, bool) {
	s, ok := w.structures[id]
	return s, ok
}

// AddHull registers h. Its structure may be registered later.
func (w *World) AddHull(h *Hull) error {
	if h == nil || h.ID == "" {
		return fmt.Errorf("add hull: %w", ErrEmptyID)
	}
	if _, ok := w.hulls[h.ID]; ok {
		return fmt.Errorf("add hull %s: %w", h.ID, ErrDuplicate)
	}
	w.hulls[h.ID] = h
	w.hullOrder = insertSorted(w.hullOrder, h.ID)
	return nil
}

// Link connects two hulls in both directions.
func (w *World) Link(a, b HullID) error {
	ha, ok := w.hulls[a]
	if !ok {
		return fmt.Errorf("link %s: %w", a, ErrNotFound)
	}
	hb, ok := w.hulls[b]
	if !ok {
		return fmt.Errorf("link %s: %w", b, ErrNotFound)
	}
	if a == b {
		return nil
	}
	if _, found := slices.BinarySearch(ha.neighbours, b); !found {
		ha.neighbours = insertSorted(ha.neighbours, b)
	}
	if _, found := slices.BinarySearch(hb.neighbours, a); !found {
		hb.neighbours = insertSorted(hb.neighbours, a)
	}
	return nil
}

// Hull returns the hull with id.
func (w *World) Hull(id HullID) (*Hull, bool) {
	h, ok := w.hulls[id]
	return h, ok
}

// Hulls iterates every hull in id order.
func (w *World) Hulls() iter.Seq[*Hull] {
	return func(yield func(*Hull) bool) {
		for _, id := range slices.Clone(w.hullOrder) {
			h, ok := w.hulls[id]
			if !ok {
				continue
			}
			if !yield(h) {
				return
			}
		}
	}
}

// StructureOf returns the structure containing hull; unset or unknown hulls
// have none.
func (w *World) StructureOf(hull HullID) (StructureID, bool) {
	if hull == "" {
		return "", false
	}
	h, ok := w.hulls[hull]
	if !ok || h.Structure == "" {
		return "", false
	}
	return h.Structure, true
}

// AddAgent registers a.
func (w *World) AddAgent(a *Agent) error {
	if a == nil || a.ID == "" {
		return fmt.Errorf("add agent: %w", ErrEmptyID)
	}
	if _, ok := w.agents[a.ID]; ok {
		return fmt.Errorf("add agent %s: %w", a.ID, ErrDuplicate)
	}
	w.agents[a.ID] = a
	w.agentOrder = insertSorted(w.agentOrder, a.ID)
	return nil
}

// RemoveAgent destroys the agent with id. It reports whether it existed.
func (w *World) RemoveAgent(id AgentID) bool {
	a, ok := w.agents[id]
	if !ok {
		return false
	}
	a.Removed = true
	delete(w.agents, id)
	if i, found := slices.BinarySearch(w.agentOrder, id); found {
		w.agentOrder = slices.Delete(w.agentOrder, i, i+1)
	}
	return true
}

// Agent returns the live agent with id.
func (w *World) Agent(id AgentID) (*Agent, bool) {
	a, ok := w.agents[id]
	return a, ok
}

// Agents iterates every live agent in id order. It is a live view: agents
// removed during iteration are skipped.
func (w *World) Agents() iter.Seq[*Agent] {
	return func(yield func(*Agent) bool) {
		for _, id := range slices.Clone(w.agentOrder) {
			a, ok := w.agents[id]
			if !ok {
				continue
			}
			if !yield(a) {
				return
			}
		}
	}
}

// Len returns the number of live agents.
func (w *World) Len() int { return len(w.agents) }

// AgentsIn returns the live agents in hull, in id order.
func (w *World) AgentsIn(hull HullID) []*Agent {
	var out []*Agent
	for a := range w.Agents() {
		if a.Hull == hull {
			out = append(out, a)
		}
	}
	return out
}

// MoveAgent places the agent in hull.
func (w *World) MoveAgent(id AgentID, hull HullID) error {
	a, ok := w.agents[id]
	if !ok {
		return fmt.Errorf("move agent %s: %w", id, ErrNotFound)
	}
	if _, ok := w.hulls[hull]; !ok {
		return fmt.Errorf("move agent %s to %s: %w", id, hull, ErrNotFound)
	}
	a.Hull = hull
	return nil
}

// IsFriendly reports whether a and b cooperate: both exist and share a
// non-empty team.
func IsFriendly(a, b *Agent) bool {
	return a != nil && b != nil && a.Team != "" && a.Team == b.Team
}

// HostilePresent reports whether hull holds an agent that can still act and
// is not friendly to observer.
func (w *World) HostilePresent(observer *Agent, hull HullID) bool {
	return w.FirstHostile(observer, hull) != nil
}

// FirstHostile returns the lowest-id active hostile in hull, or nil.
func (w *World) FirstHostile(observer *Agent, hull HullID) *Agent {
	if observer == nil || hull == "" {
		return nil
	}
	for a := range w.Agents() {
		if a.Hull != hull || a.ID == observer.ID || !a.Active() {
			continue
		}
		if !IsFriendly(observer, a) {
			return a
		}
	}
	return nil
}

// Path returns the hulls to traverse from one hull to another, excluding
// from and including to. Paths never leave from's structure. Neighbours are
// explored in id order, so the result is deterministic.
func (w *World) Path(from, to HullID) ([]HullID, bool) {
	if from == to {
		_, ok := w.hulls[from]
		return nil, ok
	}
	path, _, ok := w.search(from, func(h *Hull) bool { return h.ID == to })
	return path, ok
}

// Nearest returns the closest hull (other than from) matching pred, within
// from's structure, and the path to it.
func (w *World) Nearest(from HullID, pred func(*Hull) bool) (HullID, []HullID, bool) {
	path, id, ok := w.search(from, func(h *Hull) bool { return h.ID != from && pred(h) })
	return id, path, ok
}

func (w *World) search(from HullID, goal func(*Hull) bool) ([]HullID, HullID, bool) {
	start, ok := w.hulls[from]
	if !ok {
		return nil, "", false
	}
	prev := map[HullID]HullID{from: ""}
	queue := []HullID{from}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		h := w.hulls[id]
		if id != from && goal(h) {
			var path []HullID
			for at := id; at != from; at = prev[at] {
				path = append(path, at)
			}
			slices.Reverse(path)
			return path, id, true
		}
		for _, n := range h.neighbours {
			nh, ok := w.hulls[n]
			if !ok || nh.Structure != start.Structure {
				continue
			}
			if _, seen := prev[n]; seen {
				continue
			}
			prev[n] = id
			queue = append(queue, n)
		}
	}
	return nil, "", false
}

func insertSorted[T ~string](s []T, v T) []T {
	i, _ := slices.BinarySearch(s, v)
	return slices.Insert(s, i, v)
}
