package world

import (
	"maps"
	"slices"
)

// Perception is one agent's view of which hulls are unsafe.
type Perception interface {
	IsUnsafe(hull HullID) bool
}

// UnsafeHulls is a Perception backed by a set.
type UnsafeHulls map[HullID]struct{}

// IsUnsafe implements Perception.
func (u UnsafeHulls) IsUnsafe(hull HullID) bool {
	_, ok := u[hull]
	return ok
}

// Mark flags hull as unsafe.
func (u UnsafeHulls) Mark(hull HullID) {
	u[hull] = struct{}{}
}

// Sorted returns the unsafe hulls in id order.
func (u UnsafeHulls) Sorted() []HullID {
	return slices.Sorted(maps.Keys(u))
}

// PerceiveHazards builds the perception of an agent that sees every
// hazardous (flooded or breached) hull of the world.
func (w *World) PerceiveHazards() UnsafeHulls {
	u := make(UnsafeHulls)
	for h := range w.Hulls() {
		if h.Hazardous() {
			u.Mark(h.ID)
		}
	}
	return u
}
