/*
Package objective implements the per-agent objective scheduler.

An agent owns one Manager. Every simulation step the Manager is ticked once,
and it decides which single top-level Objective the agent pursues:

	Manager.Tick
	  ├─ revoke a pending order (it becomes Abandoned now, never mid-update)
	  ├─ Reconcile every Reconciler (Loop objectives rebuild their target set)
	  ├─ RecomputePriority on every registered objective and the current order
	  ├─ select: current order > highest priority > stable registration order
	  ├─ Update the selected objective (exactly one per tick)
	  └─ retire Completed/Abandoned objectives, re-creating persistent ones

# Lifecycle

Objectives move Pending → Active → {Completed | Abandoned}. The first Update
activates an objective. Both terminal states are absorbing; a terminal
objective is never reused, the Manager (or a Loop) constructs a fresh one.
Calling Update on a terminal objective, or twice within one tick, is a
contract violation and is reported as a *ContractError.

# Loops

Loop is the generic "one child objective per live target" engine. A Policy
supplies the candidate source, the validity filter, the urgency scoring and
the child factory, so the same engine serves unrelated goal domains.

# Priority convention

Priority is "should I act now": higher runs first, range [0, 100]. Loop
policies that score urgency (lower = more urgent) declare it via
InverseEvaluator and the Loop flips the value at the boundary.

# Concurrency

Nothing in this package blocks or spawns goroutines. A Manager must only be
ticked from one goroutine; peers observe it through the read-only
Introspector returned by Manager.View.
*/
package objective
