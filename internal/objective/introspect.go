package objective

// Introspector is the read-only surface of a Manager, consumed by peer
// policies and by presentation.
type Introspector interface {
	CurrentObjective() Objective
	CurrentOrder() Objective
}

var _ Introspector = (*Manager)(nil)

// managerView hides the Manager's mutating methods behind Introspector, so
// a peer cannot type-assert its way back to *Manager.
type managerView struct {
	m *Manager
}

func (v managerView) CurrentObjective() Objective { return v.m.CurrentObjective() }

func (v managerView) CurrentOrder() Objective { return v.m.CurrentOrder() }

// View returns a read-only view of m.
func (m *Manager) View() Introspector {
	return managerView{m: m}
}

// IsCurrentObjective reports whether the objective selected by the latest
// tick is a T.
func IsCurrentObjective[T Objective](i Introspector) bool {
	if i == nil {
		return false
	}
	return is[T](i.CurrentObjective())
}

// IsCurrentOrder reports whether the current order is a T.
func IsCurrentOrder[T Objective](i Introspector) bool {
	if i == nil {
		return false
	}
	return is[T](i.CurrentOrder())
}

// HasActiveObjective reports whether a T is running anywhere in the active
// chain: the current objective, the current order, or (transitively) the
// active child of either.
func HasActiveObjective[T Objective](i Introspector) bool {
	if i == nil {
		return false
	}
	return inChain[T](i.CurrentObjective()) || inChain[T](i.CurrentOrder())
}

func inChain[T Objective](o Objective) bool {
	// bounded to guard against a Delegator returning itself
	for depth := 0; o != nil && depth < 16; depth++ {
		if is[T](o) {
			return true
		}
		d, ok := o.(Delegator)
		if !ok {
			return false
		}
		o = d.ActiveChild()
	}
	return false
}

func is[T Objective](o Objective) bool {
	if o == nil {
		return false
	}
	_, ok := o.(T)
	return ok
}
