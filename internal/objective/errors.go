package objective

import (
	"errors"
	"fmt"
)

var (
	// ErrContractViolation is matched (via errors.Is) by every
	// *ContractError. It indicates a broken scheduler invariant, never a
	// world-state edge case.
	ErrContractViolation = errors.New("objective contract violation")

	// ErrTerminal is returned when a terminal objective is updated.
	ErrTerminal = errors.New("update called on terminal objective")

	// ErrUpdatedTwice is returned when an objective is updated twice in one tick.
	ErrUpdatedTwice = errors.New("update called twice in one tick")

	// ErrTickedTwice is returned when a Manager is ticked twice with the
	// same (or an older) sequence number.
	ErrTickedTwice = errors.New("manager ticked twice in one tick")

	// ErrNilObjective is returned when registering or ordering a nil objective.
	ErrNilObjective = errors.New("nil objective")
)

// ContractError describes a programming-contract violation.
type ContractError struct {
	// Kind of the offending objective, if any.
	Kind string
	// Seq of the tick in which the violation happened.
	Seq uint64
	Err error
}

// Error implements error.
func (e *ContractError) Error() string {
	if e.Kind == "" {
		return fmt.Sprintf("objective: tick %d: %v", e.Seq, e.Err)
	}
	return fmt.Sprintf("objective %q: tick %d: %v", e.Kind, e.Seq, e.Err)
}

// Unwrap returns the sentinel, so errors.Is(err, ErrTerminal) works.
func (e *ContractError) Unwrap() error { return e.Err }

// Is reports ErrContractViolation as matching every ContractError.
func (e *ContractError) Is(target error) bool {
	return target == ErrContractViolation
}
