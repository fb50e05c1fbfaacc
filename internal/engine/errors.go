package engine

import "errors"

// Engine error taxonomy. All of these are recoverable at the request
// boundary: callers map them to structured failures, and the session's
// persisted state is unchanged when any of them is returned.
var (
	// ErrInvalidAction marks an action that is not legal in the current
	// mode, or a precondition failure that is not a missing resource.
	ErrInvalidAction = errors.New("invalid action")

	// ErrStateTransition marks an illegal mode transition request.
	ErrStateTransition = errors.New("illegal mode transition")

	// ErrNotFound marks an unknown session, location, NPC, item, quest or
	// ability ID.
	ErrNotFound = errors.New("not found")

	// ErrInsufficientResource marks an unmet mana, item, cooldown or
	// capacity precondition.
	ErrInsufficientResource = errors.New("insufficient resource")

	// ErrNoHandler marks a configuration gap between the mode action
	// tables and the registered handlers. An allowed-but-unregistered
	// action fails closed with this error rather than crashing.
	ErrNoHandler = errors.New("no handler available")
)
