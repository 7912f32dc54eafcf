package orchestrator

import "errors"

var (
	// ErrSuperseded means a newer user message arrived during the debounce
	// window; a later invocation owns the reply and this one must stay
	// silent.
	ErrSuperseded = errors.New("invocation superseded by a newer user message")

	// ErrCompletion wraps completion provider failures. No partial reply is
	// sent when it occurs.
	ErrCompletion = errors.New("completion call failed")

	// ErrDelivery wraps outbound delivery failures.
	ErrDelivery = errors.New("delivery failed")
)
