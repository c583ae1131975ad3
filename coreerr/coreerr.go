// Package coreerr defines the error kinds the simulation core returns
// across package boundaries, so a host can distinguish a bad config from
// a corrupt graph from a one-off transient condition with errors.Is,
// instead of string-matching fmt.Errorf text the way the teacher's RPC
// layer did for its gRPC status codes.
package coreerr

import "errors"

// Kind is a sentinel identifying one of the four error categories the
// core distinguishes. Wrap a Kind with fmt.Errorf("%w: ...", Kind...) and
// callers can recover it with errors.Is.
type Kind error

var (
	// ConfigInvalid marks a YAML config that failed schema or range
	// validation: malformed ratios, a tick rate <= 0, a negative gap.
	ConfigInvalid Kind = errors.New("config invalid")

	// GraphInconsistent marks a SplineGraph whose invariants the core
	// depends on do not hold: a duplicate id, a dangling
	// next/prev/left/right id, a negative length, or a lane-change target
	// that is missing or has no successor at finalization.
	GraphInconsistent Kind = errors.New("graph inconsistent")

	// HostContractViolation marks a call that breaks the core's usage
	// contract, such as starting a second lane change for an agent that
	// already has one active.
	HostContractViolation Kind = errors.New("host contract violation")

	// Transient marks a condition expected to clear on its own. No
	// package in the core returns it at present; the scheduler's
	// one-second back-off applies to a panicking tick.
	Transient Kind = errors.New("transient")
)
