// Package orchestrator runs the per-program poll loop: round-robins
// across every active program, advances its cursor, decodes its
// transactions, and fans the result out to every subscriber, per
// spec.md §4.7. It is grounded on the teacher's relayer worker/ticker/
// state-machine idiom (internal/relayer/relayer.go), generalized from a
// fixed worker pool draining one queue into a dynamic per-program set
// refreshed from the control plane and the registry.
package orchestrator

// programState is one program worker's place in spec.md §4.7's state
// machine: unregistered -> registered -> polling -> {polling, backoff}
// -> unregistered (on removal).
type programState string

const (
	stateUnregistered programState = "unregistered"
	stateRegistered   programState = "registered"
	statePolling      programState = "polling"
	stateBackoff      programState = "backoff"
)

// knownStates lists every state value, used to zero out the metric
// labels a program worker is not currently in.
var knownStates = []string{
	string(stateUnregistered),
	string(stateRegistered),
	string(statePolling),
	string(stateBackoff),
}
