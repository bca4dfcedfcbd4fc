package attach

import "fmt"

// State is the orchestrator's position in an attach sequence.
type State int

const (
	// StateIdle is the initial state.
	StateIdle State = iota
	// StateChartEnsured means the target chart is confirmed open.
	StateChartEnsured
	// StateStepsSent means all protocol steps were sent successfully.
	StateStepsSent
	// StateVerifying means the orchestrator is polling for the EA block.
	StateVerifying
	// StateVerified is terminal success.
	StateVerified
	// StateFailed is terminal failure after exhausted verification.
	StateFailed
)

// String returns the string representation of State.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateChartEnsured:
		return "ChartEnsured"
	case StateStepsSent:
		return "StepsSent"
	case StateVerifying:
		return "Verifying"
	case StateVerified:
		return "Verified"
	case StateFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// allowedTransition validates the attach sequence ordering.
func allowedTransition(from, to State) bool {
	switch from {
	case StateIdle:
		return to == StateChartEnsured
	case StateChartEnsured:
		return to == StateStepsSent
	case StateStepsSent:
		return to == StateVerifying
	case StateVerifying:
		return to == StateVerified || to == StateFailed
	default:
		return false
	}
}

func (o *Orchestrator) advance(to State) error {
	if !allowedTransition(o.state, to) {
		return fmt.Errorf("invalid attach transition: %s -> %s", o.state, to)
	}
	o.log.Trace().Stringer("from", o.state).Stringer("to", to).Msg("attach state transition")
	o.state = to
	return nil
}
