package pipeline

import "fmt"

// PipelineMisuseError reports a sequencer call made out of turn. It is a
// programming error, not a runtime condition.
type PipelineMisuseError struct {
	EntityID string
	Op       string
	State    State
	Step     int
}

func (e *PipelineMisuseError) Error() string {
	if e.State == "" {
		return fmt.Sprintf("pipeline misuse: %s on unknown entity %q", e.Op, e.EntityID)
	}
	if e.Op == "advance" {
		return fmt.Sprintf("pipeline misuse: advance on %q in state %s (step %d)", e.EntityID, e.State, e.Step)
	}
	return fmt.Sprintf("pipeline misuse: %s on %q in state %s", e.Op, e.EntityID, e.State)
}
