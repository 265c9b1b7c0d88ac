package sync

// RunState is the lifecycle state of one supplier sync run
type RunState string

const (
	StateIdle             RunState = "idle"
	StateFetchingManifest RunState = "fetching_manifest"
	StateProcessing       RunState = "processing"
	StateNoProducts       RunState = "no_products"
	StateCompleted        RunState = "completed"
	StateFailed           RunState = "failed"
)

// validTransitions defines the allowed state machine edges
var validTransitions = map[RunState][]RunState{
	StateIdle:             {StateFetchingManifest},
	StateFetchingManifest: {StateNoProducts, StateProcessing, StateFailed},
	StateProcessing:       {StateCompleted, StateFailed},
}

// IsTerminal reports whether no further transition is allowed
func (s RunState) IsTerminal() bool {
	switch s {
	case StateNoProducts, StateCompleted, StateFailed:
		return true
	}
	return false
}

// CanTransitionTo reports whether the transition from s to target is valid
func (s RunState) CanTransitionTo(target RunState) bool {
	for _, next := range validTransitions[s] {
		if next == target {
			return true
		}
	}
	return false
}
