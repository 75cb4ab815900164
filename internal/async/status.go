package async

// State describes where a task is in its lifecycle. A task is created in
// StateRunning and reaches exactly one terminal state; StateIdle is the
// manager's state when no task is outstanding.
type State int

const (
	StateIdle State = iota
	StateRunning
	StateSucceeded
	StateFailed
	StateCanceled
)

// String returns the lowercase name of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	case StateCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Terminal reports whether the state is one of the three terminal states.
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateFailed || s == StateCanceled
}

// Status is a lifecycle event for a single task. Err is set only for
// StateFailed.
type Status struct {
	ID    int64
	State State
	Err   error
}

// StatusListener receives task lifecycle events. Listeners are always
// invoked on the owning context.
type StatusListener func(Status)
