package a2a

import "time"

/*
TaskState enumerates the mutually-exclusive states a task may be in.
States are lowercased on the wire.
*/
type TaskState string

const (
	TaskStatePending   TaskState = "pending"
	TaskStateWorking   TaskState = "working"
	TaskStateBlocked   TaskState = "blocked"
	TaskStateReview    TaskState = "review"
	TaskStateCompleted TaskState = "completed"
	TaskStateCancelled TaskState = "cancelled"
	TaskStateFailed    TaskState = "failed"
	TaskStateSuspended TaskState = "suspended"
)

// validTransitions is the task lifecycle table.  Self-loops are always
// permitted; terminal states have no successors.
var validTransitions = map[TaskState][]TaskState{
	TaskStatePending:   {TaskStateWorking, TaskStateCancelled, TaskStateFailed},
	TaskStateWorking:   {TaskStateBlocked, TaskStateReview, TaskStateCompleted, TaskStateFailed, TaskStateCancelled, TaskStateSuspended},
	TaskStateBlocked:   {TaskStateWorking, TaskStateFailed, TaskStateCancelled},
	TaskStateReview:    {TaskStateWorking, TaskStateCompleted, TaskStateFailed, TaskStateCancelled},
	TaskStateSuspended: {TaskStateWorking, TaskStateCancelled, TaskStateFailed},
	TaskStateCompleted: {},
	TaskStateCancelled: {},
	TaskStateFailed:    {},
}

/*
IsTerminal reports whether a state has no successors.
*/
func (state TaskState) IsTerminal() bool {
	switch state {
	case TaskStateCompleted, TaskStateCancelled, TaskStateFailed:
		return true
	}
	return false
}

/*
CanTransitionTo checks the lifecycle table.  Self-loops are always allowed.
*/
func (state TaskState) CanTransitionTo(next TaskState) bool {
	if state == next {
		return true
	}

	for _, allowed := range validTransitions[state] {
		if allowed == next {
			return true
		}
	}

	return false
}

type TaskStatus struct {
	State     TaskState      `json:"state"`
	Reason    string         `json:"reason,omitempty"`
	Timestamp *time.Time     `json:"timestamp,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

func NewTaskStatus(state TaskState) TaskStatus {
	now := time.Now().UTC()
	return TaskStatus{State: state, Timestamp: &now}
}
