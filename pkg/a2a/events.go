package a2a

import (
	"encoding/json"
	"fmt"
)

// SSE event types allowed on a streaming connection.  Anything else is a
// protocol violation.
const (
	EventTypeMessage        = "message"
	EventTypeTask           = "task"
	EventTypeStatusUpdate   = "task-status-update"
	EventTypeArtifactUpdate = "task-artifact-update"
)

/*
StreamingResult is the union of everything a streaming endpoint may emit:
a Message, a Task snapshot, or one of the task update events.  Exactly one
field is populated; the wire form is the inner object, untagged, with the
variant carried by the SSE event type.
*/
type StreamingResult struct {
	Message  *Message                 `json:"-"`
	Task     *Task                    `json:"-"`
	Status   *TaskStatusUpdateEvent   `json:"-"`
	Artifact *TaskArtifactUpdateEvent `json:"-"`
}

func NewMessageResult(msg *Message) StreamingResult {
	return StreamingResult{Message: msg}
}

func NewTaskResult(task *Task) StreamingResult {
	return StreamingResult{Task: task}
}

func NewStatusUpdateResult(event TaskStatusUpdateEvent) StreamingResult {
	return StreamingResult{Status: &event}
}

func NewArtifactUpdateResult(event TaskArtifactUpdateEvent) StreamingResult {
	return StreamingResult{Artifact: &event}
}

/*
EventType returns the SSE event name for the populated variant.
*/
func (result StreamingResult) EventType() string {
	switch {
	case result.Message != nil:
		return EventTypeMessage
	case result.Task != nil:
		return EventTypeTask
	case result.Status != nil:
		return EventTypeStatusUpdate
	case result.Artifact != nil:
		return EventTypeArtifactUpdate
	}
	return ""
}

/*
Final reports whether this result terminates a stream: a status update
whose state is terminal.
*/
func (result StreamingResult) Final() bool {
	return result.Status != nil && result.Status.Status.State.IsTerminal()
}

func (result StreamingResult) MarshalJSON() ([]byte, error) {
	switch {
	case result.Message != nil:
		return json.Marshal(result.Message)
	case result.Task != nil:
		return json.Marshal(result.Task)
	case result.Status != nil:
		return json.Marshal(result.Status)
	case result.Artifact != nil:
		return json.Marshal(result.Artifact)
	}
	return nil, fmt.Errorf("empty streaming result")
}

/*
UnmarshalStreamingResult decodes the data payload of an SSE event into the
variant named by its event type.
*/
func UnmarshalStreamingResult(eventType string, data []byte) (StreamingResult, error) {
	switch eventType {
	case EventTypeMessage:
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			return StreamingResult{}, err
		}
		return StreamingResult{Message: &msg}, nil
	case EventTypeTask:
		var task Task
		if err := json.Unmarshal(data, &task); err != nil {
			return StreamingResult{}, err
		}
		return StreamingResult{Task: &task}, nil
	case EventTypeStatusUpdate:
		var event TaskStatusUpdateEvent
		if err := json.Unmarshal(data, &event); err != nil {
			return StreamingResult{}, err
		}
		return StreamingResult{Status: &event}, nil
	case EventTypeArtifactUpdate:
		var event TaskArtifactUpdateEvent
		if err := json.Unmarshal(data, &event); err != nil {
			return StreamingResult{}, err
		}
		return StreamingResult{Artifact: &event}, nil
	}

	return StreamingResult{}, fmt.Errorf("unknown streaming event type %q", eventType)
}
