package a2a

// Request parameter types for the A2A method set.  The dispatcher decodes
// the JSON-RPC params field into one of these before calling the handler.

// MessageSendParams is the input of message/send and message/stream.
type MessageSendParams struct {
	Message Message `json:"message"`
	// Immediate asks the handler to reply inline with a Message instead
	// of spawning a Task.
	Immediate bool           `json:"immediate,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// AgentCardGetParams is the input of agent/card.  AgentID is advisory;
// a server usually ignores it and returns its own card.
type AgentCardGetParams struct {
	AgentID string `json:"agentId,omitempty"`
}

// TaskIDParams is the shared shape of task/get and task/status.
type TaskIDParams struct {
	TaskID   string         `json:"taskId"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// TaskCancelParams is the input of task/cancel.
type TaskCancelParams struct {
	TaskID string `json:"taskId"`
	Reason string `json:"reason,omitempty"`
}

// TaskResubscribeParams is the input of task/resubscribe.  Metadata may
// carry a lastEventId for replay; transports may also supply it through
// the Last-Event-ID header.
type TaskResubscribeParams struct {
	TaskID   string         `json:"taskId"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// MetadataLastEventID is the metadata key checked on resubscribe.
const MetadataLastEventID = "lastEventId"

// LastEventID extracts the replay cursor, empty when absent.
func (params *TaskResubscribeParams) LastEventID() string {
	if params.Metadata == nil {
		return ""
	}
	if id, ok := params.Metadata[MetadataLastEventID].(string); ok {
		return id
	}
	return ""
}

// PushNotificationSetParams is the input of pushNotification/set.  Set is
// an upsert; at most one config exists per task.
type PushNotificationSetParams struct {
	TaskID string                 `json:"taskId"`
	Config PushNotificationConfig `json:"config"`
}

// PushNotificationEntry pairs a task with its registered config, as
// returned by pushNotification/list.
type PushNotificationEntry struct {
	TaskID string                 `json:"taskId"`
	Config PushNotificationConfig `json:"config"`
}
