package a2a

import "net/http"

/*
TaskEvent names the task lifecycle moments a webhook can subscribe to.
*/
type TaskEvent string

const (
	TaskEventStatusChanged TaskEvent = "statusChanged"
	TaskEventArtifactAdded TaskEvent = "artifactAdded"
	TaskEventCompleted     TaskEvent = "completed"
	TaskEventFailed        TaskEvent = "failed"
	TaskEventCancelled     TaskEvent = "cancelled"
)

/*
MatchesTransition reports whether this event fires for a state change.
statusChanged only fires when the state actually changed.
*/
func (event TaskEvent) MatchesTransition(from, to TaskState) bool {
	switch event {
	case TaskEventStatusChanged:
		return from != to
	case TaskEventCompleted:
		return to == TaskStateCompleted
	case TaskEventFailed:
		return to == TaskStateFailed
	case TaskEventCancelled:
		return to == TaskStateCancelled
	}
	return false
}

/*
PushAuth carries the credentials attached to each webhook delivery.  The
variants are untagged: a bearer token populates Token, custom headers
populate Headers.
*/
type PushAuth struct {
	Token   string            `json:"token,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
}

/*
Apply injects the credentials into an outgoing request immediately before
sending.
*/
func (auth *PushAuth) Apply(req *http.Request) {
	if auth == nil {
		return
	}

	if auth.Token != "" {
		req.Header.Set("Authorization", "Bearer "+auth.Token)
	}

	for key, value := range auth.Headers {
		req.Header.Set(key, value)
	}
}

/*
PushNotificationConfig is a per-task webhook registration.
*/
type PushNotificationConfig struct {
	URL    string      `json:"url"`
	Events []TaskEvent `json:"events"`
	Auth   *PushAuth   `json:"auth,omitempty"`
}

/*
WantsTransition reports whether any subscribed event fires for a state
change.
*/
func (config *PushNotificationConfig) WantsTransition(from, to TaskState) bool {
	for _, event := range config.Events {
		if event.MatchesTransition(from, to) {
			return true
		}
	}
	return false
}

/*
WantsArtifacts reports whether the config subscribed to artifact events.
*/
func (config *PushNotificationConfig) WantsArtifacts() bool {
	for _, event := range config.Events {
		if event == TaskEventArtifactAdded {
			return true
		}
	}
	return false
}
