package a2a

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
)

type Task struct {
	ID        string         `json:"id"`
	ContextID string         `json:"contextId,omitempty"`
	Status    TaskStatus     `json:"status"`
	Artifacts []Artifact     `json:"artifacts,omitempty"`
	History   []TaskStatus   `json:"history,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

func NewTask(contextID string) *Task {
	return &Task{
		ID:        uuid.NewString(),
		ContextID: contextID,
		Status:    NewTaskStatus(TaskStatePending),
	}
}

/*
ToStatus replaces the current status, pushing the previous one onto the
history list.  It does not consult the lifecycle table; that is the task
store's job.
*/
func (task *Task) ToStatus(state TaskState, reason string) {
	task.History = append(task.History, task.Status)

	now := time.Now().UTC()
	task.Status = TaskStatus{
		State:     state,
		Reason:    reason,
		Timestamp: &now,
	}
}

func (task *Task) AddArtifact(artifact Artifact) {
	task.Artifacts = append(task.Artifacts, artifact)
}

/*
TaskStatusUpdateEvent is sent when the agent wishes to inform the client of
a status transition.
*/
type TaskStatusUpdateEvent struct {
	TaskID    string         `json:"taskId"`
	Status    TaskStatus     `json:"status"`
	Final     bool           `json:"final"`
	Timestamp time.Time      `json:"timestamp"`
	Progress  *float64       `json:"progress,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

func NewTaskStatusUpdateEvent(taskID string, status TaskStatus) TaskStatusUpdateEvent {
	return TaskStatusUpdateEvent{
		TaskID:    taskID,
		Status:    status,
		Final:     status.State.IsTerminal(),
		Timestamp: time.Now().UTC(),
	}
}

/*
TaskArtifactUpdateEvent is emitted when a new or updated artifact is
available for a task.
*/
type TaskArtifactUpdateEvent struct {
	TaskID    string         `json:"taskId"`
	Artifact  Artifact       `json:"artifact"`
	Timestamp time.Time      `json:"timestamp"`
	Progress  *float64       `json:"progress,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

func NewTaskArtifactUpdateEvent(taskID string, artifact Artifact) TaskArtifactUpdateEvent {
	return TaskArtifactUpdateEvent{
		TaskID:    taskID,
		Artifact:  artifact,
		Timestamp: time.Now().UTC(),
	}
}

func (task *Task) String() string {
	var sb strings.Builder

	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("212")).
		Bold(true)

	labelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("39")).
		Bold(true)

	valueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("252"))

	sectionStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("99")).
		Bold(true)

	indent := "   "
	bullet := "│ "

	sb.WriteString(headerStyle.Render("Task Details") + "\n")
	sb.WriteString(bullet + labelStyle.Render("ID: ") + valueStyle.Render(task.ID) + "\n")
	if task.ContextID != "" {
		sb.WriteString(bullet + labelStyle.Render("Context ID: ") + valueStyle.Render(task.ContextID) + "\n")
	}

	sb.WriteString("\n" + sectionStyle.Render("Status") + "\n")
	sb.WriteString(bullet + labelStyle.Render("State: ") + valueStyle.Render(string(task.Status.State)) + "\n")
	if task.Status.Reason != "" {
		sb.WriteString(bullet + labelStyle.Render("Reason: ") + valueStyle.Render(task.Status.Reason) + "\n")
	}
	if task.Status.Timestamp != nil {
		sb.WriteString(bullet + labelStyle.Render("Timestamp: ") + valueStyle.Render(task.Status.Timestamp.Format(time.RFC3339)) + "\n")
	}

	if len(task.History) > 0 {
		sb.WriteString("\n" + sectionStyle.Render("History") + "\n")
		for i, status := range task.History {
			sb.WriteString(bullet + labelStyle.Render(fmt.Sprintf("Status %d: ", i+1)) + valueStyle.Render(string(status.State)) + "\n")
		}
	}

	if len(task.Artifacts) > 0 {
		sb.WriteString("\n" + sectionStyle.Render("Artifacts") + "\n")
		for i, artifact := range task.Artifacts {
			sb.WriteString(bullet + labelStyle.Render(fmt.Sprintf("Artifact %d", i+1)) + "\n")
			sb.WriteString(bullet + indent + labelStyle.Render("Type: ") + valueStyle.Render(artifact.Type) + "\n")
			if artifact.Name != nil {
				sb.WriteString(bullet + indent + labelStyle.Render("Name: ") + valueStyle.Render(*artifact.Name) + "\n")
			}
			if artifact.URI != "" {
				sb.WriteString(bullet + indent + labelStyle.Render("URI: ") + valueStyle.Render(artifact.URI) + "\n")
			}
		}
	}

	if len(task.Metadata) > 0 {
		sb.WriteString("\n" + sectionStyle.Render("Metadata") + "\n")
		keys := make([]string, 0, len(task.Metadata))
		for k := range task.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			sb.WriteString(bullet + labelStyle.Render(k+": ") + valueStyle.Render(fmt.Sprintf("%v", task.Metadata[k])) + "\n")
		}
	}

	return sb.String()
}
