package service

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/woidev/ranch/pkg/a2a"
	"github.com/woidev/ranch/pkg/errors"
	"github.com/woidev/ranch/pkg/push"
	"github.com/woidev/ranch/pkg/stores"
	"github.com/woidev/ranch/pkg/stream"
)

/*
ProcessFunc is the agent body plugged into a DefaultHandler.  It turns an
inbound message into a reply; task is nil on immediate sends, which have
no task context.
*/
type ProcessFunc func(ctx context.Context, task *a2a.Task, message a2a.Message) (*a2a.Message, *errors.RpcError)

// EchoProcess replies with the inbound text, role flipped to agent.
func EchoProcess(ctx context.Context, task *a2a.Task, message a2a.Message) (*a2a.Message, *errors.RpcError) {
	reply := a2a.NewTextMessage(a2a.RoleAgent, message.String())
	reply.ContextID = message.ContextID
	if task != nil {
		reply.TaskID = task.ID
	}
	return reply, nil
}

/*
DefaultHandler is the full-featured handler: tasks are tracked in the
store, every state change runs through the lifecycle table, streams fan
out through per-task writers and webhooks go through the delivery
queue.
*/
type DefaultHandler struct {
	card     a2a.AgentCard
	process  ProcessFunc
	tasks    *stores.TaskStore
	writers  *stream.Table
	configs  *push.ConfigStore
	webhooks *push.Queue
}

/*
NewDefaultHandler wires the handler with its own stores and delivery
queue.  A nil process falls back to EchoProcess.
*/
func NewDefaultHandler(card a2a.AgentCard, process ProcessFunc) *DefaultHandler {
	if process == nil {
		process = EchoProcess
	}

	return &DefaultHandler{
		card:     card,
		process:  process,
		tasks:    stores.NewTaskStore(),
		writers:  stream.NewTable(),
		configs:  push.NewConfigStore(),
		webhooks: push.NewQueue(push.DefaultQueueSize, nil),
	}
}

// Close stops the webhook delivery queue.
func (handler *DefaultHandler) Close() {
	handler.webhooks.Close()
}

// Tasks exposes the task store for embedding callers.
func (handler *DefaultHandler) Tasks() *stores.TaskStore {
	return handler.tasks
}

func (handler *DefaultHandler) AgentCard(ctx context.Context, params a2a.AgentCardGetParams) (*a2a.AgentCard, *errors.RpcError) {
	card := handler.card
	return &card, nil
}

func (handler *DefaultHandler) MessageSend(ctx context.Context, params a2a.MessageSendParams) (*a2a.SendResponse, *errors.RpcError) {
	if params.Immediate {
		reply, rpcErr := handler.process(ctx, nil, params.Message)
		if rpcErr != nil {
			return nil, rpcErr
		}

		response := a2a.NewMessageResponse(reply)
		return &response, nil
	}

	task := a2a.NewTask(params.Message.ContextID)
	if rpcErr := handler.tasks.Store(task); rpcErr != nil {
		return nil, rpcErr
	}

	if rpcErr := handler.transition(task.ID, a2a.TaskStateWorking, ""); rpcErr != nil {
		return nil, rpcErr
	}

	// Snapshot before spawning the processor so a fast completion cannot
	// leak a terminal state into the reply.
	snapshot, rpcErr := handler.tasks.Get(task.ID)
	if rpcErr != nil {
		return nil, rpcErr
	}

	go handler.run(task.ID, params.Message)

	response := a2a.NewTaskResponse(snapshot)
	return &response, nil
}

func (handler *DefaultHandler) MessageStream(ctx context.Context, params a2a.MessageSendParams) (<-chan stream.Envelope, *errors.RpcError) {
	task := a2a.NewTask(params.Message.ContextID)
	if rpcErr := handler.tasks.Store(task); rpcErr != nil {
		return nil, rpcErr
	}

	// Move to working before the writer exists: the stream opens with a
	// working task snapshot, not with the bootstrap pending state.
	if rpcErr := handler.transition(task.ID, a2a.TaskStateWorking, ""); rpcErr != nil {
		return nil, rpcErr
	}

	writer, _ := handler.writers.GetOrCreate(task.ID)
	sub := writer.Subscribe("")

	snapshot, rpcErr := handler.tasks.Get(task.ID)
	if rpcErr != nil {
		return nil, rpcErr
	}

	taskResult := a2a.NewTaskResult(snapshot)
	writer.Publish(&taskResult)

	statusResult := a2a.NewStatusUpdateResult(a2a.NewTaskStatusUpdateEvent(task.ID, snapshot.Status))
	writer.Publish(&statusResult)

	go handler.run(task.ID, params.Message)

	return sub.Events(), nil
}

func (handler *DefaultHandler) TaskGet(ctx context.Context, params a2a.TaskIDParams) (*a2a.Task, *errors.RpcError) {
	return handler.tasks.Get(params.TaskID)
}

func (handler *DefaultHandler) TaskStatus(ctx context.Context, params a2a.TaskIDParams) (*a2a.TaskStatus, *errors.RpcError) {
	status, rpcErr := handler.tasks.GetStatus(params.TaskID)
	if rpcErr != nil {
		return nil, rpcErr
	}
	return &status, nil
}

func (handler *DefaultHandler) TaskCancel(ctx context.Context, params a2a.TaskCancelParams) (*a2a.TaskStatus, *errors.RpcError) {
	previous, rpcErr := handler.tasks.GetStatus(params.TaskID)
	if rpcErr != nil {
		return nil, rpcErr
	}

	status, rpcErr := handler.tasks.Cancel(params.TaskID, params.Reason)
	if rpcErr != nil {
		return nil, rpcErr
	}

	handler.afterTransition(params.TaskID, previous.State, status)
	return &status, nil
}

func (handler *DefaultHandler) TaskResubscribe(ctx context.Context, params a2a.TaskResubscribeParams) (<-chan stream.Envelope, *errors.RpcError) {
	if writer := handler.writers.Get(params.TaskID); writer != nil {
		if sub := writer.Subscribe(params.LastEventID()); sub != nil {
			return sub.Events(), nil
		}
	}

	// No live writer: serve a snapshot and end the stream.
	task, rpcErr := handler.tasks.Get(params.TaskID)
	if rpcErr != nil {
		return nil, rpcErr
	}

	events := make(chan stream.Envelope, 2)
	taskResult := a2a.NewTaskResult(task)
	statusResult := a2a.NewStatusUpdateResult(a2a.NewTaskStatusUpdateEvent(task.ID, task.Status))
	events <- stream.Envelope{Result: &taskResult}
	events <- stream.Envelope{Result: &statusResult}
	close(events)

	return events, nil
}

func (handler *DefaultHandler) PushNotificationSet(ctx context.Context, params a2a.PushNotificationSetParams) *errors.RpcError {
	return handler.configs.Set(params.TaskID, params.Config)
}

func (handler *DefaultHandler) PushNotificationGet(ctx context.Context, params a2a.TaskIDParams) (*a2a.PushNotificationConfig, *errors.RpcError) {
	config, ok := handler.configs.Get(params.TaskID)
	if !ok {
		return nil, nil
	}
	return &config, nil
}

func (handler *DefaultHandler) PushNotificationList(ctx context.Context) ([]a2a.PushNotificationEntry, *errors.RpcError) {
	return handler.configs.List(), nil
}

func (handler *DefaultHandler) PushNotificationDelete(ctx context.Context, params a2a.TaskIDParams) (bool, *errors.RpcError) {
	return handler.configs.Delete(params.TaskID), nil
}

func (handler *DefaultHandler) HealthCheck(ctx context.Context) error {
	return nil
}

// run executes the agent body for a task and drives it to a terminal
// state, publishing stream events and webhooks along the way.
func (handler *DefaultHandler) run(taskID string, message a2a.Message) {
	task, rpcErr := handler.tasks.Get(taskID)
	if rpcErr != nil {
		log.Error("task vanished before processing", "taskID", taskID, "error", rpcErr)
		return
	}

	reply, rpcErr := handler.process(context.Background(), task, message)
	if rpcErr != nil {
		if err := handler.transition(taskID, a2a.TaskStateFailed, rpcErr.Message); err != nil {
			log.Error("failed task could not be marked failed", "taskID", taskID, "error", err)
		}
		return
	}

	if reply != nil {
		handler.addArtifact(taskID, a2a.NewDataArtifact("message", "reply", map[string]any{
			"message": reply,
		}))
	}

	if err := handler.transition(taskID, a2a.TaskStateCompleted, ""); err != nil {
		// Raced with task/cancel; the terminal event already went out.
		log.Info("task finished after cancellation", "taskID", taskID)
	}
}

// transition moves the task and runs the post-transition fan-out.
func (handler *DefaultHandler) transition(taskID string, to a2a.TaskState, reason string) *errors.RpcError {
	previous, rpcErr := handler.tasks.UpdateStateWithReason(taskID, to, reason)
	if rpcErr != nil {
		return rpcErr
	}

	status, rpcErr := handler.tasks.GetStatus(taskID)
	if rpcErr != nil {
		return rpcErr
	}

	handler.afterTransition(taskID, previous, status)
	return nil
}

// afterTransition publishes the status update to any live stream and
// enqueues webhooks for every subscribed event matching the change.
func (handler *DefaultHandler) afterTransition(taskID string, from a2a.TaskState, status a2a.TaskStatus) {
	if writer := handler.writers.Get(taskID); writer != nil {
		result := a2a.NewStatusUpdateResult(a2a.NewTaskStatusUpdateEvent(taskID, status))
		writer.Publish(&result)

		if status.State.IsTerminal() {
			handler.writers.Remove(taskID)
		}
	}

	config, ok := handler.configs.Get(taskID)
	if !ok {
		return
	}

	task, rpcErr := handler.tasks.Get(taskID)
	if rpcErr != nil {
		return
	}

	for _, event := range config.Events {
		if !event.MatchesTransition(from, status.State) {
			continue
		}

		if err := handler.webhooks.Enqueue(config, push.NewPayload(event, task, handler.card.ID)); err != nil {
			log.Error("webhook enqueue failed", "taskID", taskID, "event", event, "error", err)
		}
	}
}

// addArtifact records an artifact and fans it out to stream and webhook
// subscribers.
func (handler *DefaultHandler) addArtifact(taskID string, artifact a2a.Artifact) {
	if rpcErr := handler.tasks.AddArtifact(taskID, artifact); rpcErr != nil {
		log.Error("artifact could not be stored", "taskID", taskID, "error", rpcErr)
		return
	}

	if writer := handler.writers.Get(taskID); writer != nil {
		result := a2a.NewArtifactUpdateResult(a2a.NewTaskArtifactUpdateEvent(taskID, artifact))
		writer.Publish(&result)
	}

	config, ok := handler.configs.Get(taskID)
	if !ok || !config.WantsArtifacts() {
		return
	}

	task, rpcErr := handler.tasks.Get(taskID)
	if rpcErr != nil {
		return
	}

	if err := handler.webhooks.Enqueue(config, push.NewPayload(a2a.TaskEventArtifactAdded, task, handler.card.ID)); err != nil {
		log.Error("webhook enqueue failed", "taskID", taskID, "error", err)
	}
}
