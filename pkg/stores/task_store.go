package stores

import (
	"sync"

	"github.com/charmbracelet/log"
	"github.com/woidev/ranch/pkg/a2a"
	"github.com/woidev/ranch/pkg/errors"
)

/*
TaskStore is the process-wide task repository.  It owns the lifecycle
rules: every mutation runs the transition table, and every accepted
mutation pushes the prior status onto the task's history.  A RWMutex
guards the map; no lock is ever held across I/O.
*/
type TaskStore struct {
	mu    sync.RWMutex
	tasks map[string]*a2a.Task
}

func NewTaskStore() *TaskStore {
	return &TaskStore{
		tasks: make(map[string]*a2a.Task),
	}
}

/*
Store inserts a new task.  Task ids are unique; storing a duplicate is a
caller bug and is rejected.
*/
func (store *TaskStore) Store(task *a2a.Task) *errors.RpcError {
	store.mu.Lock()
	defer store.mu.Unlock()

	if _, exists := store.tasks[task.ID]; exists {
		return errors.ErrInvalidParams.WithMessagef("task %s already exists", task.ID)
	}

	store.tasks[task.ID] = task
	return nil
}

/*
Get returns a copy of the task so callers can read it without holding the
store lock.
*/
func (store *TaskStore) Get(id string) (*a2a.Task, *errors.RpcError) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	task, ok := store.tasks[id]
	if !ok {
		return nil, errors.ErrTaskNotFound.WithData(map[string]any{"taskId": id})
	}

	snapshot := cloneTask(task)
	return &snapshot, nil
}

/*
Update replaces a stored task wholesale.  The lifecycle table still
applies to the status change it implies.
*/
func (store *TaskStore) Update(task *a2a.Task) *errors.RpcError {
	store.mu.Lock()
	defer store.mu.Unlock()

	current, ok := store.tasks[task.ID]
	if !ok {
		return errors.ErrTaskNotFound.WithData(map[string]any{"taskId": task.ID})
	}

	if !current.Status.State.CanTransitionTo(task.Status.State) {
		return transitionError(task.ID, current.Status.State, task.Status.State)
	}

	store.tasks[task.ID] = task
	return nil
}

func (store *TaskStore) GetStatus(id string) (a2a.TaskStatus, *errors.RpcError) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	task, ok := store.tasks[id]
	if !ok {
		return a2a.TaskStatus{}, errors.ErrTaskNotFound.WithData(map[string]any{"taskId": id})
	}

	return task.Status, nil
}

/*
UpdateState transitions a task to a new state.  Disallowed transitions are
rejected without mutating the task; accepted ones append the previous
status to history.  The previous state is returned so callers can fan out
webhook notifications for the transition.
*/
func (store *TaskStore) UpdateState(id string, state a2a.TaskState) (a2a.TaskState, *errors.RpcError) {
	return store.updateState(id, state, "")
}

// UpdateStateWithReason is UpdateState with a human-readable reason
// recorded on the new status.
func (store *TaskStore) UpdateStateWithReason(id string, state a2a.TaskState, reason string) (a2a.TaskState, *errors.RpcError) {
	return store.updateState(id, state, reason)
}

func (store *TaskStore) updateState(id string, state a2a.TaskState, reason string) (a2a.TaskState, *errors.RpcError) {
	store.mu.Lock()
	defer store.mu.Unlock()

	task, ok := store.tasks[id]
	if !ok {
		return "", errors.ErrTaskNotFound.WithData(map[string]any{"taskId": id})
	}

	previous := task.Status.State
	if !previous.CanTransitionTo(state) {
		return "", transitionError(id, previous, state)
	}

	task.ToStatus(state, reason)
	return previous, nil
}

/*
Cancel moves a task to cancelled.  Tasks already in a terminal state are
not cancelable; the error carries the current state so clients can see
why.
*/
func (store *TaskStore) Cancel(id string, reason string) (a2a.TaskStatus, *errors.RpcError) {
	store.mu.Lock()
	defer store.mu.Unlock()

	task, ok := store.tasks[id]
	if !ok {
		return a2a.TaskStatus{}, errors.ErrTaskNotFound.WithData(map[string]any{"taskId": id})
	}

	if task.Status.State.IsTerminal() {
		return a2a.TaskStatus{}, errors.ErrTaskNotCancelable.WithData(map[string]any{
			"taskId": id,
			"state":  task.Status.State,
		})
	}

	task.ToStatus(a2a.TaskStateCancelled, reason)
	log.Info("task cancelled", "taskID", id, "reason", reason)
	return task.Status, nil
}

/*
AddArtifact appends an artifact to a task.
*/
func (store *TaskStore) AddArtifact(id string, artifact a2a.Artifact) *errors.RpcError {
	store.mu.Lock()
	defer store.mu.Unlock()

	task, ok := store.tasks[id]
	if !ok {
		return errors.ErrTaskNotFound.WithData(map[string]any{"taskId": id})
	}

	task.AddArtifact(artifact)
	return nil
}

func (store *TaskStore) ListAll() []a2a.Task {
	store.mu.RLock()
	defer store.mu.RUnlock()

	tasks := make([]a2a.Task, 0, len(store.tasks))
	for _, task := range store.tasks {
		tasks = append(tasks, cloneTask(task))
	}
	return tasks
}

func (store *TaskStore) ListByState(state a2a.TaskState) []a2a.Task {
	store.mu.RLock()
	defer store.mu.RUnlock()

	tasks := make([]a2a.Task, 0)
	for _, task := range store.tasks {
		if task.Status.State == state {
			tasks = append(tasks, cloneTask(task))
		}
	}
	return tasks
}

func (store *TaskStore) Delete(id string) bool {
	store.mu.Lock()
	defer store.mu.Unlock()

	_, ok := store.tasks[id]
	delete(store.tasks, id)
	return ok
}

func (store *TaskStore) Count() int {
	store.mu.RLock()
	defer store.mu.RUnlock()
	return len(store.tasks)
}

// Clear empties the store.  Test helper.
func (store *TaskStore) Clear() {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.tasks = make(map[string]*a2a.Task)
}

func transitionError(id string, from, to a2a.TaskState) *errors.RpcError {
	return errors.ErrUnsupportedOperation.
		WithMessagef("cannot transition task from %s to %s", from, to).
		WithData(map[string]any{"taskId": id, "from": from, "to": to})
}

func cloneTask(task *a2a.Task) a2a.Task {
	snapshot := *task
	snapshot.Artifacts = append([]a2a.Artifact(nil), task.Artifacts...)
	snapshot.History = append([]a2a.TaskStatus(nil), task.History...)
	return snapshot
}
