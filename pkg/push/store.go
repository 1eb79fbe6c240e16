package push

import (
	"sort"
	"sync"

	"github.com/woidev/ranch/pkg/a2a"
	"github.com/woidev/ranch/pkg/errors"
	"github.com/woidev/ranch/pkg/ssrf"
)

/*
ConfigStore keeps the per-task webhook registrations.  Set validates
before upserting, so every stored config has a safe URL and at least
one subscribed event.
*/
type ConfigStore struct {
	mu      sync.RWMutex
	configs map[string]a2a.PushNotificationConfig
}

// NewConfigStore returns an empty config store.
func NewConfigStore() *ConfigStore {
	return &ConfigStore{configs: make(map[string]a2a.PushNotificationConfig)}
}

/*
Set validates the config and upserts it for the task.  An empty events
list or a webhook URL that fails validation rejects the whole call and
leaves any existing registration untouched.
*/
func (store *ConfigStore) Set(taskID string, config a2a.PushNotificationConfig) *errors.RpcError {
	if taskID == "" {
		return errors.ErrInvalidParams.WithMessagef("taskId must not be empty")
	}

	if len(config.Events) == 0 {
		return errors.ErrInvalidParams.WithMessagef("push notification config needs at least one event")
	}

	if err := ssrf.ValidateWebhookURL(config.URL); err != nil {
		return errors.ErrInvalidParams.WithMessagef("invalid webhook URL: %s", err)
	}

	store.mu.Lock()
	defer store.mu.Unlock()

	store.configs[taskID] = config
	return nil
}

// Get returns the task's registration, if any.
func (store *ConfigStore) Get(taskID string) (a2a.PushNotificationConfig, bool) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	config, ok := store.configs[taskID]
	return config, ok
}

// Delete removes the task's registration, reporting whether one existed.
func (store *ConfigStore) Delete(taskID string) bool {
	store.mu.Lock()
	defer store.mu.Unlock()

	_, ok := store.configs[taskID]
	delete(store.configs, taskID)
	return ok
}

// List returns every registration, ordered by task id for stable output.
func (store *ConfigStore) List() []a2a.PushNotificationEntry {
	store.mu.RLock()
	defer store.mu.RUnlock()

	entries := make([]a2a.PushNotificationEntry, 0, len(store.configs))
	for taskID, config := range store.configs {
		entries = append(entries, a2a.PushNotificationEntry{TaskID: taskID, Config: config})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].TaskID < entries[j].TaskID
	})

	return entries
}

/*
MatchingTransition returns the configs subscribed to the given state
change, keyed by task id.
*/
func (store *ConfigStore) MatchingTransition(taskID string, from, to a2a.TaskState) []a2a.PushNotificationConfig {
	store.mu.RLock()
	defer store.mu.RUnlock()

	var matched []a2a.PushNotificationConfig
	if config, ok := store.configs[taskID]; ok && config.WantsTransition(from, to) {
		matched = append(matched, config)
	}

	return matched
}
