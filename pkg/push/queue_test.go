package push

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/woidev/ranch/pkg/a2a"
)

// fastQueue shrinks the backoff so retry tests finish quickly.
func fastQueue(t *testing.T) *Queue {
	t.Helper()
	queue := NewQueue(16, &http.Client{Timeout: 5 * time.Second})
	queue.retry.InitialDelay = 5 * time.Millisecond
	queue.retry.MaxDelay = 20 * time.Millisecond
	t.Cleanup(queue.Close)
	return queue
}

type capture struct {
	mu       sync.Mutex
	payloads []Payload
	headers  []http.Header
	failures int
}

func (cap *capture) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload Payload
		_ = json.NewDecoder(r.Body).Decode(&payload)

		cap.mu.Lock()
		defer cap.mu.Unlock()

		if cap.failures > 0 {
			cap.failures--
			w.WriteHeader(http.StatusBadGateway)
			return
		}

		cap.payloads = append(cap.payloads, payload)
		cap.headers = append(cap.headers, r.Header.Clone())
		w.WriteHeader(http.StatusOK)
	}
}

func (cap *capture) delivered() int {
	cap.mu.Lock()
	defer cap.mu.Unlock()
	return len(cap.payloads)
}

func waitFor(t *testing.T, condition func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestQueueDeliversPayload(t *testing.T) {
	cap := &capture{}
	server := httptest.NewServer(cap.handler())
	defer server.Close()

	queue := fastQueue(t)
	task := a2a.NewTask("ctx")

	config := a2a.PushNotificationConfig{
		URL:    server.URL,
		Events: []a2a.TaskEvent{a2a.TaskEventCompleted},
	}

	require.NoError(t, queue.Enqueue(config, NewPayload(a2a.TaskEventCompleted, task, "agent-1")))
	waitFor(t, func() bool { return cap.delivered() == 1 })

	cap.mu.Lock()
	defer cap.mu.Unlock()

	payload := cap.payloads[0]
	assert.Equal(t, a2a.TaskEventCompleted, payload.Event)
	assert.Equal(t, task.ID, payload.Task.ID)
	assert.Equal(t, "agent-1", payload.AgentID)

	_, err := time.Parse(time.RFC3339, payload.Timestamp)
	assert.NoError(t, err)

	assert.Equal(t, "application/json", cap.headers[0].Get("Content-Type"))
}

func TestQueueAppliesAuth(t *testing.T) {
	cap := &capture{}
	server := httptest.NewServer(cap.handler())
	defer server.Close()

	queue := fastQueue(t)

	config := a2a.PushNotificationConfig{
		URL:    server.URL,
		Events: []a2a.TaskEvent{a2a.TaskEventCompleted},
		Auth: &a2a.PushAuth{
			Token:   "secret",
			Headers: map[string]string{"X-Webhook-Key": "k1"},
		},
	}

	require.NoError(t, queue.Enqueue(config, NewPayload(a2a.TaskEventCompleted, a2a.NewTask("ctx"), "agent-1")))
	waitFor(t, func() bool { return cap.delivered() == 1 })

	cap.mu.Lock()
	defer cap.mu.Unlock()
	assert.Equal(t, "Bearer secret", cap.headers[0].Get("Authorization"))
	assert.Equal(t, "k1", cap.headers[0].Get("X-Webhook-Key"))
}

func TestQueueRetriesUntilSuccess(t *testing.T) {
	cap := &capture{failures: 2}
	server := httptest.NewServer(cap.handler())
	defer server.Close()

	queue := fastQueue(t)

	config := a2a.PushNotificationConfig{
		URL:    server.URL,
		Events: []a2a.TaskEvent{a2a.TaskEventStatusChanged},
	}

	require.NoError(t, queue.Enqueue(config, NewPayload(a2a.TaskEventStatusChanged, a2a.NewTask("ctx"), "agent-1")))
	waitFor(t, func() bool { return cap.delivered() == 1 })
}

func TestQueueDropsAfterAttemptBudget(t *testing.T) {
	cap := &capture{failures: 100}
	server := httptest.NewServer(cap.handler())
	defer server.Close()

	queue := fastQueue(t)

	config := a2a.PushNotificationConfig{
		URL:    server.URL,
		Events: []a2a.TaskEvent{a2a.TaskEventStatusChanged},
	}

	require.NoError(t, queue.Enqueue(config, NewPayload(a2a.TaskEventStatusChanged, a2a.NewTask("ctx"), "agent-1")))

	waitFor(t, func() bool {
		cap.mu.Lock()
		defer cap.mu.Unlock()
		return cap.failures <= 100-queue.retry.MaxAttempts
	})

	time.Sleep(100 * time.Millisecond)
	assert.Zero(t, cap.delivered())

	cap.mu.Lock()
	defer cap.mu.Unlock()
	assert.Equal(t, 100-queue.retry.MaxAttempts, cap.failures)
}

func TestEnqueueAfterClose(t *testing.T) {
	queue := NewQueue(4, nil)
	queue.Close()

	err := queue.Enqueue(validConfig(), NewPayload(a2a.TaskEventCompleted, a2a.NewTask("ctx"), "agent-1"))
	assert.Error(t, err)
}
