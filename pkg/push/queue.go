package push

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/woidev/ranch/pkg/a2a"
	"github.com/woidev/ranch/pkg/errors"
)

const (
	// DefaultQueueSize bounds the number of pending deliveries.
	DefaultQueueSize = 1000
	// DefaultRequestTimeout covers connect plus read per webhook call.
	DefaultRequestTimeout = 30 * time.Second
)

/*
Payload is the JSON body POSTed to a webhook.
*/
type Payload struct {
	Event     a2a.TaskEvent `json:"event"`
	Task      *a2a.Task     `json:"task"`
	Timestamp string        `json:"timestamp"`
	AgentID   string        `json:"agentId"`
}

// NewPayload stamps the current time in RFC 3339.
func NewPayload(event a2a.TaskEvent, task *a2a.Task, agentID string) Payload {
	return Payload{
		Event:     event,
		Task:      task,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		AgentID:   agentID,
	}
}

type delivery struct {
	config  a2a.PushNotificationConfig
	payload Payload
	attempt int
}

/*
Queue is a bounded FIFO of webhook deliveries served by a single worker.
Failed deliveries are re-enqueued with exponential backoff until the
attempt budget runs out, then dropped with a log line.
*/
type Queue struct {
	deliveries chan delivery
	client     *http.Client
	retry      *errors.RetryConfig
	closeOnce  sync.Once
	done       chan struct{}
	wg         sync.WaitGroup
}

/*
NewQueue starts the delivery worker.  Size 0 falls back to
DefaultQueueSize; a nil client gets the default timeout.
*/
func NewQueue(size int, client *http.Client) *Queue {
	if size <= 0 {
		size = DefaultQueueSize
	}

	if client == nil {
		client = &http.Client{Timeout: DefaultRequestTimeout}
	}

	queue := &Queue{
		deliveries: make(chan delivery, size),
		client:     client,
		retry: &errors.RetryConfig{
			MaxAttempts:   5,
			InitialDelay:  time.Second,
			MaxDelay:      time.Minute,
			BackoffFactor: 2.0,
		},
		done: make(chan struct{}),
	}

	queue.wg.Add(1)
	go queue.worker()

	return queue
}

/*
Enqueue schedules a first-attempt delivery.  It fails only when the
queue has been closed; a full queue blocks the caller.
*/
func (queue *Queue) Enqueue(config a2a.PushNotificationConfig, payload Payload) error {
	return queue.enqueue(delivery{config: config, payload: payload})
}

func (queue *Queue) enqueue(item delivery) error {
	select {
	case <-queue.done:
		return fmt.Errorf("webhook queue is closed")
	default:
	}

	select {
	case queue.deliveries <- item:
		return nil
	case <-queue.done:
		return fmt.Errorf("webhook queue is closed")
	}
}

/*
Close stops accepting deliveries and waits for the worker to drain the
in-flight item.  Pending retries scheduled in the background are
abandoned.
*/
func (queue *Queue) Close() {
	queue.closeOnce.Do(func() {
		close(queue.done)
		queue.wg.Wait()
	})
}

func (queue *Queue) worker() {
	defer queue.wg.Done()

	for {
		select {
		case <-queue.done:
			return
		case item := <-queue.deliveries:
			queue.send(item)
		}
	}
}

func (queue *Queue) send(item delivery) {
	if err := queue.post(item); err == nil {
		return
	} else if item.attempt+1 >= queue.retry.MaxAttempts {
		log.Error(
			"webhook delivery dropped",
			"url", item.config.URL,
			"event", item.payload.Event,
			"attempts", item.attempt+1,
			"error", err,
		)
		return
	} else {
		delay := queue.retry.Delay(item.attempt)
		log.Warn(
			"webhook delivery failed, retrying",
			"url", item.config.URL,
			"event", item.payload.Event,
			"attempt", item.attempt,
			"delay", delay,
			"error", err,
		)

		item.attempt++
		go func(retry delivery) {
			select {
			case <-queue.done:
			case <-time.After(delay):
				_ = queue.enqueue(retry)
			}
		}(item)
	}
}

func (queue *Queue) post(item delivery) error {
	body, err := json.Marshal(item.payload)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, item.config.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	item.config.Auth.Apply(req)

	resp, err := queue.client.Do(req)
	if err != nil {
		return fmt.Errorf("send webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("webhook responded %d", resp.StatusCode)
	}

	return nil
}
