package stream

import (
	"strconv"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/woidev/ranch/pkg/a2a"
	"github.com/woidev/ranch/pkg/metrics"
)

const (
	// DefaultSubscriberBuffer bounds each subscriber's pending events.
	DefaultSubscriberBuffer = 32
	// DefaultReplayLimit bounds the per-task replay log.
	DefaultReplayLimit = 256
)

/*
Envelope pairs a streaming result with the SSE event id it was published
under, so subscribers can forward the id to reconnecting clients.
*/
type Envelope struct {
	ID     string
	Result *a2a.StreamingResult
}

/*
Subscriber is one attached consumer of a Writer.  Events arrive on a
bounded channel; when the consumer falls behind, the oldest pending
event is dropped so the rest of the fan-out never blocks.
*/
type Subscriber struct {
	writer *Writer
	events chan Envelope
}

/*
Events returns the subscriber's event channel.  The channel is closed
when the writer closes or the subscriber detaches.
*/
func (sub *Subscriber) Events() <-chan Envelope {
	return sub.events
}

/*
Close detaches the subscriber from its writer.  Safe to call more than
once; events buffered at the time of the call are discarded.
*/
func (sub *Subscriber) Close() {
	sub.writer.unsubscribe(sub)
}

type replayEntry struct {
	id     string
	result *a2a.StreamingResult
}

/*
Writer broadcasts the streaming results of a single task to any number
of subscribers and keeps a bounded replay log so reconnecting clients
can resume from their last seen event id.
*/
type Writer struct {
	mu          sync.Mutex
	taskID      string
	nextID      uint64
	subscribers map[*Subscriber]struct{}
	replay      []replayEntry
	replayLimit int
	bufferSize  int
	closed      bool
	metrics     *metrics.StreamingMetrics
}

/*
NewWriter returns a writer for the given task with the default buffer
and replay bounds.
*/
func NewWriter(taskID string) *Writer {
	return &Writer{
		taskID:      taskID,
		subscribers: make(map[*Subscriber]struct{}),
		replayLimit: DefaultReplayLimit,
		bufferSize:  DefaultSubscriberBuffer,
		metrics:     metrics.NewStreamingMetrics(),
	}
}

/*
Subscribe attaches a new consumer.  When lastEventID names an event still
held in the replay log, every event strictly after it is preloaded into
the subscriber's buffer; an unknown or empty id preloads the full log.
Returns nil once the writer has closed.
*/
func (writer *Writer) Subscribe(lastEventID string) *Subscriber {
	writer.mu.Lock()
	defer writer.mu.Unlock()

	if writer.closed {
		return nil
	}

	sub := &Subscriber{
		writer: writer,
		events: make(chan Envelope, writer.bufferSize),
	}

	for _, entry := range writer.eventsAfter(lastEventID) {
		writer.deliver(sub, Envelope{ID: entry.id, Result: entry.result})
	}

	writer.subscribers[sub] = struct{}{}
	return sub
}

/*
Publish assigns the next event id to the result, records it in the
replay log and fans it out to every subscriber.  Returns the id the
event was published under, or "" if the writer is closed.
*/
func (writer *Writer) Publish(result *a2a.StreamingResult) string {
	writer.mu.Lock()
	defer writer.mu.Unlock()

	if writer.closed {
		return ""
	}

	writer.nextID++
	id := strconv.FormatUint(writer.nextID, 10)

	writer.replay = append(writer.replay, replayEntry{id: id, result: result})
	if len(writer.replay) > writer.replayLimit {
		writer.replay = writer.replay[len(writer.replay)-writer.replayLimit:]
	}

	envelope := Envelope{ID: id, Result: result}
	for sub := range writer.subscribers {
		writer.deliver(sub, envelope)
	}

	return id
}

// deliver pushes onto a subscriber buffer, dropping its oldest pending
// event when full.  Caller holds writer.mu.
func (writer *Writer) deliver(sub *Subscriber, envelope Envelope) {
	select {
	case sub.events <- envelope:
		writer.metrics.RecordEvent(false, 0, 0)
		return
	default:
	}

	select {
	case dropped := <-sub.events:
		log.Warn(
			"slow stream subscriber, dropping oldest event",
			"task", writer.taskID,
			"dropped", dropped.ID,
		)
		writer.metrics.RecordEvent(true, 0, 0)
	default:
	}

	select {
	case sub.events <- envelope:
	default:
	}
}

/*
GetEventsAfter returns the replayed envelopes strictly after lastEventID
in publication order.  An unknown or empty id returns the full log.
*/
func (writer *Writer) GetEventsAfter(lastEventID string) []Envelope {
	writer.mu.Lock()
	defer writer.mu.Unlock()

	entries := writer.eventsAfter(lastEventID)
	envelopes := make([]Envelope, 0, len(entries))

	for _, entry := range entries {
		envelopes = append(envelopes, Envelope{ID: entry.id, Result: entry.result})
	}

	return envelopes
}

// eventsAfter implements the replay lookup.  Caller holds writer.mu.
func (writer *Writer) eventsAfter(lastEventID string) []replayEntry {
	if lastEventID == "" {
		return writer.replay
	}

	for idx, entry := range writer.replay {
		if entry.id == lastEventID {
			return writer.replay[idx+1:]
		}
	}

	return writer.replay
}

/*
Close disconnects every subscriber and rejects further publishes and
subscriptions.  The replay log survives so late GetEventsAfter calls can
still serve a snapshot.
*/
func (writer *Writer) Close() {
	writer.mu.Lock()
	defer writer.mu.Unlock()

	if writer.closed {
		return
	}

	writer.closed = true
	for sub := range writer.subscribers {
		close(sub.events)
		delete(writer.subscribers, sub)
	}
}

// TaskID returns the task this writer serves.
func (writer *Writer) TaskID() string {
	return writer.taskID
}

// SubscriberCount reports the number of attached subscribers.
func (writer *Writer) SubscriberCount() int {
	writer.mu.Lock()
	defer writer.mu.Unlock()
	return len(writer.subscribers)
}

// Metrics exposes the writer's streaming counters.
func (writer *Writer) Metrics() *metrics.StreamingMetrics {
	return writer.metrics
}

func (writer *Writer) unsubscribe(sub *Subscriber) {
	writer.mu.Lock()
	defer writer.mu.Unlock()

	if _, ok := writer.subscribers[sub]; !ok {
		return
	}

	delete(writer.subscribers, sub)
	close(sub.events)
}
