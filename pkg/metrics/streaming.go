package metrics

import (
	"sync"
	"time"
)

/*
StreamingMetrics counts what happens on a live event stream: connections
opened by the SSE client and events fanned out by the stream writer.
Counters are cumulative until Reset.
*/
type StreamingMetrics struct {
	mu sync.RWMutex

	TotalConnections   int64
	FailedConnections  int64
	Reconnections      int64
	ConnectionDuration time.Duration

	TotalEvents    int64
	DroppedEvents  int64
	EventLatency   time.Duration
	ProcessingTime time.Duration
}

func NewStreamingMetrics() *StreamingMetrics {
	return &StreamingMetrics{}
}

/*
RecordConnection tallies one connection attempt and the time it took to
establish (or fail).
*/
func (m *StreamingMetrics) RecordConnection(success bool, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.TotalConnections++
	if !success {
		m.FailedConnections++
	}
	m.ConnectionDuration += duration
}

// RecordReconnection tallies a resume after a dropped connection.
func (m *StreamingMetrics) RecordReconnection() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Reconnections++
}

/*
RecordEvent tallies one event.  A dropped event is one evicted from a
subscriber channel that was not drained fast enough.
*/
func (m *StreamingMetrics) RecordEvent(dropped bool, latency, processingTime time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.TotalEvents++
	if dropped {
		m.DroppedEvents++
	}
	m.EventLatency += latency
	m.ProcessingTime += processingTime
}

/*
GetMetrics snapshots the counters into a map suitable for logging or a
diagnostics endpoint.  Averages are zero while no events were recorded.
*/
func (m *StreamingMetrics) GetMetrics() map[string]any {
	m.mu.RLock()
	defer m.mu.RUnlock()

	avgLatency := 0.0
	avgProcessing := 0.0

	if m.TotalEvents > 0 {
		avgLatency = m.EventLatency.Seconds() / float64(m.TotalEvents)
		avgProcessing = m.ProcessingTime.Seconds() / float64(m.TotalEvents)
	}

	return map[string]any{
		"total_connections":   m.TotalConnections,
		"failed_connections":  m.FailedConnections,
		"reconnections":       m.Reconnections,
		"connection_duration": m.ConnectionDuration.Seconds(),
		"total_events":        m.TotalEvents,
		"dropped_events":      m.DroppedEvents,
		"avg_event_latency":   avgLatency,
		"avg_processing_time": avgProcessing,
	}
}

// Reset clears every counter.
func (m *StreamingMetrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.TotalConnections = 0
	m.FailedConnections = 0
	m.Reconnections = 0
	m.ConnectionDuration = 0
	m.TotalEvents = 0
	m.DroppedEvents = 0
	m.EventLatency = 0
	m.ProcessingTime = 0
}
