package sse

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/woidev/ranch/pkg/metrics"
)

// Client consumes a server-sent event stream opened with a POST request,
// reconnecting with the last seen event id when the connection drops.
type Client struct {
	URL     string
	Headers map[string]string
	Metrics *metrics.StreamingMetrics

	mu          sync.RWMutex
	conn        *http.Response
	reader      *bufio.Reader
	lastEventID string
	stopChan    chan struct{}
	stopOnce    sync.Once
	httpClient  *http.Client
}

// NewClient creates a new SSE client.  Streaming connections use a long
// read timeout; only dialing is bounded.
func NewClient(url string) *Client {
	return &Client{
		URL:      url,
		Headers:  make(map[string]string),
		Metrics:  metrics.NewStreamingMetrics(),
		stopChan: make(chan struct{}),
		httpClient: &http.Client{
			Timeout: 300 * time.Second,
		},
	}
}

/*
Subscribe opens the stream by POSTing body (a serialized JSON-RPC request)
and invokes handler for every event until the stream ends, the context is
canceled, or Close is called.  On transient disconnects it retries with
exponential backoff, resuming from the last seen event id.
*/
func (c *Client) Subscribe(ctx context.Context, body []byte, lastEventID string, handler func(*Event)) error {
	c.mu.Lock()
	c.lastEventID = lastEventID
	c.mu.Unlock()

	var retryCount int
	maxRetries := 3
	baseDelay := time.Second

	for {
		select {
		case <-ctx.Done():
			c.cleanup()
			return ctx.Err()
		case <-c.stopChan:
			c.cleanup()
			return nil
		default:
		}

		if err := c.connect(ctx, body); err != nil {
			if retryCount >= maxRetries {
				return fmt.Errorf("max retries exceeded: %w", err)
			}
			time.Sleep(baseDelay * time.Duration(1<<retryCount))
			retryCount++
			continue
		}

		retryCount = 0

		err := c.processEvents(ctx, handler)
		c.cleanup()

		if err == io.EOF {
			// Server finished the stream.
			return nil
		}
		if err == io.ErrUnexpectedEOF {
			c.Metrics.RecordReconnection()
			continue
		}
		return err
	}
}

func (c *Client) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		c.conn.Body.Close()
		c.conn = nil
		c.reader = nil
	}
}

func (c *Client) connect(ctx context.Context, body []byte) error {
	startTime := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(body))
	if err != nil {
		c.Metrics.RecordConnection(false, time.Since(startTime))
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	c.mu.RLock()
	if c.lastEventID != "" {
		req.Header.Set("Last-Event-ID", c.lastEventID)
	}
	c.mu.RUnlock()

	for k, v := range c.Headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.Metrics.RecordConnection(false, time.Since(startTime))
		return fmt.Errorf("failed to connect: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusBadRequest {
		respBody, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		c.Metrics.RecordConnection(false, time.Since(startTime))
		return fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode, string(respBody))
	}

	c.mu.Lock()
	c.conn = resp
	c.reader = bufio.NewReader(resp.Body)
	c.mu.Unlock()

	c.Metrics.RecordConnection(true, time.Since(startTime))
	return nil
}

func (c *Client) processEvents(ctx context.Context, handler func(*Event)) error {
	c.mu.RLock()
	reader := c.reader
	c.mu.RUnlock()

	if reader == nil {
		return io.EOF
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.stopChan:
			return nil
		default:
		}

		event, err := ReadEvent(reader)
		if err != nil {
			if err == io.EOF {
				return io.EOF
			}
			return io.ErrUnexpectedEOF
		}

		if event.ID != "" {
			c.mu.Lock()
			c.lastEventID = event.ID
			c.mu.Unlock()
		}

		eventStart := time.Now()
		handler(event)
		c.Metrics.RecordEvent(false, time.Since(eventStart), time.Since(eventStart))
	}
}

// Close terminates the subscription (idempotent).
func (c *Client) Close() error {
	c.stopOnce.Do(func() { close(c.stopChan) })

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		return c.conn.Body.Close()
	}
	return nil
}
