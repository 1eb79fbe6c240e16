package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/woidev/ranch/pkg/a2a"
	"github.com/woidev/ranch/pkg/errors"
	"github.com/woidev/ranch/pkg/jsonrpc"
)

const defaultRequestTimeout = 30 * time.Second

/*
Client talks to a remote agent over JSON-RPC.  Transient failures are
retried with exponential backoff; protocol errors come back as
*errors.RpcError so callers can branch on the code.
*/
type Client struct {
	BaseURL    string
	HTTP       *http.Client
	MaxRetries int
	Headers    map[string]string

	// backoff overrides the retry delay, used by tests.
	backoff func(attempt int, lastErr error) time.Duration
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL:    baseURL,
		HTTP:       &http.Client{Timeout: defaultRequestTimeout},
		MaxRetries: 3,
		Headers:    make(map[string]string),
	}
}

// NewClientFromCard dials the endpoint a card advertises.
func NewClientFromCard(card a2a.AgentCard) *Client {
	return NewClient(card.URL)
}

// wire response with the result kept raw until the caller names a type.
type rpcResponse struct {
	JSONRPC string           `json:"jsonrpc"`
	ID      json.RawMessage  `json:"id"`
	Result  json.RawMessage  `json:"result"`
	Error   *errors.RpcError `json:"error"`
}

/*
Call performs one JSON-RPC request with a fresh UUID id, decoding the
result into out when non-nil.  Network errors, timeouts, 429 and 5xx
responses are retried up to MaxRetries with 2^attempt backoff; a 429
Retry-After header overrides the computed delay.
*/
func (client *Client) Call(ctx context.Context, method string, params any, out any) error {
	req, err := jsonrpc.NewRequest(jsonrpc.MarshalID(uuid.NewString()), method, params)
	if err != nil {
		return fmt.Errorf("marshal params: %w", err)
	}

	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	var lastErr error

	for attempt := 0; attempt <= client.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(client.delay(attempt-1, lastErr)):
			}
		}

		result, retryable, err := client.post(ctx, body)
		if err == nil {
			if out == nil || len(result) == 0 {
				return nil
			}
			return json.Unmarshal(result, out)
		}

		if !retryable {
			return err
		}

		log.Warn("rpc call failed, retrying", "method", method, "attempt", attempt, "error", err)
		lastErr = err
	}

	return fmt.Errorf("rpc %s failed after %d retries: %w", method, client.MaxRetries, lastErr)
}

// retryAfterError carries the server-suggested delay from a 429.
type retryAfterError struct {
	delay time.Duration
}

func (e *retryAfterError) Error() string {
	return fmt.Sprintf("rate limited, retry after %s", e.delay)
}

func (client *Client) delay(attempt int, lastErr error) time.Duration {
	if client.backoff != nil {
		return client.backoff(attempt, lastErr)
	}
	if ra, ok := lastErr.(*retryAfterError); ok && ra.delay >= 0 {
		return ra.delay
	}
	return time.Second * time.Duration(1<<attempt)
}

// post sends the body once.  The second return reports whether the
// failure is worth retrying.
func (client *Client) post(ctx context.Context, body []byte) (json.RawMessage, bool, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, client.BaseURL+"/rpc", bytes.NewReader(body))
	if err != nil {
		return nil, false, err
	}

	httpReq.Header.Set("Content-Type", "application/json")
	for key, value := range client.Headers {
		httpReq.Header.Set(key, value)
	}

	resp, err := client.HTTP.Do(httpReq)
	if err != nil {
		return nil, true, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		// A missing or malformed Retry-After falls back to the computed
		// backoff.
		delay := time.Duration(-1)
		if seconds, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil {
			delay = time.Duration(seconds) * time.Second
		}
		return nil, true, &retryAfterError{delay: delay}

	case resp.StatusCode >= http.StatusInternalServerError:
		return nil, true, fmt.Errorf("server responded %d", resp.StatusCode)

	case resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent:
		return nil, false, fmt.Errorf("server responded %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, err
	}

	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, false, nil
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(raw, &rpcResp); err != nil {
		return nil, false, fmt.Errorf("malformed response: %w", err)
	}

	if rpcResp.Error != nil {
		return nil, errors.IsRetryable(rpcResp.Error), rpcResp.Error
	}

	return rpcResp.Result, false, nil
}

// AgentCard fetches the remote agent's card.
func (client *Client) AgentCard(ctx context.Context) (*a2a.AgentCard, error) {
	var card a2a.AgentCard
	if err := client.Call(ctx, a2a.MethodAgentCard, a2a.AgentCardGetParams{}, &card); err != nil {
		return nil, err
	}
	return &card, nil
}

// SendMessage performs message/send and returns the task or message.
func (client *Client) SendMessage(ctx context.Context, params a2a.MessageSendParams) (*a2a.SendResponse, error) {
	var response a2a.SendResponse
	if err := client.Call(ctx, a2a.MethodMessageSend, params, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

// SendText is the convenience path for plain text prompts.
func (client *Client) SendText(ctx context.Context, text string) (*a2a.SendResponse, error) {
	return client.SendMessage(ctx, a2a.MessageSendParams{
		Message: *a2a.NewTextMessage(a2a.RoleUser, text),
	})
}

func (client *Client) GetTask(ctx context.Context, taskID string) (*a2a.Task, error) {
	var task a2a.Task
	if err := client.Call(ctx, a2a.MethodTaskGet, a2a.TaskIDParams{TaskID: taskID}, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (client *Client) GetTaskStatus(ctx context.Context, taskID string) (*a2a.TaskStatus, error) {
	var status a2a.TaskStatus
	if err := client.Call(ctx, a2a.MethodTaskStatus, a2a.TaskIDParams{TaskID: taskID}, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func (client *Client) CancelTask(ctx context.Context, taskID, reason string) (*a2a.TaskStatus, error) {
	var status a2a.TaskStatus
	params := a2a.TaskCancelParams{TaskID: taskID, Reason: reason}
	if err := client.Call(ctx, a2a.MethodTaskCancel, params, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func (client *Client) SetPushNotification(ctx context.Context, taskID string, config a2a.PushNotificationConfig) error {
	return client.Call(ctx, a2a.MethodPushNotificationSet, a2a.PushNotificationSetParams{
		TaskID: taskID,
		Config: config,
	}, nil)
}

func (client *Client) GetPushNotification(ctx context.Context, taskID string) (*a2a.PushNotificationConfig, error) {
	var config *a2a.PushNotificationConfig
	if err := client.Call(ctx, a2a.MethodPushNotificationGet, a2a.TaskIDParams{TaskID: taskID}, &config); err != nil {
		return nil, err
	}
	return config, nil
}

func (client *Client) ListPushNotifications(ctx context.Context) ([]a2a.PushNotificationEntry, error) {
	var entries []a2a.PushNotificationEntry
	if err := client.Call(ctx, a2a.MethodPushNotificationList, nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (client *Client) DeletePushNotification(ctx context.Context, taskID string) (bool, error) {
	var removed bool
	if err := client.Call(ctx, a2a.MethodPushNotificationDelete, a2a.TaskIDParams{TaskID: taskID}, &removed); err != nil {
		return false, err
	}
	return removed, nil
}
