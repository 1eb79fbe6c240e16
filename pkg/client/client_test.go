package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/woidev/ranch/pkg/a2a"
	"github.com/woidev/ranch/pkg/errors"
	"github.com/woidev/ranch/pkg/jsonrpc"
)

// rpcStub answers /rpc with canned per-method results.
func rpcStub(t *testing.T, results map[string]any) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/rpc", func(w http.ResponseWriter, r *http.Request) {
		var req jsonrpc.Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, jsonrpc.Version, req.JSONRPC)
		assert.NotEmpty(t, req.ID)

		result, ok := results[req.Method]
		if !ok {
			_ = json.NewEncoder(w).Encode(jsonrpc.NewErrorResponse(req.ID, errors.ErrMethodNotFound))
			return
		}

		_ = json.NewEncoder(w).Encode(jsonrpc.NewResponse(req.ID, result))
	})

	return httptest.NewServer(mux)
}

func TestGetTask(t *testing.T) {
	task := a2a.NewTask("ctx")
	server := rpcStub(t, map[string]any{a2a.MethodTaskGet: task})
	defer server.Close()

	client := NewClient(server.URL)
	fetched, err := client.GetTask(context.Background(), task.ID)
	require.NoError(t, err)
	assert.Equal(t, task.ID, fetched.ID)
	assert.Equal(t, a2a.TaskStatePending, fetched.Status.State)
}

func TestRPCErrorSurfacesStructured(t *testing.T) {
	server := rpcStub(t, map[string]any{})
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.GetTask(context.Background(), "whatever")
	require.Error(t, err)

	rpcErr, ok := err.(*errors.RpcError)
	require.True(t, ok)
	assert.Equal(t, errors.ErrMethodNotFound.Code, rpcErr.Code)
}

func TestCallRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}

		var req jsonrpc.Request
		_ = json.NewDecoder(r.Body).Decode(&req)
		_ = json.NewEncoder(w).Encode(jsonrpc.NewResponse(req.ID, "ok"))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	// Collapse backoff so the test stays fast.
	client.backoff = func(int, error) time.Duration { return 0 }

	var out string
	require.NoError(t, client.Call(context.Background(), "echo", nil, &out))
	assert.Equal(t, "ok", out)
	assert.Equal(t, int32(3), calls.Load())
}

func TestCallHonorsRetryAfter(t *testing.T) {
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}

		var req jsonrpc.Request
		_ = json.NewDecoder(r.Body).Decode(&req)
		_ = json.NewEncoder(w).Encode(jsonrpc.NewResponse(req.ID, "ok"))
	}))
	defer server.Close()

	client := NewClient(server.URL)

	var out string
	require.NoError(t, client.Call(context.Background(), "echo", nil, &out))
	assert.Equal(t, int32(2), calls.Load())
}

func TestCallDoesNotRetryProtocolErrors(t *testing.T) {
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		var req jsonrpc.Request
		_ = json.NewDecoder(r.Body).Decode(&req)
		_ = json.NewEncoder(w).Encode(jsonrpc.NewErrorResponse(req.ID, errors.ErrTaskNotFound))
	}))
	defer server.Close()

	client := NewClient(server.URL)

	err := client.Call(context.Background(), a2a.MethodTaskGet, nil, nil)
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestSendTextReturnsMessage(t *testing.T) {
	reply := a2a.NewTextMessage(a2a.RoleAgent, "pong")
	server := rpcStub(t, map[string]any{a2a.MethodMessageSend: a2a.NewMessageResponse(reply)})
	defer server.Close()

	client := NewClient(server.URL)
	response, err := client.SendText(context.Background(), "ping")
	require.NoError(t, err)
	require.NotNil(t, response.Message)
	assert.Equal(t, "pong", response.Message.String())
}

func TestConversationKeepsTranscript(t *testing.T) {
	reply := a2a.NewTextMessage(a2a.RoleAgent, "hi there")
	server := rpcStub(t, map[string]any{a2a.MethodMessageSend: a2a.NewMessageResponse(reply)})
	defer server.Close()

	conv := NewConversation(NewClient(server.URL))

	_, err := conv.Send(context.Background(), "hello", true)
	require.NoError(t, err)
	_, err = conv.Send(context.Background(), "how are you", true)
	require.NoError(t, err)

	transcript := conv.Messages()
	require.Len(t, transcript, 4)
	assert.Equal(t, a2a.RoleUser, transcript[0].Role)
	assert.Equal(t, conv.ContextID(), transcript[0].ContextID)
	assert.Equal(t, a2a.RoleAgent, transcript[1].Role)
	assert.Equal(t, "how are you", transcript[2].String())
}

func TestListPushNotifications(t *testing.T) {
	entries := []a2a.PushNotificationEntry{{
		TaskID: "t1",
		Config: a2a.PushNotificationConfig{
			URL:    "https://hooks.example.com/cb",
			Events: []a2a.TaskEvent{a2a.TaskEventCompleted},
		},
	}}
	server := rpcStub(t, map[string]any{a2a.MethodPushNotificationList: entries})
	defer server.Close()

	client := NewClient(server.URL)
	listed, err := client.ListPushNotifications(context.Background())
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "t1", listed[0].TaskID)
}
