package service

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/woidev/ranch/pkg/a2a"
	"github.com/woidev/ranch/pkg/auth"
	"github.com/woidev/ranch/pkg/errors"
	"github.com/woidev/ranch/pkg/jsonrpc"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	handler := NewDefaultHandler(testCard(), nil)
	t.Cleanup(handler.Close)
	return NewServer(testCard(), handler)
}

func postRPC(t *testing.T, server *Server, body string) *http.Response {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/rpc", bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")

	resp, err := server.App().Test(req)
	require.NoError(t, err)
	return resp
}

func TestServerServesAgentCard(t *testing.T) {
	server := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/.well-known/agent-card", nil)
	resp, err := server.App().Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var card a2a.AgentCard
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&card))
	assert.Equal(t, "Test Agent", card.Name)
	assert.Contains(t, card.Capabilities, "streaming")
}

func TestServerRPCSendImmediate(t *testing.T) {
	server := testServer(t)

	resp := postRPC(t, server, `{
		"jsonrpc": "2.0",
		"id": 1,
		"method": "message/send",
		"params": {
			"message": {"role": "user", "parts": [{"text": "ping"}]},
			"immediate": true
		}
	}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var rpcResp struct {
		JSONRPC string           `json:"jsonrpc"`
		ID      json.RawMessage  `json:"id"`
		Result  a2a.SendResponse `json:"result"`
		Error   *errors.RpcError `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rpcResp))
	require.Nil(t, rpcResp.Error)
	require.NotNil(t, rpcResp.Result.Message)
	assert.Equal(t, "ping", rpcResp.Result.Message.String())
}

func TestServerRPCNotification(t *testing.T) {
	server := testServer(t)

	resp := postRPC(t, server, `{
		"jsonrpc": "2.0",
		"method": "message/send",
		"params": {"message": {"role": "user", "parts": [{"text": "fire and forget"}]}, "immediate": true}
	}`)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestServerRPCBatch(t *testing.T) {
	server := testServer(t)

	resp := postRPC(t, server, `[
		{"jsonrpc": "2.0", "id": 1, "method": "agent/card"},
		{"jsonrpc": "2.0", "id": 2, "method": "no/such/method"}
	]`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var responses []jsonrpc.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&responses))
	require.Len(t, responses, 2)
	assert.Nil(t, responses[0].Error)
	require.NotNil(t, responses[1].Error)
	assert.Equal(t, errors.ErrMethodNotFound.Code, responses[1].Error.Code)
}

func TestOpenStreamRejectsNonStreamingMethod(t *testing.T) {
	handler := NewDefaultHandler(testCard(), nil)
	defer handler.Close()
	server := NewServer(testCard(), handler)

	req, err := jsonrpc.NewRequest(jsonrpc.MarshalID(1), a2a.MethodTaskGet, a2a.TaskIDParams{TaskID: "x"})
	require.NoError(t, err)

	_, rpcErr := server.openStream(context.Background(), req, "")
	require.NotNil(t, rpcErr)
	assert.Equal(t, errors.ErrMethodNotFound.Code, rpcErr.Code)
}

func TestOpenStreamHeaderSetsReplayCursor(t *testing.T) {
	handler := NewDefaultHandler(testCard(), nil)
	defer handler.Close()
	server := NewServer(testCard(), handler)

	// A finished task has no live writer; the snapshot path still works
	// when the header carries a stale cursor.
	response, rpcErr := handler.MessageSend(context.Background(), a2a.MessageSendParams{
		Message: *a2a.NewTextMessage(a2a.RoleUser, "quick"),
	})
	require.Nil(t, rpcErr)
	waitForState(t, handler, response.Task.ID, a2a.TaskStateCompleted)

	req, err := jsonrpc.NewRequest(jsonrpc.MarshalID(1), a2a.MethodTaskResubscribe, a2a.TaskResubscribeParams{
		TaskID: response.Task.ID,
	})
	require.NoError(t, err)

	events, rpcErr := server.openStream(context.Background(), req, "42")
	require.Nil(t, rpcErr)

	collected := collectStream(t, events)
	require.Len(t, collected, 2)
	assert.Equal(t, a2a.EventTypeTask, collected[0].Result.EventType())
}

func TestAuthProtectsRPCButNotDiscovery(t *testing.T) {
	handler := NewDefaultHandler(testCard(), nil)
	defer handler.Close()
	server := NewServer(testCard(), handler, WithAuth(auth.BearerAuth{Token: "tok"}))

	body := `{"jsonrpc": "2.0", "id": 1, "method": "agent/card"}`

	req := httptest.NewRequest(http.MethodPost, "/rpc", bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	resp, err := server.App().Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req = httptest.NewRequest(http.MethodPost, "/rpc", bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer tok")
	resp, err = server.App().Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Discovery stays open.
	req = httptest.NewRequest(http.MethodGet, "/.well-known/agent-card", nil)
	resp, err = server.App().Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
