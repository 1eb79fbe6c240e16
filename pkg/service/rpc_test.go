package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/woidev/ranch/pkg/errors"
	"github.com/woidev/ranch/pkg/jsonrpc"
)

func echoRPCServer() *RPCServer {
	server := NewRPCServer()
	server.Register("echo", func(ctx context.Context, params json.RawMessage) (any, *errors.RpcError) {
		var text string
		if err := json.Unmarshal(params, &text); err != nil {
			return nil, errors.ErrInvalidParams
		}
		return text, nil
	})
	server.Register("fail", func(ctx context.Context, params json.RawMessage) (any, *errors.RpcError) {
		return nil, errors.ErrServer.WithMessagef("deliberate failure")
	})
	return server
}

func TestDispatchSingleRequest(t *testing.T) {
	server := echoRPCServer()

	payload, ok := server.Dispatch(context.Background(), []byte(`{"jsonrpc":"2.0","id":1,"method":"echo","params":"hello"}`))
	require.True(t, ok)

	resp, isResp := payload.(jsonrpc.Response)
	require.True(t, isResp)
	assert.Nil(t, resp.Error)
	assert.Equal(t, "hello", resp.Result)
	assert.Equal(t, json.RawMessage("1"), resp.ID)
}

func TestDispatchParseError(t *testing.T) {
	server := echoRPCServer()

	payload, ok := server.Dispatch(context.Background(), []byte(`{not json`))
	require.True(t, ok)

	resp := payload.(jsonrpc.Response)
	require.NotNil(t, resp.Error)
	assert.Equal(t, errors.ErrParseError.Code, resp.Error.Code)
}

func TestDispatchNonObjectBodyIsInvalidRequest(t *testing.T) {
	server := echoRPCServer()

	// Well-formed JSON that is not a request object parsed fine, so the
	// failure is an invalid request, not a parse error.
	for _, body := range []string{`123`, `"x"`, `true`} {
		payload, ok := server.Dispatch(context.Background(), []byte(body))
		require.True(t, ok)

		resp := payload.(jsonrpc.Response)
		require.NotNil(t, resp.Error, "body %s", body)
		assert.Equal(t, errors.ErrInvalidRequest.Code, resp.Error.Code, "body %s", body)
	}
}

func TestDispatchUnknownMethod(t *testing.T) {
	server := echoRPCServer()

	payload, _ := server.Dispatch(context.Background(), []byte(`{"jsonrpc":"2.0","id":2,"method":"nope"}`))
	resp := payload.(jsonrpc.Response)
	require.NotNil(t, resp.Error)
	assert.Equal(t, errors.ErrMethodNotFound.Code, resp.Error.Code)
}

func TestDispatchRejectsWrongVersion(t *testing.T) {
	server := echoRPCServer()

	payload, _ := server.Dispatch(context.Background(), []byte(`{"jsonrpc":"1.0","id":3,"method":"echo","params":"x"}`))
	resp := payload.(jsonrpc.Response)
	require.NotNil(t, resp.Error)
	assert.Equal(t, errors.ErrInvalidRequest.Code, resp.Error.Code)
}

func TestDispatchHandlerError(t *testing.T) {
	server := echoRPCServer()

	payload, _ := server.Dispatch(context.Background(), []byte(`{"jsonrpc":"2.0","id":4,"method":"fail"}`))
	resp := payload.(jsonrpc.Response)
	require.NotNil(t, resp.Error)
	assert.Equal(t, errors.ErrServer.Code, resp.Error.Code)
	assert.Equal(t, "deliberate failure", resp.Error.Message)
}

func TestDispatchNotificationProducesNoResponse(t *testing.T) {
	server := echoRPCServer()

	_, ok := server.Dispatch(context.Background(), []byte(`{"jsonrpc":"2.0","method":"echo","params":"quiet"}`))
	assert.False(t, ok)
}

func TestDispatchNullIDIsNotANotification(t *testing.T) {
	server := echoRPCServer()

	payload, ok := server.Dispatch(context.Background(), []byte(`{"jsonrpc":"2.0","id":null,"method":"echo","params":"x"}`))
	require.True(t, ok)

	resp := payload.(jsonrpc.Response)
	assert.Equal(t, json.RawMessage("null"), resp.ID)
	assert.Equal(t, "x", resp.Result)
}

func TestDispatchBatchPreservesOrder(t *testing.T) {
	server := echoRPCServer()

	body := []byte(`[
		{"jsonrpc":"2.0","id":"a","method":"echo","params":"one"},
		{"jsonrpc":"2.0","method":"echo","params":"notify"},
		{"jsonrpc":"2.0","id":"b","method":"nope"},
		{"jsonrpc":"2.0","id":"c","method":"echo","params":"three"}
	]`)

	payload, ok := server.Dispatch(context.Background(), body)
	require.True(t, ok)

	responses, isBatch := payload.([]jsonrpc.Response)
	require.True(t, isBatch)
	require.Len(t, responses, 3)

	assert.Equal(t, json.RawMessage(`"a"`), responses[0].ID)
	assert.Equal(t, "one", responses[0].Result)

	assert.Equal(t, json.RawMessage(`"b"`), responses[1].ID)
	require.NotNil(t, responses[1].Error)
	assert.Equal(t, errors.ErrMethodNotFound.Code, responses[1].Error.Code)

	assert.Equal(t, json.RawMessage(`"c"`), responses[2].ID)
	assert.Equal(t, "three", responses[2].Result)
}

func TestDispatchAllNotificationBatch(t *testing.T) {
	server := echoRPCServer()

	body := []byte(`[
		{"jsonrpc":"2.0","method":"echo","params":"a"},
		{"jsonrpc":"2.0","method":"echo","params":"b"}
	]`)

	_, ok := server.Dispatch(context.Background(), body)
	assert.False(t, ok)
}

func TestDispatchEmptyBatch(t *testing.T) {
	server := echoRPCServer()

	payload, ok := server.Dispatch(context.Background(), []byte(`[]`))
	require.True(t, ok)

	resp := payload.(jsonrpc.Response)
	require.NotNil(t, resp.Error)
	assert.Equal(t, errors.ErrInvalidRequest.Code, resp.Error.Code)
}

func TestRegisterHandlerInvalidParams(t *testing.T) {
	server := NewRPCServer()
	server.RegisterHandler(NewEchoHandler(testCard()))

	payload, _ := server.Dispatch(context.Background(), []byte(`{"jsonrpc":"2.0","id":1,"method":"task/get","params":"not an object"}`))
	resp := payload.(jsonrpc.Response)
	require.NotNil(t, resp.Error)
	assert.Equal(t, errors.ErrInvalidParams.Code, resp.Error.Code)
}

func TestEchoHandlerMethodSurface(t *testing.T) {
	server := NewRPCServer()
	server.RegisterHandler(NewEchoHandler(testCard()))

	payload, _ := server.Dispatch(context.Background(), []byte(`{"jsonrpc":"2.0","id":1,"method":"agent/card"}`))
	resp := payload.(jsonrpc.Response)
	require.Nil(t, resp.Error)

	payload, _ = server.Dispatch(context.Background(), []byte(`{"jsonrpc":"2.0","id":2,"method":"task/get","params":{"taskId":"x"}}`))
	resp = payload.(jsonrpc.Response)
	require.NotNil(t, resp.Error)
	assert.Equal(t, errors.ErrUnsupportedOperation.Code, resp.Error.Code)

	payload, _ = server.Dispatch(context.Background(), []byte(`{"jsonrpc":"2.0","id":3,"method":"pushNotification/list"}`))
	resp = payload.(jsonrpc.Response)
	require.NotNil(t, resp.Error)
	assert.Equal(t, errors.ErrPushNotSupported.Code, resp.Error.Code)
}
