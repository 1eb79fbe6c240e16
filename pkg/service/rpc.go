package service

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"

	"github.com/woidev/ranch/pkg/a2a"
	"github.com/woidev/ranch/pkg/errors"
	"github.com/woidev/ranch/pkg/jsonrpc"
)

/*
HandlerFunc processes the raw params field and returns a result or an
*errors.RpcError.  Returning (nil, nil) produces {"result":null}.
*/
type HandlerFunc func(ctx context.Context, params json.RawMessage) (any, *errors.RpcError)

/*
RPCServer multiplexes JSON-RPC method names to handler functions.  It is
transport-agnostic: Dispatch consumes a raw body and produces the raw
responses, leaving HTTP status codes to the caller.
*/
type RPCServer struct {
	mu       sync.RWMutex
	handlers map[string]HandlerFunc
}

func NewRPCServer() *RPCServer {
	return &RPCServer{
		handlers: make(map[string]HandlerFunc),
	}
}

func (server *RPCServer) Register(method string, handler HandlerFunc) {
	server.mu.Lock()
	defer server.mu.Unlock()
	server.handlers[method] = handler
}

/*
Dispatch parses and executes a request body, single or batch.  The second
return is false when nothing should be written back: a lone notification,
or a batch made entirely of notifications.  Batch responses come back in
request order.
*/
func (server *RPCServer) Dispatch(ctx context.Context, body []byte) (any, bool) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return jsonrpc.NewErrorResponse(nil, errors.ErrInvalidRequest), true
	}

	if jsonrpc.IsBatch(body) {
		return server.dispatchBatch(ctx, body)
	}

	var req jsonrpc.Request
	if err := json.Unmarshal(body, &req); err != nil {
		return jsonrpc.NewErrorResponse(nil, decodeFailure(err)), true
	}

	resp := server.handle(ctx, &req)
	if req.IsNotification() {
		return nil, false
	}

	return resp, true
}

func (server *RPCServer) dispatchBatch(ctx context.Context, body []byte) (any, bool) {
	var batch []jsonrpc.Request
	if err := json.Unmarshal(body, &batch); err != nil {
		return jsonrpc.NewErrorResponse(nil, decodeFailure(err)), true
	}

	if len(batch) == 0 {
		return jsonrpc.NewErrorResponse(nil, errors.ErrInvalidRequest), true
	}

	responses := make([]jsonrpc.Response, 0, len(batch))
	for i := range batch {
		resp := server.handle(ctx, &batch[i])
		if !batch[i].IsNotification() {
			responses = append(responses, resp)
		}
	}

	if len(responses) == 0 {
		return nil, false
	}

	return responses, true
}

func (server *RPCServer) handle(ctx context.Context, req *jsonrpc.Request) jsonrpc.Response {
	if req.JSONRPC != jsonrpc.Version {
		return jsonrpc.NewErrorResponse(req.ID, errors.ErrInvalidRequest)
	}

	server.mu.RLock()
	handler, ok := server.handlers[req.Method]
	server.mu.RUnlock()

	if !ok {
		return jsonrpc.NewErrorResponse(req.ID, errors.ErrMethodNotFound.WithMessagef(
			"method %q is not registered", req.Method,
		))
	}

	result, rpcErr := handler(ctx, req.Params)
	if rpcErr != nil {
		return jsonrpc.NewErrorResponse(req.ID, rpcErr)
	}

	return jsonrpc.NewResponse(req.ID, result)
}

/*
decodeFailure distinguishes malformed JSON from well-formed JSON that is
not a request object: only the former is a parse error, the latter is an
invalid request.
*/
func decodeFailure(err error) *errors.RpcError {
	if _, ok := err.(*json.SyntaxError); ok {
		return errors.ErrParseError
	}
	return errors.ErrInvalidRequest
}

// decodeParams unmarshals the params field, mapping failures to the
// invalid-params code.
func decodeParams(raw json.RawMessage, out any) *errors.RpcError {
	if len(raw) == 0 {
		return nil
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return errors.ErrInvalidParams.WithMessagef("failed to unmarshal params: %v", err)
	}

	return nil
}

/*
RegisterHandler binds the A2A method set to the dispatcher.  Streaming
methods are excluded; they ride on the SSE endpoint, not on /rpc.
*/
func (server *RPCServer) RegisterHandler(handler Handler) {
	server.Register(a2a.MethodAgentCard, func(ctx context.Context, raw json.RawMessage) (any, *errors.RpcError) {
		var params a2a.AgentCardGetParams
		if rpcErr := decodeParams(raw, &params); rpcErr != nil {
			return nil, rpcErr
		}
		return handler.AgentCard(ctx, params)
	})

	server.Register(a2a.MethodMessageSend, func(ctx context.Context, raw json.RawMessage) (any, *errors.RpcError) {
		var params a2a.MessageSendParams
		if rpcErr := decodeParams(raw, &params); rpcErr != nil {
			return nil, rpcErr
		}
		return handler.MessageSend(ctx, params)
	})

	server.Register(a2a.MethodTaskGet, func(ctx context.Context, raw json.RawMessage) (any, *errors.RpcError) {
		var params a2a.TaskIDParams
		if rpcErr := decodeParams(raw, &params); rpcErr != nil {
			return nil, rpcErr
		}
		return handler.TaskGet(ctx, params)
	})

	server.Register(a2a.MethodTaskStatus, func(ctx context.Context, raw json.RawMessage) (any, *errors.RpcError) {
		var params a2a.TaskIDParams
		if rpcErr := decodeParams(raw, &params); rpcErr != nil {
			return nil, rpcErr
		}
		return handler.TaskStatus(ctx, params)
	})

	server.Register(a2a.MethodTaskCancel, func(ctx context.Context, raw json.RawMessage) (any, *errors.RpcError) {
		var params a2a.TaskCancelParams
		if rpcErr := decodeParams(raw, &params); rpcErr != nil {
			return nil, rpcErr
		}
		return handler.TaskCancel(ctx, params)
	})

	server.Register(a2a.MethodPushNotificationSet, func(ctx context.Context, raw json.RawMessage) (any, *errors.RpcError) {
		var params a2a.PushNotificationSetParams
		if rpcErr := decodeParams(raw, &params); rpcErr != nil {
			return nil, rpcErr
		}
		if rpcErr := handler.PushNotificationSet(ctx, params); rpcErr != nil {
			return nil, rpcErr
		}
		return nil, nil
	})

	server.Register(a2a.MethodPushNotificationGet, func(ctx context.Context, raw json.RawMessage) (any, *errors.RpcError) {
		var params a2a.TaskIDParams
		if rpcErr := decodeParams(raw, &params); rpcErr != nil {
			return nil, rpcErr
		}
		return handler.PushNotificationGet(ctx, params)
	})

	server.Register(a2a.MethodPushNotificationList, func(ctx context.Context, raw json.RawMessage) (any, *errors.RpcError) {
		return handler.PushNotificationList(ctx)
	})

	server.Register(a2a.MethodPushNotificationDelete, func(ctx context.Context, raw json.RawMessage) (any, *errors.RpcError) {
		var params a2a.TaskIDParams
		if rpcErr := decodeParams(raw, &params); rpcErr != nil {
			return nil, rpcErr
		}
		return handler.PushNotificationDelete(ctx, params)
	})
}
