package jsonrpc

import (
	"encoding/json"

	"github.com/woidev/ranch/pkg/errors"
)

/*
Response is a JSON-RPC 2.0 response.  Exactly one of Result and Error is
populated.
*/
type Response struct {
	JSONRPC string           `json:"jsonrpc"`
	ID      json.RawMessage  `json:"id"`
	Result  any              `json:"result,omitempty"`
	Error   *errors.RpcError `json:"error,omitempty"`
}

func NewResponse(id json.RawMessage, result any) Response {
	return Response{
		JSONRPC: Version,
		ID:      id,
		Result:  result,
	}
}

func NewErrorResponse(id json.RawMessage, e *errors.RpcError) Response {
	// Ensure mandatory Code/Message.
	if e == nil {
		e = errors.ErrInternal
	}

	return Response{
		JSONRPC: Version,
		ID:      id,
		Error:   e,
	}
}
