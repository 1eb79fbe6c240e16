package errors

import (
	"fmt"
)

/*
RpcError represents a JSON-RPC error response.
*/
type RpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

/*
Error implements the error interface for RpcError.
*/
func (e *RpcError) Error() string {
	return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
}

// Convenience errors (JSON-RPC reserved codes -32700 .. -32603, server
// errors constrained to -32000 .. -32099).
var (
	ErrParseError     = &RpcError{Code: -32700, Message: "Parse error"}
	ErrInvalidRequest = &RpcError{Code: -32600, Message: "Invalid Request"}
	ErrMethodNotFound = &RpcError{Code: -32601, Message: "Method not found"}
	ErrInvalidParams  = &RpcError{Code: -32602, Message: "Invalid params"}
	ErrInternal       = &RpcError{Code: -32603, Message: "Internal error"}

	ErrServer                  = &RpcError{Code: -32000, Message: "Server error"}
	ErrTaskNotFound            = &RpcError{Code: -32001, Message: "Task not found"}
	ErrTaskNotCancelable       = &RpcError{Code: -32002, Message: "Task cannot be canceled"}
	ErrPushNotSupported        = &RpcError{Code: -32003, Message: "Push notifications not supported"}
	ErrUnsupportedOperation    = &RpcError{Code: -32004, Message: "Unsupported operation"}
	ErrContentTypeNotSupported = &RpcError{Code: -32005, Message: "Content type not supported"}
	ErrInvalidAgentResponse    = &RpcError{Code: -32006, Message: "Invalid agent response"}
	ErrExtendedCardNotSet      = &RpcError{Code: -32007, Message: "Authenticated extended card not configured"}
)

/*
WithMessagef creates a *copy* of an RpcError with a formatted message.
It does not modify the original error variable.
*/
func (e *RpcError) WithMessagef(format string, args ...any) *RpcError {
	newErr := *e
	newErr.Message = fmt.Sprintf(format, args...)
	return &newErr
}

/*
WithData creates a *copy* of an RpcError carrying structured context, e.g.
a map holding the offending task id.
*/
func (e *RpcError) WithData(data any) *RpcError {
	newErr := *e
	newErr.Data = data
	return &newErr
}

/*
FromError coerces any error into an RpcError so dispatchers always have a
code + message pair to put on the wire.
*/
func FromError(err error) *RpcError {
	if err == nil {
		return nil
	}

	if rpcErr, ok := err.(*RpcError); ok {
		return rpcErr
	}

	return ErrInternal.WithMessagef("%v", err)
}
