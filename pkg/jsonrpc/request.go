package jsonrpc

import (
	"bytes"
	"encoding/json"
)

// Version is the only protocol revision this package speaks.
const Version = "2.0"

/*
Request is a JSON-RPC 2.0 request as it appears on the wire.  ID is kept as
raw JSON so string, number and explicit null ids survive untouched; Params is
deferred until the dispatcher knows the method's parameter type.
*/
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"` // string | number | null
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

/*
IsNotification reports whether the request omitted its id entirely.  An
explicit "id": null is NOT a notification and still receives a response.
*/
func (req *Request) IsNotification() bool {
	return len(req.ID) == 0
}

/*
IsBatch reports whether a raw body is a batch (JSON array) rather than a
single request object.
*/
func IsBatch(body []byte) bool {
	body = bytes.TrimSpace(body)
	return len(body) > 0 && body[0] == '['
}

func NewRequest(id json.RawMessage, method string, params any) (*Request, error) {
	req := &Request{
		JSONRPC: Version,
		ID:      id,
		Method:  method,
	}

	if params != nil {
		buf, err := json.Marshal(params)
		if err != nil {
			return nil, err
		}
		req.Params = buf
	}

	return req, nil
}

func MarshalID(v any) json.RawMessage {
	buf, _ := json.Marshal(v)
	return buf
}
