package jsonrpc

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/woidev/ranch/pkg/errors"
)

func TestNewResponseWire(t *testing.T) {
	response := NewResponse(MarshalID(1), map[string]string{"ok": "yes"})

	buf, err := json.Marshal(response)
	require.NoError(t, err)
	assert.JSONEq(t, `{"jsonrpc": "2.0", "id": 1, "result": {"ok": "yes"}}`, string(buf))
}

func TestNewErrorResponseWire(t *testing.T) {
	response := NewErrorResponse(MarshalID("req-1"), errors.ErrTaskNotFound)

	buf, err := json.Marshal(response)
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"jsonrpc": "2.0", "id": "req-1", "error": {"code": -32001, "message": "Task not found"}}`,
		string(buf))
}

func TestNewErrorResponseDefaultsToInternal(t *testing.T) {
	response := NewErrorResponse(nil, nil)

	require.NotNil(t, response.Error)
	assert.Equal(t, errors.ErrInternal.Code, response.Error.Code)
}
