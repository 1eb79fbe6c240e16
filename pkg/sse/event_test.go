package sse

import (
	"bufio"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventFormatParseRoundTrip(t *testing.T) {
	cases := []Event{
		{ID: "1", Type: "task", Data: json.RawMessage(`{"id":"t1"}`)},
		{Type: "message", Data: json.RawMessage(`{"role":"agent"}`)},
		{ID: "7", Type: "task-status-update", Retry: 3000, Data: json.RawMessage(`{"state":"working"}`)},
	}

	for _, event := range cases {
		parsed, err := ParseEvent(event.Format())
		require.NoError(t, err)
		assert.Equal(t, event.ID, parsed.ID)
		assert.Equal(t, event.Type, parsed.Type)
		assert.Equal(t, event.Retry, parsed.Retry)
		assert.JSONEq(t, string(event.Data), string(parsed.Data))
	}
}

func TestEventMultilineData(t *testing.T) {
	payload := "{\n  \"a\": 1\n}"
	event := Event{ID: "2", Type: "task", Data: json.RawMessage(payload)}

	wire := event.Format()
	assert.Equal(t, 3, strings.Count(wire, "data: "))

	parsed, err := ParseEvent(wire)
	require.NoError(t, err)
	assert.JSONEq(t, payload, string(parsed.Data))
}

func TestParseEventRejectsBadPayloads(t *testing.T) {
	_, err := ParseEvent("event: task\ndata: not json\n\n")
	assert.Error(t, err)

	_, err = ParseEvent("event: task\n\n")
	assert.Error(t, err)

	_, err = ParseEvent("garbage line\ndata: {}\n\n")
	assert.Error(t, err)
}

func TestParseEventTrimsAndSkipsComments(t *testing.T) {
	parsed, err := ParseEvent("  \n: heartbeat\nid: 9\nevent: message\ndata: {\"ok\":true}\n\n  ")
	require.NoError(t, err)
	assert.Equal(t, "9", parsed.ID)
	assert.Equal(t, "message", parsed.Type)
}

func TestReadEventSkipsHeartbeats(t *testing.T) {
	stream := ": heartbeat\n\nid: 1\nevent: task\ndata: {\"id\":\"t\"}\n\nid: 2\nevent: message\ndata: {}\n\n"
	reader := bufio.NewReader(strings.NewReader(stream))

	first, err := ReadEvent(reader)
	require.NoError(t, err)
	assert.Equal(t, "1", first.ID)

	second, err := ReadEvent(reader)
	require.NoError(t, err)
	assert.Equal(t, "2", second.ID)
	assert.Equal(t, "message", second.Type)
}
