package sse

import (
	"bufio"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

/*
Event is a single W3C Server-Sent Event.  Data must be valid JSON; this
runtime never sends free-form text payloads.
*/
type Event struct {
	ID    string
	Type  string
	Retry int
	Data  json.RawMessage
}

/*
Format renders the event in wire form: id/event/retry/data lines followed
by a blank line.  Multiline data is split across data: lines.
*/
func (event *Event) Format() string {
	var sb strings.Builder

	if event.ID != "" {
		sb.WriteString("id: ")
		sb.WriteString(event.ID)
		sb.WriteString("\n")
	}

	if event.Type != "" {
		sb.WriteString("event: ")
		sb.WriteString(event.Type)
		sb.WriteString("\n")
	}

	if event.Retry > 0 {
		sb.WriteString("retry: ")
		sb.WriteString(strconv.Itoa(event.Retry))
		sb.WriteString("\n")
	}

	for _, line := range strings.Split(string(event.Data), "\n") {
		sb.WriteString("data: ")
		sb.WriteString(line)
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	return sb.String()
}

/*
ParseEvent parses a single serialized event.  Prefixes are stripped,
surrounding whitespace trimmed, and the data payload must be valid JSON.
*/
func ParseEvent(raw string) (*Event, error) {
	event := &Event{}
	var data strings.Builder
	seenData := false

	for _, line := range strings.Split(strings.TrimSpace(raw), "\n") {
		line = strings.TrimRight(line, "\r")

		switch {
		case strings.HasPrefix(line, "id:"):
			event.ID = strings.TrimSpace(line[3:])
		case strings.HasPrefix(line, "event:"):
			event.Type = strings.TrimSpace(line[6:])
		case strings.HasPrefix(line, "retry:"):
			retry, err := strconv.Atoi(strings.TrimSpace(line[6:]))
			if err != nil {
				return nil, fmt.Errorf("invalid retry value: %w", err)
			}
			event.Retry = retry
		case strings.HasPrefix(line, "data:"):
			if seenData {
				data.WriteString("\n")
			}
			seenData = true
			data.WriteString(strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		case strings.HasPrefix(line, ":"):
			// comment line
		case line == "":
		default:
			return nil, fmt.Errorf("malformed SSE line: %q", line)
		}
	}

	if !seenData {
		return nil, fmt.Errorf("event has no data")
	}

	payload := data.String()
	if !json.Valid([]byte(payload)) {
		return nil, fmt.Errorf("event data is not valid JSON")
	}

	event.Data = json.RawMessage(payload)
	return event, nil
}

/*
ReadEvent consumes one event from a buffered reader, blocking until the
terminating blank line.  Comment lines (heartbeats) between events are
skipped.
*/
func ReadEvent(reader *bufio.Reader) (*Event, error) {
	var raw strings.Builder
	inEvent := false

	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			return nil, err
		}

		trimmed := strings.TrimRight(line, "\n\r")

		if trimmed == "" {
			if inEvent {
				return ParseEvent(raw.String())
			}
			continue
		}

		if strings.HasPrefix(trimmed, ":") {
			continue
		}

		inEvent = true
		raw.WriteString(trimmed)
		raw.WriteString("\n")
	}
}
