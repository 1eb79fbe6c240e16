package a2a

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"
)

const (
	RoleUser  = "user"
	RoleAgent = "agent"
)

/*
Message represents all non-artifact communication between client & agent.
*/
type Message struct {
	Role      string         `json:"role"` // "user" or "agent"
	Parts     []Part         `json:"parts"`
	MessageID string         `json:"messageId,omitempty"`
	TaskID    string         `json:"taskId,omitempty"`
	ContextID string         `json:"contextId,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

func NewTextMessage(role string, text string) *Message {
	return &Message{
		Role:      role,
		MessageID: uuid.NewString(),
		Parts:     []Part{NewTextPart(text)},
	}
}

func NewFileMessage(role string, file Part) *Message {
	return &Message{
		Role:      role,
		MessageID: uuid.NewString(),
		Parts:     []Part{file},
	}
}

func NewDataMessage(role string, data map[string]any) *Message {
	return &Message{
		Role:      role,
		MessageID: uuid.NewString(),
		Parts:     []Part{NewDataPart(data)},
	}
}

/*
String concatenates the text parts, which is what most agent bodies want
when they just need the prompt.
*/
func (msg *Message) String() string {
	var sb strings.Builder

	for _, part := range msg.Parts {
		if part.Text != nil {
			sb.WriteString(*part.Text)
		}
	}

	return sb.String()
}

/*
SetExtension stores a JSON-encoded value in the message metadata under the
extension URI.  The value is normalized through a marshal/unmarshal cycle
so the metadata map stays plain JSON data.
*/
func (msg *Message) SetExtension(uri string, value any) error {
	buf, err := json.Marshal(value)
	if err != nil {
		return err
	}

	var plain any
	if err := json.Unmarshal(buf, &plain); err != nil {
		return err
	}

	if msg.Metadata == nil {
		msg.Metadata = make(map[string]any)
	}
	msg.Metadata[uri] = plain
	return nil
}

/*
GetExtension reads a typed value back out of the message metadata.  The
boolean reports whether the extension key was present at all.
*/
func (msg *Message) GetExtension(uri string, out any) (bool, error) {
	if msg.Metadata == nil {
		return false, nil
	}

	raw, ok := msg.Metadata[uri]
	if !ok {
		return false, nil
	}

	buf, err := json.Marshal(raw)
	if err != nil {
		return true, err
	}

	return true, json.Unmarshal(buf, out)
}

/*
ClearExtension removes the extension key, if present.
*/
func (msg *Message) ClearExtension(uri string) {
	delete(msg.Metadata, uri)
}
