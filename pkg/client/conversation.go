package client

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/woidev/ranch/pkg/a2a"
)

/*
Conversation is a stateful wrapper for multi-turn exchanges: every turn
shares one context id, and the full ordered message log is retained for
callers that need the transcript.
*/
type Conversation struct {
	client    *Client
	contextID string

	mu  sync.Mutex
	log []a2a.Message
}

func NewConversation(client *Client) *Conversation {
	return &Conversation{
		client:    client,
		contextID: uuid.NewString(),
	}
}

// ContextID returns the id shared by every message in this conversation.
func (conv *Conversation) ContextID() string {
	return conv.contextID
}

/*
Send posts a user text turn.  The sent message, and the reply when the
agent answers inline, are appended to the transcript.
*/
func (conv *Conversation) Send(ctx context.Context, text string, immediate bool) (*a2a.SendResponse, error) {
	message := a2a.NewTextMessage(a2a.RoleUser, text)
	message.ContextID = conv.contextID

	conv.append(*message)

	response, err := conv.client.SendMessage(ctx, a2a.MessageSendParams{
		Message:   *message,
		Immediate: immediate,
	})
	if err != nil {
		return nil, err
	}

	if response.Message != nil {
		conv.append(*response.Message)
	}

	return response, nil
}

// Messages returns a copy of the transcript in send order.
func (conv *Conversation) Messages() []a2a.Message {
	conv.mu.Lock()
	defer conv.mu.Unlock()
	return append([]a2a.Message(nil), conv.log...)
}

func (conv *Conversation) append(message a2a.Message) {
	conv.mu.Lock()
	defer conv.mu.Unlock()
	conv.log = append(conv.log, message)
}
