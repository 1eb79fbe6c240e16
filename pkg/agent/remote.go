package agent

import (
	"context"
	"fmt"

	"github.com/woidev/ranch/pkg/a2a"
	"github.com/woidev/ranch/pkg/client"
)

/*
Remote adapts an agent living behind an A2A endpoint so it can join a
team next to in-process members.  Messages go out as immediate sends.
*/
type Remote struct {
	client *client.Client
}

func NewRemote(baseURL string) *Remote {
	return &Remote{client: client.NewClient(baseURL)}
}

func (remote *Remote) Info(ctx context.Context) (a2a.AgentCard, error) {
	card, err := remote.client.AgentCard(ctx)
	if err != nil {
		return a2a.AgentCard{}, err
	}
	return *card, nil
}

func (remote *Remote) Process(ctx context.Context, message *a2a.Message) (*a2a.Message, error) {
	response, err := remote.client.SendMessage(ctx, a2a.MessageSendParams{
		Message:   *message,
		Immediate: true,
	})
	if err != nil {
		return nil, err
	}

	if response.Message == nil {
		return nil, fmt.Errorf("remote agent answered with a task, expected a message")
	}

	return response.Message, nil
}

func (remote *Remote) HealthCheck(ctx context.Context) bool {
	_, err := remote.client.AgentCard(ctx)
	return err == nil
}
