package agent

import (
	"context"

	"github.com/woidev/ranch/pkg/a2a"
)

/*
Local is an in-process agent: a card plus a process function.  It is the
building block for team members that do not live behind a server.
*/
type Local struct {
	card    a2a.AgentCard
	process func(ctx context.Context, message *a2a.Message) (*a2a.Message, error)
}

func NewLocal(card a2a.AgentCard, process func(ctx context.Context, message *a2a.Message) (*a2a.Message, error)) *Local {
	return &Local{card: card, process: process}
}

func (local *Local) Info(ctx context.Context) (a2a.AgentCard, error) {
	return local.card, nil
}

func (local *Local) Process(ctx context.Context, message *a2a.Message) (*a2a.Message, error) {
	return local.process(ctx, message)
}

func (local *Local) HealthCheck(ctx context.Context) bool {
	return true
}
