package service

import (
	"context"

	"github.com/woidev/ranch/pkg/a2a"
	"github.com/woidev/ranch/pkg/errors"
	"github.com/woidev/ranch/pkg/stream"
)

/*
Handler is the full A2A method set.  The dispatcher decodes params and
calls the matching operation; streaming operations hand back an event
channel the transport drains into an SSE response.
*/
type Handler interface {
	AgentCard(ctx context.Context, params a2a.AgentCardGetParams) (*a2a.AgentCard, *errors.RpcError)
	MessageSend(ctx context.Context, params a2a.MessageSendParams) (*a2a.SendResponse, *errors.RpcError)
	MessageStream(ctx context.Context, params a2a.MessageSendParams) (<-chan stream.Envelope, *errors.RpcError)
	TaskGet(ctx context.Context, params a2a.TaskIDParams) (*a2a.Task, *errors.RpcError)
	TaskStatus(ctx context.Context, params a2a.TaskIDParams) (*a2a.TaskStatus, *errors.RpcError)
	TaskCancel(ctx context.Context, params a2a.TaskCancelParams) (*a2a.TaskStatus, *errors.RpcError)
	TaskResubscribe(ctx context.Context, params a2a.TaskResubscribeParams) (<-chan stream.Envelope, *errors.RpcError)
	PushNotificationSet(ctx context.Context, params a2a.PushNotificationSetParams) *errors.RpcError
	PushNotificationGet(ctx context.Context, params a2a.TaskIDParams) (*a2a.PushNotificationConfig, *errors.RpcError)
	PushNotificationList(ctx context.Context) ([]a2a.PushNotificationEntry, *errors.RpcError)
	PushNotificationDelete(ctx context.Context, params a2a.TaskIDParams) (bool, *errors.RpcError)
	HealthCheck(ctx context.Context) error
}
