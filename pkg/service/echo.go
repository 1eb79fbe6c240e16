package service

import (
	"context"

	"github.com/woidev/ranch/pkg/a2a"
	"github.com/woidev/ranch/pkg/errors"
	"github.com/woidev/ranch/pkg/stream"
)

/*
EchoHandler is the minimal handler: agent/card, message/send and the
health check.  Everything else reports itself unimplemented, which lets
a bare agent sit behind the full dispatcher without faking state it
does not track.
*/
type EchoHandler struct {
	card a2a.AgentCard
}

func NewEchoHandler(card a2a.AgentCard) *EchoHandler {
	return &EchoHandler{card: card}
}

func (handler *EchoHandler) AgentCard(ctx context.Context, params a2a.AgentCardGetParams) (*a2a.AgentCard, *errors.RpcError) {
	card := handler.card
	return &card, nil
}

func (handler *EchoHandler) MessageSend(ctx context.Context, params a2a.MessageSendParams) (*a2a.SendResponse, *errors.RpcError) {
	reply, rpcErr := EchoProcess(ctx, nil, params.Message)
	if rpcErr != nil {
		return nil, rpcErr
	}

	response := a2a.NewMessageResponse(reply)
	return &response, nil
}

func (handler *EchoHandler) MessageStream(ctx context.Context, params a2a.MessageSendParams) (<-chan stream.Envelope, *errors.RpcError) {
	return nil, errors.ErrUnsupportedOperation.WithMessagef("message/stream is not implemented")
}

func (handler *EchoHandler) TaskGet(ctx context.Context, params a2a.TaskIDParams) (*a2a.Task, *errors.RpcError) {
	return nil, errors.ErrUnsupportedOperation.WithMessagef("task/get is not implemented")
}

func (handler *EchoHandler) TaskStatus(ctx context.Context, params a2a.TaskIDParams) (*a2a.TaskStatus, *errors.RpcError) {
	return nil, errors.ErrUnsupportedOperation.WithMessagef("task/status is not implemented")
}

func (handler *EchoHandler) TaskCancel(ctx context.Context, params a2a.TaskCancelParams) (*a2a.TaskStatus, *errors.RpcError) {
	return nil, errors.ErrUnsupportedOperation.WithMessagef("task/cancel is not implemented")
}

func (handler *EchoHandler) TaskResubscribe(ctx context.Context, params a2a.TaskResubscribeParams) (<-chan stream.Envelope, *errors.RpcError) {
	return nil, errors.ErrUnsupportedOperation.WithMessagef("task/resubscribe is not implemented")
}

func (handler *EchoHandler) PushNotificationSet(ctx context.Context, params a2a.PushNotificationSetParams) *errors.RpcError {
	return errors.ErrPushNotSupported
}

func (handler *EchoHandler) PushNotificationGet(ctx context.Context, params a2a.TaskIDParams) (*a2a.PushNotificationConfig, *errors.RpcError) {
	return nil, errors.ErrPushNotSupported
}

func (handler *EchoHandler) PushNotificationList(ctx context.Context) ([]a2a.PushNotificationEntry, *errors.RpcError) {
	return nil, errors.ErrPushNotSupported
}

func (handler *EchoHandler) PushNotificationDelete(ctx context.Context, params a2a.TaskIDParams) (bool, *errors.RpcError) {
	return false, errors.ErrPushNotSupported
}

func (handler *EchoHandler) HealthCheck(ctx context.Context) error {
	return nil
}
