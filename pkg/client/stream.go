package client

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/woidev/ranch/pkg/a2a"
	"github.com/woidev/ranch/pkg/jsonrpc"
	"github.com/woidev/ranch/pkg/sse"
)

/*
StreamMessage opens message/stream and yields parsed results until the
server ends the stream or the context is canceled.  The channel closes
when the stream does; consumption errors surface on the error channel
(at most one value).
*/
func (client *Client) StreamMessage(ctx context.Context, params a2a.MessageSendParams) (<-chan a2a.StreamingResult, <-chan error) {
	return client.stream(ctx, a2a.MethodMessageStream, params, "")
}

/*
Resubscribe re-attaches to a running task's stream.  A non-empty
lastEventID rides on the Last-Event-ID header so missed events are
replayed first.
*/
func (client *Client) Resubscribe(ctx context.Context, taskID, lastEventID string) (<-chan a2a.StreamingResult, <-chan error) {
	return client.stream(ctx, a2a.MethodTaskResubscribe, a2a.TaskResubscribeParams{TaskID: taskID}, lastEventID)
}

func (client *Client) stream(ctx context.Context, method string, params any, lastEventID string) (<-chan a2a.StreamingResult, <-chan error) {
	results := make(chan a2a.StreamingResult)
	errs := make(chan error, 1)

	req, err := jsonrpc.NewRequest(jsonrpc.MarshalID(uuid.NewString()), method, params)
	if err != nil {
		errs <- fmt.Errorf("marshal params: %w", err)
		close(results)
		close(errs)
		return results, errs
	}

	body, err := json.Marshal(req)
	if err != nil {
		errs <- fmt.Errorf("marshal request: %w", err)
		close(results)
		close(errs)
		return results, errs
	}

	sseClient := sse.NewClient(client.BaseURL + "/stream")
	for key, value := range client.Headers {
		sseClient.Headers[key] = value
	}

	go func() {
		defer close(results)
		defer close(errs)
		defer sseClient.Close()

		err := sseClient.Subscribe(ctx, body, lastEventID, func(event *sse.Event) {
			result, parseErr := a2a.UnmarshalStreamingResult(event.Type, event.Data)
			if parseErr != nil {
				log.Warn("dropping malformed stream event", "type", event.Type, "error", parseErr)
				return
			}

			select {
			case results <- result:
			case <-ctx.Done():
			}
		})
		if err != nil && ctx.Err() == nil {
			errs <- err
		}
	}()

	return results, errs
}
