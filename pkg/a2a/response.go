package a2a

import (
	"encoding/json"
	"fmt"
)

/*
SendResponse is the result of message/send: either a Task handle for
asynchronous work or a direct Message reply.  The wire form is untagged
and disambiguated by shape: tasks carry a "status" object, messages carry
a "role".
*/
type SendResponse struct {
	Task    *Task    `json:"-"`
	Message *Message `json:"-"`
}

func NewTaskResponse(task *Task) SendResponse {
	return SendResponse{Task: task}
}

func NewMessageResponse(msg *Message) SendResponse {
	return SendResponse{Message: msg}
}

func (response SendResponse) MarshalJSON() ([]byte, error) {
	switch {
	case response.Task != nil:
		return json.Marshal(response.Task)
	case response.Message != nil:
		return json.Marshal(response.Message)
	}
	return nil, fmt.Errorf("empty send response")
}

func (response *SendResponse) UnmarshalJSON(data []byte) error {
	var probe struct {
		Status *json.RawMessage `json:"status"`
		Role   *string          `json:"role"`
	}

	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}

	switch {
	case probe.Status != nil:
		var task Task
		if err := json.Unmarshal(data, &task); err != nil {
			return err
		}
		response.Task = &task
		response.Message = nil
	case probe.Role != nil:
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			return err
		}
		response.Message = &msg
		response.Task = nil
	default:
		return fmt.Errorf("send response is neither a task nor a message")
	}

	return nil
}
