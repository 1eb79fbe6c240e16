package a2a

// RPC method names of the A2A protocol.
const (
	MethodAgentCard              = "agent/card"
	MethodMessageSend            = "message/send"
	MethodMessageStream          = "message/stream"
	MethodTaskGet                = "task/get"
	MethodTaskStatus             = "task/status"
	MethodTaskCancel             = "task/cancel"
	MethodTaskResubscribe        = "task/resubscribe"
	MethodPushNotificationSet    = "pushNotification/set"
	MethodPushNotificationGet    = "pushNotification/get"
	MethodPushNotificationList   = "pushNotification/list"
	MethodPushNotificationDelete = "pushNotification/delete"
)
