package ports

import (
	"context"
)

// EmailMessage is one outbound email produced by a send_email action.
type EmailMessage struct {
	To       string
	Subject  string
	Body     string
	Template string
	Data     map[string]interface{}
}

// EmailSender delivers email. The transport is outside this service.
type EmailSender interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// WebhookRequest is one outbound call produced by a webhook action.
type WebhookRequest struct {
	URL     string
	Method  string
	Headers map[string]string
	Payload interface{}
}

// WebhookResponse is the part of the remote answer kept in action results.
type WebhookResponse struct {
	StatusCode int
	Body       string
}

// WebhookCaller issues webhook requests.
type WebhookCaller interface {
	Call(ctx context.Context, req WebhookRequest) (*WebhookResponse, error)
}

// ConditionEvaluator evaluates the optional boolean gate on trigger configs.
type ConditionEvaluator interface {
	EvaluateCondition(expression string, env map[string]interface{}) (bool, error)
}

// ConditionValidator checks that a condition expression compiles.
type ConditionValidator interface {
	Validate(expression string) error
}
