package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/harshparashar-me/leadpilot-sub000/internal/domain/ports"
)

// maxWebhookBody caps how much of a response body is kept.
const maxWebhookBody = 1024

// HTTPWebhookCaller implements ports.WebhookCaller over net/http.
type HTTPWebhookCaller struct {
	client *http.Client
}

// NewHTTPWebhookCaller creates a caller whose requests time out after timeout.
func NewHTTPWebhookCaller(timeout time.Duration) *HTTPWebhookCaller {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPWebhookCaller{client: &http.Client{Timeout: timeout}}
}

// Call sends req.Payload as JSON. Any status >= 400 is an error.
func (c *HTTPWebhookCaller) Call(ctx context.Context, req ports.WebhookRequest) (*ports.WebhookResponse, error) {
	method := strings.ToUpper(req.Method)
	if method == "" {
		method = http.MethodPost
	}
	switch method {
	case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
	default:
		return nil, fmt.Errorf("invalid HTTP method: %s", method)
	}

	var bodyReader io.Reader
	if method != http.MethodGet && req.Payload != nil {
		payloadBytes, err := json.Marshal(req.Payload)
		if err != nil {
			return nil, fmt.Errorf("failed to serialize webhook payload: %w", err)
		}
		bodyReader = bytes.NewReader(payloadBytes)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create webhook request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	for name, value := range req.Headers {
		httpReq.Header.Set(name, value)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		log.Printf("⚠️ WEBHOOK FAILED: URL=%s Method=%s Error=%v", req.URL, method, err)
		return nil, fmt.Errorf("webhook request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxWebhookBody))
	if resp.StatusCode >= 400 {
		log.Printf("⚠️ WEBHOOK ERROR RESPONSE: URL=%s Status=%d", req.URL, resp.StatusCode)
		return nil, fmt.Errorf("webhook returned error status: %d", resp.StatusCode)
	}

	return &ports.WebhookResponse{StatusCode: resp.StatusCode, Body: string(body)}, nil
}
