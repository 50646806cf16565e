// Package ai defines the conversational provider capability used by the
// screener: generating assistant replies during a session and a
// structured summary when the session completes. The engine never
// depends on a concrete vendor; all failures surface as *ProviderError
// so callers can degrade gracefully instead of blocking a family.
package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// Message is the transport shape of one transcript entry sent to the
// provider. Roles are "user" and "assistant".
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Provider generates assistant replies and session summaries.
type Provider interface {
	GenerateReply(ctx context.Context, history []Message, newMessage string) (string, error)
	GenerateSummary(ctx context.Context, history []Message) (map[string]string, error)
}

// ProviderError wraps any failure talking to the conversational
// provider. It is always retryable from the caller's perspective: the
// conversation state is committed before the failing call.
type ProviderError struct {
	Op  string
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("ai provider %s: %v", e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// ---------------------------------------------------------------------------
// HTTP provider
// ---------------------------------------------------------------------------

const defaultTimeout = 20 * time.Second

// HTTPProvider talks to a hosted chat-completion style endpoint.
type HTTPProvider struct {
	client *resty.Client
}

// NewHTTPProvider builds a provider against baseURL. Every call carries
// a bounded timeout; a provider that hangs is a failure, not a wait.
func NewHTTPProvider(baseURL, apiKey string, timeout time.Duration) *HTTPProvider {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetRetryCount(1)
	if apiKey != "" {
		client.SetAuthToken(apiKey)
	}
	return &HTTPProvider{client: client}
}

type replyRequest struct {
	History    []Message `json:"history"`
	NewMessage string    `json:"new_message"`
}

type replyResponse struct {
	Reply string `json:"reply"`
}

type summaryRequest struct {
	History []Message `json:"history"`
}

type summaryResponse struct {
	Summary map[string]string `json:"summary"`
}

// GenerateReply asks the provider for the next assistant turn given the
// full prior transcript plus the new user message.
func (p *HTTPProvider) GenerateReply(ctx context.Context, history []Message, newMessage string) (string, error) {
	var out replyResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(replyRequest{History: history, NewMessage: newMessage}).
		SetResult(&out).
		Post("/v1/reply")
	if err != nil {
		return "", &ProviderError{Op: "reply", Err: err}
	}
	if resp.IsError() {
		return "", &ProviderError{Op: "reply", Err: fmt.Errorf("status %d", resp.StatusCode())}
	}
	if out.Reply == "" {
		return "", &ProviderError{Op: "reply", Err: fmt.Errorf("empty reply")}
	}
	return out.Reply, nil
}

// GenerateSummary asks the provider for a structured key/value summary
// of the whole transcript.
func (p *HTTPProvider) GenerateSummary(ctx context.Context, history []Message) (map[string]string, error) {
	var out summaryResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(summaryRequest{History: history}).
		SetResult(&out).
		Post("/v1/summary")
	if err != nil {
		return nil, &ProviderError{Op: "summary", Err: err}
	}
	if resp.IsError() {
		return nil, &ProviderError{Op: "summary", Err: fmt.Errorf("status %d", resp.StatusCode())}
	}
	if out.Summary == nil {
		out.Summary = map[string]string{}
	}
	return out.Summary, nil
}
