package ai

import (
	"context"
	"errors"
	"sync"
)

// MockProvider is a test double for Provider. It records every call and
// can be flipped into a failing mode.
type MockProvider struct {
	mu           sync.Mutex
	replyCalls   [][]Message
	summaryCalls [][]Message
	Reply        string
	Summary      map[string]string
	FailReply    bool
	FailSummary  bool
}

// NewMockProvider returns a mock that answers with a canned reply.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		Reply:   "Thanks for sharing that. Can you tell me more?",
		Summary: map[string]string{"primary_concern": "anxiety"},
	}
}

func (m *MockProvider) GenerateReply(_ context.Context, history []Message, newMessage string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	snapshot := make([]Message, len(history), len(history)+1)
	copy(snapshot, history)
	m.replyCalls = append(m.replyCalls, append(snapshot, Message{Role: "user", Content: newMessage}))
	if m.FailReply {
		return "", &ProviderError{Op: "reply", Err: errors.New("mock failure")}
	}
	return m.Reply, nil
}

func (m *MockProvider) GenerateSummary(_ context.Context, history []Message) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	snapshot := make([]Message, len(history))
	copy(snapshot, history)
	m.summaryCalls = append(m.summaryCalls, snapshot)
	if m.FailSummary {
		return nil, &ProviderError{Op: "summary", Err: errors.New("mock failure")}
	}
	return m.Summary, nil
}

// ReplyCalls returns a copy of recorded reply invocations.
func (m *MockProvider) ReplyCalls() [][]Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]Message, len(m.replyCalls))
	copy(out, m.replyCalls)
	return out
}

// SummaryCalls returns a copy of recorded summary invocations.
func (m *MockProvider) SummaryCalls() [][]Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]Message, len(m.summaryCalls))
	copy(out, m.summaryCalls)
	return out
}
