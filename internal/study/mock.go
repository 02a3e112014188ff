package study

import (
	"context"
	"errors"
	"sync"
	"time"

	"studyguideai/internal/gemini"
)

// MockResponse is a canned Generate result.
type MockResponse struct {
	Text string
	Err  error
}

// MockCall records one Generate invocation.
type MockCall struct {
	APIKey string
	Model  string
	Task   gemini.Task
	Text   string
	At     time.Time
	Done   time.Time
}

// MockGenerator is a deterministic Generator for tests. It returns canned
// responses in FIFO order and records every call. When Gate is set each call
// blocks until Gate yields or the context ends.
type MockGenerator struct {
	mu        sync.Mutex
	responses []MockResponse
	Calls     []MockCall
	Gate      chan struct{}
	Model     string
}

// NewMockGenerator creates a MockGenerator with the given canned responses.
func NewMockGenerator(responses ...MockResponse) *MockGenerator {
	return &MockGenerator{responses: responses, Model: "mock-model"}
}

func (m *MockGenerator) Generate(ctx context.Context, apiKey, model string, task gemini.Task, text string) (string, error) {
	call := MockCall{APIKey: apiKey, Model: model, Task: task, Text: text, At: time.Now()}

	if m.Gate != nil {
		select {
		case <-m.Gate:
		case <-ctx.Done():
			return "", &gemini.TransportError{Err: ctx.Err()}
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	call.Done = time.Now()
	m.Calls = append(m.Calls, call)

	if len(m.responses) == 0 {
		return "", &gemini.TransportError{Err: errors.New("no mock response queued")}
	}
	resp := m.responses[0]
	m.responses = m.responses[1:]
	return resp.Text, resp.Err
}

// DefaultModel returns the mock's model id.
func (m *MockGenerator) DefaultModel() string {
	return m.Model
}

// CallCount returns the number of Generate calls made.
func (m *MockGenerator) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// Snapshot returns a copy of the recorded calls.
func (m *MockGenerator) Snapshot() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MockCall(nil), m.Calls...)
}
