package generator

import (
	"context"
	"fmt"
	"sync"
)

// MockGenerator provides scripted responses for testing. Queued
// responses and errors are returned in order; once the queue drains it
// produces placeholder prose so long generation loops keep running.
type MockGenerator struct {
	mu      sync.Mutex
	queue   []mockResponse
	Prompts []string
}

type mockResponse struct {
	text string
	err  error
}

func NewMockGenerator() *MockGenerator {
	return &MockGenerator{}
}

// Queue appends a scripted response.
func (m *MockGenerator) Queue(text string) *MockGenerator {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, mockResponse{text: text})
	return m
}

// QueueError appends a scripted failure.
func (m *MockGenerator) QueueError(err error) *MockGenerator {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, mockResponse{err: err})
	return m
}

// CallCount returns how many prompts have been seen.
func (m *MockGenerator) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Prompts)
}

func (m *MockGenerator) GenerateContent(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Prompts = append(m.Prompts, prompt)

	if len(m.queue) > 0 {
		next := m.queue[0]
		m.queue = m.queue[1:]
		return next.text, next.err
	}

	return fmt.Sprintf("Generated content for call %d.", len(m.Prompts)), nil
}
