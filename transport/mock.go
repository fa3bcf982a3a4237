package transport

import (
	"context"
	"io"
	"sync"
)

// MockSink is a mock implementation of Sink for testing
type MockSink struct {
	Messages   []MockMessage
	PublishErr error
	// FailTimes makes the first N publishes fail with PublishErr
	FailTimes int
	Attempts  int
	Closed    bool
	mu        sync.Mutex
}

// MockMessage represents a published message for testing
type MockMessage struct {
	Topic string
	Key   string
	Value []byte
}

// Publish records a message for later inspection in tests
func (m *MockSink) Publish(topic, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Attempts++
	if m.PublishErr != nil && (m.FailTimes == 0 || m.Attempts <= m.FailTimes) {
		return m.PublishErr
	}

	m.Messages = append(m.Messages, MockMessage{
		Topic: topic,
		Key:   key,
		Value: value,
	})

	return nil
}

// Close marks the sink closed
func (m *MockSink) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed = true
	return nil
}

// Published returns a copy of the recorded messages
func (m *MockSink) Published() []MockMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockMessage, len(m.Messages))
	copy(out, m.Messages)
	return out
}

// AttemptCount returns the number of Publish calls
func (m *MockSink) AttemptCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Attempts
}

// Reset clears all recorded messages
func (m *MockSink) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Messages = nil
	m.Attempts = 0
}

// MockSource replays fixed messages, then reports io.EOF
type MockSource struct {
	mu       sync.Mutex
	messages []Message
	next     int
	acked    int
	closed   bool
	// Block makes Receive wait for ctx instead of returning io.EOF
	Block bool
}

// NewMockSource creates a source replaying values as messages on topic
func NewMockSource(topic string, values ...[]byte) *MockSource {
	messages := make([]Message, len(values))
	for i, v := range values {
		messages[i] = Message{Topic: topic, Value: v}
	}
	return &MockSource{messages: messages}
}

// Receive returns the next message
func (m *MockSource) Receive(ctx context.Context) (Message, error) {
	m.mu.Lock()
	if m.next < len(m.messages) {
		msg := m.messages[m.next]
		m.next++
		m.mu.Unlock()
		return msg, nil
	}
	block := m.Block
	m.mu.Unlock()

	if block {
		<-ctx.Done()
		return Message{}, ctx.Err()
	}
	return Message{}, io.EOF
}

// Ack counts acknowledged messages
func (m *MockSource) Ack(Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.acked++
	return nil
}

// Acked returns the number of acknowledged messages
func (m *MockSource) Acked() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.acked
}

// Close marks the source closed
func (m *MockSource) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// IsClosed reports whether Close was called
func (m *MockSource) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
