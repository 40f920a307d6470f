package services

import (
	"context"
	"sync"
)

// MockNotifier records notifications instead of sending them
type MockNotifier struct {
	mu       sync.Mutex
	sms      []SMSNotification
	contacts []ContactRequest
	err      error
	sent     chan SMSNotification
}

// NewMockNotifier creates a recording notifier
func NewMockNotifier() *MockNotifier {
	return &MockNotifier{sent: make(chan SMSNotification, 32)}
}

// FailWith makes every send return err after recording it
func (m *MockNotifier) FailWith(err error) {
	m.mu.Lock()
	m.err = err
	m.mu.Unlock()
}

// SendSMS records the notification
func (m *MockNotifier) SendSMS(ctx context.Context, n SMSNotification) error {
	m.mu.Lock()
	m.sms = append(m.sms, n)
	err := m.err
	m.mu.Unlock()

	select {
	case m.sent <- n:
	default:
	}
	return err
}

// SendContactRequest records the contact request
func (m *MockNotifier) SendContactRequest(ctx context.Context, req ContactRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.contacts = append(m.contacts, req)
	return m.err
}

// Sent exposes SMS notifications as they are dispatched
func (m *MockNotifier) Sent() <-chan SMSNotification {
	return m.sent
}

// SMS returns every recorded SMS notification
func (m *MockNotifier) SMS() []SMSNotification {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SMSNotification, len(m.sms))
	copy(out, m.sms)
	return out
}

// Contacts returns every recorded contact request
func (m *MockNotifier) Contacts() []ContactRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ContactRequest, len(m.contacts))
	copy(out, m.contacts)
	return out
}
