package email

import (
	"context"
	"sync"

	"github.com/artpar/shopgate/ports"
)

// MockSender is a mock email sender for testing.
// It stores sent emails in memory instead of actually sending them.
type MockSender struct {
	mu     sync.Mutex
	emails []ports.EmailMessage

	// Optional: fail if set
	FailError error
}

// NewMockSender creates a new mock email sender.
func NewMockSender() *MockSender {
	return &MockSender{}
}

// Send stores the email in memory.
func (m *MockSender) Send(ctx context.Context, msg ports.EmailMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailError != nil {
		return m.FailError
	}
	m.emails = append(m.emails, msg)
	return nil
}

// Sent returns all stored emails.
func (m *MockSender) Sent() []ports.EmailMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ports.EmailMessage, len(m.emails))
	copy(out, m.emails)
	return out
}

// Clear removes all stored emails.
func (m *MockSender) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.emails = nil
}

// Ensure interface compliance.
var _ ports.EmailSender = (*MockSender)(nil)
