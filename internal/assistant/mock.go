package assistant

import (
	"context"
)

// MockClient is an in-memory assistant Client for testing.
type MockClient struct {
	Reply Reply
	Err   error

	Calls        int
	LastRequest  Request
	ClosedCalled bool
}

// Chat returns the configured reply or error.
func (m *MockClient) Chat(_ context.Context, req Request) (Reply, error) {
	m.Calls++
	m.LastRequest = req
	if m.Err != nil {
		return Reply{}, m.Err
	}
	return m.Reply, nil
}

// Close records that the client was closed.
func (m *MockClient) Close() error {
	m.ClosedCalled = true
	return nil
}
