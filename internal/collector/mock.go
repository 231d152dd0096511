package collector

import (
	"context"
	"sync"
)

// MockFetcher returns a fixed page for development and testing.
type MockFetcher struct {
	mu    sync.Mutex
	Body  string
	Err   error
	calls []string
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) Fetch(_ context.Context, url string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, url)
	if m.Err != nil {
		return "", m.Err
	}
	return m.Body, nil
}

// Calls returns the URLs requested so far.
func (m *MockFetcher) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}
