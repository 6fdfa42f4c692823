// Package storefakes provides an in-memory session store for tests.
package storefakes

import (
	"sync"

	"github.com/taskgrid/taskgrid-go/session"
)

// FakeStore keeps the session in memory. Safe for concurrent use.
type FakeStore struct {
	mu      sync.Mutex
	current *session.StoredSession

	// Counters for asserting store interactions.
	WriteCalls int
	ClearCalls int
}

// NewFakeStore creates an empty fake store.
func NewFakeStore() *FakeStore {
	return &FakeStore{}
}

// Seed puts a session in place without counting as a Write.
func (f *FakeStore) Seed(s *session.StoredSession) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.current = session.Normalize(s)
}

func (f *FakeStore) Read() *session.StoredSession {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

func (f *FakeStore) Write(s *session.StoredSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.WriteCalls++
	f.current = session.Normalize(s)
	return nil
}

func (f *FakeStore) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ClearCalls++
	f.current = nil
	return nil
}

var _ session.Store = (*FakeStore)(nil)
