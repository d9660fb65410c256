package testutil

import "sync"

// MockProgressTracker records every progress callback for assertions.
type MockProgressTracker struct {
	mu             sync.Mutex
	Updates        []ProgressUpdate
	CompleteCalled bool
	ErrorCalled    bool
	LastError      error
}

// ProgressUpdate represents a single progress update event.
type ProgressUpdate struct {
	Transferred int64
	Total       int64
}

// Update records a progress update.
func (m *MockProgressTracker) Update(bytesTransferred, totalBytes int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Updates = append(m.Updates, ProgressUpdate{
		Transferred: bytesTransferred,
		Total:       totalBytes,
	})
}

// Complete marks the transfer as complete.
func (m *MockProgressTracker) Complete() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CompleteCalled = true
}

// Error records a transfer failure.
func (m *MockProgressTracker) Error(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ErrorCalled = true
	m.LastError = err
}

// Last returns the most recent update, or the zero value when none was made.
func (m *MockProgressTracker) Last() ProgressUpdate {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Updates) == 0 {
		return ProgressUpdate{}
	}
	return m.Updates[len(m.Updates)-1]
}
