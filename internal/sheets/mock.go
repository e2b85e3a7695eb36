package sheets

import (
	"context"
	"sync"

	"github.com/Veraticus/the-cart-must-flow/internal/model"
)

// MockWriter is a mock implementation of ReportWriter for testing.
type MockWriter struct {
	WriteFunc      func(ctx context.Context, run *model.MiningRun, rules []model.Rule, catalog model.Catalog) error
	LastRun        *model.MiningRun
	WriteCalls     []WriteCall
	LastRules      []model.Rule
	WriteCallCount int
	mu             sync.Mutex
}

// WriteCall represents a single call to Write.
type WriteCall struct {
	Error   error
	Run     *model.MiningRun
	Catalog model.Catalog
	Rules   []model.Rule
}

// NewMockWriter creates a new mock writer.
func NewMockWriter() *MockWriter {
	return &MockWriter{WriteCalls: make([]WriteCall, 0)}
}

// Write implements the ReportWriter interface.
func (m *MockWriter) Write(ctx context.Context, run *model.MiningRun, rules []model.Rule, catalog model.Catalog) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.WriteCallCount++
	m.LastRun = run
	m.LastRules = rules

	var err error
	if m.WriteFunc != nil {
		err = m.WriteFunc(ctx, run, rules, catalog)
	}

	m.WriteCalls = append(m.WriteCalls, WriteCall{Run: run, Rules: rules, Catalog: catalog, Error: err})
	return err
}

// Reset clears all recorded calls.
func (m *MockWriter) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.WriteCallCount = 0
	m.WriteCalls = make([]WriteCall, 0)
	m.LastRun = nil
	m.LastRules = nil
}

// GetWriteCalls returns a copy of all write calls.
func (m *MockWriter) GetWriteCalls() []WriteCall {
	m.mu.Lock()
	defer m.mu.Unlock()

	calls := make([]WriteCall, len(m.WriteCalls))
	copy(calls, m.WriteCalls)
	return calls
}

// SetWriteError configures the mock to return err from every Write call.
func (m *MockWriter) SetWriteError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.WriteFunc = func(context.Context, *model.MiningRun, []model.Rule, model.Catalog) error {
		return err
	}
}
