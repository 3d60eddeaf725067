package deps

import (
	"context"
)

// MockExecutor is a mock implementation of Executor for testing.
type MockExecutor struct {
	MockOutput []byte
	MockError  error
	Calls      [][]string // recorded as name followed by args
}

func (m *MockExecutor) Run(ctx context.Context, dir string, name string, args ...string) ([]byte, error) {
	m.Calls = append(m.Calls, append([]string{name}, args...))
	return m.MockOutput, m.MockError
}
