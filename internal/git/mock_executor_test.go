package git

import (
	"context"
	"strings"
	"sync"
)

// mockExecutor answers git invocations from a table keyed by the
// subcommand and its arguments, with the "-C <path>" prefix removed.
type mockExecutor struct {
	mu        sync.Mutex
	responses map[string]string
	failures  map[string]error
	calls     []string
}

func newMockExecutor() *mockExecutor {
	return &mockExecutor{
		responses: make(map[string]string),
		failures:  make(map[string]error),
	}
}

func (m *mockExecutor) respond(cmd, output string) *mockExecutor {
	m.responses[cmd] = output
	return m
}

func (m *mockExecutor) fail(cmd string, err error) *mockExecutor {
	m.failures[cmd] = err
	return m
}

func (m *mockExecutor) key(args []string) string {
	if len(args) >= 2 && args[0] == "-C" {
		args = args[2:]
	}
	return strings.Join(args, " ")
}

func (m *mockExecutor) ExecuteWithContext(ctx context.Context, name string, args ...string) error {
	_, err := m.ExecuteWithContextAndOutput(ctx, name, args...)
	return err
}

func (m *mockExecutor) ExecuteWithContextAndOutput(_ context.Context, _ string, args ...string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := m.key(args)
	m.calls = append(m.calls, key)

	if err, ok := m.failures[key]; ok {
		return "", err
	}
	return m.responses[key], nil
}

func (m *mockExecutor) called() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}
