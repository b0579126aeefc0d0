package main

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/bashhack/gitguard/internal/config"
	"github.com/bashhack/gitguard/internal/guard"
	"github.com/bashhack/gitguard/internal/logger/loggertest"
)

// MockGuarder records calls and returns canned results.
type MockGuarder struct {
	mu           sync.Mutex
	runErr       error
	runCalls     int
	result       guard.Result
	checkErr     error
	checkOpts    []guard.CheckOptions
	summaryCalls int
}

func (m *MockGuarder) Run(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runCalls++
	return m.runErr
}

func (m *MockGuarder) Check(_ context.Context, opts guard.CheckOptions) (guard.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checkOpts = append(m.checkOpts, opts)
	return m.result, m.checkErr
}

func (m *MockGuarder) PrintSummary() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.summaryCalls++
}

// MockLocker counts Acquire and Release calls.
type MockLocker struct {
	acquireErr   error
	releaseErr   error
	acquireCalls int
	releaseCalls int
}

func (m *MockLocker) Acquire() error {
	m.acquireCalls++
	return m.acquireErr
}

func (m *MockLocker) Release() error {
	m.releaseCalls++
	return m.releaseErr
}

type mockWorkspace struct {
	paths []string
	diff  string
	reads int
}

func (m *mockWorkspace) ChangedFilePaths(context.Context) []string {
	m.reads++
	return m.paths
}

func (m *mockWorkspace) DiffText(context.Context) string {
	m.reads++
	return m.diff
}

type testDeps struct {
	opts      AppOptions
	guard     *MockGuarder
	locker    *MockLocker
	workspace *mockWorkspace
	log       *loggertest.Recorder
}

// newTestDeps returns options whose system hooks all succeed, so each test
// only overrides the piece it exercises.
func newTestDeps(t *testing.T) *testDeps {
	t.Helper()

	cfg := config.New()
	cfg.RepoPath = t.TempDir()
	cfg.LogFile = filepath.Join(t.TempDir(), "gitguard.log")

	d := &testDeps{
		guard:     &MockGuarder{},
		locker:    &MockLocker{},
		workspace: &mockWorkspace{},
		log:       loggertest.New(),
	}
	d.opts = AppOptions{
		Config:        cfg,
		Logger:        d.log,
		Locker:        d.locker,
		Guard:         d.guard,
		Workspace:     d.workspace,
		Exit:          func(int) {},
		ExecLookPath:  func(string) (string, error) { return "/usr/bin/git", nil },
		IsRepository:  func(string) (bool, error) { return true, nil },
		FindRoot:      func(p string) (string, error) { return p, nil },
		CurrentBranch: func(string) (string, error) { return "main", nil },
	}
	return d
}
