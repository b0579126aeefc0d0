package git

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bashhack/gitguard/internal/errors"
	"github.com/bashhack/gitguard/internal/logger/loggertest"
)

var errBoom = errors.NewGitError("diff", nil, errors.ErrGitOperationFailed, "fatal: boom")

func newTestInspector(mock *mockExecutor) (*Inspector, *loggertest.Recorder) {
	rec := loggertest.New()
	return NewInspector("/repo", mock, rec), rec
}

func TestSecondsSinceLastCommit(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)

	tests := map[string]struct {
		output string
		err    error
		want   int64
	}{
		"recent commit":     {output: "1699999940\n", want: 60},
		"an hour ago":       {output: "1699996400", want: 3600},
		"no commits yet":    {err: errBoom, want: 0},
		"garbage output":    {output: "not a time", want: 0},
		"commit in future":  {output: "1700000100", want: 0},
		"empty output":      {output: "", want: 0},
		"surrounding space": {output: "  1699999999  \n", want: 1},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			mock := newMockExecutor()
			if tc.err != nil {
				mock.fail("log -1 --format=%ct", tc.err)
			} else {
				mock.respond("log -1 --format=%ct", tc.output)
			}

			inspector, _ := newTestInspector(mock)
			inspector.WithClock(func() time.Time { return now })

			assert.Equal(t, tc.want, inspector.SecondsSinceLastCommit(context.Background()))
		})
	}
}

func TestChangedFileCount(t *testing.T) {
	mock := newMockExecutor().respond("status --porcelain", " M a.go\n?? b.go\nA  c/d.go\n\n")
	inspector, _ := newTestInspector(mock)
	assert.Equal(t, 3, inspector.ChangedFileCount(context.Background()))

	failing := newMockExecutor().fail("status --porcelain", errBoom)
	inspector, rec := newTestInspector(failing)
	assert.Equal(t, 0, inspector.ChangedFileCount(context.Background()))
	assert.True(t, rec.Contains(loggertest.Info, "working tree status"))
}

func TestChangedLineCount(t *testing.T) {
	tests := map[string]struct {
		unstaged  string
		staged    string
		stagedErr error
		want      int
	}{
		"both": {
			unstaged: " 2 files changed, 10 insertions(+), 3 deletions(-)\n",
			staged:   " 1 file changed, 1 insertion(+)\n",
			want:     14,
		},
		"deletions only": {
			unstaged: " 1 file changed, 7 deletions(-)\n",
			want:     7,
		},
		"clean": {want: 0},
		"staged read fails": {
			unstaged:  " 1 file changed, 4 insertions(+), 4 deletions(-)",
			stagedErr: errBoom,
			want:      8,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			mock := newMockExecutor().
				respond("diff --shortstat", tc.unstaged).
				respond("diff --cached --shortstat", tc.staged)
			if tc.stagedErr != nil {
				mock.fail("diff --cached --shortstat", tc.stagedErr)
			}

			inspector, _ := newTestInspector(mock)
			assert.Equal(t, tc.want, inspector.ChangedLineCount(context.Background()))
		})
	}
}

func TestParseShortstat(t *testing.T) {
	assert.Equal(t, 0, ParseShortstat(""))
	assert.Equal(t, 0, ParseShortstat("nothing to see"))
	assert.Equal(t, 1, ParseShortstat(" 1 file changed, 1 insertion(+)"))
	assert.Equal(t, 250, ParseShortstat(" 12 files changed, 200 insertions(+), 50 deletions(-)"))
}

func TestChangedFilePaths(t *testing.T) {
	mock := newMockExecutor().
		respond("diff --name-only", "src/a.go\nsrc/b.go\n").
		respond("diff --cached --name-only", "src/b.go\nREADME.md\n").
		respond("ls-files --others --exclude-standard", "notes.txt\n")

	inspector, _ := newTestInspector(mock)
	assert.Equal(t,
		[]string{"src/a.go", "src/b.go", "README.md", "notes.txt"},
		inspector.ChangedFilePaths(context.Background()))

	failing := newMockExecutor().
		fail("diff --name-only", errBoom).
		fail("diff --cached --name-only", errBoom).
		fail("ls-files --others --exclude-standard", errBoom)
	inspector, _ = newTestInspector(failing)
	assert.Empty(t, inspector.ChangedFilePaths(context.Background()))
}

func TestDiffText(t *testing.T) {
	mock := newMockExecutor().
		respond("diff -U0", "+func a() {}\n").
		respond("diff --cached -U0", "+func b() {}\n")

	inspector, _ := newTestInspector(mock)
	assert.Equal(t, "+func a() {}\n+func b() {}\n", inspector.DiffText(context.Background()))

	failing := newMockExecutor().fail("diff -U0", errBoom).fail("diff --cached -U0", errBoom)
	inspector, _ = newTestInspector(failing)
	assert.Equal(t, "", inspector.DiffText(context.Background()))
}

func TestCommit(t *testing.T) {
	t.Run("stages then commits", func(t *testing.T) {
		mock := newMockExecutor()
		inspector, _ := newTestInspector(mock)

		require.NoError(t, inspector.Commit(context.Background(), "feat(src): update 2 files\n\n- a.go"))
		assert.Equal(t,
			[]string{"add -A", "commit -m feat(src): update 2 files\n\n- a.go"},
			mock.called())
	})

	t.Run("stage failure skips commit", func(t *testing.T) {
		mock := newMockExecutor().fail("add -A", errBoom)
		inspector, _ := newTestInspector(mock)

		err := inspector.Commit(context.Background(), "msg")
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrGitOperationFailed))
		assert.Equal(t, []string{"add -A"}, mock.called())
	})

	t.Run("plain errors are wrapped", func(t *testing.T) {
		mock := newMockExecutor().fail("commit -m msg", errors.New("exit status 1"))
		inspector, _ := newTestInspector(mock)

		err := inspector.Commit(context.Background(), "msg")
		var gitErr *errors.GitError
		require.True(t, errors.As(err, &gitErr))
		assert.Equal(t, "commit", gitErr.Operation)
	})
}

func TestSplitOperation(t *testing.T) {
	op, args := splitOperation("git", []string{"-C", "/repo", "diff", "--cached"})
	assert.Equal(t, "diff", op)
	assert.Equal(t, []string{"--cached"}, args)

	op, args = splitOperation("git", nil)
	assert.Equal(t, "git", op)
	assert.Nil(t, args)

	op, _ = splitOperation("echo", []string{"hi"})
	assert.Equal(t, "echo", op)
}

func TestExecExecutorReportsGitError(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git binary not available")
	}

	dir := t.TempDir()
	_, err := NewExecExecutor().ExecuteWithContextAndOutput(context.Background(), "git", "-C", dir, "log", "-1")
	require.Error(t, err)

	var gitErr *errors.GitError
	require.True(t, errors.As(err, &gitErr))
	assert.Equal(t, "log", gitErr.Operation)
	assert.True(t, errors.Is(err, errors.ErrGitOperationFailed))
}

func TestExecExecutorDoesNotWaitForLeftoverProcesses(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	// The background sleep inherits stdout, like a process started by a
	// commit hook, and keeps the pipe open after sh itself exits.
	executor := &ExecExecutor{WaitDelay: 100 * time.Millisecond}

	done := make(chan error, 1)
	go func() {
		_, err := executor.ExecuteWithContextAndOutput(context.Background(), "sh", "-c", "sleep 30 & echo started")
		done <- err
	}()

	select {
	case err := <-done:
		require.Error(t, err)
		assert.ErrorIs(t, err, errors.ErrGitOperationFailed)
	case <-time.After(10 * time.Second):
		t.Fatal("executor waited for a process that outlived the command")
	}
}

func TestNewExecExecutorSetsWaitDelay(t *testing.T) {
	assert.Equal(t, DefaultWaitDelay, NewExecExecutor().WaitDelay)
}

func TestInspectorAgainstRealRepository(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git binary not available")
	}

	dir := initTestRepo(t)
	writeFile(t, dir, "src/app.go", "package app\n\nfunc Run() {}\n")
	writeFile(t, dir, "README.md", "# demo\n")

	inspector := NewInspector(dir, NewExecExecutor(), loggertest.New())
	ctx := context.Background()

	assert.Equal(t, 2, inspector.ChangedFileCount(ctx))
	assert.ElementsMatch(t, []string{"src/app.go", "README.md"}, inspector.ChangedFilePaths(ctx))

	require.NoError(t, inspector.Commit(ctx, "feat(workspace): update 2 files"))
	assert.Equal(t, 0, inspector.ChangedFileCount(ctx))
	assert.Less(t, inspector.SecondsSinceLastCommit(ctx), int64(60))

	writeFile(t, dir, "src/app.go", "package app\n\nfunc Run() {}\n\nfunc Stop() {}\n")
	assert.Equal(t, 2, inspector.ChangedLineCount(ctx))
	assert.Contains(t, inspector.DiffText(ctx), "+func Stop() {}")
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}
