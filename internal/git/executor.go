package git

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"

	"github.com/bashhack/gitguard/internal/errors"
)

// CommandExecutor runs external commands. Tests substitute a scripted fake.
type CommandExecutor interface {
	// ExecuteWithContext runs name with args and reports only success or failure.
	ExecuteWithContext(ctx context.Context, name string, args ...string) error

	// ExecuteWithContextAndOutput runs name with args and returns its stdout.
	ExecuteWithContextAndOutput(ctx context.Context, name string, args ...string) (string, error)
}

// DefaultWaitDelay bounds how long a finished or cancelled command may keep
// its output pipes open, for example through a process left behind by a hook.
const DefaultWaitDelay = 5 * time.Second

// ExecExecutor is the default implementation of CommandExecutor
// that delegates to the os/exec package
type ExecExecutor struct {
	// WaitDelay overrides DefaultWaitDelay when positive.
	WaitDelay time.Duration
}

// NewExecExecutor creates a new ExecExecutor
func NewExecExecutor() *ExecExecutor {
	return &ExecExecutor{WaitDelay: DefaultWaitDelay}
}

// ExecuteWithContext implements CommandExecutor.ExecuteWithContext
func (e *ExecExecutor) ExecuteWithContext(ctx context.Context, name string, args ...string) error {
	_, err := e.ExecuteWithContextAndOutput(ctx, name, args...)
	return err
}

// ExecuteWithContextAndOutput implements CommandExecutor.ExecuteWithContextAndOutput
func (e *ExecExecutor) ExecuteWithContextAndOutput(ctx context.Context, name string, args ...string) (string, error) {
	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = e.WaitDelay
	if cmd.WaitDelay <= 0 {
		cmd.WaitDelay = DefaultWaitDelay
	}

	if err := cmd.Run(); err != nil {
		op, opArgs := splitOperation(name, args)
		wrapped := errors.Wrap(errors.ErrGitOperationFailed, err.Error())
		if ctxErr := ctx.Err(); ctxErr != nil {
			wrapped = errors.Join(wrapped, ctxErr)
		}
		return "", errors.NewGitError(op, opArgs, wrapped, strings.TrimSpace(stderr.String()))
	}

	return stdout.String(), nil
}

// splitOperation picks the git subcommand out of an argument list, skipping
// the leading "-C <path>" pair added for every repository command.
func splitOperation(name string, args []string) (string, []string) {
	if name != "git" {
		return name, args
	}
	if len(args) >= 2 && args[0] == "-C" {
		args = args[2:]
	}
	if len(args) == 0 {
		return name, nil
	}
	return args[0], args[1:]
}
