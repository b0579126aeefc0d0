package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/bashhack/gitguard/internal/config"
	"github.com/bashhack/gitguard/internal/errors"
	"github.com/bashhack/gitguard/internal/git"
	"github.com/bashhack/gitguard/internal/guard"
	"github.com/bashhack/gitguard/internal/lock"
	"github.com/bashhack/gitguard/internal/logger"
)

// defaultShutdownGrace bounds how long a signalled watcher may take to run
// its closing check before cleanup is forced.
const defaultShutdownGrace = guard.DefaultClosingTimeout + 5*time.Second

// Guarder evaluates and watches a working copy.
type Guarder interface {
	Run(ctx context.Context) error
	Check(ctx context.Context, opts guard.CheckOptions) (guard.Result, error)
	PrintSummary()
}

// Locker manages file locking
type Locker interface {
	Acquire() error
	Release() error
}

// Workspace exposes the pending changes a commit message is built from.
type Workspace interface {
	ChangedFilePaths(ctx context.Context) []string
	DiffText(ctx context.Context) string
}

// AppOptions contains app configuration and dependencies.
// Nil optional dependencies are replaced with defaults by NewApp or
// Initialize, which keeps tests free to inject only what they need.
type AppOptions struct {
	// Config holds the application configuration settings (required).
	Config *config.Config

	// Logger provides logging functionality (optional).
	Logger logger.Logger

	// Locker prevents two watchers on one repository (optional).
	Locker Locker

	// Guard runs checks and the watch loop (optional).
	Guard Guarder

	// Workspace feeds the message command (optional).
	Workspace Workspace

	// Stdout and Stderr default to the process streams.
	Stdout io.Writer
	Stderr io.Writer

	// Exit terminates the process when a shutdown stalls (optional, defaults to os.Exit).
	Exit func(code int)

	// ShutdownGrace is how long a signalled watch may take to stop before
	// cleanup is forced (optional).
	ShutdownGrace time.Duration

	// ExecLookPath locates the git executable (optional, defaults to exec.LookPath).
	ExecLookPath func(file string) (string, error)

	// IsRepository validates the repository path (optional, defaults to git.IsRepository).
	IsRepository func(string) (bool, error)

	// FindRoot resolves the top of the working tree (optional, defaults to git.FindRoot).
	FindRoot func(string) (string, error)

	// CurrentBranch names the checked-out branch (optional, defaults to git.CurrentBranch).
	CurrentBranch func(string) (string, error)
}

// App is the main gitguard application. It wires configuration, logging,
// the repository collaborator and the guard, and owns their cleanup.
type App struct {
	Config    *config.Config
	Logger    logger.Logger
	Locker    Locker
	Guard     Guarder
	Workspace Workspace

	Stdout io.Writer
	Stderr io.Writer

	exit          func(code int)
	shutdownGrace time.Duration
	execLookPath  func(file string) (string, error)
	isRepository  func(string) (bool, error)
	findRoot      func(string) (string, error)
	currentBranch func(string) (string, error)

	initialized bool
}

// NewApp creates an App with custom dependencies specified in opts.
// It panics if opts.Config is nil.
func NewApp(opts AppOptions) *App {
	if opts.Config == nil {
		panic("Config is required in AppOptions")
	}

	app := &App{
		Config:        opts.Config,
		Logger:        opts.Logger,
		Locker:        opts.Locker,
		Guard:         opts.Guard,
		Workspace:     opts.Workspace,
		Stdout:        opts.Stdout,
		Stderr:        opts.Stderr,
		exit:          opts.Exit,
		shutdownGrace: opts.ShutdownGrace,
		execLookPath:  opts.ExecLookPath,
		isRepository:  opts.IsRepository,
		findRoot:      opts.FindRoot,
		currentBranch: opts.CurrentBranch,
	}

	if app.Stdout == nil {
		app.Stdout = os.Stdout
	}
	if app.Stderr == nil {
		app.Stderr = os.Stderr
	}
	if app.exit == nil {
		app.exit = os.Exit
	}
	if app.shutdownGrace <= 0 {
		app.shutdownGrace = defaultShutdownGrace
	}
	if app.execLookPath == nil {
		app.execLookPath = exec.LookPath
	}
	if app.isRepository == nil {
		app.isRepository = git.IsRepository
	}
	if app.findRoot == nil {
		app.findRoot = git.FindRoot
	}
	if app.currentBranch == nil {
		app.currentBranch = git.CurrentBranch
	}

	return app
}

// Initialize validates the configuration, verifies git and the repository,
// and builds every component not injected through AppOptions. It is safe to
// call more than once.
func (a *App) Initialize() error {
	if a.initialized {
		return nil
	}

	if err := a.Config.Finalize(); err != nil {
		if errors.Is(err, errors.ErrInvalidConfiguration) {
			return err
		}
		return errors.Wrap(errors.ErrInvalidConfiguration, err.Error())
	}

	if a.Logger == nil {
		a.Logger = logger.NewWithOutput(a.Config.Debug, a.Config.LogFile, a.Config.Verbose, a.Stdout, a.Stderr)
	}
	if a.Config.LoadedFile != "" {
		a.Logger.Info("Loaded configuration from %s", a.Config.LoadedFile)
	}

	if err := a.checkRequiredCommands(); err != nil {
		return err
	}

	isRepo, err := a.isRepository(a.Config.RepoPath)
	if err != nil {
		a.Logger.Warning("Failed to check if path is a git repository: %v", err)
		return errors.Wrap(errors.ErrGitOperationFailed, err.Error())
	}
	if !isRepo {
		return errors.Wrapf(errors.ErrNotGitRepository, "%s", a.Config.RepoPath)
	}

	root, err := a.findRoot(a.Config.RepoPath)
	if err != nil {
		return err
	}
	if root != a.Config.RepoPath {
		a.Logger.Info("Using repository root %s (from %s)", root, a.Config.RepoPath)
		a.Config.RepoPath = root
	}
	a.Logger.Info("Git repository verified")

	if a.Guard == nil || a.Workspace == nil {
		inspector := git.NewInspector(a.Config.RepoPath, nil, a.Logger)
		if a.Workspace == nil {
			a.Workspace = inspector
		}
		if a.Guard == nil {
			g, err := guard.New(a.Config.GuardConfig(), a.Logger, inspector, inspector, a.Config.Synthesizer())
			if err != nil {
				return fmt.Errorf("failed to create guard: %w", err)
			}
			a.Guard = g
		}
	}

	a.initialized = true
	return nil
}

// Watch holds the repository lock and runs the guard loop until ctx ends
// or the retry policy gives up, then prints the session summary.
func (a *App) Watch(ctx context.Context) error {
	if err := a.Initialize(); err != nil {
		return err
	}

	if a.Locker == nil {
		locker, err := lock.New(a.Config.RepoPath)
		if err != nil {
			return errors.Wrap(err, "failed to initialize lock")
		}
		a.Locker = locker
	}

	if err := a.Locker.Acquire(); err != nil {
		// Clear it so Close does not release a lock owned by another process.
		a.Locker = nil
		if errors.Is(err, errors.ErrAlreadyRunning) {
			return err
		}
		return errors.Wrap(errors.ErrLockAcquisitionFailure, err.Error())
	}

	a.showRepository()

	err := a.Guard.Run(ctx)
	a.Guard.PrintSummary()
	return err
}

// Check runs a single evaluation without taking the lock.
func (a *App) Check(ctx context.Context, opts guard.CheckOptions) (guard.Result, error) {
	if err := a.Initialize(); err != nil {
		return guard.Result{}, err
	}
	return a.Guard.Check(ctx, opts)
}

// Message synthesizes a commit message. Files and diff are read from the
// working copy when not given. A clean working copy yields the fallback
// message, the same one an auto-commit would use.
func (a *App) Message(ctx context.Context, files []string, diff *string) (string, error) {
	if len(files) > 0 && diff != nil {
		// Nothing is read from the repository.
		if err := a.Config.Finalize(); err != nil {
			return "", err
		}
		return a.Config.Synthesizer().Generate(files, *diff), nil
	}

	if err := a.Initialize(); err != nil {
		return "", err
	}

	if len(files) == 0 {
		files = a.Workspace.ChangedFilePaths(ctx)
	}
	var text string
	if diff != nil {
		text = *diff
	} else {
		text = a.Workspace.DiffText(ctx)
	}

	return a.Config.Synthesizer().Generate(files, text), nil
}

// ShowVersion displays version information
func (a *App) ShowVersion() {
	_, _ = fmt.Fprintf(a.Stdout, "gitguard %s (%s) built on %s\n",
		a.Config.VersionInfo.Version,
		a.Config.VersionInfo.Commit,
		a.Config.VersionInfo.Date)
}

func (a *App) showRepository() {
	a.Logger.StatusMessage("📂 Repository: %s", a.Config.RepoPath)

	branch, err := a.currentBranch(a.Config.RepoPath)
	if err != nil {
		a.Logger.Warning("Failed to read current branch: %v", err)
		return
	}
	a.Logger.StatusMessage("🌿 Branch: %s", branch)
}

// checkRequiredCommands verifies git is available in PATH
func (a *App) checkRequiredCommands() error {
	if _, err := a.execLookPath("git"); err != nil {
		return fmt.Errorf("git is not found in PATH")
	}
	return nil
}

// Close releases resources held by the App
func (a *App) Close() error {
	var errs []error

	if a.Locker != nil {
		if err := a.Locker.Release(); err != nil {
			if a.Logger != nil {
				a.Logger.Error("Failed to release lock during cleanup: %v", err)
			} else {
				_, _ = fmt.Fprintf(a.Stderr, "❌ Failed to release lock during cleanup: %v\n", err)
			}
			errs = append(errs, err)
		}
		a.Locker = nil
	}

	if a.Logger != nil {
		if err := a.Logger.Close(); err != nil {
			_, _ = fmt.Fprintf(a.Stderr, "❌ Failed to close logger: %v\n", err)
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// CleanupOnSignal releases locks and shows a summary when shutdown stalls.
// The lock goes first so a summary that cannot be printed never keeps it.
func (a *App) CleanupOnSignal() {
	if err := a.Close(); err != nil {
		_, _ = fmt.Fprintf(a.Stderr, "❌ Error during cleanup: %v\n", err)
	}
	if a.Guard != nil {
		a.Guard.PrintSummary()
	}
}

// handleSignals cancels the watch on the first signal. If the watch has not
// finished within the shutdown grace period, cleanup is forced and the
// process exits.
func (a *App) handleSignals(sigs <-chan os.Signal, cancel context.CancelFunc, finished <-chan struct{}) {
	select {
	case sig := <-sigs:
		_, _ = fmt.Fprintf(a.Stdout, "\nReceived signal %v, stopping gitguard...\n", sig)
		cancel()

		select {
		case <-finished:
		case <-time.After(a.shutdownGrace):
			a.CleanupOnSignal()
			a.exit(0)
		}
	case <-finished:
	}
}
