package guard

import (
	"context"
	"fmt"
	"time"

	"github.com/bashhack/gitguard/internal/errors"
)

// errorState tracks identical consecutive failures for the retry policy.
type errorState struct {
	consecutiveErrors int
	lastErrorMsg      string
}

// Start launches the periodic loop. It returns ErrAlreadyStarted if the loop
// is running. The loop ends when ctx is done, when Stop is called, or when
// the retry policy gives up; a closing check runs on the first two.
func (g *Guard) Start(ctx context.Context) error {
	g.loopMu.Lock()
	defer g.loopMu.Unlock()

	if g.running {
		return ErrAlreadyStarted
	}

	loopCtx, cancel := context.WithCancel(ctx)
	g.running = true
	g.cancel = cancel
	g.done = make(chan struct{})
	g.loopErr = nil

	g.displayStartupInfo()

	go func(done chan struct{}) {
		err := g.monitoringLoop(loopCtx)

		g.loopMu.Lock()
		g.loopErr = err
		g.running = false
		g.loopMu.Unlock()

		cancel()
		close(done)
	}(g.done)

	return nil
}

// Stop ends the loop and waits for the closing check to finish.
func (g *Guard) Stop() error {
	g.loopMu.Lock()
	cancel := g.cancel
	g.loopMu.Unlock()

	if cancel != nil {
		cancel()
	}
	return g.Wait()
}

// Wait blocks until the loop has finished. It returns nil after a normal
// shutdown and the retry error when too many commits failed in a row.
func (g *Guard) Wait() error {
	g.loopMu.Lock()
	done := g.done
	g.loopMu.Unlock()

	if done == nil {
		return nil
	}
	<-done

	g.loopMu.Lock()
	defer g.loopMu.Unlock()
	return g.loopErr
}

// Run starts the loop and waits for it to end.
func (g *Guard) Run(ctx context.Context) error {
	if err := g.Start(ctx); err != nil {
		return err
	}
	return g.Wait()
}

// Running reports whether the loop is active.
func (g *Guard) Running() bool {
	g.loopMu.Lock()
	defer g.loopMu.Unlock()
	return g.running
}

func (g *Guard) monitoringLoop(ctx context.Context) error {
	ticker := time.NewTicker(g.config.Interval())
	defer ticker.Stop()

	var state errorState

	for {
		select {
		case <-ctx.Done():
			g.logger.Info("Received cancellation signal, running closing check...")
			g.closingCheck()
			return nil

		case <-ticker.C:
			opErr := g.tryOperation(&state, func() error {
				result, err := g.Check(ctx, CheckOptions{Act: true})
				if err != nil {
					return nil
				}
				return result.CommitErr
			})

			if opErr != nil && g.config.MaxRetries > 0 && state.consecutiveErrors > g.config.MaxRetries {
				return opErr
			}
		}
	}
}

// closingCheck evaluates the working copy one last time with the closing
// flag set, under its own deadline since the loop context is already done.
func (g *Guard) closingCheck() {
	ctx, cancel := context.WithTimeout(context.Background(), g.config.ClosingTimeout)
	defer cancel()

	result, err := g.Check(ctx, CheckOptions{Closing: true, Act: true})
	if err != nil {
		g.logger.Warning("Closing check did not run: %v", err)
		return
	}
	if result.CommitErr != nil {
		g.logger.WarningToUser("Closing commit failed, uncommitted work remains: %v", result.CommitErr)
	}
}

// tryOperation runs operation and applies the retry policy: the same error
// seen more than MaxRetries times in a row is fatal.
func (g *Guard) tryOperation(state *errorState, operation func() error) error {
	err := operation()
	if err == nil {
		state.consecutiveErrors = 0
		state.lastErrorMsg = ""
		return nil
	}

	g.logger.Error("Error in operation: %v", err)

	currentErrorMsg := err.Error()
	if currentErrorMsg == state.lastErrorMsg {
		state.consecutiveErrors++
	} else {
		state.consecutiveErrors = 1
		state.lastErrorMsg = currentErrorMsg
	}

	// '>' so that MaxRetries = 1 still allows one retry.
	if g.config.MaxRetries > 0 && state.consecutiveErrors > g.config.MaxRetries {
		g.logger.WarningToUser("Too many consecutive errors (same error %d times in a row). Stopping gitguard.", state.consecutiveErrors)
		return errors.Wrap(errors.ErrGitOperationFailed,
			fmt.Sprintf("maximum retries (%d) exceeded with error: %v", g.config.MaxRetries, err))
	}
	return err
}

func (g *Guard) displayStartupInfo() {
	t := g.config.Thresholds
	g.logger.StatusMessage("🛡️  gitguard started at %s", g.now().Format("2006-01-02 15:04:05"))
	g.logger.StatusMessage("⏱️  Interval: %.2f minutes", g.config.IntervalMinutes)
	g.logger.StatusMessage("🤖 Auto-commit: %t (dry run: %t)", g.config.AutoCommit, g.config.DryRun)
	g.logger.StatusMessage("📏 High risk: >%s with %d+ files or %d+ lines, or %d+ files or %d+ lines",
		t.HighTime, t.ModerateFiles, t.ModerateLines, t.HighFiles, t.HighLines)
	g.logger.StatusMessage("❓ Press Ctrl+C to stop and view session summary")
}

// PrintSummary reports the session counters.
func (g *Guard) PrintSummary() {
	stats := g.Stats()

	duration := g.now().Sub(stats.Started)
	hours := int(duration.Hours())
	minutes := int(duration.Minutes()) % 60
	seconds := int(duration.Seconds()) % 60

	g.logger.StatusMessage("")
	g.logger.StatusMessage("---------------------------------------------")
	g.logger.StatusMessage("📊 gitguard Session Summary")
	g.logger.StatusMessage("---------------------------------------------")
	g.logger.StatusMessage("🔍 Checks run: %d", stats.Checks)
	g.logger.StatusMessage("💡 Commit suggestions: %d", stats.Suggestions)
	g.logger.StatusMessage("✅ Auto-commits made: %d", stats.AutoCommits)
	if stats.FailedCommits > 0 {
		g.logger.StatusMessage("❌ Failed auto-commits: %d", stats.FailedCommits)
	}
	g.logger.StatusMessage("📈 Highest risk seen: %s", stats.HighestTier)
	g.logger.StatusMessage("⏱️  Session duration: %dh %dm %ds", hours, minutes, seconds)
	g.logger.StatusMessage("---------------------------------------------")
	g.logger.StatusMessage("🛑 gitguard terminated at %s", g.now().Format("2006-01-02 15:04:05"))
}
