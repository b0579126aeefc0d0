package guard

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bashhack/gitguard/internal/errors"
	"github.com/bashhack/gitguard/internal/logger"
	"github.com/bashhack/gitguard/internal/message"
	"github.com/bashhack/gitguard/internal/risk"
)

// DefaultClosingTimeout bounds the final check run when the loop shuts down.
const DefaultClosingTimeout = 30 * time.Second

// MinInterval is the shortest interval the command line accepts.
const MinInterval = time.Second

// ErrAlreadyStarted is returned by Start when the loop is already running.
var ErrAlreadyStarted = errors.New("guard loop already started")

// Inspector supplies the change signals. Implementations absorb their own
// failures and return zero values instead.
type Inspector interface {
	SecondsSinceLastCommit(ctx context.Context) int64
	ChangedFileCount(ctx context.Context) int
	ChangedLineCount(ctx context.Context) int
	ChangedFilePaths(ctx context.Context) []string
	DiffText(ctx context.Context) string
}

// Committer records the working tree as a commit.
type Committer interface {
	Commit(ctx context.Context, message string) error
}

// Config controls a Guard.
type Config struct {
	// IntervalMinutes is the time between checks. Fractional values are allowed.
	IntervalMinutes float64

	// AutoCommit lets high risk commit instead of only suggesting.
	AutoCommit bool

	// DryRun logs the message an auto-commit would use without committing.
	DryRun bool

	// MaxRetries is how many identical consecutive commit failures are
	// tolerated before the loop stops. Zero retries forever.
	MaxRetries int

	Verbose bool

	Thresholds risk.Thresholds

	// ClosingTimeout bounds the final check. Zero means DefaultClosingTimeout.
	ClosingTimeout time.Duration
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	if c.IntervalMinutes <= 0 {
		return errors.NewInvalidConfigError("interval", c.IntervalMinutes, "must be greater than 0")
	}
	if c.Interval() <= 0 {
		return errors.NewInvalidConfigError("interval", c.IntervalMinutes, "rounds down to a zero duration")
	}
	if c.MaxRetries < 0 {
		return errors.NewInvalidConfigError("max-retries", c.MaxRetries, "must not be negative")
	}
	if c.ClosingTimeout < 0 {
		return errors.NewInvalidConfigError("closing-timeout", c.ClosingTimeout, "must not be negative")
	}
	if err := c.Thresholds.Validate(); err != nil {
		return errors.NewConfigError("thresholds", nil, errors.Wrap(errors.ErrInvalidConfiguration, err.Error()))
	}
	return nil
}

// Interval converts IntervalMinutes to a duration.
func (c Config) Interval() time.Duration {
	return time.Duration(c.IntervalMinutes*60*1000) * time.Millisecond
}

// CheckOptions selects how a single check behaves.
type CheckOptions struct {
	// Closing marks the check as the last one before the session ends.
	Closing bool

	// Act carries out the decided action. Without it Check only reports.
	Act bool
}

// Result is the outcome of one check.
type Result struct {
	Snapshot   risk.Snapshot   `json:"snapshot"`
	Assessment risk.Assessment `json:"assessment"`

	// Message is the synthesized commit message, set when an auto-commit was
	// attempted or simulated.
	Message string `json:"message,omitempty"`

	Committed bool  `json:"committed"`
	CommitErr error `json:"-"`
}

// Stats summarises a session.
type Stats struct {
	Checks        int
	Suggestions   int
	AutoCommits   int
	FailedCommits int
	HighestTier   risk.Tier
	Started       time.Time
}

// Guard watches one working copy. Checks are serialized, and the periodic
// loop has an explicit Start/Stop lifecycle.
type Guard struct {
	config      Config
	logger      logger.Logger
	inspector   Inspector
	committer   Committer
	synthesizer *message.Synthesizer
	now         func() time.Time

	// checkMu serializes checks against the single working copy.
	checkMu sync.Mutex

	// statsMu guards stats only, so a stuck commit never blocks Stats.
	statsMu sync.Mutex
	stats   Stats

	loopMu  sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
	loopErr error
}

// New creates a Guard. A nil synthesizer uses the default declaration matchers.
func New(
	config Config,
	log logger.Logger,
	inspector Inspector,
	committer Committer,
	synthesizer *message.Synthesizer,
) (*Guard, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid guard configuration")
	}
	if inspector == nil || committer == nil {
		return nil, errors.New("guard requires an inspector and a committer")
	}
	if synthesizer == nil {
		synthesizer = message.New()
	}
	if config.ClosingTimeout == 0 {
		config.ClosingTimeout = DefaultClosingTimeout
	}

	g := &Guard{
		config:      config,
		logger:      log,
		inspector:   inspector,
		committer:   committer,
		synthesizer: synthesizer,
		now:         time.Now,
	}
	g.stats.Started = g.now()
	return g, nil
}

// Check reads the working copy, classifies it and, with opts.Act, carries
// out the action. A failed commit is reported in Result.CommitErr; the
// returned error is only set when ctx is already done.
func (g *Guard) Check(ctx context.Context, opts CheckOptions) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	g.checkMu.Lock()
	defer g.checkMu.Unlock()

	snap := g.snapshot(ctx, opts.Closing)
	result := Result{
		Snapshot:   snap,
		Assessment: g.config.Thresholds.Evaluate(snap),
	}

	g.updateStats(func(s *Stats) {
		s.Checks++
		if result.Assessment.Tier > s.HighestTier {
			s.HighestTier = result.Assessment.Tier
		}
	})
	g.logger.Info("Check: files=%d lines=%d since=%s closing=%t tier=%s action=%s",
		snap.ChangedFiles, snap.ChangedLines, snap.SinceLastCommit, snap.Closing,
		result.Assessment.Tier, result.Assessment.Action)

	if !opts.Act {
		return result, nil
	}

	switch result.Assessment.Action {
	case risk.None:
		if g.config.Verbose {
			g.logger.InfoToUser("Risk is low at %s", g.now().Format("15:04:05"))
		}
	case risk.Suggest:
		g.updateStats(func(s *Stats) { s.Suggestions++ })
		g.logger.WarningToUser("%s", SuggestionText(snap))
	case risk.AutoCommit:
		g.autoCommit(ctx, &result)
	}

	return result, nil
}

func (g *Guard) snapshot(ctx context.Context, closing bool) risk.Snapshot {
	return risk.Snapshot{
		SinceLastCommit:   time.Duration(g.inspector.SecondsSinceLastCommit(ctx)) * time.Second,
		ChangedFiles:      g.inspector.ChangedFileCount(ctx),
		ChangedLines:      g.inspector.ChangedLineCount(ctx),
		Closing:           closing,
		AutoCommitEnabled: g.config.AutoCommit,
	}
}

func (g *Guard) autoCommit(ctx context.Context, result *Result) {
	files := g.inspector.ChangedFilePaths(ctx)
	diff := g.inspector.DiffText(ctx)
	result.Message = g.synthesizer.Generate(files, diff)
	header := strings.SplitN(result.Message, "\n", 2)[0]

	if g.config.DryRun {
		g.logger.InfoToUser("Dry run: high risk, would commit %d files as %q", len(files), header)
		g.logger.Info("Dry run commit message:\n%s", result.Message)
		return
	}

	g.logger.WarningToUser("High risk detected. Auto-committing changes...")
	if err := g.committer.Commit(ctx, result.Message); err != nil {
		g.updateStats(func(s *Stats) { s.FailedCommits++ })
		result.CommitErr = err
		g.logger.Error("Auto-commit failed: %v", err)
		return
	}

	g.updateStats(func(s *Stats) { s.AutoCommits++ })
	result.Committed = true
	g.logger.Success("Auto-committed to prevent work loss: %s", header)
}

// SuggestionText is the warning shown when committing is suggested.
func SuggestionText(s risk.Snapshot) string {
	return fmt.Sprintf("%d files changed. %dm since last commit. Suggest committing.",
		s.ChangedFiles, int(s.SinceLastCommit/time.Minute))
}

// Stats returns a copy of the session counters.
func (g *Guard) Stats() Stats {
	g.statsMu.Lock()
	defer g.statsMu.Unlock()
	return g.stats
}

func (g *Guard) updateStats(update func(s *Stats)) {
	g.statsMu.Lock()
	defer g.statsMu.Unlock()
	update(&g.stats)
}
