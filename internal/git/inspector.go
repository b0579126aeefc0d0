package git

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/bashhack/gitguard/internal/errors"
	"github.com/bashhack/gitguard/internal/logger"
)

var (
	insertionsPattern = regexp.MustCompile(`(\d+) insertions?\(\+\)`)
	deletionsPattern  = regexp.MustCompile(`(\d+) deletions?\(-\)`)
)

// Inspector reads the state of a working copy through the git binary.
//
// Every read absorbs its own failures: a git error is written to the debug
// log and the read returns zero or an empty value, so callers always get a
// usable answer.
type Inspector struct {
	repoPath string
	executor CommandExecutor
	logger   logger.Logger
	now      func() time.Time
}

// NewInspector creates an Inspector for the repository at repoPath.
func NewInspector(repoPath string, executor CommandExecutor, log logger.Logger) *Inspector {
	if executor == nil {
		executor = NewExecExecutor()
	}
	return &Inspector{
		repoPath: repoPath,
		executor: executor,
		logger:   log,
		now:      time.Now,
	}
}

// WithClock replaces the clock used by SecondsSinceLastCommit.
func (i *Inspector) WithClock(now func() time.Time) *Inspector {
	i.now = now
	return i
}

// RepoPath returns the repository this Inspector reads.
func (i *Inspector) RepoPath() string {
	return i.repoPath
}

// SecondsSinceLastCommit returns the age of HEAD in seconds. A repository
// without commits reports 0.
func (i *Inspector) SecondsSinceLastCommit(ctx context.Context) int64 {
	out, err := i.output(ctx, "log", "-1", "--format=%ct")
	if err != nil {
		i.logger.Info("Could not read last commit time: %v", err)
		return 0
	}

	committed, err := strconv.ParseInt(strings.TrimSpace(out), 10, 64)
	if err != nil {
		i.logger.Info("Unexpected commit timestamp %q: %v", strings.TrimSpace(out), err)
		return 0
	}

	elapsed := i.now().Unix() - committed
	if elapsed < 0 {
		return 0
	}
	return elapsed
}

// ChangedFileCount counts the entries reported by git status, untracked
// files included.
func (i *Inspector) ChangedFileCount(ctx context.Context) int {
	out, err := i.output(ctx, "status", "--porcelain")
	if err != nil {
		i.logger.Info("Could not read working tree status: %v", err)
		return 0
	}
	return len(nonEmptyLines(out))
}

// ChangedLineCount sums insertions and deletions across unstaged and staged changes.
func (i *Inspector) ChangedLineCount(ctx context.Context) int {
	total := 0
	for _, args := range [][]string{
		{"diff", "--shortstat"},
		{"diff", "--cached", "--shortstat"},
	} {
		out, err := i.output(ctx, args...)
		if err != nil {
			i.logger.Info("Could not read diff stats: %v", err)
			continue
		}
		total += ParseShortstat(out)
	}
	return total
}

// ChangedFilePaths lists unstaged, staged and untracked paths, in that order,
// without duplicates.
func (i *Inspector) ChangedFilePaths(ctx context.Context) []string {
	seen := make(map[string]struct{})
	var paths []string

	for _, args := range [][]string{
		{"diff", "--name-only"},
		{"diff", "--cached", "--name-only"},
		{"ls-files", "--others", "--exclude-standard"},
	} {
		out, err := i.output(ctx, args...)
		if err != nil {
			i.logger.Info("Could not list changed files: %v", err)
			continue
		}
		for _, p := range nonEmptyLines(out) {
			if _, dup := seen[p]; dup {
				continue
			}
			seen[p] = struct{}{}
			paths = append(paths, p)
		}
	}
	return paths
}

// DiffText returns the unstaged diff followed by the staged diff, without context lines.
func (i *Inspector) DiffText(ctx context.Context) string {
	var b strings.Builder
	for _, args := range [][]string{
		{"diff", "-U0"},
		{"diff", "--cached", "-U0"},
	} {
		out, err := i.output(ctx, args...)
		if err != nil {
			i.logger.Info("Could not read diff: %v", err)
			continue
		}
		b.WriteString(out)
	}
	return b.String()
}

// Commit stages everything in the working tree and commits it with message.
func (i *Inspector) Commit(ctx context.Context, message string) error {
	if err := i.run(ctx, "add", "-A"); err != nil {
		if errors.Is(err, errors.ErrGitOperationFailed) {
			return err
		}
		return errors.NewGitError("add", []string{"-A"}, errors.Wrap(err, "failed to stage changes"), "")
	}

	if err := i.run(ctx, "commit", "-m", message); err != nil {
		if errors.Is(err, errors.ErrGitOperationFailed) {
			return err
		}
		return errors.NewGitError("commit", []string{"-m", message}, errors.Wrap(err, "failed to create commit"), "")
	}

	i.logger.Info("Created commit: %s", firstLine(message))
	return nil
}

// ParseShortstat extracts insertions plus deletions from a
// `git diff --shortstat` summary line. Unrecognised text yields 0.
func ParseShortstat(out string) int {
	total := 0
	for _, re := range []*regexp.Regexp{insertionsPattern, deletionsPattern} {
		if m := re.FindStringSubmatch(out); m != nil {
			n, err := strconv.Atoi(m[1])
			if err == nil {
				total += n
			}
		}
	}
	return total
}

func (i *Inspector) run(ctx context.Context, args ...string) error {
	allArgs := append([]string{"-C", i.repoPath}, args...)
	return i.executor.ExecuteWithContext(ctx, "git", allArgs...)
}

func (i *Inspector) output(ctx context.Context, args ...string) (string, error) {
	allArgs := append([]string{"-C", i.repoPath}, args...)
	return i.executor.ExecuteWithContextAndOutput(ctx, "git", allArgs...)
}

func nonEmptyLines(s string) []string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx]
	}
	return s
}
