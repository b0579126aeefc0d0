package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/bashhack/gitguard/cmd/gitguard/internal/clierr"
	"github.com/bashhack/gitguard/internal/config"
	"github.com/bashhack/gitguard/internal/guard"
	"github.com/bashhack/gitguard/internal/risk"
)

const (
	formatText = "text"
	formatJSON = "json"
)

// NewRootCmd builds the gitguard command tree. Dependencies in opts are
// shared by every subcommand; a nil Config gets defaults.
func NewRootCmd(opts AppOptions) *cobra.Command {
	if opts.Config == nil {
		opts.Config = config.New()
	}
	cfg := opts.Config

	root := &cobra.Command{
		Use:   "gitguard",
		Short: "Watch a git working copy and commit before work is lost",
		Long: `gitguard periodically measures uncommitted work (time since the last
commit, changed files and changed lines), classifies the risk as low,
moderate or high, and either suggests a commit or auto-commits with a
synthesized conventional-commit message.

Running gitguard without a subcommand is the same as "gitguard watch".`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := cfg.Load(cmd.Flags()); err != nil {
				return clierr.Wrap(clierr.CodeInvalidConfig, "failed to load configuration", err)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWatch(cmd, opts)
		},
	}

	cfg.SetupFlags(root.PersistentFlags())

	root.AddCommand(
		newWatchCmd(opts),
		newCheckCmd(opts),
		newMessageCmd(opts),
		newVersionCmd(opts),
	)
	return root
}

// appFor binds the command's streams to the app unless opts overrides them.
func appFor(cmd *cobra.Command, opts AppOptions) *App {
	if opts.Stdout == nil {
		opts.Stdout = cmd.OutOrStdout()
	}
	if opts.Stderr == nil {
		opts.Stderr = cmd.ErrOrStderr()
	}
	return NewApp(opts)
}

func newWatchCmd(opts AppOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Check the working copy on an interval until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWatch(cmd, opts)
		},
	}
}

func runWatch(cmd *cobra.Command, opts AppOptions) error {
	app := appFor(cmd, opts)
	defer func() {
		if err := app.Close(); err != nil {
			_, _ = fmt.Fprintf(app.Stderr, "❌ Error during cleanup: %v\n", err)
		}
	}()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigs)

	finished := make(chan struct{})
	defer close(finished)

	go app.handleSignals(sigs, cancel, finished)

	return app.Watch(ctx)
}

type checkFlags struct {
	closing bool
	commit  bool
	failOn  string
	format  string
}

// checkReport is the JSON shape of a check.
type checkReport struct {
	Tier            risk.Tier   `json:"tier"`
	Action          risk.Action `json:"action"`
	SinceLastCommit int64       `json:"since_last_commit_seconds"`
	ChangedFiles    int         `json:"changed_files"`
	ChangedLines    int         `json:"changed_lines"`
	Closing         bool        `json:"closing"`
	AutoCommit      bool        `json:"auto_commit"`
	Message         string      `json:"message,omitempty"`
	Committed       bool        `json:"committed"`
	CommitError     string      `json:"commit_error,omitempty"`
}

func newCheckReport(r guard.Result) checkReport {
	report := checkReport{
		Tier:            r.Assessment.Tier,
		Action:          r.Assessment.Action,
		SinceLastCommit: int64(r.Snapshot.SinceLastCommit / time.Second),
		ChangedFiles:    r.Snapshot.ChangedFiles,
		ChangedLines:    r.Snapshot.ChangedLines,
		Closing:         r.Snapshot.Closing,
		AutoCommit:      r.Snapshot.AutoCommitEnabled,
		Message:         r.Message,
		Committed:       r.Committed,
	}
	if r.CommitErr != nil {
		report.CommitError = r.CommitErr.Error()
	}
	return report
}

func newCheckCmd(opts AppOptions) *cobra.Command {
	var flags checkFlags

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Evaluate the working copy once and report the risk",
		Long: `Evaluate the working copy once.

Without --commit the result is only reported. With --commit the decided
action is carried out: a suggestion is printed, or on high risk with
--auto-commit the changes are committed.

--fail-on exits with status 3 when the risk reaches the given tier, which
makes check usable from hooks and CI.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCheck(cmd, opts, flags)
		},
	}

	cmd.Flags().BoolVar(&flags.closing, "closing", false, "Treat the workspace as closing (any pending change is high risk)")
	cmd.Flags().BoolVar(&flags.commit, "commit", false, "Carry out the decided action instead of only reporting")
	cmd.Flags().StringVar(&flags.failOn, "fail-on", "", "Exit with status 3 when risk is at least this tier (low, moderate, high)")
	cmd.Flags().StringVar(&flags.format, "format", formatText, "Output format: text or json")
	return cmd
}

func runCheck(cmd *cobra.Command, opts AppOptions, flags checkFlags) error {
	format := strings.ToLower(strings.TrimSpace(flags.format))
	if format != formatText && format != formatJSON {
		return clierr.Newf(clierr.CodeInvalidConfig, "invalid --format %q (must be text or json)", flags.format)
	}

	var threshold *risk.Tier
	if flags.failOn != "" {
		tier, err := risk.ParseTier(flags.failOn)
		if err != nil {
			return clierr.Wrap(clierr.CodeInvalidConfig, "invalid --fail-on", err)
		}
		threshold = &tier
	}

	// Keep stdout parseable: user-facing messages move to stderr.
	if format == formatJSON && opts.Stdout == nil {
		opts.Stdout = cmd.ErrOrStderr()
	}
	app := appFor(cmd, opts)
	defer func() { _ = app.Close() }()

	result, err := app.Check(cmd.Context(), guard.CheckOptions{Closing: flags.closing, Act: flags.commit})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch format {
	case formatJSON:
		data, err := json.MarshalIndent(newCheckReport(result), "", "  ")
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(out, string(data))
	default:
		renderCheck(out, result)
	}

	if result.CommitErr != nil {
		return clierr.Wrap(clierr.CodeFailure, "auto-commit failed", result.CommitErr)
	}
	if threshold != nil && result.Assessment.Tier >= *threshold {
		return clierr.Newf(clierr.CodeRiskThreshold, "risk %s reaches --fail-on %s", result.Assessment.Tier, *threshold)
	}
	return nil
}

var tierColors = map[risk.Tier]lipgloss.Color{
	risk.Low:      lipgloss.Color("#98C379"),
	risk.Moderate: lipgloss.Color("#E5C07B"),
	risk.High:     lipgloss.Color("#FF6B6B"),
}

func tierBadge(w io.Writer, tier risk.Tier) string {
	style := lipgloss.NewRenderer(w).NewStyle().
		Bold(true).
		Padding(0, 1).
		Foreground(lipgloss.Color("#1E1E1E")).
		Background(tierColors[tier])
	return style.Render(strings.ToUpper(tier.String()))
}

func renderCheck(w io.Writer, r guard.Result) {
	s := r.Snapshot
	_, _ = fmt.Fprintf(w, "%s risk, action: %s\n", tierBadge(w, r.Assessment.Tier), r.Assessment.Action)
	_, _ = fmt.Fprintf(w, "  Since last commit: %dm\n", int(s.SinceLastCommit.Minutes()))
	_, _ = fmt.Fprintf(w, "  Changed files:     %d\n", s.ChangedFiles)
	_, _ = fmt.Fprintf(w, "  Changed lines:     %d\n", s.ChangedLines)
	if s.Closing {
		_, _ = fmt.Fprintln(w, "  Closing:           yes")
	}
	if r.Message != "" {
		_, _ = fmt.Fprintln(w)
		_, _ = fmt.Fprintln(w, r.Message)
	}
	if r.Committed {
		_, _ = fmt.Fprintln(w)
		_, _ = fmt.Fprintln(w, "Committed.")
	}
}

type messageFlags struct {
	files []string
	diff  string
}

func newMessageCmd(opts AppOptions) *cobra.Command {
	var flags messageFlags

	cmd := &cobra.Command{
		Use:   "message",
		Short: "Print the commit message gitguard would use",
		Long: `Print the synthesized conventional-commit message.

Changed paths and the diff are read from the working copy unless --files
or --diff supply them. --diff takes a file, or - for standard input.
A clean working copy prints the fallback "chore(auto): backup current work".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var diff *string
			if cmd.Flags().Changed("diff") {
				text, err := readDiff(cmd.InOrStdin(), flags.diff)
				if err != nil {
					return err
				}
				diff = &text
			}

			app := appFor(cmd, opts)
			defer func() { _ = app.Close() }()

			msg, err := app.Message(cmd.Context(), flags.files, diff)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&flags.files, "files", nil, "Changed paths, comma separated (default: read from the working copy)")
	cmd.Flags().StringVar(&flags.diff, "diff", "", "Unified diff file, or - for stdin (default: read from the working copy)")
	return cmd
}

func readDiff(stdin io.Reader, source string) (string, error) {
	if source == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read diff from stdin: %w", err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(source)
	if err != nil {
		return "", clierr.Wrap(clierr.CodeInvalidConfig, "failed to read --diff", err)
	}
	return string(data), nil
}

func newVersionCmd(opts AppOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		// Version must work even when the configuration is broken.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, _ []string) error {
			appFor(cmd, opts).ShowVersion()
			return nil
		},
	}
}
