// Package gitguard is a commit safety net driven by risk rather than by the clock.
//
// gitguard watches a git working copy and measures how much uncommitted work is
// at stake: the time since the last commit, the number of changed files and the
// number of changed lines. Each check classifies that exposure as low, moderate
// or high. Moderate risk prints a suggestion to commit. High risk either
// suggests a commit or, with auto-commit enabled, commits on the current branch
// using a conventional-commit message synthesized from the changed paths and
// the declarations added in the diff.
//
// # Quick Start
//
//	# Navigate to your Git repository
//	cd /path/to/your/repo
//
//	# Watch with suggestions only (checks every 5 minutes)
//	gitguard
//
//	# Commit automatically when risk is high
//	gitguard --auto-commit
//
//	# Press Ctrl+C to stop; a last check runs before the summary
//
// # One-shot Use
//
//	# Report the current risk
//	gitguard check
//
//	# Fail a hook or CI step when risk is moderate or worse
//	gitguard check --fail-on moderate --format json
//
//	# Preview the message an auto-commit would use
//	gitguard message
//	git diff | gitguard message --files api/server.go --diff -
//
// # Module Structure
//
// The module is organized into these packages:
//
//   - cmd/gitguard: Command-line interface
//   - internal/risk: Risk classification and action decisions
//   - internal/message: Conventional-commit message synthesis
//   - internal/git: Working copy inspection and committing
//   - internal/guard: The check controller and its monitoring loop
//   - internal/config: Defaults, .gitguard.yaml, environment and flags
//   - internal/lock: One watcher per repository
//   - internal/logger: Logging facilities
//   - internal/errors: Error handling utilities
//
// # Configuration
//
// Settings are merged from built-in defaults, a .gitguard.yaml file, GITGUARD_*
// environment variables and command-line flags, each overriding the previous.
// Risk thresholds can only be changed in the YAML file:
//
//	interval: 2
//	auto_commit: true
//	matchers: [keyword, go]
//	thresholds:
//	  high_time: 90m
//	  high_files: 15
//
// # Safety
//
// gitguard never pushes, never switches branches and never rewrites history.
// Workspace closing (Ctrl+C, SIGTERM or SIGHUP) runs one final check in which
// any pending change counts as high risk, so the last edits are not left behind.
//
// # Implementation Notes
//
// Working copy reads and commits go through the git executable behind a
// replaceable executor interface. Repository discovery and branch lookup use
// go-git, so they work without spawning processes.
package gitguard
