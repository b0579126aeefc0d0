/*
gitguard watches a git working copy and keeps uncommitted work from piling
up. On every interval it measures the time since the last commit and the
pending files and lines, classifies the risk, and then either suggests a
commit or, with --auto-commit, commits using a synthesized
conventional-commit message.

Usage:

	gitguard [command] [flags]

Commands:

	watch     Check on an interval until interrupted (the default)
	check     Evaluate once; --fail-on makes it usable from hooks and CI
	message   Print the message an auto-commit would use
	version   Print version information

Global flags:

	--repo string        Path to repository (default: current directory)
	--config string      YAML config file (default: .gitguard.yaml in the repository)
	--interval float     Minutes between checks (default: 5)
	--auto-commit        Commit automatically when risk is high
	--dry-run            Print auto-commit messages instead of committing
	--max-retries int    Identical consecutive commit failures before quitting (default: 3, 0 = unlimited)
	-v, --verbose        Show informational messages
	--debug              Enable debug logging
	--log-file string    Debug log path
	--matchers strings   Declaration matchers for commit bodies (keyword, go)

Stopping a watcher with Ctrl+C, SIGTERM or SIGHUP runs one last closing
check, in which any pending change counts as high risk, and prints a
session summary.

Exit codes:

	0  success
	1  failure
	2  invalid configuration or arguments
	3  check --fail-on threshold reached

Only one watcher runs per repository; a second one exits with an error
naming the process that holds the lock.
*/
package main
