// Package git connects gitguard to a working copy.
//
// # Core Components
//
// - Inspector: reads the change signals (time since the last commit, changed
// files, changed lines, changed paths, diff text) by running the git binary,
// and commits the working tree
// - CommandExecutor: the seam between Inspector and os/exec, replaced by a
// scripted fake in tests
// - IsRepository, FindRoot, CurrentBranch: repository discovery backed by
// go-git, used at startup without spawning processes
//
// # Failure Handling
//
// Inspector reads never return errors. A failed git invocation is written to
// the debug log and the read yields 0 or an empty value, so a transient git
// problem can lower a risk estimate but cannot stop the watcher. Commit does
// return errors, as *errors.GitError values wrapping
// errors.ErrGitOperationFailed.
//
// # Usage
//
//	inspector := git.NewInspector(root, git.NewExecExecutor(), log)
//	files := inspector.ChangedFilePaths(ctx)
//	diff := inspector.DiffText(ctx)
//	if err := inspector.Commit(ctx, message.Generate(files, diff)); err != nil {
//	    // Handle error
//	}
package git
