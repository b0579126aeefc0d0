// Package lock keeps a single gitguard watcher per repository.
//
// A Locker owns a file named after a hash of the repository path in the
// system temp directory. The file is held with an exclusive, non-blocking
// flock and contains the owner's PID. When Acquire finds the lock held by a
// live process it fails with an error wrapping errors.ErrAlreadyRunning; a
// lock whose owner is gone is reclaimed.
//
//	locker, err := lock.New(repoPath)
//	if err != nil {
//	    return err
//	}
//	if err := locker.Acquire(); err != nil {
//	    return err
//	}
//	defer locker.Release()
//
// One-shot commands such as check and message never take the lock.
package lock
