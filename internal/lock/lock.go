package lock

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"syscall"

	"github.com/bashhack/gitguard/internal/errors"
)

// Locker keeps a single gitguard watcher per repository using an flock'd
// file in the temp directory.
type Locker struct {
	path string
	fd   *os.File
	pid  int
	held bool
}

// New returns a Locker for repoPath. Nothing is touched on disk until Acquire.
func New(repoPath string) (*Locker, error) {
	if runtime.GOOS == "windows" {
		return nil, errors.NewLockError("", 0,
			errors.Wrap(errors.ErrLockAcquisitionFailure,
				"gitguard watch mode is only supported on Unix-like systems"))
	}

	return &Locker{
		path: filepath.Join(os.TempDir(), fmt.Sprintf("gitguard-%s.lock", RepoHash(repoPath))),
		pid:  os.Getpid(),
	}, nil
}

// RepoHash is the short digest used to name per-repository files.
func RepoHash(repoPath string) string {
	return fmt.Sprintf("%x", sha256.Sum256([]byte(repoPath)))[:16]
}

// Path returns the lock file location.
func (l *Locker) Path() string {
	return l.path
}

// Held reports whether this Locker currently owns the lock.
func (l *Locker) Held() bool {
	return l.held
}

// Acquire takes the lock. A lock held by a live process yields an error
// wrapping errors.ErrAlreadyRunning; a lock left by a dead process is reclaimed.
func (l *Locker) Acquire() error {
	if l.held {
		return nil
	}

	err := l.claim(os.O_CREATE | os.O_EXCL | os.O_RDWR)
	if err == nil {
		return nil
	}
	if !os.IsExist(err) {
		return err
	}

	return l.claimExisting()
}

// claim opens the lock file with flags, locks it and records our PID.
// os.IsExist errors are passed through untouched.
func (l *Locker) claim(flags int) error {
	fd, err := os.OpenFile(l.path, flags, 0o666)
	if err != nil {
		if os.IsExist(err) {
			return err
		}
		return errors.NewLockError(l.path, 0, errors.Wrap(err, "failed to open lock file"))
	}
	l.fd = fd

	if err := l.flock(); err != nil {
		l.closeFd()
		return errors.NewLockError(l.path, 0, errors.Wrap(err, "failed to lock newly created lock file"))
	}

	return l.recordPid()
}

func (l *Locker) claimExisting() error {
	fd, err := os.OpenFile(l.path, os.O_RDWR, 0o666)
	if err != nil {
		return errors.NewLockError(l.path, 0, errors.Wrap(err, "failed to open existing lock file"))
	}
	l.fd = fd

	if err := l.flock(); err != nil {
		l.closeFd()

		// Some platforms report EAGAIN, others EWOULDBLOCK.
		if errors.Is(err, syscall.EWOULDBLOCK) || errors.Is(err, syscall.EAGAIN) {
			return l.contend()
		}
		return errors.NewLockError(l.path, 0, errors.Wrap(err, "failed to lock existing lock file"))
	}

	return l.recordPid()
}

// contend decides what to do when another descriptor holds the flock.
func (l *Locker) contend() error {
	owner, err := l.ownerPid()
	if err != nil {
		return errors.NewLockError(l.path, 0,
			errors.Wrap(err, "lock is held but its owner could not be identified"))
	}

	if processAlive(owner) {
		return errors.NewLockError(l.path, owner, errors.ErrAlreadyRunning)
	}

	if err := os.Remove(l.path); err != nil {
		return errors.NewLockError(l.path, owner,
			errors.Wrapf(err, "failed to remove stale lock left by PID %d", owner))
	}

	err = l.claim(os.O_CREATE | os.O_EXCL | os.O_RDWR)
	if os.IsExist(err) {
		return errors.NewLockError(l.path, 0,
			errors.Wrap(errors.ErrAlreadyRunning, "lock was taken while reclaiming a stale lock"))
	}
	return err
}

func (l *Locker) flock() error {
	return syscall.Flock(int(l.fd.Fd()), syscall.LOCK_EX|syscall.LOCK_NB)
}

func (l *Locker) recordPid() error {
	if err := l.fd.Truncate(0); err != nil {
		return l.abandon(errors.NewLockError(l.path, l.pid, errors.Wrap(err, "failed to truncate lock file")))
	}
	if _, err := l.fd.WriteAt([]byte(strconv.Itoa(l.pid)), 0); err != nil {
		return l.abandon(errors.NewLockError(l.path, l.pid, errors.Wrap(err, "failed to write PID to lock file")))
	}

	l.held = true
	return nil
}

// abandon releases a half-acquired lock and returns cause.
func (l *Locker) abandon(cause error) error {
	if err := l.Release(); err != nil {
		return errors.Wrapf(cause, "releasing lock also failed: %v", err)
	}
	return cause
}

func (l *Locker) ownerPid() (int, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return 0, errors.Wrap(err, "failed to read lock file")
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, errors.Wrap(err, "invalid PID in lock file")
	}
	return pid, nil
}

func (l *Locker) closeFd() {
	if l.fd != nil {
		_ = l.fd.Close()
		l.fd = nil
	}
}

// processAlive sends signal 0 to pid.
func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return process.Signal(syscall.Signal(0)) == nil
}

// Release unlocks and removes the lock file. It is safe to call when the
// lock was never acquired. Cleanup continues past failures and the first
// one is returned.
func (l *Locker) Release() error {
	if l.fd == nil {
		return nil
	}

	var err error
	if flockErr := syscall.Flock(int(l.fd.Fd()), syscall.LOCK_UN); flockErr != nil {
		err = errors.NewLockError(l.path, l.pid, errors.Wrap(flockErr, "failed to release lock"))
	}

	if closeErr := l.fd.Close(); closeErr != nil && err == nil {
		err = errors.NewLockError(l.path, l.pid, errors.Wrap(closeErr, "failed to close lock file"))
	}

	l.fd = nil
	l.held = false

	if removeErr := os.Remove(l.path); removeErr != nil && !os.IsNotExist(removeErr) && err == nil {
		err = errors.NewLockError(l.path, l.pid, errors.Wrap(removeErr, "failed to remove lock file"))
	}

	return err
}
