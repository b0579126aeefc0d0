// Package errors provides error handling utilities for gitguard.
//
// It defines the sentinel errors used across the application and three
// typed errors that carry context for the failure:
//
//   - GitError: a failed git invocation, with its arguments and stderr
//   - LockError: a failure acquiring or releasing the repository lock
//   - ConfigError: an invalid configuration value
//
// Every typed error implements Unwrap, so callers can test for sentinels
// through any number of wrapping layers:
//
//	if errors.Is(err, errors.ErrAlreadyRunning) {
//	    // another gitguard is watching this repository
//	}
//
// The helpers Wrap, Wrapf, Is, As and Join mirror the standard library so
// the rest of the code base needs a single errors import.
package errors
