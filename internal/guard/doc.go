// Package guard runs the risk check against a working copy.
//
// A Guard combines an Inspector (the change signals), the risk classifier,
// the message synthesizer and a Committer. Check performs one evaluation.
// Start runs Check on a ticker until the context ends or Stop is called, at
// which point one last check runs with the closing flag set so that pending
// work is committed, or at least flagged, before the session goes away.
//
// Commit failures never alter a check's tier or action. In the loop they
// feed a retry policy: the same error more than MaxRetries times in a row
// stops the loop and is returned from Wait.
package guard
