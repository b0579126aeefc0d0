// Package risk classifies how exposed uncommitted work is and decides what
// gitguard should do about it.
//
// A Snapshot carries the facts gathered from the working copy: the time since
// the last commit, the number of changed files and lines, whether the session
// is closing, and whether the user allows automatic commits. Classify turns a
// snapshot into a Tier and DecideAction turns a Tier into an Action:
//
//	tier := risk.Classify(risk.Snapshot{
//	    SinceLastCommit: 45 * time.Minute,
//	    ChangedFiles:    2,
//	})
//	action := risk.DecideAction(tier, false) // risk.Suggest
//
// # Rules
//
// The classifier applies its rules in order and stops at the first match:
//
//  1. Closing with any pending change is High.
//  2. More than HighTime elapsed with at least ModerateFiles or ModerateLines is High.
//  3. At least HighFiles or HighLines is High regardless of time.
//  4. More than ModerateTime elapsed with any changed file is Moderate.
//  5. At least ModerateFiles or ModerateLines is Moderate.
//  6. Everything else is Low.
//
// The limits are exported constants. Thresholds carries a custom set of limits
// and is what the configuration file overrides.
//
// # Concurrency
//
// Every function in this package is pure. They may be called from any number
// of goroutines without coordination.
package risk
