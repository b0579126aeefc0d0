// Package config merges gitguard's settings.
//
// Values are resolved in increasing order of precedence:
//
//  1. Built-in defaults (New)
//  2. A YAML file: --config, or .gitguard.yaml found by walking up from the
//     repository path to the repository root
//  3. GITGUARD_* environment variables
//  4. Command-line flags registered by SetupFlags
//
// Load applies the file and the environment to every field whose flag was
// not set explicitly. Finalize validates the result, returning a
// *errors.ConfigError that wraps errors.ErrInvalidConfiguration, and
// resolves the repository and log file paths.
//
// Environment variables:
//
//	GITGUARD_REPO_PATH         Path to repository
//	GITGUARD_CONFIG            Path to a YAML config file
//	GITGUARD_INTERVAL_MINUTES  Minutes between risk checks (decimal allowed)
//	GITGUARD_AUTO_COMMIT       Commit automatically on high risk (true/false)
//	GITGUARD_DRY_RUN           Print auto-commit messages only (true/false)
//	GITGUARD_MAX_RETRIES       Identical consecutive failures before quitting
//	GITGUARD_VERBOSE           Show informational messages (true/false)
//	GITGUARD_DEBUG             Enable debug logging (true/false)
//	GITGUARD_LOG_FILE          Path to log file
//	GITGUARD_MATCHERS          Comma separated declaration matchers
package config
