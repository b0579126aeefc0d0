package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/pflag"

	"github.com/bashhack/gitguard/internal/errors"
	"github.com/bashhack/gitguard/internal/guard"
	"github.com/bashhack/gitguard/internal/lock"
	"github.com/bashhack/gitguard/internal/message"
	"github.com/bashhack/gitguard/internal/risk"
)

const (
	// DefaultIntervalMinutes is the default time (in minutes) between checks.
	// The value can be a fractional number (e.g., 0.5 for 30 seconds).
	DefaultIntervalMinutes = 5.0

	// DefaultMaxRetries is the default number of identical consecutive commit
	// failures tolerated before the watcher exits. 0 retries indefinitely.
	DefaultMaxRetries = 3

	// FileName is the per-repository configuration file.
	FileName = ".gitguard.yaml"

	// EnvPrefix prefixes every environment variable gitguard reads.
	EnvPrefix = "GITGUARD_"
)

// Flag names shared by SetupFlags and the precedence logic in Load.
const (
	flagRepo       = "repo"
	flagConfig     = "config"
	flagInterval   = "interval"
	flagAutoCommit = "auto-commit"
	flagDryRun     = "dry-run"
	flagMaxRetries = "max-retries"
	flagVerbose    = "verbose"
	flagDebug      = "debug"
	flagLogFile    = "log-file"
	flagMatchers   = "matchers"
)

// Config holds all gitguard settings after defaults, the YAML file,
// environment variables and flags have been merged, in that order of
// increasing precedence.
type Config struct {
	// RepoPath is the working copy to watch. Empty means the current directory.
	RepoPath string

	// ConfigFile is an explicit YAML file. When empty, FileName is searched
	// for from RepoPath up to the repository root.
	ConfigFile string

	// IntervalMinutes is how often the watcher checks for risk.
	IntervalMinutes float64

	// AutoCommit lets high risk commit instead of only suggesting.
	AutoCommit bool

	// DryRun prints the message an auto-commit would use without committing.
	DryRun bool

	// MaxRetries is how many identical consecutive commit failures are
	// tolerated. A value of 0 means retry indefinitely.
	MaxRetries int

	Verbose bool

	// Debug enables the debug log file.
	Debug bool

	// LogFile is where debug logs go. Finalize derives a per-repository
	// path under the XDG data directory when it is empty.
	LogFile string

	// Matchers names the declaration matchers used for the commit body.
	Matchers []string

	// Thresholds are the risk classifier limits.
	Thresholds risk.Thresholds

	// LoadedFile is the YAML file that was applied, if any.
	LoadedFile string

	VersionInfo VersionInfo
}

// VersionInfo contains build-time version metadata.
type VersionInfo struct {
	Version string
	Commit  string
	Date    string
}

// New creates a Config with default values.
func New() *Config {
	return &Config{
		IntervalMinutes: DefaultIntervalMinutes,
		MaxRetries:      DefaultMaxRetries,
		Matchers:        []string{message.MatcherKeyword},
		Thresholds:      risk.DefaultThresholds(),
		VersionInfo: VersionInfo{
			Version: "dev",
			Commit:  "unknown",
			Date:    "unknown",
		},
	}
}

// SetupFlags registers the command-line flags on fs, bound to c.
func (c *Config) SetupFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.RepoPath, flagRepo, c.RepoPath, "Path to repository (default: current directory)")
	fs.StringVar(&c.ConfigFile, flagConfig, c.ConfigFile, "Path to a YAML config file (default: "+FileName+" in the repository)")
	fs.Float64Var(&c.IntervalMinutes, flagInterval, c.IntervalMinutes, "Minutes between risk checks (supports decimal values like 0.5)")
	fs.BoolVar(&c.AutoCommit, flagAutoCommit, c.AutoCommit, "Commit automatically when risk is high")
	fs.BoolVar(&c.DryRun, flagDryRun, c.DryRun, "Print auto-commit messages instead of committing")
	fs.IntVar(&c.MaxRetries, flagMaxRetries, c.MaxRetries, "Maximum identical consecutive commit failures before quitting (0 = unlimited)")
	fs.BoolVarP(&c.Verbose, flagVerbose, "v", c.Verbose, "Show informational messages")
	fs.BoolVar(&c.Debug, flagDebug, c.Debug, "Enable debug logging")
	fs.StringVar(&c.LogFile, flagLogFile, c.LogFile, "Path to log file (default: $XDG_DATA_HOME/gitguard/logs/gitguard-{repo-hash}.log)")
	fs.StringSliceVar(&c.Matchers, flagMatchers, c.Matchers, "Declaration matchers for commit bodies ("+message.MatcherKeyword+", "+message.MatcherGo+")")
}

// Load applies the YAML file and then GITGUARD_* environment variables to
// every field whose flag was not set on the command line. fs may be nil.
func (c *Config) Load(fs *pflag.FlagSet) error {
	changed := func(name string) bool {
		return fs != nil && fs.Changed(name)
	}

	if !changed(flagRepo) {
		c.RepoPath = getEnvString("REPO_PATH", c.RepoPath)
	}
	if !changed(flagConfig) {
		c.ConfigFile = getEnvString("CONFIG", c.ConfigFile)
	}

	path := c.ConfigFile
	if path == "" {
		path = findConfigFile(c.RepoPath)
	}
	if path != "" {
		fc, err := ReadFile(path)
		if err != nil {
			return err
		}
		c.applyFile(fc, changed)
		c.LoadedFile = path
	}

	c.loadFromEnvironment(changed)
	return nil
}

func (c *Config) applyFile(fc *FileConfig, changed func(string) bool) {
	if fc.IntervalMinutes != nil && !changed(flagInterval) {
		c.IntervalMinutes = *fc.IntervalMinutes
	}
	if fc.AutoCommit != nil && !changed(flagAutoCommit) {
		c.AutoCommit = *fc.AutoCommit
	}
	if fc.DryRun != nil && !changed(flagDryRun) {
		c.DryRun = *fc.DryRun
	}
	if fc.MaxRetries != nil && !changed(flagMaxRetries) {
		c.MaxRetries = *fc.MaxRetries
	}
	if fc.Verbose != nil && !changed(flagVerbose) {
		c.Verbose = *fc.Verbose
	}
	if fc.Debug != nil && !changed(flagDebug) {
		c.Debug = *fc.Debug
	}
	if fc.LogFile != nil && !changed(flagLogFile) {
		c.LogFile = *fc.LogFile
	}
	if fc.Matchers != nil && !changed(flagMatchers) {
		c.Matchers = fc.Matchers
	}
	if fc.Thresholds != nil {
		fc.Thresholds.applyTo(&c.Thresholds)
	}
}

func (c *Config) loadFromEnvironment(changed func(string) bool) {
	if !changed(flagInterval) {
		c.IntervalMinutes = getEnvFloat("INTERVAL_MINUTES", c.IntervalMinutes)
	}
	if !changed(flagAutoCommit) {
		c.AutoCommit = getEnvBool("AUTO_COMMIT", c.AutoCommit)
	}
	if !changed(flagDryRun) {
		c.DryRun = getEnvBool("DRY_RUN", c.DryRun)
	}
	if !changed(flagMaxRetries) {
		c.MaxRetries = getEnvInt("MAX_RETRIES", c.MaxRetries)
	}
	if !changed(flagVerbose) {
		c.Verbose = getEnvBool("VERBOSE", c.Verbose)
	}
	if !changed(flagDebug) {
		c.Debug = getEnvBool("DEBUG", c.Debug)
	}
	if !changed(flagLogFile) {
		c.LogFile = getEnvString("LOG_FILE", c.LogFile)
	}
	if !changed(flagMatchers) {
		c.Matchers = getEnvList("MATCHERS", c.Matchers)
	}
}

// Finalize validates the merged configuration, resolves RepoPath to an
// absolute path and derives LogFile when it is unset.
func (c *Config) Finalize() error {
	if c.IntervalMinutes <= 0 {
		return errors.NewInvalidConfigError("interval", c.IntervalMinutes, "must be greater than 0")
	}
	if c.GuardConfig().Interval() < guard.MinInterval {
		return errors.NewInvalidConfigError("interval", c.IntervalMinutes,
			fmt.Sprintf("must be at least %s", guard.MinInterval))
	}
	if c.MaxRetries < 0 {
		return errors.NewInvalidConfigError("max-retries", c.MaxRetries, "must not be negative")
	}
	if err := c.Thresholds.Validate(); err != nil {
		return errors.NewInvalidConfigError("thresholds", nil, err.Error())
	}
	if _, unknown := message.MatchersByName(c.Matchers); len(unknown) > 0 {
		return errors.NewInvalidConfigError("matchers", strings.Join(unknown, ","),
			fmt.Sprintf("unknown matcher (valid: %s, %s)", message.MatcherKeyword, message.MatcherGo))
	}

	if c.RepoPath == "" {
		wd, err := os.Getwd()
		if err != nil {
			return errors.NewConfigError("repo", nil, errors.Wrap(err, "failed to get current directory"))
		}
		c.RepoPath = wd
	}

	abs, err := filepath.Abs(c.RepoPath)
	if err != nil {
		return errors.NewConfigError("repo", c.RepoPath, errors.Wrap(err, "failed to resolve absolute path"))
	}
	c.RepoPath = abs

	if c.LogFile == "" {
		c.LogFile = DefaultLogFile(c.RepoPath)
	}

	return nil
}

// DefaultLogFile follows the XDG base directory layout.
func DefaultLogFile(repoPath string) string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dataDir = filepath.Join(home, ".local", "share")
		} else {
			dataDir = os.TempDir()
		}
	}
	return filepath.Join(dataDir, "gitguard", "logs", fmt.Sprintf("gitguard-%s.log", lock.RepoHash(repoPath)))
}

// GuardConfig converts the settings used by the watcher.
func (c *Config) GuardConfig() guard.Config {
	return guard.Config{
		IntervalMinutes: c.IntervalMinutes,
		AutoCommit:      c.AutoCommit,
		DryRun:          c.DryRun,
		MaxRetries:      c.MaxRetries,
		Verbose:         c.Verbose,
		Thresholds:      c.Thresholds,
	}
}

// Synthesizer builds a message synthesizer from the configured matchers.
// Unknown names are ignored; Finalize reports them.
func (c *Config) Synthesizer() *message.Synthesizer {
	matchers, _ := message.MatchersByName(c.Matchers)
	return message.New(matchers...)
}

// findConfigFile walks up from start looking for FileName, stopping at the
// first directory that holds a .git entry.
func findConfigFile(start string) string {
	if start == "" {
		start = "."
	}
	dir, err := filepath.Abs(start)
	if err != nil {
		return ""
	}

	for {
		candidate := filepath.Join(dir, FileName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			return ""
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// getEnvString returns an environment variable string or a default value
func getEnvString(key, defaultValue string) string {
	if value, exists := os.LookupEnv(EnvPrefix + key); exists {
		return value
	}
	return defaultValue
}

// getEnvInt returns an environment variable as int or a default value
func getEnvInt(key string, defaultValue int) int {
	if valueStr, exists := os.LookupEnv(EnvPrefix + key); exists {
		if value, err := strconv.Atoi(valueStr); err == nil {
			return value
		}
	}
	return defaultValue
}

// getEnvFloat returns an environment variable as float64 or a default value
func getEnvFloat(key string, defaultValue float64) float64 {
	if valueStr, exists := os.LookupEnv(EnvPrefix + key); exists {
		if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
			return value
		}
	}
	return defaultValue
}

// getEnvBool returns an environment variable as bool or a default value
func getEnvBool(key string, defaultValue bool) bool {
	if valueStr, exists := os.LookupEnv(EnvPrefix + key); exists {
		switch strings.ToLower(valueStr) {
		case "true", "1", "yes":
			return true
		case "false", "0", "no":
			return false
		}
	}
	return defaultValue
}

// getEnvList splits a comma separated environment variable.
func getEnvList(key string, defaultValue []string) []string {
	valueStr, exists := os.LookupEnv(EnvPrefix + key)
	if !exists {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
