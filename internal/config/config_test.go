package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bashhack/gitguard/internal/errors"
	"github.com/bashhack/gitguard/internal/message"
	"github.com/bashhack/gitguard/internal/risk"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, FileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func parseFlags(t *testing.T, c *Config, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("gitguard", pflag.ContinueOnError)
	c.SetupFlags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func TestNewConfig(t *testing.T) {
	c := New()

	assert.Equal(t, DefaultIntervalMinutes, c.IntervalMinutes)
	assert.Equal(t, DefaultMaxRetries, c.MaxRetries)
	assert.False(t, c.AutoCommit)
	assert.False(t, c.DryRun)
	assert.Equal(t, []string{message.MatcherKeyword}, c.Matchers)
	assert.Equal(t, risk.DefaultThresholds(), c.Thresholds)
	assert.Equal(t, "dev", c.VersionInfo.Version)
}

func TestSetupFlags(t *testing.T) {
	c := New()
	fs := parseFlags(t, c,
		"--repo", "/work/app",
		"--interval", "0.5",
		"--auto-commit",
		"--dry-run",
		"--max-retries", "0",
		"-v",
		"--debug",
		"--log-file", "/tmp/gg.log",
		"--matchers", "keyword,go",
	)

	assert.Equal(t, "/work/app", c.RepoPath)
	assert.Equal(t, 0.5, c.IntervalMinutes)
	assert.True(t, c.AutoCommit)
	assert.True(t, c.DryRun)
	assert.Equal(t, 0, c.MaxRetries)
	assert.True(t, c.Verbose)
	assert.True(t, c.Debug)
	assert.Equal(t, "/tmp/gg.log", c.LogFile)
	assert.Equal(t, []string{"keyword", "go"}, c.Matchers)
	assert.True(t, fs.Changed(flagInterval))
	assert.False(t, fs.Changed(flagConfig))
}

func TestLoadFromEnvironment(t *testing.T) {
	repo := t.TempDir()
	t.Setenv("GITGUARD_REPO_PATH", repo)
	t.Setenv("GITGUARD_INTERVAL_MINUTES", "2.5")
	t.Setenv("GITGUARD_AUTO_COMMIT", "yes")
	t.Setenv("GITGUARD_DRY_RUN", "1")
	t.Setenv("GITGUARD_MAX_RETRIES", "7")
	t.Setenv("GITGUARD_VERBOSE", "true")
	t.Setenv("GITGUARD_DEBUG", "TRUE")
	t.Setenv("GITGUARD_LOG_FILE", "/tmp/env.log")
	t.Setenv("GITGUARD_MATCHERS", " go , keyword ,")

	c := New()
	require.NoError(t, c.Load(nil))

	assert.Equal(t, repo, c.RepoPath)
	assert.Equal(t, 2.5, c.IntervalMinutes)
	assert.True(t, c.AutoCommit)
	assert.True(t, c.DryRun)
	assert.Equal(t, 7, c.MaxRetries)
	assert.True(t, c.Verbose)
	assert.True(t, c.Debug)
	assert.Equal(t, "/tmp/env.log", c.LogFile)
	assert.Equal(t, []string{"go", "keyword"}, c.Matchers)
	assert.Empty(t, c.LoadedFile)
}

func TestInvalidEnvironmentValuesKeepDefaults(t *testing.T) {
	t.Setenv("GITGUARD_REPO_PATH", t.TempDir())
	t.Setenv("GITGUARD_INTERVAL_MINUTES", "soon")
	t.Setenv("GITGUARD_MAX_RETRIES", "many")
	t.Setenv("GITGUARD_AUTO_COMMIT", "maybe")

	c := New()
	require.NoError(t, c.Load(nil))

	assert.Equal(t, DefaultIntervalMinutes, c.IntervalMinutes)
	assert.Equal(t, DefaultMaxRetries, c.MaxRetries)
	assert.False(t, c.AutoCommit)
}

func TestLoadPrecedence(t *testing.T) {
	repo := t.TempDir()
	path := writeConfig(t, repo, `
interval: 3
auto_commit: true
max_retries: 9
matchers: [go]
thresholds:
  high_time: 90m
  moderate_lines: 40
`)

	// File < environment < flags.
	t.Setenv("GITGUARD_MAX_RETRIES", "4")
	t.Setenv("GITGUARD_INTERVAL_MINUTES", "8")

	c := New()
	fs := parseFlags(t, c, "--repo", repo, "--interval", "1")
	require.NoError(t, c.Load(fs))

	assert.Equal(t, path, c.LoadedFile)
	assert.Equal(t, 1.0, c.IntervalMinutes, "flag beats env and file")
	assert.Equal(t, 4, c.MaxRetries, "env beats file")
	assert.True(t, c.AutoCommit, "file beats default")
	assert.Equal(t, []string{"go"}, c.Matchers)
	assert.Equal(t, 90*time.Minute, c.Thresholds.HighTime)
	assert.Equal(t, 40, c.Thresholds.ModerateLines)
	assert.Equal(t, risk.HighFiles, c.Thresholds.HighFiles, "unset thresholds keep defaults")
}

func TestLoadFindsFileInParentUpToRepoRoot(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, ".git"), 0o755))
	nested := filepath.Join(root, "src", "pkg")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	path := writeConfig(t, root, "dry_run: true\n")

	c := New()
	c.RepoPath = nested
	require.NoError(t, c.Load(nil))

	assert.Equal(t, path, c.LoadedFile)
	assert.True(t, c.DryRun)
}

func TestFindConfigFileStopsAtRepoRoot(t *testing.T) {
	outer := t.TempDir()
	writeConfig(t, outer, "dry_run: true\n")
	repo := filepath.Join(outer, "repo")
	require.NoError(t, os.MkdirAll(filepath.Join(repo, ".git"), 0o755))

	assert.Empty(t, findConfigFile(repo))
}

func TestLoadExplicitConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("verbose: true\n"), 0o644))

	c := New()
	fs := parseFlags(t, c, "--repo", t.TempDir(), "--config", path)
	require.NoError(t, c.Load(fs))
	assert.True(t, c.Verbose)

	c = New()
	fs = parseFlags(t, c, "--config", filepath.Join(dir, "missing.yaml"))
	err := c.Load(fs)
	require.Error(t, err)

	var cfgErr *errors.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "config", cfgErr.Parameter)
}

func TestParse(t *testing.T) {
	tests := map[string]struct {
		data    string
		wantErr bool
		check   func(t *testing.T, fc *FileConfig)
	}{
		"empty": {
			data: "",
			check: func(t *testing.T, fc *FileConfig) {
				assert.Nil(t, fc.IntervalMinutes)
				assert.Nil(t, fc.Thresholds)
			},
		},
		"durations": {
			data: "thresholds:\n  moderate_time: 15m\n",
			check: func(t *testing.T, fc *FileConfig) {
				require.NotNil(t, fc.Thresholds)
				require.NotNil(t, fc.Thresholds.ModerateTime)
				assert.Equal(t, 15*time.Minute, *fc.Thresholds.ModerateTime)
				assert.Nil(t, fc.Thresholds.HighTime)
			},
		},
		"explicit false": {
			data: "auto_commit: false\n",
			check: func(t *testing.T, fc *FileConfig) {
				require.NotNil(t, fc.AutoCommit)
				assert.False(t, *fc.AutoCommit)
			},
		},
		"unknown key":    {data: "intervall: 3\n", wantErr: true},
		"wrong type":     {data: "max_retries: lots\n", wantErr: true},
		"malformed yaml": {data: "interval: [\n", wantErr: true},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			fc, err := Parse([]byte(tc.data))
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tc.check(t, fc)
		})
	}
}

func TestReadFileInvalidContent(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "unknown_key: 1\n")

	_, err := ReadFile(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidConfiguration))
}

func TestFinalize(t *testing.T) {
	tests := map[string]struct {
		mutate    func(c *Config)
		wantParam string
	}{
		"valid":               {mutate: func(*Config) {}},
		"zero interval":       {mutate: func(c *Config) { c.IntervalMinutes = 0 }, wantParam: "interval"},
		"negative interval":   {mutate: func(c *Config) { c.IntervalMinutes = -1 }, wantParam: "interval"},
		"sub-second interval": {mutate: func(c *Config) { c.IntervalMinutes = 0.01 }, wantParam: "interval"},
		"tiny interval":       {mutate: func(c *Config) { c.IntervalMinutes = 0.000001 }, wantParam: "interval"},
		"negative retries":    {mutate: func(c *Config) { c.MaxRetries = -2 }, wantParam: "max-retries"},
		"unknown matcher":     {mutate: func(c *Config) { c.Matchers = []string{"go", "cobol"} }, wantParam: "matchers"},
		"bad thresholds": {
			mutate:    func(c *Config) { c.Thresholds.ModerateTime = 2 * time.Hour },
			wantParam: "thresholds",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			c := New()
			c.RepoPath = t.TempDir()
			tc.mutate(c)

			err := c.Finalize()
			if tc.wantParam == "" {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrInvalidConfiguration))
			var cfgErr *errors.ConfigError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, tc.wantParam, cfgErr.Parameter)
		})
	}
}

func TestFinalizeResolvesPaths(t *testing.T) {
	dataHome := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dataHome)

	c := New()
	c.RepoPath = "."
	require.NoError(t, c.Finalize())

	assert.True(t, filepath.IsAbs(c.RepoPath))
	assert.Equal(t, DefaultLogFile(c.RepoPath), c.LogFile)
	assert.Equal(t, filepath.Join(dataHome, "gitguard", "logs"), filepath.Dir(c.LogFile))

	c = New()
	c.RepoPath = t.TempDir()
	c.LogFile = "/var/log/custom.log"
	require.NoError(t, c.Finalize())
	assert.Equal(t, "/var/log/custom.log", c.LogFile)
}

func TestGuardConfigAndSynthesizer(t *testing.T) {
	c := New()
	c.IntervalMinutes = 0.5
	c.AutoCommit = true
	c.Matchers = []string{message.MatcherGo}

	gc := c.GuardConfig()
	assert.Equal(t, 0.5, gc.IntervalMinutes)
	assert.True(t, gc.AutoCommit)
	assert.Equal(t, c.Thresholds, gc.Thresholds)
	assert.NoError(t, gc.Validate())

	msg := c.Synthesizer().Generate([]string{"a.go"}, "+func Serve() {}\n")
	assert.Contains(t, msg, "- Serve")
}
