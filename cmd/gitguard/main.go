package main

import (
	"fmt"
	"os"

	"github.com/bashhack/gitguard/cmd/gitguard/internal/clierr"
	"github.com/bashhack/gitguard/internal/config"
	"github.com/bashhack/gitguard/internal/errors"
)

// Version information - injected at build time
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	cfg := config.New()
	cfg.VersionInfo = config.VersionInfo{
		Version: version,
		Commit:  commit,
		Date:    date,
	}

	if err := NewRootCmd(AppOptions{Config: cfg}).Execute(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "❌ Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

// exitCode prefers an explicit clierr code and reports configuration
// mistakes as usage errors.
func exitCode(err error) int {
	var coder clierr.ExitCoder
	if errors.As(err, &coder) {
		return coder.ExitCode()
	}
	if errors.Is(err, errors.ErrInvalidConfiguration) {
		return clierr.CodeInvalidConfig
	}
	return clierr.ExitCodeOf(err)
}
