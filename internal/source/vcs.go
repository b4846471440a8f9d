package source

import (
	"context"
	"fmt"
	"time"

	"github.com/rileyhilliard/termdash/internal/exec"
	"github.com/rileyhilliard/termdash/internal/util"
)

// NoBranch is returned whenever the branch cannot be determined.
const NoBranch = "DETACHED / NO GIT"

// DefaultVCSTimeout bounds the git subprocess.
const DefaultVCSTimeout = 2 * time.Second

// VCSConfig configures the branch source.
type VCSConfig struct {
	// Dir is the working tree to inspect. Empty means the process cwd.
	Dir     string
	Timeout time.Duration
	Runner  exec.Runner
}

// VCS reads the current git branch. It is the one source without a gate:
// every Read runs git, bounded by Timeout. Callers throttle it.
type VCS struct {
	settings
	dir     string
	timeout time.Duration
	runner  exec.Runner
}

// NewVCS returns a branch source. Zero fields in cfg take defaults.
func NewVCS(cfg VCSConfig, opts ...Option) *VCS {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultVCSTimeout
	}
	if cfg.Runner == nil {
		cfg.Runner = exec.Local{}
	}
	return &VCS{
		settings: newSettings(opts),
		dir:      cfg.Dir,
		timeout:  cfg.Timeout,
		runner:   cfg.Runner,
	}
}

// Read returns the abbreviated branch name, or NoBranch.
func (v *VCS) Read() string {
	start := v.clock()
	v.observer.FetchStarted(NameVCS)

	branch, err := v.branch()

	end := v.clock()
	v.observer.FetchFinished(Result{
		Source:   NameVCS,
		OK:       err == nil,
		Err:      err,
		Duration: end.Sub(start),
		At:       end,
	})
	if err != nil {
		return NoBranch
	}
	return branch
}

func (v *VCS) branch() (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), v.timeout)
	defer cancel()

	out, err := v.runner.Run(ctx, v.dir, "git", "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", err
	}
	if out.ExitCode != 0 {
		return "", fmt.Errorf("git exited with status %d", out.ExitCode)
	}

	branch := util.FirstLine(string(out.Stdout))
	switch branch {
	case "":
		return "", fmt.Errorf("git printed no branch")
	case "HEAD":
		return "", fmt.Errorf("detached HEAD")
	}
	return branch, nil
}
