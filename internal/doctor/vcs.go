package doctor

import (
	"context"
	"fmt"
	"strings"

	"github.com/rileyhilliard/termdash/internal/exec"
	"github.com/rileyhilliard/termdash/internal/source"
)

// GitCheck verifies git is installed and reports the branch the dashboard
// would show for Dir.
type GitCheck struct {
	Config source.VCSConfig
}

func (c *GitCheck) Name() string     { return "git" }
func (c *GitCheck) Category() string { return CategoryVCS }

func (c *GitCheck) Run(ctx context.Context) CheckResult {
	runner := c.Config.Runner
	if runner == nil {
		runner = exec.Local{}
	}

	out, err := runner.Run(ctx, "", "git", "--version")
	if err != nil || out.ExitCode != 0 {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusFail,
			Message:    "git not found",
			Suggestion: "Install git: brew install git (macOS) or apt install git (Linux)",
		}
	}
	version := strings.TrimSpace(string(out.Stdout))

	rec := &recorder{}
	cfg := c.Config
	cfg.Runner = runner
	branch := source.NewVCS(cfg, source.WithObserver(rec)).Read()

	if r, ok := rec.last(); ok && !r.OK {
		where := cfg.Dir
		if where == "" {
			where = "the working directory"
		}
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusWarn,
			Message:    fmt.Sprintf("%s, but no branch for %s: %v", version, where, r.Err),
			Suggestion: "The header shows " + source.NoBranch + " here; set vcs.dir to a repository to track one",
		}
	}

	return CheckResult{
		Name:    c.Name(),
		Status:  StatusPass,
		Message: fmt.Sprintf("%s, branch %s", version, branch),
	}
}
