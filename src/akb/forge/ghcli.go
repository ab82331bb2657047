package forge

import (
	"context"

	"github.com/bitswalk/akb/src/akb/runner"
	"github.com/bitswalk/akb/src/common/errors"
)

// CLIPublisher creates releases by invoking the gh command-line tool,
// which brings its own authentication.
type CLIPublisher struct {
	runner runner.Runner
}

// NewCLIPublisher creates a publisher running gh through r
func NewCLIPublisher(r runner.Runner) *CLIPublisher {
	return &CLIPublisher{runner: r}
}

// Publish runs gh release create
func (p *CLIPublisher) Publish(ctx context.Context, r Release) (*Published, error) {
	args := []string{"release", "create", r.Tag}
	args = append(args, r.Assets...)
	args = append(args, "--repo", r.Repo, "--title", r.Title, "--notes", r.Notes)

	url, err := p.runner.Run(ctx, runner.Cmd{Name: "gh", Args: args, Capture: true})
	if err != nil {
		return nil, errors.ErrReleaseFailed.WithMessagef("gh release create %s failed", r.Tag).WithCause(err)
	}
	return &Published{Tag: r.Tag, URL: url}, nil
}
