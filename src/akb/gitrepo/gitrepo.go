// Package gitrepo clones auxiliary repositories and resolves the source
// tree's HEAD commit without shelling out to git.
package gitrepo

import (
	"context"
	"io"
	"os"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/bitswalk/akb/src/common/errors"
	"github.com/bitswalk/akb/src/common/logs"
)

var log = logs.NewDefault()

// SetLogger sets the logger for the gitrepo package
func SetLogger(l *logs.Logger) {
	if l != nil {
		log = l
	}
}

// ShortHashLen is the length of an abbreviated commit hash
const ShortHashLen = 7

// CloneOptions selects what to clone
type CloneOptions struct {
	URL    string
	Branch string
	// Depth limits history; 0 clones everything
	Depth int
	// Dest is the checkout directory, which must not exist yet
	Dest string
}

// Client performs git operations
type Client struct {
	// Progress receives remote progress output; nil discards it
	Progress io.Writer
}

// NewClient creates a client reporting clone progress to stderr
func NewClient() *Client {
	return &Client{Progress: os.Stderr}
}

// Clone checks out a single branch of a remote repository
func (c *Client) Clone(ctx context.Context, opts CloneOptions) error {
	cloneOpts := &git.CloneOptions{
		URL:          opts.URL,
		SingleBranch: true,
		Depth:        opts.Depth,
		Progress:     c.Progress,
		Tags:         git.NoTags,
	}
	if opts.Branch != "" {
		cloneOpts.ReferenceName = plumbing.NewBranchReferenceName(opts.Branch)
	}

	log.Info("Cloning repository", "url", opts.URL, "branch", opts.Branch, "depth", opts.Depth, "dest", opts.Dest)

	if _, err := git.PlainCloneContext(ctx, opts.Dest, false, cloneOpts); err != nil {
		os.RemoveAll(opts.Dest)
		return errors.ErrCloneFailed.
			WithMessagef("Clone of %s (branch %s) failed", opts.URL, opts.Branch).
			WithCause(err)
	}
	return nil
}

// ShortHead returns the abbreviated HEAD commit hash of the repository
// containing dir.
func (c *Client) ShortHead(dir string) (string, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", err
	}
	head, err := repo.Head()
	if err != nil {
		return "", err
	}
	return head.Hash().String()[:ShortHashLen], nil
}
