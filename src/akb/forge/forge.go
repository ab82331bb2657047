// Package forge publishes build archives as releases on a git forge.
package forge

import (
	"fmt"
	"strings"

	"github.com/bitswalk/akb/src/common/logs"
)

var log = logs.NewDefault()

// SetLogger sets the logger for the forge package
func SetLogger(l *logs.Logger) {
	if l != nil {
		log = l
	}
}

// Release describes a release to create
type Release struct {
	// Repo is "owner/name" or a GitHub URL
	Repo  string
	Tag   string
	Title string
	Notes string
	// Assets are local files attached to the release
	Assets []string
}

// Published is the outcome of a successful publication
type Published struct {
	Tag string
	URL string
}

// RepoInfo identifies a repository
type RepoInfo struct {
	Owner string
	Repo  string
}

// String returns "owner/repo"
func (r RepoInfo) String() string {
	return r.Owner + "/" + r.Repo
}

// ParseRepo accepts "owner/repo", https GitHub URLs and git@ URLs
func ParseRepo(s string) (*RepoInfo, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "/")
	s = strings.TrimSuffix(s, ".git")

	var owner, repo string

	switch {
	case strings.HasPrefix(s, "git@github.com:"):
		parts := strings.Split(strings.TrimPrefix(s, "git@github.com:"), "/")
		if len(parts) >= 2 {
			owner, repo = parts[0], parts[1]
		}
	case strings.Contains(s, "github.com/"):
		parts := strings.SplitN(s, "github.com/", 2)
		pathParts := strings.Split(parts[1], "/")
		if len(pathParts) >= 2 {
			owner, repo = pathParts[0], pathParts[1]
		}
	case !strings.Contains(s, ":"):
		parts := strings.Split(s, "/")
		if len(parts) == 2 {
			owner, repo = parts[0], parts[1]
		}
	}

	if owner == "" || repo == "" {
		return nil, fmt.Errorf("unable to parse repository: %q", s)
	}
	return &RepoInfo{Owner: owner, Repo: repo}, nil
}
