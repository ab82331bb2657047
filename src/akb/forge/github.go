package forge

import (
	"context"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/go-github/v74/github"

	"github.com/bitswalk/akb/src/common/errors"
)

// GitHubPublisher creates releases through the GitHub REST API
type GitHubPublisher struct {
	client *github.Client
}

// NewGitHubPublisher creates a publisher authenticated with token.
// A non-empty apiURL targets GitHub Enterprise or a test server.
func NewGitHubPublisher(httpClient *http.Client, token, apiURL string) (*GitHubPublisher, error) {
	if token == "" {
		return nil, errors.ErrReleaseToken
	}

	client := github.NewClient(httpClient).WithAuthToken(token)

	if apiURL != "" {
		if !strings.HasSuffix(apiURL, "/") {
			apiURL += "/"
		}
		u, err := url.Parse(apiURL)
		if err != nil {
			return nil, errors.ErrInvalidSetting.WithMessagef("Invalid release API URL %q", apiURL).WithCause(err)
		}
		client.BaseURL = u
		client.UploadURL = u
	}

	return &GitHubPublisher{client: client}, nil
}

// Publish creates the release and uploads every asset to it
func (p *GitHubPublisher) Publish(ctx context.Context, r Release) (*Published, error) {
	info, err := ParseRepo(r.Repo)
	if err != nil {
		return nil, errors.ErrInvalidSetting.WithMessagef("Invalid release repository %q", r.Repo).WithCause(err)
	}

	log.Info("Creating release", "repo", info.String(), "tag", r.Tag)

	rel, _, err := p.client.Repositories.CreateRelease(ctx, info.Owner, info.Repo, &github.RepositoryRelease{
		TagName: github.Ptr(r.Tag),
		Name:    github.Ptr(r.Title),
		Body:    github.Ptr(r.Notes),
	})
	if err != nil {
		return nil, errors.ErrReleaseFailed.WithMessagef("Failed to create release %s on %s", r.Tag, info.String()).WithCause(err)
	}

	for _, asset := range r.Assets {
		if err := p.upload(ctx, info, rel.GetID(), asset); err != nil {
			return nil, err
		}
	}

	return &Published{Tag: r.Tag, URL: rel.GetHTMLURL()}, nil
}

func (p *GitHubPublisher) upload(ctx context.Context, info *RepoInfo, releaseID int64, asset string) error {
	f, err := os.Open(asset)
	if err != nil {
		return errors.ErrArchiveMissing.WithCause(err)
	}
	defer f.Close()

	name := filepath.Base(asset)
	log.Info("Uploading release asset", "release_id", releaseID, "asset", name)

	_, _, err = p.client.Repositories.UploadReleaseAsset(ctx, info.Owner, info.Repo, releaseID, &github.UploadOptions{Name: name}, f)
	if err != nil {
		return errors.ErrReleaseFailed.WithMessagef("Failed to upload %s", name).WithCause(err)
	}
	return nil
}
