package core

import (
	"time"

	"github.com/spf13/viper"

	"github.com/bitswalk/akb/src/akb/build"
	"github.com/bitswalk/akb/src/akb/db"
	"github.com/bitswalk/akb/src/akb/forge"
	"github.com/bitswalk/akb/src/akb/notify"
	"github.com/bitswalk/akb/src/akb/profile"
	"github.com/bitswalk/akb/src/akb/runner"
	"github.com/bitswalk/akb/src/akb/storage"
	"github.com/bitswalk/akb/src/common/cli"
	"github.com/bitswalk/akb/src/common/errors"
)

// Release publication methods
const (
	releaseMethodAPI = "api"
	releaseMethodGH  = "gh"
)

// loadRegistry reads the registry named by projects.file
func loadRegistry() (*profile.Registry, error) {
	return profile.Load(cli.GetExpandedString("projects.file"))
}

// loadSources reads variants.* over the stock integration sources
func loadSources() (build.IntegrationSources, error) {
	sources := build.DefaultSources()
	if err := viper.UnmarshalKey("variants", &sources); err != nil {
		return sources, errors.ErrInvalidSetting.WithMessage("Invalid variants configuration").WithCause(err)
	}
	return sources, nil
}

// storageConfig returns the storage.* configuration
func storageConfig() storage.Config {
	return storage.Config{
		Type: viper.GetString("storage.type"),
		Local: storage.LocalConfig{
			BasePath: viper.GetString("storage.local.path"),
		},
		S3: storage.S3Config{
			Endpoint:        viper.GetString("storage.s3.endpoint"),
			Region:          viper.GetString("storage.s3.region"),
			Bucket:          viper.GetString("storage.s3.bucket"),
			AccessKeyID:     viper.GetString("storage.s3.access_key"),
			SecretAccessKey: viper.GetString("storage.s3.secret_key"),
			UsePathStyle:    viper.GetBool("storage.s3.path_style"),
		},
	}
}

func newStore() (storage.Backend, error) {
	store, err := storage.New(storageConfig())
	if err != nil {
		return nil, errors.ErrStorageUnavailable.WithCause(err)
	}
	return store, nil
}

// releaseToken returns release.token, falling back to GITHUB_TOKEN and GH_TOKEN
func releaseToken() string {
	return cli.GetFirstString("release.token", "GITHUB_TOKEN", "GH_TOKEN")
}

// newPublisher returns the configured release publisher. A missing API
// token yields no publisher; the release stage reports it only in release
// mode.
func newPublisher(r runner.Runner) (build.Publisher, error) {
	switch method := viper.GetString("release.method"); method {
	case releaseMethodGH:
		return forge.NewCLIPublisher(r), nil
	case releaseMethodAPI, "":
		token := releaseToken()
		if token == "" {
			return nil, nil
		}
		pub, err := forge.NewGitHubPublisher(nil, token, viper.GetString("release.api_url"))
		if err != nil {
			return nil, err
		}
		return pub, nil
	default:
		return nil, errors.ErrInvalidSetting.WithMessagef("Unknown release method %q (api, gh)", method)
	}
}

// notifyConfig returns the notify.* configuration
func notifyConfig() notify.Config {
	return notify.Config{
		Type:           notify.Type(viper.GetString("notify.type")),
		WebhookURL:     viper.GetString("notify.webhook.url"),
		TelegramToken:  viper.GetString("notify.telegram.token"),
		TelegramChatID: viper.GetString("notify.telegram.chat_id"),
		TelegramAPI:    viper.GetString("notify.telegram.api"),
		Timeout:        viper.GetDuration("notify.timeout"),
	}
}

// openHistory opens the history database named by history.path
func openHistory() (*db.Database, error) {
	database, err := db.New(db.Config{Path: viper.GetString("history.path")})
	if err != nil {
		return nil, errors.ErrHistoryUnavailable.WithCause(err)
	}
	return database, nil
}

// pipelineDeps assembles the collaborators of a build. The returned
// function releases them.
func pipelineDeps() (build.Deps, func(), error) {
	closer := func() {}

	r := runner.NewExec()
	sources, err := loadSources()
	if err != nil {
		return build.Deps{}, closer, err
	}
	store, err := newStore()
	if err != nil {
		return build.Deps{}, closer, err
	}
	pub, err := newPublisher(r)
	if err != nil {
		return build.Deps{}, closer, err
	}
	notifier, err := notify.New(notifyConfig())
	if err != nil {
		return build.Deps{}, closer, err
	}

	deps := build.Deps{
		Runner:    r,
		Sources:   sources,
		Store:     store,
		Publisher: pub,
		Notifier:  notifier,
		Now:       time.Now,
	}

	if viper.GetBool("history.enabled") {
		database, err := openHistory()
		if err != nil {
			log.Warn("Build history disabled", "path", viper.GetString("history.path"), "error", err)
		} else {
			deps.Recorder = db.NewBuildRunRepository(database)
			closer = func() { database.Close() }
		}
	}

	return deps, closer, nil
}
