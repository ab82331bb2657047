// Package notify delivers release notifications.
package notify

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/bitswalk/akb/src/common/errors"
	"github.com/bitswalk/akb/src/common/logs"
)

var log = logs.NewDefault()

// SetLogger sets the logger for the notify package
func SetLogger(l *logs.Logger) {
	if l != nil {
		log = l
	}
}

// Message describes a published release
type Message struct {
	Tag         string `json:"tag"`
	Project     string `json:"project,omitempty"`
	Variant     string `json:"variant,omitempty"`
	ArchiveName string `json:"archive_name,omitempty"`
	ReleaseURL  string `json:"release_url,omitempty"`
}

// Text renders the message as a short human-readable announcement
func (m Message) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "New release %s", m.Tag)
	if m.Project != "" {
		fmt.Fprintf(&b, "\nProject: %s", m.Project)
	}
	if m.Variant != "" {
		fmt.Fprintf(&b, "\nVariant: %s", m.Variant)
	}
	if m.ArchiveName != "" {
		fmt.Fprintf(&b, "\nArchive: %s", m.ArchiveName)
	}
	if m.ReleaseURL != "" {
		fmt.Fprintf(&b, "\n%s", m.ReleaseURL)
	}
	return b.String()
}

// Type selects a notifier implementation
type Type string

const (
	TypeLog      Type = "log"
	TypeWebhook  Type = "webhook"
	TypeTelegram Type = "telegram"
)

// Config holds notifier configuration
type Config struct {
	Type Type

	// WebhookURL receives a JSON POST of the message
	WebhookURL string

	// Telegram bot settings
	TelegramToken  string
	TelegramChatID string
	// TelegramAPI overrides https://api.telegram.org
	TelegramAPI string

	Timeout time.Duration
}

// DefaultConfig returns a log-only notifier configuration
func DefaultConfig() Config {
	return Config{Type: TypeLog, Timeout: 30 * time.Second}
}

// New builds the notifier described by cfg
func New(cfg Config) (*Dispatcher, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	client := &http.Client{Timeout: timeout}

	d := &Dispatcher{kind: cfg.Type}
	switch cfg.Type {
	case "", TypeLog:
		d.kind = TypeLog
		d.send = logOnly
	case TypeWebhook:
		if cfg.WebhookURL == "" {
			return nil, errors.ErrInvalidSetting.WithMessage("notify.webhook.url is required for webhook notifications")
		}
		d.send = (&webhook{url: cfg.WebhookURL, client: client}).send
	case TypeTelegram:
		if cfg.TelegramToken == "" || cfg.TelegramChatID == "" {
			return nil, errors.ErrInvalidSetting.WithMessage("notify.telegram.token and notify.telegram.chat_id are required for telegram notifications")
		}
		api := cfg.TelegramAPI
		if api == "" {
			api = DefaultTelegramAPI
		}
		d.send = (&telegram{api: strings.TrimSuffix(api, "/"), token: cfg.TelegramToken, chatID: cfg.TelegramChatID, client: client}).send
	default:
		return nil, errors.ErrInvalidSetting.WithMessagef("Unknown notifier type: %s", cfg.Type)
	}
	return d, nil
}

// Dispatcher sends messages through the configured channel
type Dispatcher struct {
	kind Type
	send func(ctx context.Context, m Message) error
}

// Type returns the channel type
func (d *Dispatcher) Type() Type {
	return d.kind
}

// Notify delivers m
func (d *Dispatcher) Notify(ctx context.Context, m Message) error {
	if err := d.send(ctx, m); err != nil {
		return errors.ErrNotifyFailed.WithMessagef("Failed to notify release %s via %s", m.Tag, d.kind).WithCause(err)
	}
	log.Info("Notification sent", "tag", m.Tag, "channel", d.kind)
	return nil
}

func logOnly(_ context.Context, m Message) error {
	log.Info("Release published", "tag", m.Tag, "project", m.Project, "variant", m.Variant, "url", m.ReleaseURL)
	return nil
}
