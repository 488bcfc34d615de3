package notify

import (
	"context"
	"sync"
	"time"

	"github.com/diamondburned/arikawa/v3/api/webhook"
	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/pkg/errors"
)

// webhookTimeout bounds a single webhook call.
const webhookTimeout = 30 * time.Second

// maxSentKeys is how many recent notification keys a Webhook remembers.
const maxSentKeys = 256

// WebhookExecutor executes a Discord webhook. *webhook.Client implements it.
type WebhookExecutor interface {
	Execute(data webhook.ExecuteData) error
}

// Webhook posts notifications to a Discord webhook as embeds. Notifications
// with a key it has already posted are dropped.
type Webhook struct {
	// Username overrides the webhook's default username, if set.
	Username string
	// Color is the embed color.
	Color discord.Color

	exec func(ctx context.Context, data webhook.ExecuteData) error

	mu   sync.Mutex
	sent []string
}

var _ Gateway = (*Webhook)(nil)

// NewWebhook creates a new webhook gateway from a Discord webhook URL.
func NewWebhook(webhookURL string) (*Webhook, error) {
	client, err := webhook.NewFromURL(webhookURL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create webhook")
	}

	w := &Webhook{
		Color: 0x2c91c6,
	}
	w.exec = func(ctx context.Context, data webhook.ExecuteData) error {
		return client.WithContext(ctx).Execute(data)
	}
	return w, nil
}

// NewWebhookWithExecutor creates a webhook gateway that posts through exec.
// It is mostly useful for tests.
func NewWebhookWithExecutor(exec WebhookExecutor) *Webhook {
	return &Webhook{
		Color: 0x2c91c6,
		exec: func(ctx context.Context, data webhook.ExecuteData) error {
			return exec.Execute(data)
		},
	}
}

// Available implements Gateway.
func (w *Webhook) Available() bool { return w.exec != nil }

// Permission implements Gateway. Configuring a webhook is the permission.
func (w *Webhook) Permission() Permission { return PermissionGranted }

// RequestPermission implements Gateway.
func (w *Webhook) RequestPermission(ctx context.Context) Permission { return PermissionGranted }

// Show implements Gateway.
func (w *Webhook) Show(ctx context.Context, n Notification) error {
	if !w.remember(n.Key) {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, webhookTimeout)
	defer cancel()

	data := webhook.ExecuteData{
		Username: w.Username,
		Embeds: []discord.Embed{{
			Title:       n.Title,
			Description: n.Body,
			Color:       w.Color,
		}},
	}

	if err := w.exec(ctx, data); err != nil {
		w.forget(n.Key)
		return errors.Wrap(err, "failed to execute webhook")
	}
	return nil
}

// remember records key and returns false if it was already recorded. An
// empty key is never recorded.
func (w *Webhook) remember(key string) bool {
	if key == "" {
		return true
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	for _, sent := range w.sent {
		if sent == key {
			return false
		}
	}
	w.sent = append(w.sent, key)
	if len(w.sent) > maxSentKeys {
		w.sent = w.sent[len(w.sent)-maxSentKeys:]
	}
	return true
}

func (w *Webhook) forget(key string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for i, sent := range w.sent {
		if sent == key {
			w.sent = append(w.sent[:i], w.sent[i+1:]...)
			return
		}
	}
}
