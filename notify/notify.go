// Package notify delivers boss notifications to the user. Delivery is best
// effort: a gateway that cannot show a notification returns an error, and
// callers log it and move on.
package notify

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/pkg/errors"
)

// Notification is a single message to show.
type Notification struct {
	Title string
	Body  string
	// Key identifies the notification. Gateways that remember keys drop a
	// second notification with the same key.
	Key string
}

// Permission is the user's answer to a notification permission request.
type Permission string

const (
	PermissionDefault Permission = "default"
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
)

// ErrNotPermitted is returned by Show when the user has not granted
// permission to show notifications.
var ErrNotPermitted = errors.New("notification permission not granted")

// Gateway shows notifications.
type Gateway interface {
	// Available returns false if the gateway cannot show notifications at
	// all.
	Available() bool
	// Permission returns the current permission without prompting.
	Permission() Permission
	// RequestPermission asks the user for permission and returns the answer.
	RequestPermission(ctx context.Context) Permission
	// Show shows a notification.
	Show(ctx context.Context, n Notification) error
}

// Console writes notifications to a writer, one per line. It is always
// available and needs no permission.
type Console struct {
	mu sync.Mutex
	w  io.Writer
}

var _ Gateway = (*Console)(nil)

// NewConsole creates a new console gateway writing to w.
func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

// Available implements Gateway.
func (c *Console) Available() bool { return c.w != nil }

// Permission implements Gateway.
func (c *Console) Permission() Permission { return PermissionGranted }

// RequestPermission implements Gateway.
func (c *Console) RequestPermission(ctx context.Context) Permission { return PermissionGranted }

// Show implements Gateway.
func (c *Console) Show(ctx context.Context, n Notification) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := fmt.Fprintf(c.w, "%s: %s\n", n.Title, n.Body); err != nil {
		return errors.Wrap(err, "failed to write notification")
	}
	return nil
}

// Multi shows every notification on all of its gateways.
type Multi []Gateway

var _ Gateway = Multi(nil)

// Available returns true if any gateway is available.
func (m Multi) Available() bool {
	for _, g := range m {
		if g.Available() {
			return true
		}
	}
	return false
}

// Permission returns granted if any available gateway has been granted
// permission, denied if all of them were denied, and default otherwise.
func (m Multi) Permission() Permission {
	return m.combine(func(g Gateway) Permission { return g.Permission() })
}

// RequestPermission asks every available gateway that has not been answered
// yet.
func (m Multi) RequestPermission(ctx context.Context) Permission {
	return m.combine(func(g Gateway) Permission {
		if p := g.Permission(); p != PermissionDefault {
			return p
		}
		return g.RequestPermission(ctx)
	})
}

func (m Multi) combine(get func(Gateway) Permission) Permission {
	denied := 0
	available := 0
	for _, g := range m {
		if !g.Available() {
			continue
		}
		available++
		switch get(g) {
		case PermissionGranted:
			return PermissionGranted
		case PermissionDenied:
			denied++
		}
	}
	if available > 0 && denied == available {
		return PermissionDenied
	}
	return PermissionDefault
}

// Show shows n on every available gateway that has permission. It returns
// ErrNotPermitted if no gateway could show it, and otherwise the first
// error, but always tries every gateway.
func (m Multi) Show(ctx context.Context, n Notification) error {
	var first error
	var permitted int
	for _, g := range m {
		if !g.Available() || g.Permission() != PermissionGranted {
			continue
		}
		permitted++
		if err := g.Show(ctx, n); err != nil && first == nil {
			first = err
		}
	}
	if permitted == 0 {
		return ErrNotPermitted
	}
	return first
}
