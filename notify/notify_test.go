package notify

import (
	"context"
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/diamondburned/arikawa/v3/api/webhook"
	"github.com/pkg/errors"
)

func TestConsole(t *testing.T) {
	var out strings.Builder
	console := NewConsole(&out)

	assert.True(t, console.Available())
	assert.Equal(t, PermissionGranted, console.RequestPermission(context.Background()))

	err := console.Show(context.Background(), Notification{
		Title: "NotiBoss",
		Body:  "บอส เวนาตัส [60] จะเกิดในอีก 5 นาที",
		Key:   "boss-1",
	})
	assert.NoError(t, err)
	assert.Equal(t, "NotiBoss: บอส เวนาตัส [60] จะเกิดในอีก 5 นาที\n", out.String())
}

type recordingExecutor struct {
	sent []webhook.ExecuteData
	err  error
}

func (r *recordingExecutor) Execute(data webhook.ExecuteData) error {
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, data)
	return nil
}

func TestWebhook(t *testing.T) {
	ctx := context.Background()
	exec := &recordingExecutor{}

	gateway := NewWebhookWithExecutor(exec)
	gateway.Username = "NotiBoss"

	n := Notification{Title: "title", Body: "body", Key: "boss-1"}
	assert.NoError(t, gateway.Show(ctx, n))
	assert.Equal(t, 1, len(exec.sent))
	assert.Equal(t, "NotiBoss", exec.sent[0].Username)
	assert.Equal(t, "title", exec.sent[0].Embeds[0].Title)
	assert.Equal(t, "body", exec.sent[0].Embeds[0].Description)

	t.Run("duplicate_key", func(t *testing.T) {
		assert.NoError(t, gateway.Show(ctx, n))
		assert.Equal(t, 1, len(exec.sent))
	})

	t.Run("new_key", func(t *testing.T) {
		assert.NoError(t, gateway.Show(ctx, Notification{Title: "t", Body: "b", Key: "boss-2"}))
		assert.Equal(t, 2, len(exec.sent))
	})

	t.Run("failure_is_retried", func(t *testing.T) {
		exec.err = errors.New("rate limited")
		err := gateway.Show(ctx, Notification{Key: "boss-3"})
		assert.Error(t, err)

		exec.err = nil
		assert.NoError(t, gateway.Show(ctx, Notification{Key: "boss-3"}))
		assert.Equal(t, 3, len(exec.sent))
	})
}

type fakeGateway struct {
	available  bool
	permission Permission
	answer     Permission
	shown      []Notification
}

func (f *fakeGateway) Available() bool        { return f.available }
func (f *fakeGateway) Permission() Permission { return f.permission }

func (f *fakeGateway) RequestPermission(ctx context.Context) Permission {
	f.permission = f.answer
	return f.answer
}

func (f *fakeGateway) Show(ctx context.Context, n Notification) error {
	f.shown = append(f.shown, n)
	return nil
}

func TestMulti(t *testing.T) {
	ctx := context.Background()

	t.Run("none_available", func(t *testing.T) {
		m := Multi{&fakeGateway{}}
		assert.False(t, m.Available())
		assert.Equal(t, PermissionDefault, m.Permission())
	})

	t.Run("request", func(t *testing.T) {
		asked := &fakeGateway{available: true, permission: PermissionDefault, answer: PermissionGranted}
		m := Multi{asked, &fakeGateway{}}

		assert.True(t, m.Available())
		assert.Equal(t, PermissionDefault, m.Permission())
		assert.Equal(t, PermissionGranted, m.RequestPermission(ctx))
		assert.Equal(t, PermissionGranted, m.Permission())
	})

	t.Run("all_denied", func(t *testing.T) {
		m := Multi{
			&fakeGateway{available: true, permission: PermissionDenied},
			&fakeGateway{available: true, permission: PermissionDenied},
		}
		assert.Equal(t, PermissionDenied, m.Permission())
	})

	t.Run("show_skips_unavailable", func(t *testing.T) {
		a := &fakeGateway{available: true, permission: PermissionGranted}
		b := &fakeGateway{}
		c := &fakeGateway{available: true, permission: PermissionDenied}
		m := Multi{a, b, c}

		assert.NoError(t, m.Show(ctx, Notification{Key: "k"}))
		assert.Equal(t, 1, len(a.shown))
		assert.Equal(t, 0, len(b.shown))
		assert.Equal(t, 0, len(c.shown))
	})

	t.Run("show_not_permitted", func(t *testing.T) {
		m := Multi{&fakeGateway{available: true, permission: PermissionDefault}}
		err := m.Show(ctx, Notification{Key: "k"})
		assert.True(t, errors.Is(err, ErrNotPermitted))
	})
}
