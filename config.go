package main

import (
	"encoding/json"
	"os"
	"time"

	"github.com/pkg/errors"
	"libdb.so/boss-reminder/store"
)

type config struct {
	Store            store.Config  `json:"store"`
	WebhookURL       string        `json:"webhook_url"`
	WebhookUsername  string        `json:"webhook_username"`
	Console          *bool         `json:"console"`
	Resume           *bool         `json:"resume"`
	RefreshFrequency durationValue `json:"refresh_frequency"`
}

// console returns whether notifications are printed to stdout. Defaults to
// true.
func (c *config) console() bool { return c.Console == nil || *c.Console }

// resume returns whether a restored schedule is armed on start. Defaults to
// true.
func (c *config) resume() bool { return c.Resume == nil || *c.Resume }

func parseConfigFiles(paths []string) (*config, error) {
	var cfg config
	for _, path := range paths {
		if err := parseConfigFile(path, &cfg); err != nil {
			return nil, errors.Wrapf(err, "failed to parse config file %s", path)
		}
	}
	return &cfg, nil
}

func parseConfigFile(path string, dst *config) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "failed to open config file")
	}
	defer f.Close()

	if err := json.NewDecoder(f).Decode(dst); err != nil {
		return errors.Wrap(err, "failed to decode config")
	}

	return nil
}

type durationValue time.Duration

func (d durationValue) Duration() time.Duration {
	return time.Duration(d)
}

func (d *durationValue) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return errors.Wrap(err, "failed to decode duration")
	}

	dur, err := time.ParseDuration(s)
	if err != nil {
		return errors.Wrap(err, "failed to parse duration")
	}

	*d = durationValue(dur)
	return nil
}
