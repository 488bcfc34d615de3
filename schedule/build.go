package schedule

import (
	"log/slog"
	"strings"
	"time"
)

// BuildOpts are options for Build.
type BuildOpts struct {
	// Now is the reference time. Events at or before it are dropped. If
	// zero, time.Now is used.
	Now time.Time
	// Location is the location schedule lines are written in. If nil, the
	// system's local time is used.
	Location *time.Location
}

// Build parses a whole schedule text. Lines are grouped by separator lines,
// and only the first event of each group that has not yet happened is kept.
// Lines that are not events are skipped. The result is empty, not nil, when
// nothing is left to schedule.
func Build(text string, opts BuildOpts) Schedule {
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}

	b := builder{
		now:      opts.Now,
		schedule: Schedule{},
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if Classify(line) == Separator {
			b.closeGroup()
			continue
		}

		e, ok := ParseIn(line, opts.Location)
		if !ok {
			slog.Debug("skipping unrecognized schedule line", "line", line)
			continue
		}
		b.add(e)
	}
	b.closeGroup()

	return b.schedule
}

type builder struct {
	now      time.Time
	schedule Schedule
	group    int
	current  []Event
}

func (b *builder) add(e Event) {
	if Elapsed(e.At, b.now) {
		slog.Debug("skipping elapsed event",
			"event", e.Name,
			"at", e.At)
		return
	}
	e.Group = b.group
	b.current = append(b.current, e)
}

// closeGroup emits the first event of the current group, if there is one.
// A separator with nothing before it does not start a new group.
func (b *builder) closeGroup() {
	if len(b.current) == 0 {
		return
	}
	b.schedule = append(b.schedule, b.current[0])
	b.current = b.current[:0]
	b.group++
}

// Elapsed reports whether an event at the given time is too late to
// schedule. An event earlier today at or before now is dropped rather than
// reported as missed, and so is any event on a past day.
func Elapsed(at, now time.Time) bool {
	if !at.After(now) && sameDay(at, now) {
		return true
	}
	return at.Before(now)
}

func sameDay(a, b time.Time) bool {
	b = b.In(a.Location())
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
