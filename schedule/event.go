package schedule

import (
	"cmp"
	"fmt"
	"strings"
	"time"
)

// LeadTime is how long before a boss spawns its notification fires.
const LeadTime = 5 * time.Minute

// displayLayout is the canonical date/time layout of schedule lines.
const displayLayout = "02/01/2006 15:04"

// Event is a single boss spawn parsed from a schedule line. Events are
// values; once built they are never modified.
type Event struct {
	// At is the stated spawn time in local wall-clock time.
	At time.Time `json:"at"`
	// Name is the boss name with the level and parenthetical removed.
	Name string `json:"name"`
	// Level is the number inside a leading "[N]", if any.
	Level string `json:"level,omitempty"`
	// Parenthetical is a trailing "(H:MM น.)" kept verbatim for display. It
	// never affects scheduling.
	Parenthetical string `json:"parenthetical,omitempty"`
	// Line is the source line the event was parsed from.
	Line string `json:"line"`
	// Group is the index of the separator-delimited run the line belongs to.
	Group int `json:"group"`
}

// TriggerAt returns the instant the event's notification is due.
func (e Event) TriggerAt() time.Time { return e.At.Add(-LeadTime) }

// Key returns a stable key identifying the event's notification. Two events
// with the same trigger instant share a key.
func (e Event) Key() string {
	return fmt.Sprintf("boss-%d", e.TriggerAt().UnixMilli())
}

// DisplayName returns the name followed by the parenthetical and level, as
// shown in lists and notifications.
func (e Event) DisplayName() string {
	var s strings.Builder
	s.WriteString(e.Name)
	if e.Parenthetical != "" {
		s.WriteString(" ")
		s.WriteString(e.Parenthetical)
	}
	if e.Level != "" {
		s.WriteString(" [")
		s.WriteString(e.Level)
		s.WriteString("]")
	}
	return s.String()
}

// String implements fmt.Stringer.
func (e Event) String() string {
	return FormatTime(e.At) + " — " + e.DisplayName()
}

// CompareEvent compares two events by spawn time.
func CompareEvent(a, b Event) int { return cmp.Compare(a.At.UnixNano(), b.At.UnixNano()) }

// Schedule is the list of events to notify for, one per group, in source
// order.
type Schedule []Event

// Active returns the events whose notification is still due after now.
func (s Schedule) Active(now time.Time) Schedule {
	active := make(Schedule, 0, len(s))
	for _, e := range s {
		if e.TriggerAt().After(now) {
			active = append(active, e)
		}
	}
	return active
}

// Local returns a copy of the schedule with every timestamp converted to
// the local time zone. It is used after decoding, since JSON timestamps come
// back with a fixed offset.
func (s Schedule) Local() Schedule {
	local := make(Schedule, len(s))
	for i, e := range s {
		e.At = e.At.In(time.Local)
		local[i] = e
	}
	return local
}

// FormatTime formats t the way schedule lines write it, e.g.
// "13/01/2026 08:14 น.".
func FormatTime(t time.Time) string {
	return t.Format(displayLayout) + " น."
}
