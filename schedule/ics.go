package schedule

import (
	"io"
	"strconv"
	"time"

	"github.com/emersion/go-ical"
	"github.com/pkg/errors"
)

// ErrNoEvents is returned by WriteICS for an empty schedule, since an
// iCalendar file needs at least one component.
var ErrNoEvents = errors.New("schedule has no events to export")

// icsProductID is the PRODID of exported calendars.
const icsProductID = "-//libdb.so//boss-reminder//TH"

// NewICS converts the schedule into an iCalendar calendar. Every event gets
// a display alarm LeadTime before it starts, so calendar apps remind at the
// same instant the scheduler does.
func NewICS(s Schedule, now time.Time) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, icsProductID)

	for _, e := range s {
		event := ical.NewEvent()
		event.Props.SetText(ical.PropUID, icsUID(e))
		event.Props.SetDateTime(ical.PropDateTimeStamp, now.UTC())
		event.Props.SetDateTime(ical.PropDateTimeStart, e.At.UTC())
		event.Props.SetText(ical.PropSummary, e.DisplayName())
		event.Props.SetText(ical.PropDescription, e.Line)

		alarm := ical.NewComponent(ical.CompAlarm)
		alarm.Props.SetText(ical.PropAction, "DISPLAY")
		alarm.Props.SetText(ical.PropDescription, e.DisplayName())

		trigger := ical.NewProp(ical.PropTrigger)
		trigger.SetValueType(ical.ValueDuration)
		trigger.Value = "-PT" + formatICSMinutes(LeadTime) + "M"
		alarm.Props.Set(trigger)

		event.Children = append(event.Children, alarm)
		cal.Children = append(cal.Children, event.Component)
	}

	return cal
}

// WriteICS encodes the schedule as an iCalendar file into w.
func WriteICS(w io.Writer, s Schedule, now time.Time) error {
	if len(s) == 0 {
		return ErrNoEvents
	}
	if err := ical.NewEncoder(w).Encode(NewICS(s, now)); err != nil {
		return errors.Wrap(err, "failed to encode calendar")
	}
	return nil
}

// icsUID identifies e in exported calendars. Two groups may spawn at the
// same instant, so the group is part of it.
func icsUID(e Event) string {
	return e.Key() + "-" + strconv.Itoa(e.Group) + "@boss-reminder"
}

func formatICSMinutes(d time.Duration) string {
	return strconv.Itoa(int(d / time.Minute))
}
