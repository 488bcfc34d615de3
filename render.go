package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/hako/durafmt"
	"libdb.so/boss-reminder/reminder"
	"libdb.so/boss-reminder/schedule"
)

const (
	ansiClear  = "\033[H\033[2J"
	ansiYellow = "\033[33m"
	ansiReset  = "\033[0m"
)

// formatRow formats a countdown row as a single line.
func formatRow(row reminder.Row) string {
	return fmt.Sprintf("%s  %s  แจ้งเตือน: %s  %s",
		schedule.FormatTime(row.Event.At),
		row.Event.DisplayName(),
		schedule.FormatTime(row.Event.TriggerAt()),
		row.Countdown())
}

// renderCountdown redraws the whole countdown on a terminal.
func renderCountdown(w io.Writer, rows []reminder.Row) {
	var s strings.Builder
	s.WriteString(ansiClear)
	for _, row := range rows {
		line := formatRow(row)
		if row.Imminent {
			line = ansiYellow + line + ansiReset
		}
		s.WriteString(line)
		s.WriteByte('\n')
	}
	io.WriteString(w, s.String())
}

// writeSchedule lists the schedule with how long until each notification.
func writeSchedule(w io.Writer, sched schedule.Schedule, now time.Time) {
	if len(sched) == 0 {
		io.WriteString(w, "ยังไม่มีรายการที่กำลังรอแจ้งเตือน\n")
		return
	}
	for _, e := range sched {
		fmt.Fprintf(w, "%d. %s (%s)\n", e.Group+1, e, humanUntil(e.TriggerAt(), now))
	}
}

// humanUntil describes how long until t, e.g. "in 1 hour 9 minutes".
func humanUntil(t, now time.Time) string {
	d := t.Sub(now)
	if d <= 0 {
		return reminder.NotifiedText
	}
	return "in " + durafmt.Parse(d.Truncate(time.Second)).LimitFirstN(2).String()
}
