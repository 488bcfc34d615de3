package schedule

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// LineKind is the classification of a schedule line.
type LineKind int

const (
	// Candidate is a line that may hold an event.
	Candidate LineKind = iota
	// Separator is a line of dashes that closes a group.
	Separator
)

// String implements fmt.Stringer.
func (k LineKind) String() string {
	switch k {
	case Candidate:
		return "candidate"
	case Separator:
		return "separator"
	default:
		return "LineKind(" + strconv.Itoa(int(k)) + ")"
	}
}

// minSeparatorLen is the shortest run of dashes that counts as a separator.
const minSeparatorLen = 3

// Classify classifies a trimmed, non-empty line. A line made up only of
// whitespace and hyphens, at least three characters long, is a Separator.
// Anything else is a Candidate.
func Classify(line string) LineKind {
	if utf8.RuneCountInString(line) < minSeparatorLen {
		return Candidate
	}
	for _, r := range line {
		if r != '-' && !unicode.IsSpace(r) {
			return Candidate
		}
	}
	return Separator
}

// Dashes accepted between the time and the boss description: em dash
// (U+2014), en dash (U+2013) and hyphen-minus. The same set separates the
// two ends of a time range.
const dashes = `[—–-]`

// lineRe matches "DD/MM/YYYY H:MM[–H:MM] น. — description".
var lineRe = regexp.MustCompile(`^(\d{2})/(\d{2})/(\d{4})\s+(\d{1,2}):(\d{2})` +
	`(?:\s*` + dashes + `\s*\d{1,2}:\d{2})?` +
	`\s+น\.\s+` + dashes + `\s+(.+)$`)

var (
	parentheticalRe = regexp.MustCompile(`\s*(\(\d{1,2}:\d{2}\s*น\.\))\s*$`)
	levelRe         = regexp.MustCompile(`^\[(\d+)\]\s*(.+)$`)
)

// Parse parses a single candidate line into an event in local time. It
// reports false if the line does not look like an event; malformed lines
// are expected in hand-typed schedules and are not errors.
//
// The returned event has no group assigned.
func Parse(line string) (Event, bool) {
	return ParseIn(line, time.Local)
}

// ParseIn is like Parse, but interprets the date and time in loc.
func ParseIn(line string, loc *time.Location) (Event, bool) {
	m := lineRe.FindStringSubmatch(line)
	if m == nil {
		return Event{}, false
	}

	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])
	hour, _ := strconv.Atoi(m[4])
	minute, _ := strconv.Atoi(m[5])

	at := time.Date(year, time.Month(month), day, hour, minute, 0, 0, loc)
	// time.Date normalizes 31/02 into March; such a line is a typo, not an
	// event.
	if at.Day() != day || int(at.Month()) != month || at.Hour() != hour || at.Minute() != minute {
		return Event{}, false
	}

	e := Event{
		At:   at,
		Line: line,
	}
	e.Name, e.Level, e.Parenthetical = parseDescription(m[6])
	return e, true
}

// parseDescription splits the boss description into its name, level and
// display-only parenthetical time.
func parseDescription(desc string) (name, level, paren string) {
	name = strings.TrimSpace(desc)

	if m := parentheticalRe.FindStringSubmatchIndex(name); m != nil {
		paren = name[m[2]:m[3]]
		name = strings.TrimSpace(name[:m[0]])
	}

	if m := levelRe.FindStringSubmatch(name); m != nil {
		level = m[1]
		name = strings.TrimSpace(m[2])
	}

	return name, level, paren
}
