package schedule

import (
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		line   string
		expect LineKind
	}{
		{"---", Separator},
		{"-----", Separator},
		{"- - -", Separator},
		{"--", Candidate},
		{"-", Candidate},
		{"--- a", Candidate},
		{"13/01/2026 08:14 น. — [60] เวนาตัส", Candidate},
		{"———", Candidate},
	}

	for _, test := range tests {
		t.Run(test.line, func(t *testing.T) {
			assert.Equal(t, test.expect, Classify(test.line))
		})
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name   string
		line   string
		expect Event
	}{
		{
			name: "level",
			line: "13/01/2026 08:14 น. — [60] เวนาตัส",
			expect: Event{
				At:    time.Date(2026, time.January, 13, 8, 14, 0, 0, bangkok),
				Name:  "เวนาตัส",
				Level: "60",
			},
		},
		{
			name: "parenthetical",
			line: "13/01/2026 12:29 น. — [75] อาราเนโอ(12:27 น.)",
			expect: Event{
				At:            time.Date(2026, time.January, 13, 12, 29, 0, 0, bangkok),
				Name:          "อาราเนโอ",
				Level:         "75",
				Parenthetical: "(12:27 น.)",
			},
		},
		{
			name: "range",
			line: "13/01/2026 19:30–20:30 น. — Arena 5 vs 5",
			expect: Event{
				At:   time.Date(2026, time.January, 13, 19, 30, 0, 0, bangkok),
				Name: "Arena 5 vs 5",
			},
		},
		{
			name: "spaced_range",
			line: "13/01/2026 19:30 - 20:30 น. - Arena 5 vs 5",
			expect: Event{
				At:   time.Date(2026, time.January, 13, 19, 30, 0, 0, bangkok),
				Name: "Arena 5 vs 5",
			},
		},
		{
			name: "en_dash",
			line: "14/01/2026 9:05 น. – [80] ลิวโดร์ (16:51 น.)",
			expect: Event{
				At:            time.Date(2026, time.January, 14, 9, 5, 0, 0, bangkok),
				Name:          "ลิวโดร์",
				Level:         "80",
				Parenthetical: "(16:51 น.)",
			},
		},
		{
			name: "hyphen",
			line: "14/01/2026 23:59 น. - World Boss",
			expect: Event{
				At:   time.Date(2026, time.January, 14, 23, 59, 0, 0, bangkok),
				Name: "World Boss",
			},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			e, ok := ParseIn(test.line, bangkok)
			assert.True(t, ok)

			test.expect.Line = test.line
			assert.Equal(t, test.expect, e)
		})
	}
}

func TestParse_noMatch(t *testing.T) {
	lines := []string{
		"",
		"hello",
		"ตารางบอสวันนี้",
		"13/01/2026 08:14 — เวนาตัส",    // missing น.
		"13/01/2026 08:14 น. เวนาตัส",   // missing dash
		"1/01/2026 08:14 น. — เวนาตัส",  // one-digit day
		"13/01/26 08:14 น. — เวนาตัส",   // two-digit year
		"13/01/2026 08:14 น. — ",        // no description
		"31/02/2026 08:14 น. — เวนาตัส", // no such day
		"13/13/2026 08:14 น. — เวนาตัส", // no such month
		"13/01/2026 25:00 น. — เวนาตัส", // no such hour
		"13/01/2026 08:61 น. — เวนาตัส", // no such minute
	}

	for _, line := range lines {
		t.Run(line, func(t *testing.T) {
			_, ok := ParseIn(line, bangkok)
			assert.False(t, ok)
		})
	}
}

func TestParse_roundTrip(t *testing.T) {
	lines := []string{
		"13/01/2026 08:14",
		"01/12/2027 00:00",
		"29/02/2028 23:59",
		"31/12/2026 12:30",
	}

	for _, when := range lines {
		t.Run(when, func(t *testing.T) {
			e, ok := ParseIn(when+" น. — [1] บอส", bangkok)
			assert.True(t, ok)
			assert.Equal(t, when+" น.", FormatTime(e.At))
		})
	}
}

func TestParse_parentheticalIgnoredForTime(t *testing.T) {
	e, ok := ParseIn("13/01/2026 12:29 น. — [75] อาราเนโอ(12:27 น.)", bangkok)
	assert.True(t, ok)

	assert.Equal(t, 12, e.At.Hour())
	assert.Equal(t, 29, e.At.Minute())
	assert.Equal(t, time.Date(2026, time.January, 13, 12, 24, 0, 0, bangkok), e.TriggerAt())
}

func TestEvent_display(t *testing.T) {
	e, ok := ParseIn("13/01/2026 12:29 น. — [75] อาราเนโอ(12:27 น.)", bangkok)
	assert.True(t, ok)

	assert.Equal(t, "อาราเนโอ (12:27 น.) [75]", e.DisplayName())
	assert.Equal(t, "13/01/2026 12:29 น. — อาราเนโอ (12:27 น.) [75]", e.String())
	assert.Equal(t, "boss-1768281840000", e.Key())
}
