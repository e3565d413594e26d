// Package ics serializes reconstructed reading sessions into an iCalendar
// file. The output matches what calendar consumers were already importing,
// so the field layout and line order must not change.
package ics

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ItsAbdiOk/anilist-calendar/internal/history"
)

const timeLayout = "20060102T150405Z"

var calendarHeader = []string{
	"BEGIN:VCALENDAR",
	"VERSION:2.0",
	"PRODID:-//AniList History Export//EN",
	"CALSCALE:GREGORIAN",
	"METHOD:PUBLISH",
}

// Build renders the full calendar as a string. Events are written in the
// order given; the reconstruction order is the contract, no re-sorting.
func Build(events []history.Event) string {
	lines := make([]string, 0, len(calendarHeader)+len(events)*8+1)
	lines = append(lines, calendarHeader...)

	for _, ev := range events {
		dtStart := formatTime(ev.Start)
		lines = append(lines,
			"BEGIN:VEVENT",
			fmt.Sprintf("UID:anilist-%d@anilist.co", ev.ActivityID),
			"DTSTAMP:"+dtStart,
			"DTSTART:"+dtStart,
			"DTEND:"+formatTime(ev.End),
			"SUMMARY:"+ev.Summary,
			"DESCRIPTION:"+ev.Description,
			"END:VEVENT",
		)
	}

	lines = append(lines, "END:VCALENDAR")
	return strings.Join(lines, "\n")
}

// Write writes the calendar to w.
func Write(w io.Writer, events []history.Event) error {
	_, err := io.WriteString(w, Build(events))
	return err
}

// WriteFile writes the calendar to the given path.
func WriteFile(path string, events []history.Event) error {
	if err := os.WriteFile(path, []byte(Build(events)), 0o644); err != nil {
		return fmt.Errorf("writing calendar: %w", err)
	}
	return nil
}

// formatTime renders a Unix timestamp in UTC regardless of local timezone.
func formatTime(ts int64) string {
	return time.Unix(ts, 0).UTC().Format(timeLayout)
}
