package ics

import (
	"bytes"
	"strings"
	"testing"

	"github.com/ItsAbdiOk/anilist-calendar/internal/history"
)

func TestBuildEmpty(t *testing.T) {
	want := "BEGIN:VCALENDAR\n" +
		"VERSION:2.0\n" +
		"PRODID:-//AniList History Export//EN\n" +
		"CALSCALE:GREGORIAN\n" +
		"METHOD:PUBLISH\n" +
		"END:VCALENDAR"
	if got := Build(nil); got != want {
		t.Errorf("empty calendar mismatch:\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestBuildEvent(t *testing.T) {
	events := []history.Event{
		{
			ActivityID:  987654,
			Start:       1700000000, // 2023-11-14 22:13:20 UTC
			End:         1700000960,
			Summary:     "Read Dungeon Reset (Ch. 11-14)",
			Description: "Read 4 chapters. Duration: 16 mins.",
		},
	}

	want := strings.Join([]string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//AniList History Export//EN",
		"CALSCALE:GREGORIAN",
		"METHOD:PUBLISH",
		"BEGIN:VEVENT",
		"UID:anilist-987654@anilist.co",
		"DTSTAMP:20231114T221320Z",
		"DTSTART:20231114T221320Z",
		"DTEND:20231114T222920Z",
		"SUMMARY:Read Dungeon Reset (Ch. 11-14)",
		"DESCRIPTION:Read 4 chapters. Duration: 16 mins.",
		"END:VEVENT",
		"END:VCALENDAR",
	}, "\n")

	if got := Build(events); got != want {
		t.Errorf("calendar mismatch:\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestBuildPreservesEventOrder(t *testing.T) {
	// Emission order is the contract even when start times are
	// non-monotonic (large-overlap pass-through).
	events := []history.Event{
		{ActivityID: 1, Start: 2000, End: 2240, Summary: "a", Description: "d"},
		{ActivityID: 2, Start: 1000, End: 1240, Summary: "b", Description: "d"},
	}

	got := Build(events)
	first := strings.Index(got, "UID:anilist-1@anilist.co")
	second := strings.Index(got, "UID:anilist-2@anilist.co")
	if first == -1 || second == -1 || first > second {
		t.Errorf("events out of order:\n%s", got)
	}
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "BEGIN:VCALENDAR") {
		t.Errorf("unexpected output: %q", buf.String())
	}
}
