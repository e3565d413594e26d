package history

import (
	"fmt"

	"github.com/ItsAbdiOk/anilist-calendar/internal/anilist"
)

const (
	// overlapWindow is how far (in seconds) an activity may start inside
	// the previous session and still count as part of the same fast-paced
	// run. Overlaps beyond it are treated as a gap and left untouched.
	overlapWindow = 7200

	// importJumpThreshold: a first-ever progress jump larger than this is
	// a catalog import, not a genuine binge, and counts as one session.
	importJumpThreshold = 500

	defaultMinutesPerChapter = 4
)

// Event is one reconstructed reading session. Start and End are Unix
// seconds, UTC.
type Event struct {
	ActivityID   int64
	MediaID      int64
	Title        string
	Start        int64
	End          int64
	Summary      string
	Description  string
	ChaptersRead int
	Completed    bool
}

// DurationMinutes returns the session length in whole minutes.
func (e Event) DurationMinutes() int {
	return int(e.End-e.Start) / 60
}

// Reconstructor rebuilds non-overlapping reading sessions from a user's
// activity history. It keeps the last known progress per title and a single
// "busy until" cursor marking the end of the most recent session; both are
// owned exclusively by the reconstruction pass, which is strictly
// sequential in ascending activity ID order.
type Reconstructor struct {
	minutesPerChapter int
	lastProgress      map[int64]int
	busyUntil         int64
}

// NewReconstructor creates a reconstructor using the given minutes-per-
// chapter rate. Non-positive rates fall back to the default.
func NewReconstructor(minutesPerChapter int) *Reconstructor {
	if minutesPerChapter <= 0 {
		minutesPerChapter = defaultMinutesPerChapter
	}
	return &Reconstructor{
		minutesPerChapter: minutesPerChapter,
		lastProgress:      make(map[int64]int),
	}
}

// BusyUntil returns the end timestamp of the most recently processed
// session. It advances for every activity, including ones that emit no
// event.
func (r *Reconstructor) BusyUntil() int64 {
	return r.busyUntil
}

// Reconstruct folds the activities, which must already be sorted by
// ascending ID, into an ordered list of calendar events. Activities with no
// progress that are not completions emit nothing but still advance the
// trackers. Malformed input degrades to defaults; this never fails.
func (r *Reconstructor) Reconstruct(activities []anilist.Activity) []Event {
	events := make([]Event, 0, len(activities))
	for _, act := range activities {
		if ev, ok := r.Step(act); ok {
			events = append(events, ev)
		}
	}
	return events
}

// Step processes a single activity, updating the trackers and returning the
// emitted event, if any.
func (r *Reconstructor) Step(act anilist.Activity) (Event, bool) {
	current := EndCount(act.Progress)
	previous := r.lastProgress[act.Media.ID]

	chapters := 1
	if current > previous {
		chapters = current - previous
		if previous == 0 && chapters > importJumpThreshold {
			chapters = 1
		}
	}
	if chapters < 1 {
		chapters = 1
	}

	durationSeconds := int64(chapters) * int64(r.minutesPerChapter) * 60

	// Smart time shifting: an activity stamped inside the previous
	// session, within the overlap window, belongs to the same sitting and
	// starts one second after it. Larger overlaps pass through with their
	// original timestamp, even though that can put them before the
	// cursor.
	start := act.CreatedAt
	if start < r.busyUntil && r.busyUntil-start < overlapWindow {
		start = r.busyUntil + 1
	}
	end := start + durationSeconds

	// Tracker updates happen before the emission check, so skipped
	// activities still occupy their slot on the timeline. Zero progress
	// never overwrites a known value.
	if current > 0 {
		r.lastProgress[act.Media.ID] = current
	}
	r.busyUntil = end

	title := act.Media.Title.Display()
	var summary string
	switch {
	case act.Status == anilist.StatusCompleted:
		summary = "Completed: " + title
	case current != 0:
		if chapters > 1 {
			summary = fmt.Sprintf("Read %s (Ch. %d-%d)", title, previous+1, current)
		} else {
			summary = fmt.Sprintf("Read %s Ch. %d", title, current)
		}
	default:
		return Event{}, false
	}

	return Event{
		ActivityID:   act.ID,
		MediaID:      act.Media.ID,
		Title:        title,
		Start:        start,
		End:          end,
		Summary:      summary,
		Description:  fmt.Sprintf("Read %d chapters. Duration: %d mins.", chapters, chapters*r.minutesPerChapter),
		ChaptersRead: chapters,
		Completed:    act.Status == anilist.StatusCompleted,
	}, true
}
