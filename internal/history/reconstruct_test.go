package history

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ItsAbdiOk/anilist-calendar/internal/anilist"
)

func count(n int) anilist.Progress {
	return anilist.Progress{Kind: anilist.ProgressCount, Count: n}
}

func activity(id, createdAt int64, progress anilist.Progress, status string, mediaID int64) anilist.Activity {
	return anilist.Activity{
		ID:        id,
		CreatedAt: createdAt,
		Status:    status,
		Progress:  progress,
		Media: anilist.Media{
			ID:    mediaID,
			Title: anilist.MediaTitle{English: "Dungeon Reset"},
			Type:  "MANGA",
		},
	}
}

func TestReconstructTwoSessionShift(t *testing.T) {
	rec := NewReconstructor(4)
	events := rec.Reconstruct([]anilist.Activity{
		activity(1, 1000, count(10), "CURRENT", 7),
		activity(2, 1010, count(25), "CURRENT", 7),
	})

	assert.Len(t, events, 2)

	// First session: 10 chapters at 4 min each.
	assert.Equal(t, int64(1000), events[0].Start)
	assert.Equal(t, int64(3400), events[0].End)
	assert.Equal(t, 10, events[0].ChaptersRead)
	assert.Equal(t, "Read Dungeon Reset (Ch. 1-10)", events[0].Summary)

	// Second session overlaps within two hours, so it shifts to one
	// second after the first ends.
	assert.Equal(t, int64(3401), events[1].Start)
	assert.Equal(t, int64(7001), events[1].End)
	assert.Equal(t, 15, events[1].ChaptersRead)
	assert.Equal(t, "Read Dungeon Reset (Ch. 11-25)", events[1].Summary)
	assert.Equal(t, "Read 15 chapters. Duration: 60 mins.", events[1].Description)

	assert.Equal(t, int64(7001), rec.BusyUntil())
}

func TestReconstructSingleChapterSummary(t *testing.T) {
	rec := NewReconstructor(4)
	rec.Step(activity(1, 1000, count(4), "CURRENT", 7))
	ev, ok := rec.Step(activity(2, 50000, count(5), "CURRENT", 7))

	assert.True(t, ok)
	assert.Equal(t, 1, ev.ChaptersRead)
	assert.Equal(t, "Read Dungeon Reset Ch. 5", ev.Summary)
	assert.Equal(t, "Read 1 chapters. Duration: 4 mins.", ev.Description)
}

func TestReconstructRereadFloor(t *testing.T) {
	rec := NewReconstructor(4)
	rec.Step(activity(1, 1000, count(20), "CURRENT", 7))

	// Same progress again is a re-read, one chapter.
	ev, ok := rec.Step(activity(2, 50000, count(20), "CURRENT", 7))
	assert.True(t, ok)
	assert.Equal(t, 1, ev.ChaptersRead)
	assert.Equal(t, "Read Dungeon Reset Ch. 20", ev.Summary)
}

func TestReconstructProgressDecrease(t *testing.T) {
	// Upstream data corrections can move progress backwards. There is no
	// monotonicity enforcement; a decrease just reads as one chapter.
	rec := NewReconstructor(4)
	rec.Step(activity(1, 1000, count(50), "CURRENT", 7))
	ev, ok := rec.Step(activity(2, 50000, count(30), "CURRENT", 7))

	assert.True(t, ok)
	assert.Equal(t, 1, ev.ChaptersRead)
	assert.Equal(t, "Read Dungeon Reset Ch. 30", ev.Summary)
}

func TestReconstructImportNoiseCorrection(t *testing.T) {
	// A first-ever jump of more than 500 chapters is a catalog import,
	// not a binge, and collapses to one session.
	rec := NewReconstructor(4)
	ev, ok := rec.Step(activity(1, 1000, count(600), "CURRENT", 7))

	assert.True(t, ok)
	assert.Equal(t, 1, ev.ChaptersRead)
	assert.Equal(t, int64(1000+240), ev.End)
	// Corrected to one chapter, so the summary takes the single form.
	assert.Equal(t, "Read Dungeon Reset Ch. 600", ev.Summary)
}

func TestReconstructImportNoiseBoundary(t *testing.T) {
	// Exactly 500 chapters from zero is still a believable binge.
	rec := NewReconstructor(4)
	ev, ok := rec.Step(activity(1, 1000, count(500), "CURRENT", 7))

	assert.True(t, ok)
	assert.Equal(t, 500, ev.ChaptersRead)
}

func TestReconstructImportNoiseOnlyFromZero(t *testing.T) {
	// Big jumps on an already-tracked title are counted in full.
	rec := NewReconstructor(4)
	rec.Step(activity(1, 1000, count(1), "CURRENT", 7))
	ev, ok := rec.Step(activity(2, 500000, count(700), "CURRENT", 7))

	assert.True(t, ok)
	assert.Equal(t, 699, ev.ChaptersRead)
}

func TestReconstructCompletedSummary(t *testing.T) {
	rec := NewReconstructor(4)
	ev, ok := rec.Step(activity(1, 1000, anilist.Progress{}, "COMPLETED", 7))

	assert.True(t, ok)
	assert.True(t, ev.Completed)
	assert.Equal(t, "Completed: Dungeon Reset", ev.Summary)
	assert.Equal(t, 1, ev.ChaptersRead)
}

func TestReconstructSkipStillAdvancesCursor(t *testing.T) {
	rec := NewReconstructor(4)
	_, ok := rec.Step(activity(1, 1000, anilist.Progress{}, "CURRENT", 7))

	// No event, but the timeline slot is still occupied: one chapter
	// starting at the activity timestamp.
	assert.False(t, ok)
	assert.Equal(t, int64(1240), rec.BusyUntil())

	// And a following overlap shifts off that invisible session.
	ev, ok := rec.Step(activity(2, 1005, count(3), "CURRENT", 7))
	assert.True(t, ok)
	assert.Equal(t, int64(1241), ev.Start)
}

func TestReconstructZeroProgressKeepsLastKnown(t *testing.T) {
	rec := NewReconstructor(4)
	rec.Step(activity(1, 1000, count(10), "CURRENT", 7))

	// Malformed progress resolves to zero and must not clobber the
	// tracked value.
	rec.Step(activity(2, 50000, anilist.Progress{Kind: anilist.ProgressText, Text: "abc"}, "CURRENT", 7))

	ev, ok := rec.Step(activity(3, 100000, count(12), "CURRENT", 7))
	assert.True(t, ok)
	assert.Equal(t, 2, ev.ChaptersRead)
	assert.Equal(t, "Read Dungeon Reset (Ch. 11-12)", ev.Summary)
}

func TestReconstructLargeOverlapPassesThrough(t *testing.T) {
	// Known quirk kept from the original tool: when an activity is
	// stamped more than two hours inside the previous session, its
	// timestamp is used unmodified, so the emitted sequence can be
	// non-monotonic in start time.
	rec := NewReconstructor(4)
	events := rec.Reconstruct([]anilist.Activity{
		activity(1, 100000, count(10), "CURRENT", 7),
		activity(2, 90000, count(11), "CURRENT", 7),
	})

	assert.Len(t, events, 2)
	assert.Equal(t, int64(102400), events[0].End)
	assert.Equal(t, int64(90000), events[1].Start)
	assert.Less(t, events[1].Start, events[0].End)
	// The cursor still tracks the second event's end.
	assert.Equal(t, events[1].End, rec.BusyUntil())
}

func TestReconstructTitleFallbacks(t *testing.T) {
	rec := NewReconstructor(4)

	romajiOnly := activity(1, 1000, count(1), "CURRENT", 1)
	romajiOnly.Media.Title = anilist.MediaTitle{Romaji: "Danjon Risetto"}
	ev, _ := rec.Step(romajiOnly)
	assert.Equal(t, "Read Danjon Risetto Ch. 1", ev.Summary)

	unnamed := activity(2, 50000, count(1), "CURRENT", 2)
	unnamed.Media.Title = anilist.MediaTitle{}
	ev, _ = rec.Step(unnamed)
	assert.Equal(t, "Read Unknown Title Ch. 1", ev.Summary)
}

func TestReconstructPerTitleStateIsIndependent(t *testing.T) {
	rec := NewReconstructor(4)
	rec.Step(activity(1, 1000, count(40), "CURRENT", 7))

	other := activity(2, 500000, count(5), "CURRENT", 8)
	other.Media.Title = anilist.MediaTitle{English: "Another Title"}
	ev, ok := rec.Step(other)

	assert.True(t, ok)
	assert.Equal(t, 5, ev.ChaptersRead)
	assert.Equal(t, "Read Another Title (Ch. 1-5)", ev.Summary)
}

func TestReconstructRangeTextProgress(t *testing.T) {
	rec := NewReconstructor(4)
	rec.Step(activity(1, 1000, count(110), "CURRENT", 7))

	ranged := activity(2, 500000, anilist.Progress{Kind: anilist.ProgressText, Text: "111 - 121"}, "CURRENT", 7)
	ev, ok := rec.Step(ranged)

	assert.True(t, ok)
	assert.Equal(t, 11, ev.ChaptersRead)
	assert.Equal(t, "Read Dungeon Reset (Ch. 111-121)", ev.Summary)
}

func TestReconstructDefaultRate(t *testing.T) {
	rec := NewReconstructor(0)
	ev, _ := rec.Step(activity(1, 1000, count(1), "CURRENT", 7))
	assert.Equal(t, int64(1240), ev.End)
}
