package anilist

import (
	"encoding/json"
	"strconv"
	"strings"
)

// StatusCompleted is the list activity status AniList reports when a user
// marks a title as finished.
const StatusCompleted = "COMPLETED"

// ProgressKind discriminates the shapes the raw progress field takes.
type ProgressKind int

const (
	// ProgressAbsent means the activity carried no progress value.
	ProgressAbsent ProgressKind = iota
	// ProgressCount is an absolute chapter count.
	ProgressCount
	// ProgressText is the textual form, usually an inclusive range
	// such as "111 - 121".
	ProgressText
)

// Progress is the raw progress field of a list activity. AniList returns a
// number for single-chapter updates, a range string for batched updates,
// and null when the activity has no progress attached.
type Progress struct {
	Kind  ProgressKind
	Count int
	Text  string
}

// UnmarshalJSON accepts null, numbers, and strings. Any other shape decodes
// as absent; this method never returns an error.
func (p *Progress) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		*p = Progress{}
		return nil
	}
	switch val := v.(type) {
	case float64:
		*p = Progress{Kind: ProgressCount, Count: int(val)}
	case string:
		*p = Progress{Kind: ProgressText, Text: val}
	default:
		*p = Progress{}
	}
	return nil
}

// Raw returns the textual form used by the activity cache, or false when
// the progress is absent.
func (p Progress) Raw() (string, bool) {
	switch p.Kind {
	case ProgressCount:
		return strconv.Itoa(p.Count), true
	case ProgressText:
		return p.Text, true
	}
	return "", false
}

// ProgressFromRaw rebuilds a Progress from its cached text form.
func ProgressFromRaw(s *string) Progress {
	if s == nil {
		return Progress{}
	}
	if n, err := strconv.Atoi(strings.TrimSpace(*s)); err == nil {
		return Progress{Kind: ProgressCount, Count: n}
	}
	return Progress{Kind: ProgressText, Text: *s}
}

// Activity is one recorded progress update from a user's history feed.
type Activity struct {
	ID        int64
	CreatedAt int64
	Status    string
	Progress  Progress
	Media     Media
}

// Media identifies the title an activity belongs to.
type Media struct {
	ID    int64
	Title MediaTitle
	Type  string
}

// MediaTitle holds the optional name variants of a title.
type MediaTitle struct {
	English string
	Romaji  string
}

// Display resolves the preferred display name: English first, then romaji,
// then a placeholder when neither is set.
func (t MediaTitle) Display() string {
	if t.English != "" {
		return t.English
	}
	if t.Romaji != "" {
		return t.Romaji
	}
	return "Unknown Title"
}
