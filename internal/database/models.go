package database

import "github.com/ItsAbdiOk/anilist-calendar/internal/anilist"

// Activity is a cached AniList list activity. Progress keeps the raw
// textual form so range strings survive the round trip verbatim; NULL means
// the activity carried no progress.
type Activity struct {
	ID           int64
	CreatedAt    int64
	Status       string
	Progress     *string
	MediaID      int64
	TitleEnglish *string
	TitleRomaji  *string
	FetchedAt    *string
}

// ExportRun records one completed calendar export.
type ExportRun struct {
	ID            int64
	Username      string
	OutputPath    string
	ActivityCount int
	EventCount    int
	GeneratedAt   *string
}

// Stats contains aggregate cache statistics.
type Stats struct {
	TotalActivities int
	DistinctTitles  int
	Completed       int
	MaxActivityID   int64
	ExportRuns      int
}

// FromAniList converts an API activity to its cached row form.
func FromAniList(a anilist.Activity) Activity {
	row := Activity{
		ID:        a.ID,
		CreatedAt: a.CreatedAt,
		Status:    a.Status,
		MediaID:   a.Media.ID,
	}
	if raw, ok := a.Progress.Raw(); ok {
		row.Progress = &raw
	}
	if a.Media.Title.English != "" {
		row.TitleEnglish = &a.Media.Title.English
	}
	if a.Media.Title.Romaji != "" {
		row.TitleRomaji = &a.Media.Title.Romaji
	}
	return row
}

// ToAniList converts a cached row back to the API shape the reconstructor
// consumes.
func (a Activity) ToAniList() anilist.Activity {
	act := anilist.Activity{
		ID:        a.ID,
		CreatedAt: a.CreatedAt,
		Status:    a.Status,
		Progress:  anilist.ProgressFromRaw(a.Progress),
		Media: anilist.Media{
			ID:   a.MediaID,
			Type: "MANGA",
		},
	}
	if a.TitleEnglish != nil {
		act.Media.Title.English = *a.TitleEnglish
	}
	if a.TitleRomaji != nil {
		act.Media.Title.Romaji = *a.TitleRomaji
	}
	return act
}
