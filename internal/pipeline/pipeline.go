package pipeline

import (
	"context"
	"fmt"
	"log"

	"github.com/ItsAbdiOk/anilist-calendar/internal/anilist"
	"github.com/ItsAbdiOk/anilist-calendar/internal/config"
	"github.com/ItsAbdiOk/anilist-calendar/internal/database"
	"github.com/ItsAbdiOk/anilist-calendar/internal/history"
	"github.com/ItsAbdiOk/anilist-calendar/internal/ics"
)

// StepResult holds the result of a single pipeline step.
type StepResult struct {
	Name    string
	Summary string
	Err     error
}

// Result holds the results of a full export run.
type Result struct {
	Steps      []StepResult
	Events     []history.Event
	OutputPath string
}

// Options parameterize a run. Zero values fall back to the config.
type Options struct {
	Username          string
	OutputPath        string
	MinutesPerChapter int
	// Offline skips the fetch step and exports from the cache alone.
	Offline bool
	// Full refetches the whole history instead of stopping at the
	// highest cached activity ID.
	Full bool
}

// Pipeline orchestrates the fetch -> reconstruct -> write export.
type Pipeline struct {
	cfg    *config.Config
	db     *database.DB
	client *anilist.Client
}

// New creates a pipeline.
func New(cfg *config.Config, db *database.DB) *Pipeline {
	return &Pipeline{
		cfg:    cfg,
		db:     db,
		client: anilist.NewClient(cfg.AniList.APIURL),
	}
}

func (o *Options) applyDefaults(cfg *config.Config) {
	if o.Username == "" {
		o.Username = cfg.AniList.Username
	}
	if o.OutputPath == "" {
		o.OutputPath = cfg.Export.OutputPath
	}
	if o.MinutesPerChapter <= 0 {
		o.MinutesPerChapter = cfg.Export.MinutesPerChapter
	}
}

// Run executes the full export pipeline.
func (p *Pipeline) Run(ctx context.Context, opts Options) *Result {
	opts.applyDefaults(p.cfg)
	r := &Result{OutputPath: opts.OutputPath}

	if !opts.Offline {
		step := p.Fetch(ctx, opts.Username, opts.Full)
		r.Steps = append(r.Steps, step)
		if step.Err != nil {
			return r
		}
	}

	step := p.reconstruct(opts.MinutesPerChapter, r)
	r.Steps = append(r.Steps, step)
	if step.Err != nil {
		return r
	}

	r.Steps = append(r.Steps, p.write(opts, r))
	return r
}

// Fetch pulls the user's manga activities from AniList into the cache.
func (p *Pipeline) Fetch(ctx context.Context, username string, full bool) StepResult {
	log.Println("Step 1/3: Fetching activity history...")

	if username == "" {
		return StepResult{Name: "Fetch", Err: fmt.Errorf("no username configured; set anilist.username or pass --username")}
	}

	userID, err := p.client.UserID(ctx, username)
	if err != nil {
		return StepResult{Name: "Fetch", Err: err}
	}
	log.Printf("Fetching history for user ID %d...", userID)

	var sinceID int64
	if !full {
		sinceID, err = p.db.MaxActivityID()
		if err != nil {
			return StepResult{Name: "Fetch", Err: err}
		}
	}

	activities := p.client.Activities(ctx, userID, sinceID)

	var inserted, duplicates int
	for _, act := range activities {
		ok, err := p.db.InsertActivity(database.FromAniList(act))
		if err != nil {
			return StepResult{Name: "Fetch", Err: fmt.Errorf("caching activity %d: %w", act.ID, err)}
		}
		if ok {
			inserted++
		} else {
			duplicates++
		}
	}

	return StepResult{
		Name:    "Fetch",
		Summary: fmt.Sprintf("Fetched %d activities (%d new, %d already cached)", len(activities), inserted, duplicates),
	}
}

func (p *Pipeline) reconstruct(minutesPerChapter int, r *Result) StepResult {
	log.Println("Step 2/3: Reconstructing reading sessions...")

	rows, err := p.db.Activities()
	if err != nil {
		return StepResult{Name: "Reconstruct", Err: err}
	}

	activities := make([]anilist.Activity, len(rows))
	for i, row := range rows {
		activities[i] = row.ToAniList()
	}

	rec := history.NewReconstructor(minutesPerChapter)
	r.Events = rec.Reconstruct(activities)

	return StepResult{
		Name:    "Reconstruct",
		Summary: fmt.Sprintf("Reconstructed %d sessions from %d activities", len(r.Events), len(activities)),
	}
}

func (p *Pipeline) write(opts Options, r *Result) StepResult {
	log.Println("Step 3/3: Writing calendar...")

	if err := ics.WriteFile(opts.OutputPath, r.Events); err != nil {
		return StepResult{Name: "Write", Err: err}
	}

	stats, err := p.db.GetStats()
	if err != nil {
		return StepResult{Name: "Write", Err: err}
	}
	if err := p.db.InsertExportRun(opts.Username, opts.OutputPath, stats.TotalActivities, len(r.Events)); err != nil {
		return StepResult{Name: "Write", Err: err}
	}

	return StepResult{
		Name:    "Write",
		Summary: fmt.Sprintf("Wrote %d events to %s", len(r.Events), opts.OutputPath),
	}
}
