// Package report builds a Markdown summary of a user's reconstructed
// reading history. The server renders it to HTML; status can print it raw.
package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ItsAbdiOk/anilist-calendar/internal/history"
)

const topTitleCount = 10

// Build renders the reading report for the given events. The username is
// only used for the heading and may be empty.
func Build(events []history.Event, username string) string {
	var b strings.Builder

	heading := "# Reading Report"
	if username != "" {
		heading = fmt.Sprintf("# Reading Report for %s", username)
	}
	b.WriteString(heading + "\n\n")

	if len(events) == 0 {
		b.WriteString("No reading sessions reconstructed yet. Run `anilist-calendar export` first.\n")
		return b.String()
	}

	var chapters, completed int
	var seconds int64
	perTitle := make(map[string]*titleStats)
	perMonth := make(map[string]int)

	for _, ev := range events {
		chapters += ev.ChaptersRead
		seconds += ev.End - ev.Start
		if ev.Completed {
			completed++
		}

		ts, ok := perTitle[ev.Title]
		if !ok {
			ts = &titleStats{title: ev.Title}
			perTitle[ev.Title] = ts
		}
		ts.sessions++
		ts.chapters += ev.ChaptersRead

		month := time.Unix(ev.Start, 0).UTC().Format("January 2006")
		perMonth[month] += ev.ChaptersRead
	}

	b.WriteString(fmt.Sprintf("- **Sessions:** %d\n", len(events)))
	b.WriteString(fmt.Sprintf("- **Chapters read:** %d\n", chapters))
	b.WriteString(fmt.Sprintf("- **Time reading:** %s\n", formatDuration(seconds)))
	b.WriteString(fmt.Sprintf("- **Titles:** %d\n", len(perTitle)))
	b.WriteString(fmt.Sprintf("- **Completed:** %d\n", completed))

	if month, n := busiestMonth(perMonth); month != "" {
		b.WriteString(fmt.Sprintf("- **Busiest month:** %s (%d chapters)\n", month, n))
	}

	b.WriteString("\n## Top titles\n\n")
	b.WriteString("| Title | Sessions | Chapters |\n")
	b.WriteString("|---|---|---|\n")
	for _, ts := range topTitles(perTitle) {
		b.WriteString(fmt.Sprintf("| %s | %d | %d |\n", ts.title, ts.sessions, ts.chapters))
	}

	return b.String()
}

type titleStats struct {
	title    string
	sessions int
	chapters int
}

func topTitles(perTitle map[string]*titleStats) []*titleStats {
	sorted := make([]*titleStats, 0, len(perTitle))
	for _, ts := range perTitle {
		sorted = append(sorted, ts)
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].chapters != sorted[j].chapters {
			return sorted[i].chapters > sorted[j].chapters
		}
		return sorted[i].title < sorted[j].title
	})
	if len(sorted) > topTitleCount {
		sorted = sorted[:topTitleCount]
	}
	return sorted
}

func busiestMonth(perMonth map[string]int) (string, int) {
	var best string
	var n int
	for month, chapters := range perMonth {
		if chapters > n || (chapters == n && month < best) {
			best, n = month, chapters
		}
	}
	return best, n
}

func formatDuration(seconds int64) string {
	d := time.Duration(seconds) * time.Second
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	if hours == 0 {
		return fmt.Sprintf("%dm", minutes)
	}
	return fmt.Sprintf("%dh %dm", hours, minutes)
}
