package history

import (
	"strconv"
	"strings"

	"github.com/ItsAbdiOk/anilist-calendar/internal/anilist"
)

// EndCount normalizes a raw progress value into the final chapter count it
// represents. Range text like "111 - 121" resolves to the end of the range.
// Anything absent or unparseable resolves to 0; this never fails.
func EndCount(p anilist.Progress) int {
	switch p.Kind {
	case anilist.ProgressCount:
		return p.Count
	case anilist.ProgressText:
		s := strings.TrimSpace(p.Text)
		if strings.Contains(s, "-") {
			parts := strings.Split(s, "-")
			n, err := strconv.Atoi(strings.TrimSpace(parts[len(parts)-1]))
			if err != nil {
				return 0
			}
			return n
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}
