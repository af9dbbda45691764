package bot

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"abewatch/internal/model"
)

// JoinNames renders "A", "A and B", "A, B and C".
func JoinNames(names []string) string {
	switch len(names) {
	case 0:
		return ""
	case 1:
		return names[0]
	}
	return strings.Join(names[:len(names)-1], ", ") + " and " + names[len(names)-1]
}

// RenderCallout composes the repost notice, e.g.
// "(linked by A and B, first linked 5 minutes ago)".
func RenderCallout(v model.Verdict, names []string) string {
	return fmt.Sprintf("(linked by %s, first linked %s)",
		JoinNames(names), humanize.Time(v.FirstSeen))
}

// CalloutImageIndex picks which abe<N>.jpg to attach: one below the
// number of prior posts, clamped to max. Cosmetic only.
func CalloutImageIndex(priorPosts, max int) int {
	idx := priorPosts - 1
	if idx < 0 {
		idx = 0
	}
	if max > 0 && idx > max {
		idx = max
	}
	return idx
}

// RenderGuildStats backs the stats command.
func RenderGuildStats(stats model.GuildStats) string {
	if stats.Total == 0 {
		return "0 Abes to date."
	}
	return fmt.Sprintf("%d Abes to date (last one %s).",
		stats.Total, humanize.Time(stats.LastRepostAt))
}

// RenderLeaderboard backs the leaderboard command.
func RenderLeaderboard(entries []model.CounterEntry, names []string) string {
	if len(entries) == 0 {
		return "No Abes recorded yet."
	}
	var b strings.Builder
	b.WriteString("Top Abes:")
	for i, e := range entries {
		name := fmt.Sprintf("<@%d>", e.PosterID)
		if i < len(names) && names[i] != "" {
			name = names[i]
		}
		fmt.Fprintf(&b, "\n%s - %d", name, e.Count)
	}
	return b.String()
}
