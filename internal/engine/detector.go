package engine

import (
	"context"
	"fmt"
	"time"

	"abewatch/internal/model"
	"abewatch/internal/storage"
)

// checkDuplicate decides whether a new posting of key is a repost.
// Expired records are purged first (lazy expiry, no background timer),
// then the surviving history for (key, scope) is consulted:
//
//   - no prior matches: not a repost
//   - the EARLIEST surviving match is by the same poster: not a
//     repost, regardless of who else posted it in between
//   - otherwise: repost, attributed to the distinct prior posters in
//     insertion order, excluding the current poster
//
// The new record is not inserted here; the caller owns that step.
func checkDuplicate(ctx context.Context, store storage.Store, key string, posterID int64, scope model.Scope, postedAt time.Time, ttl time.Duration) (model.Verdict, error) {
	if _, err := store.PurgeBefore(ctx, postedAt.Add(-ttl)); err != nil {
		return model.Verdict{}, fmt.Errorf("purge expired links: %w", err)
	}
	matches, err := store.FindLinks(ctx, key, scope)
	if err != nil {
		return model.Verdict{}, fmt.Errorf("find prior links: %w", err)
	}
	if len(matches) == 0 {
		return model.Verdict{}, nil
	}
	earliest := matches[0]
	if earliest.PosterID == posterID {
		return model.Verdict{}, nil
	}
	seen := make(map[int64]struct{}, len(matches))
	posters := make([]int64, 0, len(matches))
	for _, m := range matches {
		if m.PosterID == posterID {
			continue
		}
		if _, dup := seen[m.PosterID]; dup {
			continue
		}
		seen[m.PosterID] = struct{}{}
		posters = append(posters, m.PosterID)
	}
	return model.Verdict{
		IsRepost:   true,
		Posters:    posters,
		FirstSeen:  earliest.PostedAt,
		PriorPosts: len(matches),
	}, nil
}
