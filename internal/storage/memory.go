package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"abewatch/internal/model"
)

type counterKey struct {
	posterID int64
	guildID  int64
}

type counterVal struct {
	count     int64
	updatedAt time.Time
}

// memoryStore keeps the history and counters in process. It is the
// default backend and the one the engine tests run against.
type memoryStore struct {
	mu       sync.Mutex
	links    []model.LinkRecord
	counters map[counterKey]counterVal
}

func NewMemory() Store {
	return &memoryStore{counters: make(map[counterKey]counterVal)}
}

func (s *memoryStore) Init(ctx context.Context) error { return nil }
func (s *memoryStore) Close() error                   { return nil }

func (s *memoryStore) InsertLink(ctx context.Context, rec model.LinkRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.links = append(s.links, rec)
	return nil
}

func (s *memoryStore) FindLinks(ctx context.Context, key string, scope model.Scope) ([]model.LinkRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.LinkRecord
	for _, rec := range s.links {
		if rec.Key == key && rec.Scope == scope {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *memoryStore) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.links[:0]
	var purged int64
	for _, rec := range s.links {
		if rec.PostedAt.Before(cutoff) {
			purged++
			continue
		}
		kept = append(kept, rec)
	}
	s.links = kept
	return purged, nil
}

func (s *memoryStore) IncrementRepost(ctx context.Context, posterID, guildID int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := counterKey{posterID: posterID, guildID: guildID}
	v := s.counters[k]
	v.count++
	v.updatedAt = at
	s.counters[k] = v
	return nil
}

func (s *memoryStore) GuildStats(ctx context.Context, guildID int64) (model.GuildStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := model.GuildStats{GuildID: guildID}
	for k, v := range s.counters {
		if k.guildID != guildID {
			continue
		}
		stats.Total += v.count
		if v.updatedAt.After(stats.LastRepostAt) {
			stats.LastRepostAt = v.updatedAt
		}
	}
	return stats, nil
}

func (s *memoryStore) TopReposters(ctx context.Context, guildID int64, limit int) ([]model.CounterEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.CounterEntry
	for k, v := range s.counters {
		if k.guildID != guildID {
			continue
		}
		out = append(out, model.CounterEntry{PosterID: k.posterID, GuildID: guildID, Count: v.count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].PosterID < out[j].PosterID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
