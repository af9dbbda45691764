package storage

import (
	"context"
	"testing"
	"time"

	"abewatch/internal/model"
)

var testScope = model.Scope{GuildID: 100, ChannelID: 200}

func testStores(t *testing.T) map[string]Store {
	t.Helper()
	sqlite, err := NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	return map[string]Store{
		"memory": NewMemory(),
		"sqlite": sqlite,
	}
}

func TestFindLinksOrderAndScope(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			defer store.Close()
			if err := store.Init(ctx); err != nil {
				t.Fatalf("init: %v", err)
			}
			recs := []model.LinkRecord{
				{Key: "tw/1", PosterID: 1, Scope: testScope, PostedAt: base},
				{Key: "tw/1", PosterID: 2, Scope: testScope, PostedAt: base.Add(time.Minute)},
				{Key: "tw/1", PosterID: 1, Scope: testScope, PostedAt: base.Add(2 * time.Minute)},
				{Key: "tw/2", PosterID: 3, Scope: testScope, PostedAt: base},
				{Key: "tw/1", PosterID: 4, Scope: model.Scope{GuildID: 100, ChannelID: 201}, PostedAt: base},
			}
			for _, rec := range recs {
				if err := store.InsertLink(ctx, rec); err != nil {
					t.Fatalf("insert: %v", err)
				}
			}
			got, err := store.FindLinks(ctx, "tw/1", testScope)
			if err != nil {
				t.Fatalf("find: %v", err)
			}
			if len(got) != 3 {
				t.Fatalf("want 3 records, got %d", len(got))
			}
			for i, want := range []int64{1, 2, 1} {
				if got[i].PosterID != want {
					t.Fatalf("record %d poster = %d, want %d", i, got[i].PosterID, want)
				}
			}
			if !got[0].PostedAt.Equal(base) {
				t.Fatalf("earliest posted_at = %v", got[0].PostedAt)
			}
		})
	}
}

func TestPurgeBefore(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			defer store.Close()
			if err := store.Init(ctx); err != nil {
				t.Fatalf("init: %v", err)
			}
			old := model.LinkRecord{Key: "k", PosterID: 1, Scope: testScope, PostedAt: base}
			fresh := model.LinkRecord{Key: "k", PosterID: 2, Scope: testScope, PostedAt: base.Add(time.Hour)}
			if err := store.InsertLink(ctx, old); err != nil {
				t.Fatalf("insert: %v", err)
			}
			if err := store.InsertLink(ctx, fresh); err != nil {
				t.Fatalf("insert: %v", err)
			}
			purged, err := store.PurgeBefore(ctx, base.Add(time.Minute))
			if err != nil {
				t.Fatalf("purge: %v", err)
			}
			if purged != 1 {
				t.Fatalf("purged = %d, want 1", purged)
			}
			got, err := store.FindLinks(ctx, "k", testScope)
			if err != nil {
				t.Fatalf("find: %v", err)
			}
			if len(got) != 1 || got[0].PosterID != 2 {
				t.Fatalf("unexpected survivors: %+v", got)
			}
			// Nothing expired: purge is a no-op.
			if purged, err = store.PurgeBefore(ctx, base.Add(time.Minute)); err != nil || purged != 0 {
				t.Fatalf("second purge = %d, %v", purged, err)
			}
		})
	}
}

func TestRepostCounters(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			defer store.Close()
			if err := store.Init(ctx); err != nil {
				t.Fatalf("init: %v", err)
			}
			stats, err := store.GuildStats(ctx, 100)
			if err != nil {
				t.Fatalf("stats: %v", err)
			}
			if stats.Total != 0 {
				t.Fatalf("empty guild total = %d", stats.Total)
			}
			for i := 0; i < 3; i++ {
				if err := store.IncrementRepost(ctx, 7, 100, now.Add(time.Duration(i)*time.Minute)); err != nil {
					t.Fatalf("increment: %v", err)
				}
			}
			if err := store.IncrementRepost(ctx, 8, 100, now.Add(10*time.Minute)); err != nil {
				t.Fatalf("increment: %v", err)
			}
			if err := store.IncrementRepost(ctx, 9, 999, now); err != nil {
				t.Fatalf("increment: %v", err)
			}
			stats, err = store.GuildStats(ctx, 100)
			if err != nil {
				t.Fatalf("stats: %v", err)
			}
			if stats.Total != 4 {
				t.Fatalf("guild total = %d, want 4", stats.Total)
			}
			if !stats.LastRepostAt.Equal(now.Add(10 * time.Minute)) {
				t.Fatalf("last repost at = %v", stats.LastRepostAt)
			}
			top, err := store.TopReposters(ctx, 100, 10)
			if err != nil {
				t.Fatalf("top: %v", err)
			}
			if len(top) != 2 || top[0].PosterID != 7 || top[0].Count != 3 || top[1].PosterID != 8 {
				t.Fatalf("leaderboard: %+v", top)
			}
		})
	}
}
