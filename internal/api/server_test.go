package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"abewatch/internal/config"
	"abewatch/internal/model"
)

type stubReporter struct {
	stats  model.GuildStats
	top    []model.CounterEntry
	purged int64
}

func (s *stubReporter) GuildStats(ctx context.Context, guildID int64) (model.GuildStats, error) {
	out := s.stats
	out.GuildID = guildID
	return out, nil
}

func (s *stubReporter) TopReposters(ctx context.Context, guildID int64, limit int) ([]model.CounterEntry, error) {
	if limit < len(s.top) {
		return s.top[:limit], nil
	}
	return s.top, nil
}

func (s *stubReporter) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	return s.purged, nil
}

func testServer(rep Reporter) *Server {
	return &Server{
		cfg:      config.NewStaticManager(config.DefaultConfig()),
		reporter: rep,
		version:  "test",
	}
}

func TestHandleStatus(t *testing.T) {
	srv := testServer(&stubReporter{})
	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rec := httptest.NewRecorder()
	srv.handleStatus(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status code = %d", rec.Code)
	}
	var resp statusResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "ok" || resp.Version != "test" {
		t.Fatalf("response: %+v", resp)
	}
}

func TestHandleGuildReposts(t *testing.T) {
	srv := testServer(&stubReporter{stats: model.GuildStats{Total: 7}})
	req := httptest.NewRequest(http.MethodGet, "/guilds/42/reposts", nil)
	rec := httptest.NewRecorder()
	srv.handleGuilds(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status code = %d: %s", rec.Code, rec.Body.String())
	}
	var stats model.GuildStats
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if stats.GuildID != 42 || stats.Total != 7 {
		t.Fatalf("stats: %+v", stats)
	}
}

func TestHandleGuildLeaderboard(t *testing.T) {
	srv := testServer(&stubReporter{top: []model.CounterEntry{
		{PosterID: 1, GuildID: 42, Count: 3},
		{PosterID: 2, GuildID: 42, Count: 1},
	}})
	req := httptest.NewRequest(http.MethodGet, "/guilds/42/leaderboard?limit=1", nil)
	rec := httptest.NewRecorder()
	srv.handleGuilds(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status code = %d", rec.Code)
	}
	var entries []model.CounterEntry
	if err := json.Unmarshal(rec.Body.Bytes(), &entries); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(entries) != 1 || entries[0].PosterID != 1 {
		t.Fatalf("entries: %+v", entries)
	}
}

func TestHandleGuildsBadPath(t *testing.T) {
	srv := testServer(&stubReporter{})
	for _, path := range []string{"/guilds/abc/reposts", "/guilds/42/unknown", "/guilds/42"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		srv.handleGuilds(rec, req)
		if rec.Code == http.StatusOK {
			t.Fatalf("path %q unexpectedly ok", path)
		}
	}
}

func TestHandlePurge(t *testing.T) {
	srv := testServer(&stubReporter{purged: 5})
	req := httptest.NewRequest(http.MethodPost, "/admin/purge", nil)
	rec := httptest.NewRecorder()
	srv.handlePurge(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status code = %d", rec.Code)
	}
	var resp purgeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Purged != 5 {
		t.Fatalf("purged = %d", resp.Purged)
	}
	getReq := httptest.NewRequest(http.MethodGet, "/admin/purge", nil)
	getRec := httptest.NewRecorder()
	srv.handlePurge(getRec, getReq)
	if getRec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET purge = %d", getRec.Code)
	}
}
