package storage

import (
	"context"
	"database/sql"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"abewatch/internal/model"
)

type sqliteStore struct {
	baseStore
}

func NewSQLite(dsn string) (Store, error) {
	if strings.TrimSpace(dsn) == "" {
		dsn = "file:abewatch.db?_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// modernc sqlite serializes writers; one connection keeps the
	// insert order matching posted_at order.
	db.SetMaxOpenConns(1)
	return &sqliteStore{baseStore{db: db}}, nil
}

func (s *sqliteStore) Init(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS links (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			key TEXT NOT NULL,
			poster_id INTEGER NOT NULL,
			guild_id INTEGER NOT NULL,
			channel_id INTEGER NOT NULL,
			posted_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_links_key_scope ON links(key, guild_id, channel_id)`,
		`CREATE INDEX IF NOT EXISTS idx_links_posted_at ON links(posted_at)`,
		`CREATE TABLE IF NOT EXISTS repost_counters (
			poster_id INTEGER NOT NULL,
			guild_id INTEGER NOT NULL,
			count INTEGER NOT NULL,
			updated_at INTEGER NOT NULL,
			PRIMARY KEY (poster_id, guild_id)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *sqliteStore) InsertLink(ctx context.Context, rec model.LinkRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO links (key, poster_id, guild_id, channel_id, posted_at)
		VALUES (?, ?, ?, ?, ?)`,
		rec.Key,
		rec.PosterID,
		rec.Scope.GuildID,
		rec.Scope.ChannelID,
		rec.PostedAt.UTC().UnixNano(),
	)
	return err
}

func (s *sqliteStore) FindLinks(ctx context.Context, key string, scope model.Scope) ([]model.LinkRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key, poster_id, guild_id, channel_id, posted_at FROM links
		WHERE key = ? AND guild_id = ? AND channel_id = ?
		ORDER BY posted_at ASC, id ASC`,
		key, scope.GuildID, scope.ChannelID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.LinkRecord
	for rows.Next() {
		var rec model.LinkRecord
		var nanos int64
		if err := rows.Scan(&rec.Key, &rec.PosterID, &rec.Scope.GuildID, &rec.Scope.ChannelID, &nanos); err != nil {
			return nil, err
		}
		rec.PostedAt = time.Unix(0, nanos).UTC()
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *sqliteStore) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM links WHERE posted_at < ?`, cutoff.UTC().UnixNano())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *sqliteStore) IncrementRepost(ctx context.Context, posterID, guildID int64, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO repost_counters (poster_id, guild_id, count, updated_at)
		VALUES (?, ?, 1, ?)
		ON CONFLICT (poster_id, guild_id)
		DO UPDATE SET count = count + 1, updated_at = excluded.updated_at`,
		posterID, guildID, at.UTC().UnixNano(),
	)
	return err
}

func (s *sqliteStore) GuildStats(ctx context.Context, guildID int64) (model.GuildStats, error) {
	stats := model.GuildStats{GuildID: guildID}
	var last sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(count), 0), MAX(updated_at) FROM repost_counters WHERE guild_id = ?`,
		guildID,
	).Scan(&stats.Total, &last)
	if err != nil {
		return model.GuildStats{}, err
	}
	if last.Valid {
		stats.LastRepostAt = time.Unix(0, last.Int64).UTC()
	}
	return stats, nil
}

func (s *sqliteStore) TopReposters(ctx context.Context, guildID int64, limit int) ([]model.CounterEntry, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT poster_id, guild_id, count FROM repost_counters
		WHERE guild_id = ?
		ORDER BY count DESC, poster_id ASC
		LIMIT ?`,
		guildID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.CounterEntry
	for rows.Next() {
		var e model.CounterEntry
		if err := rows.Scan(&e.PosterID, &e.GuildID, &e.Count); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
