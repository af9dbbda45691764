package storage

import (
	"context"
	"database/sql"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"abewatch/internal/model"
)

type postgresStore struct {
	baseStore
}

func NewPostgres(dsn string) (Store, error) {
	if strings.TrimSpace(dsn) == "" {
		dsn = "postgres://localhost:5432/abewatch?sslmode=disable"
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	return &postgresStore{baseStore{db: db}}, nil
}

func (s *postgresStore) Init(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS links (
			id BIGSERIAL PRIMARY KEY,
			key TEXT NOT NULL,
			poster_id BIGINT NOT NULL,
			guild_id BIGINT NOT NULL,
			channel_id BIGINT NOT NULL,
			posted_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_links_key_scope ON links(key, guild_id, channel_id)`,
		`CREATE INDEX IF NOT EXISTS idx_links_posted_at ON links(posted_at)`,
		`CREATE TABLE IF NOT EXISTS repost_counters (
			poster_id BIGINT NOT NULL,
			guild_id BIGINT NOT NULL,
			count BIGINT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL,
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

func (s *postgresStore) InsertLink(ctx context.Context, rec model.LinkRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO links (key, poster_id, guild_id, channel_id, posted_at)
		VALUES ($1, $2, $3, $4, $5)`,
		rec.Key,
		rec.PosterID,
		rec.Scope.GuildID,
		rec.Scope.ChannelID,
		rec.PostedAt.UTC(),
	)
	return err
}

func (s *postgresStore) FindLinks(ctx context.Context, key string, scope model.Scope) ([]model.LinkRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key, poster_id, guild_id, channel_id, posted_at FROM links
		WHERE key = $1 AND guild_id = $2 AND channel_id = $3
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
		var ts time.Time
		if err := rows.Scan(&rec.Key, &rec.PosterID, &rec.Scope.GuildID, &rec.Scope.ChannelID, &ts); err != nil {
			return nil, err
		}
		rec.PostedAt = ts.UTC()
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *postgresStore) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM links WHERE posted_at < $1`, cutoff.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *postgresStore) IncrementRepost(ctx context.Context, posterID, guildID int64, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO repost_counters (poster_id, guild_id, count, updated_at)
		VALUES ($1, $2, 1, $3)
		ON CONFLICT (poster_id, guild_id)
		DO UPDATE SET count = repost_counters.count + 1, updated_at = EXCLUDED.updated_at`,
		posterID, guildID, at.UTC(),
	)
	return err
}

func (s *postgresStore) GuildStats(ctx context.Context, guildID int64) (model.GuildStats, error) {
	stats := model.GuildStats{GuildID: guildID}
	var last sql.NullTime
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(count), 0), MAX(updated_at) FROM repost_counters WHERE guild_id = $1`,
		guildID,
	).Scan(&stats.Total, &last)
	if err != nil {
		return model.GuildStats{}, err
	}
	if last.Valid {
		stats.LastRepostAt = last.Time.UTC()
	}
	return stats, nil
}

func (s *postgresStore) TopReposters(ctx context.Context, guildID int64, limit int) ([]model.CounterEntry, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT poster_id, guild_id, count FROM repost_counters
		WHERE guild_id = $1
		ORDER BY count DESC, poster_id ASC
		LIMIT $2`,
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
