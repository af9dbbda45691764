package storage

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"abewatch/internal/model"
)

// Store is the link history plus the repost counters. The history is
// append-only with purge-by-age; counters are create-or-increment and
// never deleted.
type Store interface {
	Init(ctx context.Context) error
	Close() error

	// InsertLink appends a record. There is no uniqueness constraint:
	// every posting of a key is retained.
	InsertLink(ctx context.Context, rec model.LinkRecord) error
	// FindLinks returns all live records for the key in the scope,
	// oldest first.
	FindLinks(ctx context.Context, key string, scope model.Scope) ([]model.LinkRecord, error)
	// PurgeBefore deletes every record posted before cutoff and
	// reports how many went. Safe to call when nothing is expired.
	PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// IncrementRepost create-or-increments the (poster, guild) tally.
	IncrementRepost(ctx context.Context, posterID, guildID int64, at time.Time) error
	// GuildStats sums counts across the guild; zero total when no
	// counter exists yet.
	GuildStats(ctx context.Context, guildID int64) (model.GuildStats, error)
	// TopReposters lists the guild's counters, highest count first.
	TopReposters(ctx context.Context, guildID int64, limit int) ([]model.CounterEntry, error)
}

type Config struct {
	Driver string `json:"driver" yaml:"driver"`
	DSN    string `json:"dsn" yaml:"dsn"`
}

func NewStore(cfg Config) (Store, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", "memory":
		return NewMemory(), nil
	case "sqlite":
		return NewSQLite(cfg.DSN)
	case "postgres", "postgresql":
		return NewPostgres(cfg.DSN)
	default:
		return nil, errors.New("unsupported storage driver")
	}
}

type baseStore struct {
	db *sql.DB
}

func (b *baseStore) Close() error {
	if b.db != nil {
		return b.db.Close()
	}
	return nil
}
