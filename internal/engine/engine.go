package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"abewatch/internal/config"
	"abewatch/internal/model"
	"abewatch/internal/normalize"
	"abewatch/internal/storage"
)

// Publisher receives confirmed repost events. Failures are logged,
// never surfaced to the poster path.
type Publisher interface {
	PublishRepost(ctx context.Context, ev model.RepostEvent) error
}

// Engine ties the normalizer, the link history and the repost counters
// together behind the two operations the outer layers call.
type Engine struct {
	logger    *slog.Logger
	store     storage.Store
	publisher Publisher
	cfg       atomic.Value
	locks     stripedLocks
}

func New(cfg *config.Config, store storage.Store, publisher Publisher, logger *slog.Logger) *Engine {
	e := &Engine{
		logger:    logger,
		store:     store,
		publisher: publisher,
	}
	e.cfg.Store(cfg)
	return e
}

func (e *Engine) UpdateConfig(cfg *config.Config) {
	e.cfg.Store(cfg)
}

func (e *Engine) config() *config.Config {
	if v := e.cfg.Load(); v != nil {
		return v.(*config.Config)
	}
	return config.DefaultConfig()
}

// ObserveURL is the single write entry point: canonicalize, decide,
// record, and on a repost bump the poster's counter and publish the
// event. The observed record is appended whether or not the posting is
// a repost; that is what lets later verdicts attribute every prior
// poster.
//
// When the counter increment fails after a repost verdict, the verdict
// is returned alongside the error so the caller can still notify.
func (e *Engine) ObserveURL(ctx context.Context, url string, posterID int64, scope model.Scope, postedAt time.Time) (model.Verdict, error) {
	key := normalize.Key(url)
	ttl := e.config().Detection.TTL

	mu := e.locks.lockFor(key, scope)
	mu.Lock()
	defer mu.Unlock()

	verdict, err := checkDuplicate(ctx, e.store, key, posterID, scope, postedAt, ttl)
	if err != nil {
		return model.Verdict{}, err
	}
	rec := model.LinkRecord{Key: key, PosterID: posterID, Scope: scope, PostedAt: postedAt}
	if err := e.store.InsertLink(ctx, rec); err != nil {
		return verdict, fmt.Errorf("insert link record: %w", err)
	}
	if !verdict.IsRepost {
		return verdict, nil
	}

	if e.logger != nil {
		e.logger.Info("repost detected",
			"key", key,
			"poster_id", posterID,
			"guild_id", scope.GuildID,
			"channel_id", scope.ChannelID,
			"prior_posts", verdict.PriorPosts,
		)
	}
	if e.publisher != nil {
		ev := model.RepostEvent{
			Timestamp:  postedAt,
			GuildID:    scope.GuildID,
			ChannelID:  scope.ChannelID,
			Key:        key,
			PosterID:   posterID,
			Posters:    verdict.Posters,
			FirstSeen:  verdict.FirstSeen,
			PriorPosts: verdict.PriorPosts,
		}
		if err := e.publisher.PublishRepost(ctx, ev); err != nil && e.logger != nil {
			e.logger.Warn("publish repost event", "err", err)
		}
	}
	if err := e.store.IncrementRepost(ctx, posterID, scope.GuildID, postedAt); err != nil {
		return verdict, fmt.Errorf("increment repost counter: %w", err)
	}
	return verdict, nil
}

// GuildRepostTotal reports how many reposts the guild has produced.
func (e *Engine) GuildRepostTotal(ctx context.Context, guildID int64) (int64, error) {
	stats, err := e.store.GuildStats(ctx, guildID)
	if err != nil {
		return 0, fmt.Errorf("guild stats: %w", err)
	}
	return stats.Total, nil
}

func (e *Engine) GuildStats(ctx context.Context, guildID int64) (model.GuildStats, error) {
	return e.store.GuildStats(ctx, guildID)
}

func (e *Engine) TopReposters(ctx context.Context, guildID int64, limit int) ([]model.CounterEntry, error) {
	return e.store.TopReposters(ctx, guildID, limit)
}

// PurgeExpired forces a purge outside the observe path.
func (e *Engine) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	return e.store.PurgeBefore(ctx, now.Add(-e.config().Detection.TTL))
}
