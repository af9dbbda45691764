package model

import "time"

// Scope is the (guild, channel) pair within which two postings of the
// same key count as duplicates of each other.
type Scope struct {
	GuildID   int64 `json:"guild_id"`
	ChannelID int64 `json:"channel_id"`
}

// LinkRecord is one observed posting of a URL, stored under its
// canonical key. Records are append-only and removed only by purge.
type LinkRecord struct {
	Key      string    `json:"key"`
	PosterID int64     `json:"poster_id"`
	Scope    Scope     `json:"scope"`
	PostedAt time.Time `json:"posted_at"`
}

// Verdict is the duplicate detector's decision for a single posting.
// When IsRepost is false the remaining fields are zero.
type Verdict struct {
	IsRepost bool `json:"is_repost"`
	// Posters holds the distinct prior posters of the link in
	// insertion order, excluding the current poster.
	Posters    []int64   `json:"posters,omitempty"`
	FirstSeen  time.Time `json:"first_seen,omitempty"`
	PriorPosts int       `json:"prior_posts,omitempty"`
}

// GuildStats answers "how many reposts has this guild produced", plus
// when the most recent one happened.
type GuildStats struct {
	GuildID      int64     `json:"guild_id"`
	Total        int64     `json:"total"`
	LastRepostAt time.Time `json:"last_repost_at,omitempty"`
}

// CounterEntry is one leaderboard row.
type CounterEntry struct {
	PosterID int64 `json:"poster_id"`
	GuildID  int64 `json:"guild_id"`
	Count    int64 `json:"count"`
}

// RepostEvent is the outbound record published when a repost is
// confirmed.
type RepostEvent struct {
	Timestamp  time.Time `json:"timestamp"`
	GuildID    int64     `json:"guild_id"`
	ChannelID  int64     `json:"channel_id"`
	Key        string    `json:"key"`
	PosterID   int64     `json:"poster_id"`
	Posters    []int64   `json:"posters"`
	FirstSeen  time.Time `json:"first_seen"`
	PriorPosts int       `json:"prior_posts"`
}
