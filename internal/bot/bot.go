package bot

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"abewatch/internal/config"
	"abewatch/internal/engine"
	"abewatch/internal/model"
	"abewatch/internal/normalize"
)

// Bot is the Discord front end: it watches guild messages for URLs,
// feeds them to the engine, and posts the callout when a repost is
// confirmed. It also answers the stats and leaderboard commands.
type Bot struct {
	session *discordgo.Session
	cfg     *config.Manager
	engine  *engine.Engine
	logger  *slog.Logger
}

func New(token string, cfg *config.Manager, eng *engine.Engine, logger *slog.Logger) (*Bot, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentMessageContent

	b := &Bot{session: session, cfg: cfg, engine: eng, logger: logger}
	session.AddHandler(b.onReady)
	session.AddHandler(b.onMessageCreate)
	return b, nil
}

func (b *Bot) Open() error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("open discord gateway: %w", err)
	}
	return nil
}

func (b *Bot) Close() error {
	return b.session.Close()
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	if b.logger != nil {
		b.logger.Info("discord ready", "user", r.User.Username, "guilds", len(r.Guilds))
	}
}

func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot || m.GuildID == "" {
		return
	}
	cfg := b.cfg.Get().Discord
	authorID := parseID(m.Author.ID)
	guildID := parseID(m.GuildID)
	channelID := parseID(m.ChannelID)
	if containsID(cfg.IgnoredUsers, authorID) || containsID(cfg.IgnoredChannels, channelID) {
		return
	}

	if strings.HasPrefix(m.Content, cfg.CommandPrefix) {
		b.handleCommand(s, m, strings.TrimPrefix(m.Content, cfg.CommandPrefix), guildID)
		return
	}

	urls := normalize.ExtractURLs(m.Content)
	if len(urls) == 0 {
		return
	}
	ctx := context.Background()
	scope := model.Scope{GuildID: guildID, ChannelID: channelID}
	now := time.Now().UTC()
	for _, u := range urls {
		verdict, err := b.engine.ObserveURL(ctx, u, authorID, scope, now)
		if err != nil && b.logger != nil {
			b.logger.Error("observe url", "url", u, "err", err)
		}
		// A repost verdict paired with an error still gets posted:
		// the counter may have failed, the callout must not.
		if verdict.IsRepost {
			b.sendCallout(s, m.ChannelID, m.GuildID, verdict)
		}
	}
}

func (b *Bot) handleCommand(s *discordgo.Session, m *discordgo.MessageCreate, cmd string, guildID int64) {
	ctx := context.Background()
	switch strings.ToLower(strings.TrimSpace(cmd)) {
	case "abe":
		stats, err := b.engine.GuildStats(ctx, guildID)
		if err != nil {
			b.logErr("guild stats", err)
			return
		}
		b.send(s, m.ChannelID, RenderGuildStats(stats))
	case "abetop":
		entries, err := b.engine.TopReposters(ctx, guildID, 10)
		if err != nil {
			b.logErr("leaderboard", err)
			return
		}
		names := make([]string, len(entries))
		for i, e := range entries {
			names[i] = b.displayName(s, m.GuildID, e.PosterID)
		}
		b.send(s, m.ChannelID, RenderLeaderboard(entries, names))
	}
}

func (b *Bot) sendCallout(s *discordgo.Session, channelID, guildID string, v model.Verdict) {
	names := make([]string, len(v.Posters))
	for i, id := range v.Posters {
		names[i] = b.displayName(s, guildID, id)
	}
	content := RenderCallout(v, names)

	cfg := b.cfg.Get()
	if cfg.Discord.ImageDir != "" {
		idx := CalloutImageIndex(v.PriorPosts, cfg.Detection.AttributionCap)
		path := filepath.Join(cfg.Discord.ImageDir, fmt.Sprintf("abe%d.jpg", idx))
		if f, err := os.Open(path); err == nil {
			defer f.Close()
			if _, err := s.ChannelFileSendWithMessage(channelID, content, filepath.Base(path), f); err != nil {
				b.logErr("send callout file", err)
			}
			return
		}
	}
	b.send(s, channelID, content)
}

func (b *Bot) send(s *discordgo.Session, channelID, content string) {
	if _, err := s.ChannelMessageSend(channelID, content); err != nil {
		b.logErr("send message", err)
	}
}

// displayName resolves a poster for attribution: guild nickname, then
// username, then a plain mention.
func (b *Bot) displayName(s *discordgo.Session, guildID string, posterID int64) string {
	id := strconv.FormatInt(posterID, 10)
	member, err := s.State.Member(guildID, id)
	if err != nil || member == nil {
		member, err = s.GuildMember(guildID, id)
	}
	if err == nil && member != nil {
		if member.Nick != "" {
			return member.Nick
		}
		if member.User != nil && member.User.Username != "" {
			return member.User.Username
		}
	}
	return "<@" + id + ">"
}

func (b *Bot) logErr(op string, err error) {
	if b.logger != nil {
		b.logger.Error(op, "err", err)
	}
}

func parseID(s string) int64 {
	id, _ := strconv.ParseInt(s, 10, 64)
	return id
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
