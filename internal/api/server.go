package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"abewatch/internal/config"
	"abewatch/internal/model"
)

// Reporter is the read/admin surface the HTTP API needs from the
// engine.
type Reporter interface {
	GuildStats(ctx context.Context, guildID int64) (model.GuildStats, error)
	TopReposters(ctx context.Context, guildID int64, limit int) ([]model.CounterEntry, error)
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

type Server struct {
	cfg      *config.Manager
	reporter Reporter
	logger   *slog.Logger
	version  string
}

type statusResponse struct {
	Status    string `json:"status"`
	Time      string `json:"time"`
	Version   string `json:"version"`
	Storage   string `json:"storage"`
	TTL       string `json:"ttl"`
	KafkaOn   bool   `json:"kafka_publish"`
	ConfigSrc string `json:"config_path,omitempty"`
}

type purgeResponse struct {
	Purged int64 `json:"purged"`
}

func Start(ctx context.Context, cfg *config.Manager, reporter Reporter, logger *slog.Logger, version string) *http.Server {
	if cfg == nil {
		return nil
	}
	current := cfg.Get().API
	if !current.Enabled {
		if logger != nil {
			logger.Info("api disabled")
		}
		return nil
	}
	if logger != nil {
		logger.Info("api enabled", "addr", current.Addr)
	}
	server := &Server{
		cfg:      cfg,
		reporter: reporter,
		logger:   logger,
		version:  version,
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/status", server.handleStatus)
	mux.HandleFunc("/guilds/", server.handleGuilds)
	mux.HandleFunc("/admin/purge", server.handlePurge)

	httpServer := &http.Server{Addr: current.Addr, Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(ctxShutdown)
	}()
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if logger != nil {
				logger.Error("api server error", "err", err)
			}
		}
	}()
	return httpServer
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	cfg := s.cfg.Get()
	writeJSON(w, http.StatusOK, statusResponse{
		Status:    "ok",
		Time:      time.Now().UTC().Format(time.RFC3339),
		Version:   s.version,
		Storage:   cfg.Storage.Driver,
		TTL:       cfg.Detection.TTL.String(),
		KafkaOn:   cfg.Publish.Kafka.Enabled,
		ConfigSrc: s.cfg.Path(),
	})
}

// handleGuilds serves /guilds/{id}/reposts and /guilds/{id}/leaderboard.
func (s *Server) handleGuilds(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/guilds/")
	parts := strings.SplitN(strings.Trim(rest, "/"), "/", 2)
	if len(parts) != 2 {
		http.NotFound(w, r)
		return
	}
	guildID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		http.Error(w, "bad guild id", http.StatusBadRequest)
		return
	}
	switch parts[1] {
	case "reposts":
		stats, err := s.reporter.GuildStats(r.Context(), guildID)
		if err != nil {
			s.internalError(w, "guild stats", err)
			return
		}
		writeJSON(w, http.StatusOK, stats)
	case "leaderboard":
		limit := 10
		if v := r.URL.Query().Get("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				limit = n
			}
		}
		entries, err := s.reporter.TopReposters(r.Context(), guildID, limit)
		if err != nil {
			s.internalError(w, "leaderboard", err)
			return
		}
		if entries == nil {
			entries = []model.CounterEntry{}
		}
		writeJSON(w, http.StatusOK, entries)
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) handlePurge(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	purged, err := s.reporter.PurgeExpired(r.Context(), time.Now().UTC())
	if err != nil {
		s.internalError(w, "purge", err)
		return
	}
	writeJSON(w, http.StatusOK, purgeResponse{Purged: purged})
}

func (s *Server) internalError(w http.ResponseWriter, op string, err error) {
	if s.logger != nil {
		s.logger.Error("api "+op, "err", err)
	}
	http.Error(w, "internal error", http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
