package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"abewatch/internal/api"
	"abewatch/internal/bot"
	"abewatch/internal/config"
	"abewatch/internal/engine"
	"abewatch/internal/logging"
	"abewatch/internal/publish"
	"abewatch/internal/storage"
)

const version = "1.0.0"

func main() {
	configPath := flag.String("config", "", "path to abewatch config (yaml or json)")
	flag.Parse()

	_ = godotenv.Load()

	var manager *config.Manager
	if *configPath != "" {
		m, err := config.NewManager(config.ResolvePath(*configPath))
		if err != nil {
			logging.NewLogger("error", "text").Error("load config", "path", *configPath, "err", err)
			os.Exit(1)
		}
		manager = m
	} else {
		manager = config.NewStaticManager(config.DefaultConfig())
	}
	cfg := manager.Get()
	logger := logging.NewLogger(cfg.LogLevel, cfg.LogFormat)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := storage.NewStore(cfg.Storage)
	if err != nil {
		logger.Error("open store", "err", err)
		os.Exit(1)
	}
	if err := store.Init(ctx); err != nil {
		logger.Error("init store", "err", err)
		os.Exit(1)
	}
	defer store.Close()
	logger.Info("store ready", "driver", cfg.Storage.Driver)

	var pub engine.Publisher
	if kafka := publish.NewKafka(cfg.Publish.Kafka, logger); kafka != nil {
		pub = kafka
		defer kafka.Close()
	}

	eng := engine.New(cfg, store, pub, logger)
	api.Start(ctx, manager, eng, logger, version)

	if manager.Path() != "" {
		go manager.Watch(0, func(updated *config.Config) {
			eng.UpdateConfig(updated)
			logger.Info("config reloaded", "path", manager.Path())
		}, func(err error) {
			logger.Warn("config reload", "err", err)
		}, ctx.Done())
	}

	token := cfg.Discord.Token
	if token == "" {
		token = os.Getenv("DISCORD_TOKEN")
	}
	if token == "" {
		logger.Warn("no discord token; running without the bot front end")
	} else {
		b, err := bot.New(token, manager, eng, logger)
		if err != nil {
			logger.Error("create bot", "err", err)
			os.Exit(1)
		}
		if err := b.Open(); err != nil {
			logger.Error("connect to discord", "err", err)
			os.Exit(1)
		}
		defer b.Close()
		logger.Info("bot connected")
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info("shutting down")
	cancel()
}
