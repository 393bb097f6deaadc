package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"tickfeed/internal/application/port"
	"tickfeed/internal/application/service"
	"tickfeed/internal/feed"
	"tickfeed/internal/infrastructure/cache/redis"
	"tickfeed/internal/infrastructure/config"
	"tickfeed/internal/infrastructure/logger"
	"tickfeed/internal/infrastructure/publish"
	"tickfeed/internal/infrastructure/storage"
	"tickfeed/internal/interfaces/web"
)

func main() {
	configPath := flag.String("config", "config.toml", "path to config.toml")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Setup("info")
		log.Fatal().Err(err).Str("config", *configPath).Msg("load config failed")
	}
	logger.Setup(cfg.App.LogLevel)

	client := feed.New()
	if err := client.Initialize(cfg.FeedConfig()); err != nil {
		log.Fatal().Err(err).Msg("feed client initialization failed")
	}
	defer client.Shutdown()

	journal, err := storage.Open(cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Storage.Driver).Msg("storage initialization failed")
	}
	if journal != nil {
		defer journal.Close()
	}

	var sinks []port.TickSink
	if cfg.Redis.Enabled {
		rdb := goredis.NewClient(&goredis.Options{Addr: cfg.Redis.Addr})
		cacheSink := redis.New(rdb, cfg.Redis.Prefix, time.Duration(cfg.Redis.TTLSec)*time.Second)
		defer cacheSink.Close()
		sinks = append(sinks, cacheSink)
	}
	if cfg.NATS.Enabled {
		publisher, err := publish.New(cfg.NATS.URL, cfg.NATS.SubjectPrefix)
		if err != nil {
			log.Fatal().Err(err).Str("url", cfg.NATS.URL).Msg("nats initialization failed")
		}
		defer publisher.Close()
		sinks = append(sinks, publisher)
	}

	recorder := service.NewRecorder(journal, sinks...)
	if err := recorder.Start(client); err != nil {
		log.Fatal().Err(err).Msg("recorder start failed")
	}
	defer recorder.Stop()

	if cfg.Web.Enabled {
		srv := web.NewServer(cfg.Web.Addr, client)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error().Err(err).Msg("web server failed")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		log.Info().Str("addr", cfg.Web.Addr).Msg("web server listening")
	}

	log.Info().
		Str("config", *configPath).
		Str("driver", cfg.Storage.Driver).
		Bool("redis", cfg.Redis.Enabled).
		Bool("nats", cfg.NATS.Enabled).
		Int("sinks", len(sinks)).
		Msg("started")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	log.Warn().Msg("exit")
}
