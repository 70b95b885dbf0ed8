package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/hxnx/aria/config"
	"github.com/hxnx/aria/internal/audio"
	"github.com/hxnx/aria/internal/bot"
	"github.com/hxnx/aria/internal/database"
	"github.com/hxnx/aria/internal/history"
	"github.com/hxnx/aria/internal/player"
	"github.com/hxnx/aria/internal/redis"
	"github.com/hxnx/aria/internal/resolver"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	if cfg.DiscordToken == "" {
		log.Fatal("DISCORD_TOKEN is required")
	}

	if level, err := log.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}

	var cache resolver.RequestCache
	if cfg.HasRedis() {
		client, err := redis.Connect(redis.Config{
			Host:     cfg.RedisHost,
			Port:     cfg.RedisPort,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			log.WithError(err).Warn("redis unavailable, resolver cache disabled")
		} else {
			cache = resolver.NewRedisCache(client)
			defer client.Close()
		}
	}

	var plays *history.Repository
	if cfg.HasDatabase() {
		db, err := database.Connect(database.Config{
			Host:     cfg.DBHost,
			Port:     cfg.DBPort,
			User:     cfg.DBUser,
			Password: cfg.DBPassword,
			DBName:   cfg.DBName,
			SSLMode:  cfg.DBSSLMode,
		})
		if err != nil {
			log.WithError(err).Warn("database unavailable, play history disabled")
		} else {
			plays = history.NewRepository(db)
			defer db.Close()
		}
	}

	ytdlp := resolver.NewYTDLP(cfg.YTDLPBinary, cache, cfg.CacheTTL)
	resolve := resolver.NewRouting(ytdlp, resolver.NewLocalFile())

	ffmpeg := audio.NewFFmpegSource(cfg.FFmpegBinary, player.DefaultPCMFormat)
	source := audio.NewRoutingSource(map[player.TrackKind]player.Source{
		player.KindLocalFile: ffmpeg,
		player.KindRemote:    audio.NewRemoteSource(ytdlp.ResolveStreamURL, ffmpeg),
	}, nil)
	defer source.Close()

	sink := audio.NewFFplaySink(cfg.FFplayBinary, player.DefaultPCMFormat)

	var b *bot.Bot
	var startedAt time.Time

	p := player.New(player.Options{
		Source:        source,
		Sink:          sink,
		QueueCapacity: cfg.QueueCapacity,
		Hooks: player.Hooks{
			OnTrackChanged: func(t *player.Track) {
				if t == nil {
					return
				}
				startedAt = time.Now().UTC()
				b.Announce(fmt.Sprintf("now playing: %s", t.Title))
			},
			OnSessionEnded: func(t player.Track, res player.EndResult) {
				if res.Reason == player.EndFailed {
					b.Announce(fmt.Sprintf("playback failed: %s", t.Title))
				}
				if plays == nil {
					return
				}
				errText := ""
				if res.Err != nil {
					errText = res.Err.Error()
				}
				if err := plays.Record(context.Background(), history.Entry{
					URI:       t.URI,
					Title:     t.Title,
					Reason:    res.Reason,
					Error:     errText,
					StartedAt: startedAt,
					EndedAt:   time.Now().UTC(),
				}); err != nil {
					log.WithError(err).Debug("history record failed")
				}
			},
			OnLoopFaulted: func(err error) {
				log.WithError(err).Error("playback loop faulted")
			},
		},
	})
	p.Start()
	defer p.Close()

	b, err = bot.New(bot.Options{
		Token:    cfg.DiscordToken,
		Prefix:   cfg.CommandPrefix,
		Player:   p,
		Resolver: resolve,
		History:  plays,
	})
	if err != nil {
		log.Fatalf("failed to create bot: %v", err)
	}

	if err := b.Start(); err != nil {
		log.Fatalf("failed to start bot: %v", err)
	}
	log.Info("bot is running, press CTRL+C to exit")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Info("shutting down")
	if err := b.Stop(); err != nil {
		log.WithError(err).Warn("failed to stop bot")
	}
}
