package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/hxnx/aria/config"
	"github.com/hxnx/aria/internal/audio"
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
	// Remote first so URLs are never mistaken for file paths.
	resolve := resolver.NewRouting(ytdlp, resolver.NewLocalFile())

	ffmpeg := audio.NewFFmpegSource(cfg.FFmpegBinary, player.DefaultPCMFormat)
	source := audio.NewRoutingSource(map[player.TrackKind]player.Source{
		player.KindLocalFile: ffmpeg,
		player.KindRemote:    audio.NewRemoteSource(ytdlp.ResolveStreamURL, ffmpeg),
	}, nil)
	defer source.Close()

	sink := audio.NewFFplaySink(cfg.FFplayBinary, player.DefaultPCMFormat)

	// Hooks run serially on the loop goroutine, so this is race-free.
	var startedAt time.Time

	p := player.New(player.Options{
		Source:        source,
		Sink:          sink,
		QueueCapacity: cfg.QueueCapacity,
		Hooks: player.Hooks{
			OnTrackChanged: func(t *player.Track) {
				if t == nil {
					fmt.Println("queue finished")
					return
				}
				startedAt = time.Now().UTC()
				fmt.Printf("now playing: %s\n", t.Title)
			},
			OnSessionEnded: func(t player.Track, res player.EndResult) {
				if res.Reason == player.EndFailed {
					fmt.Printf("playback failed: %s (%s)\n", t.Title, res.Details)
				}
				recordHistory(plays, t, res, startedAt)
			},
			OnLoopFaulted: func(err error) {
				log.WithError(err).Error("playback loop faulted")
			},
		},
	})
	p.Start()
	defer p.Close()

	repl(p, resolve, plays)
}

func repl(p *player.Player, resolve resolver.Resolver, plays *history.Repository) {
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Println("aria — type 'help' for commands")

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}

		name, arg, _ := strings.Cut(strings.TrimSpace(scanner.Text()), " ")
		name = strings.ToLower(name)
		arg = strings.TrimSpace(arg)

		switch name {
		case "":
		case "help":
			printHelp()
		case "play":
			cmdPlay(p, resolve, arg, false)
		case "playnow":
			cmdPlay(p, resolve, arg, true)
		case "pause":
			report(p.Pause())
		case "resume":
			report(p.Resume())
		case "skip":
			report(p.Skip())
		case "stop":
			p.Stop()
		case "clear":
			report(p.Clear())
		case "shuffle":
			cmdShuffle(p, arg)
		case "repeat":
			cmdRepeat(p, arg)
		case "queue":
			cmdQueue(p)
		case "status":
			cmdStatus(p)
		case "history":
			cmdHistory(plays)
		case "quit", "exit":
			return
		default:
			fmt.Printf("unknown command: %s\n", name)
		}
	}
}

func printHelp() {
	fmt.Println(`commands:
  play <file or url>     queue a track
  playnow <file or url>  play immediately
  pause | resume | skip | stop | clear
  shuffle on|off|toggle
  repeat off|one|track|all
  queue | status | history
  quit`)
}

func cmdPlay(p *player.Player, resolve resolver.Resolver, input string, now bool) {
	if input == "" {
		fmt.Println("usage: play <file or url>")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	tracks, err := resolve.Resolve(ctx, player.TrackRequest{Raw: input})
	if err != nil {
		fmt.Printf("resolve failed: %v\n", err)
		return
	}
	if len(tracks) == 0 {
		fmt.Println("nothing found")
		return
	}

	if now {
		report(p.PlayNow(tracks[0]))
		return
	}
	if err := p.Enqueue(tracks...); err != nil {
		report(err)
		return
	}
	fmt.Printf("queued %d track(s)\n", len(tracks))
}

func cmdShuffle(p *player.Player, arg string) {
	next, err := player.ParseShuffle(arg, p.Shuffle())
	if err != nil {
		fmt.Println("usage: shuffle on|off|toggle")
		return
	}
	p.SetShuffle(next)
	fmt.Printf("shuffle %v\n", next)
}

func cmdRepeat(p *player.Player, arg string) {
	mode, err := player.ParseRepeatMode(arg)
	if err != nil {
		fmt.Println("usage: repeat off|one|track|all")
		return
	}
	p.SetRepeatMode(mode)
	fmt.Printf("repeat %s\n", mode)
}

func cmdQueue(p *player.Player) {
	tracks := p.QueueSnapshot()
	if len(tracks) == 0 {
		fmt.Println("queue is empty")
		return
	}
	for i, t := range tracks {
		fmt.Printf("%2d. %s\n", i+1, t.Title)
	}
}

func cmdStatus(p *player.Player) {
	fmt.Printf("state: %s  repeat: %s  shuffle: %v\n", p.State(), p.RepeatMode(), p.Shuffle())
	if info := p.CurrentSession(); info != nil {
		elapsed := info.Elapsed()
		fmt.Printf("track: %s\nuri: %s\nstarted: %s  elapsed: %02d:%02d\n",
			info.Track.Title, info.Track.URI,
			info.StartedAt.Format(time.RFC3339),
			int(elapsed.Minutes()), int(elapsed.Seconds())%60)
	}
}

func cmdHistory(plays *history.Repository) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	entries, err := plays.Recent(ctx, 10)
	if err != nil {
		fmt.Printf("history unavailable: %v\n", err)
		return
	}
	if len(entries) == 0 {
		fmt.Println("no playback history")
		return
	}
	for _, e := range entries {
		fmt.Printf("%s  %-9s %s\n", e.EndedAt.Format("2006-01-02 15:04"), e.Reason, e.Title)
	}
}

func recordHistory(plays *history.Repository, t player.Track, res player.EndResult, startedAt time.Time) {
	if plays == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	errText := ""
	if res.Err != nil {
		errText = res.Err.Error()
	}
	if err := plays.Record(ctx, history.Entry{
		URI:       t.URI,
		Title:     t.Title,
		Reason:    res.Reason,
		Error:     errText,
		StartedAt: startedAt,
		EndedAt:   time.Now().UTC(),
	}); err != nil {
		log.WithError(err).Debug("history record failed")
	}
}

func report(err error) {
	if err != nil {
		fmt.Printf("error: %v\n", err)
	}
}
