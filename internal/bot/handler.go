package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"

	"github.com/hxnx/aria/internal/player"
)

const resolveTimeout = 60 * time.Second

func (b *Bot) handleMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m == nil || m.Author == nil || m.Author.Bot {
		return
	}

	content := strings.TrimSpace(m.Content)
	if !strings.HasPrefix(content, b.prefix) {
		return
	}
	content = strings.TrimPrefix(content, b.prefix)

	name, arg, _ := strings.Cut(content, " ")
	name = strings.ToLower(strings.TrimSpace(name))
	arg = strings.TrimSpace(arg)

	b.rememberChannel(m.ChannelID)

	switch name {
	case "play":
		b.cmdPlay(m.ChannelID, arg, false)
	case "playnow":
		b.cmdPlay(m.ChannelID, arg, true)
	case "pause":
		b.runCommand(m.ChannelID, b.player.Pause)
	case "resume":
		b.runCommand(m.ChannelID, b.player.Resume)
	case "skip":
		b.runCommand(m.ChannelID, b.player.Skip)
	case "stop":
		b.player.Stop()
	case "clear":
		b.runCommand(m.ChannelID, b.player.Clear)
	case "shuffle":
		b.cmdShuffle(m.ChannelID, arg)
	case "repeat":
		b.cmdRepeat(m.ChannelID, arg)
	case "queue":
		b.cmdQueue(m.ChannelID)
	case "np", "status":
		b.cmdStatus(m.ChannelID)
	case "history":
		b.cmdHistory(m.ChannelID)
	}
}

func (b *Bot) cmdPlay(channelID, input string, now bool) {
	if input == "" {
		b.reply(channelID, "usage: play <file or url>")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), resolveTimeout)
	defer cancel()

	tracks, err := b.resolver.Resolve(ctx, player.TrackRequest{Raw: input})
	if err != nil {
		log.WithError(err).Debug("resolve failed")
		b.reply(channelID, "could not resolve that input")
		return
	}
	if len(tracks) == 0 {
		b.reply(channelID, "nothing found")
		return
	}

	if now {
		if err := b.player.PlayNow(tracks[0]); err != nil {
			b.reply(channelID, "player is not running")
			return
		}
		b.reply(channelID, fmt.Sprintf("playing now: %s", tracks[0].Title))
		return
	}

	if err := b.player.Enqueue(tracks...); err != nil {
		b.reply(channelID, "player is not running")
		return
	}
	if len(tracks) == 1 {
		b.reply(channelID, fmt.Sprintf("queued: %s", tracks[0].Title))
	} else {
		b.reply(channelID, fmt.Sprintf("queued %d tracks", len(tracks)))
	}
}

func (b *Bot) cmdShuffle(channelID, arg string) {
	next, err := player.ParseShuffle(arg, b.player.Shuffle())
	if err != nil {
		b.reply(channelID, "usage: shuffle on|off|toggle")
		return
	}
	b.player.SetShuffle(next)
	b.reply(channelID, fmt.Sprintf("shuffle %s", onOff(next)))
}

func (b *Bot) cmdRepeat(channelID, arg string) {
	mode, err := player.ParseRepeatMode(arg)
	if err != nil {
		b.reply(channelID, "usage: repeat off|one|track|all")
		return
	}
	b.player.SetRepeatMode(mode)
	b.reply(channelID, fmt.Sprintf("repeat %s", mode))
}

func (b *Bot) cmdQueue(channelID string) {
	tracks := b.player.QueueSnapshot()
	if len(tracks) == 0 {
		b.reply(channelID, "queue is empty")
		return
	}

	var sb strings.Builder
	for i, t := range tracks {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, t.Title)
		if i >= 9 {
			fmt.Fprintf(&sb, "… and %d more\n", len(tracks)-10)
			break
		}
	}
	b.reply(channelID, sb.String())
}

func (b *Bot) cmdStatus(channelID string) {
	info := b.player.CurrentSession()
	if info == nil {
		b.reply(channelID, fmt.Sprintf("state: %s", b.player.State()))
		return
	}

	elapsed := info.Elapsed()
	b.reply(channelID, fmt.Sprintf("%s — %s [%02d:%02d] (%s)",
		info.State, info.Track.Title,
		int(elapsed.Minutes()), int(elapsed.Seconds())%60,
		info.Track.URI))
}

func (b *Bot) cmdHistory(channelID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	entries, err := b.history.Recent(ctx, 10)
	if err != nil {
		log.WithError(err).Debug("history query failed")
		b.reply(channelID, "history unavailable")
		return
	}
	if len(entries) == 0 {
		b.reply(channelID, "no playback history")
		return
	}

	var sb strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&sb, "%s — %s (%s)\n", e.EndedAt.Format("15:04"), e.Title, e.Reason)
	}
	b.reply(channelID, sb.String())
}

func (b *Bot) runCommand(channelID string, cmd func() error) {
	if err := cmd(); err != nil {
		b.reply(channelID, "player is not running")
	}
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}
