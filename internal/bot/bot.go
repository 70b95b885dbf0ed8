// Package bot is the Discord front-end: a thin command surface that
// lowers chat messages onto the player facade.
package bot

import (
	"fmt"
	"sync"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"

	"github.com/hxnx/aria/internal/history"
	"github.com/hxnx/aria/internal/player"
	"github.com/hxnx/aria/internal/resolver"
)

type Bot struct {
	session  *discordgo.Session
	player   *player.Player
	resolver resolver.Resolver
	history  *history.Repository
	prefix   string

	mu          sync.Mutex
	lastChannel string

	started bool
}

type Options struct {
	Token    string
	Prefix   string
	Player   *player.Player
	Resolver resolver.Resolver
	History  *history.Repository
}

func New(opts Options) (*Bot, error) {
	if opts.Token == "" {
		return nil, fmt.Errorf("discord token is required")
	}
	if opts.Prefix == "" {
		opts.Prefix = "!"
	}

	session, err := discordgo.New("Bot " + opts.Token)
	if err != nil {
		return nil, err
	}
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsMessageContent

	return &Bot{
		session:  session,
		player:   opts.Player,
		resolver: opts.Resolver,
		history:  opts.History,
		prefix:   opts.Prefix,
	}, nil
}

func (b *Bot) Start() error {
	if b.started {
		return nil
	}

	b.session.AddHandler(func(s *discordgo.Session, _ *discordgo.Ready) {
		if s.State != nil && s.State.User != nil {
			log.Infof("bot ready as %s", s.State.User.Username)
		}
	})
	b.session.AddHandler(b.handleMessage)

	if err := b.session.Open(); err != nil {
		return err
	}
	b.started = true
	return nil
}

func (b *Bot) Stop() error {
	if !b.started {
		return nil
	}
	b.started = false
	return b.session.Close()
}

// Announce posts a line to the channel the bot last received a command
// on. Used by the player hooks to report track changes and failures.
func (b *Bot) Announce(text string) {
	b.mu.Lock()
	channel := b.lastChannel
	b.mu.Unlock()

	if channel == "" {
		return
	}
	if _, err := b.session.ChannelMessageSend(channel, text); err != nil {
		log.WithError(err).Debug("announce failed")
	}
}

func (b *Bot) rememberChannel(channelID string) {
	b.mu.Lock()
	b.lastChannel = channelID
	b.mu.Unlock()
}

func (b *Bot) reply(channelID, text string) {
	if _, err := b.session.ChannelMessageSend(channelID, text); err != nil {
		log.WithError(err).Debug("reply failed")
	}
}
