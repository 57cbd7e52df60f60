package discord

import (
	"context"
	"fmt"
	"log"

	"soundkeeper/internal/command"
	"soundkeeper/internal/command/music"
	"soundkeeper/internal/config"
	"soundkeeper/internal/music/cluster"
	"soundkeeper/internal/music/player"
	"soundkeeper/internal/music/status"
	"soundkeeper/internal/settings"
	"soundkeeper/internal/storage"

	"github.com/bwmarrin/discordgo"
)

// Bot is the Discord-facing shell around the playback orchestrator.
type Bot struct {
	dg        *discordgo.Session
	cfg       *config.Config
	manager   *player.Manager
	publisher *status.Publisher
	deps      *command.Deps
}

func NewBot(cfg *config.Config, store *storage.Storage, sett *settings.Store, cl cluster.Client) (*Bot, error) {
	dg, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	b := &Bot{dg: dg, cfg: cfg}
	b.publisher = status.New(&channelStatusAPI{dg: dg}, cfg.StatusQuietInterval)
	b.manager = player.NewManager(cl, store, sett, b.publisher, b, player.ManagerConfig{
		HistoryThreshold: cfg.HistoryThreshold,
	})
	b.deps = &command.Deps{
		Manager:  b.manager,
		Store:    store,
		Settings: sett,
	}

	b.registerCommands()
	return b, nil
}

// registerCommands wires every music command into the registry.
func (b *Bot) registerCommands() {
	for _, cmd := range []command.Command{
		&music.PlayCommand{},
		&music.StopCommand{},
		&music.SkipCommand{},
		&music.PauseCommand{},
		&music.ResumeCommand{},
		&music.SeekCommand{},
		&music.VolumeCommand{},
		&music.RepeatCommand{},
		&music.QueueCommand{},
		&music.HistoryCommand{},
		&music.SearchCommand{},
	} {
		command.Register(command.ApplyMiddlewares(
			cmd,
			command.WithGuildOnly(),
			command.WithCommandLogger(),
		))
	}
}

// Run opens the gateway session and blocks until ctx is canceled.
func (b *Bot) Run(ctx context.Context) error {
	b.configureIntents()
	b.dg.AddHandler(b.onReady)
	b.dg.AddHandler(b.onInteractionCreate)

	if err := b.dg.Open(); err != nil {
		return fmt.Errorf("failed to open Discord session: %w", err)
	}
	defer b.dg.Close()

	<-ctx.Done()
	log.Println("[INFO] ❎ Shutdown signal received. Cleaning up...")
	b.manager.Shutdown()
	b.publisher.Close()
	return nil
}

func (b *Bot) configureIntents() {
	b.dg.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildVoiceStates |
		discordgo.IntentsGuildMessages
}

// onReady publishes the slash command definitions.
func (b *Bot) onReady(s *discordgo.Session, _ *discordgo.Ready) {
	var defs []*discordgo.ApplicationCommand
	for _, cmd := range command.All() {
		if sp, ok := cmd.(command.SlashProvider); ok {
			if def := sp.SlashDefinition(); def != nil {
				defs = append(defs, def)
			}
		}
	}

	if _, err := s.ApplicationCommandBulkOverwrite(s.State.User.ID, "", defs); err != nil {
		log.Printf("[ERR] Failed to register slash commands: %v", err)
		return
	}
	log.Printf("[INFO] Registered %d slash commands", len(defs))
}

// onInteractionCreate dispatches a slash interaction to its command.
func (b *Bot) onInteractionCreate(s *discordgo.Session, e *discordgo.InteractionCreate) {
	if e.Type != discordgo.InteractionApplicationCommand {
		return
	}

	name := e.ApplicationCommandData().Name
	cmd, ok := command.Get(name)
	if !ok {
		return
	}

	sctx := &command.SlashContext{
		Session: s,
		Event:   e,
		Deps:    b.deps,
	}
	if err := cmd.Run(sctx); err != nil {
		log.Printf("[ERR] Command /%s failed: %v", name, err)
	}
}
