package command

import (
	"soundkeeper/internal/music/player"
	"soundkeeper/internal/settings"
	"soundkeeper/internal/storage"

	"github.com/bwmarrin/discordgo"
)

type Command interface {
	Name() string
	Description() string
	Category() string
	Run(ctx interface{}) error
}

type SlashProvider interface {
	SlashDefinition() *discordgo.ApplicationCommand
}

// Deps is everything a command may need from the rest of the bot.
type Deps struct {
	Manager  *player.Manager
	Store    *storage.Storage
	Settings *settings.Store
}

type SlashContext struct {
	Session *discordgo.Session
	Event   *discordgo.InteractionCreate
	Deps    *Deps
}
