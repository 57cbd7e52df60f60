package music

import (
	"fmt"
	"strings"

	"soundkeeper/internal/command"

	"github.com/bwmarrin/discordgo"
)

const topPlaysLimit = 10

type HistoryCommand struct{}

func (c *HistoryCommand) Name() string        { return "history" }
func (c *HistoryCommand) Description() string { return "Show the most played tracks of this server" }
func (c *HistoryCommand) Category() string    { return "🎵 Music" }

func (c *HistoryCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Type:        discordgo.ChatApplicationCommand,
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionUser,
				Name:        "user",
				Description: "Only count plays requested by this user",
				Required:    false,
			},
		},
	}
}

func (c *HistoryCommand) Run(ctx interface{}) error {
	sctx, ok := ctx.(*command.SlashContext)
	if !ok {
		return nil
	}
	session := sctx.Session
	event := sctx.Event

	var requesterID string
	for _, opt := range event.ApplicationCommandData().Options {
		if opt.Name == "user" {
			requesterID = opt.UserValue(nil).ID
		}
	}

	top, err := sctx.Deps.Store.TopPlays(event.GuildID, requesterID, topPlaysLimit)
	if err != nil {
		return command.RespondEmbedEphemeral(session, event, &discordgo.MessageEmbed{
			Description: fmt.Sprintf("🎵 Error: %v", err),
		})
	}
	if len(top) == 0 {
		return command.RespondEmbedEphemeral(session, event, &discordgo.MessageEmbed{
			Description: "No plays recorded yet.",
		})
	}

	var b strings.Builder
	for i, entry := range top {
		fmt.Fprintf(&b, "%d. [%s](%s) — %d plays\n", i+1, entry.Track.Title, entry.Track.URI, entry.Plays)
	}
	return command.RespondEmbed(session, event, &discordgo.MessageEmbed{
		Title:       "Most played",
		Description: b.String(),
	})
}
