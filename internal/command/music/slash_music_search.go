package music

import (
	"fmt"
	"strings"

	"soundkeeper/internal/command"

	"github.com/bwmarrin/discordgo"
)

type SearchCommand struct{}

func (c *SearchCommand) Name() string        { return "search" }
func (c *SearchCommand) Description() string { return "Search previously played tracks" }
func (c *SearchCommand) Category() string    { return "🎵 Music" }

func (c *SearchCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Type:        discordgo.ChatApplicationCommand,
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "term",
				Description: "Title words or a link",
				Required:    true,
			},
		},
	}
}

func (c *SearchCommand) Run(ctx interface{}) error {
	sctx, ok := ctx.(*command.SlashContext)
	if !ok {
		return nil
	}
	session := sctx.Session
	event := sctx.Event

	term := optionString(event, "term")
	if term == "" {
		return command.RespondEmbedEphemeral(session, event, &discordgo.MessageEmbed{
			Description: "🎵 Error: term is required",
		})
	}

	tracks, err := sctx.Deps.Store.SearchTracks(term)
	if err != nil {
		return command.RespondEmbedEphemeral(session, event, &discordgo.MessageEmbed{
			Description: fmt.Sprintf("🎵 Error: %v", err),
		})
	}
	if len(tracks) == 0 {
		return command.RespondEmbedEphemeral(session, event, &discordgo.MessageEmbed{
			Description: fmt.Sprintf("No tracks matching %q.", term),
		})
	}

	var b strings.Builder
	for i, track := range tracks {
		fmt.Fprintf(&b, "%d. [%s](%s)\n", i+1, track.Title, track.URI)
	}
	return command.RespondEmbed(session, event, &discordgo.MessageEmbed{
		Title:       "Search results",
		Description: b.String(),
	})
}
