package music

import (
	"context"
	"fmt"

	"soundkeeper/internal/command"
	"soundkeeper/internal/music/player"

	"github.com/bwmarrin/discordgo"
)

type PlayCommand struct{}

func (c *PlayCommand) Name() string        { return "play" }
func (c *PlayCommand) Description() string { return "Play a track or add it to the queue" }
func (c *PlayCommand) Category() string    { return "🎵 Music" }

func (c *PlayCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Type:        discordgo.ChatApplicationCommand,
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "input",
				Description: "Link to the track to play",
				Required:    true,
			},
		},
	}
}

func (c *PlayCommand) Run(ctx interface{}) error {
	sctx, ok := ctx.(*command.SlashContext)
	if !ok {
		return nil
	}
	session := sctx.Session
	event := sctx.Event

	input := optionString(event, "input")
	if input == "" {
		return command.RespondEmbedEphemeral(session, event, &discordgo.MessageEmbed{
			Description: "🎵 Error: input is required",
		})
	}

	tracks, err := sctx.Deps.Manager.Cluster().Resolve(context.Background(), input)
	if err != nil || len(tracks) == 0 {
		return command.RespondEmbedEphemeral(session, event, &discordgo.MessageEmbed{
			Description: fmt.Sprintf("🎵 Error: failed to resolve track: %v", err),
		})
	}

	p, ok := acquire(sctx, player.ChannelJoinIfMissing, player.MemberRequireSame)
	if !ok {
		return nil
	}

	for i := range tracks {
		tracks[i].RequesterID = event.Member.User.ID
		if err := p.Enqueue(tracks[i]); err != nil {
			return command.RespondEmbedEphemeral(session, event, &discordgo.MessageEmbed{
				Description: fmt.Sprintf("🎵 Error: %v", err),
			})
		}
	}

	first := tracks[0]
	desc := fmt.Sprintf("🎶 Queued [%s](%s)", first.Title, first.URI)
	if len(tracks) > 1 {
		desc = fmt.Sprintf("🎶 Queued %d tracks, starting with [%s](%s)", len(tracks), first.Title, first.URI)
	}
	return command.RespondEmbed(session, event, &discordgo.MessageEmbed{Description: desc})
}
