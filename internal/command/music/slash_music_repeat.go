package music

import (
	"fmt"

	"soundkeeper/internal/command"
	"soundkeeper/internal/music/cluster"
	"soundkeeper/internal/music/player"

	"github.com/bwmarrin/discordgo"
)

type RepeatCommand struct{}

func (c *RepeatCommand) Name() string        { return "repeat" }
func (c *RepeatCommand) Description() string { return "Set the repeat mode" }
func (c *RepeatCommand) Category() string    { return "🎵 Music" }

func (c *RepeatCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Type:        discordgo.ChatApplicationCommand,
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "mode",
				Description: "What to repeat when a track finishes",
				Required:    true,
				Choices: []*discordgo.ApplicationCommandOptionChoice{
					{Name: "off", Value: "none"},
					{Name: "track", Value: "track"},
					{Name: "queue", Value: "queue"},
				},
			},
		},
	}
}

func (c *RepeatCommand) Run(ctx interface{}) error {
	sctx, ok := ctx.(*command.SlashContext)
	if !ok {
		return nil
	}

	var mode cluster.RepeatMode
	switch optionString(sctx.Event, "mode") {
	case "track":
		mode = cluster.RepeatTrack
	case "queue":
		mode = cluster.RepeatQueue
	default:
		mode = cluster.RepeatNone
	}

	p, ok := acquire(sctx, player.ChannelNone, player.MemberRequireSame)
	if !ok {
		return nil
	}

	if err := p.SetRepeat(mode); err != nil {
		return command.RespondEmbedEphemeral(sctx.Session, sctx.Event, &discordgo.MessageEmbed{
			Description: fmt.Sprintf("🎵 Error: %v", err),
		})
	}
	return command.RespondEmbed(sctx.Session, sctx.Event, &discordgo.MessageEmbed{
		Description: fmt.Sprintf("🔁 Repeat mode: %s", mode),
	})
}
