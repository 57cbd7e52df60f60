package music

import (
	"fmt"
	"time"

	"soundkeeper/internal/command"
	"soundkeeper/internal/music/player"

	"github.com/bwmarrin/discordgo"
)

type SeekCommand struct{}

func (c *SeekCommand) Name() string        { return "seek" }
func (c *SeekCommand) Description() string { return "Jump to a position in the current track" }
func (c *SeekCommand) Category() string    { return "🎵 Music" }

func (c *SeekCommand) SlashDefinition() *discordgo.ApplicationCommand {
	minPos := float64(0)
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Type:        discordgo.ChatApplicationCommand,
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionInteger,
				Name:        "seconds",
				Description: "Position in seconds from the start",
				Required:    true,
				MinValue:    &minPos,
			},
		},
	}
}

func (c *SeekCommand) Run(ctx interface{}) error {
	sctx, ok := ctx.(*command.SlashContext)
	if !ok {
		return nil
	}

	seconds, found := optionInt(sctx.Event, "seconds")
	if !found {
		return command.RespondEmbedEphemeral(sctx.Session, sctx.Event, &discordgo.MessageEmbed{
			Description: "🎵 Error: seconds is required",
		})
	}

	p, ok := acquire(sctx, player.ChannelNone, player.MemberRequireSame)
	if !ok {
		return nil
	}

	pos := time.Duration(seconds) * time.Second
	if err := p.Seek(pos); err != nil {
		return command.RespondEmbedEphemeral(sctx.Session, sctx.Event, &discordgo.MessageEmbed{
			Description: fmt.Sprintf("🎵 Error: %v", err),
		})
	}
	return command.RespondEmbed(sctx.Session, sctx.Event, &discordgo.MessageEmbed{
		Description: fmt.Sprintf("⏩ Jumped to %s", formatDuration(pos)),
	})
}
