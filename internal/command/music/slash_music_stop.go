package music

import (
	"fmt"

	"soundkeeper/internal/command"
	"soundkeeper/internal/music/player"

	"github.com/bwmarrin/discordgo"
)

type StopCommand struct{}

func (c *StopCommand) Name() string        { return "stop" }
func (c *StopCommand) Description() string { return "Stop playback and leave the voice channel" }
func (c *StopCommand) Category() string    { return "🎵 Music" }

func (c *StopCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Type:        discordgo.ChatApplicationCommand,
	}
}

func (c *StopCommand) Run(ctx interface{}) error {
	sctx, ok := ctx.(*command.SlashContext)
	if !ok {
		return nil
	}

	p, ok := acquire(sctx, player.ChannelNone, player.MemberRequireSame)
	if !ok {
		return nil
	}

	if err := p.Stop(); err != nil {
		return command.RespondEmbedEphemeral(sctx.Session, sctx.Event, &discordgo.MessageEmbed{
			Description: fmt.Sprintf("🎵 Error: %v", err),
		})
	}
	return command.RespondEmbed(sctx.Session, sctx.Event, &discordgo.MessageEmbed{
		Description: "⏹ Playback stopped",
	})
}
