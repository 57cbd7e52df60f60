package music

import (
	"fmt"

	"soundkeeper/internal/command"
	"soundkeeper/internal/music/player"

	"github.com/bwmarrin/discordgo"
)

type SkipCommand struct{}

func (c *SkipCommand) Name() string        { return "skip" }
func (c *SkipCommand) Description() string { return "Skip the current track" }
func (c *SkipCommand) Category() string    { return "🎵 Music" }

func (c *SkipCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Type:        discordgo.ChatApplicationCommand,
	}
}

func (c *SkipCommand) Run(ctx interface{}) error {
	sctx, ok := ctx.(*command.SlashContext)
	if !ok {
		return nil
	}

	p, ok := acquire(sctx, player.ChannelNone, player.MemberRequireSame)
	if !ok {
		return nil
	}

	if err := p.Skip(); err != nil {
		return command.RespondEmbedEphemeral(sctx.Session, sctx.Event, &discordgo.MessageEmbed{
			Description: fmt.Sprintf("🎵 Error: %v", err),
		})
	}
	return command.RespondEmbed(sctx.Session, sctx.Event, &discordgo.MessageEmbed{
		Description: "⏭ Track skipped",
	})
}
