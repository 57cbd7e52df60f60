package music

import (
	"fmt"

	"soundkeeper/internal/command"
	"soundkeeper/internal/music/player"

	"github.com/bwmarrin/discordgo"
)

type PauseCommand struct{}

func (c *PauseCommand) Name() string        { return "pause" }
func (c *PauseCommand) Description() string { return "Pause playback" }
func (c *PauseCommand) Category() string    { return "🎵 Music" }

func (c *PauseCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Type:        discordgo.ChatApplicationCommand,
	}
}

func (c *PauseCommand) Run(ctx interface{}) error {
	sctx, ok := ctx.(*command.SlashContext)
	if !ok {
		return nil
	}

	p, ok := acquire(sctx, player.ChannelNone, player.MemberRequireSame)
	if !ok {
		return nil
	}

	if err := p.Pause(); err != nil {
		return command.RespondEmbedEphemeral(sctx.Session, sctx.Event, &discordgo.MessageEmbed{
			Description: fmt.Sprintf("🎵 Error: %v", err),
		})
	}
	return command.RespondEmbed(sctx.Session, sctx.Event, &discordgo.MessageEmbed{
		Description: "⏸ Playback paused",
	})
}

type ResumeCommand struct{}

func (c *ResumeCommand) Name() string        { return "resume" }
func (c *ResumeCommand) Description() string { return "Resume paused playback" }
func (c *ResumeCommand) Category() string    { return "🎵 Music" }

func (c *ResumeCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Type:        discordgo.ChatApplicationCommand,
	}
}

func (c *ResumeCommand) Run(ctx interface{}) error {
	sctx, ok := ctx.(*command.SlashContext)
	if !ok {
		return nil
	}

	p, ok := acquire(sctx, player.ChannelNone, player.MemberRequireSame)
	if !ok {
		return nil
	}

	if err := p.Resume(); err != nil {
		return command.RespondEmbedEphemeral(sctx.Session, sctx.Event, &discordgo.MessageEmbed{
			Description: fmt.Sprintf("🎵 Error: %v", err),
		})
	}
	return command.RespondEmbed(sctx.Session, sctx.Event, &discordgo.MessageEmbed{
		Description: "▶️ Playback resumed",
	})
}
