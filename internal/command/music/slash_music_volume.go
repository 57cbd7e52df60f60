package music

import (
	"fmt"

	"soundkeeper/internal/command"
	"soundkeeper/internal/music/player"

	"github.com/bwmarrin/discordgo"
)

type VolumeCommand struct{}

func (c *VolumeCommand) Name() string        { return "volume" }
func (c *VolumeCommand) Description() string { return "Set the playback volume (0-200%)" }
func (c *VolumeCommand) Category() string    { return "🎵 Music" }

func (c *VolumeCommand) SlashDefinition() *discordgo.ApplicationCommand {
	minVol := float64(0)
	maxVol := float64(200)
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Type:        discordgo.ChatApplicationCommand,
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionInteger,
				Name:        "percent",
				Description: "Volume as a percentage, 100 is normal",
				Required:    true,
				MinValue:    &minVol,
				MaxValue:    maxVol,
			},
		},
	}
}

func (c *VolumeCommand) Run(ctx interface{}) error {
	sctx, ok := ctx.(*command.SlashContext)
	if !ok {
		return nil
	}

	percent, found := optionInt(sctx.Event, "percent")
	if !found {
		return command.RespondEmbedEphemeral(sctx.Session, sctx.Event, &discordgo.MessageEmbed{
			Description: "🎵 Error: percent is required",
		})
	}

	p, ok := acquire(sctx, player.ChannelNone, player.MemberRequireSame)
	if !ok {
		return nil
	}

	if err := p.SetVolume(float64(percent) / 100); err != nil {
		return command.RespondEmbedEphemeral(sctx.Session, sctx.Event, &discordgo.MessageEmbed{
			Description: fmt.Sprintf("🎵 Error: %v", err),
		})
	}
	return command.RespondEmbed(sctx.Session, sctx.Event, &discordgo.MessageEmbed{
		Description: fmt.Sprintf("🔊 Volume set to %d%%", percent),
	})
}
