package music

import (
	"context"
	"fmt"
	"time"

	"soundkeeper/internal/command"
	"soundkeeper/internal/music/player"

	"github.com/bwmarrin/discordgo"
)

// acquire resolves the invoker to a playback session under the given
// behaviors, answering the interaction with the policy message on failure.
func acquire(ctx *command.SlashContext, cb player.ChannelBehavior, mb player.MemberBehavior) (*player.Session, bool) {
	event := ctx.Event
	session, status := ctx.Deps.Manager.Acquire(
		context.Background(),
		event.GuildID,
		event.Member.User.ID,
		event.ChannelID,
		cb, mb,
	)
	if status != player.AcquireSuccess {
		_ = command.RespondEmbedEphemeral(ctx.Session, event, &discordgo.MessageEmbed{
			Description: "🎵 " + status.Message(),
		})
		return nil, false
	}
	return session, true
}

func optionString(event *discordgo.InteractionCreate, name string) string {
	for _, opt := range event.ApplicationCommandData().Options {
		if opt.Name == name {
			return opt.StringValue()
		}
	}
	return ""
}

func optionInt(event *discordgo.InteractionCreate, name string) (int64, bool) {
	for _, opt := range event.ApplicationCommandData().Options {
		if opt.Name == name {
			return opt.IntValue(), true
		}
	}
	return 0, false
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	m := (d % time.Hour) / time.Minute
	s := (d % time.Minute) / time.Second
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
