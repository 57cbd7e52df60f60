package music

import (
	"fmt"
	"strings"

	"soundkeeper/internal/command"
	"soundkeeper/internal/music/player"

	"github.com/bwmarrin/discordgo"
)

type QueueCommand struct{}

func (c *QueueCommand) Name() string        { return "queue" }
func (c *QueueCommand) Description() string { return "Show the current track and queue" }
func (c *QueueCommand) Category() string    { return "🎵 Music" }

func (c *QueueCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Type:        discordgo.ChatApplicationCommand,
	}
}

func (c *QueueCommand) Run(ctx interface{}) error {
	sctx, ok := ctx.(*command.SlashContext)
	if !ok {
		return nil
	}

	p, ok := acquire(sctx, player.ChannelNone, player.MemberIgnore)
	if !ok {
		return nil
	}

	var b strings.Builder
	if track, playing := p.Current(); playing {
		fmt.Fprintf(&b, "🎶 Now playing: [%s](%s) at %s / %s\n",
			track.Title, track.URI, formatDuration(p.Position()), formatDuration(track.Duration))
	} else {
		b.WriteString("Nothing is playing.\n")
	}

	queue := p.Queue()
	for i, track := range queue {
		if i == 10 {
			fmt.Fprintf(&b, "…and %d more\n", len(queue)-i)
			break
		}
		fmt.Fprintf(&b, "%d. [%s](%s) — %s\n", i+1, track.Title, track.URI, formatDuration(track.Duration))
	}

	return command.RespondEmbed(sctx.Session, sctx.Event, &discordgo.MessageEmbed{
		Title:       "Queue",
		Description: b.String(),
	})
}
