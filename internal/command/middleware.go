package command

import (
	"log"

	"github.com/bwmarrin/discordgo"
)

type Middleware func(Command) Command

type WrappedCommand struct {
	Command
	Wrap func(ctx interface{}) error
}

func (w *WrappedCommand) Run(ctx interface{}) error {
	if w.Wrap != nil {
		return w.Wrap(ctx)
	}
	return w.Command.Run(ctx)
}

func (w *WrappedCommand) SlashDefinition() *discordgo.ApplicationCommand {
	if sp, ok := w.Command.(SlashProvider); ok {
		return sp.SlashDefinition()
	}
	return nil
}

func ApplyMiddlewares(cmd Command, mws ...Middleware) Command {
	for _, mw := range mws {
		cmd = mw(cmd)
	}
	return cmd
}

// WithGuildOnly wraps a command to silently drop invocations outside a guild
func WithGuildOnly() Middleware {
	return func(cmd Command) Command {
		return &WrappedCommand{
			Command: cmd,
			Wrap: func(ctx interface{}) error {
				if v, ok := ctx.(*SlashContext); ok && v.Event.GuildID == "" {
					return nil
				}
				return cmd.Run(ctx)
			},
		}
	}
}

// WithCommandLogger wraps a command to log its execution
func WithCommandLogger() Middleware {
	return func(cmd Command) Command {
		return &WrappedCommand{
			Command: cmd,
			Wrap: func(ctx interface{}) error {
				if v, ok := ctx.(*SlashContext); ok {
					user := "unknown"
					if v.Event.Member != nil && v.Event.Member.User != nil {
						user = v.Event.Member.User.Username
					}
					log.Printf("[CMD] /%s | guild=%s user=%s", cmd.Name(), v.Event.GuildID, user)
				}
				return cmd.Run(ctx)
			},
		}
	}
}
