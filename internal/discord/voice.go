package discord

import "fmt"

// UserVoiceChannel reports the voice channel a user currently occupies in a
// guild. An empty string means the user is not in voice. Implements
// player.VoiceStateResolver.
func (b *Bot) UserVoiceChannel(guildID, userID string) (string, error) {
	guild, err := b.dg.State.Guild(guildID)
	if err != nil {
		return "", fmt.Errorf("error retrieving guild: %w", err)
	}

	for _, vs := range guild.VoiceStates {
		if vs.UserID == userID {
			return vs.ChannelID, nil
		}
	}
	return "", nil
}
