package discord

import (
	"encoding/json"
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// channelStatusAPI talks to the voice channel status endpoint, which
// discordgo does not wrap. Implements status.StatusAPI.
type channelStatusAPI struct {
	dg *discordgo.Session
}

func (a *channelStatusAPI) Get(channelID string) (string, error) {
	endpoint := discordgo.EndpointChannel(channelID)
	body, err := a.dg.RequestWithBucketID("GET", endpoint, nil, endpoint)
	if err != nil {
		return "", fmt.Errorf("failed to fetch channel %s: %w", channelID, err)
	}

	var payload struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("failed to decode channel %s: %w", channelID, err)
	}
	return payload.Status, nil
}

func (a *channelStatusAPI) Set(channelID, text string) error {
	endpoint := discordgo.EndpointChannel(channelID) + "/voice-status"
	payload := struct {
		Status string `json:"status"`
	}{Status: text}

	_, err := a.dg.RequestWithBucketID("PUT", endpoint, payload, endpoint)
	if err != nil {
		return fmt.Errorf("failed to set status of channel %s: %w", channelID, err)
	}
	return nil
}
