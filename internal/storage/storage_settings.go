// /internal/storage/storage_settings.go
package storage

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GetSettings fetches the settings row for a guild. The second return value
// reports whether the row exists.
func (s *Storage) GetSettings(guildID string) (*GuildSettings, bool, error) {
	var settings GuildSettings
	err := s.db.First(&settings, "guild_id = ?", guildID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read settings for guild %s: %w", guildID, err)
	}
	return &settings, true, nil
}

// SaveSettings inserts or updates the settings row for a guild.
func (s *Storage) SaveSettings(settings *GuildSettings) error {
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "guild_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"volume"}),
	}).Create(settings).Error
	if err != nil {
		return fmt.Errorf("failed to save settings for guild %s: %w", settings.GuildID, err)
	}
	return nil
}
