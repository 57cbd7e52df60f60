// /internal/storage/models.go
package storage

import "time"

// GuildSettings is the durable per-guild settings row. Volume is a gain
// multiplier in [0.0, 2.0].
type GuildSettings struct {
	GuildID string  `gorm:"primaryKey"`
	Volume  float64 `gorm:"not null;default:1.0"`
}

// Track is an immutable catalog row, unique per source URI. Rows are
// find-or-created and never updated afterwards.
type Track struct {
	ID              uint   `gorm:"primaryKey;autoIncrement"`
	URI             string `gorm:"uniqueIndex;not null"`
	Title           string `gorm:"not null"`
	Artist          string
	ThumbnailURL    string
	DurationSeconds int
	Source          string
	CreatedAt       time.Time
}

// Requester is a reference row for a user that has requested playback.
type Requester struct {
	ID        string `gorm:"primaryKey"`
	CreatedAt time.Time
}

// PlayHistory is the append-only ledger. One row per qualifying play.
type PlayHistory struct {
	ID          uint   `gorm:"primaryKey;autoIncrement"`
	GuildID     string `gorm:"index;not null"`
	TrackID     uint   `gorm:"index;not null"`
	Track       Track  `gorm:"foreignKey:TrackID"`
	RequesterID string `gorm:"index;not null"`
	PlayedAt    time.Time
}
