// /internal/storage/storage_history.go
package storage

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sahilm/fuzzy"
	"gorm.io/gorm"
)

// TrackInfo describes a track as reported by the rendering cluster, before
// it has a catalog row.
type TrackInfo struct {
	URI             string
	Title           string
	Artist          string
	ThumbnailURL    string
	DurationSeconds int
	Source          string
}

// TrackPlays pairs a catalog row with its play count for a guild.
type TrackPlays struct {
	Track Track
	Plays int64
}

// RecordPlay upserts the track by URI, makes sure the requester and guild
// rows exist, and appends one history entry. Everything happens in a single
// transaction so the ledger never references a missing row.
func (s *Storage) RecordPlay(guildID string, info TrackInfo, requesterID string) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var track Track
		err := tx.First(&track, "uri = ?", info.URI).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			track = Track{
				URI:             info.URI,
				Title:           info.Title,
				Artist:          info.Artist,
				ThumbnailURL:    info.ThumbnailURL,
				DurationSeconds: info.DurationSeconds,
				Source:          info.Source,
			}
			if err := tx.Create(&track).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		requester := Requester{ID: requesterID}
		if err := tx.FirstOrCreate(&requester, Requester{ID: requesterID}).Error; err != nil {
			return err
		}
		if err := tx.Where(GuildSettings{GuildID: guildID}).
			Attrs(GuildSettings{Volume: 1.0}).
			FirstOrCreate(&GuildSettings{}).Error; err != nil {
			return err
		}

		return tx.Create(&PlayHistory{
			GuildID:     guildID,
			TrackID:     track.ID,
			RequesterID: requesterID,
			PlayedAt:    time.Now(),
		}).Error
	})
	if err != nil {
		return fmt.Errorf("failed to record play for guild %s: %w", guildID, err)
	}
	return nil
}

// trackSource adapts a track slice to the fuzzy matcher.
type trackSource []Track

func (t trackSource) String(i int) string { return t[i].Title }
func (t trackSource) Len() int            { return len(t) }

// SearchTracks finds catalog rows for a search term. URL-looking terms are
// matched as URI substrings; everything else is ranked by title similarity
// with a substring fallback. At most 24 rows, best match first.
func (s *Storage) SearchTracks(term string) ([]Track, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, nil
	}

	if looksLikeURL(term) {
		var tracks []Track
		err := s.db.Where("uri LIKE ?", "%"+term+"%").
			Limit(searchResultLimit).Find(&tracks).Error
		if err != nil {
			return nil, fmt.Errorf("failed to search tracks by uri: %w", err)
		}
		return tracks, nil
	}

	var all []Track
	if err := s.db.Find(&all).Error; err != nil {
		return nil, fmt.Errorf("failed to load track catalog: %w", err)
	}

	matches := fuzzy.FindFrom(term, trackSource(all))
	results := make([]Track, 0, searchResultLimit)
	for _, m := range matches {
		if m.Score < s.MinFuzzyScore {
			continue
		}
		results = append(results, all[m.Index])
		if len(results) == searchResultLimit {
			return results, nil
		}
	}

	if len(results) == 0 {
		lowered := strings.ToLower(term)
		for _, t := range all {
			if strings.Contains(strings.ToLower(t.Title), lowered) {
				results = append(results, t)
				if len(results) == searchResultLimit {
					break
				}
			}
		}
	}

	return results, nil
}

func looksLikeURL(term string) bool {
	lowered := strings.ToLower(term)
	return strings.HasPrefix(lowered, "http://") ||
		strings.HasPrefix(lowered, "https://") ||
		strings.HasPrefix(lowered, "www.")
}

// TopPlays returns the most played tracks for a guild, optionally filtered
// by requester, ordered by play count descending.
func (s *Storage) TopPlays(guildID, requesterID string, limit int) ([]TrackPlays, error) {
	if limit <= 0 {
		limit = 10
	}

	var rows []struct {
		TrackID uint
		Plays   int64
	}
	q := s.db.Model(&PlayHistory{}).
		Select("track_id, COUNT(*) AS plays").
		Where("guild_id = ?", guildID)
	if requesterID != "" {
		q = q.Where("requester_id = ?", requesterID)
	}
	err := q.Group("track_id").Order("plays DESC").Limit(limit).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate plays for guild %s: %w", guildID, err)
	}

	out := make([]TrackPlays, 0, len(rows))
	for _, r := range rows {
		var track Track
		if err := s.db.First(&track, r.TrackID).Error; err != nil {
			return nil, fmt.Errorf("failed to load track %d: %w", r.TrackID, err)
		}
		out = append(out, TrackPlays{Track: track, Plays: r.Plays})
	}
	return out, nil
}
