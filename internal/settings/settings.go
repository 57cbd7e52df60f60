// /internal/settings/settings.go
package settings

import (
	"fmt"
	"sync"
	"time"

	"soundkeeper/internal/storage"
	"soundkeeper/pkg/keymutex"
)

const (
	DefaultVolume = 1.0
	MinVolume     = 0.0
	MaxVolume     = 2.0

	defaultCacheTTL = 6 * time.Hour
)

type cacheEntry struct {
	settings  storage.GuildSettings
	expiresAt time.Time
}

// Store is a read-through, write-through cache over the durable guild
// settings rows. Cache entries expire on a sliding window refreshed by
// every hit; the per-guild creation lock guarantees a missing row is
// created at most once no matter how many callers race the first Get.
type Store struct {
	storage *storage.Storage
	ttl     time.Duration

	mu    sync.Mutex
	cache map[string]*cacheEntry

	locks keymutex.Locker
}

func New(st *storage.Storage, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &Store{
		storage: st,
		ttl:     ttl,
		cache:   make(map[string]*cacheEntry),
	}
}

// Get returns the settings for a guild, creating the default row if none
// exists yet.
func (s *Store) Get(guildID string) (storage.GuildSettings, error) {
	if settings, ok := s.lookup(guildID); ok {
		return settings, nil
	}

	unlock := s.locks.Lock(guildID)
	defer unlock()

	// Re-check under the lock: another caller may have populated the
	// cache while this one waited.
	if settings, ok := s.lookup(guildID); ok {
		return settings, nil
	}

	row, found, err := s.storage.GetSettings(guildID)
	if err != nil {
		return storage.GuildSettings{}, err
	}
	if !found {
		row = &storage.GuildSettings{GuildID: guildID, Volume: DefaultVolume}
		if err := s.storage.SaveSettings(row); err != nil {
			return storage.GuildSettings{}, fmt.Errorf("failed to create default settings: %w", err)
		}
	}

	s.put(guildID, *row)
	return *row, nil
}

// SetVolume clamps volume to the allowed range, writes it through to the
// durable store, and replaces the cache entry unconditionally. The guild
// lock orders the write against Get's read-then-populate, so a slow Get
// cannot re-populate the cache with a row this write has superseded.
func (s *Store) SetVolume(guildID string, volume float64) (storage.GuildSettings, error) {
	if volume < MinVolume {
		volume = MinVolume
	}
	if volume > MaxVolume {
		volume = MaxVolume
	}

	unlock := s.locks.Lock(guildID)
	defer unlock()

	row := storage.GuildSettings{GuildID: guildID, Volume: volume}
	if err := s.storage.SaveSettings(&row); err != nil {
		return storage.GuildSettings{}, err
	}

	s.put(guildID, row)
	return row, nil
}

// Invalidate drops the cached entry for a guild.
func (s *Store) Invalidate(guildID string) {
	s.mu.Lock()
	delete(s.cache, guildID)
	s.mu.Unlock()
}

// lookup returns a live cache entry and slides its expiration forward.
func (s *Store) lookup(guildID string) (storage.GuildSettings, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.cache[guildID]
	if !ok {
		return storage.GuildSettings{}, false
	}
	if time.Now().After(entry.expiresAt) {
		delete(s.cache, guildID)
		return storage.GuildSettings{}, false
	}
	entry.expiresAt = time.Now().Add(s.ttl)
	return entry.settings, true
}

func (s *Store) put(guildID string, settings storage.GuildSettings) {
	s.mu.Lock()
	s.cache[guildID] = &cacheEntry{
		settings:  settings,
		expiresAt: time.Now().Add(s.ttl),
	}
	s.mu.Unlock()
}
