package player

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"soundkeeper/internal/music/cluster"
	"soundkeeper/internal/music/status"
	"soundkeeper/internal/settings"
	"soundkeeper/internal/storage"
)

// ChannelBehavior controls whether Acquire may create a session by joining
// the invoking user's voice channel when none exists.
type ChannelBehavior int

const (
	// ChannelNone never creates a session.
	ChannelNone ChannelBehavior = iota
	// ChannelJoinIfMissing joins the user's channel when no session exists.
	ChannelJoinIfMissing
)

// MemberBehavior controls whether the invoking user must share the bot's
// voice channel.
type MemberBehavior int

const (
	MemberIgnore MemberBehavior = iota
	MemberRequireSame
)

// AcquireStatus is the typed policy outcome of Acquire. It is consumed for
// user-facing messaging and is never an error.
type AcquireStatus int

const (
	AcquireSuccess AcquireStatus = iota
	AcquireUserNotInVoice
	AcquireBotNotConnected
	AcquireChannelMismatch
	AcquirePreconditionFailed
	AcquireUnknown
)

func (s AcquireStatus) Message() string {
	switch s {
	case AcquireSuccess:
		return ""
	case AcquireUserNotInVoice:
		return "You need to be in a voice channel first."
	case AcquireBotNotConnected:
		return "Nothing is playing right now."
	case AcquireChannelMismatch:
		return "You need to be in my voice channel to do that."
	case AcquirePreconditionFailed:
		return "The audio service refused to join that channel."
	default:
		return "Something went wrong acquiring the player."
	}
}

// VoiceStateResolver answers where a user currently sits in voice. An empty
// channel ID means the user is not in any voice channel of the guild.
type VoiceStateResolver interface {
	UserVoiceChannel(guildID, userID string) (string, error)
}

// ManagerConfig carries the session tunables.
type ManagerConfig struct {
	// HistoryThreshold is the minimum track duration that qualifies a play
	// for the history ledger, and the delay before the write is verified.
	HistoryThreshold time.Duration
}

// Manager owns every active playback session, at most one per guild, and
// applies the retrieval policy that turns chat commands into sessions.
type Manager struct {
	cluster  cluster.Client
	store    *storage.Storage
	settings *settings.Store
	status   *status.Publisher
	voice    VoiceStateResolver
	cfg      ManagerConfig

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewManager(cl cluster.Client, store *storage.Storage, sett *settings.Store, pub *status.Publisher, voice VoiceStateResolver, cfg ManagerConfig) *Manager {
	if cfg.HistoryThreshold <= 0 {
		cfg.HistoryThreshold = 30 * time.Second
	}
	return &Manager{
		cluster:  cl,
		store:    store,
		settings: sett,
		status:   pub,
		voice:    voice,
		cfg:      cfg,
		sessions: make(map[string]*Session),
	}
}

// Cluster exposes the rendering cluster client for track resolution.
func (m *Manager) Cluster() cluster.Client {
	return m.cluster
}

// Get returns the active session for a guild, if any.
func (m *Manager) Get(guildID string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[guildID]
	return s, ok
}

// Acquire resolves (guild, user, origin channel, behaviors) to a session or
// a typed status. Failure paths have no side effects; the only mutation is
// the successful creation of a new session.
func (m *Manager) Acquire(ctx context.Context, guildID, userID, originChannelID string, cb ChannelBehavior, mb MemberBehavior) (*Session, AcquireStatus) {
	m.mu.Lock()
	existing := m.sessions[guildID]
	m.mu.Unlock()

	if existing == nil && cb == ChannelNone {
		return nil, AcquireBotNotConnected
	}

	if existing != nil {
		if mb == MemberRequireSame {
			userChannel, err := m.voice.UserVoiceChannel(guildID, userID)
			if err != nil {
				log.Printf("[Player] Voice state lookup failed | guild=%s user=%s: %v", guildID, userID, err)
				return nil, AcquireUnknown
			}
			if userChannel != existing.ChannelID() {
				return nil, AcquireChannelMismatch
			}
		}
		return existing, AcquireSuccess
	}

	// Creation path: the user must be somewhere to join.
	userChannel, err := m.voice.UserVoiceChannel(guildID, userID)
	if err != nil {
		log.Printf("[Player] Voice state lookup failed | guild=%s user=%s: %v", guildID, userID, err)
		return nil, AcquireUnknown
	}
	if userChannel == "" {
		return nil, AcquireUserNotInVoice
	}

	return m.create(ctx, guildID, userChannel, originChannelID)
}

func (m *Manager) create(ctx context.Context, guildID, channelID, originChannelID string) (*Session, AcquireStatus) {
	s := newSession(guildID, channelID, originChannelID, m.store, m.settings, m.status, m.cfg.HistoryThreshold, m.release)

	handle, err := m.cluster.Join(ctx, guildID, channelID, s.events())
	if err != nil {
		if errors.Is(err, cluster.ErrAlreadyBound) {
			// Either a concurrent Acquire won the creation race, or the
			// cluster holds a stale binding from outside this process.
			m.mu.Lock()
			racing := m.sessions[guildID]
			m.mu.Unlock()
			if racing != nil {
				return racing, AcquireSuccess
			}
			return nil, AcquirePreconditionFailed
		}
		log.Printf("[Player] Cluster join failed | guild=%s channel=%s: %v", guildID, channelID, err)
		return nil, AcquireUnknown
	}
	s.setHandle(handle)

	if guildSettings, err := m.settings.Get(guildID); err != nil {
		log.Printf("[Player] Failed to load settings | guild=%s: %v", guildID, err)
	} else {
		s.mu.Lock()
		s.volume = guildSettings.Volume
		s.mu.Unlock()
		if err := handle.SetVolume(guildSettings.Volume); err != nil {
			log.Printf("[Player] Failed to apply volume | guild=%s: %v", guildID, err)
		}
	}

	m.mu.Lock()
	m.sessions[guildID] = s
	m.mu.Unlock()

	// The idle event can fire between Join and registration; a teardown
	// that early deregisters nothing, so re-check and release here or the
	// guild holds a dead session forever.
	if s.isClosed() {
		m.release(guildID)
		if err := handle.Leave(); err != nil && !errors.Is(err, cluster.ErrClosed) {
			log.Printf("[Player] Failed to leave voice channel | guild=%s: %v", guildID, err)
		}
		return nil, AcquireUnknown
	}

	log.Printf("[Player] Session created | guild=%s channel=%s origin=%s", guildID, channelID, originChannelID)
	return s, AcquireSuccess
}

// release deregisters a guild's session. Called from Session.teardown.
func (m *Manager) release(guildID string) {
	m.mu.Lock()
	delete(m.sessions, guildID)
	m.mu.Unlock()
}

// Shutdown tears down every active session, resetting channel statuses.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	active := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		active = append(active, s)
	}
	m.mu.Unlock()

	for _, s := range active {
		s.teardown()
	}
}
