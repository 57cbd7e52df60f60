package player

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"soundkeeper/internal/music/cluster"
	"soundkeeper/internal/music/status"
	"soundkeeper/internal/settings"
	"soundkeeper/internal/storage"
	"soundkeeper/pkg/tasks"
)

// historyJob names the per-session delayed history write. One slot per
// session: a new track start replaces any pending write for the old track.
const historyJob = "history"

// Session is the in-memory playback state for one guild's active audio
// connection. It owns a cluster handle and reacts to the track lifecycle:
// status updates and history writes happen in supervised background work
// that never blocks or fails a transport call.
type Session struct {
	guildID       string
	channelID     string
	originChannel string

	store    *storage.Storage
	settings *settings.Store
	status   *status.Publisher
	tasks    *tasks.Supervisor

	// historyThreshold is both the minimum track duration that qualifies
	// for the play ledger and the delay before the write is verified.
	historyThreshold time.Duration

	onClose func(guildID string)

	mu     sync.Mutex
	handle cluster.Handle
	repeat cluster.RepeatMode
	volume float64
	closed bool
}

func newSession(guildID, channelID, originChannel string, store *storage.Storage, sett *settings.Store, pub *status.Publisher, threshold time.Duration, onClose func(string)) *Session {
	s := &Session{
		guildID:          guildID,
		channelID:        channelID,
		originChannel:    originChannel,
		store:            store,
		settings:         sett,
		status:           pub,
		historyThreshold: threshold,
		onClose:          onClose,
		volume:           settings.DefaultVolume,
	}
	s.tasks = tasks.NewSupervisor(func(name string, err error) {
		log.Printf("[Player] Background task %s failed for guild %s: %v", name, guildID, err)
	})
	return s
}

// events returns the lifecycle callbacks registered with the cluster at
// join time.
func (s *Session) events() cluster.Events {
	return cluster.Events{
		TrackStarted: s.onTrackStarted,
		TrackEnded:   s.onTrackEnded,
		Idle:         s.onIdle,
	}
}

func (s *Session) GuildID() string        { return s.guildID }
func (s *Session) ChannelID() string      { return s.channelID }
func (s *Session) OriginChannel() string  { return s.originChannel }
func (s *Session) RepeatMode() cluster.RepeatMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repeat
}

func (s *Session) Volume() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volume
}

// --- transport operations -------------------------------------------------

func (s *Session) Enqueue(track cluster.Track) error {
	h, err := s.liveHandle()
	if err != nil {
		return err
	}
	if err := h.Enqueue(track); err != nil {
		return fmt.Errorf("failed to enqueue track: %w", err)
	}
	return nil
}

func (s *Session) Skip() error {
	h, err := s.liveHandle()
	if err != nil {
		return err
	}
	return h.Skip()
}

func (s *Session) Pause() error {
	h, err := s.liveHandle()
	if err != nil {
		return err
	}
	return h.Pause()
}

func (s *Session) Resume() error {
	h, err := s.liveHandle()
	if err != nil {
		return err
	}
	return h.Resume()
}

func (s *Session) Seek(pos time.Duration) error {
	h, err := s.liveHandle()
	if err != nil {
		return err
	}
	return h.Seek(pos)
}

// SetVolume persists the clamped volume and applies it to the cluster. The
// durable write happens first so a cluster failure cannot desync the two.
func (s *Session) SetVolume(volume float64) error {
	h, err := s.liveHandle()
	if err != nil {
		return err
	}

	saved, err := s.settings.SetVolume(s.guildID, volume)
	if err != nil {
		return fmt.Errorf("failed to save volume: %w", err)
	}
	if err := h.SetVolume(saved.Volume); err != nil {
		return fmt.Errorf("failed to apply volume: %w", err)
	}

	s.mu.Lock()
	s.volume = saved.Volume
	s.mu.Unlock()
	return nil
}

func (s *Session) SetRepeat(mode cluster.RepeatMode) error {
	h, err := s.liveHandle()
	if err != nil {
		return err
	}
	if err := h.SetRepeat(mode); err != nil {
		return err
	}
	s.mu.Lock()
	s.repeat = mode
	s.mu.Unlock()
	return nil
}

func (s *Session) Current() (cluster.Track, bool) {
	h, err := s.liveHandle()
	if err != nil {
		return cluster.Track{}, false
	}
	return h.Current()
}

func (s *Session) Queue() []cluster.Track {
	h, err := s.liveHandle()
	if err != nil {
		return nil
	}
	return h.Queue()
}

func (s *Session) Position() time.Duration {
	h, err := s.liveHandle()
	if err != nil {
		return 0
	}
	return h.Position()
}

func (s *Session) Playing() bool {
	h, err := s.liveHandle()
	if err != nil {
		return false
	}
	return h.Playing()
}

// Stop ends playback and tears the session down: the queue is dropped, the
// channel status is reset, and the guild is free for a new session.
func (s *Session) Stop() error {
	h, err := s.liveHandle()
	if err != nil {
		return err
	}
	if err := h.Stop(); err != nil {
		return err
	}
	s.teardown()
	return nil
}

// --- lifecycle events (cluster dispatch goroutine) ------------------------

func (s *Session) onTrackStarted(track cluster.Track) {
	log.Printf("[Player] Track started | guild=%s title=%q", s.guildID, track.Title)

	s.status.Publish(s.channelID, status.FormatTrack(track.Title), false)

	if track.Duration < s.historyThreshold {
		// Too short to ever qualify; make sure no stale job records the
		// previous track either.
		s.tasks.Cancel(historyJob)
		return
	}

	uri := track.URI
	info := storage.TrackInfo{
		URI:             track.URI,
		Title:           track.Title,
		Artist:          track.Artist,
		ThumbnailURL:    track.ThumbnailURL,
		DurationSeconds: int(track.Duration / time.Second),
		Source:          track.Source,
	}
	requester := track.RequesterID

	s.tasks.After(historyJob, s.historyThreshold, func(ctx context.Context) error {
		// The track may have been skipped or replaced while this job
		// waited. Only the play that is still current and still rendering
		// qualifies for the ledger.
		h, err := s.liveHandle()
		if err != nil {
			return nil
		}
		current, ok := h.Current()
		if !ok || current.URI != uri || !h.Playing() {
			return nil
		}
		return s.store.RecordPlay(s.guildID, info, requester)
	})
}

func (s *Session) onTrackEnded(track cluster.Track, reason cluster.EndReason) {
	log.Printf("[Player] Track ended | guild=%s title=%q reason=%s", s.guildID, track.Title, reason)

	h, err := s.liveHandle()
	if err != nil {
		return
	}

	if _, stillPlaying := h.Current(); stillPlaying {
		return // the cluster already advanced to the next track
	}
	if reason == cluster.EndReplaced {
		return
	}
	if s.RepeatMode() != cluster.RepeatNone {
		return
	}
	if len(h.Queue()) != 0 {
		return
	}

	s.tasks.Cancel(historyJob)
	// The channel is going quiet; resets bypass ownership on purpose.
	s.status.Publish(s.channelID, "", true)
}

func (s *Session) onIdle() {
	log.Printf("[Player] Inactivity timeout | guild=%s", s.guildID)
	s.teardown()
}

// teardown cancels outstanding background work, resets the channel status,
// and deregisters the session. Safe to call more than once.
func (s *Session) teardown() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	h := s.handle
	s.handle = nil
	s.mu.Unlock()

	s.tasks.Shutdown()
	s.status.Publish(s.channelID, "", true)

	if h != nil {
		if err := h.Leave(); err != nil && err != cluster.ErrClosed {
			log.Printf("[Player] Failed to leave voice channel: %v", err)
		}
	}

	if s.onClose != nil {
		s.onClose(s.guildID)
	}
}

// liveHandle returns the cluster handle or ErrClosed once the session has
// been torn down.
func (s *Session) liveHandle() (cluster.Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.handle == nil {
		return nil, cluster.ErrClosed
	}
	return s.handle, nil
}

func (s *Session) setHandle(h cluster.Handle) {
	s.mu.Lock()
	s.handle = h
	s.mu.Unlock()
}

func (s *Session) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
