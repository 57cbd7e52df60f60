// /internal/music/cluster/memory.go
package cluster

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"path"
	"strings"
	"sync"
	"time"
)

const defaultIdleTimeout = 5 * time.Minute

// MemoryConfig tunes the in-process node.
type MemoryConfig struct {
	// IdleTimeout is how long a bound guild may sit without an active
	// track before the Idle event fires.
	IdleTimeout time.Duration
}

// MemoryClient is an in-process rendering node. It honors the full Handle
// contract (queue advance, repeat modes, playback clock, idle timeout)
// without producing audio, and stands in when no remote nodes are
// configured. All tests run against it.
type MemoryClient struct {
	cfg MemoryConfig

	mu      sync.Mutex
	handles map[string]*memoryHandle
}

func NewMemoryClient(cfg MemoryConfig) *MemoryClient {
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = defaultIdleTimeout
	}
	return &MemoryClient{
		cfg:     cfg,
		handles: make(map[string]*memoryHandle),
	}
}

func (c *MemoryClient) Join(ctx context.Context, guildID, channelID string, events Events) (Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.handles[guildID]; ok {
		return nil, ErrAlreadyBound
	}

	h := &memoryHandle{
		client:    c,
		guildID:   guildID,
		channelID: channelID,
		events:    events,
		volume:    1.0,
		dispatch:  make(chan func(), 16),
		quit:      make(chan struct{}),
	}
	go h.run()
	h.mu.Lock()
	h.armIdleTimer()
	h.mu.Unlock()

	c.handles[guildID] = h
	return h, nil
}

// Resolve parses input as a single media URL. The in-process node has no
// catalog to query, so the title falls out of the URL path and the duration
// is a placeholder.
func (c *MemoryClient) Resolve(ctx context.Context, input string) ([]Track, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	input = strings.TrimSpace(input)
	u, err := url.Parse(input)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("cannot resolve %q: not a media URL", input)
	}

	title := path.Base(u.Path)
	title = strings.TrimSuffix(title, path.Ext(title))
	title = strings.ReplaceAll(strings.ReplaceAll(title, "-", " "), "_", " ")
	if title == "" || title == "." || title == "/" {
		title = u.Host
	}

	return []Track{{
		URI:      input,
		Title:    title,
		Duration: 3 * time.Minute,
		Source:   u.Host,
	}}, nil
}

func (c *MemoryClient) release(guildID string) {
	c.mu.Lock()
	delete(c.handles, guildID)
	c.mu.Unlock()
}

type memoryHandle struct {
	client    *MemoryClient
	guildID   string
	channelID string
	events    Events

	mu      sync.Mutex
	closed  bool
	queue   []Track
	current *Track
	paused  bool
	repeat  RepeatMode
	volume  float64

	startedAt time.Time
	elapsed   time.Duration

	endTimer  *time.Timer
	idleTimer *time.Timer

	dispatch chan func()
	quit     chan struct{}
}

// run delivers events one at a time, off the handle's lock.
func (h *memoryHandle) run() {
	for {
		select {
		case fn := <-h.dispatch:
			fn()
		case <-h.quit:
			return
		}
	}
}

func (h *memoryHandle) emit(fn func()) {
	select {
	case h.dispatch <- fn:
	default:
		// The consumer is wedged; dropping beats deadlocking the node.
		log.Printf("[Cluster] Event dropped for guild %s (dispatch queue full)", h.guildID)
	}
}

func (h *memoryHandle) GuildID() string   { return h.guildID }
func (h *memoryHandle) ChannelID() string { return h.channelID }

func (h *memoryHandle) Enqueue(track Track) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrClosed
	}

	if h.current == nil {
		h.startLocked(track)
		return nil
	}
	h.queue = append(h.queue, track)
	return nil
}

func (h *memoryHandle) Skip() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrClosed
	}
	if h.current == nil {
		return ErrNothingPlaying
	}
	// A manual skip never honors RepeatTrack; the listener asked to move on.
	h.endLocked(EndStopped, h.repeat == RepeatQueue)
	return nil
}

func (h *memoryHandle) Seek(pos time.Duration) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrClosed
	}
	if h.current == nil {
		return ErrNothingPlaying
	}
	if pos < 0 {
		pos = 0
	}
	if pos > h.current.Duration {
		pos = h.current.Duration
	}
	h.elapsed = pos
	h.startedAt = time.Now()
	if !h.paused {
		h.armEndTimer(h.current.Duration - pos)
	}
	return nil
}

func (h *memoryHandle) Pause() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrClosed
	}
	if h.current == nil {
		return ErrNothingPlaying
	}
	if h.paused {
		return nil
	}
	h.elapsed += time.Since(h.startedAt)
	h.paused = true
	h.stopEndTimer()
	return nil
}

func (h *memoryHandle) Resume() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrClosed
	}
	if h.current == nil {
		return ErrNothingPlaying
	}
	if !h.paused {
		return nil
	}
	h.paused = false
	h.startedAt = time.Now()
	h.armEndTimer(h.current.Duration - h.elapsed)
	return nil
}

func (h *memoryHandle) Stop() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrClosed
	}
	h.queue = nil
	if h.current != nil {
		h.endLocked(EndStopped, false)
	}
	return nil
}

func (h *memoryHandle) SetVolume(volume float64) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrClosed
	}
	h.volume = volume
	return nil
}

func (h *memoryHandle) SetRepeat(mode RepeatMode) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrClosed
	}
	h.repeat = mode
	return nil
}

func (h *memoryHandle) Current() (Track, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.current == nil {
		return Track{}, false
	}
	return *h.current, true
}

func (h *memoryHandle) Queue() []Track {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Track, len(h.queue))
	copy(out, h.queue)
	return out
}

func (h *memoryHandle) Position() time.Duration {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.current == nil {
		return 0
	}
	if h.paused {
		return h.elapsed
	}
	return h.elapsed + time.Since(h.startedAt)
}

func (h *memoryHandle) Playing() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current != nil && !h.paused
}

func (h *memoryHandle) Leave() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return ErrClosed
	}
	h.closed = true
	h.stopEndTimer()
	h.stopIdleTimer()
	h.current = nil
	h.queue = nil
	h.mu.Unlock()

	h.client.release(h.guildID)
	close(h.quit)
	return nil
}

// startLocked begins rendering a track. Caller holds h.mu.
func (h *memoryHandle) startLocked(track Track) {
	h.stopIdleTimer()
	t := track
	h.current = &t
	h.paused = false
	h.elapsed = 0
	h.startedAt = time.Now()
	h.armEndTimer(track.Duration)

	if h.events.TrackStarted != nil {
		h.emit(func() { h.events.TrackStarted(t) })
	}
}

// endLocked finishes the current track and advances per repeat mode.
// Caller holds h.mu.
func (h *memoryHandle) endLocked(reason EndReason, requeue bool) {
	ended := *h.current
	h.current = nil
	h.stopEndTimer()

	if h.events.TrackEnded != nil {
		h.emit(func() { h.events.TrackEnded(ended, reason) })
	}

	if requeue {
		h.queue = append(h.queue, ended)
	}

	if len(h.queue) > 0 {
		next := h.queue[0]
		h.queue = h.queue[1:]
		h.startLocked(next)
		return
	}
	h.armIdleTimer()
}

// onTrackFinished is the end-timer callback: natural end of rendering.
func (h *memoryHandle) onTrackFinished() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed || h.current == nil || h.paused {
		return
	}

	switch h.repeat {
	case RepeatTrack:
		ended := *h.current
		if h.events.TrackEnded != nil {
			h.emit(func() { h.events.TrackEnded(ended, EndFinished) })
		}
		h.startLocked(ended)
	case RepeatQueue:
		h.endLocked(EndFinished, true)
	default:
		h.endLocked(EndFinished, false)
	}
}

func (h *memoryHandle) armEndTimer(in time.Duration) {
	h.stopEndTimer()
	if in < 0 {
		in = 0
	}
	h.endTimer = time.AfterFunc(in, h.onTrackFinished)
}

func (h *memoryHandle) stopEndTimer() {
	if h.endTimer != nil {
		h.endTimer.Stop()
		h.endTimer = nil
	}
}

func (h *memoryHandle) armIdleTimer() {
	h.stopIdleTimer()
	h.idleTimer = time.AfterFunc(h.client.cfg.IdleTimeout, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if h.closed || h.current != nil {
			return
		}
		if h.events.Idle != nil {
			h.emit(func() { h.events.Idle() })
		}
	})
}

func (h *memoryHandle) stopIdleTimer() {
	if h.idleTimer != nil {
		h.idleTimer.Stop()
		h.idleTimer = nil
	}
}
