package cluster

import (
	"context"
	"sync"
	"testing"
	"time"
)

// recorder collects lifecycle events for assertions.
type recorder struct {
	mu      sync.Mutex
	started []Track
	ended   []Track
	reasons []EndReason
	idle    int
}

func (r *recorder) events() Events {
	return Events{
		TrackStarted: func(t Track) {
			r.mu.Lock()
			r.started = append(r.started, t)
			r.mu.Unlock()
		},
		TrackEnded: func(t Track, reason EndReason) {
			r.mu.Lock()
			r.ended = append(r.ended, t)
			r.reasons = append(r.reasons, reason)
			r.mu.Unlock()
		},
		Idle: func() {
			r.mu.Lock()
			r.idle++
			r.mu.Unlock()
		},
	}
}

func (r *recorder) startedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.started)
}

func (r *recorder) idleCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.idle
}

func join(t *testing.T, c *MemoryClient, rec *recorder) Handle {
	t.Helper()
	h, err := c.Join(context.Background(), "guild-1", "chan-1", rec.events())
	if err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	return h
}

func track(uri string, d time.Duration) Track {
	return Track{URI: uri, Title: uri, Duration: d}
}

func TestMemoryClientJoin(t *testing.T) {
	t.Run("SecondBindIsRejected", func(t *testing.T) {
		c := NewMemoryClient(MemoryConfig{})
		rec := &recorder{}
		h := join(t, c, rec)
		defer h.Leave()

		if _, err := c.Join(context.Background(), "guild-1", "chan-2", rec.events()); err != ErrAlreadyBound {
			t.Errorf("expected ErrAlreadyBound, got %v", err)
		}
	})

	t.Run("RebindAfterLeave", func(t *testing.T) {
		c := NewMemoryClient(MemoryConfig{})
		rec := &recorder{}
		h := join(t, c, rec)
		if err := h.Leave(); err != nil {
			t.Fatalf("Leave failed: %v", err)
		}

		h2, err := c.Join(context.Background(), "guild-1", "chan-2", rec.events())
		if err != nil {
			t.Fatalf("rejoin failed: %v", err)
		}
		h2.Leave()
	})
}

func TestMemoryHandlePlayback(t *testing.T) {
	t.Run("QueueAdvances", func(t *testing.T) {
		c := NewMemoryClient(MemoryConfig{IdleTimeout: time.Minute})
		rec := &recorder{}
		h := join(t, c, rec)
		defer h.Leave()

		if err := h.Enqueue(track("a", 30*time.Millisecond)); err != nil {
			t.Fatalf("Enqueue failed: %v", err)
		}
		if err := h.Enqueue(track("b", 30*time.Millisecond)); err != nil {
			t.Fatalf("Enqueue failed: %v", err)
		}

		time.Sleep(150 * time.Millisecond)

		rec.mu.Lock()
		defer rec.mu.Unlock()
		if len(rec.started) != 2 {
			t.Fatalf("expected 2 track starts, got %d", len(rec.started))
		}
		if rec.started[0].URI != "a" || rec.started[1].URI != "b" {
			t.Errorf("unexpected start order: %+v", rec.started)
		}
		if len(rec.reasons) != 2 || rec.reasons[0] != EndFinished {
			t.Errorf("unexpected end reasons: %v", rec.reasons)
		}
	})

	t.Run("SkipEndsCurrentTrack", func(t *testing.T) {
		c := NewMemoryClient(MemoryConfig{IdleTimeout: time.Minute})
		rec := &recorder{}
		h := join(t, c, rec)
		defer h.Leave()

		if err := h.Enqueue(track("a", time.Minute)); err != nil {
			t.Fatalf("Enqueue failed: %v", err)
		}
		if err := h.Skip(); err != nil {
			t.Fatalf("Skip failed: %v", err)
		}

		time.Sleep(50 * time.Millisecond)
		if _, playing := h.Current(); playing {
			t.Error("expected nothing playing after skip of sole track")
		}

		rec.mu.Lock()
		defer rec.mu.Unlock()
		if len(rec.reasons) != 1 || rec.reasons[0] != EndStopped {
			t.Errorf("expected one stopped end, got %v", rec.reasons)
		}
	})

	t.Run("RepeatTrackRestarts", func(t *testing.T) {
		c := NewMemoryClient(MemoryConfig{IdleTimeout: time.Minute})
		rec := &recorder{}
		h := join(t, c, rec)
		defer h.Leave()

		if err := h.SetRepeat(RepeatTrack); err != nil {
			t.Fatalf("SetRepeat failed: %v", err)
		}
		if err := h.Enqueue(track("a", 20*time.Millisecond)); err != nil {
			t.Fatalf("Enqueue failed: %v", err)
		}

		time.Sleep(100 * time.Millisecond)
		if rec.startedCount() < 2 {
			t.Errorf("expected repeated starts, got %d", rec.startedCount())
		}
		if current, playing := h.Current(); !playing || current.URI != "a" {
			t.Errorf("expected track a still current, got %+v playing=%v", current, playing)
		}
	})

	t.Run("RepeatQueueRotates", func(t *testing.T) {
		c := NewMemoryClient(MemoryConfig{IdleTimeout: time.Minute})
		rec := &recorder{}
		h := join(t, c, rec)
		defer h.Leave()

		if err := h.SetRepeat(RepeatQueue); err != nil {
			t.Fatalf("SetRepeat failed: %v", err)
		}
		if err := h.Enqueue(track("a", 20*time.Millisecond)); err != nil {
			t.Fatalf("Enqueue failed: %v", err)
		}
		if err := h.Enqueue(track("b", 20*time.Millisecond)); err != nil {
			t.Fatalf("Enqueue failed: %v", err)
		}

		time.Sleep(110 * time.Millisecond)

		rec.mu.Lock()
		defer rec.mu.Unlock()
		if len(rec.started) < 3 {
			t.Fatalf("expected rotation to keep starting tracks, got %d", len(rec.started))
		}
		if rec.started[0].URI != "a" || rec.started[1].URI != "b" || rec.started[2].URI != "a" {
			t.Errorf("unexpected rotation order: %+v", rec.started)
		}
	})

	t.Run("PauseHoldsPosition", func(t *testing.T) {
		c := NewMemoryClient(MemoryConfig{IdleTimeout: time.Minute})
		rec := &recorder{}
		h := join(t, c, rec)
		defer h.Leave()

		if err := h.Enqueue(track("a", time.Minute)); err != nil {
			t.Fatalf("Enqueue failed: %v", err)
		}
		if err := h.Pause(); err != nil {
			t.Fatalf("Pause failed: %v", err)
		}

		pos := h.Position()
		time.Sleep(50 * time.Millisecond)
		if h.Position() != pos {
			t.Errorf("position advanced while paused: %v -> %v", pos, h.Position())
		}
		if h.Playing() {
			t.Error("expected not playing while paused")
		}

		if err := h.Resume(); err != nil {
			t.Fatalf("Resume failed: %v", err)
		}
		if !h.Playing() {
			t.Error("expected playing after resume")
		}
	})

	t.Run("SeekMovesPosition", func(t *testing.T) {
		c := NewMemoryClient(MemoryConfig{IdleTimeout: time.Minute})
		rec := &recorder{}
		h := join(t, c, rec)
		defer h.Leave()

		if err := h.Enqueue(track("a", time.Minute)); err != nil {
			t.Fatalf("Enqueue failed: %v", err)
		}
		if err := h.Seek(30 * time.Second); err != nil {
			t.Fatalf("Seek failed: %v", err)
		}
		if pos := h.Position(); pos < 30*time.Second {
			t.Errorf("expected position at least 30s, got %v", pos)
		}
	})

	t.Run("IdleFiresWithNothingPlaying", func(t *testing.T) {
		c := NewMemoryClient(MemoryConfig{IdleTimeout: 40 * time.Millisecond})
		rec := &recorder{}
		h := join(t, c, rec)
		defer h.Leave()

		time.Sleep(120 * time.Millisecond)
		if rec.idleCount() == 0 {
			t.Error("expected idle event after timeout")
		}
	})

	t.Run("TransportAfterLeave", func(t *testing.T) {
		c := NewMemoryClient(MemoryConfig{})
		rec := &recorder{}
		h := join(t, c, rec)
		h.Leave()

		if err := h.Enqueue(track("a", time.Minute)); err != ErrClosed {
			t.Errorf("expected ErrClosed, got %v", err)
		}
	})
}

func TestResolve(t *testing.T) {
	c := NewMemoryClient(MemoryConfig{})

	t.Run("URL", func(t *testing.T) {
		tracks, err := c.Resolve(context.Background(), "https://example.com/songs/shape-of-you.mp3")
		if err != nil {
			t.Fatalf("Resolve failed: %v", err)
		}
		if len(tracks) != 1 {
			t.Fatalf("expected 1 track, got %d", len(tracks))
		}
		if tracks[0].Title != "shape of you" {
			t.Errorf("unexpected title %q", tracks[0].Title)
		}
		if tracks[0].Source != "example.com" {
			t.Errorf("unexpected source %q", tracks[0].Source)
		}
	})

	t.Run("NotAURL", func(t *testing.T) {
		if _, err := c.Resolve(context.Background(), "shape of you"); err == nil {
			t.Error("expected error for non-URL input")
		}
	})
}
