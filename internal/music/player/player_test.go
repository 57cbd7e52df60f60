package player

import (
	"context"
	"sync"
	"testing"
	"time"

	"soundkeeper/internal/music/cluster"
	"soundkeeper/internal/music/status"
	"soundkeeper/internal/settings"
	"soundkeeper/internal/storage"
)

type fakeVoice struct {
	mu       sync.Mutex
	channels map[string]string // "guild/user" -> channel
	err      error
}

func (f *fakeVoice) UserVoiceChannel(guildID, userID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	return f.channels[guildID+"/"+userID], nil
}

func (f *fakeVoice) place(guildID, userID, channelID string) {
	f.mu.Lock()
	f.channels[guildID+"/"+userID] = channelID
	f.mu.Unlock()
}

type fakeStatusAPI struct {
	mu      sync.Mutex
	current map[string]string
	writes  []string
}

func (f *fakeStatusAPI) Get(channelID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current[channelID], nil
}

func (f *fakeStatusAPI) Set(channelID, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.current[channelID] = text
	f.writes = append(f.writes, text)
	return nil
}

func (f *fakeStatusAPI) lastWrite() (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.writes) == 0 {
		return "", false
	}
	return f.writes[len(f.writes)-1], true
}

type fixture struct {
	manager *Manager
	store   *storage.Storage
	sett    *settings.Store
	api     *fakeStatusAPI
	voice   *fakeVoice
}

func newFixture(t *testing.T, threshold, idleTimeout time.Duration) *fixture {
	t.Helper()

	st, err := storage.New(":memory:")
	if err != nil {
		t.Fatalf("failed to open storage: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	sett := settings.New(st, time.Hour)
	api := &fakeStatusAPI{current: make(map[string]string)}
	pub := status.New(api, 20*time.Millisecond)
	t.Cleanup(pub.Close)

	cl := cluster.NewMemoryClient(cluster.MemoryConfig{IdleTimeout: idleTimeout})
	voice := &fakeVoice{channels: make(map[string]string)}

	m := NewManager(cl, st, sett, pub, voice, ManagerConfig{HistoryThreshold: threshold})
	t.Cleanup(m.Shutdown)

	return &fixture{manager: m, store: st, sett: sett, api: api, voice: voice}
}

func (f *fixture) session(t *testing.T) *Session {
	t.Helper()
	f.voice.place("guild-1", "user-1", "voice-1")
	s, st := f.manager.Acquire(context.Background(), "guild-1", "user-1", "text-1", ChannelJoinIfMissing, MemberRequireSame)
	if st != AcquireSuccess {
		t.Fatalf("Acquire failed with status %d", st)
	}
	return s
}

func (f *fixture) plays(t *testing.T) []storage.TrackPlays {
	t.Helper()
	rows, err := f.store.TopPlays("guild-1", "", 10)
	if err != nil {
		t.Fatalf("TopPlays failed: %v", err)
	}
	return rows
}

func testTrack(uri string, d time.Duration) cluster.Track {
	return cluster.Track{URI: uri, Title: uri, Duration: d, RequesterID: "user-1"}
}

func TestHistoryQualification(t *testing.T) {
	t.Run("ShortTrackLeavesNoTrace", func(t *testing.T) {
		f := newFixture(t, 50*time.Millisecond, time.Minute)
		s := f.session(t)

		if err := s.Enqueue(testTrack("https://example.com/short", 20*time.Millisecond)); err != nil {
			t.Fatalf("Enqueue failed: %v", err)
		}
		time.Sleep(150 * time.Millisecond)

		if rows := f.plays(t); len(rows) != 0 {
			t.Errorf("expected no history rows for a sub-threshold track, got %d", len(rows))
		}
	})

	t.Run("SkipBeforeThresholdLeavesNoTrace", func(t *testing.T) {
		f := newFixture(t, 100*time.Millisecond, time.Minute)
		s := f.session(t)

		if err := s.Enqueue(testTrack("https://example.com/long", 500*time.Millisecond)); err != nil {
			t.Fatalf("Enqueue failed: %v", err)
		}
		time.Sleep(20 * time.Millisecond)
		if err := s.Skip(); err != nil {
			t.Fatalf("Skip failed: %v", err)
		}
		time.Sleep(200 * time.Millisecond)

		if rows := f.plays(t); len(rows) != 0 {
			t.Errorf("expected no history rows for an early skip, got %d", len(rows))
		}
	})

	t.Run("PlayingPastThresholdRecordsOnce", func(t *testing.T) {
		f := newFixture(t, 30*time.Millisecond, time.Minute)
		s := f.session(t)

		if err := s.Enqueue(testTrack("https://example.com/hit", 500*time.Millisecond)); err != nil {
			t.Fatalf("Enqueue failed: %v", err)
		}
		time.Sleep(100 * time.Millisecond)
		if err := s.Skip(); err != nil {
			t.Fatalf("Skip failed: %v", err)
		}
		time.Sleep(100 * time.Millisecond)

		rows := f.plays(t)
		if len(rows) != 1 {
			t.Fatalf("expected exactly one history row, got %d", len(rows))
		}
		if rows[0].Plays != 1 {
			t.Errorf("expected a single recorded play, got %d", rows[0].Plays)
		}
		if rows[0].Track.URI != "https://example.com/hit" {
			t.Errorf("unexpected track %q in history", rows[0].Track.URI)
		}
	})

	t.Run("ReplacementTrackSupersedesPendingWrite", func(t *testing.T) {
		f := newFixture(t, 60*time.Millisecond, time.Minute)
		s := f.session(t)

		if err := s.Enqueue(testTrack("https://example.com/first", 500*time.Millisecond)); err != nil {
			t.Fatalf("Enqueue failed: %v", err)
		}
		if err := s.Enqueue(testTrack("https://example.com/second", 500*time.Millisecond)); err != nil {
			t.Fatalf("Enqueue failed: %v", err)
		}
		time.Sleep(20 * time.Millisecond)
		if err := s.Skip(); err != nil {
			t.Fatalf("Skip failed: %v", err)
		}
		time.Sleep(150 * time.Millisecond)

		rows := f.plays(t)
		if len(rows) != 1 {
			t.Fatalf("expected one history row, got %d", len(rows))
		}
		if rows[0].Track.URI != "https://example.com/second" {
			t.Errorf("expected the surviving track in history, got %q", rows[0].Track.URI)
		}
	})
}

func TestStatusLifecycle(t *testing.T) {
	t.Run("TrackStartPublishesMarkedTitle", func(t *testing.T) {
		f := newFixture(t, time.Minute, time.Minute)
		s := f.session(t)

		if err := s.Enqueue(cluster.Track{URI: "u", Title: "Shape of You", Duration: time.Minute, RequesterID: "user-1"}); err != nil {
			t.Fatalf("Enqueue failed: %v", err)
		}
		time.Sleep(100 * time.Millisecond)

		last, ok := f.api.lastWrite()
		if !ok {
			t.Fatal("expected a status write after track start")
		}
		if last != status.Marker+"Shape of You" {
			t.Errorf("unexpected status text %q", last)
		}
	})

	t.Run("QueueDrainResetsStatus", func(t *testing.T) {
		f := newFixture(t, time.Minute, time.Minute)
		s := f.session(t)

		if err := s.Enqueue(testTrack("https://example.com/a", 30*time.Millisecond)); err != nil {
			t.Fatalf("Enqueue failed: %v", err)
		}
		time.Sleep(150 * time.Millisecond)

		last, ok := f.api.lastWrite()
		if !ok {
			t.Fatal("expected status writes")
		}
		if last != "" {
			t.Errorf("expected an empty reset write after the queue drained, got %q", last)
		}
	})

	t.Run("StopResetsStatus", func(t *testing.T) {
		f := newFixture(t, time.Minute, time.Minute)
		s := f.session(t)

		if err := s.Enqueue(testTrack("https://example.com/a", time.Minute)); err != nil {
			t.Fatalf("Enqueue failed: %v", err)
		}
		time.Sleep(50 * time.Millisecond)
		if err := s.Stop(); err != nil {
			t.Fatalf("Stop failed: %v", err)
		}
		time.Sleep(50 * time.Millisecond)

		if last, _ := f.api.lastWrite(); last != "" {
			t.Errorf("expected an empty reset write after stop, got %q", last)
		}
	})
}

func TestSessionLifecycle(t *testing.T) {
	t.Run("StopDeregistersSession", func(t *testing.T) {
		f := newFixture(t, time.Minute, time.Minute)
		s := f.session(t)

		if err := s.Stop(); err != nil {
			t.Fatalf("Stop failed: %v", err)
		}
		if _, ok := f.manager.Get("guild-1"); ok {
			t.Error("expected session deregistered after stop")
		}
		if err := s.Enqueue(testTrack("https://example.com/a", time.Minute)); err != cluster.ErrClosed {
			t.Errorf("expected ErrClosed on a torn-down session, got %v", err)
		}
	})

	t.Run("IdleTimeoutTearsDown", func(t *testing.T) {
		f := newFixture(t, time.Minute, 40*time.Millisecond)
		f.session(t)

		deadline := time.After(500 * time.Millisecond)
		for {
			if _, ok := f.manager.Get("guild-1"); !ok {
				return
			}
			select {
			case <-deadline:
				t.Fatal("session still registered after idle timeout")
			case <-time.After(10 * time.Millisecond):
			}
		}
	})

	t.Run("SetVolumePersistsClamped", func(t *testing.T) {
		f := newFixture(t, time.Minute, time.Minute)
		s := f.session(t)

		if err := s.SetVolume(5.0); err != nil {
			t.Fatalf("SetVolume failed: %v", err)
		}
		if s.Volume() != settings.MaxVolume {
			t.Errorf("expected volume clamped to %v, got %v", settings.MaxVolume, s.Volume())
		}

		saved, _, err := f.store.GetSettings("guild-1")
		if err != nil {
			t.Fatalf("GetSettings failed: %v", err)
		}
		if saved.Volume != settings.MaxVolume {
			t.Errorf("expected persisted volume %v, got %v", settings.MaxVolume, saved.Volume)
		}
	})

	t.Run("SetRepeatMirrorsMode", func(t *testing.T) {
		f := newFixture(t, time.Minute, time.Minute)
		s := f.session(t)

		if err := s.SetRepeat(cluster.RepeatQueue); err != nil {
			t.Fatalf("SetRepeat failed: %v", err)
		}
		if s.RepeatMode() != cluster.RepeatQueue {
			t.Errorf("expected RepeatQueue, got %s", s.RepeatMode())
		}
	})
}
