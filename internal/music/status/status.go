// Package status writes the bot's now-playing text to a voice channel's
// externally visible status field. The platform API behind it is
// rate-limited and shared with other actors, so writes are debounced per
// channel and never clobber a status the bot does not own.
package status

import (
	"context"
	"log"
	"regexp"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Marker prefixes every bot-authored status. A channel status without it
// belongs to someone else and is left alone (unless resetting).
const Marker = "♪ "

// maxStatusRunes is the platform's length cap for channel status text.
const maxStatusRunes = 500

const defaultQuietInterval = 10 * time.Second

// StatusAPI is the platform's channel status surface.
type StatusAPI interface {
	Get(channelID string) (string, error)
	Set(channelID, text string) error
}

type slot struct {
	pendingText string
	isReset     bool
	seq         uint64
	timer       *time.Timer
	lastCommit  time.Time
	committing  bool
}

// Publisher coalesces status writes per channel. A new Publish supersedes
// any scheduled-but-unexecuted write for the same channel; a deferred write
// always carries the latest requested text when it finally executes.
type Publisher struct {
	api     StatusAPI
	quiet   time.Duration
	limiter *rate.Limiter

	mu     sync.Mutex
	closed bool
	slots  map[string]*slot
}

// New creates a Publisher. quietInterval <= 0 selects the default.
func New(api StatusAPI, quietInterval time.Duration) *Publisher {
	if quietInterval <= 0 {
		quietInterval = defaultQuietInterval
	}
	return &Publisher{
		api:   api,
		quiet: quietInterval,
		// The platform allows roughly one status change per channel per
		// quiet interval; a small burst absorbs the reset-on-teardown case.
		limiter: rate.NewLimiter(rate.Every(time.Second), 5),
		slots:   make(map[string]*slot),
	}
}

// Publish requests that the channel's status become text. isReset bypasses
// both the ownership check and the quiet interval and commits before
// returning; it is used when the bot relinquishes the channel.
func (p *Publisher) Publish(channelID, text string, isReset bool) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}

	s, ok := p.slots[channelID]
	if !ok {
		// A fresh channel starts its quiet window now, so a burst of
		// first-time publishes still collapses into one write.
		s = &slot{lastCommit: time.Now()}
		p.slots[channelID] = s
	}

	// Supersede whatever was scheduled before.
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.pendingText = text
	s.isReset = isReset
	s.seq++
	seq := s.seq

	remaining := p.quiet - time.Since(s.lastCommit)
	if isReset || remaining <= 0 {
		p.mu.Unlock()
		if isReset {
			// The session is relinquishing the channel; the caller must
			// not outrun the clearing write during teardown.
			p.commit(channelID, seq)
		} else {
			go p.commit(channelID, seq)
		}
		return
	}

	s.timer = time.AfterFunc(remaining, func() {
		p.commit(channelID, seq)
	})
	p.mu.Unlock()
}

// Close cancels every pending write. Nothing scheduled executes afterwards.
func (p *Publisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	for _, s := range p.slots {
		if s.timer != nil {
			s.timer.Stop()
			s.timer = nil
		}
		s.seq++ // invalidate fired-but-not-yet-run timers
	}
}

// commit performs the external write for the latest request on a channel.
// Stale timers (superseded seq) and channels already mid-write bail out;
// the in-flight write re-commits if a newer request arrived during it.
func (p *Publisher) commit(channelID string, seq uint64) {
	p.mu.Lock()
	s := p.slots[channelID]
	if s == nil || p.closed || s.seq != seq || s.committing {
		p.mu.Unlock()
		return
	}
	s.committing = true
	text, isReset := s.pendingText, s.isReset
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		s.committing = false
		if p.closed || s.seq == seq {
			p.mu.Unlock()
			return
		}
		// A newer request arrived mid-write. Its timer was armed against
		// the previous commit time; reschedule it against this one so the
		// quiet interval holds and the stale timer cannot fire a second
		// write for the same request.
		newerSeq := s.seq
		pendingReset := s.isReset
		if s.timer != nil {
			s.timer.Stop()
			s.timer = nil
		}
		remaining := p.quiet - time.Since(s.lastCommit)
		if pendingReset || remaining <= 0 {
			p.mu.Unlock()
			if pendingReset {
				p.commit(channelID, newerSeq)
			} else {
				go p.commit(channelID, newerSeq)
			}
			return
		}
		s.timer = time.AfterFunc(remaining, func() {
			p.commit(channelID, newerSeq)
		})
		p.mu.Unlock()
	}()

	if !isReset {
		current, err := p.api.Get(channelID)
		if err != nil {
			log.Printf("[Status] Failed to read status of channel %s: %v", channelID, err)
			return
		}
		if current != "" && !strings.HasPrefix(current, Marker) {
			log.Printf("[Status] Channel %s status is foreign, write suppressed", channelID)
			return
		}
	}

	if err := p.limiter.Wait(context.Background()); err != nil {
		return
	}
	if err := p.api.Set(channelID, text); err != nil {
		log.Printf("[Status] Failed to set status of channel %s: %v", channelID, err)
		return
	}

	p.mu.Lock()
	s.lastCommit = time.Now()
	if s.seq == seq && s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	p.mu.Unlock()
}

var decorRegex = regexp.MustCompile(`\[[^\]]*\]|\([^)]*\)`)

// FormatTrack shapes a track title into bot-owned status text: decorative
// bracketed substrings removed, whitespace collapsed, marker prefixed, and
// the result truncated to the platform's length cap.
func FormatTrack(title string) string {
	cleaned := decorRegex.ReplaceAllString(title, "")
	cleaned = strings.Join(strings.Fields(cleaned), " ")
	text := Marker + cleaned

	runes := []rune(text)
	if len(runes) > maxStatusRunes {
		text = string(runes[:maxStatusRunes])
	}
	return text
}
