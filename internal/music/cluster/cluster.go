// Package cluster defines the boundary to the external audio rendering
// cluster: the service that actually decodes and streams media into a voice
// channel. The orchestrator never talks to rendering nodes directly; it
// holds a Handle and reacts to the events registered at join time.
package cluster

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrAlreadyBound is returned by Join when the cluster already holds a
	// different voice channel for the guild.
	ErrAlreadyBound = errors.New("guild is already bound to another voice channel")

	// ErrNothingPlaying is returned by transport operations that need an
	// active track.
	ErrNothingPlaying = errors.New("no track is currently playing")

	// ErrClosed is returned by operations on a handle that has left its
	// channel.
	ErrClosed = errors.New("cluster handle is closed")
)

// Track describes a renderable media item.
type Track struct {
	URI          string
	Title        string
	Artist       string
	ThumbnailURL string
	Duration     time.Duration
	Source       string
	RequesterID  string
}

// RepeatMode controls what happens when a track finishes.
type RepeatMode int

const (
	RepeatNone RepeatMode = iota
	RepeatTrack
	RepeatQueue
)

func (m RepeatMode) String() string {
	switch m {
	case RepeatTrack:
		return "track"
	case RepeatQueue:
		return "queue"
	default:
		return "none"
	}
}

// EndReason explains why a track stopped rendering.
type EndReason int

const (
	EndFinished EndReason = iota
	EndStopped
	EndReplaced
	EndLoadFailed
)

func (r EndReason) String() string {
	switch r {
	case EndStopped:
		return "stopped"
	case EndReplaced:
		return "replaced"
	case EndLoadFailed:
		return "load failed"
	default:
		return "finished"
	}
}

// Events carries the callbacks a session registers at join time. Callbacks
// are invoked sequentially per guild, never concurrently with each other.
// Nil callbacks are skipped.
type Events struct {
	TrackStarted func(Track)
	TrackEnded   func(Track, EndReason)
	Idle         func()
}

// Client is the cluster's connection surface. Node selection and health are
// the cluster's concern and opaque to callers.
type Client interface {
	// Join binds the guild to a voice channel and returns the per-session
	// control surface. Events fire until Leave is called on the handle.
	Join(ctx context.Context, guildID, channelID string, events Events) (Handle, error)

	// Resolve turns user input (a media URL) into renderable tracks.
	Resolve(ctx context.Context, input string) ([]Track, error)
}

// Handle is the per-session control surface of the rendering cluster.
type Handle interface {
	GuildID() string
	ChannelID() string

	Enqueue(track Track) error
	Skip() error
	Seek(pos time.Duration) error
	Pause() error
	Resume() error
	Stop() error
	SetVolume(volume float64) error
	SetRepeat(mode RepeatMode) error

	Current() (Track, bool)
	Queue() []Track
	Position() time.Duration
	Playing() bool

	Leave() error
}
