// Package tasks provides supervised background work with cancellation and
// in-memory tracking of outstanding jobs. Unlike plain fire-and-forget
// goroutines, every job is owned by a Supervisor: it can be canceled by
// name, is replaced (old one canceled) when a new job reuses its name, and
// is torn down deterministically on Shutdown. Failures go to a single error
// sink instead of vanishing.
//
// Typical usage:
//
//	sup := tasks.NewSupervisor(func(name string, err error) {
//	    log.Printf("[WARN] Background task %s failed: %v", name, err)
//	})
//
//	sup.After("history:"+track.URI, 30*time.Second, func(ctx context.Context) error {
//	    // runs after the delay unless canceled or replaced first
//	    return nil
//	})
//
//	// on teardown
//	sup.Shutdown()
//
// The package is intentionally minimal: no retries, no worker pools, no
// persistence. Jobs are removed automatically on completion.
package tasks

import (
	"context"
	"sync"
	"time"
)

// ErrorSink receives the terminal error of any failed job. It may be nil.
type ErrorSink func(name string, err error)

type job struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Supervisor orchestrates starting, replacing, canceling and tracking jobs.
// It is safe for concurrent use.
type Supervisor struct {
	mu    sync.Mutex
	jobs  map[string]*job
	sink  ErrorSink
	close bool
}

// NewSupervisor creates a Supervisor. The sink may be nil, in which case
// job failures are discarded silently.
func NewSupervisor(sink ErrorSink) *Supervisor {
	return &Supervisor{
		jobs: make(map[string]*job),
		sink: sink,
	}
}

// Go starts runner in its own goroutine under the given name. If a job with
// the same name is already outstanding, it is canceled and replaced. The
// runner's context is canceled on Cancel, replacement, or Shutdown.
func (s *Supervisor) Go(name string, runner func(ctx context.Context) error) {
	s.After(name, 0, runner)
}

// After schedules runner to start once delay elapses. Cancellation during
// the delay means the runner never starts and no side effect occurs.
// A zero delay starts the runner immediately.
func (s *Supervisor) After(name string, delay time.Duration, runner func(ctx context.Context) error) {
	ctx, cancel := context.WithCancel(context.Background())
	j := &job{cancel: cancel, done: make(chan struct{})}

	s.mu.Lock()
	if s.close {
		s.mu.Unlock()
		cancel()
		close(j.done)
		return
	}
	if prev, ok := s.jobs[name]; ok {
		prev.cancel()
	}
	s.jobs[name] = j
	s.mu.Unlock()

	go func() {
		defer close(j.done)
		defer func() {
			s.mu.Lock()
			if s.jobs[name] == j {
				delete(s.jobs, name)
			}
			s.mu.Unlock()
		}()

		if delay > 0 {
			t := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				t.Stop()
				return
			case <-t.C:
			}
		}
		if ctx.Err() != nil {
			return
		}

		if err := runner(ctx); err != nil && s.sink != nil {
			s.sink(name, err)
		}
	}()
}

// Cancel stops the named job if it is outstanding. Canceling an unknown
// name is a no-op.
func (s *Supervisor) Cancel(name string) {
	s.mu.Lock()
	j, ok := s.jobs[name]
	if ok {
		delete(s.jobs, name)
	}
	s.mu.Unlock()

	if ok {
		j.cancel()
	}
}

// Outstanding reports how many jobs are currently tracked.
func (s *Supervisor) Outstanding() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Shutdown cancels every outstanding job, waits for their goroutines to
// return, and rejects all future submissions.
func (s *Supervisor) Shutdown() {
	s.mu.Lock()
	s.close = true
	pending := make([]*job, 0, len(s.jobs))
	for _, j := range s.jobs {
		pending = append(pending, j)
	}
	s.jobs = make(map[string]*job)
	s.mu.Unlock()

	for _, j := range pending {
		j.cancel()
	}
	for _, j := range pending {
		<-j.done
	}
}
