// Package sched provides the single logical thread that runs interpreter
// commands, job ticks and scenario ticks.
//
// Nothing in the interpreter takes locks: every mutation of the network
// model, session store, event log or job slot happens on the goroutine
// owned by a Loop (or synchronously inside Manual.Advance in tests).
package sched

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Timer is a handle to a scheduled callback.
type Timer interface {
	// Stop prevents any further invocation of the callback. Safe to call
	// more than once and from inside the callback itself.
	Stop()
}

// Scheduler schedules callbacks on the interpreter thread.
type Scheduler interface {
	Now() time.Time
	AfterFunc(d time.Duration, fn func()) Timer
	Every(d time.Duration, fn func()) Timer
}

// Loop serializes posted functions onto one goroutine.
type Loop struct {
	queue chan func()
	done  chan struct{}
	once  sync.Once
}

// NewLoop creates a loop. Call Run to start processing.
func NewLoop() *Loop {
	return &Loop{
		queue: make(chan func(), 256),
		done:  make(chan struct{}),
	}
}

// Run processes posted functions until ctx is cancelled or Close is called.
func (l *Loop) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			l.Close()
			return
		case <-l.done:
			return
		case fn := <-l.queue:
			fn()
		}
	}
}

// Close stops the loop. Pending functions are discarded.
func (l *Loop) Close() {
	l.once.Do(func() { close(l.done) })
}

// Post queues fn without waiting. Returns false if the loop is closed.
func (l *Loop) Post(fn func()) bool {
	select {
	case <-l.done:
		return false
	case l.queue <- fn:
		return true
	}
}

// Do runs fn on the loop and waits for it to return. It must not be
// called from a function already running on the loop.
func (l *Loop) Do(fn func()) bool {
	finished := make(chan struct{})
	if !l.Post(func() {
		defer close(finished)
		fn()
	}) {
		return false
	}
	select {
	case <-finished:
		return true
	case <-l.done:
		return false
	}
}

// Now implements Scheduler.
func (l *Loop) Now() time.Time {
	return time.Now()
}

type loopTimer struct {
	stopped atomic.Bool
	stop    func()
}

func (t *loopTimer) Stop() {
	if t.stopped.Swap(true) {
		return
	}
	t.stop()
}

// AfterFunc implements Scheduler. fn runs on the loop.
func (l *Loop) AfterFunc(d time.Duration, fn func()) Timer {
	t := &loopTimer{}
	tm := time.AfterFunc(d, func() {
		l.Post(func() {
			if t.stopped.Load() {
				return
			}
			t.stopped.Store(true)
			fn()
		})
	})
	t.stop = func() { tm.Stop() }
	return t
}

// Every implements Scheduler. Ticks that arrive while the loop is busy
// are coalesced by the underlying ticker.
func (l *Loop) Every(d time.Duration, fn func()) Timer {
	t := &loopTimer{}
	ticker := time.NewTicker(d)
	quit := make(chan struct{})
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-quit:
				return
			case <-l.done:
				return
			case <-ticker.C:
				l.Post(func() {
					if !t.stopped.Load() {
						fn()
					}
				})
			}
		}
	}()
	t.stop = func() { close(quit) }
	return t
}
