// Package ratelimit implements a process-wide sliding-window limiter that
// bounds the rate of outgoing upstream requests, using a queued
// slot-reservation scheme: every caller reserves a future slot under a
// single lock, then sleeps outside the lock until its slot arrives.
package ratelimit

import (
	"container/list"
	"context"
	"fmt"
	"sync"
	"time"
)

// Limiter enforces that no more than N acquisitions complete within any
// window of length W. It is safe for concurrent use and is intended to be a
// process-wide singleton shared by every upstream caller.
type Limiter struct {
	mu             sync.Mutex
	maxRequests    int
	window         time.Duration
	scheduled      *list.List // of time.Time, oldest first
	now            func() time.Time
}

// New creates a Limiter permitting maxRequests acquisitions per window.
// Panics if either argument is non-positive, matching the original
// rate limiter's upfront validation.
func New(maxRequests int, window time.Duration) *Limiter {
	if maxRequests <= 0 {
		panic("ratelimit: maxRequests must be positive")
	}
	if window <= 0 {
		panic("ratelimit: window must be positive")
	}
	return &Limiter{
		maxRequests: maxRequests,
		window:      window,
		scheduled:   list.New(),
		now:         time.Now,
	}
}

// Acquire blocks until one request may proceed, honoring the configured
// sliding window. Acquisitions across all concurrent callers are globally
// serialized by reserveSlot; only the sleep itself happens outside the lock,
// so reservation order is deterministic even under heavy contention. When
// the sleep ends, the reserved timestamp is replaced by the actual wake-up
// time, so the window is measured over completed acquisitions rather than
// over the times they were scheduled for.
func (l *Limiter) Acquire(ctx context.Context) error {
	sleepFor, slot := l.reserveSlot()
	if sleepFor <= 0 {
		return nil
	}

	timer := time.NewTimer(sleepFor)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("ratelimit: acquire: %w", ctx.Err())
	case <-timer.C:
		l.mu.Lock()
		slot.Value = l.now()
		l.mu.Unlock()
		return nil
	}
}

// reserveSlot computes and records the scheduled time for the next
// acquisition, mirroring the original's _reserve_slot: drop timestamps older
// than the window, then schedule at max(now, slot[-N]+window). It returns
// how long the caller must sleep and the list element holding its timestamp.
func (l *Limiter) reserveSlot() (time.Duration, *list.Element) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.evictStale(now)

	var scheduled time.Time
	if l.scheduled.Len() < l.maxRequests {
		scheduled = now
	} else {
		// The element maxRequests-behind-the-back bounds how soon the next
		// slot may run: no more than maxRequests may land within window.
		e := l.scheduled.Back()
		for i := 1; i < l.maxRequests && e != nil; i++ {
			e = e.Prev()
		}
		earliest := e.Value.(time.Time).Add(l.window)
		if earliest.After(now) {
			scheduled = earliest
		} else {
			scheduled = now
		}
	}

	slot := l.scheduled.PushBack(scheduled)
	if d := scheduled.Sub(now); d > 0 {
		return d, slot
	}
	return 0, slot
}

func (l *Limiter) evictStale(now time.Time) {
	for e := l.scheduled.Front(); e != nil; {
		next := e.Next()
		if now.Sub(e.Value.(time.Time)) >= l.window {
			l.scheduled.Remove(e)
			e = next
			continue
		}
		break
	}
}

// CurrentRate reports how many acquisitions are currently counted within the
// window, for diagnostics.
func (l *Limiter) CurrentRate() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	l.evictStale(now)
	return l.scheduled.Len()
}
