// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ratelimit gates outbound requests to a sustained per-second rate.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter spaces admissions a fixed interval apart so that the combined
// request rate of all callers stays at or below the configured ceiling.
// It bounds sustained throughput only; simultaneity is bounded separately
// by the fetch pipeline's in-flight cap.
type Limiter struct {
	mu       sync.Mutex
	interval time.Duration
	next     time.Time
}

// New returns a Limiter admitting at most perSec requests per second.
// A non-positive perSec disables gating.
func New(perSec float64) *Limiter {
	l := &Limiter{}
	if perSec > 0 {
		l.interval = time.Duration(float64(time.Second) / perSec)
	}
	return l
}

// Interval returns the minimum spacing between admissions.
func (l *Limiter) Interval() time.Duration {
	return l.interval
}

// Wait blocks until the caller may issue a request, or until ctx is done.
// Each caller reserves the next free slot under the lock, so concurrent
// waiters are admitted one interval apart in reservation order.
func (l *Limiter) Wait(ctx context.Context) error {
	if l.interval <= 0 {
		return ctx.Err()
	}

	l.mu.Lock()
	now := time.Now()
	if l.next.Before(now) {
		l.next = now
	}
	wait := l.next.Sub(now)
	l.next = l.next.Add(l.interval)
	l.mu.Unlock()

	if wait <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(wait):
		return nil
	}
}
