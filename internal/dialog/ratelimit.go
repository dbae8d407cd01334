package dialog

import (
	"sync"
	"time"
)

const sweepEvery = 5 * time.Minute

// Limiter enforces a per-conversation sliding window so one chat cannot
// monopolize the model providers. A background janitor drops keys whose
// windows have fully drained, so idle conversations cost no memory.
type Limiter struct {
	mu     sync.Mutex
	sent   map[string][]time.Time
	limit  int
	window time.Duration
	now    func() time.Time
	stop   chan struct{}
	once   sync.Once
}

// NewLimiter allows limit messages per window for each conversation key.
// Call Close to stop the janitor.
func NewLimiter(limit int, window time.Duration) *Limiter {
	if limit <= 0 {
		limit = 15
	}
	if window <= 0 {
		window = time.Minute
	}
	l := &Limiter{
		sent:   make(map[string][]time.Time),
		limit:  limit,
		window: window,
		now:    time.Now,
		stop:   make(chan struct{}),
	}
	go l.sweepLoop()
	return l
}

// Allow records one message for key and reports whether it fits the window.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)
	kept := l.sent[key][:0]
	for _, t := range l.sent[key] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}

	if len(kept) >= l.limit {
		l.sent[key] = kept
		return false
	}
	l.sent[key] = append(kept, now)
	return true
}

// Clear forgets the window for one conversation key.
func (l *Limiter) Clear(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.sent, key)
}

// Close stops the background janitor.
func (l *Limiter) Close() {
	l.once.Do(func() { close(l.stop) })
}

func (l *Limiter) sweepLoop() {
	ticker := time.NewTicker(sweepEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.sweep()
		case <-l.stop:
			return
		}
	}
}

// sweep removes keys with no message inside the current window.
func (l *Limiter) sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-l.window)
	for key, times := range l.sent {
		live := false
		for _, t := range times {
			if t.After(cutoff) {
				live = true
				break
			}
		}
		if !live {
			delete(l.sent, key)
		}
	}
}
