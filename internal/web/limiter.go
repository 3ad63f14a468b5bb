package web

// limiter.go bounds the number of server-rendered table pages in progress.
//
// Each table page runs a remote table with its own coordinator goroutines
// against the row source. The limiter is a semaphore: when every slot is
// taken, a request waits up to maxWait and then fails with ErrTooManyViews.
// WaitForDrain lets shutdown wait for pages that are still rendering.

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrTooManyViews is returned when all render slots stay occupied for the
// whole wait.
var ErrTooManyViews = errors.New("too many table pages rendering, please try again later")

const (
	DefaultMaxConcurrentViews = 8
	DefaultViewWait           = 5 * time.Second
)

// viewLimiter is a counting semaphore with a bounded wait.
type viewLimiter struct {
	slots   chan struct{}
	maxWait time.Duration

	mu     sync.Mutex
	active int
}

func newViewLimiter(maxConcurrent int, maxWait time.Duration) *viewLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentViews
	}
	if maxWait <= 0 {
		maxWait = DefaultViewWait
	}
	return &viewLimiter{
		slots:   make(chan struct{}, maxConcurrent),
		maxWait: maxWait,
	}
}

// acquire takes a slot. The caller must release it.
func (l *viewLimiter) acquire(ctx context.Context) error {
	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case l.slots <- struct{}{}:
		l.mu.Lock()
		l.active++
		l.mu.Unlock()
		return nil
	case <-timer.C:
		return ErrTooManyViews
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *viewLimiter) release() {
	l.mu.Lock()
	l.active--
	l.mu.Unlock()
	<-l.slots
}

func (l *viewLimiter) activeCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.active
}

func (l *viewLimiter) available() int {
	return cap(l.slots) - len(l.slots)
}

// WaitForDrain blocks until no page is rendering or ctx is done.
func (l *viewLimiter) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		if l.activeCount() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
