package perception

import (
	"context"
	"log"
	"sync"
	"time"
)

const viewerPollInterval = 30 * time.Second

// ViewerSource reports the current concurrent viewer count for the
// active platform.
type ViewerSource interface {
	ViewerCount(ctx context.Context) (int, error)
}

// ViewerTracker polls a ViewerSource and classifies movement between
// consecutive polls. A rise of 50% or more is a surge, a fall of 30% or
// more is a drop, anything else is stable.
type ViewerTracker struct {
	mu       sync.Mutex
	count    int
	previous int
	change   ViewerChange
}

func NewViewerTracker() *ViewerTracker {
	return &ViewerTracker{change: ViewerStable}
}

// Update records a fresh count and reclassifies the change.
func (t *ViewerTracker) Update(count int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.previous = t.count
	t.count = count
	t.change = classify(t.previous, count)
}

func classify(prev, cur int) ViewerChange {
	if prev <= 0 {
		if cur > 0 {
			return ViewerSurge
		}
		return ViewerStable
	}
	ratio := float64(cur-prev) / float64(prev)
	switch {
	case ratio >= 0.5:
		return ViewerSurge
	case ratio <= -0.3:
		return ViewerDrop
	default:
		return ViewerStable
	}
}

func (t *ViewerTracker) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.count
}

func (t *ViewerTracker) Change() ViewerChange {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.change
}

// Run polls src until ctx is cancelled. Poll failures are logged and the
// last known count is kept.
func (t *ViewerTracker) Run(ctx context.Context, src ViewerSource) {
	ticker := time.NewTicker(viewerPollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := src.ViewerCount(ctx)
			if err != nil {
				log.Printf("[viewers] poll failed: %v", err)
				continue
			}
			t.Update(n)
		}
	}
}
