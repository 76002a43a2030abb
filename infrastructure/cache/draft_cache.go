package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"invoicer/infrastructure/logger"
	"invoicer/infrastructure/table"
)

// Draft is one browser's invoice in progress.
type Draft struct {
	ID         string
	Table      *table.Table
	Aggregator *table.Aggregator
	CreatedAt  time.Time

	mu        sync.Mutex
	touchedAt time.Time
}

// NewDraft builds a draft with a fresh token, one blank row and an idle aggregator.
func NewDraft(schema *table.Schema, settleDelay time.Duration) (*Draft, error) {
	const op = "cache.NewDraft"

	tbl, err := table.New(schema)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	id := uuid.NewString()
	now := time.Now()
	return &Draft{
		ID:    id,
		Table: tbl,
		Aggregator: table.NewAggregator(tbl, settleDelay, func(totals []float64) {
			logger.L().Debug("totals recomputed",
				logger.String("draft_id", id),
				logger.Int("rows", len(totals)),
			)
		}),
		CreatedAt: now,
		touchedAt: now,
	}, nil
}

func (d *Draft) Touch(now time.Time) {
	d.mu.Lock()
	d.touchedAt = now
	d.mu.Unlock()
}

func (d *Draft) TouchedAt() time.Time {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.touchedAt
}

// DraftCache stores drafts by token.
type DraftCache struct {
	mu     sync.RWMutex
	drafts map[string]*Draft
}

func NewDraftCache() *DraftCache {
	return &DraftCache{drafts: make(map[string]*Draft)}
}

func (c *DraftCache) AddDraft(d *Draft) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.drafts[d.ID] = d
}

// FindDraftByToken returns the draft and marks it as recently used.
func (c *DraftCache) FindDraftByToken(token string) (*Draft, bool) {
	c.mu.RLock()
	d, ok := c.drafts[token]
	c.mu.RUnlock()
	if ok {
		d.Touch(time.Now())
	}
	return d, ok
}

// DeleteDraftByToken removes the draft and cancels its pending recompute.
func (c *DraftCache) DeleteDraftByToken(token string) {
	c.mu.Lock()
	d, ok := c.drafts[token]
	delete(c.drafts, token)
	c.mu.Unlock()
	if ok {
		d.Aggregator.Stop()
	}
}

func (c *DraftCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.drafts)
}

// Sweep evicts drafts idle for longer than ttl and returns their tokens.
func (c *DraftCache) Sweep(now time.Time, ttl time.Duration) []string {
	c.mu.Lock()
	var evicted []*Draft
	for id, d := range c.drafts {
		if now.Sub(d.TouchedAt()) > ttl {
			evicted = append(evicted, d)
			delete(c.drafts, id)
		}
	}
	c.mu.Unlock()

	ids := make([]string, 0, len(evicted))
	for _, d := range evicted {
		d.Aggregator.Stop()
		ids = append(ids, d.ID)
	}
	return ids
}

// RunSweeper evicts idle drafts every interval until ctx is done.
func (c *DraftCache) RunSweeper(ctx context.Context, interval, ttl time.Duration) error {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			if ids := c.Sweep(now, ttl); len(ids) > 0 {
				logger.Info(ctx, "evicted idle drafts", logger.Int("count", len(ids)))
			}
		}
	}
}
