// Package clock provides the reference "now" Timestamp the engine anchors
// relative calculations on. The value is cached and refreshed on a cron
// schedule rather than read from the system clock on every call, so that
// one layout pass sees one consistent notion of now.
package clock

import (
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	appLog "calgrid/internal/log"
	"calgrid/internal/timestamp"
)

// Provider hands out the cached reference Timestamp.
type Provider struct {
	mu  sync.RWMutex
	now timestamp.Timestamp

	source func() time.Time
	cron   *cron.Cron
}

// New creates a Provider refreshing on the given cron schedule. The
// initial value is populated immediately; Start begins scheduled
// refreshes.
func New(schedule string) (*Provider, error) {
	p := &Provider{source: time.Now}
	p.refresh()

	c := cron.New()
	if _, err := c.AddFunc(schedule, p.refresh); err != nil {
		return nil, err
	}
	p.cron = c
	return p, nil
}

// Start begins the refresh schedule.
func (p *Provider) Start() {
	p.cron.Start()
	appLog.Debug("clock refresh started")
}

// Stop halts scheduled refreshes. The cached value stays readable.
func (p *Provider) Stop() {
	p.cron.Stop()
}

// Now returns the cached reference Timestamp.
func (p *Provider) Now() timestamp.Timestamp {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.now
}

// SetSource replaces the underlying time source and refreshes. Tests use
// this to pin the reference instant.
func (p *Provider) SetSource(fn func() time.Time) {
	p.mu.Lock()
	p.source = fn
	p.mu.Unlock()
	p.refresh()
}

func (p *Provider) refresh() {
	p.mu.Lock()
	defer p.mu.Unlock()
	ts, err := timestamp.Parse(p.source(), true, nil)
	if err != nil {
		appLog.Error("clock refresh failed", err)
		return
	}
	p.now = ts
}
