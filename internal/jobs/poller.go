package jobs

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/emergent/storyboard-agent/internal/backend"
)

// Poller drives Tracker.Poll on a fixed cadence for as long as its context
// lives. Each mounted consumer owns exactly one Poller; two live pollers
// against the same tracker is a bug, which Start guards against by
// refusing to run twice.
type Poller struct {
	tracker  *Tracker
	interval time.Duration
	logger   *slog.Logger

	running atomic.Bool
	paused  atomic.Bool

	// OnSnapshot, when set before Start, is invoked after every successful
	// poll with the reconciled job set. Used by the tray.
	OnSnapshot func(jobs []*backend.Job)
}

func NewPoller(tracker *Tracker, interval time.Duration, logger *slog.Logger) *Poller {
	return &Poller{
		tracker:  tracker,
		interval: interval,
		logger:   logger,
	}
}

// Start runs the poll loop until ctx is cancelled. A second Start while
// running returns immediately. An immediate first poll precedes the ticker
// so consumers are not blind for a full interval after mount.
func (p *Poller) Start(ctx context.Context) {
	if p.running.Swap(true) {
		return
	}

	p.logger.Info("queue poller started", "interval", p.interval)

	p.tick(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("queue poller stopping")
			p.running.Store(false)
			return
		case <-ticker.C:
			if !p.paused.Load() {
				p.tick(ctx)
			}
		}
	}
}

func (p *Poller) tick(ctx context.Context) {
	jobs, err := p.tracker.Poll(ctx)
	if err != nil {
		p.logger.Warn("queue poll failed", "error", err)
		return
	}
	if p.OnSnapshot != nil {
		p.OnSnapshot(jobs)
	}
}

// Pause suspends polling without tearing the poller down.
func (p *Poller) Pause() {
	p.paused.Store(true)
	p.logger.Info("queue poller paused")
}

// Resume continues polling after a Pause.
func (p *Poller) Resume() {
	p.paused.Store(false)
	p.logger.Info("queue poller resumed")
}

func (p *Poller) IsPaused() bool {
	return p.paused.Load()
}

func (p *Poller) IsRunning() bool {
	return p.running.Load()
}
