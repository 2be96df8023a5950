// Package janitor removes expired upload workspaces on a fixed interval.
package janitor

import (
	"context"
	"time"

	"pdfconv/internal/logging"
)

// Sweeper deletes every workspace created before olderThan.
type Sweeper interface {
	Sweep(ctx context.Context, olderThan time.Time) (int, error)
}

// Janitor periodically sweeps workspaces older than TTL.
type Janitor struct {
	sweeper  Sweeper
	ttl      time.Duration
	interval time.Duration
	log      *logging.Logger
	now      func() time.Time
}

// New returns a Janitor. A non-positive ttl disables it.
func New(s Sweeper, ttl, interval time.Duration, log *logging.Logger) *Janitor {
	if log == nil {
		log = logging.Default()
	}
	return &Janitor{
		sweeper:  s,
		ttl:      ttl,
		interval: interval,
		log:      log,
		now:      time.Now,
	}
}

// Enabled reports whether Run does any work.
func (j *Janitor) Enabled() bool {
	return j.ttl > 0 && j.interval > 0
}

// Run sweeps once immediately and then on every tick until ctx is done.
func (j *Janitor) Run(ctx context.Context) {
	if !j.Enabled() {
		j.log.Info("janitor_disabled", nil)
		return
	}
	j.log.Info("janitor_started", map[string]any{
		"ttl_sec":      int64(j.ttl.Seconds()),
		"interval_sec": int64(j.interval.Seconds()),
	})

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		j.SweepOnce(ctx)
		select {
		case <-ctx.Done():
			j.log.Info("janitor_stopped", nil)
			return
		case <-ticker.C:
		}
	}
}

// SweepOnce removes workspaces older than the TTL and returns how many went.
func (j *Janitor) SweepOnce(ctx context.Context) int {
	cutoff := j.now().Add(-j.ttl)
	removed, err := j.sweeper.Sweep(ctx, cutoff)
	if err != nil {
		j.log.Error("janitor_sweep_failed", err, map[string]any{"removed": removed})
		return removed
	}
	if removed > 0 {
		j.log.Info("janitor_swept", map[string]any{"removed": removed, "cutoff": cutoff.Format(time.RFC3339)})
	}
	return removed
}
