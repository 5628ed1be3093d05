package app

import (
	"context"
	"time"

	"github.com/golang/glog"

	"github.com/five82/tagger/internal/state"
)

const maxBackoff = 30 * time.Second

// refresher is the part of tagging.App the poller drives.
type refresher interface {
	LoadProjects(ctx context.Context, refresh bool)
	State() state.Status
}

// StartPoller refreshes the project list every interval until ctx ends.
// Consecutive failures back off exponentially up to maxBackoff. It returns
// immediately; a non-positive interval disables polling.
func StartPoller(ctx context.Context, r refresher, interval time.Duration) {
	if interval <= 0 {
		glog.Info("[app]project polling disabled")
		return
	}
	go poll(ctx, r, interval)
}

func poll(ctx context.Context, r refresher, interval time.Duration) {
	failures := 0
	timer := time.NewTimer(interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		r.LoadProjects(ctx, false)
		wait := interval
		if r.State() == state.ErrorLoading {
			failures++
			wait = calculateBackoff(failures, interval)
			glog.Warningf("[app]project refresh failed (%d in a row), next attempt in %v", failures, wait)
		} else if failures > 0 {
			glog.Infof("[app]project refresh recovered after %d failures", failures)
			failures = 0
		}
		timer.Reset(wait)
	}
}

// calculateBackoff doubles base per consecutive failure, capped at maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	wait := base
	for i := 0; i < failures; i++ {
		wait *= 2
		if wait >= maxBackoff {
			return maxBackoff
		}
	}
	return wait
}
