package planner

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	appLog "contentcal/internal/log"
)

// Refresher runs Service.Refresh on a cron schedule.
type Refresher struct {
	cron *cron.Cron
}

// StartRefresher schedules svc.Refresh with a standard 5-field cron spec
// (e.g. "*/15 * * * *"). Runs never overlap; a run still in progress when
// the next one is due is skipped. ctx is passed to every run.
func StartRefresher(ctx context.Context, svc *Service, spec string) (*Refresher, error) {
	c := cron.New(
		cron.WithLocation(svc.opts.Location),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	_, err := c.AddFunc(spec, func() {
		if err := svc.Refresh(ctx); err != nil {
			appLog.Error("scheduled refresh failed", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("planner: refresh schedule %q: %w", spec, err)
	}
	c.Start()
	appLog.Info("refresh scheduled", "spec", spec)
	return &Refresher{cron: c}, nil
}

// Stop prevents further runs and waits for a running one to finish.
func (r *Refresher) Stop() {
	<-r.cron.Stop().Done()
}
