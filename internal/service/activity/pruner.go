package activity

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Pruner deletes expired activity entries on a cron schedule.
type Pruner struct {
	cron      *cron.Cron
	svc       *Service
	retention time.Duration
	timeout   time.Duration
	logger    *slog.Logger
	now       func() time.Time
}

// NewPruner creates a Pruner that keeps entries for retention. schedule is
// a standard five-field cron spec or a descriptor such as "@daily".
func NewPruner(svc *Service, schedule string, retention time.Duration, logger *slog.Logger) (*Pruner, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	p := &Pruner{
		cron:      cron.New(),
		svc:       svc,
		retention: retention,
		timeout:   time.Minute,
		logger:    logger,
		now:       time.Now,
	}
	if _, err := p.cron.AddFunc(schedule, func() { p.RunOnce(context.Background()) }); err != nil {
		return nil, fmt.Errorf("invalid prune schedule %q: %w", schedule, err)
	}
	return p, nil
}

// Start runs the schedule in the background.
func (p *Pruner) Start() {
	p.cron.Start()
	p.logger.Info("activity pruner started", "retention", p.retention)
}

// Stop stops the schedule and waits for a running prune to finish.
func (p *Pruner) Stop() {
	<-p.cron.Stop().Done()
	p.logger.Info("activity pruner stopped")
}

// RunOnce prunes immediately and returns the number of deleted entries.
// Failures are logged.
func (p *Pruner) RunOnce(ctx context.Context) int64 {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	n, err := p.svc.Prune(ctx, p.now(), p.retention)
	if err != nil {
		p.logger.Warn("activity prune failed", "error", err)
		return 0
	}
	if n > 0 {
		p.logger.Info("pruned activity entries", "deleted", n)
	}
	return n
}
