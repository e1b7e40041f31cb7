package session

import (
	"context"
	"fmt"
	"time"

	"github.com/platinummonkey/ssoclient/pkg/observability"
	"github.com/robfig/cron/v3"
)

// DefaultPurgeSchedule runs the janitor every ten minutes
const DefaultPurgeSchedule = "@every 10m"

// Purger removes expired sessions from a store that does not expire them itself
type Purger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// Janitor periodically purges expired sessions on a cron schedule
type Janitor struct {
	purger  Purger
	backend string
	cron    *cron.Cron
	logger  *observability.Logger
	metrics *observability.Metrics
	timeout time.Duration
}

// NewJanitor schedules purger on schedule. The janitor does nothing until Start.
func NewJanitor(purger Purger, backend, schedule string, logger *observability.Logger, metrics *observability.Metrics) (*Janitor, error) {
	if schedule == "" {
		schedule = DefaultPurgeSchedule
	}
	if logger == nil {
		logger = observability.NewLogger(observability.InfoLevel, nil)
	}

	j := &Janitor{
		purger:  purger,
		backend: backend,
		cron:    cron.New(),
		logger:  logger.WithField("component", "session_janitor"),
		metrics: metrics,
		timeout: time.Minute,
	}

	if _, err := j.cron.AddFunc(schedule, j.run); err != nil {
		return nil, fmt.Errorf("invalid purge schedule %q: %w", schedule, err)
	}

	return j, nil
}

func (j *Janitor) run() {
	defer observability.RecoverPanic(j.logger, "session purge", nil)
	j.Purge(context.Background())
}

// Purge runs a single purge pass
func (j *Janitor) Purge(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	removed, err := j.purger.PurgeExpired(ctx)
	j.metrics.RecordSessionStoreOperation("purge", j.backend, err)
	if err != nil {
		j.logger.WithError(err).Error("Failed to purge expired sessions")
		return 0, err
	}

	if removed > 0 {
		j.logger.WithField("removed", removed).Info("Purged expired sessions")
	}
	return removed, nil
}

// Start begins running the schedule in the background
func (j *Janitor) Start() {
	j.cron.Start()
}

// Stop stops the schedule and waits for a running purge to finish or ctx to end
func (j *Janitor) Stop(ctx context.Context) error {
	select {
	case <-j.cron.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
