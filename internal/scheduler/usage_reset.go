// Package scheduler runs periodic maintenance jobs.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const resetTimeout = 2 * time.Minute

// UsageResetter zeroes every monthly usage counter.
type UsageResetter interface {
	ResetMonthlyUsage(ctx context.Context) (int64, error)
}

// UsageReset runs UsageResetter on a standard five-field cron schedule.
type UsageReset struct {
	cron     *cron.Cron
	resetter UsageResetter
	logger   *zap.Logger
	entryID  cron.EntryID
}

// NewUsageReset validates the schedule and registers the reset job. The job
// does not run until Start is called.
func NewUsageReset(spec string, resetter UsageResetter, logger *zap.Logger) (*UsageReset, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("parsing usage reset schedule %q: %w", spec, err)
	}

	j := &UsageReset{
		cron:     cron.New(cron.WithLocation(time.UTC)),
		resetter: resetter,
		logger:   logger.Named("scheduler"),
	}
	j.entryID = j.cron.Schedule(schedule, cron.FuncJob(j.Run))
	return j, nil
}

// Run performs one reset. Failures are logged; the next scheduled run retries.
func (j *UsageReset) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), resetTimeout)
	defer cancel()

	n, err := j.resetter.ResetMonthlyUsage(ctx)
	if err != nil {
		j.logger.Error("monthly usage reset failed", zap.Error(err))
		return
	}
	j.logger.Info("monthly usage reset completed", zap.Int64("counters", n))
}

// Next returns the next scheduled run, or the zero time before Start.
func (j *UsageReset) Next() time.Time {
	return j.cron.Entry(j.entryID).Next
}

// Start begins running the schedule in the background.
func (j *UsageReset) Start() {
	j.cron.Start()
	j.logger.Info("usage reset scheduler started", zap.Time("next_run", j.Next()))
}

// Stop halts the schedule and waits for a running reset, bounded by ctx.
func (j *UsageReset) Stop(ctx context.Context) {
	select {
	case <-j.cron.Stop().Done():
	case <-ctx.Done():
		j.logger.Warn("usage reset still running at shutdown")
	}
}
