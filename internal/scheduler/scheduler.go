package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	allocationdomain "github.com/smallbiznis/salesdesk/internal/allocation/domain"
	"github.com/smallbiznis/salesdesk/internal/clock"
	"github.com/smallbiznis/salesdesk/internal/config"
	obsmetrics "github.com/smallbiznis/salesdesk/internal/observability/metrics"
	salesemployeedomain "github.com/smallbiznis/salesdesk/internal/salesemployee/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var ErrInvalidConfig = errors.New("scheduler: missing dependency")

// distributeSlack pads the bulk deadline so the run can report a partial
// summary before the job context expires.
const distributeSlack = 30 * time.Second

type Params struct {
	fx.In

	Log              *zap.Logger
	GenID            *snowflake.Node
	Clock            clock.Clock
	EmployeeSvc      salesemployeedomain.Service
	AllocationSvc    allocationdomain.Service
	AllocationConfig *config.AllocationConfigHolder
	Metrics          *obsmetrics.SchedulerMetrics `optional:"true"`
	Config           Config                       `optional:"true"`
}

type Scheduler struct {
	log           *zap.Logger
	cfg           Config
	genID         *snowflake.Node
	clock         clock.Clock
	employeeSvc   salesemployeedomain.Service
	allocationSvc allocationdomain.Service
	allocationCfg *config.AllocationConfigHolder
	metrics       *obsmetrics.SchedulerMetrics
}

func New(p Params) (*Scheduler, error) {
	if p.Log == nil || p.GenID == nil || p.Clock == nil || p.EmployeeSvc == nil || p.AllocationSvc == nil {
		return nil, ErrInvalidConfig
	}
	return &Scheduler{
		log:           p.Log.Named("scheduler").With(zap.String("component", "scheduler")),
		cfg:           p.Config.withDefaults(),
		genID:         p.GenID,
		clock:         p.Clock,
		employeeSvc:   p.EmployeeSvc,
		allocationSvc: p.AllocationSvc,
		allocationCfg: p.AllocationConfig,
		metrics:       p.Metrics,
	}, nil
}

func (s *Scheduler) schedMetrics() *obsmetrics.SchedulerMetrics {
	if s.metrics != nil {
		return s.metrics
	}
	return obsmetrics.Scheduler()
}

func (s *Scheduler) runJob(
	parent context.Context,
	name string,
	timeout time.Duration,
	fn func(ctx context.Context) error,
) error {
	start := s.clock.Now()
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	ctx, run, owner := s.ensureJobRun(ctx, name)
	if owner {
		s.logJobStart(ctx, run)
	}
	log := s.logger(ctx).With(
		zap.String("job", name),
		zap.String("run_id", run.runID),
	)
	schedMetrics := s.schedMetrics()
	schedMetrics.IncJobRun(name)

	err := fn(ctx)
	schedMetrics.ObserveJobDuration(name, s.clock.Now().Sub(start))
	if owner {
		if err != nil && run.errorCount == 0 {
			run.IncError()
		}
		s.logJobFinish(ctx, run)
	}
	if err == nil {
		return nil
	}

	// deadline is a soft timeout; the next tick retries
	isTimeout := errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
	if isTimeout {
		schedMetrics.IncJobTimeout(name)
	}
	schedMetrics.IncJobError(name, err)
	if isTimeout {
		log.Warn("job timed out",
			zap.Duration("timeout", timeout),
			zap.Error(err),
		)
		return nil
	}

	return fmt.Errorf("%s: %w", name, err)
}

func (s *Scheduler) RunOnce(parent context.Context) error {
	var err error

	jobs := []struct {
		Name    string
		Enabled bool
		Run     func(context.Context) error
	}{
		{JobResetDailyCounters, s.isJobEnabled(JobResetDailyCounters), func(ctx context.Context) error {
			return s.runJob(ctx, JobResetDailyCounters, s.cfg.ResetTimeout, s.ResetDailyCountersJob)
		}},
		{JobAutoDistribute, s.isJobEnabled(JobAutoDistribute), func(ctx context.Context) error {
			return s.runJob(ctx, JobAutoDistribute, s.allocationCfg.Get().BulkTimeout+distributeSlack, s.AutoDistributeJob)
		}},
	}

	for _, job := range jobs {
		if job.Enabled {
			err = errors.Join(err, job.Run(parent))
		}
	}
	return err
}

func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()
	nextRun := s.clock.Now().Add(s.cfg.RunInterval)
	schedMetrics := s.schedMetrics()

	for {
		runLag := s.clock.Now().Sub(nextRun)
		if runLag > 0 {
			schedMetrics.ObserveRunLoopLag(runLag)
		}
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("scheduler run failed", zap.Error(err))
		}
		nextRun = nextRun.Add(s.cfg.RunInterval)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Scheduler) isJobEnabled(jobName string) bool {
	if len(s.cfg.EnabledJobs) == 0 {
		return jobName == JobResetDailyCounters
	}
	for _, enabled := range s.cfg.EnabledJobs {
		if strings.EqualFold(enabled, jobName) {
			return true
		}
	}
	return false
}

// ResetDailyCountersJob zeroes today's counters once per local day. The day
// ledger makes every later tick of the same day a no-op, on any instance.
func (s *Scheduler) ResetDailyCountersJob(ctx context.Context) error {
	ctx, run, _ := s.ensureJobRun(ctx, JobResetDailyCounters)

	day := s.clock.Now().In(s.allocationCfg.Get().Location()).Format(time.DateOnly)
	res, err := s.employeeSvc.ResetDailyCountsForDay(ctx, day)
	if err != nil {
		s.logSchedulerError(ctx, run, "reset daily counters failed", JobResetDailyCounters, err, zap.String("day", day))
		return err
	}
	if res.Skipped {
		s.schedMetrics().IncJobSkipped(JobResetDailyCounters, "already_done")
		return nil
	}

	run.AddProcessed(int(res.Employees))
	s.schedMetrics().AddBatchProcessed(JobResetDailyCounters, "sales_employees", int(res.Employees))
	return nil
}

// AutoDistributeJob runs a bulk distribution. A run already in flight on
// another instance is counted as skipped.
func (s *Scheduler) AutoDistributeJob(ctx context.Context) error {
	ctx, run, _ := s.ensureJobRun(ctx, JobAutoDistribute)

	summary, err := s.allocationSvc.DistributeAll(ctx)
	if errors.Is(err, allocationdomain.ErrBulkRunInProgress) {
		s.schedMetrics().IncJobSkipped(JobAutoDistribute, obsmetrics.SchedulerJobReasonLockHeld)
		return nil
	}
	if err != nil {
		s.logSchedulerError(ctx, run, "auto distribute failed", JobAutoDistribute, err)
		return err
	}

	run.AddProcessed(summary.AssignedCount)
	s.schedMetrics().AddBatchProcessed(JobAutoDistribute, "leads", summary.AssignedCount)
	if summary.Partial {
		s.logger(ctx).Warn("auto distribute stopped at deadline",
			zap.String("bulk_run_id", summary.RunID),
			zap.Int("assigned", summary.AssignedCount),
			zap.Int("total", summary.TotalLeads),
		)
	}
	return nil
}
