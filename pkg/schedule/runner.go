package schedule

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/smith3v/tg-daily-companion/pkg/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const DefaultTickInterval = time.Minute

// Runner drives the Coordinator and the Sweeper on a fixed interval. Ticks never
// overlap: a tick that finds the previous one still running is skipped.
type Runner struct {
	coordinator *Coordinator
	sweeper     *Sweeper
	interval    time.Duration
	location    *time.Location
	now         func() time.Time
	tracer      trace.Tracer

	running sync.Mutex
}

func NewRunner(coordinator *Coordinator, sweeper *Sweeper, interval time.Duration, location *time.Location) *Runner {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	if location == nil {
		location = time.UTC
	}
	return &Runner{
		coordinator: coordinator,
		sweeper:     sweeper,
		interval:    interval,
		location:    location,
		now:         time.Now,
		tracer:      otel.Tracer(tracerName),
	}
}

// Start runs one catch-up tick immediately, then one per interval until ctx is done.
func (r *Runner) Start(ctx context.Context) {
	r.Tick(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Tick(ctx)
		}
	}
}

// Tick runs the broadcasts and then the reminder sweep. It reports false when it
// was skipped because another tick was still in progress.
func (r *Runner) Tick(ctx context.Context) bool {
	if !r.running.TryLock() {
		logger.Warn("previous tick still running, skipping")
		return false
	}
	defer r.running.Unlock()

	started := time.Now()
	tickID := uuid.NewString()
	now := r.now().In(r.location)
	ctx, span := r.tracer.Start(ctx, "schedule.tick", trace.WithAttributes(attribute.String("tick_id", tickID)))
	defer span.End()

	var errs []error
	if err := r.coordinator.RunDue(ctx, now); err != nil {
		logger.Error("scheduled broadcasts failed", "tick_id", tickID, "error", err)
		errs = append(errs, err)
	}
	if r.sweeper != nil {
		if _, err := r.sweeper.Sweep(ctx, now); err != nil {
			logger.Error("reminder sweep failed", "tick_id", tickID, "error", err)
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "tick failed")
	}
	logger.Debug("tick finished", "tick_id", tickID, "elapsed", time.Since(started))
	return true
}
