// Package jobs runs the periodic housekeeping tasks of the server.
package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/hongminglow/gigdash/internal/dashboard"
	"github.com/hongminglow/gigdash/internal/storage"
)

const (
	limiterIdle        = time.Hour
	jobTimeout         = time.Minute
	limiterCleanupSpec = "@hourly"
	expiryReportSpec   = "0 7 * * *"
)

// SessionSweeper deletes expired sessions.
type SessionSweeper interface {
	Sweep(ctx context.Context) (int64, error)
}

// LimiterCleaner drops idle per-client rate limiters.
type LimiterCleaner interface {
	Cleanup(idle time.Duration) int
}

// Config holds the schedules. Empty specs fall back to the defaults.
type Config struct {
	SessionSweep string
}

// Runner owns the cron scheduler.
type Runner struct {
	cron     *cron.Cron
	logger   *zap.Logger
	sessions SessionSweeper
	limiters []LimiterCleaner
	vehicles storage.VehicleStore
	now      func() time.Time
}

// New registers every job. Call Start to begin running them.
func New(cfg Config, sessions SessionSweeper, limiters []LimiterCleaner, vehicles storage.VehicleStore, logger *zap.Logger) (*Runner, error) {
	clog := cronLogger{logger.Sugar()}
	r := &Runner{
		cron:     cron.New(cron.WithLogger(clog), cron.WithChain(cron.Recover(clog), cron.SkipIfStillRunning(clog))),
		logger:   logger,
		sessions: sessions,
		limiters: limiters,
		vehicles: vehicles,
		now:      time.Now,
	}
	sweep := cfg.SessionSweep
	if sweep == "" {
		sweep = "@every 15m"
	}
	jobs := []struct {
		spec string
		run  func(context.Context)
	}{
		{sweep, r.SweepSessions},
		{limiterCleanupSpec, func(context.Context) { r.CleanupLimiters() }},
		{expiryReportSpec, func(ctx context.Context) { r.ReportExpiringVehicles(ctx) }},
	}
	for _, j := range jobs {
		run := j.run
		if _, err := r.cron.AddFunc(j.spec, func() {
			ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
			defer cancel()
			run(ctx)
		}); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Start runs the scheduler in its own goroutine.
func (r *Runner) Start() {
	r.cron.Start()
}

// Stop halts scheduling and waits for running jobs or ctx, whichever ends first.
func (r *Runner) Stop(ctx context.Context) {
	done := r.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}

// SweepSessions removes expired login sessions.
func (r *Runner) SweepSessions(ctx context.Context) {
	if r.sessions == nil {
		return
	}
	n, err := r.sessions.Sweep(ctx)
	if err != nil {
		r.logger.Error("session sweep failed", zap.Error(err))
		return
	}
	if n > 0 {
		r.logger.Info("expired sessions removed", zap.Int64("count", n))
	}
}

// CleanupLimiters forgets rate limiters idle for an hour.
func (r *Runner) CleanupLimiters() int {
	total := 0
	for _, l := range r.limiters {
		total += l.Cleanup(limiterIdle)
	}
	if total > 0 {
		r.logger.Debug("idle rate limiters removed", zap.Int("count", total))
	}
	return total
}

// ReportExpiringVehicles logs every vehicle whose insurance or registration lapses within the
// attention window and returns how many were found.
func (r *Runner) ReportExpiringVehicles(ctx context.Context) int {
	now := r.now()
	vehicles, err := r.vehicles.VehiclesExpiringBefore(ctx, now.Add(dashboard.AttentionWindow))
	if err != nil {
		r.logger.Error("vehicle expiry scan failed", zap.Error(err))
		return 0
	}
	for _, v := range vehicles {
		fields := []zap.Field{zap.Int64("user_id", v.UserID), zap.Int64("vehicle_id", v.ID), zap.String("nickname", v.Nickname)}
		if v.InsuranceExpiresAt != nil {
			fields = append(fields, zap.Time("insurance_expires_at", *v.InsuranceExpiresAt))
		}
		if v.RegistrationExpiresAt != nil {
			fields = append(fields, zap.Time("registration_expires_at", *v.RegistrationExpiresAt))
		}
		r.logger.Info("vehicle paperwork expiring", fields...)
	}
	return len(vehicles)
}

// cronLogger routes cron's logr-style calls to zap.
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
