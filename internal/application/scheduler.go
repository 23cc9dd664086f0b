package application

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/ericfisherdev/profilekeeper/internal/domain/model"
)

// ActionRunner executes a portal action.
type ActionRunner interface {
	Run(ctx context.Context, action model.ActionKind, trigger model.Trigger) (model.ActionResult, error)
}

// Scheduler fires actions on cron schedules, each firing delayed by a uniform
// random jitter so runs do not land on the exact same second every day.
type Scheduler struct {
	runner    ActionRunner
	cron      *cron.Cron
	location  *time.Location
	maxJitter time.Duration
	jitter    func(max time.Duration) time.Duration
	clock     Clock
	logger    *slog.Logger

	schedules map[model.ActionKind]cron.Schedule
	ctx       context.Context
}

// NewScheduler creates a Scheduler whose cron expressions are evaluated in loc.
func NewScheduler(runner ActionRunner, loc *time.Location, maxJitter time.Duration, logger *slog.Logger, opts ...Option) *Scheduler {
	o := buildOptions(opts)
	cl := cronLogger{logger: logger}
	return &Scheduler{
		runner: runner,
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		location:  loc,
		maxJitter: maxJitter,
		jitter:    uniformJitter,
		clock:     o.clock,
		logger:    logger,
		schedules: make(map[model.ActionKind]cron.Schedule),
		ctx:       context.Background(),
	}
}

// Register schedules action on a standard 5-field cron expression.
func (s *Scheduler) Register(action model.ActionKind, spec string) error {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return fmt.Errorf("parse %s schedule %q: %w", action, spec, err)
	}

	s.cron.Schedule(schedule, cron.FuncJob(func() { s.fire(s.ctx, action) }))
	s.schedules[action] = schedule

	s.logger.Info("action scheduled",
		"action", action,
		"cron", spec,
		"timezone", s.location.String(),
		"max_jitter", s.maxJitter,
		"next", s.Next(action),
	)
	return nil
}

// Next returns the next firing time of action, before jitter.
func (s *Scheduler) Next(action model.ActionKind) time.Time {
	schedule, ok := s.schedules[action]
	if !ok {
		return time.Time{}
	}
	return schedule.Next(s.clock.Now().In(s.location))
}

// Start runs the schedules until ctx is canceled, then waits for running
// jobs to finish.
func (s *Scheduler) Start(ctx context.Context) {
	s.ctx = ctx
	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.schedules))

	<-ctx.Done()

	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}

// fire waits out the jitter and runs action. Errors are logged and dropped so
// one failed run never stops later ones.
func (s *Scheduler) fire(ctx context.Context, action model.ActionKind) {
	delay := s.jitter(s.maxJitter)
	s.logger.Info("scheduled run triggered", "action", action, "delay", delay.Round(time.Second))

	if err := sleep(ctx, s.clock, delay); err != nil {
		s.logger.Info("scheduled run abandoned", "action", action, "reason", err)
		return
	}

	result, err := s.runner.Run(ctx, action, model.TriggerSchedule)
	if err != nil {
		s.logger.Error("scheduled run failed", "action", action, "attempts", result.Attempts, "error", err)
		return
	}
	s.logger.Info("scheduled run succeeded", "action", action, "message", result.Message)
}

// uniformJitter returns a delay in [0, max].
func uniformJitter(max time.Duration) time.Duration {
	if max <= 0 {
		return 0
	}
	return time.Duration(rand.Int64N(int64(max) + 1))
}

// cronLogger routes robfig/cron's logging through slog.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
