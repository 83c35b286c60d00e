package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Job is a background unit of work run by SchedulerService.
type Job func(ctx context.Context) error

// SchedulerService runs periodic jobs (reminder dispatch, daily digests) on cron.
type SchedulerService struct {
	cron *cron.Cron
	ctx  context.Context
	log  zerolog.Logger
}

// NewSchedulerService builds a scheduler evaluating daily times in loc. Jobs
// get a context derived from ctx, so cancelling it aborts running jobs.
func NewSchedulerService(ctx context.Context, loc *time.Location, log zerolog.Logger) *SchedulerService {
	log = log.With().Str("component", "cron").Logger()
	cl := cronLogger{log: log}
	return &SchedulerService{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithSeconds(),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		ctx: ctx,
		log: log,
	}
}

// ScheduleDaily registers job to run every day at the HH:MM time string.
func (s *SchedulerService) ScheduleDaily(name, timeStr string, timeout time.Duration, job Job) (cron.EntryID, error) {
	spec, err := buildDailySpec(timeStr)
	if err != nil {
		return 0, fmt.Errorf("schedule %s: %w", name, err)
	}
	return s.cron.AddFunc(spec, s.wrap(name, timeout, job))
}

// ScheduleInterval registers job to run every interval, rounded down to whole seconds.
func (s *SchedulerService) ScheduleInterval(name string, interval, timeout time.Duration, job Job) (cron.EntryID, error) {
	if interval <= 0 {
		return 0, fmt.Errorf("schedule %s: interval must be positive", name)
	}
	return s.cron.Schedule(cron.Every(interval), cron.FuncJob(s.wrap(name, timeout, job))), nil
}

func (s *SchedulerService) wrap(name string, timeout time.Duration, job Job) func() {
	return func() {
		ctx := s.ctx
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		started := time.Now()
		err := job(ctx)
		switch {
		case err == nil:
			s.log.Debug().Str("job", name).Dur("took", time.Since(started)).Msg("job done")
		case errors.Is(err, context.Canceled):
			s.log.Debug().Str("job", name).Msg("job cancelled")
		default:
			s.log.Error().Err(err).Str("job", name).Msg("job failed")
		}
	}
}

func (s *SchedulerService) Start() {
	s.cron.Start()
}

// Stop halts the scheduler and waits for running jobs to finish.
func (s *SchedulerService) Stop() {
	<-s.cron.Stop().Done()
}

func (s *SchedulerService) Entries() int {
	return len(s.cron.Entries())
}

// buildDailySpec turns HH:MM into a seconds-first cron spec.
func buildDailySpec(timeStr string) (string, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(timeStr), ":")
	if !ok {
		return "", fmt.Errorf("invalid time %q, expected HH:MM", timeStr)
	}
	hour, err := strconv.Atoi(hh)
	if err != nil || hour < 0 || hour > 23 {
		return "", fmt.Errorf("invalid hour in %q", timeStr)
	}
	minute, err := strconv.Atoi(mm)
	if err != nil || minute < 0 || minute > 59 {
		return "", fmt.Errorf("invalid minute in %q", timeStr)
	}
	return fmt.Sprintf("0 %d %d * * *", minute, hour), nil
}

// cronLogger routes cron's logr-style output to zerolog.
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
