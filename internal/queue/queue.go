package queue

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"github.com/dmorgan81/neurophoto/internal/config"
	"github.com/dmorgan81/neurophoto/internal/image"
	"github.com/dmorgan81/neurophoto/internal/log"
	"github.com/samber/do"
	"golang.org/x/sync/semaphore"
)

const (
	DefaultCeiling = 3
	DefaultTimeout = 300 * time.Second
)

// Task is one unit of upstream work. It must honour ctx: the scheduler's
// deadline is carried there.
type Task func(ctx context.Context) (image.Outcome, error)

// Scheduler admits tasks in FIFO order up to a fixed ceiling and bounds each
// one by a wall-clock timeout. One Scheduler is shared by every caller in the
// process.
type Scheduler struct {
	sem     *semaphore.Weighted
	ceiling int
	timeout time.Duration

	running   atomic.Int64
	waiting   atomic.Int64
	completed atomic.Int64
	failed    atomic.Int64
	timedOut  atomic.Int64
}

func New(ceiling int, timeout time.Duration) *Scheduler {
	if ceiling < 1 {
		ceiling = DefaultCeiling
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Scheduler{
		sem:     semaphore.NewWeighted(int64(ceiling)),
		ceiling: ceiling,
		timeout: timeout,
	}
}

func NewScheduler(i *do.Injector) (*Scheduler, error) {
	cfg := do.MustInvoke[*config.Config](i)
	return New(cfg.Concurrency, cfg.TaskTimeout), nil
}

type Stats struct {
	Ceiling   int   `json:"ceiling"`
	Running   int64 `json:"running"`
	Waiting   int64 `json:"waiting"`
	Completed int64 `json:"completed"`
	Failed    int64 `json:"failed"`
	TimedOut  int64 `json:"timed_out"`
}

func (s *Scheduler) Stats() Stats {
	return Stats{
		Ceiling:   s.ceiling,
		Running:   s.running.Load(),
		Waiting:   s.waiting.Load(),
		Completed: s.completed.Load(),
		Failed:    s.failed.Load(),
		TimedOut:  s.timedOut.Load(),
	}
}

type result struct {
	outcome image.Outcome
	err     error
}

// Submit waits for a slot, runs task and returns its Outcome. Every failure
// of the task itself is folded into the Outcome; the only error returned is
// ctx's own, when the caller gives up while still waiting for a slot.
//
// The task's context carries the timeout, so an upstream call that honours it
// is cancelled. The slot is released as soon as the timeout is reported even
// if the task has not yet returned.
func (s *Scheduler) Submit(ctx context.Context, task Task) (image.Outcome, error) {
	log := log.FromContextOrDiscard(ctx).WithGroup("scheduler")

	s.waiting.Add(1)
	err := s.sem.Acquire(ctx, 1)
	s.waiting.Add(-1)
	if err != nil {
		return image.Outcome{}, err
	}
	defer s.sem.Release(1)

	s.running.Add(1)
	defer s.running.Add(-1)
	log.Debug("task admitted", "running", s.running.Load(), "waiting", s.waiting.Load())

	taskCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	done := make(chan result, 1)
	go func() {
		outcome, err := task(taskCtx)
		done <- result{outcome, err}
	}()

	var r result
	select {
	case r = <-done:
	case <-taskCtx.Done():
		select {
		case r = <-done:
		default:
			r = result{err: taskCtx.Err()}
		}
	}
	if r.err != nil && ctx.Err() != nil {
		s.failed.Add(1)
		log.Info("task abandoned by caller", "err", ctx.Err())
		return image.Outcome{}, ctx.Err()
	}

	outcome := s.classify(ctx, r)
	switch {
	case outcome.OK():
		s.completed.Add(1)
	case outcome.Failure.Kind == image.KindTimeout:
		s.timedOut.Add(1)
	default:
		s.failed.Add(1)
	}
	return outcome, nil
}

func (s *Scheduler) classify(ctx context.Context, r result) image.Outcome {
	if r.err == nil {
		return r.outcome
	}
	log := log.FromContextOrDiscard(ctx).WithGroup("scheduler")

	switch {
	case errors.Is(r.err, context.DeadlineExceeded):
		log.Warn("task timed out", "timeout", s.timeout, "err", r.err)
		return image.Fail(image.KindTimeout, "generation did not finish within %s", s.timeout)
	case RateLimited(r.err):
		log.Warn("upstream rate limited", "err", r.err)
		return image.Fail(image.KindRateLimited, "%v", r.err)
	}
	log.Error("upstream error", "err", r.err)
	return image.Fail(image.KindUpstreamError, "%v", r.err)
}

// RateLimited reports whether err is an HTTP 429 from upstream, either as a
// StatusError or by message.
func RateLimited(err error) bool {
	var se *image.StatusError
	if errors.As(err, &se) {
		return se.Code == 429
	}
	return strings.Contains(err.Error(), "429")
}
