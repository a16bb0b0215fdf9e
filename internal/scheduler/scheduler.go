package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"github.com/kedr891/skin-portfolio/internal/domain"
	"github.com/kedr891/skin-portfolio/internal/metrics"
)

const _defaultRetryCooldown = 30 * time.Minute

var (
	ErrUnknownJob   = errors.New("unknown job")
	ErrJobRunning   = errors.New("job is already running")
	ErrDuplicateJob = errors.New("job already registered")
)

// Job - фоновая задача. ErrAlreadyDone из Run считается успехом.
type Job struct {
	Name string
	Run  func(ctx context.Context) error
}

type jobState int32

const (
	stateIdle jobState = iota
	stateRunning
	stateBackoff
)

func (s jobState) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateRunning:
		return "running"
	case stateBackoff:
		return "backoff"
	default:
		return "unknown"
	}
}

type entry struct {
	job   Job
	state atomic.Int32
}

func (e *entry) acquire() bool {
	if !e.state.CompareAndSwap(int32(stateIdle), int32(stateRunning)) {
		return false
	}
	metrics.JobRunning.WithLabelValues(e.job.Name).Set(1)
	return true
}

func (e *entry) release() {
	e.state.Store(int32(stateIdle))
	metrics.JobRunning.WithLabelValues(e.job.Name).Set(0)
}

func (e *entry) current() jobState {
	return jobState(e.state.Load())
}

type loop struct {
	entry    *entry
	interval time.Duration
}

// Scheduler - суточные cron-триггеры и циклы с фиксированной паузой.
// Срабатывание, заставшее задачу не в Idle, отбрасывается. Упавшая задача
// повторяется после RetryCooldown до успеха или остановки.
type Scheduler struct {
	cron          *cron.Cron
	barrier       *Barrier
	log           domain.Logger
	retryCooldown time.Duration
	sleep         func(ctx context.Context, d time.Duration) error

	mu    sync.Mutex
	jobs  map[string]*entry
	loops []loop

	runCtx atomic.Pointer[context.Context]
}

type Option func(*Scheduler)

func WithRetryCooldown(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.retryCooldown = d
		}
	}
}

// WithLocation - часовой пояс cron-выражений
func WithLocation(loc *time.Location) Option {
	return func(s *Scheduler) {
		if loc != nil {
			s.cron = cron.New(cron.WithLocation(loc))
		}
	}
}

func WithBarrier(b *Barrier) Option {
	return func(s *Scheduler) {
		s.barrier = b
	}
}

func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(s *Scheduler) {
		s.sleep = sleep
	}
}

func New(log domain.Logger, opts ...Option) *Scheduler {
	s := &Scheduler{
		cron:          cron.New(),
		barrier:       NewBarrier(),
		log:           log,
		retryCooldown: _defaultRetryCooldown,
		sleep:         sleepCtx,
		jobs:          make(map[string]*entry),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Barrier - барьер, который Start ждёт перед первым запуском задач
func (s *Scheduler) Barrier() *Barrier {
	return s.barrier
}

func (s *Scheduler) register(job Job) (*entry, error) {
	if job.Name == "" || job.Run == nil {
		return nil, fmt.Errorf("invalid job %q", job.Name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[job.Name]; ok {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateJob, job.Name)
	}

	e := &entry{job: job}
	s.jobs[job.Name] = e
	return e, nil
}

// AddDaily - запуск по cron-выражению (5 полей, например "0 3 * * *")
func (s *Scheduler) AddDaily(spec string, job Job) error {
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("parse cron spec %q for %s: %w", spec, job.Name, err)
	}

	e, err := s.register(job)
	if err != nil {
		return err
	}

	if _, err := s.cron.AddFunc(spec, func() { s.fire(e) }); err != nil {
		return fmt.Errorf("add cron job %s: %w", job.Name, err)
	}

	s.log.Info("Daily job registered", "job", job.Name, "spec", spec)
	return nil
}

// AddLoop - запуск, пауза interval, снова запуск
func (s *Scheduler) AddLoop(interval time.Duration, job Job) error {
	if interval <= 0 {
		return fmt.Errorf("loop interval for %s must be positive", job.Name)
	}

	e, err := s.register(job)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.loops = append(s.loops, loop{entry: e, interval: interval})
	s.mu.Unlock()

	s.log.Info("Loop job registered", "job", job.Name, "interval", interval)
	return nil
}

// Start - дождаться барьера, запустить cron и циклы. Возвращается после отмены ctx,
// когда все выполняющиеся задачи завершились.
func (s *Scheduler) Start(ctx context.Context) error {
	s.log.Info("Scheduler waiting for startup barrier")
	if err := s.barrier.Wait(ctx); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	s.runCtx.Store(&gctx)

	s.mu.Lock()
	loops := append([]loop(nil), s.loops...)
	s.mu.Unlock()

	for _, l := range loops {
		g.Go(func() error {
			return s.runLoop(gctx, l)
		})
	}

	s.cron.Start()
	s.log.Info("Scheduler started", "loops", len(loops), "daily", len(s.cron.Entries()))

	g.Go(func() error {
		<-gctx.Done()
		stopped := s.cron.Stop()
		<-stopped.Done()
		s.log.Info("Scheduler stopped")
		return gctx.Err()
	})

	return g.Wait()
}

// RunOnce - выполнить зарегистрированную задачу один раз синхронно, без повторов
func (s *Scheduler) RunOnce(ctx context.Context, name string) error {
	s.mu.Lock()
	e, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}

	if !e.acquire() {
		return fmt.Errorf("%w: %s", ErrJobRunning, name)
	}
	defer e.release()

	err := s.attempt(ctx, e)
	if errors.Is(err, domain.ErrAlreadyDone) {
		return nil
	}
	return err
}

// Jobs - имена и состояния зарегистрированных задач
func (s *Scheduler) Jobs() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]string, len(s.jobs))
	for name, e := range s.jobs {
		out[name] = e.current().String()
	}
	return out
}

// fire - срабатывание cron
func (s *Scheduler) fire(e *entry) {
	ctxPtr := s.runCtx.Load()
	if ctxPtr == nil {
		return
	}
	ctx := *ctxPtr

	if !e.acquire() {
		metrics.JobRunsTotal.WithLabelValues(e.job.Name, "dropped").Inc()
		s.log.Warn("Trigger dropped, job is not idle", "job", e.job.Name, "state", e.current().String())
		return
	}
	defer e.release()

	_ = s.runUntilSuccess(ctx, e)
}

func (s *Scheduler) runLoop(ctx context.Context, l loop) error {
	for {
		if l.entry.acquire() {
			err := s.runUntilSuccess(ctx, l.entry)
			l.entry.release()
			if err != nil {
				return err
			}
		} else {
			metrics.JobRunsTotal.WithLabelValues(l.entry.job.Name, "dropped").Inc()
			s.log.Warn("Loop iteration skipped, job is not idle", "job", l.entry.job.Name)
		}

		s.log.Info("Loop job sleeping", "job", l.entry.job.Name, "next_run", time.Now().Add(l.interval).Format(time.RFC3339))
		if err := s.sleep(ctx, l.interval); err != nil {
			return err
		}
	}
}

// runUntilSuccess - Running -> (Idle | Backoff -> Running); ошибка только при отмене ctx
func (s *Scheduler) runUntilSuccess(ctx context.Context, e *entry) error {
	for {
		err := s.attempt(ctx, e)
		if err == nil || errors.Is(err, domain.ErrAlreadyDone) {
			return nil
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		e.state.Store(int32(stateBackoff))
		s.log.Info("Job backing off before retry",
			"job", e.job.Name,
			"cooldown", s.retryCooldown,
		)

		if err := s.sleep(ctx, s.retryCooldown); err != nil {
			return err
		}
		e.state.Store(int32(stateRunning))
	}
}

// attempt - один запуск задачи с замером и восстановлением после паники
func (s *Scheduler) attempt(ctx context.Context, e *entry) (err error) {
	name := e.job.Name
	startTime := time.Now()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job %s panicked: %v", name, r)
		}

		elapsed := time.Since(startTime)
		metrics.JobDuration.WithLabelValues(name).Observe(elapsed.Seconds())

		switch {
		case err == nil:
			metrics.JobRunsTotal.WithLabelValues(name, "success").Inc()
			s.log.Info("Job completed", "job", name, "elapsed", elapsed)
		case errors.Is(err, domain.ErrAlreadyDone):
			metrics.JobRunsTotal.WithLabelValues(name, "already_done").Inc()
			s.log.Info("Job already done today", "job", name, "elapsed", elapsed)
		default:
			metrics.JobRunsTotal.WithLabelValues(name, "failed").Inc()
			s.log.Error("Job run failed", "job", name, "elapsed", elapsed, "error", err)
		}
	}()

	s.log.Info("Job started", "job", name)
	return e.job.Run(ctx)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
