package schedule

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"eco2mix-insights/internal/energy/application"
	"eco2mix-insights/internal/energy/domain/snapshot"
)

// Reloader refreshes the served dataset.
type Reloader interface {
	Reload(ctx context.Context) (*application.LoadedDataset, error)
}

// Publisher writes the current daily table to the snapshot store.
type Publisher interface {
	Enabled() bool
	Publish(ctx context.Context) (snapshot.Run, error)
}

// Scheduler reloads the dataset on a cron schedule and, when a snapshot
// store is configured, publishes the daily table after each reload.
type Scheduler struct {
	cron      *cron.Cron
	reloader  Reloader
	publisher Publisher
	timeout   time.Duration
	logger    logrus.FieldLogger

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithPublisher publishes a snapshot after every successful reload.
func WithPublisher(p Publisher) Option {
	return func(s *Scheduler) {
		s.publisher = p
	}
}

// WithTimeout bounds one scheduled run.
func WithTimeout(timeout time.Duration) Option {
	return func(s *Scheduler) {
		if timeout > 0 {
			s.timeout = timeout
		}
	}
}

// WithLogger sets the scheduler logger.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New builds a scheduler for a standard five-field cron spec or a descriptor
// such as "@daily" or "@every 6h".
func New(spec string, reloader Reloader, opts ...Option) (*Scheduler, error) {
	if spec == "" {
		return nil, errors.New("schedule: empty spec")
	}
	if reloader == nil {
		return nil, errors.New("schedule: nil reloader")
	}
	s := &Scheduler{
		cron:     cron.New(),
		reloader: reloader,
		timeout:  10 * time.Minute,
		logger:   logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if _, err := s.cron.AddFunc(spec, s.run); err != nil {
		return nil, fmt.Errorf("schedule: invalid spec %q: %w", spec, err)
	}
	return s, nil
}

// Start runs the schedule until ctx is done or Stop is called.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	ctx, s.cancel = context.WithCancel(ctx)
	s.ctx = ctx
	s.mu.Unlock()

	s.cron.Start()
	go func() {
		<-ctx.Done()
		s.cron.Stop()
	}()
}

// Stop halts the schedule and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()
	<-s.cron.Stop().Done()
}

// Next returns the next activation time, zero when stopped.
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// parent is the Start context, so shutdown cancels an in-flight run.
func (s *Scheduler) parent() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx == nil {
		return context.Background()
	}
	return s.ctx
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(s.parent(), s.timeout)
	defer cancel()
	if err := s.RunOnce(ctx); err != nil {
		s.logger.Printf("scheduled run error: %v", err)
	}
}

// RunOnce reloads the dataset then publishes a snapshot if enabled.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	loaded, err := s.reloader.Reload(ctx)
	if err != nil {
		return fmt.Errorf("reload: %w", err)
	}
	if s.publisher == nil || !s.publisher.Enabled() {
		return nil
	}
	run, err := s.publisher.Publish(ctx)
	if err != nil {
		return fmt.Errorf("publish snapshot for version %d: %w", loaded.Version, err)
	}
	s.logger.WithFields(logrus.Fields{
		"version": loaded.Version,
		"run_id":  run.ID,
	}).Debug("scheduled run complete")
	return nil
}
