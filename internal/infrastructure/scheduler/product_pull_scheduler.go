package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Scheduler errors
var (
	ErrInvalidPullConfig       = errors.New("scheduler: invalid product pull configuration")
	ErrPullSchedulerNotRunning = errors.New("scheduler: product pull scheduler is not running")
)

// PullExecutor runs one product pull pass
type PullExecutor interface {
	Execute(ctx context.Context) error
}

// ProductPullSchedulerConfig holds configuration for the product pull scheduler
type ProductPullSchedulerConfig struct {
	// Enabled indicates if the scheduler is enabled
	Enabled bool
	// Interval is the time between pull runs
	Interval time.Duration
	// RunTimeout bounds a single run
	RunTimeout time.Duration
}

// DefaultProductPullSchedulerConfig returns default configuration
func DefaultProductPullSchedulerConfig() ProductPullSchedulerConfig {
	return ProductPullSchedulerConfig{
		Enabled:    true,
		Interval:   5 * time.Minute,
		RunTimeout: 2 * time.Minute,
	}
}

// Validate validates the configuration
func (c *ProductPullSchedulerConfig) Validate() error {
	if c.Interval <= 0 {
		return ErrInvalidPullConfig
	}
	if c.RunTimeout <= 0 {
		return ErrInvalidPullConfig
	}
	return nil
}

// ProductPullScheduler triggers the ERP→commerce product pull at a fixed
// interval. Runs never overlap; the loop is a single goroutine and each run
// completes or times out before the next tick is considered.
type ProductPullScheduler struct {
	config   ProductPullSchedulerConfig
	executor PullExecutor
	logger   *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewProductPullScheduler creates a new product pull scheduler
func NewProductPullScheduler(config ProductPullSchedulerConfig, executor PullExecutor, logger *zap.Logger) (*ProductPullScheduler, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &ProductPullScheduler{
		config:   config,
		executor: executor,
		logger:   logger.Named("product-pull-scheduler"),
	}, nil
}

// Start starts the scheduler loop. The first run fires immediately so a
// restart does not wait a full interval to catch up.
func (s *ProductPullScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.loop(ctx)

	s.logger.Info("product pull scheduler started",
		zap.Duration("interval", s.config.Interval),
		zap.Duration("run_timeout", s.config.RunTimeout))
	return nil
}

// Stop gracefully stops the scheduler, waiting for an in-flight run to
// finish or the given context to expire
func (s *ProductPullScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("product pull scheduler stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("product pull scheduler stop timed out")
		return ctx.Err()
	}
}

// IsRunning reports whether the scheduler loop is active
func (s *ProductPullScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

// TriggerNow runs one pull pass outside the schedule, used by the manual
// sync endpoint
func (s *ProductPullScheduler) TriggerNow(ctx context.Context) error {
	s.mu.Lock()
	running := s.isRunning
	s.mu.Unlock()
	if !running {
		return ErrPullSchedulerNotRunning
	}
	return s.runOnce(ctx)
}

func (s *ProductPullScheduler) loop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	if err := s.runOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Warn("initial pull run failed", zap.Error(err))
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.runOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
				s.logger.Warn("pull run failed", zap.Error(err))
			}
		}
	}
}

func (s *ProductPullScheduler) runOnce(ctx context.Context) error {
	runID := uuid.New()
	started := time.Now()

	runCtx, cancel := context.WithTimeout(ctx, s.config.RunTimeout)
	defer cancel()

	s.logger.Debug("pull run starting", zap.String("run_id", runID.String()))

	err := s.executor.Execute(runCtx)
	duration := time.Since(started)
	if err != nil {
		s.logger.Warn("pull run finished with error",
			zap.String("run_id", runID.String()),
			zap.Duration("duration", duration),
			zap.Error(err))
		return err
	}

	s.logger.Info("pull run finished",
		zap.String("run_id", runID.String()),
		zap.Duration("duration", duration))
	return nil
}
