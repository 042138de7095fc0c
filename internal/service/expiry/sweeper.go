// Package expiry содержит фоновый sweeper, просрочивающий заказы,
// у которых истёк срок цикла подбора.
package expiry

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/dms/internal/domain"
	"github.com/vladislavdragonenkov/dms/internal/service/resolution"
)

const (
	defaultSweepInterval = time.Minute
	defaultBatchSize     = 100
)

// Options задаёт параметры sweeper-а.
type Options struct {
	Logger    *log.Entry
	Interval  time.Duration
	BatchSize int
	Now       func() time.Time
}

// Option настраивает Sweeper.
type Option func(*Options)

// WithLogger задаёт logger для sweeper-а.
func WithLogger(logger *log.Entry) Option {
	return func(opts *Options) {
		opts.Logger = logger
	}
}

// WithInterval задаёт период между проходами.
func WithInterval(interval time.Duration) Option {
	return func(opts *Options) {
		opts.Interval = interval
	}
}

// WithBatchSize задаёт максимум заказов на проход.
func WithBatchSize(batchSize int) Option {
	return func(opts *Options) {
		opts.BatchSize = batchSize
	}
}

// WithNow задаёт источник времени (для тестов).
func WithNow(now func() time.Time) Option {
	return func(opts *Options) {
		opts.Now = now
	}
}

// Sweeper периодически находит просроченные заказы и просрочивает их
// через сервис разрешения. Экспирация идёт тем же путём, что и принятие,
// поэтому не может обогнать конкурентный accept.
type Sweeper struct {
	orders    domain.OrderRepository
	resolver  resolution.Resolver
	logger    *log.Entry
	interval  time.Duration
	batchSize int
	now       func() time.Time
}

// NewSweeper создаёт sweeper просроченных заказов.
func NewSweeper(orders domain.OrderRepository, resolver resolution.Resolver, options ...Option) *Sweeper {
	opts := Options{
		Interval:  defaultSweepInterval,
		BatchSize: defaultBatchSize,
		Now:       time.Now,
	}
	for _, option := range options {
		option(&opts)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.WithField("component", "expiry-sweeper")
	}

	if opts.Interval <= 0 {
		opts.Interval = defaultSweepInterval
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatchSize
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Sweeper{
		orders:    orders,
		resolver:  resolver,
		logger:    logger,
		interval:  opts.Interval,
		batchSize: opts.BatchSize,
		now:       opts.Now,
	}
}

// Run запускает периодические проходы до отмены ctx.
func (s *Sweeper) Run(ctx context.Context) {
	if s.orders == nil || s.resolver == nil {
		s.logger.Warn("expiry sweeper is disabled: orders or resolver is nil")
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.SweepOnce(ctx, s.now())
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SweepOnce(ctx, s.now())
		}
	}
}

// SweepOnce выполняет один проход: каждый просроченный заказ уходит в expired.
// Заказ, решённый между выборкой и экспирацией, пропускается без ошибки.
func (s *Sweeper) SweepOnce(ctx context.Context, now time.Time) int {
	if ctx.Err() != nil {
		return 0
	}

	orders, err := s.orders.ListExpired(now, s.batchSize)
	if err != nil {
		s.logger.WithError(err).Warn("failed to list expired orders")
		return 0
	}

	expired := 0
	for _, order := range orders {
		if ctx.Err() != nil {
			return expired
		}

		if err := s.resolver.ExpireOrder(ctx, order.ID); err != nil {
			if errors.Is(err, domain.ErrOrderNotOpen) {
				// Заказ успели принять или отменить: это не ошибка прохода.
				continue
			}
			s.logger.WithError(err).WithField("order_id", order.ID).Warn("failed to expire order")
			continue
		}
		expired++
	}

	if expired > 0 {
		s.logger.WithField("expired", expired).Info("expiry sweep completed")
	}
	return expired
}
