package dispatch

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/dms/internal/domain"
	"github.com/vladislavdragonenkov/dms/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/dms/internal/metrics"
)

const (
	defaultInterval  = 30 * time.Second
	defaultBatchSize = 100
)

// Options задаёт параметры цикла рассылки.
type Options struct {
	Logger        *log.Entry
	Metrics       *metrics.MatchMetrics
	KafkaProducer *kafka.Producer
	Interval      time.Duration
	BatchSize     int
	Now           func() time.Time
}

// Option настраивает Broadcaster.
type Option func(*Options)

// WithLogger задаёт logger для рассылки.
func WithLogger(logger *log.Entry) Option {
	return func(opts *Options) {
		opts.Logger = logger
	}
}

// WithMetrics задаёт метрики цикла. Без этой опции метрики отключены,
// что удобно в тестах.
func WithMetrics(m *metrics.MatchMetrics) Option {
	return func(opts *Options) {
		opts.Metrics = m
	}
}

// WithKafkaProducer задаёт producer для событий жизненного цикла заказов.
func WithKafkaProducer(producer *kafka.Producer) Option {
	return func(opts *Options) {
		opts.KafkaProducer = producer
	}
}

// WithInterval задаёт период между циклами рассылки.
func WithInterval(interval time.Duration) Option {
	return func(opts *Options) {
		opts.Interval = interval
	}
}

// WithBatchSize задаёт максимум заказов на цикл.
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

// NewBroadcaster создаёт цикл рассылки офферов.
func NewBroadcaster(
	orders domain.OrderRepository,
	offers domain.OfferRepository,
	vendors domain.VendorRepository,
	store domain.MutationStore,
	finder CandidateSource,
	notifier domain.VendorNotifier,
	options ...Option,
) *Broadcaster {
	opts := Options{
		Interval:  defaultInterval,
		BatchSize: defaultBatchSize,
		Now:       time.Now,
	}
	for _, option := range options {
		option(&opts)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.WithField("component", "dispatch-broadcaster")
	}

	if opts.Interval <= 0 {
		opts.Interval = defaultInterval
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatchSize
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Broadcaster{
		orders:        orders,
		offers:        offers,
		vendors:       vendors,
		store:         store,
		finder:        finder,
		notifier:      notifier,
		logger:        logger,
		metrics:       opts.Metrics,
		kafkaProducer: opts.KafkaProducer,
		batchSize:     opts.BatchSize,
		now:           opts.Now,
		interval:      opts.Interval,
	}
}

// Run запускает периодическую рассылку до отмены ctx.
func (b *Broadcaster) Run(ctx context.Context) {
	if b.finder == nil || b.notifier == nil {
		b.logger.Warn("dispatch broadcaster is disabled: finder or notifier is nil")
		return
	}

	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	b.DispatchOnce(ctx, b.now())
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.DispatchOnce(ctx, b.now())
		}
	}
}
