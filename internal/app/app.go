// Package app собирает сервис рассылки из хранилища, внешних шлюзов
// и фоновых циклов.
package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/dms/internal/domain"
	healthcheck "github.com/vladislavdragonenkov/dms/internal/health"
	"github.com/vladislavdragonenkov/dms/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/dms/internal/metrics"
	"github.com/vladislavdragonenkov/dms/internal/service/dispatch"
	"github.com/vladislavdragonenkov/dms/internal/service/expiry"
	"github.com/vladislavdragonenkov/dms/internal/service/georoute"
	"github.com/vladislavdragonenkov/dms/internal/service/matching"
	"github.com/vladislavdragonenkov/dms/internal/service/notify"
	"github.com/vladislavdragonenkov/dms/internal/service/resolution"
	"github.com/vladislavdragonenkov/dms/internal/storage/memory"
	"github.com/vladislavdragonenkov/dms/internal/storage/postgres"
	"github.com/vladislavdragonenkov/dms/internal/version"
)

// Config описывает минимальные настройки запуска приложения.
type Config struct {
	MetricsAddr      string
	DatabaseDSN      string
	DispatchInterval time.Duration
	SweepInterval    time.Duration
}

// DefaultConfig возвращает базовые настройки сервиса.
func DefaultConfig() Config {
	return Config{
		MetricsAddr:      ":9090",
		DispatchInterval: 30 * time.Second,
		SweepInterval:    time.Minute,
	}
}

// repositories — набор хранилищ, собранный под выбранный backend.
type repositories struct {
	orders  domain.OrderRepository
	offers  domain.OfferRepository
	vendors domain.VendorRepository
	history domain.HistoryRepository
	store   domain.MutationStore
}

func Run(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "app")

	repos, pgStore, err := initStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if pgStore != nil {
		defer func() {
			if err := pgStore.Close(); err != nil {
				logger.WithError(err).Warn("failed to close postgres store")
			}
		}()
	}

	// Инициализация Kafka producer (опционально)
	var kafkaProducer *kafka.Producer
	kafkaBrokers := os.Getenv("KAFKA_BROKERS")
	if kafkaBrokers != "" {
		brokers := strings.Split(kafkaBrokers, ",")
		producer, err := kafka.NewProducer(brokers)
		if err != nil {
			logger.WithError(err).Warn("failed to create kafka producer, continuing without kafka")
		} else {
			kafkaProducer = producer
			logger.WithField("brokers", brokers).Info("kafka producer initialized")
		}
	}

	matchMetrics := metrics.NewMatchMetrics()

	var resolver resolution.Resolver
	if kafkaProducer != nil {
		resolver = resolution.NewServiceWithKafka(repos.orders, repos.offers, repos.store, kafkaProducer, logger.WithField("component", "resolution"))
	} else {
		resolver = resolution.NewService(repos.orders, repos.offers, repos.store, logger.WithField("component", "resolution"))
	}

	// NOTE: Using local route estimation and log delivery for development/demo
	// purposes. In production, replace with real routing and messenger clients.
	gateway := georoute.NewGateway(&georoute.MockGeocoder{}, georoute.NewLocalRouteProvider())
	notifier := notify.NewLogNotifier(logger.WithField("component", "vendor-notify"))
	finder := matching.NewFinder(repos.vendors, gateway, matching.WithLogger(logger.WithField("component", "candidate-finder")))

	broadcaster := dispatch.NewBroadcaster(
		repos.orders, repos.offers, repos.vendors, repos.store, finder, notifier,
		dispatch.WithLogger(logger.WithField("component", "dispatch-broadcaster")),
		dispatch.WithMetrics(matchMetrics),
		dispatch.WithKafkaProducer(kafkaProducer),
		dispatch.WithInterval(cfg.DispatchInterval),
	)
	sweeper := expiry.NewSweeper(
		repos.orders, resolver,
		expiry.WithLogger(logger.WithField("component", "expiry-sweeper")),
		expiry.WithInterval(cfg.SweepInterval),
	)

	// HTTP Health checks
	healthHandler := healthcheck.NewHandler(version.GetVersion())
	if pgStore != nil {
		healthHandler.RegisterChecker("postgres", healthcheck.NewSimpleChecker("postgres", func() error {
			checkCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return pgStore.Ping(checkCtx)
		}))
	}

	metricsSrv := startMetricsServer(cfg.MetricsAddr, logger, healthHandler)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		broadcaster.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		sweeper.Run(ctx)
	}()

	<-ctx.Done()
	logger.Info("получен сигнал остановки, завершаем фоновые циклы")
	wg.Wait()

	shutdownHTTP(metricsSrv, logger)

	// Закрываем Kafka producer
	if kafkaProducer != nil {
		if err := kafkaProducer.Close(); err != nil {
			logger.WithError(err).Warn("failed to close kafka producer")
		} else {
			logger.Info("kafka producer closed")
		}
	}

	return nil
}

// initStorage собирает репозитории: PostgreSQL при заданном DSN,
// иначе in-memory с демо-данными.
func initStorage(ctx context.Context, cfg Config, logger *log.Entry) (repositories, *postgres.Store, error) {
	if cfg.DatabaseDSN != "" {
		store, err := postgres.Open(ctx, cfg.DatabaseDSN)
		if err != nil {
			return repositories{}, nil, err
		}
		if err := store.EnsureSchema(ctx); err != nil {
			_ = store.Close()
			return repositories{}, nil, err
		}
		logger.Info("postgres storage initialized")
		return repositories{
			orders:  postgres.NewOrderRepository(store),
			offers:  postgres.NewOfferRepository(store),
			vendors: postgres.NewVendorRepository(store),
			history: postgres.NewHistoryRepository(store),
			store:   postgres.NewMutationStore(store),
		}, store, nil
	}

	orders := memory.NewOrderRepository()
	offers := memory.NewOfferRepository()
	vendors := memory.NewVendorRepository()
	history := memory.NewHistoryRepository()
	repos := repositories{
		orders:  orders,
		offers:  offers,
		vendors: vendors,
		history: history,
		store:   memory.NewMutationStore(orders, offers, history),
	}

	if err := seedDemoData(repos, time.Now().UTC()); err != nil {
		return repositories{}, nil, err
	}
	logger.Info("in-memory storage initialized with demo data")
	return repos, nil, nil
}

// startMetricsServer запускает HTTP-обработчик /metrics для Prometheus.
func startMetricsServer(addr string, logger *log.Entry, healthHandler *healthcheck.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", healthHandler)
	mux.HandleFunc("/livez", healthcheck.LivenessHandler)
	mux.HandleFunc("/readyz", healthHandler.ReadinessHandler)

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		logger.Infof("метрики доступны по адресу %s/metrics", addr)
		logger.Infof("health checks: %s/healthz, %s/livez, %s/readyz", addr, addr, addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Warn("metrics server failed")
		}
	}()

	return srv
}

// shutdownHTTP аккуратно останавливает HTTP-сервер.
func shutdownHTTP(srv *http.Server, logger *log.Entry) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("metrics shutdown with error")
	}
}
