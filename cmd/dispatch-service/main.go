package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/dms/internal/app"
	"github.com/vladislavdragonenkov/dms/internal/version"
)

func main() {
	setupLogger()

	log.WithFields(log.Fields{
		"version": version.GetVersion(),
		"commit":  version.GetCommit(),
		"date":    version.GetDate(),
	}).Info("запуск сервиса рассылки заказов")

	cfg := readConfig()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, cfg); err != nil {
		log.WithError(err).Fatal("сервис завершился с ошибкой")
	}

	log.Info("сервис остановлен")
}

func setupLogger() {
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp: true,
	})
	log.SetLevel(log.InfoLevel)
	if level, err := log.ParseLevel(os.Getenv("DMS_LOG_LEVEL")); err == nil {
		log.SetLevel(level)
	}
}

func readConfig() app.Config {
	cfg := app.DefaultConfig()

	if addr := os.Getenv("DMS_METRICS_ADDR"); addr != "" {
		cfg.MetricsAddr = addr
	}
	if dsn := os.Getenv("DMS_DATABASE_DSN"); dsn != "" {
		cfg.DatabaseDSN = dsn
	}
	if raw := os.Getenv("DMS_DISPATCH_INTERVAL"); raw != "" {
		if interval, err := time.ParseDuration(raw); err == nil && interval > 0 {
			cfg.DispatchInterval = interval
		} else {
			log.WithField("value", raw).Warn("invalid DMS_DISPATCH_INTERVAL, using default")
		}
	}
	if raw := os.Getenv("DMS_SWEEP_INTERVAL"); raw != "" {
		if interval, err := time.ParseDuration(raw); err == nil && interval > 0 {
			cfg.SweepInterval = interval
		} else {
			log.WithField("value", raw).Warn("invalid DMS_SWEEP_INTERVAL, using default")
		}
	}

	return cfg
}
