// Package postgres реализует репозитории домена поверх PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const (
	defaultConnTimeout     = 5 * time.Second
	defaultMaxOpenConns    = 25
	defaultMaxIdleConns    = 25
	defaultConnMaxLifetime = 30 * time.Minute
	defaultConnMaxIdleTime = 5 * time.Minute
)

// Store оборачивает SQL-подключение к PostgreSQL.
type Store struct {
	db *sql.DB
}

// Open открывает подключение к PostgreSQL и проверяет доступность базы.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres connection: %w", err)
	}
	db.SetMaxOpenConns(defaultMaxOpenConns)
	db.SetMaxIdleConns(defaultMaxIdleConns)
	db.SetConnMaxLifetime(defaultConnMaxLifetime)
	db.SetConnMaxIdleTime(defaultConnMaxIdleTime)

	pingCtx, cancel := context.WithTimeout(ctx, defaultConnTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &Store{db: db}, nil
}

// DB возвращает raw SQL DB, когда нужен низкоуровневый доступ.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Ping проверяет доступность подключения.
func (s *Store) Ping(ctx context.Context) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("postgres store is not initialized")
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultConnTimeout)
	defer cancel()
	return s.db.PingContext(pingCtx)
}

// schemaStatements — DDL схемы в порядке зависимостей.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS orders (
		id               TEXT PRIMARY KEY,
		client_id        TEXT NOT NULL,
		material_id      TEXT NOT NULL,
		quantity         DOUBLE PRECISION NOT NULL,
		delivery_lat     DOUBLE PRECISION NOT NULL,
		delivery_lon     DOUBLE PRECISION NOT NULL,
		delivery_address TEXT NOT NULL DEFAULT '',
		delivery_date    TIMESTAMPTZ,
		window_from      TIMESTAMPTZ,
		window_to        TIMESTAMPTZ,
		finish_by        TIMESTAMPTZ NOT NULL,
		status           TEXT NOT NULL,
		version          BIGINT NOT NULL DEFAULT 0,
		created_at       TIMESTAMPTZ NOT NULL,
		expires_at       TIMESTAMPTZ NOT NULL,
		updated_at       TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_status_expires ON orders (status, expires_at)`,
	`CREATE TABLE IF NOT EXISTS vendors (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		channel_id TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS vendor_storages (
		id        TEXT PRIMARY KEY,
		vendor_id TEXT NOT NULL REFERENCES vendors(id),
		name      TEXT NOT NULL,
		lat       DOUBLE PRECISION NOT NULL,
		lon       DOUBLE PRECISION NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS storage_materials (
		storage_id           TEXT NOT NULL REFERENCES vendor_storages(id),
		material_id          TEXT NOT NULL,
		price_per_unit       DOUBLE PRECISION NOT NULL,
		delivery_cost_per_km DOUBLE PRECISION NOT NULL,
		updated_at           TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (storage_id, material_id)
	)`,
	`CREATE TABLE IF NOT EXISTS offers (
		id               TEXT PRIMARY KEY,
		order_id         TEXT NOT NULL REFERENCES orders(id),
		storage_id       TEXT NOT NULL,
		vendor_id        TEXT NOT NULL,
		distance_meters  BIGINT NOT NULL,
		duration_minutes BIGINT NOT NULL,
		price            DOUBLE PRECISION NOT NULL,
		status           TEXT NOT NULL,
		version          BIGINT NOT NULL DEFAULT 0,
		created_at       TIMESTAMPTZ NOT NULL,
		updated_at       TIMESTAMPTZ NOT NULL,
		UNIQUE (order_id, storage_id)
	)`,
	`CREATE TABLE IF NOT EXISTS order_history (
		id       TEXT PRIMARY KEY,
		order_id TEXT NOT NULL,
		status   TEXT NOT NULL,
		changer  TEXT NOT NULL,
		reason   TEXT NOT NULL DEFAULT '',
		occurred TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_order_history_order ON order_history (order_id, occurred)`,
	`CREATE TABLE IF NOT EXISTS offer_history (
		id       TEXT PRIMARY KEY,
		offer_id TEXT NOT NULL,
		status   TEXT NOT NULL,
		changer  TEXT NOT NULL,
		occurred TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_offer_history_offer ON offer_history (offer_id, occurred)`,
}

// EnsureSchema создаёт таблицы, если их ещё нет. Идемпотентна.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// Close закрывает подключение к БД.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
