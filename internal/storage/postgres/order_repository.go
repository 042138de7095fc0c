package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vladislavdragonenkov/dms/internal/domain"
)

const (
	opTimeout = 5 * time.Second
)

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository создаёт PostgreSQL-реализацию OrderRepository.
func NewOrderRepository(store *Store) domain.OrderRepository {
	return &orderRepository{db: store.DB()}
}

const orderColumns = `
	id, client_id, material_id, quantity,
	delivery_lat, delivery_lon, delivery_address, delivery_date,
	window_from, window_to, finish_by,
	status, version, created_at, expires_at, updated_at
`

func (r *orderRepository) Create(order domain.Order) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var windowFrom, windowTo sql.NullTime
	if order.Delivery.Window != nil {
		windowFrom = sql.NullTime{Time: order.Delivery.Window.From, Valid: true}
		windowTo = sql.NullTime{Time: order.Delivery.Window.To, Valid: true}
	}
	deliveryDate := sql.NullTime{Time: order.Delivery.Date, Valid: !order.Delivery.Date.IsZero()}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO orders (`+orderColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
	`,
		order.ID, order.ClientID, order.MaterialID, order.Quantity,
		order.Delivery.Lat, order.Delivery.Lon, order.Delivery.Address, deliveryDate,
		windowFrom, windowTo, order.Delivery.FinishBy,
		string(order.Status), order.Version, order.CreatedAt, order.ExpiresAt, order.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrVersionConflict
		}
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (r *orderRepository) Get(id string) (domain.Order, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	row := r.db.QueryRowContext(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE id = $1
	`, id)

	order, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		return domain.Order{}, fmt.Errorf("select order: %w", err)
	}
	return order, nil
}

func (r *orderRepository) ListOpen(now time.Time, limit int) ([]domain.Order, error) {
	return r.list(`
		SELECT `+orderColumns+`
		FROM orders
		WHERE status IN ('created','dispatched','offered')
		  AND expires_at > $1
		ORDER BY created_at ASC, id ASC
	`, now, limit)
}

func (r *orderRepository) ListExpired(now time.Time, limit int) ([]domain.Order, error) {
	return r.list(`
		SELECT `+orderColumns+`
		FROM orders
		WHERE status IN ('created','dispatched','offered')
		  AND expires_at <= $1
		ORDER BY created_at ASC, id ASC
	`, now, limit)
}

func (r *orderRepository) list(query string, now time.Time, limit int) ([]domain.Order, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var (
		rows *sql.Rows
		err  error
	)
	if limit > 0 {
		rows, err = r.db.QueryContext(ctx, query+" LIMIT $2", now, limit)
	} else {
		rows, err = r.db.QueryContext(ctx, query, now)
	}
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := make([]domain.Order, 0)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order rows: %w", err)
	}
	return orders, nil
}

func (r *orderRepository) Save(order domain.Order) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var windowFrom, windowTo sql.NullTime
	if order.Delivery.Window != nil {
		windowFrom = sql.NullTime{Time: order.Delivery.Window.From, Valid: true}
		windowTo = sql.NullTime{Time: order.Delivery.Window.To, Valid: true}
	}
	deliveryDate := sql.NullTime{Time: order.Delivery.Date, Valid: !order.Delivery.Date.IsZero()}

	res, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET client_id = $1,
		    material_id = $2,
		    quantity = $3,
		    delivery_lat = $4,
		    delivery_lon = $5,
		    delivery_address = $6,
		    delivery_date = $7,
		    window_from = $8,
		    window_to = $9,
		    finish_by = $10,
		    status = $11,
		    version = version + 1,
		    expires_at = $12,
		    updated_at = $13
		WHERE id = $14
		  AND version = $15
	`,
		order.ClientID, order.MaterialID, order.Quantity,
		order.Delivery.Lat, order.Delivery.Lon, order.Delivery.Address, deliveryDate,
		windowFrom, windowTo, order.Delivery.FinishBy,
		string(order.Status), order.ExpiresAt, order.UpdatedAt,
		order.ID, order.Version,
	)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		exists, err := r.orderExists(ctx, order.ID)
		if err != nil {
			return err
		}
		if !exists {
			return domain.ErrOrderNotFound
		}
		return domain.ErrVersionConflict
	}
	return nil
}

func (r *orderRepository) orderExists(ctx context.Context, orderID string) (bool, error) {
	var id string
	err := r.db.QueryRowContext(ctx, `SELECT id FROM orders WHERE id = $1`, orderID).Scan(&id)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return false, fmt.Errorf("check order exists: %w", err)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (domain.Order, error) {
	var (
		order        domain.Order
		status       string
		deliveryDate sql.NullTime
		windowFrom   sql.NullTime
		windowTo     sql.NullTime
	)
	err := row.Scan(
		&order.ID, &order.ClientID, &order.MaterialID, &order.Quantity,
		&order.Delivery.Lat, &order.Delivery.Lon, &order.Delivery.Address, &deliveryDate,
		&windowFrom, &windowTo, &order.Delivery.FinishBy,
		&status, &order.Version, &order.CreatedAt, &order.ExpiresAt, &order.UpdatedAt,
	)
	if err != nil {
		return domain.Order{}, err
	}

	order.Status = domain.OrderStatus(status)
	if deliveryDate.Valid {
		order.Delivery.Date = deliveryDate.Time
	}
	if windowFrom.Valid && windowTo.Valid {
		order.Delivery.Window = &domain.TimeWindow{From: windowFrom.Time, To: windowTo.Time}
	}
	return order, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
