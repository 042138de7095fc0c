package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/dms/internal/domain"
)

type historyRepository struct {
	db *sql.DB
}

// NewHistoryRepository создаёт PostgreSQL-реализацию HistoryRepository.
func NewHistoryRepository(store *Store) domain.HistoryRepository {
	return &historyRepository{db: store.DB()}
}

func (r *historyRepository) AppendOrder(entry domain.OrderHistoryEntry) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO order_history (id, order_id, status, changer, reason, occurred)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, entry.ID, entry.OrderID, string(entry.Status), string(entry.Changer), entry.Reason, entry.Occurred)
	if err != nil {
		return fmt.Errorf("insert order history: %w", err)
	}
	return nil
}

func (r *historyRepository) AppendOffer(entry domain.OfferHistoryEntry) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO offer_history (id, offer_id, status, changer, occurred)
		VALUES ($1,$2,$3,$4,$5)
	`, entry.ID, entry.OfferID, string(entry.Status), string(entry.Changer), entry.Occurred)
	if err != nil {
		return fmt.Errorf("insert offer history: %w", err)
	}
	return nil
}

func (r *historyRepository) ListOrder(orderID string) ([]domain.OrderHistoryEntry, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, status, changer, reason, occurred
		FROM order_history
		WHERE order_id = $1
		ORDER BY occurred ASC, id ASC
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("list order history: %w", err)
	}
	defer rows.Close()

	entries := make([]domain.OrderHistoryEntry, 0)
	for rows.Next() {
		var (
			entry   domain.OrderHistoryEntry
			status  string
			changer string
		)
		if err := rows.Scan(&entry.ID, &entry.OrderID, &status, &changer, &entry.Reason, &entry.Occurred); err != nil {
			return nil, fmt.Errorf("scan order history: %w", err)
		}
		entry.Status = domain.OrderStatus(status)
		entry.Changer = domain.Changer(changer)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order history: %w", err)
	}
	return entries, nil
}

func (r *historyRepository) ListOffer(offerID string) ([]domain.OfferHistoryEntry, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, offer_id, status, changer, occurred
		FROM offer_history
		WHERE offer_id = $1
		ORDER BY occurred ASC, id ASC
	`, offerID)
	if err != nil {
		return nil, fmt.Errorf("list offer history: %w", err)
	}
	defer rows.Close()

	entries := make([]domain.OfferHistoryEntry, 0)
	for rows.Next() {
		var (
			entry   domain.OfferHistoryEntry
			status  string
			changer string
		)
		if err := rows.Scan(&entry.ID, &entry.OfferID, &status, &changer, &entry.Occurred); err != nil {
			return nil, fmt.Errorf("scan offer history: %w", err)
		}
		entry.Status = domain.OfferStatus(status)
		entry.Changer = domain.Changer(changer)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate offer history: %w", err)
	}
	return entries, nil
}
