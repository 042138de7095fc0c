package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/dms/internal/domain"
)

type mutationStore struct {
	db *sql.DB
}

// NewMutationStore создаёт PostgreSQL-реализацию MutationStore. Весь набор
// мутаций одного перехода применяется одной SQL-транзакцией: конфликт
// версий любого объекта откатывает переход целиком.
func NewMutationStore(store *Store) domain.MutationStore {
	return &mutationStore{db: store.DB()}
}

func (s *mutationStore) Apply(m domain.Mutations) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = s.saveOrderTx(ctx, tx, m.Order); err != nil {
		return err
	}
	for _, offer := range m.Offers {
		if err = s.saveOfferTx(ctx, tx, offer); err != nil {
			return err
		}
	}
	for _, entry := range m.OrderHistory {
		if err = s.appendOrderHistoryTx(ctx, tx, entry); err != nil {
			return err
		}
	}
	for _, entry := range m.OfferHistory {
		if err = s.appendOfferHistoryTx(ctx, tx, entry); err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit mutations: %w", err)
	}
	return nil
}

func (s *mutationStore) saveOrderTx(ctx context.Context, tx *sql.Tx, order domain.Order) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE orders
		SET status = $1,
		    version = version + 1,
		    updated_at = $2
		WHERE id = $3
		  AND version = $4
	`, string(order.Status), order.UpdatedAt, order.ID, order.Version)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrVersionConflict
	}
	return nil
}

func (s *mutationStore) saveOfferTx(ctx context.Context, tx *sql.Tx, offer domain.Offer) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE offers
		SET status = $1,
		    version = version + 1,
		    updated_at = $2
		WHERE id = $3
		  AND version = $4
	`, string(offer.Status), offer.UpdatedAt, offer.ID, offer.Version)
	if err != nil {
		return fmt.Errorf("update offer: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrVersionConflict
	}
	return nil
}

func (s *mutationStore) appendOrderHistoryTx(ctx context.Context, tx *sql.Tx, entry domain.OrderHistoryEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO order_history (id, order_id, status, changer, reason, occurred)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, entry.ID, entry.OrderID, string(entry.Status), string(entry.Changer), entry.Reason, entry.Occurred); err != nil {
		return fmt.Errorf("insert order history: %w", err)
	}
	return nil
}

func (s *mutationStore) appendOfferHistoryTx(ctx context.Context, tx *sql.Tx, entry domain.OfferHistoryEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO offer_history (id, offer_id, status, changer, occurred)
		VALUES ($1,$2,$3,$4,$5)
	`, entry.ID, entry.OfferID, string(entry.Status), string(entry.Changer), entry.Occurred); err != nil {
		return fmt.Errorf("insert offer history: %w", err)
	}
	return nil
}
