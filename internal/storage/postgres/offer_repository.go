package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/dms/internal/domain"
)

type offerRepository struct {
	db *sql.DB
}

// NewOfferRepository создаёт PostgreSQL-реализацию OfferRepository.
func NewOfferRepository(store *Store) domain.OfferRepository {
	return &offerRepository{db: store.DB()}
}

const offerColumns = `
	id, order_id, storage_id, vendor_id,
	distance_meters, duration_minutes, price,
	status, version, created_at, updated_at
`

func (r *offerRepository) Upsert(offer domain.Offer) (domain.Offer, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Offer{}, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	existing, err := scanOffer(tx.QueryRowContext(ctx, `
		SELECT `+offerColumns+`
		FROM offers
		WHERE order_id = $1 AND storage_id = $2
		FOR UPDATE
	`, offer.OrderID, offer.StorageID))
	switch {
	case err == nil:
		// Решённый оффер не перезаписывается повторной рассылкой.
		if existing.Status != domain.OfferStatusPending {
			if err = tx.Commit(); err != nil {
				return domain.Offer{}, fmt.Errorf("commit upsert offer: %w", err)
			}
			return existing, nil
		}

		if _, err = tx.ExecContext(ctx, `
			UPDATE offers
			SET distance_meters = $1,
			    duration_minutes = $2,
			    price = $3,
			    updated_at = $4
			WHERE id = $5
		`, offer.DistanceMeters, offer.DurationMinutes, offer.Price, offer.UpdatedAt, existing.ID); err != nil {
			return domain.Offer{}, fmt.Errorf("update offer: %w", err)
		}

		existing.DistanceMeters = offer.DistanceMeters
		existing.DurationMinutes = offer.DurationMinutes
		existing.Price = offer.Price
		existing.UpdatedAt = offer.UpdatedAt
		if err = tx.Commit(); err != nil {
			return domain.Offer{}, fmt.Errorf("commit upsert offer: %w", err)
		}
		return existing, nil

	case errors.Is(err, sql.ErrNoRows):
		offer.ID = uuid.NewString()
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO offers (`+offerColumns+`)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		`,
			offer.ID, offer.OrderID, offer.StorageID, offer.VendorID,
			offer.DistanceMeters, offer.DurationMinutes, offer.Price,
			string(offer.Status), offer.Version, offer.CreatedAt, offer.UpdatedAt,
		); err != nil {
			return domain.Offer{}, fmt.Errorf("insert offer: %w", err)
		}
		if err = tx.Commit(); err != nil {
			return domain.Offer{}, fmt.Errorf("commit upsert offer: %w", err)
		}
		return offer, nil

	default:
		return domain.Offer{}, fmt.Errorf("select offer for upsert: %w", err)
	}
}

func (r *offerRepository) Get(id string) (domain.Offer, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	offer, err := scanOffer(r.db.QueryRowContext(ctx, `
		SELECT `+offerColumns+`
		FROM offers
		WHERE id = $1
	`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Offer{}, domain.ErrOfferNotFound
		}
		return domain.Offer{}, fmt.Errorf("select offer: %w", err)
	}
	return offer, nil
}

func (r *offerRepository) ListByOrder(orderID string) ([]domain.Offer, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+offerColumns+`
		FROM offers
		WHERE order_id = $1
		ORDER BY price ASC, id ASC
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("list offers: %w", err)
	}
	defer rows.Close()

	offers := make([]domain.Offer, 0)
	for rows.Next() {
		offer, err := scanOffer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan offer row: %w", err)
		}
		offers = append(offers, offer)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate offer rows: %w", err)
	}
	return offers, nil
}

func (r *offerRepository) Save(offer domain.Offer) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE offers
		SET distance_meters = $1,
		    duration_minutes = $2,
		    price = $3,
		    status = $4,
		    version = version + 1,
		    updated_at = $5
		WHERE id = $6
		  AND version = $7
	`,
		offer.DistanceMeters, offer.DurationMinutes, offer.Price,
		string(offer.Status), offer.UpdatedAt,
		offer.ID, offer.Version,
	)
	if err != nil {
		return fmt.Errorf("update offer: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		exists, err := r.offerExists(ctx, offer.ID)
		if err != nil {
			return err
		}
		if !exists {
			return domain.ErrOfferNotFound
		}
		return domain.ErrVersionConflict
	}
	return nil
}

func (r *offerRepository) offerExists(ctx context.Context, offerID string) (bool, error) {
	var id string
	err := r.db.QueryRowContext(ctx, `SELECT id FROM offers WHERE id = $1`, offerID).Scan(&id)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return false, fmt.Errorf("check offer exists: %w", err)
}

func scanOffer(row rowScanner) (domain.Offer, error) {
	var (
		offer  domain.Offer
		status string
	)
	err := row.Scan(
		&offer.ID, &offer.OrderID, &offer.StorageID, &offer.VendorID,
		&offer.DistanceMeters, &offer.DurationMinutes, &offer.Price,
		&status, &offer.Version, &offer.CreatedAt, &offer.UpdatedAt,
	)
	if err != nil {
		return domain.Offer{}, err
	}
	offer.Status = domain.OfferStatus(status)
	return offer, nil
}
