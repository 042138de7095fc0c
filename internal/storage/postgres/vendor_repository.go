package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vladislavdragonenkov/dms/internal/domain"
)

type vendorRepository struct {
	db *sql.DB
}

// NewVendorRepository создаёт PostgreSQL-реализацию VendorRepository.
func NewVendorRepository(store *Store) domain.VendorRepository {
	return &vendorRepository{db: store.DB()}
}

func (r *vendorRepository) AddVendor(vendor domain.Vendor) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO vendors (id, name, channel_id)
		VALUES ($1,$2,$3)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name, channel_id = EXCLUDED.channel_id
	`, vendor.ID, vendor.Name, vendor.ChannelID)
	if err != nil {
		return fmt.Errorf("insert vendor: %w", err)
	}
	return nil
}

func (r *vendorRepository) AddStorage(storage domain.VendorStorage) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO vendor_storages (id, vendor_id, name, lat, lon)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (id) DO UPDATE
		SET vendor_id = EXCLUDED.vendor_id, name = EXCLUDED.name,
		    lat = EXCLUDED.lat, lon = EXCLUDED.lon
	`, storage.ID, storage.VendorID, storage.Name, storage.Lat, storage.Lon)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrVendorNotFound
		}
		return fmt.Errorf("insert storage: %w", err)
	}
	return nil
}

func (r *vendorRepository) GetVendor(id string) (domain.Vendor, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var vendor domain.Vendor
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, channel_id FROM vendors WHERE id = $1
	`, id).Scan(&vendor.ID, &vendor.Name, &vendor.ChannelID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Vendor{}, domain.ErrVendorNotFound
		}
		return domain.Vendor{}, fmt.Errorf("select vendor: %w", err)
	}
	return vendor, nil
}

func (r *vendorRepository) GetStorage(id string) (domain.VendorStorage, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var storage domain.VendorStorage
	err := r.db.QueryRowContext(ctx, `
		SELECT id, vendor_id, name, lat, lon FROM vendor_storages WHERE id = $1
	`, id).Scan(&storage.ID, &storage.VendorID, &storage.Name, &storage.Lat, &storage.Lon)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.VendorStorage{}, domain.ErrStorageNotFound
		}
		return domain.VendorStorage{}, fmt.Errorf("select storage: %w", err)
	}
	return storage, nil
}

func (r *vendorRepository) ListStorageMaterials(materialID string) ([]domain.StorageMaterial, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT storage_id, material_id, price_per_unit, delivery_cost_per_km, updated_at
		FROM storage_materials
		WHERE material_id = $1
		ORDER BY storage_id ASC
	`, materialID)
	if err != nil {
		return nil, fmt.Errorf("list storage materials: %w", err)
	}
	defer rows.Close()

	result := make([]domain.StorageMaterial, 0)
	for rows.Next() {
		var sm domain.StorageMaterial
		if err := rows.Scan(&sm.StorageID, &sm.MaterialID, &sm.PricePerUnit, &sm.DeliveryCostPerKm, &sm.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan storage material: %w", err)
		}
		result = append(result, sm)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate storage materials: %w", err)
	}
	return result, nil
}

func (r *vendorRepository) UpsertStorageMaterial(sm domain.StorageMaterial) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	// Не более одной активной строки на пару (storage_id, material_id).
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO storage_materials (storage_id, material_id, price_per_unit, delivery_cost_per_km, updated_at)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (storage_id, material_id) DO UPDATE
		SET price_per_unit = EXCLUDED.price_per_unit,
		    delivery_cost_per_km = EXCLUDED.delivery_cost_per_km,
		    updated_at = EXCLUDED.updated_at
	`, sm.StorageID, sm.MaterialID, sm.PricePerUnit, sm.DeliveryCostPerKm, sm.UpdatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrStorageNotFound
		}
		return fmt.Errorf("upsert storage material: %w", err)
	}
	return nil
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23503"
	}
	return false
}
