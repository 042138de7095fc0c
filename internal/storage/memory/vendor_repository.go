package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/vladislavdragonenkov/dms/internal/domain"
)

// materialKey — ключ уникальности позиции склада.
type materialKey struct {
	storageID  string
	materialID string
}

// vendorRepositoryInMemory — in-memory реализация VendorRepository.
type vendorRepositoryInMemory struct {
	mu        sync.RWMutex
	vendors   map[string]domain.Vendor
	storages  map[string]domain.VendorStorage
	materials map[materialKey]domain.StorageMaterial
}

// NewVendorRepository возвращает in-memory репозиторий поставщиков и складов.
func NewVendorRepository() domain.VendorRepository {
	return &vendorRepositoryInMemory{
		vendors:   make(map[string]domain.Vendor),
		storages:  make(map[string]domain.VendorStorage),
		materials: make(map[materialKey]domain.StorageMaterial),
	}
}

// AddVendor сохраняет поставщика.
func (r *vendorRepositoryInMemory) AddVendor(vendor domain.Vendor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.vendors[vendor.ID] = vendor
	return nil
}

// AddStorage сохраняет склад. Поставщик должен существовать.
func (r *vendorRepositoryInMemory) AddStorage(storage domain.VendorStorage) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.vendors[storage.VendorID]; !ok {
		return domain.ErrVendorNotFound
	}
	r.storages[storage.ID] = storage
	return nil
}

// GetVendor возвращает поставщика или ErrVendorNotFound.
func (r *vendorRepositoryInMemory) GetVendor(id string) (domain.Vendor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	vendor, ok := r.vendors[id]
	if !ok {
		return domain.Vendor{}, domain.ErrVendorNotFound
	}
	return vendor, nil
}

// GetStorage возвращает склад или ErrStorageNotFound.
func (r *vendorRepositoryInMemory) GetStorage(id string) (domain.VendorStorage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	storage, ok := r.storages[id]
	if !ok {
		return domain.VendorStorage{}, domain.ErrStorageNotFound
	}
	return storage, nil
}

// ListStorageMaterials возвращает позиции всех складов по материалу,
// упорядоченные по складу для детерминированного перебора.
func (r *vendorRepositoryInMemory) ListStorageMaterials(materialID string) ([]domain.StorageMaterial, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.StorageMaterial, 0, 4)
	for key, sm := range r.materials {
		if key.materialID == materialID {
			result = append(result, sm)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].StorageID < result[j].StorageID
	})

	return result, nil
}

// UpsertStorageMaterial сохраняет позицию по ключу (storage_id, material_id):
// не более одной активной строки на пару.
func (r *vendorRepositoryInMemory) UpsertStorageMaterial(sm domain.StorageMaterial) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.storages[sm.StorageID]; !ok {
		return domain.ErrStorageNotFound
	}
	if sm.UpdatedAt.IsZero() {
		sm.UpdatedAt = time.Now().UTC()
	}
	r.materials[materialKey{storageID: sm.StorageID, materialID: sm.MaterialID}] = sm
	return nil
}

var _ domain.VendorRepository = (*vendorRepositoryInMemory)(nil)
