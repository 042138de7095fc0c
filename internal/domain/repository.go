package domain

import "time"

// OrderRepository описывает требования к хранилищу заказов.
type OrderRepository interface {
	// Create сохраняет новый заказ. Возвращает ошибку, если запись с таким ID уже существует.
	Create(order Order) error
	// Get возвращает заказ по идентификатору или ErrOrderNotFound, если его нет.
	Get(id string) (Order, error)
	// ListOpen возвращает незавершённые и непросроченные к now заказы
	// (created/dispatched/offered) с опциональным ограничением на количество.
	ListOpen(now time.Time, limit int) ([]Order, error)
	// ListExpired возвращает заказы цикла подбора с истёкшим к now сроком.
	ListExpired(now time.Time, limit int) ([]Order, error)
	// Save применяет обновления к заказу с учётом optimistic locking.
	Save(order Order) error
}

// OfferRepository описывает требования к хранилищу офферов.
type OfferRepository interface {
	// Upsert сохраняет оффер по ключу (order_id, storage_id): создаёт новый
	// либо обновляет цену и дистанцию существующего pending-оффера.
	// Решённые офферы не перезаписываются.
	Upsert(offer Offer) (Offer, error)
	// Get возвращает оффер по идентификатору или ErrOfferNotFound.
	Get(id string) (Offer, error)
	// ListByOrder возвращает все офферы заказа.
	ListByOrder(orderID string) ([]Offer, error)
	// Save применяет обновления к офферу с учётом optimistic locking.
	Save(offer Offer) error
}

// VendorRepository описывает требования к хранилищу поставщиков и складов.
type VendorRepository interface {
	// AddVendor сохраняет поставщика.
	AddVendor(vendor Vendor) error
	// AddStorage сохраняет склад поставщика.
	AddStorage(storage VendorStorage) error
	// GetVendor возвращает поставщика или ErrVendorNotFound.
	GetVendor(id string) (Vendor, error)
	// GetStorage возвращает склад или ErrStorageNotFound.
	GetStorage(id string) (VendorStorage, error)
	// ListStorageMaterials возвращает позиции всех складов по материалу.
	ListStorageMaterials(materialID string) ([]StorageMaterial, error)
	// UpsertStorageMaterial сохраняет позицию по ключу (storage_id, material_id),
	// поддерживая не более одной активной строки на пару.
	UpsertStorageMaterial(sm StorageMaterial) error
}

// HistoryRepository хранит append-only журналы заказов и офферов.
type HistoryRepository interface {
	AppendOrder(entry OrderHistoryEntry) error
	AppendOffer(entry OfferHistoryEntry) error
	ListOrder(orderID string) ([]OrderHistoryEntry, error)
	ListOffer(offerID string) ([]OfferHistoryEntry, error)
}

// MutationStore применяет полный набор производных изменений одного перехода
// в одной логической границе транзакции. Конфликт версий любого из объектов
// откатывает весь набор и возвращает ErrVersionConflict.
type MutationStore interface {
	Apply(m Mutations) error
}
