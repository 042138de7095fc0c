package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/dms/internal/domain"
)

// offerKey — ключ уникальности оффера: один склад получает один оффер на заказ.
type offerKey struct {
	orderID   string
	storageID string
}

// offerRepositoryInMemory — in-memory реализация OfferRepository.
type offerRepositoryInMemory struct {
	mu    sync.RWMutex
	items map[string]domain.Offer
	byKey map[offerKey]string
}

// NewOfferRepository возвращает in-memory репозиторий офферов.
func NewOfferRepository() domain.OfferRepository {
	return &offerRepositoryInMemory{
		items: make(map[string]domain.Offer),
		byKey: make(map[offerKey]string),
	}
}

// Upsert создаёт оффер либо обновляет цену и дистанцию существующего
// pending-оффера по ключу (order_id, storage_id). Решённые офферы
// не перезаписываются.
func (r *offerRepositoryInMemory) Upsert(offer domain.Offer) (domain.Offer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := offerKey{orderID: offer.OrderID, storageID: offer.StorageID}
	if id, ok := r.byKey[key]; ok {
		current := r.items[id]
		if current.Status != domain.OfferStatusPending {
			return current, nil
		}
		current.Price = offer.Price
		current.DistanceMeters = offer.DistanceMeters
		current.DurationMinutes = offer.DurationMinutes
		current.UpdatedAt = offer.UpdatedAt
		r.items[id] = current
		return current, nil
	}

	if offer.ID == "" {
		offer.ID = uuid.NewString()
	}
	if offer.CreatedAt.IsZero() {
		offer.CreatedAt = time.Now().UTC()
	}
	r.items[offer.ID] = offer
	r.byKey[key] = offer.ID
	return offer, nil
}

// Get возвращает оффер или ErrOfferNotFound.
func (r *offerRepositoryInMemory) Get(id string) (domain.Offer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	offer, ok := r.items[id]
	if !ok {
		return domain.Offer{}, domain.ErrOfferNotFound
	}
	return offer, nil
}

// ListByOrder возвращает все офферы заказа, упорядоченные по цене и ID.
func (r *offerRepositoryInMemory) ListByOrder(orderID string) ([]domain.Offer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.Offer, 0, 4)
	for _, offer := range r.items {
		if offer.OrderID == orderID {
			result = append(result, offer)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Price != result[j].Price {
			return result[i].Price < result[j].Price
		}
		return result[i].ID < result[j].ID
	})

	return result, nil
}

// Save перезаписывает оффер, проверяя версию (optimistic locking).
func (r *offerRepositoryInMemory) Save(offer domain.Offer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.items[offer.ID]
	if !ok {
		return domain.ErrOfferNotFound
	}
	if current.Version != offer.Version {
		return domain.ErrVersionConflict
	}
	offer.Version++
	r.items[offer.ID] = offer
	return nil
}

var _ domain.OfferRepository = (*offerRepositoryInMemory)(nil)
