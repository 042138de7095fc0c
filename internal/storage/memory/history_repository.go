package memory

import (
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/dms/internal/domain"
)

// historyRepositoryInMemory хранит append-only журналы заказов и офферов.
// Записи никогда не изменяются и не удаляются.
type historyRepositoryInMemory struct {
	mu     sync.RWMutex
	orders map[string][]domain.OrderHistoryEntry
	offers map[string][]domain.OfferHistoryEntry
}

// NewHistoryRepository создаёт in-memory реализацию HistoryRepository.
func NewHistoryRepository() domain.HistoryRepository {
	return &historyRepositoryInMemory{
		orders: make(map[string][]domain.OrderHistoryEntry),
		offers: make(map[string][]domain.OfferHistoryEntry),
	}
}

// AppendOrder добавляет запись в журнал заказа.
func (r *historyRepositoryInMemory) AppendOrder(entry domain.OrderHistoryEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	r.orders[entry.OrderID] = append(r.orders[entry.OrderID], entry)
	return nil
}

// AppendOffer добавляет запись в журнал оффера.
func (r *historyRepositoryInMemory) AppendOffer(entry domain.OfferHistoryEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	r.offers[entry.OfferID] = append(r.offers[entry.OfferID], entry)
	return nil
}

// ListOrder возвращает журнал заказа в хронологическом порядке.
func (r *historyRepositoryInMemory) ListOrder(orderID string) ([]domain.OrderHistoryEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := r.orders[orderID]
	result := make([]domain.OrderHistoryEntry, len(entries))
	copy(result, entries)
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Occurred.Before(result[j].Occurred)
	})
	return result, nil
}

// ListOffer возвращает журнал оффера в хронологическом порядке.
func (r *historyRepositoryInMemory) ListOffer(offerID string) ([]domain.OfferHistoryEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := r.offers[offerID]
	result := make([]domain.OfferHistoryEntry, len(entries))
	copy(result, entries)
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Occurred.Before(result[j].Occurred)
	})
	return result, nil
}

var _ domain.HistoryRepository = (*historyRepositoryInMemory)(nil)
