package memory

import (
	"github.com/vladislavdragonenkov/dms/internal/domain"
)

// mutationStoreInMemory применяет набор изменений одного перехода поверх
// in-memory репозиториев. Атомарность обеспечивает вызывающая сторона
// (per-order критическая секция), конфликт версий возвращается как есть.
type mutationStoreInMemory struct {
	orders  domain.OrderRepository
	offers  domain.OfferRepository
	history domain.HistoryRepository
}

// NewMutationStore собирает MutationStore поверх репозиториев.
func NewMutationStore(orders domain.OrderRepository, offers domain.OfferRepository, history domain.HistoryRepository) domain.MutationStore {
	return &mutationStoreInMemory{
		orders:  orders,
		offers:  offers,
		history: history,
	}
}

// Apply сохраняет заказ, офферы и журнальные записи перехода.
func (s *mutationStoreInMemory) Apply(m domain.Mutations) error {
	if err := s.orders.Save(m.Order); err != nil {
		return err
	}
	for _, offer := range m.Offers {
		if err := s.offers.Save(offer); err != nil {
			return err
		}
	}
	for _, entry := range m.OrderHistory {
		if err := s.history.AppendOrder(entry); err != nil {
			return err
		}
	}
	for _, entry := range m.OfferHistory {
		if err := s.history.AppendOffer(entry); err != nil {
			return err
		}
	}
	return nil
}

var _ domain.MutationStore = (*mutationStoreInMemory)(nil)
