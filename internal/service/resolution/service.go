// Package resolution принимает решения по офферам: принятие, отказ, отмена
// и экспирация заказа. Контракт пакета: не более одного принятого оффера
// на заказ при любой интенсивности конкурентных вызовов.
package resolution

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/dms/internal/domain"
	"github.com/vladislavdragonenkov/dms/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/dms/internal/metrics"
)

// maxRetries — предел повторов при конфликте версий. Под мьютексом заказа
// конфликт возможен только от внешнего писателя, поэтому повторов мало.
const maxRetries = 3

// Resolver описывает интерфейс разрешения офферов.
type Resolver interface {
	// AcceptOffer фиксирует победу оффера от имени поставщика. Возвращает
	// принятый оффер либо ErrOfferConflict, если заказ уже решён.
	AcceptOffer(ctx context.Context, offerID, vendorID string) (domain.Offer, error)
	// DeclineOffer фиксирует отказ поставщика от оффера.
	DeclineOffer(ctx context.Context, offerID, vendorID string) (domain.Offer, error)
	// CancelOrder отменяет заказ от имени актора changer.
	CancelOrder(ctx context.Context, orderID string, changer domain.Changer, reason string) error
	// ExpireOrder просрочивает заказ цикла подбора вместе с его pending-офферами.
	ExpireOrder(ctx context.Context, orderID string) error
}

// service реализует разрешение офферов поверх чистых переходов domain.
type service struct {
	orders        domain.OrderRepository
	offers        domain.OfferRepository
	store         domain.MutationStore
	logger        *log.Entry
	metrics       *metrics.MatchMetrics
	kafkaProducer *kafka.Producer // опциональный Kafka producer для событий жизненного цикла
	locks         *orderLocks
	now           func() time.Time
}

// NewService создаёт рабочий экземпляр сервиса разрешения.
func NewService(
	orders domain.OrderRepository,
	offers domain.OfferRepository,
	store domain.MutationStore,
	logger *log.Entry,
) Resolver {
	if logger == nil {
		logger = log.New().WithField("component", "resolution")
	}
	return &service{
		orders:  orders,
		offers:  offers,
		store:   store,
		logger:  logger,
		metrics: metrics.NewMatchMetrics(),
		locks:   newOrderLocks(),
		now:     time.Now,
	}
}

// NewServiceWithKafka создаёт сервис с Kafka producer для публикации событий.
func NewServiceWithKafka(
	orders domain.OrderRepository,
	offers domain.OfferRepository,
	store domain.MutationStore,
	kafkaProducer *kafka.Producer,
	logger *log.Entry,
) Resolver {
	if logger == nil {
		logger = log.New().WithField("component", "resolution")
	}
	return &service{
		orders:        orders,
		offers:        offers,
		store:         store,
		logger:        logger,
		metrics:       metrics.NewMatchMetrics(),
		kafkaProducer: kafkaProducer,
		locks:         newOrderLocks(),
		now:           time.Now,
	}
}

// NewServiceWithoutMetrics создаёт сервис без метрик (для тестов).
func NewServiceWithoutMetrics(
	orders domain.OrderRepository,
	offers domain.OfferRepository,
	store domain.MutationStore,
	logger *log.Entry,
) Resolver {
	if logger == nil {
		logger = log.New().WithField("component", "resolution")
	}
	return &service{
		orders: orders,
		offers: offers,
		store:  store,
		logger: logger,
		locks:  newOrderLocks(),
		now:    time.Now,
	}
}

// AcceptOffer принимает оффер от имени поставщика vendorID. Операция
// сериализуется на мьютексе заказа; проигравший гонку вызов получает
// ErrOfferConflict уже после перечитывания актуального состояния.
func (s *service) AcceptOffer(ctx context.Context, offerID, vendorID string) (domain.Offer, error) {
	start := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.RecordResolveDuration("accept", time.Since(start))
		}
	}()

	offer, err := s.offers.Get(offerID)
	if err != nil {
		return domain.Offer{}, err
	}

	lock := s.locks.get(offer.OrderID)
	lock.Lock()
	defer lock.Unlock()

	var accepted domain.Offer
	err = s.applyWithRetry(ctx, offer.OrderID, func(order domain.Order, offers []domain.Offer) (domain.Mutations, error) {
		m, err := domain.AcceptOffer(order, offers, offerID, vendorID, s.now())
		if err != nil {
			return domain.Mutations{}, err
		}
		accepted = m.Offers[0]
		return m, nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrOfferConflict) && s.metrics != nil {
			s.metrics.RecordOfferConflict()
		}
		return domain.Offer{}, err
	}

	if s.metrics != nil {
		s.metrics.RecordOfferAccepted()
	}
	s.logger.WithFields(log.Fields{
		"order_id":  accepted.OrderID,
		"offer_id":  accepted.ID,
		"vendor_id": vendorID,
	}).Info("offer accepted")

	s.publishOfferEvent(kafka.EventTypeOfferAccepted, accepted, map[string]interface{}{
		"price": accepted.Price,
	})
	s.publishOrderEventByID(accepted.OrderID, kafka.EventTypeOrderAccepted, map[string]interface{}{
		"offer_id": accepted.ID,
	})
	return accepted, nil
}

// DeclineOffer отклоняет оффер от имени поставщика vendorID. Повторный
// отказ возвращает ErrOfferNotPending без побочных эффектов.
func (s *service) DeclineOffer(ctx context.Context, offerID, vendorID string) (domain.Offer, error) {
	start := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.RecordResolveDuration("decline", time.Since(start))
		}
	}()

	offer, err := s.offers.Get(offerID)
	if err != nil {
		return domain.Offer{}, err
	}

	lock := s.locks.get(offer.OrderID)
	lock.Lock()
	defer lock.Unlock()

	var declined domain.Offer
	err = s.applyWithRetry(ctx, offer.OrderID, func(order domain.Order, offers []domain.Offer) (domain.Mutations, error) {
		m, err := domain.DeclineOffer(order, offers, offerID, vendorID, s.now())
		if err != nil {
			return domain.Mutations{}, err
		}
		declined = m.Offers[0]
		return m, nil
	})
	if err != nil {
		return domain.Offer{}, err
	}

	if s.metrics != nil {
		s.metrics.RecordOfferDeclined()
	}
	s.logger.WithFields(log.Fields{
		"order_id":  declined.OrderID,
		"offer_id":  declined.ID,
		"vendor_id": vendorID,
	}).Info("offer declined")

	s.publishOfferEvent(kafka.EventTypeOfferDeclined, declined, nil)
	return declined, nil
}

// CancelOrder отменяет заказ и каскадно отклоняет его pending-офферы.
func (s *service) CancelOrder(ctx context.Context, orderID string, changer domain.Changer, reason string) error {
	start := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.RecordResolveDuration("cancel", time.Since(start))
		}
	}()

	lock := s.locks.get(orderID)
	lock.Lock()
	defer lock.Unlock()

	err := s.applyWithRetry(ctx, orderID, func(order domain.Order, offers []domain.Offer) (domain.Mutations, error) {
		return domain.CancelOrder(order, offers, changer, reason, s.now())
	})
	if err != nil {
		return err
	}

	s.logger.WithFields(log.Fields{
		"order_id": orderID,
		"changer":  changer,
		"reason":   reason,
	}).Info("order cancelled")

	s.publishOrderEventByID(orderID, kafka.EventTypeOrderCancelled, map[string]interface{}{
		"changer": string(changer),
		"reason":  reason,
	})
	return nil
}

// ExpireOrder просрочивает заказ. Вызывается фоновым sweeper-ом, но проходит
// через тот же мьютекс, что и принятие: экспирация не обгоняет acceptance.
func (s *service) ExpireOrder(ctx context.Context, orderID string) error {
	start := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.RecordResolveDuration("expire", time.Since(start))
		}
	}()

	lock := s.locks.get(orderID)
	lock.Lock()
	defer lock.Unlock()

	var expired []domain.Offer
	err := s.applyWithRetry(ctx, orderID, func(order domain.Order, offers []domain.Offer) (domain.Mutations, error) {
		m, err := domain.ExpireOrder(order, offers, s.now())
		if err != nil {
			return domain.Mutations{}, err
		}
		expired = m.Offers
		return m, nil
	})
	if err != nil {
		return err
	}

	if s.metrics != nil {
		s.metrics.RecordOrderExpired()
	}
	s.logger.WithFields(log.Fields{
		"order_id": orderID,
		"offers":   len(expired),
	}).Info("order expired")

	s.publishOrderEventByID(orderID, kafka.EventTypeOrderExpired, nil)
	for _, offer := range expired {
		s.publishOfferEvent(kafka.EventTypeOfferExpired, offer, nil)
	}
	return nil
}

// applyWithRetry перечитывает заказ с офферами, строит мутации перехода
// и применяет их одной логической транзакцией. Конфликт версий означает
// внешнего писателя: состояние перечитывается и переход оценивается заново,
// так что проигравший получает доменную ошибку, а не конфликт хранилища.
func (s *service) applyWithRetry(ctx context.Context, orderID string, transition func(domain.Order, []domain.Offer) (domain.Mutations, error)) error {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		order, err := s.orders.Get(orderID)
		if err != nil {
			return err
		}
		offers, err := s.offers.ListByOrder(orderID)
		if err != nil {
			return err
		}

		m, err := transition(order, offers)
		if err != nil {
			return err
		}

		if err := s.store.Apply(m); err != nil {
			if domain.IsVersionConflict(err) {
				lastErr = err
				s.logger.WithFields(log.Fields{
					"order_id": orderID,
					"attempt":  attempt + 1,
				}).Warn("version conflict detected, retrying")
				continue
			}
			return err
		}
		return nil
	}
	return lastErr
}

// publishOfferEvent публикует событие оффера в Kafka (если producer настроен)
func (s *service) publishOfferEvent(eventType kafka.EventType, offer domain.Offer, metadata map[string]interface{}) {
	if s.kafkaProducer == nil {
		return
	}

	event := kafka.NewOfferEvent(eventType, offer.ID, offer.OrderID, offer.VendorID, string(offer.Status), metadata)
	if err := s.kafkaProducer.PublishOfferEvent(event); err != nil {
		// Kafka опциональный: ошибка публикации не откатывает решение.
		s.logger.WithError(err).WithFields(log.Fields{
			"event_type": eventType,
			"offer_id":   offer.ID,
		}).Warn("failed to publish offer event to kafka")
	}
}

// publishOrderEventByID публикует событие заказа в Kafka (если producer настроен)
func (s *service) publishOrderEventByID(orderID string, eventType kafka.EventType, metadata map[string]interface{}) {
	if s.kafkaProducer == nil {
		return
	}

	order, err := s.orders.Get(orderID)
	if err != nil {
		s.logger.WithError(err).WithField("order_id", orderID).Warn("order not found for event")
		return
	}

	event := kafka.NewOrderEvent(eventType, order.ID, order.ClientID, string(order.Status), metadata)
	if err := s.kafkaProducer.PublishOrderEvent(event); err != nil {
		s.logger.WithError(err).WithFields(log.Fields{
			"event_type": eventType,
			"order_id":   order.ID,
		}).Warn("failed to publish order event to kafka")
	}
}

var _ Resolver = (*service)(nil)
