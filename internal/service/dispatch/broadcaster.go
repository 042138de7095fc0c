// Package dispatch реализует цикл рассылки: по открытым заказам строятся
// офферы складов-кандидатов, и каждому поставщику уходит один пакет за цикл.
package dispatch

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/dms/internal/domain"
	"github.com/vladislavdragonenkov/dms/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/dms/internal/metrics"
	"github.com/vladislavdragonenkov/dms/internal/service/matching"
)

var vendorNotifications = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "dms_vendor_notifications_total",
	Help: "Total number of vendor batch notifications grouped by result.",
}, []string{"result"})

// CandidateSource подбирает склады-кандидаты под заказ.
type CandidateSource interface {
	FindCandidates(ctx context.Context, order domain.Order) ([]matching.Candidate, error)
}

// Broadcaster выполняет один цикл рассылки по открытым заказам.
type Broadcaster struct {
	orders        domain.OrderRepository
	offers        domain.OfferRepository
	vendors       domain.VendorRepository
	store         domain.MutationStore
	finder        CandidateSource
	notifier      domain.VendorNotifier
	logger        *log.Entry
	metrics       *metrics.MatchMetrics
	kafkaProducer *kafka.Producer // опциональный Kafka producer
	batchSize     int
	interval      time.Duration
	now           func() time.Time
}

// orderDelivery связывает заказ с поставщиками, которым ушли его офферы.
type orderDelivery struct {
	order   domain.Order
	vendors map[string]struct{}
}

// DispatchOnce выполняет один цикл рассылки: для каждого открытого заказа
// обновляет офферы кандидатов и группирует их в пакеты по поставщику.
// Ошибка подбора или доставки исключает заказ или поставщика из цикла,
// но не проваливает цикл целиком.
func (b *Broadcaster) DispatchOnce(ctx context.Context, now time.Time) {
	start := time.Now()
	if b.metrics != nil {
		b.metrics.RecordDispatchCycle()
		defer func() {
			b.metrics.RecordDispatchDuration(time.Since(start))
		}()
	}

	orders, err := b.orders.ListOpen(now, b.batchSize)
	if err != nil {
		b.logger.WithError(err).Warn("failed to list open orders")
		return
	}
	if b.metrics != nil {
		b.metrics.SetOpenOrders(len(orders))
	}
	if len(orders) == 0 {
		return
	}

	batches := make(map[string]*domain.VendorBatch)
	deliveries := make(map[string]*orderDelivery)
	dispatched := 0

	for _, order := range orders {
		if ctx.Err() != nil {
			return
		}

		candidates, err := b.finder.FindCandidates(ctx, order)
		if err != nil {
			b.logger.WithError(err).WithField("order_id", order.ID).Warn("candidate lookup failed")
			continue
		}
		if len(candidates) == 0 {
			// Кандидатов нет: заказ остаётся created до следующего цикла.
			continue
		}

		delivery := &orderDelivery{order: order, vendors: make(map[string]struct{})}
		for _, candidate := range candidates {
			offer, err := b.offers.Upsert(domain.Offer{
				OrderID:         order.ID,
				StorageID:       candidate.Storage.ID,
				VendorID:        candidate.Storage.VendorID,
				DistanceMeters:  candidate.DistanceMeters,
				DurationMinutes: candidate.DurationMinutes,
				Price:           candidate.Price,
				Status:          domain.OfferStatusPending,
				CreatedAt:       now,
				UpdatedAt:       now,
			})
			if err != nil {
				b.logger.WithError(err).WithFields(log.Fields{
					"order_id":   order.ID,
					"storage_id": candidate.Storage.ID,
				}).Warn("offer upsert failed")
				continue
			}
			if offer.Status != domain.OfferStatusPending {
				// Оффер уже решён, поставщика не беспокоим.
				continue
			}

			batch, ok := batches[candidate.Storage.VendorID]
			if !ok {
				vendor, err := b.vendors.GetVendor(candidate.Storage.VendorID)
				if err != nil {
					b.logger.WithError(err).WithField("vendor_id", candidate.Storage.VendorID).Warn("vendor lookup failed")
					continue
				}
				batch = &domain.VendorBatch{VendorID: vendor.ID, ChannelID: vendor.ChannelID}
				batches[vendor.ID] = batch
			}
			batch.Offers = append(batch.Offers, domain.BatchOffer{
				OrderID:        order.ID,
				OfferID:        offer.ID,
				StorageID:      offer.StorageID,
				DistanceMeters: offer.DistanceMeters,
				Price:          offer.Price,
			})
			delivery.vendors[candidate.Storage.VendorID] = struct{}{}
			dispatched++
		}

		if len(delivery.vendors) == 0 {
			continue
		}
		deliveries[order.ID] = delivery

		if order.Status == domain.OrderStatusCreated {
			if err := b.applyTransition(order.ID, domain.Dispatch, now); err != nil {
				b.logger.WithError(err).WithField("order_id", order.ID).Warn("dispatch transition failed")
				continue
			}
			b.publishOrderEvent(order, kafka.EventTypeOrderDispatched, map[string]interface{}{
				"offers": len(delivery.vendors),
			})
		}
	}

	if b.metrics != nil {
		b.metrics.RecordOffersDispatched(dispatched)
	}

	delivered := b.notifyVendors(ctx, batches)
	b.markOffered(deliveries, delivered, now)
}

// notifyVendors доставляет пакеты и возвращает поставщиков, получивших свой.
// Ошибка доставки логируется и не останавливает остальные пакеты.
func (b *Broadcaster) notifyVendors(ctx context.Context, batches map[string]*domain.VendorBatch) map[string]struct{} {
	delivered := make(map[string]struct{}, len(batches))
	for vendorID, batch := range batches {
		if ctx.Err() != nil {
			return delivered
		}

		if err := b.notifier.NotifyVendor(ctx, batch.ChannelID, *batch); err != nil {
			b.logger.WithError(err).WithFields(log.Fields{
				"vendor_id": vendorID,
				"offers":    len(batch.Offers),
			}).Warn("vendor notification failed")
			vendorNotifications.WithLabelValues("failed").Inc()
			if b.metrics != nil {
				b.metrics.RecordNotifyFailure()
			}
			continue
		}
		vendorNotifications.WithLabelValues("delivered").Inc()
		delivered[vendorID] = struct{}{}
	}
	return delivered
}

// markOffered переводит в offered заказы, чьи офферы дошли хотя бы
// до одного поставщика.
func (b *Broadcaster) markOffered(deliveries map[string]*orderDelivery, delivered map[string]struct{}, now time.Time) {
	for orderID, delivery := range deliveries {
		reached := false
		for vendorID := range delivery.vendors {
			if _, ok := delivered[vendorID]; ok {
				reached = true
				break
			}
		}
		if !reached {
			continue
		}
		// Заказ, уже находившийся в offered на начало цикла, получил
		// только обновление офферов, переход повторно не применяется.
		if delivery.order.Status == domain.OrderStatusOffered {
			continue
		}

		if err := b.applyTransition(orderID, domain.MarkOffered, now); err != nil {
			b.logger.WithError(err).WithField("order_id", orderID).Warn("offered transition failed")
			continue
		}
		b.publishOrderEvent(delivery.order, kafka.EventTypeOrderOffered, nil)
	}
}

// applyTransition перечитывает заказ и применяет к нему переход.
func (b *Broadcaster) applyTransition(orderID string, transition func(domain.Order, time.Time) (domain.Mutations, error), now time.Time) error {
	order, err := b.orders.Get(orderID)
	if err != nil {
		return err
	}
	m, err := transition(order, now)
	if err != nil {
		return err
	}
	return b.store.Apply(m)
}

// publishOrderEvent публикует событие заказа в Kafka (если producer настроен)
func (b *Broadcaster) publishOrderEvent(order domain.Order, eventType kafka.EventType, metadata map[string]interface{}) {
	if b.kafkaProducer == nil {
		return
	}

	stored, err := b.orders.Get(order.ID)
	if err != nil {
		stored = order
	}
	event := kafka.NewOrderEvent(eventType, stored.ID, stored.ClientID, string(stored.Status), metadata)
	if err := b.kafkaProducer.PublishOrderEvent(event); err != nil {
		b.logger.WithError(err).WithFields(log.Fields{
			"event_type": eventType,
			"order_id":   stored.ID,
		}).Warn("failed to publish order event to kafka")
	}
}
