package kafka

import "time"

// EventType определяет тип события
type EventType string

const (
	// Order события
	EventTypeOrderDispatched EventType = "order.dispatched"
	EventTypeOrderOffered    EventType = "order.offered"
	EventTypeOrderAccepted   EventType = "order.accepted"
	EventTypeOrderCancelled  EventType = "order.cancelled"
	EventTypeOrderExpired    EventType = "order.expired"

	// Offer события
	EventTypeOfferAccepted EventType = "offer.accepted"
	EventTypeOfferDeclined EventType = "offer.declined"
	EventTypeOfferExpired  EventType = "offer.expired"
)

// Topics для Kafka
const (
	TopicOrderEvents = "dms.order.events"
	TopicOfferEvents = "dms.offer.events"
)

// OrderEvent представляет событие жизненного цикла заказа
type OrderEvent struct {
	EventType EventType              `json:"event_type"`
	OrderID   string                 `json:"order_id"`
	ClientID  string                 `json:"client_id"`
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// OfferEvent представляет событие жизненного цикла оффера
type OfferEvent struct {
	EventType EventType              `json:"event_type"`
	OfferID   string                 `json:"offer_id"`
	OrderID   string                 `json:"order_id"`
	VendorID  string                 `json:"vendor_id"`
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// NewOrderEvent создает новое событие заказа
func NewOrderEvent(eventType EventType, orderID, clientID, status string, metadata map[string]interface{}) OrderEvent {
	return OrderEvent{
		EventType: eventType,
		OrderID:   orderID,
		ClientID:  clientID,
		Status:    status,
		Timestamp: time.Now(),
		Metadata:  metadata,
	}
}

// NewOfferEvent создает новое событие оффера
func NewOfferEvent(eventType EventType, offerID, orderID, vendorID, status string, metadata map[string]interface{}) OfferEvent {
	return OfferEvent{
		EventType: eventType,
		OfferID:   offerID,
		OrderID:   orderID,
		VendorID:  vendorID,
		Status:    status,
		Timestamp: time.Now(),
		Metadata:  metadata,
	}
}
