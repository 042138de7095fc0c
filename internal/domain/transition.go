package domain

import "time"

// Mutations — полный набор производных изменений одного перехода состояния:
// сам заказ, затронутые офферы и записи обоих журналов. Каскадные эффекты
// (отклонение соперников при принятии, просрочка офферов при экспирации)
// вычисляются здесь, а не размазываются по вызывающим сторонам.
type Mutations struct {
	Order        Order
	Offers       []Offer
	OrderHistory []OrderHistoryEntry
	OfferHistory []OfferHistoryEntry
}

func orderHistory(order Order, changer Changer, reason string, now time.Time) OrderHistoryEntry {
	return OrderHistoryEntry{
		OrderID:  order.ID,
		Status:   order.Status,
		Changer:  changer,
		Reason:   reason,
		Occurred: now,
	}
}

func offerHistory(offer Offer, changer Changer, now time.Time) OfferHistoryEntry {
	return OfferHistoryEntry{
		OfferID:  offer.ID,
		Status:   offer.Status,
		Changer:  changer,
		Occurred: now,
	}
}

// Dispatch переводит заказ created → dispatched после создания хотя бы одного
// оффера. Если кандидатов не нашлось, заказ остаётся created до следующего
// цикла, и переход вызываться не должен.
func Dispatch(order Order, now time.Time) (Mutations, error) {
	if order.Status != OrderStatusCreated {
		return Mutations{}, ErrOrderNotOpen
	}

	order.Status = OrderStatusDispatched
	order.UpdatedAt = now
	return Mutations{
		Order:        order,
		OrderHistory: []OrderHistoryEntry{orderHistory(order, ChangerSystem, "", now)},
	}, nil
}

// MarkOffered переводит заказ dispatched → offered после доставки уведомления
// хотя бы одному поставщику.
func MarkOffered(order Order, now time.Time) (Mutations, error) {
	if order.Status != OrderStatusDispatched {
		return Mutations{}, ErrOrderNotOpen
	}

	order.Status = OrderStatusOffered
	order.UpdatedAt = now
	return Mutations{
		Order:        order,
		OrderHistory: []OrderHistoryEntry{orderHistory(order, ChangerSystem, "", now)},
	}, nil
}

// AcceptOffer фиксирует победу оффера offerID от поставщика vendorID:
// победитель становится accepted, все остальные pending-офферы заказа
// каскадно отклоняются, заказ переходит в accepted. Контракт: не более
// одного принятого оффера на заказ; проигрыш гонки — ErrOfferConflict.
func AcceptOffer(order Order, offers []Offer, offerID, vendorID string, now time.Time) (Mutations, error) {
	winner, ok := findOffer(offers, offerID)
	if !ok {
		return Mutations{}, ErrOfferNotFound
	}
	if winner.VendorID != vendorID {
		return Mutations{}, ErrForeignOffer
	}
	// Заказ уже решён, отменён или просрочен — кто-то успел раньше.
	if order.Status != OrderStatusDispatched && order.Status != OrderStatusOffered {
		return Mutations{}, ErrOfferConflict
	}
	if winner.Status != OfferStatusPending {
		return Mutations{}, ErrOfferConflict
	}

	winner.Status = OfferStatusAccepted
	winner.UpdatedAt = now

	order.Status = OrderStatusAccepted
	order.UpdatedAt = now

	m := Mutations{
		Order:        order,
		Offers:       []Offer{winner},
		OrderHistory: []OrderHistoryEntry{orderHistory(order, ChangerVendor, "", now)},
		OfferHistory: []OfferHistoryEntry{offerHistory(winner, ChangerVendor, now)},
	}

	for _, sibling := range offers {
		if sibling.ID == winner.ID || sibling.Status != OfferStatusPending {
			continue
		}
		sibling.Status = OfferStatusDeclined
		sibling.UpdatedAt = now
		m.Offers = append(m.Offers, sibling)
		m.OfferHistory = append(m.OfferHistory, offerHistory(sibling, ChangerSystem, now))
	}

	return m, nil
}

// DeclineOffer фиксирует отказ поставщика vendorID от оффера offerID.
// Если pending-офферов у заказа больше не остаётся, заказ возвращается
// в created для повторной рассылки. Повторный отказ — ErrOfferNotPending,
// каскад не выполняется.
func DeclineOffer(order Order, offers []Offer, offerID, vendorID string, now time.Time) (Mutations, error) {
	offer, ok := findOffer(offers, offerID)
	if !ok {
		return Mutations{}, ErrOfferNotFound
	}
	if offer.VendorID != vendorID {
		return Mutations{}, ErrForeignOffer
	}
	if offer.Status != OfferStatusPending {
		return Mutations{}, ErrOfferNotPending
	}
	if order.Status != OrderStatusDispatched && order.Status != OrderStatusOffered {
		return Mutations{}, ErrOrderNotOpen
	}

	offer.Status = OfferStatusDeclined
	offer.UpdatedAt = now

	m := Mutations{
		Order:        order,
		Offers:       []Offer{offer},
		OfferHistory: []OfferHistoryEntry{offerHistory(offer, ChangerVendor, now)},
	}

	if countPending(offers, offer.ID) == 0 {
		// Последний pending-оффер отклонён — заказ уходит на повторную рассылку.
		m.Order.Status = OrderStatusCreated
		m.Order.UpdatedAt = now
		m.OrderHistory = []OrderHistoryEntry{orderHistory(m.Order, ChangerVendor, "", now)}
	}

	return m, nil
}

// ExpireOrder переводит просроченный заказ цикла подбора в expired и каскадно
// просрочивает все его pending-офферы. Changer всегда system.
func ExpireOrder(order Order, offers []Offer, now time.Time) (Mutations, error) {
	if !order.Status.Open() {
		return Mutations{}, ErrOrderNotOpen
	}

	order.Status = OrderStatusExpired
	order.UpdatedAt = now

	m := Mutations{
		Order:        order,
		OrderHistory: []OrderHistoryEntry{orderHistory(order, ChangerSystem, "", now)},
	}

	for _, offer := range offers {
		if offer.Status != OfferStatusPending {
			continue
		}
		offer.Status = OfferStatusExpired
		offer.UpdatedAt = now
		m.Offers = append(m.Offers, offer)
		m.OfferHistory = append(m.OfferHistory, offerHistory(offer, ChangerSystem, now))
	}

	return m, nil
}

// CancelOrder — явная отмена заказа актором changer в любом нетерминальном
// состоянии. Pending-офферы каскадно отклоняются.
func CancelOrder(order Order, offers []Offer, changer Changer, reason string, now time.Time) (Mutations, error) {
	if order.Status.Terminal() {
		return Mutations{}, ErrOrderNotOpen
	}
	if !changer.Valid() {
		return Mutations{}, ErrOrderStatusInvalid
	}

	order.Status = OrderStatusCancelled
	order.UpdatedAt = now

	m := Mutations{
		Order:        order,
		OrderHistory: []OrderHistoryEntry{orderHistory(order, changer, reason, now)},
	}

	for _, offer := range offers {
		if offer.Status != OfferStatusPending {
			continue
		}
		offer.Status = OfferStatusDeclined
		offer.UpdatedAt = now
		m.Offers = append(m.Offers, offer)
		m.OfferHistory = append(m.OfferHistory, offerHistory(offer, ChangerSystem, now))
	}

	return m, nil
}

func findOffer(offers []Offer, id string) (Offer, bool) {
	for _, offer := range offers {
		if offer.ID == id {
			return offer, true
		}
	}
	return Offer{}, false
}

// countPending считает pending-офферы, исключая exceptID.
func countPending(offers []Offer, exceptID string) int {
	n := 0
	for _, offer := range offers {
		if offer.ID != exceptID && offer.Status == OfferStatusPending {
			n++
		}
	}
	return n
}
