package domain

import "time"

// Changer — вид актора, ответственного за запись в истории.
type Changer string

const (
	ChangerSystem  Changer = "system"
	ChangerSupport Changer = "support"
	ChangerVendor  Changer = "vendor"
	ChangerClient  Changer = "client"
)

// Valid проверяет, что вид актора относится к поддерживаемым значениям.
func (c Changer) Valid() bool {
	switch c {
	case ChangerSystem, ChangerSupport, ChangerVendor, ChangerClient:
		return true
	default:
		return false
	}
}

// OrderHistoryEntry — запись append-only журнала смен статуса заказа.
// Записи никогда не изменяются и не удаляются, пока существует заказ.
type OrderHistoryEntry struct {
	ID      string
	OrderID string
	Status  OrderStatus
	Changer Changer
	// Reason — необязательное пояснение перехода (причина отмены и т.п.).
	Reason   string
	Occurred time.Time
}

// OfferHistoryEntry — запись append-only журнала решений по офферу,
// зеркало OrderHistoryEntry в разрезе одного оффера.
type OfferHistoryEntry struct {
	ID       string
	OfferID  string
	Status   OfferStatus
	Changer  Changer
	Occurred time.Time
}
