package domain

import "time"

// OfferStatus описывает жизненный цикл оффера — предложения одному складу
// поставщика исполнить заказ.
type OfferStatus string

const (
	// OfferStatusPending — оффер разослан и ждёт решения поставщика.
	OfferStatusPending OfferStatus = "pending"
	// OfferStatusAccepted — поставщик принял оффер; по заказу допускается
	// не более одного принятого оффера.
	OfferStatusAccepted OfferStatus = "accepted"
	// OfferStatusDeclined — поставщик отказался либо оффер отклонён каскадом.
	OfferStatusDeclined OfferStatus = "declined"
	// OfferStatusExpired — заказ просрочен до решения поставщика.
	OfferStatusExpired OfferStatus = "expired"
)

// Valid проверяет, что статус относится к поддерживаемым значениям.
func (s OfferStatus) Valid() bool {
	switch s {
	case OfferStatusPending, OfferStatusAccepted, OfferStatusDeclined, OfferStatusExpired:
		return true
	default:
		return false
	}
}

// Offer — рассылка одного заказа одному складу поставщика с зафиксированными
// на момент рассылки дистанцией и расчётной ценой.
type Offer struct {
	ID      string
	OrderID string
	// StorageID — слабая ссылка на склад: удаление склада не каскадирует на заказ.
	StorageID string
	VendorID  string
	// DistanceMeters — маршрутная дистанция от склада до точки выгрузки.
	DistanceMeters int64
	// DurationMinutes — оценка времени в пути по маршруту.
	DurationMinutes int64
	// Price — полная расчётная цена на момент рассылки.
	Price     float64
	Status    OfferStatus
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ValidateInvariants проверяет базовые инварианты оффера.
func (f *Offer) ValidateInvariants() []error {
	var errs []error

	if f.OrderID == "" {
		errs = append(errs, ErrOrderIDRequired)
	}
	if f.StorageID == "" {
		errs = append(errs, ErrStorageIDRequired)
	}
	if f.VendorID == "" {
		errs = append(errs, ErrVendorIDRequired)
	}
	if f.DistanceMeters < 0 {
		errs = append(errs, ErrDistanceNegative)
	}
	if f.Price < 0 {
		errs = append(errs, ErrPriceNegative)
	}
	if !f.Status.Valid() {
		errs = append(errs, ErrOfferStatusInvalid)
	}

	return errs
}
