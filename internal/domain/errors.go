package domain

import "errors"

var (
	// Ошибка отсутствующего идентификатора клиента.
	ErrClientRequired = errors.New("client_id is required")
	// Ошибка отсутствующего идентификатора материала.
	ErrMaterialRequired = errors.New("material_id is required")
	// Ошибка при некорректном объёме заказа (<= 0).
	ErrQuantityInvalid = errors.New("quantity must be greater than zero")
	// Ошибка, если срок заказа не позже момента создания.
	ErrExpiryBeforeCreation = errors.New("expires_at must be after created_at")
	// Ошибка отсутствующего крайнего срока доставки.
	ErrFinishByRequired = errors.New("delivery finish_by is required")
	// Ошибка перевёрнутого окна доставки.
	ErrTimeWindowInvalid = errors.New("delivery time window must end after it starts")
	// Ошибка неизвестного статуса заказа.
	ErrOrderStatusInvalid = errors.New("unknown order status")
	// Ошибка неизвестного статуса оффера.
	ErrOfferStatusInvalid = errors.New("unknown offer status")
	// Ошибка отсутствующего идентификатора заказа в оффере/истории.
	ErrOrderIDRequired = errors.New("order_id is required")
	// Ошибка отсутствующего идентификатора склада.
	ErrStorageIDRequired = errors.New("storage_id is required")
	// Ошибка отсутствующего идентификатора поставщика.
	ErrVendorIDRequired = errors.New("vendor_id is required")
	// Ошибка отрицательной дистанции маршрута.
	ErrDistanceNegative = errors.New("distance must be non-negative")
	// Ошибка отрицательной цены.
	ErrPriceNegative = errors.New("price must be non-negative")
	// Ошибка отрицательного коэффициента стоимости доставки.
	ErrDeliveryCostNegative = errors.New("delivery cost must be non-negative")

	// ErrOrderNotFound возвращается, если заказ не найден в репозитории.
	ErrOrderNotFound = errors.New("order not found")
	// ErrOfferNotFound возвращается, если оффер не найден в репозитории.
	ErrOfferNotFound = errors.New("offer not found")
	// ErrStorageNotFound возвращается, если склад не найден в репозитории.
	ErrStorageNotFound = errors.New("vendor storage not found")
	// ErrVendorNotFound возвращается, если поставщик не найден в репозитории.
	ErrVendorNotFound = errors.New("vendor not found")
	// ErrVersionConflict сигнализирует о конфликте версий при сохранении.
	ErrVersionConflict = errors.New("version conflict")

	// ErrOfferConflict — заказ уже решён другим поставщиком. Ожидаемый исход
	// гонки за принятие, а не сбой: вызывающая сторона ветвится по нему.
	ErrOfferConflict = errors.New("order already resolved by another offer")
	// ErrOfferNotPending — оффер уже отклонён/просрочен, повторное решение невозможно.
	ErrOfferNotPending = errors.New("offer is not pending")
	// ErrForeignOffer — поставщик пытается решить чужой оффер.
	ErrForeignOffer = errors.New("offer belongs to another vendor")
	// ErrOrderNotOpen — заказ вне цикла подбора, переход недопустим.
	ErrOrderNotOpen = errors.New("order is not open for matching")

	// ErrRouteUnavailable — провайдер маршрутов недоступен или не нашёл маршрут.
	ErrRouteUnavailable = errors.New("route unavailable")
	// ErrGeocodeNotFound — геокодер не нашёл ни одного результата.
	ErrGeocodeNotFound = errors.New("geocoding result not found")
	// ErrNotifyFailed — уведомление поставщика не доставлено.
	ErrNotifyFailed = errors.New("vendor notification failed")
)

// IsVersionConflict проверяет, является ли ошибка конфликтом версий.
func IsVersionConflict(err error) bool {
	return errors.Is(err, ErrVersionConflict)
}

// IsOfferConflict проверяет, является ли ошибка проигрышем гонки за принятие.
func IsOfferConflict(err error) bool {
	return errors.Is(err, ErrOfferConflict)
}
