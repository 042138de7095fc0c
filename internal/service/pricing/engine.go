// Package pricing содержит расчёт котировок и преобразование встречных
// предложений поставщиков (скидка числом или процентом).
package pricing

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

var (
	// ErrPercentNotNumber — вход не является числом.
	ErrPercentNotNumber = errors.New("discount percent must be a number")
	// ErrPercentTooSmall — процент меньше минимального шага 0.1.
	ErrPercentTooSmall = errors.New("discount percent must be at least 0.1")
	// ErrPercentTooLarge — процент больше 100.
	ErrPercentTooLarge = errors.New("discount percent exceeds 100")
	// ErrDiscountNegative — отрицательная скидка не допускается.
	ErrDiscountNegative = errors.New("discount amount must be non-negative")
	// ErrBasePriceInvalid — базовая цена должна быть положительной.
	ErrBasePriceInvalid = errors.New("base price must be positive")
)

// MinPercent — минимальный шаг скидки в процентах.
const MinPercent = 0.1

// RoundMoney округляет денежное значение до двух знаков (half-up).
// Применяется в точках сохранения и отображения, не в промежуточных расчётах.
func RoundMoney(v float64) float64 {
	return math.Floor(v*100+0.5) / 100
}

// roundWhole округляет до целых денежных единиц (half-up).
func roundWhole(v float64) float64 {
	return math.Floor(v + 0.5)
}

// Quote считает полную цену оффера: материал по объёму плюс доставка
// по маршрутной дистанции. Результат округляется при сохранении.
func Quote(unitPrice, quantity, deliveryCostPerKm, distanceKm float64) float64 {
	return RoundMoney(unitPrice*quantity + deliveryCostPerKm*distanceKm)
}

// ApplyFlatDiscount уменьшает базовую цену на фиксированную сумму.
// Результат не бывает отрицательным: скидка больше цены даёт ноль.
func ApplyFlatDiscount(basePrice, discountAmount float64) (float64, error) {
	if discountAmount < 0 {
		return 0, ErrDiscountNegative
	}
	result := basePrice - discountAmount
	if result < 0 {
		result = 0
	}
	return RoundMoney(result), nil
}

// CalculateNewPriceByNumberDiscount переводит встречное предложение
// поставщика, заданное новой ценой числом, в процент от исходной полной
// цены (материал + доставка). Возвращает процент, округлённый до сотых.
func CalculateNewPriceByNumberDiscount(price, deliveryPrice, newPrice float64) (float64, error) {
	base := price + deliveryPrice
	if base <= 0 {
		return 0, ErrBasePriceInvalid
	}
	return RoundMoney((base - newPrice) / base * 100), nil
}

// CalculateNewPriceByPercentsDiscount — обратное преобразование: по проценту
// скидки возвращает новую цену. Цена по проценту округляется до целых
// денежных единиц: шаг процента 0.1 не даёт осмысленных копеек.
func CalculateNewPriceByPercentsDiscount(price, deliveryPrice, percent float64) (float64, error) {
	base := price + deliveryPrice
	if base <= 0 {
		return 0, ErrBasePriceInvalid
	}
	if err := ValidatePercent(percent); err != nil {
		return 0, err
	}
	return roundWhole(base * (100 - percent) / 100), nil
}

// ValidatePercent проверяет, что процент скидки лежит в (0, 100]
// с минимальным шагом 0.1. Значения вне диапазона — ошибка валидации,
// а не молчаливое clamping (в отличие от фиксированной скидки).
func ValidatePercent(percent float64) error {
	if percent < MinPercent {
		return ErrPercentTooSmall
	}
	if percent > 100 {
		return ErrPercentTooLarge
	}
	return nil
}

// ParsePercent разбирает процент скидки из сырого текста поставщика.
func ParsePercent(raw string) (float64, error) {
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, ErrPercentNotNumber
	}
	if err := ValidatePercent(value); err != nil {
		return 0, err
	}
	return value, nil
}
