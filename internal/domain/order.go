package domain

import "time"

// OrderStatus описывает жизненный цикл заказа на доставку в DMS.
type OrderStatus string

const (
	// OrderStatusCreated — заказ создан клиентом, кандидаты ещё не подобраны.
	OrderStatusCreated OrderStatus = "created"
	// OrderStatusDispatched — по заказу созданы офферы для подходящих складов.
	OrderStatusDispatched OrderStatus = "dispatched"
	// OrderStatusOffered — поставщики уведомлены, заказ ждёт ответа.
	OrderStatusOffered OrderStatus = "offered"
	// OrderStatusAccepted — ровно один поставщик принял заказ.
	OrderStatusAccepted OrderStatus = "accepted"
	// OrderStatusInDelivery — доставка выполняется победившим складом.
	OrderStatusInDelivery OrderStatus = "in_delivery"
	// OrderStatusCompleted — доставка завершена.
	OrderStatusCompleted OrderStatus = "completed"
	// OrderStatusCancelled — заказ отменён до завершения цикла.
	OrderStatusCancelled OrderStatus = "cancelled"
	// OrderStatusExpired — срок заказа истёк до принятия оффера.
	OrderStatusExpired OrderStatus = "expired"
)

// Valid проверяет, что статус относится к поддерживаемым значениям.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusCreated, OrderStatusDispatched, OrderStatusOffered,
		OrderStatusAccepted, OrderStatusInDelivery, OrderStatusCompleted,
		OrderStatusCancelled, OrderStatusExpired:
		return true
	default:
		return false
	}
}

// Open сообщает, что заказ ещё участвует в цикле подбора поставщика
// и может быть разослан, принят или просрочен.
func (s OrderStatus) Open() bool {
	switch s {
	case OrderStatusCreated, OrderStatusDispatched, OrderStatusOffered:
		return true
	default:
		return false
	}
}

// Terminal сообщает, что цикл подбора по заказу завершён и дальнейшие
// переходы запрещены. Accepted терминален: исполнение доставки после
// принятия оффера лежит за пределами подбора, и отмена принятого заказа
// не должна расцеплять заказ с его победившим оффером.
func (s OrderStatus) Terminal() bool {
	switch s {
	case OrderStatusAccepted, OrderStatusInDelivery, OrderStatusCompleted,
		OrderStatusCancelled, OrderStatusExpired:
		return true
	default:
		return false
	}
}

// TimeWindow — желаемое окно доставки внутри дня. Необязательное поле заказа.
type TimeWindow struct {
	From time.Time
	To   time.Time
}

// Delivery хранит точку назначения и временные рамки доставки.
// После рассылки офферов меняться не должна.
type Delivery struct {
	// Lat/Lon — координаты точки выгрузки.
	Lat float64
	Lon float64
	// Address — нормализованный адрес после геокодирования.
	Address string
	// Date — запрошенная дата доставки.
	Date time.Time
	// Window — желаемое окно в течение дня, может отсутствовать.
	Window *TimeWindow
	// FinishBy — крайний срок завершения доставки, обязателен.
	FinishBy time.Time
}

// Order агрегирует заявку клиента на доставку одного материала.
type Order struct {
	ID         string
	ClientID   string
	MaterialID string
	// Quantity — объём материала в кубометрах.
	Quantity float64
	Delivery  Delivery
	Status    OrderStatus
	Version   int64
	CreatedAt time.Time
	// ExpiresAt — срок, после которого нерешённый заказ считается просроченным.
	ExpiresAt time.Time
	UpdatedAt time.Time
}

// ValidateInvariants проверяет базовые инварианты заказа и возвращает список замечаний.
func (o *Order) ValidateInvariants() []error {
	var errs []error

	if o.ClientID == "" {
		errs = append(errs, ErrClientRequired)
	}
	if o.MaterialID == "" {
		errs = append(errs, ErrMaterialRequired)
	}
	if o.Quantity <= 0 {
		errs = append(errs, ErrQuantityInvalid)
	}
	if !o.ExpiresAt.After(o.CreatedAt) {
		errs = append(errs, ErrExpiryBeforeCreation)
	}
	if o.Delivery.FinishBy.IsZero() {
		errs = append(errs, ErrFinishByRequired)
	}
	if w := o.Delivery.Window; w != nil && !w.To.After(w.From) {
		errs = append(errs, ErrTimeWindowInvalid)
	}
	if !o.Status.Valid() {
		errs = append(errs, ErrOrderStatusInvalid)
	}

	return errs
}

// ExpiredAt сообщает, просрочен ли заказ к моменту now.
// Для заказов, уже покинувших цикл подбора, всегда false.
func (o *Order) ExpiredAt(now time.Time) bool {
	return o.Status.Open() && !o.ExpiresAt.After(now)
}
