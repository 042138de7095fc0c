package domain

import "context"

// ResolvedAddress — результат геокодирования адреса или координат.
type ResolvedAddress struct {
	Lat        float64
	Lon        float64
	Normalized string
	Region     string
	PostalCode string
}

// GeocodingProvider описывает взаимодействие с внешним геокодером.
type GeocodingProvider interface {
	// Resolve возвращает координаты и нормализованный адрес по запросу
	// или ErrGeocodeNotFound, если результатов нет.
	Resolve(ctx context.Context, query string) (ResolvedAddress, error)
}

// Route — маршрутная дистанция и время в пути между двумя точками.
type Route struct {
	DistanceMeters  int64
	DurationMinutes int64
}

// RouteProvider описывает взаимодействие с внешним провайдером маршрутов.
type RouteProvider interface {
	// Distance возвращает маршрут между точками или ErrRouteUnavailable
	// при любой ошибке транспорта или провайдера.
	Distance(ctx context.Context, fromLat, fromLon, toLat, toLon float64) (Route, error)
}

// BatchOffer — один оффер внутри пакета уведомления поставщика.
type BatchOffer struct {
	OrderID        string
	OfferID        string
	StorageID      string
	DistanceMeters int64
	Price          float64
}

// VendorBatch — пакет офферов одного поставщика за один цикл рассылки.
// Заказы группируются по владельцу склада, а не по складу: одно уведомление
// на поставщика за цикл.
type VendorBatch struct {
	VendorID  string
	ChannelID string
	Offers    []BatchOffer
}

// VendorNotifier доставляет поставщику пакет офферов. Ошибка доставки
// не фатальна для цикла рассылки.
type VendorNotifier interface {
	NotifyVendor(ctx context.Context, channelID string, batch VendorBatch) error
}
