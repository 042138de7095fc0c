package georoute

import (
	"context"
	"sync"

	"github.com/vladislavdragonenkov/dms/internal/domain"
)

// MockRouteProvider — конфигурируемая заглушка RouteProvider для тестов
// и локальной разработки.
type MockRouteProvider struct {
	mu sync.Mutex

	// Routes — ответы по ключу "fromLat,fromLon" не нужны: маршруты
	// настраиваются последовательностью либо одной ошибкой на все вызовы.
	Route    domain.Route
	RouteErr error
	// PerCall — если задан, ответы выдаются по порядку вызовов.
	PerCall []MockRouteCall

	Calls int
}

// MockRouteCall — один настроенный ответ провайдера маршрутов.
type MockRouteCall struct {
	Route domain.Route
	Err   error
}

// Distance возвращает настроенный маршрут/ошибку и считает вызовы.
func (m *MockRouteProvider) Distance(ctx context.Context, fromLat, fromLon, toLat, toLon float64) (domain.Route, error) {
	if err := ctx.Err(); err != nil {
		return domain.Route{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.Calls
	m.Calls++

	if idx < len(m.PerCall) {
		call := m.PerCall[idx]
		return call.Route, call.Err
	}
	return m.Route, m.RouteErr
}

// MockGeocoder — конфигурируемая заглушка GeocodingProvider.
type MockGeocoder struct {
	Resolved   domain.ResolvedAddress
	ResolveErr error

	Calls int
}

// Resolve возвращает заранее настроенный результат и считает вызовы.
func (m *MockGeocoder) Resolve(ctx context.Context, query string) (domain.ResolvedAddress, error) {
	m.Calls++
	if m.ResolveErr != nil {
		return domain.ResolvedAddress{}, m.ResolveErr
	}
	return m.Resolved, nil
}

var _ domain.RouteProvider = (*MockRouteProvider)(nil)
var _ domain.GeocodingProvider = (*MockGeocoder)(nil)
