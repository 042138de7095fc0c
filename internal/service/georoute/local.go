package georoute

import (
	"context"
	"math"

	"github.com/vladislavdragonenkov/dms/internal/domain"
)

const (
	earthRadiusMeters = 6371000.0
	// roadFactor приближает дорожную дистанцию через прямую.
	roadFactor = 1.3
	// averageSpeedKmh — средняя скорость самосвала по городу.
	averageSpeedKmh = 40.0
)

// LocalRouteProvider оценивает маршрут по прямой с дорожным коэффициентом.
// Используется в локальной разработке вместо внешнего провайдера маршрутов.
type LocalRouteProvider struct{}

// NewLocalRouteProvider создаёт локальный провайдер маршрутов.
func NewLocalRouteProvider() *LocalRouteProvider {
	return &LocalRouteProvider{}
}

// Distance возвращает оценку маршрута между точками.
func (p *LocalRouteProvider) Distance(ctx context.Context, fromLat, fromLon, toLat, toLon float64) (domain.Route, error) {
	if err := ctx.Err(); err != nil {
		return domain.Route{}, err
	}

	meters := haversineMeters(fromLat, fromLon, toLat, toLon) * roadFactor
	minutes := meters / 1000 / averageSpeedKmh * 60
	return domain.Route{
		DistanceMeters:  int64(math.Round(meters)),
		DurationMinutes: int64(math.Ceil(minutes)),
	}, nil
}

// haversineMeters — дистанция по большому кругу между двумя точками.
func haversineMeters(fromLat, fromLon, toLat, toLon float64) float64 {
	lat1 := fromLat * math.Pi / 180
	lat2 := toLat * math.Pi / 180
	dLat := (toLat - fromLat) * math.Pi / 180
	dLon := (toLon - fromLon) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusMeters * math.Asin(math.Sqrt(a))
}

var _ domain.RouteProvider = (*LocalRouteProvider)(nil)
