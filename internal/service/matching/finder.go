// Package matching подбирает склады-кандидаты под заказ: фильтрует по наличию
// материала, считает маршрутную дистанцию и полную цену оффера.
package matching

import (
	"context"
	"sort"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/dms/internal/domain"
	"github.com/vladislavdragonenkov/dms/internal/service/pricing"
)

// candidatesDropped считает склады, исключённые из подбора, по причинам.
var candidatesDropped = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "dms_candidates_dropped_total",
		Help: "Total number of candidate storages dropped during matching",
	},
	[]string{"reason"},
)

// RouteSource считает маршрут от склада до точки выгрузки.
type RouteSource interface {
	Distance(ctx context.Context, fromLat, fromLon, toLat, toLon float64) (domain.Route, error)
}

// Candidate — склад, способный закрыть заказ, с готовой ценой оффера.
type Candidate struct {
	Storage         domain.VendorStorage
	Material        domain.StorageMaterial
	DistanceMeters  int64
	DurationMinutes int64
	Price           float64
}

// Finder подбирает кандидатов для заказа.
type Finder struct {
	vendors domain.VendorRepository
	routes  RouteSource
	logger  *log.Entry
}

// Options задаёт параметры поиска кандидатов.
type Options struct {
	Logger *log.Entry
}

// Option настраивает Finder.
type Option func(*Options)

// WithLogger задаёт logger для поиска.
func WithLogger(logger *log.Entry) Option {
	return func(opts *Options) {
		opts.Logger = logger
	}
}

// NewFinder создаёт Finder поверх каталога поставщиков и источника маршрутов.
func NewFinder(vendors domain.VendorRepository, routes RouteSource, options ...Option) *Finder {
	opts := Options{}
	for _, option := range options {
		option(&opts)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.WithField("component", "candidate-finder")
	}

	return &Finder{
		vendors: vendors,
		routes:  routes,
		logger:  logger,
	}
}

// FindCandidates возвращает склады с материалом заказа, отсортированные по
// дистанции, затем по цене за единицу. Недоступный маршрут исключает склад из выдачи,
// но не проваливает подбор целиком.
func (f *Finder) FindCandidates(ctx context.Context, order domain.Order) ([]Candidate, error) {
	rows, err := f.vendors.ListStorageMaterials(order.MaterialID)
	if err != nil {
		return nil, err
	}

	candidates := make([]Candidate, 0, len(rows))
	for _, row := range rows {
		storage, err := f.vendors.GetStorage(row.StorageID)
		if err != nil {
			f.logger.WithError(err).WithField("storage_id", row.StorageID).Warn("skip candidate: storage lookup failed")
			candidatesDropped.WithLabelValues("storage_lookup").Inc()
			continue
		}

		route, err := f.routes.Distance(ctx, storage.Lat, storage.Lon, order.Delivery.Lat, order.Delivery.Lon)
		if err != nil {
			f.logger.WithError(err).WithFields(log.Fields{
				"order_id":   order.ID,
				"storage_id": storage.ID,
			}).Warn("skip candidate: route unavailable")
			candidatesDropped.WithLabelValues("route").Inc()
			continue
		}

		distanceKm := float64(route.DistanceMeters) / 1000
		candidates = append(candidates, Candidate{
			Storage:         storage,
			Material:        row,
			DistanceMeters:  route.DistanceMeters,
			DurationMinutes: route.DurationMinutes,
			Price:           pricing.Quote(row.PricePerUnit, order.Quantity, row.DeliveryCostPerKm, distanceKm),
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].DistanceMeters != candidates[j].DistanceMeters {
			return candidates[i].DistanceMeters < candidates[j].DistanceMeters
		}
		// При равной дистанции сравнивается цена за единицу, не полная
		// цена оффера: коэффициент доставки не влияет на порядок.
		if candidates[i].Material.PricePerUnit != candidates[j].Material.PricePerUnit {
			return candidates[i].Material.PricePerUnit < candidates[j].Material.PricePerUnit
		}
		return candidates[i].Storage.ID < candidates[j].Storage.ID
	})
	return candidates, nil
}
