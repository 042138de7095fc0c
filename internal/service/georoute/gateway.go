// Package georoute оборачивает внешние геокодер и провайдер маршрутов
// в шлюз с ограниченными таймаутами на вызов.
package georoute

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/dms/internal/domain"
)

const defaultCallTimeout = 3 * time.Second

// Options задаёт параметры шлюза.
type Options struct {
	Logger      *log.Entry
	CallTimeout time.Duration
}

// Option настраивает Gateway.
type Option func(*Options)

// WithLogger задаёт logger для шлюза.
func WithLogger(logger *log.Entry) Option {
	return func(opts *Options) {
		opts.Logger = logger
	}
}

// WithCallTimeout задаёт таймаут одного исходящего вызова.
func WithCallTimeout(timeout time.Duration) Option {
	return func(opts *Options) {
		opts.CallTimeout = timeout
	}
}

// Gateway — единая точка выхода к геокодеру и маршрутам. Все вызовы ограничены
// таймаутом; просроченный вызов возвращает ошибку вызывающей стороне, которая
// исключает кандидата, но не проваливает весь цикл.
type Gateway struct {
	geocoder domain.GeocodingProvider
	routes   domain.RouteProvider
	logger   *log.Entry
	timeout  time.Duration
}

// NewGateway создаёт шлюз поверх внешних провайдеров.
func NewGateway(geocoder domain.GeocodingProvider, routes domain.RouteProvider, options ...Option) *Gateway {
	opts := Options{
		CallTimeout: defaultCallTimeout,
	}
	for _, option := range options {
		option(&opts)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.WithField("component", "georoute-gateway")
	}
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = defaultCallTimeout
	}

	return &Gateway{
		geocoder: geocoder,
		routes:   routes,
		logger:   logger,
		timeout:  opts.CallTimeout,
	}
}

// Resolve геокодирует адрес или координаты с таймаутом на вызов.
func (g *Gateway) Resolve(ctx context.Context, query string) (domain.ResolvedAddress, error) {
	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	resolved, err := g.geocoder.Resolve(callCtx, query)
	if err != nil {
		g.logger.WithError(err).WithField("query", query).Debug("geocode failed")
		return domain.ResolvedAddress{}, err
	}
	return resolved, nil
}

// Distance возвращает маршрут между складом и точкой выгрузки с таймаутом
// на вызов. По таймауту кандидат отбрасывается без повтора внутри цикла.
func (g *Gateway) Distance(ctx context.Context, fromLat, fromLon, toLat, toLon float64) (domain.Route, error) {
	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	route, err := g.routes.Distance(callCtx, fromLat, fromLon, toLat, toLon)
	if err != nil {
		g.logger.WithError(err).Debug("route lookup failed")
		return domain.Route{}, err
	}
	return route, nil
}
