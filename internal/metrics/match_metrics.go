package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MatchMetrics содержит метрики цикла рассылки и разрешения офферов.
type MatchMetrics struct {
	// Счётчики цикла рассылки
	dispatchCycles   prometheus.Counter
	offersDispatched prometheus.Counter
	notifyFailures   prometheus.Counter

	// Счётчики разрешения офферов
	offersAccepted prometheus.Counter
	offersDeclined prometheus.Counter
	offerConflicts prometheus.Counter
	ordersExpired  prometheus.Counter

	// Гистограммы времени выполнения
	dispatchDuration prometheus.Histogram
	resolveDuration  *prometheus.HistogramVec

	// Gauge для незавершённых заказов в последнем цикле
	openOrders prometheus.Gauge
}

// NewMatchMetrics создаёт новый экземпляр метрик подбора.
func NewMatchMetrics() *MatchMetrics {
	return newMatchMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func newMatchMetricsWithRegisterer(registerer prometheus.Registerer) *MatchMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &MatchMetrics{
		dispatchCycles: registerCounter(registerer, prometheus.CounterOpts{
			Name: "dms_dispatch_cycles_total",
			Help: "Total number of dispatch cycles executed",
		}),
		offersDispatched: registerCounter(registerer, prometheus.CounterOpts{
			Name: "dms_offers_dispatched_total",
			Help: "Total number of offers sent to vendors",
		}),
		notifyFailures: registerCounter(registerer, prometheus.CounterOpts{
			Name: "dms_vendor_notify_failures_total",
			Help: "Total number of failed vendor notifications",
		}),
		offersAccepted: registerCounter(registerer, prometheus.CounterOpts{
			Name: "dms_offers_accepted_total",
			Help: "Total number of offers accepted by clients",
		}),
		offersDeclined: registerCounter(registerer, prometheus.CounterOpts{
			Name: "dms_offers_declined_total",
			Help: "Total number of offers declined",
		}),
		offerConflicts: registerCounter(registerer, prometheus.CounterOpts{
			Name: "dms_offer_conflicts_total",
			Help: "Total number of offer acceptances rejected as conflicts",
		}),
		ordersExpired: registerCounter(registerer, prometheus.CounterOpts{
			Name: "dms_orders_expired_total",
			Help: "Total number of orders expired by the sweeper",
		}),
		dispatchDuration: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "dms_dispatch_cycle_duration_seconds",
			Help:    "Duration of dispatch cycles in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		resolveDuration: registerHistogramVec(registerer, prometheus.HistogramOpts{
			Name:    "dms_resolve_duration_seconds",
			Help:    "Duration of offer resolution operations in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}, []string{"operation"}),
		openOrders: registerGauge(registerer, prometheus.GaugeOpts{
			Name: "dms_open_orders",
			Help: "Number of open orders seen in the last dispatch cycle",
		}),
	}
}

func registerCounter(registerer prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	collector := prometheus.NewCounter(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Counter)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter %q: %v", opts.Name, err))
	}
	return collector
}

func registerGauge(registerer prometheus.Registerer, opts prometheus.GaugeOpts) prometheus.Gauge {
	collector := prometheus.NewGauge(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Gauge)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register gauge %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogram(registerer prometheus.Registerer, opts prometheus.HistogramOpts) prometheus.Histogram {
	collector := prometheus.NewHistogram(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Histogram)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogramVec(registerer prometheus.Registerer, opts prometheus.HistogramOpts, labels []string) *prometheus.HistogramVec {
	collector := prometheus.NewHistogramVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.HistogramVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram vec %q: %v", opts.Name, err))
	}
	return collector
}

// RecordDispatchCycle увеличивает счётчик выполненных циклов рассылки.
func (m *MatchMetrics) RecordDispatchCycle() {
	m.dispatchCycles.Inc()
}

// RecordOffersDispatched увеличивает счётчик разосланных офферов.
func (m *MatchMetrics) RecordOffersDispatched(n int) {
	m.offersDispatched.Add(float64(n))
}

// RecordNotifyFailure увеличивает счётчик неудачных уведомлений поставщиков.
func (m *MatchMetrics) RecordNotifyFailure() {
	m.notifyFailures.Inc()
}

// RecordOfferAccepted увеличивает счётчик принятых офферов.
func (m *MatchMetrics) RecordOfferAccepted() {
	m.offersAccepted.Inc()
}

// RecordOfferDeclined увеличивает счётчик отклонённых офферов.
func (m *MatchMetrics) RecordOfferDeclined() {
	m.offersDeclined.Inc()
}

// RecordOfferConflict увеличивает счётчик проигранных гонок принятия.
func (m *MatchMetrics) RecordOfferConflict() {
	m.offerConflicts.Inc()
}

// RecordOrderExpired увеличивает счётчик просроченных заказов.
func (m *MatchMetrics) RecordOrderExpired() {
	m.ordersExpired.Inc()
}

// RecordDispatchDuration записывает время выполнения цикла рассылки.
func (m *MatchMetrics) RecordDispatchDuration(duration time.Duration) {
	m.dispatchDuration.Observe(duration.Seconds())
}

// RecordResolveDuration записывает время операции разрешения оффера.
func (m *MatchMetrics) RecordResolveDuration(operation string, duration time.Duration) {
	m.resolveDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// SetOpenOrders фиксирует число незавершённых заказов последнего цикла.
func (m *MatchMetrics) SetOpenOrders(n int) {
	m.openOrders.Set(float64(n))
}
