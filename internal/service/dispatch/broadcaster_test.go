package dispatch_test

import (
	"context"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"github.com/vladislavdragonenkov/dms/internal/domain"
	"github.com/vladislavdragonenkov/dms/internal/service/dispatch"
	"github.com/vladislavdragonenkov/dms/internal/service/georoute"
	"github.com/vladislavdragonenkov/dms/internal/service/matching"
	"github.com/vladislavdragonenkov/dms/internal/service/notify"
	"github.com/vladislavdragonenkov/dms/internal/storage/memory"
)

type env struct {
	orders   domain.OrderRepository
	offers   domain.OfferRepository
	vendors  domain.VendorRepository
	history  domain.HistoryRepository
	store    domain.MutationStore
	finder   *matching.Finder
	notifier *notify.MockNotifier
	caster   *dispatch.Broadcaster
}

// newEnv поднимает рассылку поверх in-memory хранилища: два поставщика,
// у каждого по складу с песком.
func newEnv(t *testing.T) *env {
	t.Helper()

	orders := memory.NewOrderRepository()
	offers := memory.NewOfferRepository()
	vendors := memory.NewVendorRepository()
	history := memory.NewHistoryRepository()
	store := memory.NewMutationStore(orders, offers, history)

	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	seed := []struct {
		vendor  domain.Vendor
		storage domain.VendorStorage
		row     domain.StorageMaterial
	}{
		{
			vendor:  domain.Vendor{ID: "vendor-1", Name: "Gravel Co", ChannelID: "chan-1"},
			storage: domain.VendorStorage{ID: "storage-1", VendorID: "vendor-1", Name: "North yard", Lat: 55.80, Lon: 37.50},
			row:     domain.StorageMaterial{StorageID: "storage-1", MaterialID: "sand", PricePerUnit: 900, DeliveryCostPerKm: 50, UpdatedAt: now},
		},
		{
			vendor:  domain.Vendor{ID: "vendor-2", Name: "Sand Bros", ChannelID: "chan-2"},
			storage: domain.VendorStorage{ID: "storage-2", VendorID: "vendor-2", Name: "South yard", Lat: 55.60, Lon: 37.70},
			row:     domain.StorageMaterial{StorageID: "storage-2", MaterialID: "sand", PricePerUnit: 850, DeliveryCostPerKm: 40, UpdatedAt: now},
		},
	}
	for _, s := range seed {
		if err := vendors.AddVendor(s.vendor); err != nil {
			t.Fatalf("add vendor failed: %v", err)
		}
		if err := vendors.AddStorage(s.storage); err != nil {
			t.Fatalf("add storage failed: %v", err)
		}
		if err := vendors.UpsertStorageMaterial(s.row); err != nil {
			t.Fatalf("upsert material failed: %v", err)
		}
	}

	routes := &georoute.MockRouteProvider{
		Route: domain.Route{DistanceMeters: 15000, DurationMinutes: 25},
	}
	notifier := notify.NewMockNotifier()
	finder := matching.NewFinder(vendors, routes)

	return &env{
		orders:   orders,
		offers:   offers,
		vendors:  vendors,
		history:  history,
		store:    store,
		finder:   finder,
		notifier: notifier,
		caster:   dispatch.NewBroadcaster(orders, offers, vendors, store, finder, notifier),
	}
}

func createOrder(t *testing.T, orders domain.OrderRepository, id string, now time.Time) domain.Order {
	t.Helper()
	order := domain.Order{
		ID:         id,
		ClientID:   "client-1",
		MaterialID: "sand",
		Quantity:   10,
		Delivery:   domain.Delivery{Lat: 55.75, Lon: 37.61, FinishBy: now.Add(48 * time.Hour)},
		Status:     domain.OrderStatusCreated,
		CreatedAt:  now,
		ExpiresAt:  now.Add(24 * time.Hour),
		UpdatedAt:  now,
	}
	if err := orders.Create(order); err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	return order
}

func TestDispatchOnce_CreatesOffersAndMarksOffered(t *testing.T) {
	e := newEnv(t)
	now := time.Date(2025, 6, 10, 13, 0, 0, 0, time.UTC)
	order := createOrder(t, e.orders, "order-1", now)

	e.caster.DispatchOnce(context.Background(), now)

	offers, err := e.offers.ListByOrder(order.ID)
	if err != nil {
		t.Fatalf("list offers failed: %v", err)
	}
	if len(offers) != 2 {
		t.Fatalf("expected 2 offers, got %d", len(offers))
	}
	for _, offer := range offers {
		if offer.Status != domain.OfferStatusPending {
			t.Fatalf("expected pending offer, got %s", offer.Status)
		}
	}

	got, err := e.orders.Get(order.ID)
	if err != nil {
		t.Fatalf("get order failed: %v", err)
	}
	if got.Status != domain.OrderStatusOffered {
		t.Fatalf("expected offered order, got %s", got.Status)
	}

	// Журнал фиксирует dispatched и offered по порядку.
	log, err := e.history.ListOrder(order.ID)
	if err != nil {
		t.Fatalf("list history failed: %v", err)
	}
	if len(log) != 2 {
		t.Fatalf("expected 2 history entries, got %d", len(log))
	}
	if log[0].Status != domain.OrderStatusDispatched || log[1].Status != domain.OrderStatusOffered {
		t.Fatalf("unexpected history sequence: %+v", log)
	}
}

func TestDispatchOnce_OneNotificationPerVendor(t *testing.T) {
	e := newEnv(t)
	now := time.Date(2025, 6, 10, 13, 0, 0, 0, time.UTC)
	createOrder(t, e.orders, "order-1", now)
	createOrder(t, e.orders, "order-2", now)

	e.caster.DispatchOnce(context.Background(), now)

	// Два заказа, два поставщика: ровно два пакета, в каждом офферы обоих заказов.
	if e.notifier.Calls != 2 {
		t.Fatalf("expected 2 notifications, got %d", e.notifier.Calls)
	}
	for _, batch := range e.notifier.Delivered() {
		if len(batch.Offers) != 2 {
			t.Fatalf("expected 2 offers in batch for %s, got %d", batch.VendorID, len(batch.Offers))
		}
	}
}

func TestDispatchOnce_NotifyFailureKeepsOrderDispatched(t *testing.T) {
	e := newEnv(t)
	e.notifier.NotifyErr = domain.ErrNotifyFailed
	now := time.Date(2025, 6, 10, 13, 0, 0, 0, time.UTC)
	order := createOrder(t, e.orders, "order-1", now)

	e.caster.DispatchOnce(context.Background(), now)

	got, err := e.orders.Get(order.ID)
	if err != nil {
		t.Fatalf("get order failed: %v", err)
	}
	if got.Status != domain.OrderStatusDispatched {
		t.Fatalf("expected dispatched order without delivery, got %s", got.Status)
	}
}

func TestDispatchOnce_PartialDeliveryStillMarksOffered(t *testing.T) {
	e := newEnv(t)
	e.notifier.FailChannels = map[string]error{"chan-1": domain.ErrNotifyFailed}
	now := time.Date(2025, 6, 10, 13, 0, 0, 0, time.UTC)
	order := createOrder(t, e.orders, "order-1", now)

	e.caster.DispatchOnce(context.Background(), now)

	got, err := e.orders.Get(order.ID)
	if err != nil {
		t.Fatalf("get order failed: %v", err)
	}
	if got.Status != domain.OrderStatusOffered {
		t.Fatalf("expected offered order after partial delivery, got %s", got.Status)
	}
}

func TestDispatchOnce_NoCandidatesKeepsOrderCreated(t *testing.T) {
	e := newEnv(t)
	now := time.Date(2025, 6, 10, 13, 0, 0, 0, time.UTC)
	order := domain.Order{
		ID:         "order-1",
		ClientID:   "client-1",
		MaterialID: "granite",
		Quantity:   5,
		Delivery:   domain.Delivery{Lat: 55.75, Lon: 37.61, FinishBy: now.Add(48 * time.Hour)},
		Status:     domain.OrderStatusCreated,
		CreatedAt:  now,
		ExpiresAt:  now.Add(24 * time.Hour),
		UpdatedAt:  now,
	}
	if err := e.orders.Create(order); err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	e.caster.DispatchOnce(context.Background(), now)

	got, err := e.orders.Get(order.ID)
	if err != nil {
		t.Fatalf("get order failed: %v", err)
	}
	if got.Status != domain.OrderStatusCreated {
		t.Fatalf("expected order to stay created, got %s", got.Status)
	}
	if e.notifier.Calls != 0 {
		t.Fatalf("expected no notifications, got %d", e.notifier.Calls)
	}
}

// Заказ, уже переведённый в offered, на следующих циклах получает только
// обновление офферов: повторный переход не применяется и не шумит в логах.
func TestDispatchOnce_SecondCycleSkipsOfferedTransition(t *testing.T) {
	e := newEnv(t)
	logger, hook := logtest.NewNullLogger()
	caster := dispatch.NewBroadcaster(
		e.orders, e.offers, e.vendors, e.store, e.finder, e.notifier,
		dispatch.WithLogger(logger.WithField("component", "dispatch-broadcaster")),
	)

	now := time.Date(2025, 6, 10, 13, 0, 0, 0, time.UTC)
	order := createOrder(t, e.orders, "order-1", now)

	caster.DispatchOnce(context.Background(), now)
	caster.DispatchOnce(context.Background(), now.Add(time.Minute))

	for _, entry := range hook.AllEntries() {
		if entry.Level == log.WarnLevel {
			t.Fatalf("unexpected warning on repeat cycle: %s", entry.Message)
		}
	}

	got, err := e.orders.Get(order.ID)
	if err != nil {
		t.Fatalf("get order failed: %v", err)
	}
	if got.Status != domain.OrderStatusOffered {
		t.Fatalf("expected offered order, got %s", got.Status)
	}

	// Журнал не получает дублей offered.
	entries, err := e.history.ListOrder(order.ID)
	if err != nil {
		t.Fatalf("list history failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 history entries after 2 cycles, got %d", len(entries))
	}
}

func TestDispatchOnce_RefreshKeepsResolvedOffers(t *testing.T) {
	e := newEnv(t)
	now := time.Date(2025, 6, 10, 13, 0, 0, 0, time.UTC)
	order := createOrder(t, e.orders, "order-1", now)

	e.caster.DispatchOnce(context.Background(), now)

	offers, err := e.offers.ListByOrder(order.ID)
	if err != nil {
		t.Fatalf("list offers failed: %v", err)
	}
	declined := offers[0]
	declined.Status = domain.OfferStatusDeclined
	if err := e.offers.Save(declined); err != nil {
		t.Fatalf("save offer failed: %v", err)
	}

	// Повторный цикл не возвращает отклонённый оффер в pending и не создаёт дубликата.
	e.caster.DispatchOnce(context.Background(), now.Add(time.Minute))

	offers, err = e.offers.ListByOrder(order.ID)
	if err != nil {
		t.Fatalf("list offers failed: %v", err)
	}
	if len(offers) != 2 {
		t.Fatalf("expected 2 offers after refresh, got %d", len(offers))
	}
	stored, err := e.offers.Get(declined.ID)
	if err != nil {
		t.Fatalf("get offer failed: %v", err)
	}
	if stored.Status != domain.OfferStatusDeclined {
		t.Fatalf("declined offer must stay declined, got %s", stored.Status)
	}
}
