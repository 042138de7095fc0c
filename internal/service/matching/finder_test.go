package matching_test

import (
	"context"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/dms/internal/domain"
	"github.com/vladislavdragonenkov/dms/internal/service/georoute"
	"github.com/vladislavdragonenkov/dms/internal/service/matching"
	"github.com/vladislavdragonenkov/dms/internal/storage/memory"
)

func seedVendors(t *testing.T) domain.VendorRepository {
	t.Helper()
	repo := memory.NewVendorRepository()

	vendors := []domain.Vendor{
		{ID: "vendor-1", Name: "Gravel Co", ChannelID: "chan-1"},
		{ID: "vendor-2", Name: "Sand Bros", ChannelID: "chan-2"},
	}
	storages := []domain.VendorStorage{
		{ID: "storage-1", VendorID: "vendor-1", Name: "North yard", Lat: 55.80, Lon: 37.50},
		{ID: "storage-2", VendorID: "vendor-2", Name: "South yard", Lat: 55.60, Lon: 37.70},
	}
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	rows := []domain.StorageMaterial{
		{StorageID: "storage-1", MaterialID: "sand", PricePerUnit: 900, DeliveryCostPerKm: 50, UpdatedAt: now},
		{StorageID: "storage-2", MaterialID: "sand", PricePerUnit: 850, DeliveryCostPerKm: 40, UpdatedAt: now},
	}

	for _, vendor := range vendors {
		if err := repo.AddVendor(vendor); err != nil {
			t.Fatalf("add vendor failed: %v", err)
		}
	}
	for _, storage := range storages {
		if err := repo.AddStorage(storage); err != nil {
			t.Fatalf("add storage failed: %v", err)
		}
	}
	for _, row := range rows {
		if err := repo.UpsertStorageMaterial(row); err != nil {
			t.Fatalf("upsert material failed: %v", err)
		}
	}
	return repo
}

func testOrder() domain.Order {
	return domain.Order{
		ID:         "order-1",
		ClientID:   "client-1",
		MaterialID: "sand",
		Quantity:   10,
		Delivery:   domain.Delivery{Lat: 55.75, Lon: 37.61},
		Status:     domain.OrderStatusCreated,
	}
}

func TestFindCandidates_SortedByDistance(t *testing.T) {
	vendors := seedVendors(t)
	routes := &georoute.MockRouteProvider{
		// Ответы идут в порядке складов (позиции отсортированы по storage_id).
		PerCall: []georoute.MockRouteCall{
			{Route: domain.Route{DistanceMeters: 20000, DurationMinutes: 30}},
			{Route: domain.Route{DistanceMeters: 12000, DurationMinutes: 18}},
		},
	}

	finder := matching.NewFinder(vendors, routes)
	candidates, err := finder.FindCandidates(context.Background(), testOrder())
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if len(candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(candidates))
	}
	if candidates[0].Storage.ID != "storage-2" {
		t.Fatalf("expected nearest storage first, got %s", candidates[0].Storage.ID)
	}

	// storage-2: 850*10 + 40*12 = 8980, storage-1: 900*10 + 50*20 = 10000.
	if candidates[0].Price != 8980 {
		t.Fatalf("unexpected price for storage-2: %v", candidates[0].Price)
	}
	if candidates[1].Price != 10000 {
		t.Fatalf("unexpected price for storage-1: %v", candidates[1].Price)
	}
}

// При равной дистанции порядок определяет цена за единицу, а не полная
// цена оффера: дешёвый материал с дорогой доставкой идёт первым.
func TestFindCandidates_DistanceTieBrokenByUnitPrice(t *testing.T) {
	repo := memory.NewVendorRepository()
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

	if err := repo.AddVendor(domain.Vendor{ID: "vendor-1", Name: "Gravel Co", ChannelID: "chan-1"}); err != nil {
		t.Fatalf("add vendor failed: %v", err)
	}
	storages := []domain.VendorStorage{
		{ID: "storage-cheap-unit", VendorID: "vendor-1", Name: "West yard", Lat: 55.70, Lon: 37.40},
		{ID: "storage-dear-unit", VendorID: "vendor-1", Name: "East yard", Lat: 55.70, Lon: 37.80},
	}
	for _, storage := range storages {
		if err := repo.AddStorage(storage); err != nil {
			t.Fatalf("add storage failed: %v", err)
		}
	}
	rows := []domain.StorageMaterial{
		// Дешёвая единица, дорогая доставка: полная цена выше соперника.
		{StorageID: "storage-cheap-unit", MaterialID: "sand", PricePerUnit: 10, DeliveryCostPerKm: 100, UpdatedAt: now},
		{StorageID: "storage-dear-unit", MaterialID: "sand", PricePerUnit: 11, DeliveryCostPerKm: 0, UpdatedAt: now},
	}
	for _, row := range rows {
		if err := repo.UpsertStorageMaterial(row); err != nil {
			t.Fatalf("upsert material failed: %v", err)
		}
	}

	routes := &georoute.MockRouteProvider{
		Route: domain.Route{DistanceMeters: 10000, DurationMinutes: 15},
	}

	finder := matching.NewFinder(repo, routes)
	candidates, err := finder.FindCandidates(context.Background(), testOrder())
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if len(candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(candidates))
	}
	if candidates[0].Storage.ID != "storage-cheap-unit" {
		t.Fatalf("expected cheapest unit price first, got %s", candidates[0].Storage.ID)
	}
	if candidates[0].Price <= candidates[1].Price {
		t.Fatalf("tie-break must ignore the full quote: %v vs %v", candidates[0].Price, candidates[1].Price)
	}
}

func TestFindCandidates_RouteFailureDropsCandidate(t *testing.T) {
	vendors := seedVendors(t)
	routes := &georoute.MockRouteProvider{
		PerCall: []georoute.MockRouteCall{
			{Err: domain.ErrRouteUnavailable},
			{Route: domain.Route{DistanceMeters: 12000, DurationMinutes: 18}},
		},
	}

	finder := matching.NewFinder(vendors, routes)
	candidates, err := finder.FindCandidates(context.Background(), testOrder())
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}
	if candidates[0].Storage.ID != "storage-2" {
		t.Fatalf("expected surviving storage-2, got %s", candidates[0].Storage.ID)
	}
	if routes.Calls != 2 {
		t.Fatalf("expected 2 route calls, got %d", routes.Calls)
	}
}

func TestFindCandidates_NoMaterial(t *testing.T) {
	vendors := seedVendors(t)
	finder := matching.NewFinder(vendors, &georoute.MockRouteProvider{})

	order := testOrder()
	order.MaterialID = "granite"
	candidates, err := finder.FindCandidates(context.Background(), order)
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if len(candidates) != 0 {
		t.Fatalf("expected no candidates, got %d", len(candidates))
	}
}
