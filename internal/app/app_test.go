package app

import (
	"testing"
	"time"

	"github.com/vladislavdragonenkov/dms/internal/domain"
	"github.com/vladislavdragonenkov/dms/internal/storage/memory"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.MetricsAddr != ":9090" {
		t.Errorf("unexpected metrics addr: %s", cfg.MetricsAddr)
	}
	if cfg.DispatchInterval != 30*time.Second {
		t.Errorf("unexpected dispatch interval: %s", cfg.DispatchInterval)
	}
	if cfg.SweepInterval != time.Minute {
		t.Errorf("unexpected sweep interval: %s", cfg.SweepInterval)
	}
	if cfg.DatabaseDSN != "" {
		t.Errorf("default config must not carry a DSN, got %q", cfg.DatabaseDSN)
	}
}

func TestSeedDemoData(t *testing.T) {
	orders := memory.NewOrderRepository()
	offers := memory.NewOfferRepository()
	vendors := memory.NewVendorRepository()
	history := memory.NewHistoryRepository()
	repos := repositories{
		orders:  orders,
		offers:  offers,
		vendors: vendors,
		history: history,
		store:   memory.NewMutationStore(orders, offers, history),
	}

	now := time.Date(2025, time.June, 2, 9, 0, 0, 0, time.UTC)
	if err := seedDemoData(repos, now); err != nil {
		t.Fatalf("seedDemoData: %v", err)
	}

	open, err := repos.orders.ListOpen(now, 0)
	if err != nil {
		t.Fatalf("ListOpen: %v", err)
	}
	if len(open) != 2 {
		t.Fatalf("expected 2 demo orders, got %d", len(open))
	}
	for _, order := range open {
		if issues := order.ValidateInvariants(); len(issues) != 0 {
			t.Errorf("demo order %s violates invariants: %v", order.ID, issues)
		}
	}

	rows, err := repos.vendors.ListStorageMaterials("sand")
	if err != nil {
		t.Fatalf("ListStorageMaterials: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected sand on 2 storages, got %d", len(rows))
	}
	for _, row := range rows {
		if issues := row.ValidateInvariants(); len(issues) != 0 {
			t.Errorf("demo material row %s/%s violates invariants: %v", row.StorageID, row.MaterialID, issues)
		}
	}

	if _, err := repos.vendors.GetVendor("vendor-neruds"); err != nil {
		t.Errorf("GetVendor: %v", err)
	}
	if _, err := repos.vendors.GetStorage("storage-karier-1"); err != nil {
		t.Errorf("GetStorage: %v", err)
	}
}

// Повторный запуск seed не должен создавать дубликаты позиций складов.
func TestSeedDemoDataMaterialsIdempotent(t *testing.T) {
	orders := memory.NewOrderRepository()
	offers := memory.NewOfferRepository()
	vendors := memory.NewVendorRepository()
	history := memory.NewHistoryRepository()
	repos := repositories{
		orders:  orders,
		offers:  offers,
		vendors: vendors,
		history: history,
		store:   memory.NewMutationStore(orders, offers, history),
	}

	now := time.Date(2025, time.June, 2, 9, 0, 0, 0, time.UTC)
	if err := seedDemoData(repos, now); err != nil {
		t.Fatalf("first seed: %v", err)
	}
	refresh := domain.StorageMaterial{
		StorageID:         "storage-neruds-1",
		MaterialID:        "sand",
		PricePerUnit:      870,
		DeliveryCostPerKm: 42,
		UpdatedAt:         now.Add(time.Hour),
	}
	if err := repos.vendors.UpsertStorageMaterial(refresh); err != nil {
		t.Fatalf("re-upsert: %v", err)
	}

	rows, err := repos.vendors.ListStorageMaterials("sand")
	if err != nil {
		t.Fatalf("ListStorageMaterials: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 sand rows after re-upsert, got %d", len(rows))
	}
	for _, row := range rows {
		if row.StorageID == "storage-neruds-1" && row.PricePerUnit != 870 {
			t.Errorf("expected refreshed price 870, got %v", row.PricePerUnit)
		}
	}
}
