package app

import (
	"time"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/dms/internal/domain"
)

// seedDemoData наполняет in-memory хранилище демонстрационными поставщиками,
// складами и парой открытых заказов. Используется только без PostgreSQL.
func seedDemoData(repos repositories, now time.Time) error {
	vendors := []struct {
		vendor    domain.Vendor
		storage   domain.VendorStorage
		materials []domain.StorageMaterial
	}{
		{
			vendor:  domain.Vendor{ID: "vendor-neruds", Name: "НерудСтройКомплект", ChannelID: "channel-neruds"},
			storage: domain.VendorStorage{ID: "storage-neruds-1", VendorID: "vendor-neruds", Name: "База Северная", Lat: 55.901, Lon: 37.552},
			materials: []domain.StorageMaterial{
				{StorageID: "storage-neruds-1", MaterialID: "sand", PricePerUnit: 850, DeliveryCostPerKm: 42, UpdatedAt: now},
				{StorageID: "storage-neruds-1", MaterialID: "gravel", PricePerUnit: 1250, DeliveryCostPerKm: 44, UpdatedAt: now},
			},
		},
		{
			vendor:  domain.Vendor{ID: "vendor-karier", Name: "Карьер Южный", ChannelID: "channel-karier"},
			storage: domain.VendorStorage{ID: "storage-karier-1", VendorID: "vendor-karier", Name: "Склад у трассы", Lat: 55.571, Lon: 37.684},
			materials: []domain.StorageMaterial{
				{StorageID: "storage-karier-1", MaterialID: "sand", PricePerUnit: 790, DeliveryCostPerKm: 48, UpdatedAt: now},
				{StorageID: "storage-karier-1", MaterialID: "crushed-stone", PricePerUnit: 1480, DeliveryCostPerKm: 48, UpdatedAt: now},
			},
		},
	}

	for _, entry := range vendors {
		if err := repos.vendors.AddVendor(entry.vendor); err != nil {
			return err
		}
		if err := repos.vendors.AddStorage(entry.storage); err != nil {
			return err
		}
		for _, row := range entry.materials {
			if err := repos.vendors.UpsertStorageMaterial(row); err != nil {
				return err
			}
		}
	}

	orders := []domain.Order{
		{
			ID:         uuid.NewString(),
			ClientID:   "client-demo-1",
			MaterialID: "sand",
			Quantity:   12,
			Delivery: domain.Delivery{
				Lat:      55.751,
				Lon:      37.618,
				Address:  "Москва, Лесная ул., 7",
				Date:     now.Add(24 * time.Hour),
				FinishBy: now.Add(36 * time.Hour),
			},
			Status:    domain.OrderStatusCreated,
			CreatedAt: now,
			ExpiresAt: now.Add(4 * time.Hour),
			UpdatedAt: now,
		},
		{
			ID:         uuid.NewString(),
			ClientID:   "client-demo-2",
			MaterialID: "gravel",
			Quantity:   20,
			Delivery: domain.Delivery{
				Lat:      55.812,
				Lon:      37.497,
				Address:  "Москва, Волоколамское ш., 88",
				Date:     now.Add(48 * time.Hour),
				FinishBy: now.Add(60 * time.Hour),
			},
			Status:    domain.OrderStatusCreated,
			CreatedAt: now,
			ExpiresAt: now.Add(6 * time.Hour),
			UpdatedAt: now,
		},
	}

	for _, order := range orders {
		if err := repos.orders.Create(order); err != nil {
			return err
		}
	}

	return nil
}
