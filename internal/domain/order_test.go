package domain_test

import (
	"testing"
	"time"

	"github.com/vladislavdragonenkov/dms/internal/domain"
)

// helper для создания валидного заказа в статусе created.
func makeOrder() domain.Order {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	return domain.Order{
		ID:         "order-1",
		ClientID:   "client-1",
		MaterialID: "sand",
		Quantity:   12,
		Delivery: domain.Delivery{
			Lat:      55.75,
			Lon:      37.62,
			Address:  "Moscow, Tverskaya 1",
			Date:     now.Add(24 * time.Hour),
			FinishBy: now.Add(48 * time.Hour),
		},
		Status:    domain.OrderStatusCreated,
		Version:   0,
		CreatedAt: now,
		ExpiresAt: now.Add(6 * time.Hour),
		UpdatedAt: now,
	}
}

func TestOrderValidateInvariants_Ok(t *testing.T) {
	order := makeOrder()
	if errs := order.ValidateInvariants(); len(errs) != 0 {
		t.Fatalf("expected no validation errors, got %v", errs)
	}
}

func TestOrderValidateInvariants_Errors(t *testing.T) {
	cases := []struct {
		name string
		mut  func(o *domain.Order)
	}{
		{
			name: "no client",
			mut: func(o *domain.Order) {
				o.ClientID = ""
			},
		},
		{
			name: "no material",
			mut: func(o *domain.Order) {
				o.MaterialID = ""
			},
		},
		{
			name: "zero quantity",
			mut: func(o *domain.Order) {
				o.Quantity = 0
			},
		},
		{
			name: "negative quantity",
			mut: func(o *domain.Order) {
				o.Quantity = -3
			},
		},
		{
			name: "expiry before creation",
			mut: func(o *domain.Order) {
				o.ExpiresAt = o.CreatedAt.Add(-time.Minute)
			},
		},
		{
			name: "no finish_by",
			mut: func(o *domain.Order) {
				o.Delivery.FinishBy = time.Time{}
			},
		},
		{
			name: "inverted time window",
			mut: func(o *domain.Order) {
				from := o.CreatedAt.Add(30 * time.Hour)
				o.Delivery.Window = &domain.TimeWindow{From: from, To: from.Add(-time.Hour)}
			},
		},
		{
			name: "unknown status",
			mut: func(o *domain.Order) {
				o.Status = "teleported"
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			order := makeOrder()
			// Изменяем состояние согласно сценарию.
			tc.mut(&order)

			if len(order.ValidateInvariants()) == 0 {
				t.Fatalf("expected validation errors for case %s", tc.name)
			}
		})
	}
}

func TestOrderExpiredAt(t *testing.T) {
	order := makeOrder()

	if order.ExpiredAt(order.ExpiresAt.Add(-time.Second)) {
		t.Fatal("order must not be expired before expires_at")
	}
	if !order.ExpiredAt(order.ExpiresAt) {
		t.Fatal("order must be expired exactly at expires_at")
	}

	// Решённый заказ не считается просроченным независимо от срока.
	order.Status = domain.OrderStatusAccepted
	if order.ExpiredAt(order.ExpiresAt.Add(time.Hour)) {
		t.Fatal("accepted order must not expire")
	}
}

func TestOrderStatusPredicates(t *testing.T) {
	tests := []struct {
		status   domain.OrderStatus
		open     bool
		terminal bool
	}{
		{domain.OrderStatusCreated, true, false},
		{domain.OrderStatusDispatched, true, false},
		{domain.OrderStatusOffered, true, false},
		{domain.OrderStatusAccepted, false, true},
		{domain.OrderStatusInDelivery, false, true},
		{domain.OrderStatusCompleted, false, true},
		{domain.OrderStatusCancelled, false, true},
		{domain.OrderStatusExpired, false, true},
	}

	for _, tc := range tests {
		if got := tc.status.Open(); got != tc.open {
			t.Errorf("%s: Open() = %v, want %v", tc.status, got, tc.open)
		}
		if got := tc.status.Terminal(); got != tc.terminal {
			t.Errorf("%s: Terminal() = %v, want %v", tc.status, got, tc.terminal)
		}
	}
}

func TestOfferValidateInvariants(t *testing.T) {
	offer := domain.Offer{
		ID:             "offer-1",
		OrderID:        "order-1",
		StorageID:      "storage-1",
		VendorID:       "vendor-1",
		DistanceMeters: 12000,
		Price:          3500,
		Status:         domain.OfferStatusPending,
	}
	if errs := offer.ValidateInvariants(); len(errs) != 0 {
		t.Fatalf("expected no validation errors, got %v", errs)
	}

	offer.VendorID = ""
	offer.Price = -1
	if len(offer.ValidateInvariants()) != 2 {
		t.Fatalf("expected 2 validation errors, got %v", offer.ValidateInvariants())
	}
}

func TestStorageMaterialValidateInvariants(t *testing.T) {
	sm := domain.StorageMaterial{
		StorageID:         "storage-1",
		MaterialID:        "sand",
		PricePerUnit:      850,
		DeliveryCostPerKm: 45,
	}
	if errs := sm.ValidateInvariants(); len(errs) != 0 {
		t.Fatalf("expected no validation errors, got %v", errs)
	}

	sm.DeliveryCostPerKm = -1
	if len(sm.ValidateInvariants()) != 1 {
		t.Fatalf("expected 1 validation error, got %v", sm.ValidateInvariants())
	}
}
