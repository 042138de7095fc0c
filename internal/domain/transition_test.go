package domain_test

import (
	"errors"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/dms/internal/domain"
)

func makeOffered(t *testing.T) (domain.Order, []domain.Offer) {
	t.Helper()

	order := makeOrder()
	order.Status = domain.OrderStatusOffered

	offers := []domain.Offer{
		{ID: "offer-1", OrderID: order.ID, StorageID: "storage-1", VendorID: "vendor-1", Price: 3500, Status: domain.OfferStatusPending},
		{ID: "offer-2", OrderID: order.ID, StorageID: "storage-2", VendorID: "vendor-2", Price: 3600, Status: domain.OfferStatusPending},
		{ID: "offer-3", OrderID: order.ID, StorageID: "storage-3", VendorID: "vendor-2", Price: 4100, Status: domain.OfferStatusDeclined},
	}
	return order, offers
}

func TestAcceptOffer_CascadesSiblings(t *testing.T) {
	order, offers := makeOffered(t)
	now := order.CreatedAt.Add(time.Hour)

	m, err := domain.AcceptOffer(order, offers, "offer-1", "vendor-1", now)
	if err != nil {
		t.Fatalf("accept failed: %v", err)
	}

	if m.Order.Status != domain.OrderStatusAccepted {
		t.Fatalf("expected order accepted, got %s", m.Order.Status)
	}

	// Победитель + один каскадно отклонённый pending-соперник. Уже решённый
	// offer-3 в набор изменений не попадает.
	if len(m.Offers) != 2 {
		t.Fatalf("expected 2 mutated offers, got %d", len(m.Offers))
	}
	accepted := 0
	for _, offer := range m.Offers {
		switch offer.ID {
		case "offer-1":
			if offer.Status != domain.OfferStatusAccepted {
				t.Fatalf("winner status: %s", offer.Status)
			}
			accepted++
		case "offer-2":
			if offer.Status != domain.OfferStatusDeclined {
				t.Fatalf("sibling status: %s", offer.Status)
			}
		default:
			t.Fatalf("unexpected mutated offer %s", offer.ID)
		}
	}
	if accepted != 1 {
		t.Fatalf("expected exactly one accepted offer, got %d", accepted)
	}

	if len(m.OrderHistory) != 1 || m.OrderHistory[0].Changer != domain.ChangerVendor {
		t.Fatalf("unexpected order history: %+v", m.OrderHistory)
	}
	if len(m.OfferHistory) != 2 {
		t.Fatalf("expected 2 offer history rows, got %d", len(m.OfferHistory))
	}
}

func TestAcceptOffer_Conflicts(t *testing.T) {
	now := time.Now().UTC()

	cases := []struct {
		name     string
		offerID  string
		vendorID string
		mut      func(order *domain.Order, offers []domain.Offer)
		want     error
	}{
		{
			name:     "order already accepted",
			offerID:  "offer-1",
			vendorID: "vendor-1",
			mut: func(order *domain.Order, _ []domain.Offer) {
				order.Status = domain.OrderStatusAccepted
			},
			want: domain.ErrOfferConflict,
		},
		{
			name:     "offer already declined",
			offerID:  "offer-3",
			vendorID: "vendor-2",
			mut:      func(_ *domain.Order, _ []domain.Offer) {},
			want:     domain.ErrOfferConflict,
		},
		{
			name:     "order cancelled",
			offerID:  "offer-1",
			vendorID: "vendor-1",
			mut: func(order *domain.Order, _ []domain.Offer) {
				order.Status = domain.OrderStatusCancelled
			},
			want: domain.ErrOfferConflict,
		},
		{
			name:     "foreign vendor",
			offerID:  "offer-1",
			vendorID: "vendor-2",
			mut:      func(_ *domain.Order, _ []domain.Offer) {},
			want:     domain.ErrForeignOffer,
		},
		{
			name:     "unknown offer",
			offerID:  "offer-404",
			vendorID: "vendor-1",
			mut:      func(_ *domain.Order, _ []domain.Offer) {},
			want:     domain.ErrOfferNotFound,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			order, offers := makeOffered(t)
			tc.mut(&order, offers)

			_, err := domain.AcceptOffer(order, offers, tc.offerID, tc.vendorID, now)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestDeclineOffer_KeepsOrderOfferedWhilePendingRemain(t *testing.T) {
	order, offers := makeOffered(t)
	now := order.CreatedAt.Add(time.Hour)

	m, err := domain.DeclineOffer(order, offers, "offer-1", "vendor-1", now)
	if err != nil {
		t.Fatalf("decline failed: %v", err)
	}

	if m.Order.Status != domain.OrderStatusOffered {
		t.Fatalf("order must stay offered, got %s", m.Order.Status)
	}
	if len(m.Offers) != 1 || m.Offers[0].Status != domain.OfferStatusDeclined {
		t.Fatalf("unexpected mutations: %+v", m.Offers)
	}
	if len(m.OrderHistory) != 0 {
		t.Fatalf("order history must be empty while order keeps status")
	}
}

func TestDeclineOffer_LastPendingRevertsOrder(t *testing.T) {
	order, offers := makeOffered(t)
	offers[0].Status = domain.OfferStatusDeclined
	now := order.CreatedAt.Add(time.Hour)

	m, err := domain.DeclineOffer(order, offers, "offer-2", "vendor-2", now)
	if err != nil {
		t.Fatalf("decline failed: %v", err)
	}

	// Последний pending-оффер отклонён: заказ возвращается на повторную рассылку.
	if m.Order.Status != domain.OrderStatusCreated {
		t.Fatalf("expected order created, got %s", m.Order.Status)
	}
	if len(m.OrderHistory) != 1 || m.OrderHistory[0].Status != domain.OrderStatusCreated {
		t.Fatalf("unexpected order history: %+v", m.OrderHistory)
	}
}

func TestDeclineOffer_TwiceIsNoop(t *testing.T) {
	order, offers := makeOffered(t)
	now := order.CreatedAt.Add(time.Hour)

	m, err := domain.DeclineOffer(order, offers, "offer-1", "vendor-1", now)
	if err != nil {
		t.Fatalf("first decline failed: %v", err)
	}
	offers[0] = m.Offers[0]

	// Повторный отказ — ошибка без каскада, а не двойное применение.
	_, err = domain.DeclineOffer(order, offers, "offer-1", "vendor-1", now.Add(time.Minute))
	if !errors.Is(err, domain.ErrOfferNotPending) {
		t.Fatalf("expected ErrOfferNotPending, got %v", err)
	}
}

func TestExpireOrder_CascadesPendingOffers(t *testing.T) {
	order, offers := makeOffered(t)
	now := order.ExpiresAt.Add(time.Minute)

	m, err := domain.ExpireOrder(order, offers, now)
	if err != nil {
		t.Fatalf("expire failed: %v", err)
	}

	if m.Order.Status != domain.OrderStatusExpired {
		t.Fatalf("expected expired, got %s", m.Order.Status)
	}
	if len(m.Offers) != 2 {
		t.Fatalf("expected 2 expired offers, got %d", len(m.Offers))
	}
	for _, offer := range m.Offers {
		if offer.Status != domain.OfferStatusExpired {
			t.Fatalf("offer %s status: %s", offer.ID, offer.Status)
		}
	}
	if len(m.OrderHistory) != 1 || m.OrderHistory[0].Changer != domain.ChangerSystem {
		t.Fatalf("expiry history must be recorded by system: %+v", m.OrderHistory)
	}

	// Повторная экспирация запрещена.
	if _, err := domain.ExpireOrder(m.Order, m.Offers, now); !errors.Is(err, domain.ErrOrderNotOpen) {
		t.Fatalf("expected ErrOrderNotOpen, got %v", err)
	}
}

func TestCancelOrder(t *testing.T) {
	order, offers := makeOffered(t)
	now := order.CreatedAt.Add(time.Hour)

	m, err := domain.CancelOrder(order, offers, domain.ChangerClient, "changed my mind", now)
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	if m.Order.Status != domain.OrderStatusCancelled {
		t.Fatalf("expected cancelled, got %s", m.Order.Status)
	}
	// Каскад переводит pending-офферы в declined.
	for _, offer := range m.Offers {
		if offer.Status != domain.OfferStatusDeclined {
			t.Fatalf("offer %s status: %s", offer.ID, offer.Status)
		}
	}
	if m.OrderHistory[0].Changer != domain.ChangerClient || m.OrderHistory[0].Reason != "changed my mind" {
		t.Fatalf("unexpected history row: %+v", m.OrderHistory[0])
	}

	// Терминальный заказ отменить нельзя.
	if _, err := domain.CancelOrder(m.Order, nil, domain.ChangerSupport, "", now); !errors.Is(err, domain.ErrOrderNotOpen) {
		t.Fatalf("expected ErrOrderNotOpen, got %v", err)
	}
}

func TestCancelOrderAcceptedIsRejected(t *testing.T) {
	order, offers := makeOffered(t)
	now := order.CreatedAt.Add(time.Hour)

	accepted, err := domain.AcceptOffer(order, offers, offers[0].ID, offers[0].VendorID, now)
	if err != nil {
		t.Fatalf("accept failed: %v", err)
	}

	// Принятый заказ терминален: отмена не должна расцеплять его
	// с победившим оффером.
	_, err = domain.CancelOrder(accepted.Order, accepted.Offers, domain.ChangerSupport, "cleanup", now.Add(time.Minute))
	if !errors.Is(err, domain.ErrOrderNotOpen) {
		t.Fatalf("expected ErrOrderNotOpen, got %v", err)
	}
}

func TestDispatchAndMarkOffered(t *testing.T) {
	order := makeOrder()
	now := order.CreatedAt.Add(time.Minute)

	m, err := domain.Dispatch(order, now)
	if err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	if m.Order.Status != domain.OrderStatusDispatched {
		t.Fatalf("expected dispatched, got %s", m.Order.Status)
	}

	m2, err := domain.MarkOffered(m.Order, now.Add(time.Second))
	if err != nil {
		t.Fatalf("mark offered failed: %v", err)
	}
	if m2.Order.Status != domain.OrderStatusOffered {
		t.Fatalf("expected offered, got %s", m2.Order.Status)
	}

	// Из offered повторный dispatch запрещён.
	if _, err := domain.Dispatch(m2.Order, now); !errors.Is(err, domain.ErrOrderNotOpen) {
		t.Fatalf("expected ErrOrderNotOpen, got %v", err)
	}
}
