package invoice_test

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/kislikjeka/handygo/internal/booking"
	"github.com/kislikjeka/handygo/internal/invoice"
	"github.com/kislikjeka/handygo/pkg/money"
)

// memStore is an in-memory invoice Repository, BookingStore and Transactor.
// A failed transaction restores the snapshot taken when it began.
type memStore struct {
	mu       sync.Mutex
	invoices map[uuid.UUID]*invoice.Invoice
	bookings map[uuid.UUID]*invoice.BookingFare
	hasInv   map[uuid.UUID]bool
	legacy   map[uuid.UUID][]invoice.LegacyMaterial
	// locks counts booking row locks taken
	locks int
}

func newMemStore() *memStore {
	return &memStore{
		invoices: make(map[uuid.UUID]*invoice.Invoice),
		bookings: make(map[uuid.UUID]*invoice.BookingFare),
		hasInv:   make(map[uuid.UUID]bool),
		legacy:   make(map[uuid.UUID][]invoice.LegacyMaterial),
	}
}

func (s *memStore) addBooking(handymanID uuid.UUID, baseFare money.Amount, status booking.Status) *invoice.BookingFare {
	s.mu.Lock()
	defer s.mu.Unlock()
	bf := &invoice.BookingFare{
		BookingID:  uuid.New(),
		UserID:     uuid.New(),
		HandymanID: handymanID,
		Status:     status,
		BaseFare:   baseFare,
		TotalFare:  baseFare,
	}
	s.bookings[bf.BookingID] = bf
	return bf
}

func (s *memStore) booking(id uuid.UUID) invoice.BookingFare {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.bookings[id]
}

func copyInvoice(inv *invoice.Invoice) *invoice.Invoice {
	out := *inv
	out.Items = append([]invoice.Item{}, inv.Items...)
	return &out
}

type txKey struct{}

func (s *memStore) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	s.mu.Lock()
	invoices := make(map[uuid.UUID]*invoice.Invoice, len(s.invoices))
	for id, inv := range s.invoices {
		invoices[id] = copyInvoice(inv)
	}
	bookings := make(map[uuid.UUID]*invoice.BookingFare, len(s.bookings))
	for id, bf := range s.bookings {
		c := *bf
		bookings[id] = &c
	}
	legacy := make(map[uuid.UUID][]invoice.LegacyMaterial, len(s.legacy))
	for id, m := range s.legacy {
		legacy[id] = m
	}
	s.mu.Unlock()

	err := fn(context.WithValue(ctx, txKey{}, true))
	if err != nil {
		s.mu.Lock()
		s.invoices, s.bookings, s.legacy = invoices, bookings, legacy
		s.mu.Unlock()
	}
	return err
}

// Repository

func (s *memStore) Get(_ context.Context, bookingID uuid.UUID) (*invoice.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.invoices[bookingID]
	if !ok {
		return nil, invoice.ErrInvoiceNotFound
	}
	return copyInvoice(inv), nil
}

func (s *memStore) GetOrCreateForUpdate(_ context.Context, seed *invoice.Invoice) (*invoice.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.invoices[seed.BookingID]; !ok {
		s.invoices[seed.BookingID] = copyInvoice(seed)
	}
	return copyInvoice(s.invoices[seed.BookingID]), nil
}

func (s *memStore) Update(_ context.Context, inv *invoice.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := s.invoices[inv.BookingID]
	stored.BaseFare, stored.Fare, stored.ManualFare, stored.UpdatedAt = inv.BaseFare, inv.Fare, inv.ManualFare, inv.UpdatedAt
	return nil
}

func (s *memStore) AddItem(_ context.Context, item *invoice.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv := s.invoices[item.BookingID]
	inv.Items = append(inv.Items, *item)
	return nil
}

func (s *memStore) UpdateItem(_ context.Context, item *invoice.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv := s.invoices[item.BookingID]
	for i := range inv.Items {
		if inv.Items[i].ID == item.ID {
			inv.Items[i] = *item
			return nil
		}
	}
	return invoice.ErrItemNotFound
}

func (s *memStore) DeleteItem(_ context.Context, bookingID, itemID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv := s.invoices[bookingID]
	for i := range inv.Items {
		if inv.Items[i].ID == itemID {
			inv.Items = append(inv.Items[:i], inv.Items[i+1:]...)
			return nil
		}
	}
	return invoice.ErrItemNotFound
}

func (s *memStore) ReplaceItems(_ context.Context, bookingID uuid.UUID, items []invoice.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invoices[bookingID].Items = append([]invoice.Item{}, items...)
	return nil
}

// BookingStore

func (s *memStore) GetBookingFare(_ context.Context, bookingID uuid.UUID) (*invoice.BookingFare, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	bf, ok := s.bookings[bookingID]
	if !ok {
		return nil, booking.ErrBookingNotFound
	}
	c := *bf
	return &c, nil
}

func (s *memStore) LockBookingFare(ctx context.Context, bookingID uuid.UUID) (*invoice.BookingFare, error) {
	s.mu.Lock()
	s.locks++
	s.mu.Unlock()
	return s.GetBookingFare(ctx, bookingID)
}

func (s *memStore) ApplyFare(_ context.Context, u invoice.FareUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	bf := s.bookings[u.BookingID]
	bf.BaseFare, bf.TotalFare, bf.ManualFare = u.BaseFare, u.TotalFare, u.Manual
	s.hasInv[u.BookingID] = true
	return nil
}

func (s *memStore) ListLegacyMaterials(_ context.Context) ([]invoice.LegacyBooking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]invoice.LegacyBooking, 0, len(s.legacy))
	for id, m := range s.legacy {
		out = append(out, invoice.LegacyBooking{BookingID: id, Materials: m})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BookingID.String() < out[j].BookingID.String() })
	return out, nil
}

func (s *memStore) ClearLegacyMaterials(_ context.Context, bookingID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.legacy, bookingID)
	return nil
}

var (
	_ invoice.Repository   = (*memStore)(nil)
	_ invoice.BookingStore = (*memStore)(nil)
	_ invoice.Transactor   = (*memStore)(nil)
)
