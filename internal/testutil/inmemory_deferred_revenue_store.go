package testutil

import (
	"context"

	"github.com/projectledger/projectledger/internal/domain/deferredrevenue"
	ierr "github.com/projectledger/projectledger/internal/errors"
	"github.com/projectledger/projectledger/internal/types"
)

// InMemoryDeferredRevenueStore implements deferredrevenue.Repository
type InMemoryDeferredRevenueStore struct {
	*InMemoryStore[*deferredrevenue.DeferredRevenue]
}

func NewInMemoryDeferredRevenueStore() *InMemoryDeferredRevenueStore {
	return &InMemoryDeferredRevenueStore{
		InMemoryStore: NewInMemoryStore[*deferredrevenue.DeferredRevenue](),
	}
}

func (s *InMemoryDeferredRevenueStore) activeByInvoice(ctx context.Context, invoiceID string) []*deferredrevenue.DeferredRevenue {
	return s.InMemoryStore.List(ctx, func(d *deferredrevenue.DeferredRevenue) bool {
		return d.InvoiceID == invoiceID &&
			d.BaseModel.Status == types.StatusPublished &&
			d.RevenueStatus.IsActive()
	}, nil)
}

// Create enforces the one-active-record-per-invoice index
func (s *InMemoryDeferredRevenueStore) Create(ctx context.Context, d *deferredrevenue.DeferredRevenue) error {
	if d == nil {
		return ierr.NewError("deferred revenue cannot be nil").
			WithHint("Deferred revenue data is required").
			Mark(ierr.ErrValidation)
	}

	if d.RevenueStatus.IsActive() && len(s.activeByInvoice(ctx, d.InvoiceID)) > 0 {
		return ierr.NewErrorf("invoice %s already has active deferred revenue", d.InvoiceID).
			WithHint("Recognize the existing deferred revenue before opening another").
			WithReportableDetails(map[string]interface{}{"invoice_id": d.InvoiceID}).
			Mark(ierr.ErrAlreadyExists)
	}

	return s.InMemoryStore.Create(ctx, d.ID, d.Copy())
}

func (s *InMemoryDeferredRevenueStore) Get(ctx context.Context, id string) (*deferredrevenue.DeferredRevenue, error) {
	d, err := s.InMemoryStore.Get(ctx, id)
	if err != nil || d.BaseModel.Status != types.StatusPublished {
		return nil, ierr.NewErrorf("deferred revenue %s not found", id).
			WithHintf("Deferred revenue %s was not found", id).
			WithReportableDetails(map[string]interface{}{"deferred_revenue_id": id}).
			Mark(ierr.ErrNotFound)
	}
	return d.Copy(), nil
}

func (s *InMemoryDeferredRevenueStore) GetForUpdate(ctx context.Context, id string) (*deferredrevenue.DeferredRevenue, error) {
	return s.Get(ctx, id)
}

func (s *InMemoryDeferredRevenueStore) GetActiveByInvoice(ctx context.Context, invoiceID string) (*deferredrevenue.DeferredRevenue, error) {
	active := s.activeByInvoice(ctx, invoiceID)
	if len(active) == 0 {
		return nil, ierr.NewErrorf("no active deferred revenue for invoice %s", invoiceID).
			WithHint("The invoice has no unrecognized deferred revenue").
			WithReportableDetails(map[string]interface{}{"invoice_id": invoiceID}).
			Mark(ierr.ErrNotFound)
	}
	return active[0].Copy(), nil
}

func (s *InMemoryDeferredRevenueStore) ListByInvoice(ctx context.Context, invoiceID string) ([]*deferredrevenue.DeferredRevenue, error) {
	items := s.InMemoryStore.List(ctx, func(d *deferredrevenue.DeferredRevenue) bool {
		return d.InvoiceID == invoiceID && d.BaseModel.Status == types.StatusPublished
	}, func(a, b *deferredrevenue.DeferredRevenue) bool {
		if a.CreatedAt.Equal(b.CreatedAt) {
			return a.ID < b.ID
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})

	result := make([]*deferredrevenue.DeferredRevenue, 0, len(items))
	for _, d := range items {
		result = append(result, d.Copy())
	}
	return result, nil
}

func (s *InMemoryDeferredRevenueStore) Update(ctx context.Context, d *deferredrevenue.DeferredRevenue) error {
	if d == nil {
		return ierr.NewError("deferred revenue cannot be nil").
			WithHint("Deferred revenue data is required").
			Mark(ierr.ErrValidation)
	}
	return s.InMemoryStore.Update(ctx, d.ID, d.Copy())
}
