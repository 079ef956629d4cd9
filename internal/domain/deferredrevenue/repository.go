package deferredrevenue

import "context"

// Repository defines the interface for deferred revenue persistence
type Repository interface {
	// Create inserts a new deferred revenue record
	Create(ctx context.Context, d *DeferredRevenue) error

	// Get fetches a record by its ID
	Get(ctx context.Context, id string) (*DeferredRevenue, error)

	// GetForUpdate fetches a record and locks its row until the surrounding transaction ends
	GetForUpdate(ctx context.Context, id string) (*DeferredRevenue, error)

	// GetActiveByInvoice returns the DEFERRED or PARTIALLY_RECOGNIZED record for an invoice,
	// failing with ErrNotFound when there is none
	GetActiveByInvoice(ctx context.Context, invoiceID string) (*DeferredRevenue, error)

	// ListByInvoice returns every record ever opened for an invoice, oldest first
	ListByInvoice(ctx context.Context, invoiceID string) ([]*DeferredRevenue, error)

	// Update persists the recognition fields of an existing record
	Update(ctx context.Context, d *DeferredRevenue) error
}
