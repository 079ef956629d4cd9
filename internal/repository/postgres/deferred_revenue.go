package postgres

import (
	"context"
	"time"

	"github.com/projectledger/projectledger/internal/domain/deferredrevenue"
	"github.com/projectledger/projectledger/internal/postgres"
	"github.com/projectledger/projectledger/internal/types"
)

type deferredRevenueRepository struct {
	client *postgres.Client
}

func NewDeferredRevenueRepository(client *postgres.Client) deferredrevenue.Repository {
	return &deferredRevenueRepository{client: client}
}

const deferredRevenueColumns = `id, invoice_id, payment_date, recognition_date, obligation_description,
	currency, total_amount, recognized_amount, remaining_amount, completion_percentage,
	revenue_status, opening_entry_id, last_recognized_at, last_journal_entry_id,
	tenant_id, status, created_at, updated_at, created_by, updated_by`

func scanDeferredRevenue(row rowScanner) (*deferredrevenue.DeferredRevenue, error) {
	d := &deferredrevenue.DeferredRevenue{}
	err := row.Scan(
		&d.ID, &d.InvoiceID, &d.PaymentDate, &d.RecognitionDate, &d.ObligationDescription,
		&d.Currency, &d.TotalAmount, &d.RecognizedAmount, &d.RemainingAmount, &d.CompletionPercentage,
		&d.RevenueStatus, &d.OpeningEntryID, &d.LastRecognizedAt, &d.LastJournalEntryID,
		&d.TenantID, &d.Status, &d.CreatedAt, &d.UpdatedAt, &d.CreatedBy, &d.UpdatedBy,
	)
	return d, err
}

// Create relies on the partial unique index over (tenant_id, invoice_id) for active records.
func (r *deferredRevenueRepository) Create(ctx context.Context, d *deferredrevenue.DeferredRevenue) error {
	_, err := r.client.Querier(ctx).ExecContext(ctx, `
		INSERT INTO deferred_revenues (`+deferredRevenueColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
	`,
		d.ID, d.InvoiceID, d.PaymentDate, d.RecognitionDate, d.ObligationDescription,
		d.Currency, d.TotalAmount, d.RecognizedAmount, d.RemainingAmount, d.CompletionPercentage,
		d.RevenueStatus, d.OpeningEntryID, d.LastRecognizedAt, d.LastJournalEntryID,
		d.TenantID, d.Status, d.CreatedAt, d.UpdatedAt, d.CreatedBy, d.UpdatedBy,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return alreadyExists(err, "An active deferred revenue record already exists for this invoice",
				map[string]interface{}{"invoice_id": d.InvoiceID})
		}
		return dbError(err, "Failed to create deferred revenue")
	}
	return nil
}

func (r *deferredRevenueRepository) Get(ctx context.Context, id string) (*deferredrevenue.DeferredRevenue, error) {
	return r.get(ctx, id, false)
}

func (r *deferredRevenueRepository) GetForUpdate(ctx context.Context, id string) (*deferredrevenue.DeferredRevenue, error) {
	return r.get(ctx, id, true)
}

func (r *deferredRevenueRepository) get(ctx context.Context, id string, forUpdate bool) (*deferredrevenue.DeferredRevenue, error) {
	query := `
		SELECT ` + deferredRevenueColumns + `
		FROM deferred_revenues
		WHERE id = $1 AND tenant_id = $2 AND status = $3`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	row := r.client.Querier(ctx).QueryRowContext(ctx, query, id, types.GetTenantID(ctx), types.StatusPublished)
	d, err := scanDeferredRevenue(row)
	if err != nil {
		return nil, notFoundOr(err, "Deferred revenue", map[string]interface{}{"deferred_revenue_id": id})
	}
	return d, nil
}

func (r *deferredRevenueRepository) GetActiveByInvoice(ctx context.Context, invoiceID string) (*deferredrevenue.DeferredRevenue, error) {
	row := r.client.Querier(ctx).QueryRowContext(ctx, `
		SELECT `+deferredRevenueColumns+`
		FROM deferred_revenues
		WHERE invoice_id = $1 AND tenant_id = $2 AND status = $3 AND revenue_status IN ($4, $5)
	`, invoiceID, types.GetTenantID(ctx), types.StatusPublished,
		types.DeferredRevenueStatusDeferred, types.DeferredRevenueStatusPartiallyRecognized)

	d, err := scanDeferredRevenue(row)
	if err != nil {
		return nil, notFoundOr(err, "Active deferred revenue", map[string]interface{}{"invoice_id": invoiceID})
	}
	return d, nil
}

func (r *deferredRevenueRepository) ListByInvoice(ctx context.Context, invoiceID string) ([]*deferredrevenue.DeferredRevenue, error) {
	rows, err := r.client.Querier(ctx).QueryContext(ctx, `
		SELECT `+deferredRevenueColumns+`
		FROM deferred_revenues
		WHERE invoice_id = $1 AND tenant_id = $2 AND status = $3
		ORDER BY created_at, id
	`, invoiceID, types.GetTenantID(ctx), types.StatusPublished)
	if err != nil {
		return nil, dbError(err, "Failed to list deferred revenues")
	}
	defer rows.Close()

	out := make([]*deferredrevenue.DeferredRevenue, 0)
	for rows.Next() {
		d, err := scanDeferredRevenue(rows)
		if err != nil {
			return nil, dbError(err, "Failed to scan deferred revenue")
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError(err, "Failed to list deferred revenues")
	}
	return out, nil
}

func (r *deferredRevenueRepository) Update(ctx context.Context, d *deferredrevenue.DeferredRevenue) error {
	d.UpdatedAt = time.Now().UTC()
	d.UpdatedBy = types.GetUserID(ctx)

	res, err := r.client.Querier(ctx).ExecContext(ctx, `
		UPDATE deferred_revenues SET
			recognized_amount = $3, remaining_amount = $4, completion_percentage = $5,
			revenue_status = $6, last_recognized_at = $7, last_journal_entry_id = $8,
			updated_at = $9, updated_by = $10
		WHERE id = $1 AND tenant_id = $2
	`,
		d.ID, d.TenantID, d.RecognizedAmount, d.RemainingAmount, d.CompletionPercentage,
		d.RevenueStatus, d.LastRecognizedAt, d.LastJournalEntryID,
		d.UpdatedAt, d.UpdatedBy,
	)
	if err != nil {
		return dbError(err, "Failed to update deferred revenue")
	}
	return checkAffected(res, "Deferred revenue", map[string]interface{}{"deferred_revenue_id": d.ID})
}
