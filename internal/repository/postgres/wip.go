package postgres

import (
	"context"
	"time"

	"github.com/projectledger/projectledger/internal/domain/wip"
	"github.com/projectledger/projectledger/internal/postgres"
	"github.com/projectledger/projectledger/internal/types"
)

type wipRepository struct {
	client *postgres.Client
}

func NewWIPRepository(client *postgres.Client) wip.Repository {
	return &wipRepository{client: client}
}

const wipColumns = `id, project_id, period_date,
	material_cost, labor_cost, other_direct_cost, overhead_cost, total_cost,
	tenant_id, status, created_at, updated_at, created_by, updated_by`

func scanWIP(row rowScanner) (*wip.WorkInProgress, error) {
	w := &wip.WorkInProgress{}
	err := row.Scan(
		&w.ID, &w.ProjectID, &w.PeriodDate,
		&w.MaterialCost, &w.LaborCost, &w.OtherDirectCost, &w.OverheadCost, &w.TotalCost,
		&w.TenantID, &w.Status, &w.CreatedAt, &w.UpdatedAt, &w.CreatedBy, &w.UpdatedBy,
	)
	if err == nil {
		w.PeriodDate = w.PeriodDate.UTC()
	}
	return w, err
}

// Accumulate is a single INSERT ... ON CONFLICT statement so concurrent callers add to the same
// row instead of racing on a read-then-write.
func (r *wipRepository) Accumulate(ctx context.Context, projectID string, period time.Time, deltas wip.CostDeltas) (*wip.WorkInProgress, error) {
	seed := wip.New(projectID, period, deltas, types.GetDefaultBaseModel(ctx))

	row := r.client.Querier(ctx).QueryRowContext(ctx, `
		INSERT INTO work_in_progress (`+wipColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (tenant_id, project_id, period_date) DO UPDATE SET
			material_cost = work_in_progress.material_cost + EXCLUDED.material_cost,
			labor_cost = work_in_progress.labor_cost + EXCLUDED.labor_cost,
			other_direct_cost = work_in_progress.other_direct_cost + EXCLUDED.other_direct_cost,
			overhead_cost = work_in_progress.overhead_cost + EXCLUDED.overhead_cost,
			total_cost = work_in_progress.material_cost + EXCLUDED.material_cost
				+ work_in_progress.labor_cost + EXCLUDED.labor_cost
				+ work_in_progress.other_direct_cost + EXCLUDED.other_direct_cost
				+ work_in_progress.overhead_cost + EXCLUDED.overhead_cost,
			updated_at = EXCLUDED.updated_at,
			updated_by = EXCLUDED.updated_by
		RETURNING `+wipColumns,
		seed.ID, seed.ProjectID, seed.PeriodDate,
		seed.MaterialCost, seed.LaborCost, seed.OtherDirectCost, seed.OverheadCost, seed.TotalCost,
		seed.TenantID, seed.Status, seed.CreatedAt, seed.UpdatedAt, seed.CreatedBy, seed.UpdatedBy,
	)

	w, err := scanWIP(row)
	if err != nil {
		return nil, dbError(err, "Failed to accumulate work in progress")
	}
	return w, nil
}

func (r *wipRepository) Get(ctx context.Context, projectID string, period time.Time) (*wip.WorkInProgress, error) {
	row := r.client.Querier(ctx).QueryRowContext(ctx, `
		SELECT `+wipColumns+`
		FROM work_in_progress
		WHERE project_id = $1 AND period_date = $2 AND tenant_id = $3 AND status = $4
	`, projectID, period, types.GetTenantID(ctx), types.StatusPublished)

	w, err := scanWIP(row)
	if err != nil {
		return nil, notFoundOr(err, "Work in progress period", map[string]interface{}{
			"project_id":  projectID,
			"period_date": period.Format(time.DateOnly),
		})
	}
	return w, nil
}

func (r *wipRepository) ListByProject(ctx context.Context, projectID string) ([]*wip.WorkInProgress, error) {
	rows, err := r.client.Querier(ctx).QueryContext(ctx, `
		SELECT `+wipColumns+`
		FROM work_in_progress
		WHERE project_id = $1 AND tenant_id = $2 AND status = $3
		ORDER BY period_date
	`, projectID, types.GetTenantID(ctx), types.StatusPublished)
	if err != nil {
		return nil, dbError(err, "Failed to list work in progress")
	}
	defer rows.Close()

	out := make([]*wip.WorkInProgress, 0)
	for rows.Next() {
		w, err := scanWIP(rows)
		if err != nil {
			return nil, dbError(err, "Failed to scan work in progress")
		}
		out = append(out, w)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError(err, "Failed to list work in progress")
	}
	return out, nil
}
