package postgres

import (
	"context"
	"time"

	"github.com/projectledger/projectledger/internal/domain/milestone"
	"github.com/projectledger/projectledger/internal/postgres"
	"github.com/projectledger/projectledger/internal/types"
)

type milestoneRepository struct {
	client *postgres.Client
}

func NewMilestoneRepository(client *postgres.Client) milestone.Repository {
	return &milestoneRepository{client: client}
}

const milestoneColumns = `id, project_id, sequence_number, name, planned_start, planned_end,
	actual_start, actual_end, delay_days, delay_reason,
	planned_revenue, recognized_revenue, remaining_revenue, estimated_cost, actual_cost,
	completion_percentage, currency, predecessor_id, milestone_status,
	accepted_by, accepted_at, cancelled_at, cancellation_reason,
	last_recognized_at, last_journal_entry_id,
	tenant_id, status, created_at, updated_at, created_by, updated_by`

func scanMilestone(row rowScanner) (*milestone.Milestone, error) {
	m := &milestone.Milestone{}
	err := row.Scan(
		&m.ID, &m.ProjectID, &m.SequenceNumber, &m.Name, &m.PlannedStart, &m.PlannedEnd,
		&m.ActualStart, &m.ActualEnd, &m.DelayDays, &m.DelayReason,
		&m.PlannedRevenue, &m.RecognizedRevenue, &m.RemainingRevenue, &m.EstimatedCost, &m.ActualCost,
		&m.CompletionPercentage, &m.Currency, &m.PredecessorID, &m.Status,
		&m.AcceptedBy, &m.AcceptedAt, &m.CancelledAt, &m.CancellationReason,
		&m.LastRecognizedAt, &m.LastJournalEntryID,
		&m.TenantID, &m.BaseModel.Status, &m.CreatedAt, &m.UpdatedAt, &m.CreatedBy, &m.UpdatedBy,
	)
	return m, err
}

func (r *milestoneRepository) Create(ctx context.Context, m *milestone.Milestone) error {
	_, err := r.client.Querier(ctx).ExecContext(ctx, `
		INSERT INTO project_milestones (`+milestoneColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
			$17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30, $31)
	`,
		m.ID, m.ProjectID, m.SequenceNumber, m.Name, m.PlannedStart, m.PlannedEnd,
		m.ActualStart, m.ActualEnd, m.DelayDays, m.DelayReason,
		m.PlannedRevenue, m.RecognizedRevenue, m.RemainingRevenue, m.EstimatedCost, m.ActualCost,
		m.CompletionPercentage, m.Currency, m.PredecessorID, m.Status,
		m.AcceptedBy, m.AcceptedAt, m.CancelledAt, m.CancellationReason,
		m.LastRecognizedAt, m.LastJournalEntryID,
		m.TenantID, m.BaseModel.Status, m.CreatedAt, m.UpdatedAt, m.CreatedBy, m.UpdatedBy,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return alreadyExists(err, "Milestone with this sequence number already exists for the project",
				map[string]interface{}{"project_id": m.ProjectID, "sequence_number": m.SequenceNumber})
		}
		return dbError(err, "Failed to create milestone")
	}
	return nil
}

func (r *milestoneRepository) Get(ctx context.Context, id string) (*milestone.Milestone, error) {
	return r.get(ctx, id, false)
}

func (r *milestoneRepository) GetForUpdate(ctx context.Context, id string) (*milestone.Milestone, error) {
	return r.get(ctx, id, true)
}

func (r *milestoneRepository) get(ctx context.Context, id string, forUpdate bool) (*milestone.Milestone, error) {
	query := `
		SELECT ` + milestoneColumns + `
		FROM project_milestones
		WHERE id = $1 AND tenant_id = $2 AND status = $3`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	row := r.client.Querier(ctx).QueryRowContext(ctx, query, id, types.GetTenantID(ctx), types.StatusPublished)
	m, err := scanMilestone(row)
	if err != nil {
		return nil, notFoundOr(err, "Milestone", map[string]interface{}{"milestone_id": id})
	}
	return m, nil
}

func (r *milestoneRepository) Update(ctx context.Context, m *milestone.Milestone) error {
	m.UpdatedAt = time.Now().UTC()
	m.UpdatedBy = types.GetUserID(ctx)

	res, err := r.client.Querier(ctx).ExecContext(ctx, `
		UPDATE project_milestones SET
			actual_start = $3, actual_end = $4, delay_days = $5, delay_reason = $6,
			recognized_revenue = $7, remaining_revenue = $8, actual_cost = $9,
			completion_percentage = $10, milestone_status = $11,
			accepted_by = $12, accepted_at = $13, cancelled_at = $14, cancellation_reason = $15,
			last_recognized_at = $16, last_journal_entry_id = $17,
			updated_at = $18, updated_by = $19
		WHERE id = $1 AND tenant_id = $2
	`,
		m.ID, m.TenantID, m.ActualStart, m.ActualEnd, m.DelayDays, m.DelayReason,
		m.RecognizedRevenue, m.RemainingRevenue, m.ActualCost,
		m.CompletionPercentage, m.Status,
		m.AcceptedBy, m.AcceptedAt, m.CancelledAt, m.CancellationReason,
		m.LastRecognizedAt, m.LastJournalEntryID,
		m.UpdatedAt, m.UpdatedBy,
	)
	if err != nil {
		return dbError(err, "Failed to update milestone")
	}
	return checkAffected(res, "Milestone", map[string]interface{}{"milestone_id": m.ID})
}

func (r *milestoneRepository) ListByProject(ctx context.Context, projectID string) ([]*milestone.Milestone, error) {
	rows, err := r.client.Querier(ctx).QueryContext(ctx, `
		SELECT `+milestoneColumns+`
		FROM project_milestones
		WHERE project_id = $1 AND tenant_id = $2 AND status = $3
		ORDER BY sequence_number
	`, projectID, types.GetTenantID(ctx), types.StatusPublished)
	if err != nil {
		return nil, dbError(err, "Failed to list milestones")
	}
	defer rows.Close()

	out := make([]*milestone.Milestone, 0)
	for rows.Next() {
		m, err := scanMilestone(rows)
		if err != nil {
			return nil, dbError(err, "Failed to scan milestone")
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError(err, "Failed to list milestones")
	}
	return out, nil
}
