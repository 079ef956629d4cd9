package postgres

import (
	"context"

	"github.com/projectledger/projectledger/internal/domain/project"
	"github.com/projectledger/projectledger/internal/postgres"
	"github.com/projectledger/projectledger/internal/types"
)

type projectRepository struct {
	client *postgres.Client
}

func NewProjectRepository(client *postgres.Client) project.Repository {
	return &projectRepository{client: client}
}

const projectColumns = `id, code, name, project_status, currency,
	tenant_id, status, created_at, updated_at, created_by, updated_by`

func scanProject(row rowScanner) (*project.Project, error) {
	p := &project.Project{}
	err := row.Scan(
		&p.ID, &p.Code, &p.Name, &p.Status, &p.Currency,
		&p.TenantID, &p.BaseModel.Status, &p.CreatedAt, &p.UpdatedAt, &p.CreatedBy, &p.UpdatedBy,
	)
	return p, err
}

func (r *projectRepository) Get(ctx context.Context, id string) (*project.Project, error) {
	row := r.client.Querier(ctx).QueryRowContext(ctx, `
		SELECT `+projectColumns+`
		FROM projects
		WHERE id = $1 AND tenant_id = $2 AND status = $3
	`, id, types.GetTenantID(ctx), types.StatusPublished)

	p, err := scanProject(row)
	if err != nil {
		return nil, notFoundOr(err, "Project", map[string]interface{}{"project_id": id})
	}
	return p, nil
}

func (r *projectRepository) ListSchedulable(ctx context.Context) ([]*project.Project, error) {
	rows, err := r.client.Querier(ctx).QueryContext(ctx, `
		SELECT `+projectColumns+`
		FROM projects
		WHERE tenant_id = $1 AND status = $2 AND project_status IN ($3, $4, $5)
		ORDER BY code
	`, types.GetTenantID(ctx), types.StatusPublished,
		types.ProjectStatusPlanning, types.ProjectStatusActive, types.ProjectStatusOnHold)
	if err != nil {
		return nil, dbError(err, "Failed to list projects")
	}
	defer rows.Close()

	var out []*project.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, dbError(err, "Failed to scan project")
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError(err, "Failed to list projects")
	}
	return out, nil
}
