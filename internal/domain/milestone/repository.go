package milestone

import "context"

// Repository defines the interface for milestone persistence
type Repository interface {
	// Create inserts a new milestone
	Create(ctx context.Context, m *Milestone) error

	// Get fetches a milestone by its ID
	Get(ctx context.Context, id string) (*Milestone, error)

	// GetForUpdate fetches a milestone and locks its row until the surrounding transaction ends
	GetForUpdate(ctx context.Context, id string) (*Milestone, error)

	// Update persists the mutable fields of an existing milestone
	Update(ctx context.Context, m *Milestone) error

	// ListByProject returns the project's milestones ordered by sequence number
	ListByProject(ctx context.Context, projectID string) ([]*Milestone, error)
}
