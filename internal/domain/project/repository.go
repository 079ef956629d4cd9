package project

import "context"

// Repository defines the interface for project lookups
type Repository interface {
	// Get fetches a project by its ID, failing with ErrNotFound when absent
	Get(ctx context.Context, id string) (*Project, error)

	// ListSchedulable returns projects whose milestones are still being scheduled
	ListSchedulable(ctx context.Context) ([]*Project, error)
}
