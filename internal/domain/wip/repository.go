package wip

import (
	"context"
	"time"
)

// Repository defines the interface for WIP period persistence
type Repository interface {
	// Accumulate atomically creates the (project, period) record seeded with deltas, or adds the
	// deltas to the existing one, and returns the resulting record. period must be normalized.
	Accumulate(ctx context.Context, projectID string, period time.Time, deltas CostDeltas) (*WorkInProgress, error)

	// Get fetches the record for a normalized period
	Get(ctx context.Context, projectID string, period time.Time) (*WorkInProgress, error)

	// ListByProject returns every period record of a project, oldest period first
	ListByProject(ctx context.Context, projectID string) ([]*WorkInProgress, error)
}
