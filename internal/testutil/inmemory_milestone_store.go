package testutil

import (
	"context"

	"github.com/projectledger/projectledger/internal/domain/milestone"
	ierr "github.com/projectledger/projectledger/internal/errors"
	"github.com/projectledger/projectledger/internal/types"
)

// InMemoryMilestoneStore implements milestone.Repository
type InMemoryMilestoneStore struct {
	*InMemoryStore[*milestone.Milestone]
}

func NewInMemoryMilestoneStore() *InMemoryMilestoneStore {
	return &InMemoryMilestoneStore{
		InMemoryStore: NewInMemoryStore[*milestone.Milestone](),
	}
}

// Create enforces the per-project unique sequence number the table constraint provides
func (s *InMemoryMilestoneStore) Create(ctx context.Context, m *milestone.Milestone) error {
	if m == nil {
		return ierr.NewError("milestone cannot be nil").
			WithHint("Milestone data is required").
			Mark(ierr.ErrValidation)
	}

	clash := s.InMemoryStore.List(ctx, func(existing *milestone.Milestone) bool {
		return existing.ProjectID == m.ProjectID && existing.SequenceNumber == m.SequenceNumber
	}, nil)
	if len(clash) > 0 {
		return ierr.NewErrorf("milestone sequence %d already exists", m.SequenceNumber).
			WithHint("Sequence numbers must be unique within a project").
			WithReportableDetails(map[string]interface{}{
				"project_id":      m.ProjectID,
				"sequence_number": m.SequenceNumber,
			}).
			Mark(ierr.ErrAlreadyExists)
	}

	return s.InMemoryStore.Create(ctx, m.ID, m.Copy())
}

func (s *InMemoryMilestoneStore) Get(ctx context.Context, id string) (*milestone.Milestone, error) {
	m, err := s.InMemoryStore.Get(ctx, id)
	if err != nil || m.BaseModel.Status != types.StatusPublished {
		return nil, ierr.NewErrorf("milestone %s not found", id).
			WithHintf("Milestone %s was not found", id).
			WithReportableDetails(map[string]interface{}{"milestone_id": id}).
			Mark(ierr.ErrNotFound)
	}
	return m.Copy(), nil
}

// GetForUpdate relies on the mock client serializing transactions in place of row locks
func (s *InMemoryMilestoneStore) GetForUpdate(ctx context.Context, id string) (*milestone.Milestone, error) {
	return s.Get(ctx, id)
}

func (s *InMemoryMilestoneStore) Update(ctx context.Context, m *milestone.Milestone) error {
	if m == nil {
		return ierr.NewError("milestone cannot be nil").
			WithHint("Milestone data is required").
			Mark(ierr.ErrValidation)
	}
	return s.InMemoryStore.Update(ctx, m.ID, m.Copy())
}

func (s *InMemoryMilestoneStore) ListByProject(ctx context.Context, projectID string) ([]*milestone.Milestone, error) {
	items := s.InMemoryStore.List(ctx, func(m *milestone.Milestone) bool {
		return m.ProjectID == projectID && m.BaseModel.Status == types.StatusPublished
	}, func(a, b *milestone.Milestone) bool {
		return a.SequenceNumber < b.SequenceNumber
	})

	result := make([]*milestone.Milestone, 0, len(items))
	for _, m := range items {
		result = append(result, m.Copy())
	}
	return result, nil
}
