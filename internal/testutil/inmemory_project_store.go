package testutil

import (
	"context"

	"github.com/projectledger/projectledger/internal/domain/project"
	ierr "github.com/projectledger/projectledger/internal/errors"
	"github.com/projectledger/projectledger/internal/types"
)

// InMemoryProjectStore implements project.Repository
type InMemoryProjectStore struct {
	*InMemoryStore[*project.Project]
}

func NewInMemoryProjectStore() *InMemoryProjectStore {
	return &InMemoryProjectStore{
		InMemoryStore: NewInMemoryStore[*project.Project](),
	}
}

func copyProject(p *project.Project) *project.Project {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}

// Create seeds a project. Projects are owned elsewhere so only tests write them.
func (s *InMemoryProjectStore) Create(ctx context.Context, p *project.Project) error {
	if p == nil {
		return ierr.NewError("project cannot be nil").
			WithHint("Project data is required").
			Mark(ierr.ErrValidation)
	}
	return s.InMemoryStore.Create(ctx, p.ID, copyProject(p))
}

func (s *InMemoryProjectStore) Get(ctx context.Context, id string) (*project.Project, error) {
	p, err := s.InMemoryStore.Get(ctx, id)
	if err != nil || p.BaseModel.Status == types.StatusDeleted {
		return nil, ierr.NewErrorf("project %s not found", id).
			WithHintf("Project %s was not found", id).
			WithReportableDetails(map[string]interface{}{"project_id": id}).
			Mark(ierr.ErrNotFound)
	}
	return copyProject(p), nil
}

func (s *InMemoryProjectStore) ListSchedulable(ctx context.Context) ([]*project.Project, error) {
	items := s.InMemoryStore.List(ctx, func(p *project.Project) bool {
		return p.BaseModel.Status == types.StatusPublished && p.Status.IsSchedulable()
	}, func(a, b *project.Project) bool {
		return a.Code < b.Code
	})

	result := make([]*project.Project, 0, len(items))
	for _, p := range items {
		result = append(result, copyProject(p))
	}
	return result, nil
}
