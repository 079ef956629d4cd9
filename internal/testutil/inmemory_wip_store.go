package testutil

import (
	"context"
	"fmt"
	"time"

	"github.com/projectledger/projectledger/internal/domain/wip"
	ierr "github.com/projectledger/projectledger/internal/errors"
	"github.com/projectledger/projectledger/internal/types"
)

// InMemoryWIPStore implements wip.Repository. Records are keyed by project and period so
// Accumulate behaves like the upsert on the unique (project, period) index.
type InMemoryWIPStore struct {
	*InMemoryStore[*wip.WorkInProgress]
}

func NewInMemoryWIPStore() *InMemoryWIPStore {
	return &InMemoryWIPStore{
		InMemoryStore: NewInMemoryStore[*wip.WorkInProgress](),
	}
}

func wipKey(projectID string, period time.Time) string {
	return fmt.Sprintf("%s|%s", projectID, types.NormalizeToPeriod(period).Format("2006-01"))
}

func (s *InMemoryWIPStore) Accumulate(ctx context.Context, projectID string, period time.Time, deltas wip.CostDeltas) (*wip.WorkInProgress, error) {
	key := wipKey(projectID, period)

	existing, err := s.InMemoryStore.Get(ctx, key)
	if err != nil {
		if !ierr.IsNotFound(err) {
			return nil, err
		}
		created := wip.New(projectID, period, deltas, types.GetDefaultBaseModel(ctx))
		if err := s.InMemoryStore.Create(ctx, key, created.Copy()); err != nil {
			return nil, err
		}
		return created, nil
	}

	updated := existing.Copy()
	updated.Add(deltas)
	updated.UpdatedAt = time.Now().UTC()
	updated.UpdatedBy = types.GetUserID(ctx)
	if err := s.InMemoryStore.Update(ctx, key, updated.Copy()); err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *InMemoryWIPStore) Get(ctx context.Context, projectID string, period time.Time) (*wip.WorkInProgress, error) {
	w, err := s.InMemoryStore.Get(ctx, wipKey(projectID, period))
	if err != nil {
		return nil, ierr.NewErrorf("no WIP recorded for project %s in %s", projectID, types.NormalizeToPeriod(period).Format("2006-01")).
			WithHint("No costs have been accumulated for this period").
			WithReportableDetails(map[string]interface{}{
				"project_id": projectID,
				"period":     types.NormalizeToPeriod(period),
			}).
			Mark(ierr.ErrNotFound)
	}
	return w.Copy(), nil
}

func (s *InMemoryWIPStore) ListByProject(ctx context.Context, projectID string) ([]*wip.WorkInProgress, error) {
	items := s.InMemoryStore.List(ctx, func(w *wip.WorkInProgress) bool {
		return w.ProjectID == projectID
	}, func(a, b *wip.WorkInProgress) bool {
		return a.PeriodDate.Before(b.PeriodDate)
	})

	result := make([]*wip.WorkInProgress, 0, len(items))
	for _, w := range items {
		result = append(result, w.Copy())
	}
	return result, nil
}
