package service

import (
	"context"
	"time"

	"github.com/projectledger/projectledger/internal/api/dto"
	"github.com/projectledger/projectledger/internal/domain/ledger"
	"github.com/projectledger/projectledger/internal/domain/wip"
	"github.com/projectledger/projectledger/internal/interfaces"
	"github.com/projectledger/projectledger/internal/types"
	"github.com/samber/lo"
)

type wipService struct {
	ServiceParams
}

// NewWIPService creates the monthly work-in-progress cost accumulator.
func NewWIPService(params ServiceParams) interfaces.WIPService {
	return &wipService{
		ServiceParams: params,
	}
}

// AccumulateCosts adds cost deltas to the project's period and capitalizes them into WIP:
// Dr work in progress for the total, Cr one accrual account per non-zero bucket.
func (s *wipService) AccumulateCosts(ctx context.Context, req dto.AccumulateCostsRequest) (*dto.WorkInProgressResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	deltas := req.ToCostDeltas()
	period := types.NormalizeToPeriod(req.PeriodDate)

	p, err := s.ProjectRepo.Get(ctx, req.ProjectID)
	if err != nil {
		return nil, err
	}

	currency := p.Currency
	if currency == "" {
		currency = s.Config.Accounting.Currency
	}

	var result *wip.WorkInProgress
	err = s.DB.WithTx(ctx, func(txCtx context.Context) error {
		lockKey := types.GenerateLockKey(txCtx, types.LockScopeWIPPeriod, map[string]interface{}{
			"project_id": p.ID,
			"period":     period.Format("2006-01"),
		})
		if err := s.DB.LockKey(txCtx, types.LockRequest{Key: lockKey}); err != nil {
			return err
		}

		w, err := s.WIPRepo.Accumulate(txCtx, p.ID, period, deltas)
		if err != nil {
			return err
		}

		entry := s.buildAccumulationEntry(p.ID, period, currency, w, deltas)
		if _, err := s.Ledger.Post(txCtx, entry); err != nil {
			return err
		}

		result = w
		return nil
	})
	if err != nil {
		s.Logger.WithContext(ctx).Errorw("failed to accumulate WIP costs",
			"project_id", req.ProjectID,
			"period", period.Format("2006-01"),
			"error", err)
		return nil, err
	}

	s.Logger.WithContext(ctx).Infow("accumulated WIP costs",
		"project_id", p.ID,
		"period", period.Format("2006-01"),
		"delta_total", deltas.Total().String(),
		"total_cost", result.TotalCost.String())

	return &dto.WorkInProgressResponse{WorkInProgress: result}, nil
}

func (s *wipService) buildAccumulationEntry(projectID string, period time.Time, currency string, w *wip.WorkInProgress, deltas wip.CostDeltas) *ledger.Entry {
	accounts := s.Accounts()
	tags := map[string]string{"project_id": projectID, "period": period.Format("2006-01")}

	return ledger.NewEntry(period, currency, ledger.ReferenceTypeWIPAccumulate, w.ID,
		"Project costs capitalized into work in progress for "+period.Format("January 2006")).
		Debit(accounts.WorkInProgress, deltas.Total(), tags).
		Credit(accounts.MaterialPayable, deltas.Material, tags).
		Credit(accounts.AccruedLabor, deltas.Labor, tags).
		Credit(accounts.AccruedExpenses, deltas.OtherDirect, tags).
		Credit(accounts.AppliedOverhead, deltas.Overhead, tags).
		WithIdempotencyKey(w.TotalCost)
}

func (s *wipService) GetPeriod(ctx context.Context, projectID string, period time.Time) (*dto.WorkInProgressResponse, error) {
	w, err := s.WIPRepo.Get(ctx, projectID, types.NormalizeToPeriod(period))
	if err != nil {
		return nil, err
	}
	return &dto.WorkInProgressResponse{WorkInProgress: w}, nil
}

func (s *wipService) ListProjectPeriods(ctx context.Context, projectID string) ([]*dto.WorkInProgressResponse, error) {
	if _, err := s.ProjectRepo.Get(ctx, projectID); err != nil {
		return nil, err
	}

	periods, err := s.WIPRepo.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	return lo.Map(periods, func(w *wip.WorkInProgress, _ int) *dto.WorkInProgressResponse {
		return &dto.WorkInProgressResponse{WorkInProgress: w}
	}), nil
}
