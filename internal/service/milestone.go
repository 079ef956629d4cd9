package service

import (
	"context"

	"github.com/projectledger/projectledger/internal/api/dto"
	"github.com/projectledger/projectledger/internal/domain/ledger"
	"github.com/projectledger/projectledger/internal/domain/milestone"
	ierr "github.com/projectledger/projectledger/internal/errors"
	"github.com/projectledger/projectledger/internal/interfaces"
	"github.com/projectledger/projectledger/internal/types"
	"github.com/samber/lo"
)

type milestoneService struct {
	ServiceParams
	scheduleService interfaces.ScheduleService
}

// NewMilestoneService creates the percentage-of-completion revenue recognizer. Every mutation
// drops the project's cached schedule analysis.
func NewMilestoneService(params ServiceParams, scheduleService interfaces.ScheduleService) interfaces.MilestoneService {
	return &milestoneService{
		ServiceParams:   params,
		scheduleService: scheduleService,
	}
}

func (s *milestoneService) CreateMilestone(ctx context.Context, req dto.CreateMilestoneRequest) (*dto.MilestoneResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	p, err := s.ProjectRepo.Get(ctx, req.ProjectID)
	if err != nil {
		return nil, err
	}

	defaultCurrency := p.Currency
	if defaultCurrency == "" {
		defaultCurrency = s.Config.Accounting.Currency
	}

	m := req.ToMilestone(ctx, defaultCurrency)
	if err := m.Validate(); err != nil {
		return nil, err
	}

	err = s.DB.WithTx(ctx, func(txCtx context.Context) error {
		if m.PredecessorID != nil {
			pred, err := s.MilestoneRepo.Get(txCtx, *m.PredecessorID)
			if err != nil {
				if ierr.IsNotFound(err) {
					return ierr.NewErrorf("predecessor milestone %s not found", *m.PredecessorID).
						WithHint("Predecessor must be an existing milestone of the same project").
						WithReportableDetails(map[string]interface{}{"predecessor_id": *m.PredecessorID}).
						Mark(ierr.ErrValidation)
				}
				return err
			}
			if pred.ProjectID != m.ProjectID {
				return ierr.NewError("predecessor belongs to another project").
					WithHint("A milestone can only depend on a milestone of the same project").
					WithReportableDetails(map[string]interface{}{
						"project_id":             m.ProjectID,
						"predecessor_id":         pred.ID,
						"predecessor_project_id": pred.ProjectID,
					}).
					Mark(ierr.ErrValidation)
			}
		}

		return s.MilestoneRepo.Create(txCtx, m)
	})
	if err != nil {
		return nil, err
	}

	s.scheduleService.InvalidateProject(ctx, m.ProjectID)
	s.Logger.WithContext(ctx).Infow("created milestone",
		"milestone_id", m.ID,
		"project_id", m.ProjectID,
		"sequence_number", m.SequenceNumber,
		"planned_revenue", m.PlannedRevenue.String())

	return &dto.MilestoneResponse{Milestone: m}, nil
}

// RecognizeRevenue books the revenue earned since the last update at the new completion
// percentage: Dr unbilled revenue, Cr revenue for the delta.
func (s *milestoneService) RecognizeRevenue(ctx context.Context, id string, req dto.RecognizeMilestoneRevenueRequest) (*dto.MilestoneResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	accounts := s.Accounts()
	var result *milestone.Milestone

	err := s.DB.WithTx(ctx, func(txCtx context.Context) error {
		m, err := s.MilestoneRepo.GetForUpdate(txCtx, id)
		if err != nil {
			return err
		}

		delta, err := m.CheckRecognizable(req.CompletionPercentage)
		if err != nil {
			return err
		}
		if err := m.CheckActualCost(req.ActualCost); err != nil {
			return err
		}

		m.ApplyRecognition(req.CompletionPercentage, delta, req.ActualCost, req.RecognitionDate)
		m.UpdatedAt = s.now()
		m.UpdatedBy = types.GetUserID(txCtx)

		tags := map[string]string{
			"project_id":            m.ProjectID,
			"milestone_id":          m.ID,
			"completion_percentage": req.CompletionPercentage.String(),
		}
		entry := ledger.NewEntry(req.RecognitionDate, m.Currency, ledger.ReferenceTypeMilestoneRecognize, m.ID,
			"Revenue recognized on milestone "+m.Name).
			Debit(accounts.UnbilledRevenue, delta, tags).
			Credit(accounts.Revenue, delta, tags).
			WithIdempotencyKey(m.RecognizedRevenue)

		entryID, err := s.Ledger.Post(txCtx, entry)
		if err != nil {
			return err
		}
		m.LastJournalEntryID = lo.ToPtr(entryID)

		if err := s.MilestoneRepo.Update(txCtx, m); err != nil {
			return err
		}
		result = m
		return nil
	})
	if err != nil {
		if !ierr.IsNoOp(err) && !ierr.IsValidation(err) && !ierr.IsNotFound(err) {
			s.Logger.WithContext(ctx).Errorw("failed to recognize milestone revenue",
				"milestone_id", id,
				"completion_percentage", req.CompletionPercentage.String(),
				"error", err)
		}
		return nil, err
	}

	s.scheduleService.InvalidateProject(ctx, result.ProjectID)
	s.Logger.WithContext(ctx).Infow("recognized milestone revenue",
		"milestone_id", result.ID,
		"completion_percentage", result.CompletionPercentage.String(),
		"recognized_revenue", result.RecognizedRevenue.String(),
		"milestone_status", result.Status)

	return &dto.MilestoneResponse{Milestone: result}, nil
}

func (s *milestoneService) AcceptMilestone(ctx context.Context, id string, req dto.AcceptMilestoneRequest) (*dto.MilestoneResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	acceptedAt := req.AcceptedAt
	if acceptedAt.IsZero() {
		acceptedAt = s.now()
	}

	result, err := s.mutate(ctx, id, func(m *milestone.Milestone) error {
		return m.Accept(req.AcceptedBy, acceptedAt)
	})
	if err != nil {
		return nil, err
	}

	s.Logger.WithContext(ctx).Infow("accepted milestone",
		"milestone_id", result.ID,
		"accepted_by", req.AcceptedBy)

	return &dto.MilestoneResponse{Milestone: result}, nil
}

func (s *milestoneService) CancelMilestone(ctx context.Context, id string, req dto.CancelMilestoneRequest) (*dto.MilestoneResponse, error) {
	at := s.now()
	result, err := s.mutate(ctx, id, func(m *milestone.Milestone) error {
		return m.Cancel(req.Reason, at)
	})
	if err != nil {
		return nil, err
	}

	s.Logger.WithContext(ctx).Infow("cancelled milestone",
		"milestone_id", result.ID,
		"reason", req.Reason)

	return &dto.MilestoneResponse{Milestone: result}, nil
}

func (s *milestoneService) RecordDelay(ctx context.Context, id string, req dto.RecordMilestoneDelayRequest) (*dto.MilestoneResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	result, err := s.mutate(ctx, id, func(m *milestone.Milestone) error {
		return m.RecordDelay(req.DelayDays, req.Reason)
	})
	if err != nil {
		return nil, err
	}

	s.Logger.WithContext(ctx).Infow("recorded milestone delay",
		"milestone_id", result.ID,
		"delay_days", req.DelayDays)

	return &dto.MilestoneResponse{Milestone: result}, nil
}

// mutate applies a ledger-free state change under the milestone's row lock.
func (s *milestoneService) mutate(ctx context.Context, id string, apply func(m *milestone.Milestone) error) (*milestone.Milestone, error) {
	var result *milestone.Milestone

	err := s.DB.WithTx(ctx, func(txCtx context.Context) error {
		m, err := s.MilestoneRepo.GetForUpdate(txCtx, id)
		if err != nil {
			return err
		}
		if err := apply(m); err != nil {
			return err
		}

		m.UpdatedAt = s.now()
		m.UpdatedBy = types.GetUserID(txCtx)
		if err := s.MilestoneRepo.Update(txCtx, m); err != nil {
			return err
		}
		result = m
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.scheduleService.InvalidateProject(ctx, result.ProjectID)
	return result, nil
}

func (s *milestoneService) GetMilestone(ctx context.Context, id string) (*dto.MilestoneResponse, error) {
	m, err := s.MilestoneRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &dto.MilestoneResponse{Milestone: m}, nil
}

func (s *milestoneService) ListProjectMilestones(ctx context.Context, projectID string) ([]*dto.MilestoneResponse, error) {
	if _, err := s.ProjectRepo.Get(ctx, projectID); err != nil {
		return nil, err
	}

	milestones, err := s.MilestoneRepo.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	return lo.Map(milestones, func(m *milestone.Milestone, _ int) *dto.MilestoneResponse {
		return &dto.MilestoneResponse{Milestone: m}
	}), nil
}
