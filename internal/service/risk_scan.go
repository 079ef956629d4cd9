package service

import (
	"context"

	"github.com/projectledger/projectledger/internal/api/dto"
	"github.com/projectledger/projectledger/internal/domain/project"
	"github.com/projectledger/projectledger/internal/interfaces"
	"github.com/samber/lo"
)

// RiskScanService sweeps every schedulable project and reports milestones at HIGH risk.
type RiskScanService interface {
	Scan(ctx context.Context) (*dto.PortfolioAnalysisResponse, error)
}

type riskScanService struct {
	ServiceParams
	scheduleService interfaces.ScheduleService
}

func NewRiskScanService(params ServiceParams, scheduleService interfaces.ScheduleService) RiskScanService {
	return &riskScanService{
		ServiceParams:   params,
		scheduleService: scheduleService,
	}
}

func (s *riskScanService) Scan(ctx context.Context) (*dto.PortfolioAnalysisResponse, error) {
	log := s.Logger.WithContext(ctx)

	projects, err := s.ProjectRepo.ListSchedulable(ctx)
	if err != nil {
		return nil, err
	}

	projectIDs := lo.Map(projects, func(p *project.Project, _ int) string { return p.ID })
	resp, err := s.scheduleService.AnalyzePortfolio(ctx, projectIDs)
	if err != nil {
		return nil, err
	}

	highRisks := 0
	for _, p := range projects {
		if msg, failed := resp.Errors[p.ID]; failed {
			log.Warnw("project schedule could not be analyzed",
				"project_id", p.ID,
				"project_code", p.Code,
				"error", msg)
			continue
		}

		analysis, ok := resp.Analyses[p.ID]
		if !ok {
			continue
		}
		for _, r := range analysis.HighRisks() {
			highRisks++
			log.Warnw("milestone at high risk",
				"project_id", p.ID,
				"project_code", p.Code,
				"milestone_id", r.MilestoneID,
				"milestone_name", r.Name,
				"reasons", r.Reasons)
		}
	}

	log.Infow("risk scan completed",
		"projects", len(projects),
		"failed", len(resp.Errors),
		"high_risks", highRisks)

	return resp, nil
}
